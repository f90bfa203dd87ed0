package presence_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jhoicas/crm-api/internal/application/apptest"
	"github.com/jhoicas/crm-api/internal/application/presence"
	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/infrastructure/memory"
	"github.com/jhoicas/crm-api/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ──────────────────────────────────────────────────────────────────────────────
// Etiquetas de presencia
// ──────────────────────────────────────────────────────────────────────────────

func TestStatus(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ago := func(d time.Duration) *time.Time { t := now.Add(-d); return &t }

	tests := []struct {
		name   string
		last   *time.Time
		online bool
		label  string
	}{
		{"nunca", nil, false, "Nunca"},
		{"hace 1 min", ago(time.Minute), true, "En línea"},
		{"límite 5 min", ago(5 * time.Minute), false, "Visto hace 5 min"},
		{"hace 42 min", ago(42 * time.Minute), false, "Visto hace 42 min"},
		{"hace 3 h", ago(3*time.Hour + 10*time.Minute), false, "Visto hace 3 h"},
		{"hace 2 días", ago(49 * time.Hour), false, "Visto hace 2 días"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			online, label := presence.Status(tt.last, now, presence.DefaultOnlineThreshold)
			assert.Equal(t, tt.online, online)
			assert.Equal(t, tt.label, label)
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Heartbeat + volcado
// ──────────────────────────────────────────────────────────────────────────────

type busyLocker struct{}

func (busyLocker) Obtain(context.Context, string, time.Duration) (func(context.Context) error, error) {
	return nil, presence.ErrLockNotObtained
}

func TestHeartbeat_SinSesion(t *testing.T) {
	uc := presence.NewHeartbeatUseCase(memory.NewPresenceBuffer())
	err := uc.Heartbeat(context.Background(), nil)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestFlush_ActualizaLastSeen(t *testing.T) {
	ctx := context.Background()
	profiles := apptest.NewProfiles(&entity.Profile{ID: "u-1", Role: entity.RoleMaster, IsActive: true})
	buf := memory.NewPresenceBuffer()

	hb := presence.NewHeartbeatUseCase(buf)
	require.NoError(t, hb.Heartbeat(ctx, &entity.Principal{ProfileID: "u-1", Role: entity.RoleMaster}))

	f := presence.NewFlusher(buf, profiles, nil, logger.Nop())
	n, err := f.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	p, _ := profiles.GetByID(ctx, "u-1")
	require.NotNil(t, p.LastSeenAt)
}

func TestFlush_LockOcupadoNoDrena(t *testing.T) {
	ctx := context.Background()
	buf := memory.NewPresenceBuffer()
	require.NoError(t, buf.Ping(ctx, "u-1", time.Now()))

	f := presence.NewFlusher(buf, apptest.NewProfiles(), busyLocker{}, logger.Nop())
	_, err := f.Flush(ctx)
	assert.ErrorIs(t, err, presence.ErrLockNotObtained)

	pings, _ := buf.Drain(ctx)
	assert.Len(t, pings, 1, "los pings siguen en el buffer para el próximo ciclo")
}
