// Package presence implementa el heartbeat de "último visto": los pings se acumulan en un
// buffer y una tarea programada los vuelca a profiles.last_seen_at.
package presence

import (
	"context"
	"time"

	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/domain/entity"
)

// Buffer acumula pings hasta el próximo volcado.
type Buffer interface {
	Ping(ctx context.Context, profileID string, at time.Time) error
	// Drain devuelve y limpia los pings acumulados (último instante por perfil).
	Drain(ctx context.Context) (map[string]time.Time, error)
}

// HeartbeatUseCase registra pings de presencia.
type HeartbeatUseCase struct {
	buffer Buffer
	now    func() time.Time
}

// NewHeartbeatUseCase construye el caso de uso.
func NewHeartbeatUseCase(buffer Buffer) *HeartbeatUseCase {
	return &HeartbeatUseCase{buffer: buffer, now: time.Now}
}

// Heartbeat registra que el principal sigue conectado.
func (uc *HeartbeatUseCase) Heartbeat(ctx context.Context, p *entity.Principal) error {
	if !p.IsAuthenticated() {
		return domain.ErrUnauthorized
	}
	return uc.buffer.Ping(ctx, p.ProfileID, uc.now().UTC())
}
