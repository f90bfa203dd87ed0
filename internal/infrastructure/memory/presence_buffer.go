package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/crm-api/internal/application/presence"
)

var _ presence.Buffer = (*PresenceBuffer)(nil)

// PresenceBuffer acumula pings en memoria hasta el próximo volcado.
type PresenceBuffer struct {
	mu    sync.Mutex
	pings map[string]time.Time
}

// NewPresenceBuffer crea el buffer vacío.
func NewPresenceBuffer() *PresenceBuffer {
	return &PresenceBuffer{pings: map[string]time.Time{}}
}

// Ping guarda el instante más reciente por perfil.
func (b *PresenceBuffer) Ping(_ context.Context, profileID string, at time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if prev, ok := b.pings[profileID]; !ok || at.After(prev) {
		b.pings[profileID] = at
	}
	return nil
}

// Drain devuelve los pings y vacía el buffer.
func (b *PresenceBuffer) Drain(_ context.Context) (map[string]time.Time, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.pings
	b.pings = map[string]time.Time{}
	return out, nil
}
