// Package memory contiene adaptadores en memoria del proceso para los puertos de caché,
// usados cuando no hay Redis configurado (una sola instancia).
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/crm-api/internal/application/ports"
	"github.com/jhoicas/crm-api/internal/domain/entity"
)

var _ ports.BoardView = (*BoardCache)(nil)

// BoardCache vista local del tablero por tenant, con expiración.
type BoardCache struct {
	mu    sync.RWMutex
	ttl   time.Duration
	views map[string]boardEntry
	now   func() time.Time
}

type boardEntry struct {
	leads   []*entity.Lead
	expires time.Time
}

// NewBoardCache crea la caché. ttl <= 0 = sin expiración.
func NewBoardCache(ttl time.Duration) *BoardCache {
	return &BoardCache{ttl: ttl, views: map[string]boardEntry{}, now: time.Now}
}

// Load devuelve una copia de la vista del tenant.
func (c *BoardCache) Load(_ context.Context, tenantID string) ([]*entity.Lead, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.views[tenantID]
	if !ok || (c.ttl > 0 && c.now().After(e.expires)) {
		return nil, false, nil
	}
	return cloneAll(e.leads), true, nil
}

// Store reemplaza la vista del tenant.
func (c *BoardCache) Store(_ context.Context, tenantID string, leads []*entity.Lead) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.views[tenantID] = boardEntry{leads: cloneAll(leads), expires: c.now().Add(c.ttl)}
	return nil
}

// Patch aplica el cambio de status sobre la vista si está cargada.
func (c *BoardCache) Patch(_ context.Context, tenantID, leadID, status string, at time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.views[tenantID]
	if !ok {
		return nil
	}
	for _, l := range e.leads {
		if l.ID == leadID {
			l.Status = status
			l.UpdatedAt = at
			break
		}
	}
	return nil
}

// Invalidate descarta la vista del tenant.
func (c *BoardCache) Invalidate(_ context.Context, tenantID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.views, tenantID)
	return nil
}

func cloneAll(list []*entity.Lead) []*entity.Lead {
	out := make([]*entity.Lead, 0, len(list))
	for _, l := range list {
		cp := *l
		cp.Tags = append([]string(nil), l.Tags...)
		out = append(out, &cp)
	}
	return out
}
