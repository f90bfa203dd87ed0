// Package realtime reparte las notificaciones de cambios de leads a los clientes suscritos
// de cada equipo. Los clientes no aplican deltas: al recibir un aviso vuelven a consultar.
package realtime

import (
	"sync"

	"github.com/jhoicas/crm-api/internal/domain/entity"
)

// Event aviso enviado al cliente.
type Event struct {
	Type        string `json:"type"` // siempre "refetch"
	Op          string `json:"op,omitempty"`
	LeadID      string `json:"lead_id,omitempty"`
	OwnerUserID string `json:"-"`
}

// For recorta el aviso según lo que el principal puede ver. Un miembro solo recibe op y
// lead_id de sus propios leads; del resto del equipo le llega un refetch sin detalle.
func (e Event) For(p *entity.Principal) Event {
	if p.IsMaster() || (p.IsAuthenticated() && e.OwnerUserID == p.ProfileID) {
		return e
	}
	return Event{Type: e.Type}
}

// Hub suscripciones por tenant. Un suscriptor lento pierde avisos en lugar de bloquear al resto.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[chan Event]struct{}
	buffer int
}

// NewHub crea el hub. buffer es la capacidad del canal de cada suscriptor.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{subs: map[string]map[chan Event]struct{}{}, buffer: buffer}
}

// Subscribe registra un suscriptor del tenant. La función devuelta cancela la suscripción
// y cierra el canal; es segura de llamar más de una vez.
func (h *Hub) Subscribe(tenantID string) (<-chan Event, func()) {
	ch := make(chan Event, h.buffer)
	h.mu.Lock()
	if h.subs[tenantID] == nil {
		h.subs[tenantID] = map[chan Event]struct{}{}
	}
	h.subs[tenantID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[tenantID], ch)
			if len(h.subs[tenantID]) == 0 {
				delete(h.subs, tenantID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Broadcast envía el aviso a los suscriptores del tenant. Devuelve cuántos lo recibieron.
func (h *Hub) Broadcast(tenantID string, ev Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for ch := range h.subs[tenantID] {
		select {
		case ch <- ev:
			n++
		default:
		}
	}
	return n
}

// Subscribers cantidad de suscriptores del tenant.
func (h *Hub) Subscribers(tenantID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[tenantID])
}
