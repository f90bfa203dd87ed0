package entity

import "time"

// Tipos de webhook.
const (
	WebhookIncoming = "incoming"
	WebhookOutgoing = "outgoing"
)

// Eventos disponibles por tipo.
var (
	IncomingWebhookEvents = []string{"lead.created", "lead.updated", "form.submitted", "contact.new"}
	OutgoingWebhookEvents = []string{"lead.status.changed", "sale.completed", "user.action", "pipeline.moved"}
)

// Webhook integración configurada por el master del equipo.
// En los incoming la URL se genera e incluye OwnerID y el ID del webhook; solo IsActive es mutable.
type Webhook struct {
	ID        string
	OwnerID   string
	Name      string
	Type      string
	URL       string
	Method    string
	Events    []string
	IsActive  bool
	CreatedAt time.Time
}

// Subscribed indica si un webhook saliente debe recibir el evento. Sin eventos = todos.
func (w *Webhook) Subscribed(event string) bool {
	if len(w.Events) == 0 {
		return true
	}
	for _, e := range w.Events {
		if e == event {
			return true
		}
	}
	return false
}
