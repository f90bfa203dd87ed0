package ports

import (
	"context"
	"time"
)

// OriginInternal marca los sobres generados por la propia API (movimientos, ventas).
const OriginInternal = "crm"

// Envelope sobre normalizado que se entrega a los webhooks salientes.
// Solo los sobres con Origin == OriginInternal se entregan a URLs externas.
type Envelope struct {
	Event     string         `json:"event"`
	Timestamp string         `json:"timestamp"`
	Data      map[string]any `json:"data"`
	Origin    string         `json:"origin,omitempty"`
}

// NewEnvelope arma el sobre con marca de tiempo ISO-8601 en UTC.
func NewEnvelope(event string, at time.Time, data map[string]any) Envelope {
	if data == nil {
		data = map[string]any{}
	}
	return Envelope{Event: event, Timestamp: at.UTC().Format("2006-01-02T15:04:05.000Z07:00"), Data: data}
}

// NewInternalEnvelope sobre de un evento generado por la API.
func NewInternalEnvelope(event string, at time.Time, data map[string]any) Envelope {
	env := NewEnvelope(event, at, data)
	env.Origin = OriginInternal
	return env
}

// Internal indica si el sobre lo generó la API.
func (e Envelope) Internal() bool { return e.Origin == OriginInternal }

// UserID dueño del evento (data.userId), usado para resolver el equipo destino.
func (e Envelope) UserID() string {
	s, _ := e.Data["userId"].(string)
	return s
}

// EventPublisher entrega el sobre al colaborador de despacho (broker o log). No reintenta.
type EventPublisher interface {
	Publish(ctx context.Context, env Envelope) error
}
