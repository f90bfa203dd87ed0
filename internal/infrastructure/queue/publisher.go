package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jhoicas/crm-api/internal/application/ports"
	"github.com/jhoicas/crm-api/internal/infrastructure/metrics"
	"github.com/jhoicas/crm-api/pkg/logger"
)

var (
	_ ports.EventPublisher = (*Publisher)(nil)
	_ ports.EventPublisher = (*LogPublisher)(nil)
)

// Publisher publica sobres persistentes en ex.crm.events.
type Publisher struct {
	ch *amqp.Channel
}

// NewPublisher construye el publicador sobre el canal de la conexión.
func NewPublisher(ch *amqp.Channel) *Publisher {
	return &Publisher{ch: ch}
}

// Publish serializa el sobre y lo deja en la cola de entregas.
func (p *Publisher) Publish(ctx context.Context, env ports.Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		metrics.RecordEventPublished(env.Event, "error")
		return fmt.Errorf("serializar sobre: %w", err)
	}

	err = p.ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         env.Event,
			Timestamp:    time.Now().UTC(),
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		metrics.RecordEventPublished(env.Event, "error")
		return fmt.Errorf("publicar en RabbitMQ: %w", err)
	}
	metrics.RecordEventPublished(env.Event, "ok")
	return nil
}

// LogPublisher sin broker configurado: el sobre solo queda en el log.
type LogPublisher struct {
	log *logger.Logger
}

// NewLogPublisher construye el publicador de respaldo.
func NewLogPublisher(log *logger.Logger) *LogPublisher {
	return &LogPublisher{log: log.Component("events")}
}

// Publish registra el sobre.
func (p *LogPublisher) Publish(_ context.Context, env ports.Envelope) error {
	p.log.Info().
		Str("event", env.Event).
		Str("timestamp", env.Timestamp).
		Str("user_id", env.UserID()).
		Interface("data", env.Data).
		Msg("evento saliente (sin broker)")
	metrics.RecordEventPublished(env.Event, "logged")
	return nil
}
