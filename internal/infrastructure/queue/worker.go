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

// Deliverer entrega un sobre a los webhooks del equipo (webhook.DeliveryUseCase).
type Deliverer interface {
	Deliver(ctx context.Context, env ports.Envelope) (int, error)
}

// Worker consume q.webhook.deliveries. Ack si todas las entregas salen bien; cualquier fallo
// se rechaza sin requeue y el mensaje pasa a la DLQ.
type Worker struct {
	conn      *amqp.Connection
	deliverer Deliverer
	timeout   time.Duration
	log       *logger.Logger
}

// NewWorker construye el worker. Abre su propio canal al arrancar.
func NewWorker(conn *amqp.Connection, deliverer Deliverer, timeout time.Duration, log *logger.Logger) *Worker {
	return &Worker{conn: conn, deliverer: deliverer, timeout: timeout, log: log.Component("delivery_worker")}
}

// Run bloquea hasta que ctx se cancele o el canal se cierre.
func (w *Worker) Run(ctx context.Context) error {
	ch, err := w.conn.Channel()
	if err != nil {
		return fmt.Errorf("abrir canal del worker: %w", err)
	}
	defer ch.Close()

	if err := ch.Qos(10, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, QueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("registrar consumidor: %w", err)
	}
	w.log.Info().Str("queue", QueueName).Msg("worker de entregas en espera")

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("canal de entregas cerrado")
			}
			w.handle(ctx, d)
		}
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	var env ports.Envelope
	if err := json.Unmarshal(d.Body, &env); err != nil {
		w.log.Error().Err(err).Msg("sobre inválido, va a la DLQ")
		_ = d.Nack(false, false)
		return
	}

	dctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	sent, err := w.deliverer.Deliver(dctx, env)
	if err != nil {
		metrics.RecordDelivery("error")
		w.log.Warn().Err(err).Str("event", env.Event).Int("sent", sent).Msg("entrega incompleta, va a la DLQ")
		_ = d.Nack(false, false)
		return
	}
	if sent > 0 {
		metrics.RecordDelivery("ok")
	}
	w.log.Debug().Str("event", env.Event).Int("sent", sent).Msg("sobre entregado")
	_ = d.Ack(false)
}
