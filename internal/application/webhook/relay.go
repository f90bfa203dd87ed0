package webhook

import (
	"context"
	"time"

	"github.com/jhoicas/crm-api/internal/application/ports"
	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/pkg/logger"
)

// RelayUseCase arma el sobre normalizado de un evento saliente y lo entrega al publicador.
// El endpoint es público: el sobre nunca lleva Origin interno y el despacho no lo reenvía
// a los webhooks salientes del equipo. No reintenta.
type RelayUseCase struct {
	publisher ports.EventPublisher
	log       *logger.Logger
	now       func() time.Time
}

// NewRelayUseCase construye el caso de uso.
func NewRelayUseCase(publisher ports.EventPublisher, log *logger.Logger) *RelayUseCase {
	return &RelayUseCase{publisher: publisher, log: log.Component("relay"), now: time.Now}
}

// Relay valida event y userId y publica {event, timestamp, data}. data es el cuerpo completo
// con leadId, leadData y userId presentes si vinieron.
func (uc *RelayUseCase) Relay(ctx context.Context, body Fields) (ports.Envelope, error) {
	var missing []string
	for _, k := range []string{"event", "userId"} {
		if body.String(k) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return ports.Envelope{}, domain.NewValidationError("Missing required fields", missing...)
	}

	data := body.Clone()
	for _, k := range []string{"leadId", "leadData"} {
		if v, ok := data[k]; ok && v == nil {
			delete(data, k)
		}
	}
	env := ports.NewEnvelope(body.String("event"), uc.now(), data)
	if err := uc.publisher.Publish(ctx, env); err != nil {
		uc.log.Error().Err(err).Str("event", env.Event).Msg("no se pudo publicar el evento saliente")
		return ports.Envelope{}, &domain.PersistenceError{Op: "publicar evento", Err: err}
	}
	return env, nil
}
