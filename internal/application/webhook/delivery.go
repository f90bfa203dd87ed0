package webhook

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhoicas/crm-api/internal/application/ports"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/repository"
	"github.com/jhoicas/crm-api/pkg/logger"
)

// Sender envía un sobre a la URL de un webhook saliente. Un solo intento.
type Sender interface {
	Send(ctx context.Context, w *entity.Webhook, env ports.Envelope) error
}

// DeliveryUseCase entrega un sobre a todos los webhooks salientes activos del equipo
// suscritos al evento.
type DeliveryUseCase struct {
	webhooks repository.WebhookRepository
	profiles repository.ProfileRepository
	sender   Sender
	log      *logger.Logger
}

// NewDeliveryUseCase construye el caso de uso.
func NewDeliveryUseCase(webhooks repository.WebhookRepository, profiles repository.ProfileRepository, sender Sender, log *logger.Logger) *DeliveryUseCase {
	return &DeliveryUseCase{webhooks: webhooks, profiles: profiles, sender: sender, log: log.Component("delivery")}
}

// Deliver devuelve la cantidad de destinos alcanzados. Si alguno falla, el error los reúne todos.
// Los sobres que no generó la API (relay público) no salen a URLs externas.
func (uc *DeliveryUseCase) Deliver(ctx context.Context, env ports.Envelope) (int, error) {
	if !env.Internal() {
		uc.log.Warn().Str("event", env.Event).Str("user_id", env.UserID()).Msg("sobre externo descartado")
		return 0, nil
	}
	tenant, err := uc.tenantOf(ctx, env.UserID())
	if err != nil {
		return 0, err
	}
	if tenant == "" {
		return 0, nil
	}
	hooks, err := uc.webhooks.ListActiveOutgoing(ctx, tenant)
	if err != nil {
		return 0, fmt.Errorf("listar webhooks salientes: %w", err)
	}
	var (
		sent int
		errs []error
	)
	for _, w := range hooks {
		if !w.Subscribed(env.Event) {
			continue
		}
		if err := uc.sender.Send(ctx, w, env); err != nil {
			uc.log.Warn().Err(err).Str("webhook_id", w.ID).Str("event", env.Event).Msg("entrega fallida")
			errs = append(errs, fmt.Errorf("webhook %s: %w", w.ID, err))
			continue
		}
		sent++
	}
	return sent, errors.Join(errs...)
}

// tenantOf resuelve el equipo del userId del sobre. Si no hay perfil se usa el id tal cual.
func (uc *DeliveryUseCase) tenantOf(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", nil
	}
	p, err := uc.profiles.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("obtener perfil: %w", err)
	}
	if p == nil {
		return userID, nil
	}
	return p.TenantID(), nil
}
