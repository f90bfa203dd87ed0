package repository

import (
	"context"

	"github.com/jhoicas/crm-api/internal/domain/entity"
)

// WebhookRepository puerto de persistencia para la configuración de webhooks.
type WebhookRepository interface {
	Create(ctx context.Context, w *entity.Webhook) error
	GetByID(ctx context.Context, id string) (*entity.Webhook, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*entity.Webhook, error)
	ListActiveOutgoing(ctx context.Context, ownerID string) ([]*entity.Webhook, error)
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}
