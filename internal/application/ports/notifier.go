package ports

import (
	"context"

	"github.com/jhoicas/crm-api/internal/domain/entity"
)

// LeadNotifier avisa al master del equipo de un lead nuevo recibido por webhook.
type LeadNotifier interface {
	NotifyNewLead(ctx context.Context, to *entity.Profile, lead *entity.Lead) error
}
