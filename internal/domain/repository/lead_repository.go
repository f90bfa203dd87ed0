package repository

import (
	"context"
	"time"

	"github.com/jhoicas/crm-api/internal/domain/entity"
)

// LeadQuery filtro de listado. ScopeIDs limita a leads cuyo dueño o asignado esté en la lista;
// un ScopeIDs vacío no devuelve nada.
type LeadQuery struct {
	ScopeIDs   []string
	AssignedTo string
	Status     string
	Limit      int
	Offset     int
}

// LeadRepository puerto de persistencia para Lead.
type LeadRepository interface {
	Create(ctx context.Context, l *entity.Lead) error
	GetByID(ctx context.Context, id string) (*entity.Lead, error)
	Update(ctx context.Context, l *entity.Lead) error
	// UpdateStatus devuelve domain.ErrNotFound si el lead no existe.
	UpdateStatus(ctx context.Context, id, status string, at time.Time) error
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (int64, error)
	AssignMany(ctx context.Context, ids []string, assignee string, at time.Time) (int64, error)
	List(ctx context.Context, q LeadQuery) ([]*entity.Lead, error)
	// SourceCounts cuenta leads del alcance agrupados por source (solo los que empiezan con "Webhook").
	SourceCounts(ctx context.Context, scopeIDs []string) (map[string]int, error)
}

// FeedbackRepository hilo de comentarios de un lead.
type FeedbackRepository interface {
	Create(ctx context.Context, f *entity.LeadFeedback) error
	ListByLead(ctx context.Context, leadID string) ([]*entity.LeadFeedback, error)
}
