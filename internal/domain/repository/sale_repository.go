package repository

import (
	"context"

	"github.com/jhoicas/crm-api/internal/domain/entity"
)

// SaleRepository puerto de persistencia para Sale. Cada autor (UserID) es una partición;
// la vista del equipo es la unión de particiones, calculada en la consulta.
type SaleRepository interface {
	Create(ctx context.Context, s *entity.Sale) error
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	Update(ctx context.Context, s *entity.Sale) error
	Delete(ctx context.Context, id string) error
	ListByAuthors(ctx context.Context, authorIDs []string) ([]*entity.Sale, error)
}
