package ports

import (
	"context"
	"time"

	"github.com/jhoicas/crm-api/internal/domain/entity"
)

// BoardView es la vista local del tablero de un equipo (tenant). Sobre ella se aplican
// los movimientos optimistas; ante un fallo de persistencia se reemplaza con el estado del
// servidor (Store), nunca se deshace a mano el parche.
//
// Cualquier adaptador (Redis, memoria del proceso) debe implementar esta interfaz.
type BoardView interface {
	// Load devuelve la vista del tenant; ok=false si no hay vista cargada.
	Load(ctx context.Context, tenantID string) (leads []*entity.Lead, ok bool, err error)
	Store(ctx context.Context, tenantID string, leads []*entity.Lead) error
	// Patch cambia el status de un lead dentro de la vista (sin tocar el almacén).
	Patch(ctx context.Context, tenantID, leadID, status string, at time.Time) error
	Invalidate(ctx context.Context, tenantID string) error
}
