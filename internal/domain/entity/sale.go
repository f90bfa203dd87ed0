package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una venta: entry = abono/parcial, completed = venta realizada.
const (
	SaleStatusEntry     = "entry"
	SaleStatusCompleted = "completed"
)

// Sale venta registrada por un miembro del equipo. UserID define su partición.
type Sale struct {
	ID              string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	Product         string
	Value           decimal.Decimal
	Status          string
	Tags            []string
	AppointmentDate *time.Time
	CompletedAt     time.Time
	UserID          string
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// VisibleTo: el master ve su equipo (se filtra por partición en la consulta); un user solo lo propio.
func (s *Sale) VisibleTo(p *Principal) bool {
	if !p.IsAuthenticated() {
		return false
	}
	return p.Role == RoleMaster || s.UserID == p.ProfileID
}
