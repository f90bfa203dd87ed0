package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleRequest alta o edición de una venta.
type SaleRequest struct {
	CustomerName    string          `json:"customerName" validate:"required,max=200"`
	CustomerEmail   string          `json:"customerEmail" validate:"required,email"`
	CustomerPhone   string          `json:"customerPhone" validate:"omitempty,max=50"`
	Product         string          `json:"product" validate:"required,max=200"`
	Value           decimal.Decimal `json:"value"`
	Status          string          `json:"status" validate:"omitempty,oneof=entry completed"`
	Tags            []string        `json:"tags"`
	AppointmentDate *time.Time      `json:"appointmentDate"`
	Notes           string          `json:"notes"`
}

// SaleFilter filtros del listado de ventas.
type SaleFilter struct {
	Search string `query:"search"`
	UserID string `query:"user_id"`
}

// SaleResponse salida de una venta.
type SaleResponse struct {
	ID              string          `json:"id"`
	CustomerName    string          `json:"customerName"`
	CustomerEmail   string          `json:"customerEmail"`
	CustomerPhone   string          `json:"customerPhone"`
	Product         string          `json:"product"`
	Value           decimal.Decimal `json:"value"`
	Status          string          `json:"status"`
	Tags            []string        `json:"tags"`
	AppointmentDate *time.Time      `json:"appointmentDate,omitempty"`
	CompletedAt     time.Time       `json:"completedAt"`
	UserID          string          `json:"userId"`
	Notes           string          `json:"notes"`
}

// SaleTotals agregados del libro de ventas. Realizado y abonos nunca se suman como "revenue".
type SaleTotals struct {
	RealizedRevenue decimal.Decimal `json:"realizedRevenue"`
	PendingEntries  decimal.Decimal `json:"pendingEntries"`
	CombinedTotal   decimal.Decimal `json:"combinedTotal"`
	Count           int             `json:"count"`
	AverageTicket   decimal.Decimal `json:"averageTicket"`
}
