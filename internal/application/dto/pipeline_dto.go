package dto

import "github.com/shopspring/decimal"

// MoveLeadRequest arrastre de un lead entre columnas (o dentro de la misma).
type MoveLeadRequest struct {
	LeadID     string `json:"lead_id" validate:"required"`
	FromStatus string `json:"from_status" validate:"required"`
	ToStatus   string `json:"to_status" validate:"required"`
	FromIndex  int    `json:"from_index"`
	ToIndex    int    `json:"to_index"`
}

// MoveLeadResponse resultado del movimiento.
type MoveLeadResponse struct {
	Skipped bool          `json:"skipped"`
	Message string        `json:"message,omitempty"`
	Lead    *LeadResponse `json:"lead,omitempty"`
}

// StageDTO columna del tablero.
type StageDTO struct {
	ID    string `json:"id" validate:"required,max=60"`
	Name  string `json:"name" validate:"required,max=100"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

// BoardColumn columna con sus leads.
type BoardColumn struct {
	Stage StageDTO        `json:"stage"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
	Leads []LeadResponse  `json:"leads"`
}

// BoardResponse tablero completo.
type BoardResponse struct {
	Columns []BoardColumn `json:"columns"`
}
