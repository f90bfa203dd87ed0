package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateLeadRequest alta manual de un lead.
type CreateLeadRequest struct {
	Name       string          `json:"name" validate:"required,max=200"`
	Email      string          `json:"email" validate:"required,email"`
	Phone      string          `json:"phone" validate:"omitempty,max=50"`
	Company    string          `json:"company" validate:"omitempty,max=200"`
	Value      decimal.Decimal `json:"value"`
	Source     string          `json:"source" validate:"omitempty,max=200"`
	Tags       []string        `json:"tags"`
	Notes      string          `json:"notes"`
	AssignedTo string          `json:"assigned_to"`
}

// UpdateLeadRequest edición parcial; los campos nil no se tocan.
type UpdateLeadRequest struct {
	Name       *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Email      *string          `json:"email" validate:"omitempty,email"`
	Phone      *string          `json:"phone" validate:"omitempty,max=50"`
	Company    *string          `json:"company" validate:"omitempty,max=200"`
	Value      *decimal.Decimal `json:"value"`
	Status     *string          `json:"status" validate:"omitempty,oneof=new contacted qualified proposal won lost"`
	Tags       []string         `json:"tags"`
	Notes      *string          `json:"notes"`
	Source     *string          `json:"source" validate:"omitempty,max=200"`
	AssignedTo *string          `json:"assigned_to"`
}

// LeadFilter filtros de listado y tablero.
type LeadFilter struct {
	Search     string `query:"search"`
	AssignedTo string `query:"assigned_to"`
	Status     string `query:"status" validate:"omitempty,oneof=new contacted qualified proposal won lost"`
	PageRequest
}

// LeadResponse salida de un lead.
type LeadResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Phone       string          `json:"phone"`
	Company     string          `json:"company"`
	Value       decimal.Decimal `json:"value"`
	Status      string          `json:"status"`
	Tags        []string        `json:"tags"`
	AssignedTo  string          `json:"assigned_to"`
	OwnerUserID string          `json:"user_id"`
	Notes       string          `json:"notes"`
	Source      string          `json:"source"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TagRequest etiqueta a agregar.
type TagRequest struct {
	Tag string `json:"tag" validate:"required,max=60"`
}

// BulkAssignRequest delegación de varios leads a un miembro.
type BulkAssignRequest struct {
	LeadIDs    []string `json:"lead_ids" validate:"required,min=1,dive,required"`
	AssignedTo string   `json:"assigned_to" validate:"required"`
}

// BulkDeleteRequest borrado de varios leads.
type BulkDeleteRequest struct {
	LeadIDs []string `json:"lead_ids" validate:"required,min=1,dive,required"`
}

// BulkResult cantidad de registros afectados.
type BulkResult struct {
	Affected int64 `json:"affected"`
}

// FeedbackRequest nuevo comentario en el hilo del lead.
type FeedbackRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

// FeedbackResponse comentario del hilo.
type FeedbackResponse struct {
	ID        string    `json:"id"`
	LeadID    string    `json:"lead_id"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
