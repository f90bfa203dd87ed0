package dto

import "time"

// RegisterRequest alta de una cuenta master (primer acceso).
type RegisterRequest struct {
	Name     string `json:"name" validate:"omitempty,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest credenciales de acceso.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ProfileResponse salida de un perfil (sin credenciales).
type ProfileResponse struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Role            string     `json:"role"`
	MasterAccountID string     `json:"master_account_id,omitempty"`
	IsActive        bool       `json:"is_active"`
	LastSeenAt      *time.Time `json:"last_seen_at,omitempty"`
	Online          bool       `json:"online"`
	Presence        string     `json:"presence"`
	CreatedAt       time.Time  `json:"created_at"`
}

// LoginResponse token JWT y perfil autenticado.
type LoginResponse struct {
	Token   string          `json:"token"`
	Profile ProfileResponse `json:"profile"`
}

// UpdateProfileRequest cambio de nombre del perfil propio.
type UpdateProfileRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}
