package dto

// CreateSubUserRequest alta de un miembro del equipo por el master.
type CreateSubUserRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// SetActiveRequest activa o desactiva un recurso.
type SetActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// UserStatsResponse resumen del equipo.
type UserStatsResponse struct {
	TotalUsers     int `json:"totalUsers"`
	ActiveUsers    int `json:"activeUsers"`
	Administrators int `json:"administrators"`
}
