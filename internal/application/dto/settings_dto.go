package dto

// SaveStagesRequest reemplazo completo de las columnas (renombrar, recolorear, reordenar).
type SaveStagesRequest struct {
	Stages []StageDTO `json:"stages" validate:"required,dive"`
}

// AddStageRequest nueva columna personalizada.
type AddStageRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

// UpdateStageRequest renombrar o recolorear una columna.
type UpdateStageRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=100"`
	Color *string `json:"color" validate:"omitempty,hexcolor"`
}

// ReorderStagesRequest nuevo orden de las columnas por id.
type ReorderStagesRequest struct {
	IDs []string `json:"ids" validate:"required,min=2,dive,required"`
}
