package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/application/settings"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/pkg/logger"
)

// SettingsHandler columnas del tablero y preferencias del usuario.
type SettingsHandler struct {
	uc  *settings.SettingsUseCase
	log *logger.Logger
}

// NewSettingsHandler construye el handler.
func NewSettingsHandler(uc *settings.SettingsUseCase, log *logger.Logger) *SettingsHandler {
	return &SettingsHandler{uc: uc, log: log}
}

// Stages godoc
// @Summary      Columnas del tablero del equipo
// @Tags         settings
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.StageDTO
// @Router       /api/settings/stages [get]
func (h *SettingsHandler) Stages(c *fiber.Ctx) error {
	return h.stages(c, func() ([]entity.KanbanStage, error) {
		return h.uc.Stages(c.UserContext(), PrincipalFromCtx(c))
	})
}

// SaveStages godoc
// @Summary      Reemplazar columnas (solo master)
// @Tags         settings
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SaveStagesRequest  true  "Columnas"
// @Success      200   {array}  dto.StageDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/settings/stages [put]
func (h *SettingsHandler) SaveStages(c *fiber.Ctx) error {
	var in dto.SaveStagesRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	list := make([]entity.KanbanStage, 0, len(in.Stages))
	for _, s := range in.Stages {
		list = append(list, entity.KanbanStage{ID: s.ID, Name: s.Name, Color: s.Color})
	}
	return h.stages(c, func() ([]entity.KanbanStage, error) {
		return h.uc.SaveStages(c.UserContext(), PrincipalFromCtx(c), list)
	})
}

// AddStage agrega una columna personalizada al final.
func (h *SettingsHandler) AddStage(c *fiber.Ctx) error {
	var in dto.AddStageRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	return h.stages(c, func() ([]entity.KanbanStage, error) {
		return h.uc.AddStage(c.UserContext(), PrincipalFromCtx(c), in.Name, in.Color)
	})
}

// UpdateStage renombra o recolorea una columna.
func (h *SettingsHandler) UpdateStage(c *fiber.Ctx) error {
	var in dto.UpdateStageRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	return h.stages(c, func() ([]entity.KanbanStage, error) {
		return h.uc.UpdateStage(c.UserContext(), PrincipalFromCtx(c), c.Params("id"), in.Name, in.Color)
	})
}

// DeleteStage quita una columna; deben quedar al menos dos.
func (h *SettingsHandler) DeleteStage(c *fiber.Ctx) error {
	return h.stages(c, func() ([]entity.KanbanStage, error) {
		return h.uc.DeleteStage(c.UserContext(), PrincipalFromCtx(c), c.Params("id"))
	})
}

// ReorderStages aplica un nuevo orden por id.
func (h *SettingsHandler) ReorderStages(c *fiber.Ctx) error {
	var in dto.ReorderStagesRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	return h.stages(c, func() ([]entity.KanbanStage, error) {
		return h.uc.ReorderStages(c.UserContext(), PrincipalFromCtx(c), in.IDs)
	})
}

// Preferences godoc
// @Summary      Preferencias del usuario
// @Tags         settings
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  entity.Preferences
// @Router       /api/settings/preferences [get]
func (h *SettingsHandler) Preferences(c *fiber.Ctx) error {
	prefs, err := h.uc.Preferences(c.UserContext(), PrincipalFromCtx(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(prefs)
}

// SavePreferences guarda las preferencias completas del usuario.
func (h *SettingsHandler) SavePreferences(c *fiber.Ctx) error {
	var in entity.Preferences
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	prefs, err := h.uc.SavePreferences(c.UserContext(), PrincipalFromCtx(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(prefs)
}

func (h *SettingsHandler) stages(c *fiber.Ctx, fn func() ([]entity.KanbanStage, error)) error {
	list, err := fn()
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.StageDTO, 0, len(list))
	for _, s := range list {
		out = append(out, dto.FromStage(s))
	}
	return c.JSON(out)
}
