package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/application/team"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/pkg/logger"
)

// TeamHandler equipo del master: miembros, asignables, estadísticas y alta/baja.
type TeamHandler struct {
	uc  *team.TeamUseCase
	log *logger.Logger
}

// NewTeamHandler construye el handler.
func NewTeamHandler(uc *team.TeamUseCase, log *logger.Logger) *TeamHandler {
	return &TeamHandler{uc: uc, log: log}
}

// Members godoc
// @Summary      Miembros del equipo con presencia
// @Tags         team
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ProfileResponse
// @Router       /api/team [get]
func (h *TeamHandler) Members(c *fiber.Ctx) error {
	list, err := h.uc.GetTeamMembers(c.UserContext(), PrincipalFromCtx(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(h.responses(list))
}

// Assignable godoc
// @Summary      Perfiles a los que el principal puede asignar leads
// @Tags         team
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ProfileResponse
// @Router       /api/team/assignable [get]
func (h *TeamHandler) Assignable(c *fiber.Ctx) error {
	list, err := h.uc.GetAllAssignableUsers(c.UserContext(), PrincipalFromCtx(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(h.responses(list))
}

// Stats godoc
// @Summary      Resumen del equipo
// @Tags         team
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.UserStatsResponse
// @Router       /api/team/stats [get]
func (h *TeamHandler) Stats(c *fiber.Ctx) error {
	out, err := h.uc.GetUserStats(c.UserContext(), PrincipalFromCtx(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// CreateUser godoc
// @Summary      Crear miembro del equipo (solo master)
// @Tags         team
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSubUserRequest  true  "name, email, password"
// @Success      201   {object}  dto.ProfileResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/team/users [post]
func (h *TeamHandler) CreateUser(c *fiber.Ctx) error {
	var in dto.CreateSubUserRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	profile, err := h.uc.CreateSubUser(c.UserContext(), PrincipalFromCtx(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(h.uc.ToResponse(profile))
}

// DeleteUser elimina un miembro del equipo (perfil e identidad).
func (h *TeamHandler) DeleteUser(c *fiber.Ctx) error {
	if err := h.uc.DeleteSubUser(c.UserContext(), PrincipalFromCtx(c), c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.MessageResponse{Success: true, Message: "usuario eliminado"})
}

// SetActive activa o desactiva un miembro.
func (h *TeamHandler) SetActive(c *fiber.Ctx) error {
	var in dto.SetActiveRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	profile, err := h.uc.SetActive(c.UserContext(), PrincipalFromCtx(c), c.Params("id"), *in.Active)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(h.uc.ToResponse(profile))
}

func (h *TeamHandler) responses(list []*entity.Profile) []dto.ProfileResponse {
	out := make([]dto.ProfileResponse, 0, len(list))
	for _, p := range list {
		out = append(out, h.uc.ToResponse(p))
	}
	return out
}
