package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/crm-api/internal/application/presence"
	"github.com/jhoicas/crm-api/pkg/logger"
)

// PresenceHandler latidos de presencia del cliente.
type PresenceHandler struct {
	uc  *presence.HeartbeatUseCase
	log *logger.Logger
}

// NewPresenceHandler construye el handler.
func NewPresenceHandler(uc *presence.HeartbeatUseCase, log *logger.Logger) *PresenceHandler {
	return &PresenceHandler{uc: uc, log: log}
}

// Heartbeat godoc
// @Summary      Registrar actividad del usuario
// @Tags         presence
// @Security     Bearer
// @Success      204
// @Router       /api/presence/heartbeat [post]
func (h *PresenceHandler) Heartbeat(c *fiber.Ctx) error {
	if err := h.uc.Heartbeat(c.UserContext(), PrincipalFromCtx(c)); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
