package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/application/webhook"
	"github.com/jhoicas/crm-api/pkg/logger"
)

// WebhookConfigHandler administración de integraciones del equipo.
type WebhookConfigHandler struct {
	uc  *webhook.ConfigUseCase
	log *logger.Logger
}

// NewWebhookConfigHandler construye el handler.
func NewWebhookConfigHandler(uc *webhook.ConfigUseCase, log *logger.Logger) *WebhookConfigHandler {
	return &WebhookConfigHandler{uc: uc, log: log}
}

// List godoc
// @Summary      Integraciones del equipo
// @Tags         webhooks
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.WebhookResponse
// @Router       /api/webhooks [get]
func (h *WebhookConfigHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), PrincipalFromCtx(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear integración (solo master)
// @Description  Las entrantes reciben una URL pública generada; las salientes requieren destinationUrl.
// @Tags         webhooks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateWebhookRequest  true  "Integración"
// @Success      201   {object}  dto.WebhookResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/webhooks [post]
func (h *WebhookConfigHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateWebhookRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	w, err := h.uc.Create(c.UserContext(), PrincipalFromCtx(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromWebhook(w, 0))
}

// SetActive activa o pausa una integración.
func (h *WebhookConfigHandler) SetActive(c *fiber.Ctx) error {
	var in dto.SetActiveRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	w, err := h.uc.SetActive(c.UserContext(), PrincipalFromCtx(c), c.Params("id"), *in.Active)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.FromWebhook(w, 0))
}

// Delete elimina una integración.
func (h *WebhookConfigHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), PrincipalFromCtx(c), c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.MessageResponse{Success: true, Message: "webhook eliminado"})
}

// Counts leads recibidos por integración.
func (h *WebhookConfigHandler) Counts(c *fiber.Ctx) error {
	out, err := h.uc.ReceivedCounts(c.UserContext(), PrincipalFromCtx(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}
