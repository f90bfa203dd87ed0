package http

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/application/webhook"
	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/infrastructure/metrics"
	"github.com/jhoicas/crm-api/pkg/logger"
)

// WebhookHandler endpoints públicos de integraciones: entrada de leads y relay saliente.
// Responden con el contrato de cuerpo que ya consumen las integraciones externas.
type WebhookHandler struct {
	ingest *webhook.IngestUseCase
	relay  *webhook.RelayUseCase
	log    *logger.Logger
}

// NewWebhookHandler construye el handler.
func NewWebhookHandler(ingest *webhook.IngestUseCase, relay *webhook.RelayUseCase, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{ingest: ingest, relay: relay, log: log.Component("webhook_http")}
}

// Lead godoc
// @Summary      Recibir lead desde una integración
// @Description  GET toma los campos de la query (tags separadas por coma, data en JSON).
//               POST toma un cuerpo JSON. Requiere name, email y phone.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        webhook_id  query  string  false  "Integración de origen"
// @Param        user_id     query  string  false  "Dueño del lead"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Failure      405  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]interface{}
// @Router       /webhook-lead [post]
func (h *WebhookHandler) Lead(c *fiber.Ctx) error {
	var fields webhook.Fields
	switch c.Method() {
	case fiber.MethodGet:
		fields = webhook.FieldsFromQuery(c.Queries())
	case fiber.MethodPost:
		f, err := decodeFields(c.Body())
		if err != nil {
			metrics.RecordLeadIngested("error")
			return internalError(c, err)
		}
		fields = f
	default:
		return methodNotAllowed(c)
	}

	lead, err := h.ingest.Ingest(c.UserContext(), webhook.IngestRequest{
		Fields:      fields,
		WebhookID:   c.Query("webhook_id"),
		QueryUserID: c.Query("user_id"),
	})
	if err != nil {
		var verr *domain.ValidationError
		var perr *domain.PersistenceError
		switch {
		case errors.As(err, &verr):
			metrics.RecordLeadIngested("invalid")
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":    "Missing required fields",
				"required": webhook.RequiredFields,
			})
		case errors.As(err, &perr):
			metrics.RecordLeadIngested("error")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "Failed to save lead",
				"details": perr.Detail(),
			})
		default:
			metrics.RecordLeadIngested("error")
			return internalError(c, err)
		}
	}
	metrics.RecordLeadIngested("ok")
	return c.JSON(fiber.Map{
		"success":  true,
		"message":  "Lead received successfully",
		"leadId":   lead.ID,
		"leadData": dto.FromLead(lead),
	})
}

// Outgoing godoc
// @Summary      Publicar evento saliente
// @Description  Arma el sobre {event, timestamp, data} y lo entrega a las integraciones salientes
//               activas del equipo. Requiere event y userId.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Failure      405  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]interface{}
// @Router       /webhook-outgoing [post]
func (h *WebhookHandler) Outgoing(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return methodNotAllowed(c)
	}
	body, err := decodeFields(c.Body())
	if err != nil {
		return internalError(c, err)
	}
	env, err := h.relay.Relay(c.UserContext(), body)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":    "Missing required fields",
				"required": []string{"event", "userId"},
			})
		}
		h.log.Error().Err(err).Msg("relay saliente")
		return internalError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Outgoing webhook processed successfully",
		"data":    env,
	})
}

// decodeFields conserva los números como json.Number para no perder precisión en value.
func decodeFields(body []byte) (webhook.Fields, error) {
	f := webhook.Fields{}
	if len(bytes.TrimSpace(body)) == 0 {
		return f, nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&f); err != nil {
		return nil, err
	}
	return f, nil
}

func methodNotAllowed(c *fiber.Ctx) error {
	return c.Status(fiber.StatusMethodNotAllowed).JSON(fiber.Map{"error": "Method not allowed"})
}

func internalError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   "Internal server error",
		"message": err.Error(),
	})
}
