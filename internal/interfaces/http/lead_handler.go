package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/application/leads"
	"github.com/jhoicas/crm-api/pkg/logger"
)

// LeadHandler CRUD de leads, etiquetas, operaciones masivas y comentarios.
type LeadHandler struct {
	uc  *leads.LeadUseCase
	log *logger.Logger
}

// NewLeadHandler construye el handler.
func NewLeadHandler(uc *leads.LeadUseCase, log *logger.Logger) *LeadHandler {
	return &LeadHandler{uc: uc, log: log}
}

// List godoc
// @Summary      Listar leads visibles
// @Tags         leads
// @Security     Bearer
// @Produce      json
// @Param        search       query  string  false  "Búsqueda (sin tildes ni mayúsculas)"
// @Param        assigned_to  query  string  false  "Asignado"
// @Param        status       query  string  false  "Estado"
// @Param        limit        query  int     false  "Límite"  default(100)
// @Param        offset       query  int     false  "Offset"  default(0)
// @Success      200  {array}  dto.LeadResponse
// @Router       /api/leads [get]
func (h *LeadHandler) List(c *fiber.Ctx) error {
	var f dto.LeadFilter
	if ok, err := bindQuery(c, &f); !ok {
		return err
	}
	list, err := h.uc.List(c.UserContext(), PrincipalFromCtx(c), f)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.FromLeads(list))
}

// Create godoc
// @Summary      Crear lead manual
// @Tags         leads
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateLeadRequest  true  "Datos del lead"
// @Success      201   {object}  dto.LeadResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/leads [post]
func (h *LeadHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateLeadRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	lead, err := h.uc.Create(c.UserContext(), PrincipalFromCtx(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromLead(lead))
}

// Get godoc
// @Summary      Obtener lead
// @Tags         leads
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del lead"
// @Success      200  {object}  dto.LeadResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/leads/{id} [get]
func (h *LeadHandler) Get(c *fiber.Ctx) error {
	lead, err := h.uc.Get(c.UserContext(), PrincipalFromCtx(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.FromLead(lead))
}

// Update godoc
// @Summary      Editar lead
// @Tags         leads
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del lead"
// @Param        body  body  dto.UpdateLeadRequest  true  "Campos a cambiar"
// @Success      200   {object}  dto.LeadResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/leads/{id} [put]
func (h *LeadHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateLeadRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	lead, err := h.uc.Update(c.UserContext(), PrincipalFromCtx(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.FromLead(lead))
}

// Delete elimina un lead (solo master).
func (h *LeadHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), PrincipalFromCtx(c), c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.MessageResponse{Success: true, Message: "lead eliminado"})
}

// AddTag agrega una etiqueta (idempotente).
func (h *LeadHandler) AddTag(c *fiber.Ctx) error {
	var in dto.TagRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	lead, err := h.uc.AddTag(c.UserContext(), PrincipalFromCtx(c), c.Params("id"), in.Tag)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.FromLead(lead))
}

// RemoveTag quita una etiqueta (idempotente).
func (h *LeadHandler) RemoveTag(c *fiber.Ctx) error {
	lead, err := h.uc.RemoveTag(c.UserContext(), PrincipalFromCtx(c), c.Params("id"), c.Params("tag"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.FromLead(lead))
}

// BulkAssign delega varios leads (solo master).
func (h *LeadHandler) BulkAssign(c *fiber.Ctx) error {
	var in dto.BulkAssignRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	out, err := h.uc.BulkAssign(c.UserContext(), PrincipalFromCtx(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// BulkDelete elimina varios leads (solo master).
func (h *LeadHandler) BulkDelete(c *fiber.Ctx) error {
	var in dto.BulkDeleteRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	out, err := h.uc.BulkDelete(c.UserContext(), PrincipalFromCtx(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// ListFeedback hilo de comentarios del lead.
func (h *LeadHandler) ListFeedback(c *fiber.Ctx) error {
	list, err := h.uc.ListFeedback(c.UserContext(), PrincipalFromCtx(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.FeedbackResponse, 0, len(list))
	for _, f := range list {
		out = append(out, dto.FromFeedback(f))
	}
	return c.JSON(out)
}

// AddFeedback agrega un comentario al hilo.
func (h *LeadHandler) AddFeedback(c *fiber.Ctx) error {
	var in dto.FeedbackRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	f, err := h.uc.AddFeedback(c.UserContext(), PrincipalFromCtx(c), c.Params("id"), in.Message)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromFeedback(f))
}
