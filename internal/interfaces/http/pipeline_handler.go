package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/application/leads"
	apppipeline "github.com/jhoicas/crm-api/internal/application/pipeline"
	"github.com/jhoicas/crm-api/pkg/logger"
)

// PipelineHandler tablero kanban y movimientos entre columnas.
type PipelineHandler struct {
	leads *leads.LeadUseCase
	move  *apppipeline.MoveUseCase
	log   *logger.Logger
}

// NewPipelineHandler construye el handler.
func NewPipelineHandler(leadUC *leads.LeadUseCase, move *apppipeline.MoveUseCase, log *logger.Logger) *PipelineHandler {
	return &PipelineHandler{leads: leadUC, move: move, log: log}
}

// Board godoc
// @Summary      Tablero kanban del equipo
// @Tags         pipeline
// @Security     Bearer
// @Produce      json
// @Param        search       query  string  false  "Búsqueda"
// @Param        assigned_to  query  string  false  "Asignado"
// @Success      200  {object}  dto.BoardResponse
// @Router       /api/pipeline/board [get]
func (h *PipelineHandler) Board(c *fiber.Ctx) error {
	var f dto.LeadFilter
	if ok, err := bindQuery(c, &f); !ok {
		return err
	}
	cols, err := h.leads.Board(c.UserContext(), PrincipalFromCtx(c), f)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := dto.BoardResponse{Columns: make([]dto.BoardColumn, 0, len(cols))}
	for _, col := range cols {
		out.Columns = append(out.Columns, dto.BoardColumn{
			Stage: dto.FromStage(col.Stage),
			Count: len(col.Leads),
			Total: leads.TotalValue(col.Leads),
			Leads: dto.FromLeads(col.Leads),
		})
	}
	return c.JSON(out)
}

// Move godoc
// @Summary      Mover lead entre columnas (solo master)
// @Tags         pipeline
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MoveLeadRequest  true  "lead, origen y destino"
// @Success      200   {object}  dto.MoveLeadResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/pipeline/move [post]
func (h *PipelineHandler) Move(c *fiber.Ctx) error {
	var in dto.MoveLeadRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	out, err := h.move.MoveLead(c.UserContext(), PrincipalFromCtx(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}
