package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/application/sales"
	"github.com/jhoicas/crm-api/pkg/logger"
)

// SaleHandler libro de ventas.
type SaleHandler struct {
	uc  *sales.SaleUseCase
	log *logger.Logger
}

// NewSaleHandler construye el handler.
func NewSaleHandler(uc *sales.SaleUseCase, log *logger.Logger) *SaleHandler {
	return &SaleHandler{uc: uc, log: log}
}

// List godoc
// @Summary      Listar ventas visibles (más recientes primero)
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        search   query  string  false  "Cliente, email o producto"
// @Param        user_id  query  string  false  "Autor"
// @Success      200  {array}  dto.SaleResponse
// @Router       /api/sales [get]
func (h *SaleHandler) List(c *fiber.Ctx) error {
	var f dto.SaleFilter
	if ok, err := bindQuery(c, &f); !ok {
		return err
	}
	list, err := h.uc.ListSales(c.UserContext(), PrincipalFromCtx(c), f)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.SaleResponse, 0, len(list))
	for _, s := range list {
		out = append(out, dto.FromSale(s))
	}
	return c.JSON(out)
}

// Totals godoc
// @Summary      Totales del libro (realizado y abonos por separado)
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.SaleTotals
// @Router       /api/sales/totals [get]
func (h *SaleHandler) Totals(c *fiber.Ctx) error {
	var f dto.SaleFilter
	if ok, err := bindQuery(c, &f); !ok {
		return err
	}
	out, err := h.uc.Totals(c.UserContext(), PrincipalFromCtx(c), f)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Registrar venta
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SaleRequest  true  "Venta"
// @Success      201   {object}  dto.SaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/sales [post]
func (h *SaleHandler) Create(c *fiber.Ctx) error {
	var in dto.SaleRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	s, err := h.uc.RecordSale(c.UserContext(), PrincipalFromCtx(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromSale(s))
}

// Update edita una venta; conserva autor y fecha de cierre.
func (h *SaleHandler) Update(c *fiber.Ctx) error {
	var in dto.SaleRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	s, err := h.uc.UpdateSale(c.UserContext(), PrincipalFromCtx(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.FromSale(s))
}

// Delete elimina una venta (solo master).
func (h *SaleHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.DeleteSale(c.UserContext(), PrincipalFromCtx(c), c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.MessageResponse{Success: true, Message: "venta eliminada"})
}
