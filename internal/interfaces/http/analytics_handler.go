package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/crm-api/internal/application/analytics"
	"github.com/jhoicas/crm-api/pkg/logger"
)

// AnalyticsHandler reporte agregado de leads y ventas.
type AnalyticsHandler struct {
	uc  *analytics.ReportUseCase
	log *logger.Logger
}

// NewAnalyticsHandler construye el handler.
func NewAnalyticsHandler(uc *analytics.ReportUseCase, log *logger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{uc: uc, log: log}
}

// Report godoc
// @Summary      Reporte de conversión, ingresos y productos
// @Description  Agrega los leads y ventas visibles para el principal. La serie mensual cubre
//               los últimos seis meses calendario.
// @Tags         analytics
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.AnalyticsReport
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/analytics [get]
func (h *AnalyticsHandler) Report(c *fiber.Ctx) error {
	report, err := h.uc.Report(c.UserContext(), PrincipalFromCtx(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(report)
}
