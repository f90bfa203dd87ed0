package http

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/jhoicas/crm-api/internal/application/realtime"
	"github.com/jhoicas/crm-api/internal/infrastructure/metrics"
	"github.com/jhoicas/crm-api/pkg/logger"
)

const streamPing = 25 * time.Second

// StreamHandler canal SSE con los avisos de cambios de leads del equipo.
type StreamHandler struct {
	hub *realtime.Hub
	log *logger.Logger
}

// NewStreamHandler construye el handler.
func NewStreamHandler(hub *realtime.Hub, log *logger.Logger) *StreamHandler {
	return &StreamHandler{hub: hub, log: log.Component("stream")}
}

// Leads godoc
// @Summary      Avisos de cambios de leads (Server-Sent Events)
// @Description  Cada evento "refetch" indica que el tablero cambió. El token puede ir en access_token.
// @Tags         realtime
// @Security     Bearer
// @Produce      text/event-stream
// @Param        access_token  query  string  false  "JWT para clientes EventSource"
// @Success      200
// @Router       /api/leads/stream [get]
func (h *StreamHandler) Leads(c *fiber.Ctx) error {
	principal := PrincipalFromCtx(c)
	tenant := principal.TenantID()
	events, cancel := h.hub.Subscribe(tenant)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	log := h.log.Tenant(tenant)
	metrics.SubscriberConnected()
	log.Debug().Str("user_id", principal.ProfileID).Msg("suscriptor conectado")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer func() {
			cancel()
			metrics.SubscriberDisconnected()
			log.Debug().Str("user_id", principal.ProfileID).Msg("suscriptor desconectado")
		}()

		fmt.Fprint(w, "retry: 3000\n\n")
		if err := w.Flush(); err != nil {
			return
		}
		ping := time.NewTicker(streamPing)
		defer ping.Stop()
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				ev = ev.For(principal)
				data, err := json.Marshal(ev)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
			case <-ping.C:
				fmt.Fprint(w, ": ping\n\n")
			}
			// un error de flush significa que el cliente cerró la conexión
			if err := w.Flush(); err != nil {
				return
			}
		}
	}))
	return nil
}
