// Package webhookclient entrega los sobres de eventos a las URLs de los webhooks salientes.
package webhookclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jhoicas/crm-api/internal/application/ports"
	"github.com/jhoicas/crm-api/internal/application/webhook"
	"github.com/jhoicas/crm-api/internal/domain/entity"
)

var _ webhook.Sender = (*HTTPSender)(nil)

const userAgent = "crm-api-webhooks/1.0"

// HTTPSender envía el sobre como JSON con el método configurado en el webhook (POST por defecto).
// Un solo intento; los reintentos quedan a cargo de la cola.
type HTTPSender struct {
	httpClient *http.Client
}

// NewHTTPSender construye el adaptador. timeout <= 0 usa 10 s.
func NewHTTPSender(timeout time.Duration) *HTTPSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSender{httpClient: &http.Client{Timeout: timeout}}
}

// Send devuelve error si la respuesta no es 2xx.
func (s *HTTPSender) Send(ctx context.Context, w *entity.Webhook, env ports.Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("webhook: serializar sobre: %w", err)
	}

	method := strings.ToUpper(strings.TrimSpace(w.Method))
	if method == "" {
		method = http.MethodPost
	}
	req, err := http.NewRequestWithContext(ctx, method, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: crear HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Webhook-Event", env.Event)
	req.Header.Set("X-Webhook-Id", w.ID)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("webhook: timeout o cancelación: %w", ctx.Err())
		}
		return fmt.Errorf("webhook: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2*1024))
		return fmt.Errorf("webhook: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	return nil
}
