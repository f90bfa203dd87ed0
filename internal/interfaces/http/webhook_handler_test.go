package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/crm-api/internal/application/apptest"
	"github.com/jhoicas/crm-api/internal/application/settings"
	"github.com/jhoicas/crm-api/internal/application/webhook"
	"github.com/jhoicas/crm-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/crm-api/internal/interfaces/http"
	"github.com/jhoicas/crm-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type webhookApp struct {
	app       *fiber.App
	leads     *apptest.Leads
	publisher *apptest.Publisher
}

func buildWebhookApp() webhookApp {
	leads := apptest.NewLeads()
	pub := &apptest.Publisher{}
	ingest := webhook.NewIngestUseCase(
		leads, apptest.NewProfiles(), settings.NewSettingsUseCase(apptest.NewSettings()),
		nil, memory.NewBoardCache(time.Minute), "CO", logger.Nop(),
	)
	relay := webhook.NewRelayUseCase(pub, logger.Nop())
	h := apphttp.NewWebhookHandler(ingest, relay, logger.Nop())

	app := fiber.New()
	app.All("/webhook-lead", h.Lead)
	app.All("/webhook-outgoing", h.Outgoing)
	return webhookApp{app: app, leads: leads, publisher: pub}
}

func send(t *testing.T, app *fiber.App, method, target, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

// ──────────────────────────────────────────────────────────────────────────────
// /webhook-lead
// ──────────────────────────────────────────────────────────────────────────────

func TestWebhookLead_POSTCreaLead(t *testing.T) {
	w := buildWebhookApp()
	status, body := send(t, w.app, http.MethodPost, "/webhook-lead?webhook_id=w-9",
		`{"name":"Ana","email":"ana@x.com","phone":"3001234567","value":1500.50,"tags":["vip"]}`)

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Lead received successfully", body["message"])

	id, _ := body["leadId"].(string)
	require.NotEmpty(t, id)
	lead, err := w.leads.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, lead)
	assert.Equal(t, "new", lead.Status)
	assert.Equal(t, webhook.SentinelOwner, lead.OwnerUserID)
	assert.Equal(t, "Webhook #w-9", lead.Source)
	assert.Equal(t, "1500.5", lead.Value.String())
}

func TestWebhookLead_GETDesdeQuery(t *testing.T) {
	w := buildWebhookApp()
	status, body := send(t, w.app, http.MethodGet,
		"/webhook-lead?name=Luis&email=luis@x.com&phone=3000000000&tags=a,b", "")

	require.Equal(t, http.StatusOK, status)
	lead, err := w.leads.GetByID(context.Background(), body["leadId"].(string))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, lead.Tags)
}

func TestWebhookLead_CamposFaltantes(t *testing.T) {
	w := buildWebhookApp()
	status, body := send(t, w.app, http.MethodPost, "/webhook-lead", `{"name":"Ana"}`)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Missing required fields", body["error"])
	assert.Equal(t, []any{"name", "email", "phone"}, body["required"])
}

func TestWebhookLead_FalloAlGuardar(t *testing.T) {
	w := buildWebhookApp()
	w.leads.CreateErr = errors.New("conexión rechazada")
	status, body := send(t, w.app, http.MethodPost, "/webhook-lead",
		`{"name":"Ana","email":"ana@x.com","phone":"3001234567"}`)

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Failed to save lead", body["error"])
	assert.Contains(t, body["details"], "conexión rechazada")
}

func TestWebhookLead_JSONInvalido(t *testing.T) {
	w := buildWebhookApp()
	status, body := send(t, w.app, http.MethodPost, "/webhook-lead", `{"name":`)

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error", body["error"])
}

func TestWebhookLead_MetodoNoPermitido(t *testing.T) {
	w := buildWebhookApp()
	status, body := send(t, w.app, http.MethodDelete, "/webhook-lead", "")

	assert.Equal(t, http.StatusMethodNotAllowed, status)
	assert.Equal(t, "Method not allowed", body["error"])
}

// ──────────────────────────────────────────────────────────────────────────────
// /webhook-outgoing
// ──────────────────────────────────────────────────────────────────────────────

func TestWebhookOutgoing_PublicaSobre(t *testing.T) {
	w := buildWebhookApp()
	status, body := send(t, w.app, http.MethodPost, "/webhook-outgoing",
		`{"event":"lead.updated","userId":"m-1","leadId":"l-1"}`)

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Outgoing webhook processed successfully", body["message"])
	data, _ := body["data"].(map[string]any)
	require.NotNil(t, data)
	assert.Equal(t, "lead.updated", data["event"])
	assert.NotEmpty(t, data["timestamp"])
	assert.Equal(t, []string{"lead.updated"}, w.publisher.Events())
}

func TestWebhookOutgoing_CamposRequeridos(t *testing.T) {
	w := buildWebhookApp()
	status, body := send(t, w.app, http.MethodPost, "/webhook-outgoing", `{"event":"lead.updated"}`)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []any{"event", "userId"}, body["required"])
	assert.Empty(t, w.publisher.Events())
}

func TestWebhookOutgoing_SoloPOST(t *testing.T) {
	w := buildWebhookApp()
	status, _ := send(t, w.app, http.MethodGet, "/webhook-outgoing", "")
	assert.Equal(t, http.StatusMethodNotAllowed, status)
}
