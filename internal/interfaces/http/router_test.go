package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/crm-api/internal/application/analytics"
	"github.com/jhoicas/crm-api/internal/application/apptest"
	"github.com/jhoicas/crm-api/internal/application/auth"
	"github.com/jhoicas/crm-api/internal/application/leads"
	"github.com/jhoicas/crm-api/internal/application/pipeline"
	"github.com/jhoicas/crm-api/internal/application/presence"
	"github.com/jhoicas/crm-api/internal/application/realtime"
	"github.com/jhoicas/crm-api/internal/application/sales"
	"github.com/jhoicas/crm-api/internal/application/settings"
	"github.com/jhoicas/crm-api/internal/application/team"
	"github.com/jhoicas/crm-api/internal/application/webhook"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/crm-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/crm-api/pkg/jwt"
	"github.com/jhoicas/crm-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	routerMasterID = "m-1"
	routerMemberID = "u-1"
)

// buildRouterApp monta el router completo sobre repositorios en memoria.
func buildRouterApp(limit apphttp.RateLimitConfig) *fiber.App {
	log := logger.Nop()
	profiles := apptest.NewProfiles(
		&entity.Profile{ID: routerMasterID, Name: "Marta", Email: "marta@x.com", Role: entity.RoleMaster, IsActive: true},
		&entity.Profile{ID: routerMemberID, Name: "Ana", Email: "ana@x.com", Role: entity.RoleUser, MasterAccountID: routerMasterID, IsActive: true},
	)
	identities := apptest.NewIdentities(
		&entity.Identity{ID: routerMasterID, Email: "marta@x.com", Confirmed: true},
		&entity.Identity{ID: routerMemberID, Email: "ana@x.com", Confirmed: true},
	)
	tx := &apptest.Tx{Identities: identities, Profiles: profiles}
	leadRepo := apptest.NewLeads()
	saleRepo := apptest.NewSales()
	hooks := apptest.NewWebhooks()
	board := memory.NewBoardCache(time.Minute)
	pub := &apptest.Publisher{}

	settingsUC := settings.NewSettingsUseCase(apptest.NewSettings())
	teamUC := team.NewTeamUseCase(profiles, identities, tx, log, presence.DefaultOnlineThreshold)
	authUC := auth.NewAuthUseCase(identities, profiles, tx, auth.JWTConfig{
		Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer,
	}, log)
	leadUC := leads.NewLeadUseCase(leadRepo, &apptest.Feedback{}, teamUC, settingsUC, board, "CO", log)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:          authUC,
		TeamUC:          teamUC,
		LeadUC:          leadUC,
		MoveUC:          pipeline.NewMoveUseCase(leadRepo, board, leadUC, settingsUC, pub, log),
		SaleUC:          sales.NewSaleUseCase(saleRepo, teamUC, pub, "CO", log),
		ReportUC:        analytics.NewReportUseCase(leadRepo, saleRepo, teamUC),
		SettingsUC:      settingsUC,
		IngestUC:        webhook.NewIngestUseCase(leadRepo, profiles, settingsUC, nil, board, "CO", log),
		RelayUC:         webhook.NewRelayUseCase(pub, log),
		WebhookConfigUC: webhook.NewConfigUseCase(hooks, leadRepo, teamUC, "http://localhost:8080"),
		HeartbeatUC:     presence.NewHeartbeatUseCase(memory.NewPresenceBuffer()),
		Hub:             realtime.NewHub(4),
		JWTSecret:       testJWTSecret,
		WebhookLimit:    limit,
		Log:             log,
	})
	return app
}

func bearerFor(t *testing.T, id, masterID, role string) string {
	t.Helper()
	tok, err := pkgjwt.Issue(testJWTSecret, testIssuer, testExpMin*time.Minute, pkgjwt.Session{ProfileID: id, Role: role, MasterAccountID: masterID})
	require.NoError(t, err)
	return "Bearer " + tok
}

func call(t *testing.T, app *fiber.App, method, target, bearer, body string) *http.Response {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}
	req.Header.Set("Origin", "https://landing.example.com")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	code, _ := body["code"].(string)
	return code
}

// ──────────────────────────────────────────────────────────────────────────────
// Límite y CORS solo en los webhooks públicos
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_LimiteDeWebhooksNoAfectaLaAPI(t *testing.T) {
	app := buildRouterApp(apphttp.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1})
	master := bearerFor(t, routerMasterID, "", entity.RoleMaster)

	first := call(t, app, http.MethodPost, "/webhook-lead", "", `{}`)
	first.Body.Close()
	assert.Equal(t, http.StatusBadRequest, first.StatusCode, "la primera llamada pasa el límite")

	second := call(t, app, http.MethodPost, "/webhook-lead", "", `{}`)
	second.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
	assert.NotEmpty(t, second.Header.Get("Retry-After"))

	for i := 0; i < 5; i++ {
		resp := call(t, app, http.MethodGet, "/api/leads", master, "")
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, "petición %d a la API", i)
		assert.Empty(t, resp.Header.Get("X-RateLimit-Limit"))
	}
}

func TestRouter_CORSAbiertoSoloEnWebhooks(t *testing.T) {
	app := buildRouterApp(apphttp.RateLimitConfig{RequestsPerSecond: 100, Burst: 100})
	master := bearerFor(t, routerMasterID, "", entity.RoleMaster)

	hook := call(t, app, http.MethodPost, "/webhook-outgoing", "", `{"event":"x","userId":"m-1"}`)
	hook.Body.Close()
	assert.Equal(t, http.StatusOK, hook.StatusCode)
	assert.Equal(t, "*", hook.Header.Get("Access-Control-Allow-Origin"))

	api := call(t, app, http.MethodGet, "/api/me", master, "")
	api.Body.Close()
	assert.Equal(t, http.StatusOK, api.StatusCode)
	assert.Empty(t, api.Header.Get("Access-Control-Allow-Origin"))
}

func TestRateLimiter_NoLanzaGoroutines(t *testing.T) {
	before := runtime.NumGoroutine()
	for i := 0; i < 50; i++ {
		_ = apphttp.RateLimiter(apphttp.RateLimitConfig{RequestsPerSecond: 1, Burst: 1})
	}
	assert.Less(t, runtime.NumGoroutine()-before, 10)
}

// ──────────────────────────────────────────────────────────────────────────────
// Perfil activo en cada petición protegida
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_MiembroDesactivadoPierdeAcceso(t *testing.T) {
	app := buildRouterApp(apphttp.RateLimitConfig{RequestsPerSecond: 100, Burst: 100})
	master := bearerFor(t, routerMasterID, "", entity.RoleMaster)
	member := bearerFor(t, routerMemberID, routerMasterID, entity.RoleUser)

	before := call(t, app, http.MethodGet, "/api/leads", member, "")
	before.Body.Close()
	require.Equal(t, http.StatusOK, before.StatusCode)

	off := call(t, app, http.MethodPatch, "/api/team/users/"+routerMemberID+"/active", master, `{"active":false}`)
	off.Body.Close()
	require.Equal(t, http.StatusOK, off.StatusCode)

	for _, target := range []string{"/api/leads", "/api/sales", "/api/me"} {
		resp := call(t, app, http.MethodGet, target, member, "")
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, target)
		assert.Equal(t, "INACTIVE_ACCOUNT", errorCode(t, resp), target)
	}
	hb := call(t, app, http.MethodPost, "/api/presence/heartbeat", member, "")
	hb.Body.Close()
	assert.Equal(t, http.StatusForbidden, hb.StatusCode)
}

func TestRouter_MiembroEliminadoPierdeAcceso(t *testing.T) {
	app := buildRouterApp(apphttp.RateLimitConfig{RequestsPerSecond: 100, Burst: 100})
	master := bearerFor(t, routerMasterID, "", entity.RoleMaster)
	member := bearerFor(t, routerMemberID, routerMasterID, entity.RoleUser)

	del := call(t, app, http.MethodDelete, "/api/team/users/"+routerMemberID, master, "")
	del.Body.Close()
	require.Less(t, del.StatusCode, 300)

	resp := call(t, app, http.MethodPost, "/api/sales", member,
		`{"customerName":"Luis","product":"Plan","value":"100","status":"completed"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "INACTIVE_ACCOUNT", errorCode(t, resp))
}

func TestRouter_RolSeTomaDelPerfil(t *testing.T) {
	app := buildRouterApp(apphttp.RateLimitConfig{RequestsPerSecond: 100, Burst: 100})
	// token con rol master para un perfil que en la base es user
	forged := bearerFor(t, routerMemberID, "", entity.RoleMaster)

	resp := call(t, app, http.MethodPost, "/api/team/users", forged, `{"name":"X","email":"x@x.com","password":"secreto123"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
