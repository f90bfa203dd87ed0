package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/jhoicas/crm-api/internal/application/analytics"
	"github.com/jhoicas/crm-api/internal/application/auth"
	"github.com/jhoicas/crm-api/internal/application/leads"
	"github.com/jhoicas/crm-api/internal/application/pipeline"
	"github.com/jhoicas/crm-api/internal/application/presence"
	"github.com/jhoicas/crm-api/internal/application/realtime"
	"github.com/jhoicas/crm-api/internal/application/sales"
	"github.com/jhoicas/crm-api/internal/application/settings"
	"github.com/jhoicas/crm-api/internal/application/team"
	"github.com/jhoicas/crm-api/internal/application/webhook"
	"github.com/jhoicas/crm-api/internal/infrastructure/metrics"
	"github.com/jhoicas/crm-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC          *auth.AuthUseCase
	TeamUC          *team.TeamUseCase
	LeadUC          *leads.LeadUseCase
	MoveUC          *pipeline.MoveUseCase
	SaleUC          *sales.SaleUseCase
	ReportUC        *analytics.ReportUseCase
	SettingsUC      *settings.SettingsUseCase
	IngestUC        *webhook.IngestUseCase
	RelayUC         *webhook.RelayUseCase
	WebhookConfigUC *webhook.ConfigUseCase
	HeartbeatUC     *presence.HeartbeatUseCase
	Hub             *realtime.Hub
	JWTSecret       string
	WebhookLimit    RateLimitConfig
	Log             *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log

	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	// Webhooks públicos: sin JWT, con CORS abierto y límite por IP solo en estas dos rutas
	hookCORS := cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "authorization, x-client-info, apikey, content-type",
	})
	hookLimit := RateLimiter(deps.WebhookLimit)
	webhookHandler := NewWebhookHandler(deps.IngestUC, deps.RelayUC, log)
	app.All("/webhook-lead", hookCORS, hookLimit, webhookHandler.Lead)
	app.All("/webhook-outgoing", hookCORS, hookLimit, webhookHandler.Outgoing)

	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC, deps.TeamUC, log)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token y perfil activo)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret), RequireActiveProfile(deps.AuthUC, log))

	protected.Get("/me", authHandler.Me)
	protected.Patch("/me", authHandler.UpdateMe)

	// Equipo
	teamGroup := protected.Group("/team")
	teamHandler := NewTeamHandler(deps.TeamUC, log)
	teamGroup.Get("/", teamHandler.Members)
	teamGroup.Get("/assignable", teamHandler.Assignable)
	teamGroup.Get("/stats", teamHandler.Stats)
	users := teamGroup.Group("/users", RequireMaster())
	users.Post("/", teamHandler.CreateUser)
	users.Delete("/:id", teamHandler.DeleteUser)
	users.Patch("/:id/active", teamHandler.SetActive)

	// Leads
	leadGroup := protected.Group("/leads")
	leadHandler := NewLeadHandler(deps.LeadUC, log)
	leadGroup.Get("/", leadHandler.List)
	leadGroup.Post("/", leadHandler.Create)
	leadGroup.Post("/bulk-assign", leadHandler.BulkAssign)
	leadGroup.Post("/bulk-delete", leadHandler.BulkDelete)
	leadGroup.Get("/stream", NewStreamHandler(deps.Hub, log).Leads)
	leadGroup.Get("/:id", leadHandler.Get)
	leadGroup.Put("/:id", leadHandler.Update)
	leadGroup.Delete("/:id", leadHandler.Delete)
	leadGroup.Post("/:id/tags", leadHandler.AddTag)
	leadGroup.Delete("/:id/tags/:tag", leadHandler.RemoveTag)
	leadGroup.Get("/:id/feedback", leadHandler.ListFeedback)
	leadGroup.Post("/:id/feedback", leadHandler.AddFeedback)

	// Pipeline
	pipelineGroup := protected.Group("/pipeline")
	pipelineHandler := NewPipelineHandler(deps.LeadUC, deps.MoveUC, log)
	pipelineGroup.Get("/board", pipelineHandler.Board)
	pipelineGroup.Post("/move", pipelineHandler.Move)

	// Ventas
	saleGroup := protected.Group("/sales")
	saleHandler := NewSaleHandler(deps.SaleUC, log)
	saleGroup.Get("/", saleHandler.List)
	saleGroup.Get("/totals", saleHandler.Totals)
	saleGroup.Post("/", saleHandler.Create)
	saleGroup.Put("/:id", saleHandler.Update)
	saleGroup.Delete("/:id", saleHandler.Delete)

	// Analítica
	analyticsHandler := NewAnalyticsHandler(deps.ReportUC, log)
	protected.Get("/analytics", analyticsHandler.Report)

	// Configuración
	settingsGroup := protected.Group("/settings")
	settingsHandler := NewSettingsHandler(deps.SettingsUC, log)
	settingsGroup.Get("/stages", settingsHandler.Stages)
	settingsGroup.Put("/stages", settingsHandler.SaveStages)
	settingsGroup.Post("/stages", settingsHandler.AddStage)
	settingsGroup.Put("/stages/order", settingsHandler.ReorderStages)
	settingsGroup.Patch("/stages/:id", settingsHandler.UpdateStage)
	settingsGroup.Delete("/stages/:id", settingsHandler.DeleteStage)
	settingsGroup.Get("/preferences", settingsHandler.Preferences)
	settingsGroup.Put("/preferences", settingsHandler.SavePreferences)

	// Integraciones
	webhookGroup := protected.Group("/webhooks")
	webhookConfigHandler := NewWebhookConfigHandler(deps.WebhookConfigUC, log)
	webhookGroup.Get("/", webhookConfigHandler.List)
	webhookGroup.Post("/", webhookConfigHandler.Create)
	webhookGroup.Get("/counts", webhookConfigHandler.Counts)
	webhookGroup.Patch("/:id/active", webhookConfigHandler.SetActive)
	webhookGroup.Delete("/:id", webhookConfigHandler.Delete)

	// Presencia
	presenceHandler := NewPresenceHandler(deps.HeartbeatUC, log)
	protected.Post("/presence/heartbeat", presenceHandler.Heartbeat)
}
