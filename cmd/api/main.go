package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/crm-api/internal/application/analytics"
	"github.com/jhoicas/crm-api/internal/application/auth"
	"github.com/jhoicas/crm-api/internal/application/leads"
	"github.com/jhoicas/crm-api/internal/application/pipeline"
	"github.com/jhoicas/crm-api/internal/application/ports"
	"github.com/jhoicas/crm-api/internal/application/presence"
	"github.com/jhoicas/crm-api/internal/application/realtime"
	"github.com/jhoicas/crm-api/internal/application/sales"
	"github.com/jhoicas/crm-api/internal/application/settings"
	"github.com/jhoicas/crm-api/internal/application/team"
	"github.com/jhoicas/crm-api/internal/application/webhook"
	"github.com/jhoicas/crm-api/internal/infrastructure/mail"
	"github.com/jhoicas/crm-api/internal/infrastructure/memory"
	"github.com/jhoicas/crm-api/internal/infrastructure/postgres"
	"github.com/jhoicas/crm-api/internal/infrastructure/queue"
	"github.com/jhoicas/crm-api/internal/infrastructure/rediscache"
	"github.com/jhoicas/crm-api/internal/infrastructure/webhookclient"
	httpRouter "github.com/jhoicas/crm-api/internal/interfaces/http"
	"github.com/jhoicas/crm-api/pkg/config"
	"github.com/jhoicas/crm-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if cfg.App.AutoMigrate {
		if err := postgres.RunMigrations(pool); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
		log.Info().Msg("migraciones aplicadas")
	}

	identityRepo := postgres.NewIdentityRepository(pool)
	profileRepo := postgres.NewProfileRepository(pool)
	leadRepo := postgres.NewLeadRepository(pool)
	feedbackRepo := postgres.NewFeedbackRepository(pool)
	saleRepo := postgres.NewSaleRepository(pool)
	webhookRepo := postgres.NewWebhookRepository(pool)
	settingsRepo := postgres.NewSettingsRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Vista del tablero y buffer de presencia: Redis si está configurado, memoria si no.
	boardTTL := time.Duration(cfg.Redis.BoardTTLSeconds) * time.Second
	var (
		board    ports.BoardView
		buffer   presence.Buffer
		locker   presence.Locker
		rdbClose func() error
	)
	if cfg.Redis.Enabled() {
		rdb, err := rediscache.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		rdbClose = rdb.Close
		board = rediscache.NewBoardCache(rdb, boardTTL)
		buffer = rediscache.NewPresenceBuffer(rdb)
		locker = rediscache.NewLocker(rdb)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("cache de tablero en Redis")
	} else {
		board = memory.NewBoardCache(boardTTL)
		buffer = memory.NewPresenceBuffer()
	}

	// Eventos salientes: RabbitMQ + worker de entregas, o solo log sin broker.
	deliveryTimeout := time.Duration(cfg.Webhook.DeliveryTimeoutSeconds) * time.Second
	deliveryUC := webhook.NewDeliveryUseCase(webhookRepo, profileRepo, webhookclient.NewHTTPSender(deliveryTimeout), log)
	var (
		publisher ports.EventPublisher
		rmq       *queue.RabbitMQ
	)
	if cfg.RabbitMQ.Enabled() {
		rmq, err = queue.NewRabbitMQ(cfg.RabbitMQ.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a RabbitMQ")
		}
		publisher = queue.NewPublisher(rmq.Ch)
		worker := queue.NewWorker(rmq.Conn, deliveryUC, deliveryTimeout, log)
		go func() {
			if err := worker.Run(ctx); err != nil {
				log.Error().Err(err).Msg("worker de entregas finalizado")
			}
		}()
	} else {
		publisher = queue.NewLogPublisher(log)
		log.Warn().Msg("RABBITMQ_URL vacío: los eventos salientes solo se registran en el log")
	}

	var notifier ports.LeadNotifier
	if cfg.SMTP.Enabled() {
		notifier = mail.NewLeadNotifier(cfg.SMTP)
	}

	onlineThreshold := time.Duration(cfg.Presence.OnlineMinutes) * time.Minute
	settingsUC := settings.NewSettingsUseCase(settingsRepo)
	teamUC := team.NewTeamUseCase(profileRepo, identityRepo, txRunner, log, onlineThreshold)
	authUC := auth.NewAuthUseCase(identityRepo, profileRepo, txRunner, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, log)
	leadUC := leads.NewLeadUseCase(leadRepo, feedbackRepo, teamUC, settingsUC, board, cfg.App.PhoneRegion, log)
	moveUC := pipeline.NewMoveUseCase(leadRepo, board, leadUC, settingsUC, publisher, log)
	saleUC := sales.NewSaleUseCase(saleRepo, teamUC, publisher, cfg.App.PhoneRegion, log)
	reportUC := analytics.NewReportUseCase(leadRepo, saleRepo, teamUC)
	ingestUC := webhook.NewIngestUseCase(leadRepo, profileRepo, settingsUC, notifier, board, cfg.App.PhoneRegion, log)
	// El relay público solo registra el sobre; al broker van únicamente los eventos internos.
	relayUC := webhook.NewRelayUseCase(queue.NewLogPublisher(log), log)
	webhookConfigUC := webhook.NewConfigUseCase(webhookRepo, leadRepo, teamUC, cfg.Webhook.PublicBaseURL)
	heartbeatUC := presence.NewHeartbeatUseCase(buffer)

	// Tiempo real: NOTIFY lead_changes -> dispatcher -> hub -> clientes SSE
	hub := realtime.NewHub(16)
	dispatcher := realtime.NewDispatcher(hub, profileRepo, board, log)
	connCfg, err := postgres.ConnConfig(cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("configuración del listener")
	}
	listener := postgres.NewChangeListener(connCfg, dispatcher.Handle, log)
	go func() {
		if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("listener de cambios finalizado")
		}
	}()

	flusher := presence.NewFlusher(buffer, profileRepo, locker, log)
	if err := flusher.Start(cfg.Presence.FlushSchedule); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.Presence.FlushSchedule).Msg("programar volcado de presencia")
	}

	app := fiber.New(fiber.Config{
		AppName:     cfg.App.Name,
		ReadTimeout: time.Second * 10,
		// sin WriteTimeout: el stream SSE mantiene la respuesta abierta
		IdleTimeout: time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "CRM API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:          authUC,
		TeamUC:          teamUC,
		LeadUC:          leadUC,
		MoveUC:          moveUC,
		SaleUC:          saleUC,
		ReportUC:        reportUC,
		SettingsUC:      settingsUC,
		IngestUC:        ingestUC,
		RelayUC:         relayUC,
		WebhookConfigUC: webhookConfigUC,
		HeartbeatUC:     heartbeatUC,
		Hub:             hub,
		JWTSecret:       cfg.JWT.Secret,
		WebhookLimit: httpRouter.RateLimitConfig{
			RequestsPerSecond: cfg.Webhook.RatePerSecond,
			Burst:             cfg.Webhook.RateBurst,
		},
		Log: log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	stop()
	flusher.Stop()
	if rmq != nil {
		_ = rmq.Close()
	}
	if rdbClose != nil {
		_ = rdbClose()
	}

	log.Info().Msg("aplicación detenida")
}
