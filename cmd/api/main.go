package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-generator/internal/api/http"
	"github.com/spec-kit/ticket-generator/internal/api/http/handlers"
	"github.com/spec-kit/ticket-generator/internal/auth"
	"github.com/spec-kit/ticket-generator/internal/config"
	"github.com/spec-kit/ticket-generator/internal/events"
	"github.com/spec-kit/ticket-generator/internal/observability"
	"github.com/spec-kit/ticket-generator/internal/persistence"
	"github.com/spec-kit/ticket-generator/internal/render"
	"github.com/spec-kit/ticket-generator/internal/repository"
	"github.com/spec-kit/ticket-generator/internal/service"
	"github.com/spec-kit/ticket-generator/internal/upload"
	"github.com/spec-kit/ticket-generator/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	var redis *persistence.Redis
	if cfg.UsesRedis() {
		redis = persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()
	}

	var sessionRepo repository.SessionRepository
	if cfg.Session.Store == config.SessionStoreRedis {
		sessionRepo = repository.NewRedisSessionRepository(redis.Client, cfg.Redis.KeyPrefix, cfg.Session.TTL())
	} else {
		sessionRepo = repository.NewMemorySessionRepository(cfg.Session.TTL())
	}

	var issuedRepo repository.IssuedTicketRepository
	if pg.Enabled() {
		issuedRepo = repository.NewIssuedTicketRepository(pg.PoolHandle())
	} else {
		issuedRepo = repository.NewMemoryIssuedTicketRepository()
	}

	var reserver repository.NumberReserver
	if cfg.Ticket.UniqueNumbers {
		if redis.Enabled() {
			reserver = repository.NewRedisNumberReserver(redis.Client, cfg.Redis.KeyPrefix)
		} else {
			reserver = repository.NewMemoryNumberReserver()
		}
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)
	worker.StartMetricsWorker(dispatcher, metrics)

	ticketService := service.NewTicketService(service.TicketDependencies{
		IssuedRepo:     issuedRepo,
		Reserver:       reserver,
		Dispatcher:     dispatcher,
		Logger:         logger,
		NumberAttempts: cfg.Ticket.NumberAttempts,
	})
	previewer := upload.NewPreviewer(logger)
	formService := service.NewFormService(service.FormDependencies{
		SessionRepo: sessionRepo,
		Tickets:     ticketService,
		Previewer:   previewer,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})

	renderer, err := render.NewRenderer(cfg.App.Version)
	if err != nil {
		logger.Fatal("failed to parse templates", zap.Error(err))
	}

	tokens := auth.NewTokenManager(cfg.Session.Secret, cfg.Session.TTL())
	sessionMiddleware := auth.NewSessionMiddleware(tokens, cfg.Session.CookieName, cfg.Session.SecureCookie)

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: cfg.App.BodyLimitBytes,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, renderer, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:            handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Form:              handlers.NewFormHandler(formService, renderer),
		Tickets:           handlers.NewTicketsHandler(formService, ticketService),
		SessionMiddleware: sessionMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	previewer.Wait()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
