package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/taskio/taskio-web/internal/config"
	"github.com/taskio/taskio-web/internal/handlers"
	"github.com/taskio/taskio-web/internal/middleware"
	"github.com/taskio/taskio-web/internal/models"
	"github.com/taskio/taskio-web/internal/services"
	"github.com/taskio/taskio-web/internal/services/backend"
	"github.com/taskio/taskio-web/internal/utils"
	"github.com/taskio/taskio-web/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	cfg      *config.Config
	hub      *services.EventHub
	sessions *services.SessionManager
	janitor  *services.SessionJanitor
	limiter  *middleware.RateLimiter
	cookie   *middleware.SessionCookie
	redis    *redis.Client

	authHandler         *handlers.AuthHandler
	sessionHandler      *handlers.SessionHandler
	sseHandler          *handlers.SSEHandler
	dashboardHandler    *handlers.DashboardHandler
	boardHandler        *handlers.BoardHandler
	workflowHandler     *handlers.WorkflowHandler
	attachmentHandler   *handlers.AttachmentHandler
	notificationHandler *handlers.NotificationHandler
	historyHandler      *handlers.HistoryHandler
	analyticsHandler    *handlers.AnalyticsHandler
	profileHandler      *handlers.ProfileHandler
	healthHandler       *handlers.HealthHandler
}

// bootstrap initializes all application dependencies: session store, backend client, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	sealer, err := utils.NewSealer(cfg.Session.Secret)
	if err != nil {
		logger.Fatalf("Failed to derive session key: %v", err)
	}

	svc := &appServices{cfg: cfg}

	store, ping, err := svc.openStore(sealer)
	if err != nil {
		logger.Fatalf("Failed to open %s session store: %v", cfg.Session.Store, err)
	}
	logger.Info().Str("store", cfg.Session.Store).Msg("session store ready")

	api := services.NewAPI(backend.New(cfg.Backend.BaseURL, cfg.BackendTimeout()))
	svc.hub = services.NewEventHub()
	svc.sessions = services.NewSessionManager(store, svc.hub, api, services.ShellOptions{
		IdleBudget:   cfg.Session.IdleBudget(),
		TickInterval: cfg.Session.TickInterval(),
		PollInterval: cfg.Session.PollInterval(),
	})

	// Sweep lapsed sessions and stored records
	svc.janitor = services.NewSessionJanitor(svc.sessions, store, cfg.Session.JanitorSpec)
	if err := svc.janitor.StartScheduler(); err != nil {
		logger.Fatalf("Failed to start session janitor: %v", err)
	}

	svc.limiter = middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	svc.cookie = middleware.NewSessionCookie(cfg.Session.CookieName, cfg.Session.CookieSecure, sealer)

	accounts := services.NewAccountService(api, svc.sessions)
	svc.authHandler = handlers.NewAuthHandler(accounts, svc.cookie)
	svc.sessionHandler = handlers.NewSessionHandler(svc.sessions)
	svc.sseHandler = handlers.NewSSEHandler(svc.hub)
	svc.dashboardHandler = handlers.NewDashboardHandler(services.NewDashboardService(api))
	svc.boardHandler = handlers.NewBoardHandler(services.NewBoardService(api))
	svc.workflowHandler = handlers.NewWorkflowHandler(
		services.NewWorkflowService(api, svc.hub, cfg.Graph.Width, cfg.Graph.Height, cfg.Graph.Iterations))
	svc.attachmentHandler = handlers.NewAttachmentHandler(services.NewAttachmentService(api, cfg.Uploads.MaxFileBytes))
	svc.notificationHandler = handlers.NewNotificationHandler(services.NewNotificationService(api))
	svc.historyHandler = handlers.NewHistoryHandler(services.NewHistoryService(api, cfg.Display.Location()))
	svc.analyticsHandler = handlers.NewAnalyticsHandler(services.NewAnalyticsService(api))
	svc.profileHandler = handlers.NewProfileHandler(accounts, svc.cookie)
	svc.healthHandler = handlers.NewHealthHandler(svc.sessions, cfg.Session.Store, ping)

	return svc
}

// openStore builds the configured session store and its health check.
func (s *appServices) openStore(sealer *utils.Sealer) (services.SessionStore, handlers.Pinger, error) {
	cfg := s.cfg
	switch cfg.Session.Store {
	case "", "memory":
		return services.NewMemorySessionStore(sealer), nil, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		s.redis = client
		ping := func(ctx context.Context) error { return client.Ping(ctx).Err() }
		return services.NewRedisSessionStore(client, sealer, cfg.Session.StoreTTL()), ping, nil

	case "database":
		if err := models.InitDB(&cfg.Database); err != nil {
			return nil, nil, err
		}
		if err := models.AutoMigrate(); err != nil {
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		db := models.GetDB()
		ping := func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
		return services.NewDBSessionStore(db, sealer), ping, nil
	}
	return nil, nil, fmt.Errorf("unknown session store %q", cfg.Session.Store)
}

// shutdown gracefully stops all services. Stored sessions are kept so they
// survive the restart.
func (s *appServices) shutdown() {
	s.janitor.StopScheduler()
	s.sessions.Shutdown()
	s.limiter.Stop()
	logger.Info().Msg("All schedulers stopped")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close redis client")
		}
	}
	if db := models.GetDB(); db != nil {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
}
