package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/complaint-desk/internal/api/http"
	"github.com/spec-kit/complaint-desk/internal/api/http/handlers"
	"github.com/spec-kit/complaint-desk/internal/auth"
	"github.com/spec-kit/complaint-desk/internal/config"
	"github.com/spec-kit/complaint-desk/internal/events"
	"github.com/spec-kit/complaint-desk/internal/observability"
	"github.com/spec-kit/complaint-desk/internal/persistence"
	"github.com/spec-kit/complaint-desk/internal/ratelimit"
	"github.com/spec-kit/complaint-desk/internal/realtime"
	"github.com/spec-kit/complaint-desk/internal/repository"
	"github.com/spec-kit/complaint-desk/internal/repository/memory"
	"github.com/spec-kit/complaint-desk/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
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
		if err := persistence.RunMigrations(ctx, pg.Pool, "", logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	var (
		userRepo    repository.UserRepository
		ticketRepo  repository.TicketRepository
		commentRepo repository.TicketCommentRepository
	)
	if pg.Enabled() {
		userRepo = repository.NewUserRepository(pg.Pool)
		ticketRepo = repository.NewTicketRepository(pg.Pool)
		commentRepo = repository.NewTicketCommentRepository(pg.Pool)
	} else {
		store := memory.NewStore()
		userRepo, ticketRepo, commentRepo = store.Users(), store.Tickets(), store.Comments()
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var limits ratelimit.Store
	if cfg.RateLimit.Store == "redis" {
		limits = ratelimit.NewRedisStore(redis.Client, cfg.App.Name+":ratelimit")
	} else {
		memoryLimits := ratelimit.NewMemoryStore()
		memoryLimits.StartJanitor(ctx, time.Minute)
		limits = memoryLimits
	}

	dispatcher := events.NewInMemoryDispatcher()
	hub := realtime.NewHub(logger, realtime.Options{
		SendBuffer:        cfg.Realtime.SendBuffer,
		MessagesPerSecond: cfg.Realtime.MessagesPerSecond,
	})

	authService := service.NewAuthService(cfg.Auth, userRepo)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		CommentRepo: commentRepo,
		Dispatcher:  dispatcher,
	})
	service.NewNotificationService(dispatcher, hub, logger).RegisterHandlers()

	metrics := observability.NewMetrics()
	dependencies := map[string]handlers.Pinger{}
	if pg.Enabled() {
		dependencies["postgres"] = pg
	}
	if redis != nil {
		dependencies["redis"] = redis
	}

	app := httptransport.NewApp(httptransport.AppConfig{
		Name:        cfg.App.Name,
		ProxyHeader: cfg.App.ProxyHeader,
	}, httptransport.MiddlewareConfig{
		Logger:         logger,
		Metrics:        metrics,
		Timeout:        cfg.App.RequestTimeout(),
		FrontendOrigin: cfg.App.FrontendOrigin,
	}, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(handlers.HealthOptions{
			ServiceName:  cfg.App.Name,
			Version:      cfg.App.Version,
			Dependencies: dependencies,
			Metrics:      metrics,
			RealtimeConn: hub.ClientCount,
		}),
		Users:          handlers.NewUsersHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Realtime:       realtime.NewHandler(hub, authService, ticketService, cfg.App.FrontendOrigin),
		AuthMiddleware: auth.NewAuthMiddleware(authService),
		LoginLimiter:   ratelimit.Middleware(limits, ratelimit.PolicyFromConfig("login", cfg.RateLimit.Login), logger),
		APILimiter:     ratelimit.Middleware(limits, ratelimit.PolicyFromConfig("api", cfg.RateLimit.API), logger),
	})

	go func() {
		logger.Info("http server starting",
			zap.String("addr", cfg.App.Addr()),
			zap.Bool("postgres", pg.Enabled()),
			zap.String("rate_limit_store", cfg.RateLimit.Store))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	hub.Close()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
