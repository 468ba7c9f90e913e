package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/finance-api/internal/api/http"
	"github.com/spec-kit/finance-api/internal/api/http/handlers"
	"github.com/spec-kit/finance-api/internal/auth"
	"github.com/spec-kit/finance-api/internal/config"
	"github.com/spec-kit/finance-api/internal/events"
	"github.com/spec-kit/finance-api/internal/observability"
	"github.com/spec-kit/finance-api/internal/persistence"
	"github.com/spec-kit/finance-api/internal/repository"
	"github.com/spec-kit/finance-api/internal/service"
	"github.com/spec-kit/finance-api/internal/worker"
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

	pool := pg.PoolHandle()
	if pool == nil {
		logger.Fatal("POSTGRES_DSN is required")
	}

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	userRepo := repository.NewUserRepository(pool)
	transactionRepo := repository.NewTransactionRepository(pool)

	revocations := auth.NewRevocationStore()
	activeTokens := auth.NewActiveTokenStore(cfg.Session.ActiveTokenTTL())
	sessions := auth.NewSessionIssuer(auth.NewTokenManager(cfg.Auth.JWTSecret), activeTokens, revocations, cfg.Session)
	throttle := auth.NewLoginThrottle(redis.Handle(), cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginWindow())

	dispatcher := events.NewInMemoryDispatcher()
	service.NewAuditService(dispatcher, logger).RegisterHandlers()

	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:    userRepo,
		Sessions:    sessions,
		Revocations: revocations,
		Active:      activeTokens,
		Throttle:    throttle,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
		BcryptCost:  cfg.Auth.BcryptCost,
	})
	transactionService := service.NewTransactionService(transactionRepo)

	guard := auth.NewGuard(auth.GuardDependencies{
		Sessions:     sessions,
		Revocations:  revocations,
		Active:       activeTokens,
		Users:        userRepo,
		SingleActive: cfg.Session.SingleActive,
		Metrics:      metrics,
		Logger:       logger,
	})

	sweeper := worker.NewTokenSweeper(map[string]worker.SweepStore{
		"revocations":   revocations,
		"active_tokens": activeTokens,
	}, cfg.Session.SweepInterval(), metrics, logger)
	go sweeper.Run(ctx)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout(), cfg.App.CORSOrigins)

	var redisPinger handlers.Pinger
	if redis.Handle() != nil {
		redisPinger = redis
	}

	routes := httptransport.RouteConfig{
		Health:       handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redisPinger),
		Users:        handlers.NewUsersHandler(authService, transactionService, sessions),
		Transactions: handlers.NewTransactionsHandler(transactionService),
		Guard:        guard,
	}
	if cfg.Metrics.Enabled {
		routes.MetricsPath = cfg.Metrics.Path
		routes.Metrics = adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}
	httptransport.RegisterRoutes(app, routes)

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	if err := app.Shutdown(); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
