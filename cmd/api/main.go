package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/trouble-ticket/internal/api/http"
	"github.com/spec-kit/trouble-ticket/internal/api/http/handlers"
	"github.com/spec-kit/trouble-ticket/internal/bootstrap"
	"github.com/spec-kit/trouble-ticket/internal/clock"
	"github.com/spec-kit/trouble-ticket/internal/config"
	"github.com/spec-kit/trouble-ticket/internal/events"
	"github.com/spec-kit/trouble-ticket/internal/observability"
	"github.com/spec-kit/trouble-ticket/internal/service"
	"github.com/spec-kit/trouble-ticket/internal/worker"
)

const serviceTitle = "TMF621 Trouble Ticket API"

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

	store, err := bootstrap.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open ticket store", zap.Error(err))
	}
	defer store.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartActivityWorker(service.NewActivityService(dispatcher, logger, metrics))

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:       store.Tickets,
		Dispatcher:       dispatcher,
		Clock:            clock.Real(),
		DefaultListLimit: cfg.Store.DefaultListLimit,
		Logger:           logger,
	})

	dependencies := []handlers.Dependency{{Name: cfg.Store.Driver, Pinger: ticketService}}
	if store.Cache != nil {
		dependencies = append(dependencies, handlers.Dependency{Name: "redis", Pinger: store.Cache})
	}

	var limiter *httptransport.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = httptransport.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		limiter.StartJanitor(ctx)
	}

	app := fiber.New(fiber.Config{
		AppName:               serviceTitle,
		DisableStartupMessage: true,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, httptransport.MiddlewareOptions{
		Timeout:     cfg.App.RequestTimeout(),
		CORSOrigins: cfg.App.CORSOrigins,
		RateLimiter: limiter,
	})
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, dependencies...),
		Info:    handlers.NewInfoHandler(serviceTitle, cfg.App.Version),
		Metrics: handlers.NewMetricsHandler(metrics),
		Tickets: handlers.NewTicketsHandler(ticketService),
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
