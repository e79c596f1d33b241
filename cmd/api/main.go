package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sharekeep/internal/api"
	"sharekeep/internal/config"
	"sharekeep/internal/database"
	"sharekeep/internal/domain"
	"sharekeep/internal/events"
	"sharekeep/internal/logging"
	"sharekeep/internal/metrics"
	"sharekeep/internal/ratelimit"
	"sharekeep/internal/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Msg("init database")
		return err
	}
	defer db.Close()

	limiter := initLimiter(cfg, logger)

	eventBus := events.NewEventBus()
	subscribeAuditLog(eventBus, logger)

	services := api.Services{
		Users:    service.NewUserService(db, logger),
		Items:    service.NewItemService(db, eventBus, logger),
		Requests: service.NewRequestService(db, logger),
		Bookings: service.NewBookingService(db, eventBus, logger),
	}

	httpServer := api.NewHTTPServer(cfg, services, limiter, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startMetrics(ctx, cfg, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func initLimiter(cfg *config.Config, logger *zerolog.Logger) *api.RateLimiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}

	var store domain.LimiterStore = ratelimit.NewMemoryLimiterStore()
	if cfg.Redis.Enabled {
		client := ratelimit.NewRedisClient(cfg.Redis)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := ratelimit.Ping(ctx, client); err != nil {
			logger.Warn().Err(err).Msg("redis unavailable at startup, limiter starts on memory fallback")
		}
		store = ratelimit.NewFailoverLimiterStore(
			ratelimit.NewRedisLimiterStore(client),
			ratelimit.NewMemoryLimiterStore(),
			logger,
		)
	}

	return api.NewRateLimiter(&cfg.RateLimit, store, logger)
}

// subscribeAuditLog wires a structured audit record for booking lifecycle
// events.
func subscribeAuditLog(bus *events.EventBus, logger *zerolog.Logger) {
	handler := func(event *events.Event) error {
		logger.Info().
			Str("event_type", event.Type).
			RawJSON("payload", event.Payload).
			Msg("domain event")
		return nil
	}

	for _, eventType := range []string{
		events.EventBookingCreated,
		events.EventBookingApproved,
		events.EventBookingRejected,
		events.EventCommentCreated,
	} {
		bus.Subscribe(eventType, handler)
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("metrics listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}
