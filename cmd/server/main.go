package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shareit/internal/api"
	"shareit/internal/config"
	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/gormstore"
	"shareit/internal/logging"
	"shareit/internal/metrics"
	"shareit/internal/repository"
	"shareit/internal/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := openStore(ctx, cfg, &logger)
	if err != nil {
		return err
	}
	defer repo.Close()

	bus := events.NewEventBus(logging.Component(&logger, "events"))
	subscribeBookingEvents(bus, &logger)

	svc := api.Services{
		Users:    service.NewUserService(repo, logging.Component(&logger, "users")),
		Items:    service.NewItemService(repo, logging.Component(&logger, "items")),
		Bookings: service.NewBookingService(repo, bus, logging.Component(&logger, "bookings")),
		Requests: service.NewRequestService(repo, logging.Component(&logger, "requests")),
	}
	httpServer := api.NewHTTPServer(cfg.API, cfg.Pagination.DefaultSize, svc, logging.Component(&logger, "http"))

	var grpcServer *api.GRPCServer
	if cfg.API.GRPC.Enabled {
		grpcServer, err = api.NewGRPCServer(cfg.API.GRPC, logging.Component(&logger, "grpc"))
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			return err
		}
	}

	startMetrics(ctx, cfg, &logger)

	return startServers(ctx, grpcServer, httpServer, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "server-main").Logger()

	return cfg, logger, closer, nil
}

// openStore picks the storage backend named by database.driver.
func openStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (domain.Repository, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		store, err := gormstore.OpenPostgres(cfg.Database.Postgres)
		if err != nil {
			logger.Error().Err(err).Str("host", cfg.Database.Postgres.Host).Msg("init postgres")
			return nil, err
		}
		logger.Info().Str("host", cfg.Database.Postgres.Host).Str("dbname", cfg.Database.Postgres.DBName).Msg("postgres connected")
		return store, nil
	case config.DriverMemory:
		logger.Warn().Msg("using in-memory storage, data is lost on restart")
		return repository.NewMemoryStore(), nil
	default:
		db, err := database.NewDB(cfg.Database.Path, logger)
		if err != nil {
			logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
			return nil, err
		}
		if cfg.Backup.Enabled {
			backups := database.NewBackupService(db, cfg.Backup, logging.Component(logger, "backup"))
			go backups.Start(ctx)
		}
		return db, nil
	}
}

func subscribeBookingEvents(bus *events.EventBus, logger *zerolog.Logger) {
	for _, eventType := range events.BookingTypes {
		bus.Subscribe(eventType, func(event *events.Event) error {
			var payload events.BookingEventPayload
			if err := event.Decode(&payload); err != nil {
				return err
			}
			metrics.IncBookingEvent(event.Type)
			logger.Info().
				Str("event", event.Type).
				Int64("booking_id", payload.BookingID).
				Int64("item_id", payload.ItemID).
				Int64("booker_id", payload.BookerID).
				Str("status", payload.Status).
				Msg("booking event")
			return nil
		})
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func startServers(ctx context.Context, grpcServer *api.GRPCServer, httpServer *api.HTTPServer, logger *zerolog.Logger) error {
	errCh := make(chan error, 2)

	if grpcServer != nil {
		go func() {
			if err := grpcServer.Serve(); err != nil {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
		logger.Info().Str("grpc_addr", grpcServer.Addr()).Msg("gRPC health server started")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case runErr = <-errCh:
		logger.Error().Err(runErr).Msg("server stopped unexpectedly")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcServer != nil {
		grpcServer.SetServing(false)
		grpcServer.Shutdown(shutdownCtx)
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("server stopped")
	return runErr
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
