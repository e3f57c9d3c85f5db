package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	campaignservice "github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service"
	postgresadapter "github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/adapters/postgres"
	workerapp "github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/application/workers"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/internal/platform/config"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/internal/platform/db"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/internal/platform/httpserver"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/internal/platform/messaging"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/internal/platform/metrics"

	"golang.org/x/sync/errgroup"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	database *db.Database
	logger   *slog.Logger
}

type WorkerApp struct {
	database     *db.Database
	bus          *messaging.Bus
	outboxRelay  workerapp.OutboxRelay
	lifecycle    workerapp.LifecycleEventConsumer
	metrics      *metrics.Registry
	metricsAddr  string
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI(cfg config.Config, logger *slog.Logger) (*APIApp, error) {
	if logger == nil {
		logger = slog.Default()
	}
	database, err := connect(cfg, logger)
	if err != nil {
		return nil, err
	}

	module := buildModule(database, logger)
	server := httpserver.New(module, logger, httpserver.Options{
		Addr:               normalizeAddr(cfg.HTTP.Port),
		RateLimitPerSecond: cfg.HTTP.RateLimitPerSecond,
		RateLimitBurst:     cfg.HTTP.RateLimitBurst,
		Metrics:            metrics.NewRegistry(),
	})
	return &APIApp{
		server:   server,
		database: database,
		logger:   logger,
	}, nil
}

func BuildWorker(cfg config.Config, logger *slog.Logger) (*WorkerApp, error) {
	if logger == nil {
		logger = slog.Default()
	}
	database, err := connect(cfg, logger)
	if err != nil {
		return nil, err
	}

	repo := postgresadapter.NewRepository(database.DB, logger)
	bus := messaging.NewBus(logger)
	registry := metrics.NewRegistry()
	return &WorkerApp{
		database: database,
		bus:      bus,
		outboxRelay: workerapp.OutboxRelay{
			Outbox:    repo,
			Publisher: bus,
			Clock:     postgresadapter.SystemClock{},
			BatchSize: cfg.Worker.BatchSize,
			Logger:    logger,
		},
		lifecycle: workerapp.LifecycleEventConsumer{
			Subscriber: bus,
			Counter:    registry,
			Logger:     logger,
		},
		metrics:      registry,
		metricsAddr:  normalizeAddr(cfg.Worker.MetricsPort),
		pollInterval: cfg.Worker.PollInterval,
		logger:       logger,
	}, nil
}

// Migrate creates or updates the schema and exits.
func Migrate(cfg config.Config, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	database, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.Migrate(postgresadapter.AutoMigrate); err != nil {
		return err
	}
	logger.Info("schema migrated",
		"event", "bootstrap_schema_migrated",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"driver", cfg.Database.Driver,
	)
	return nil
}

func (a *APIApp) Run(ctx context.Context) error {
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)
	return a.server.Run(ctx)
}

func (a *APIApp) Close() error {
	return a.database.Close()
}

// Run starts the lifecycle consumer, the outbox relay and the metrics
// listener, and returns once all three have stopped.
func (w *WorkerApp) Run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	if err := w.lifecycle.Start(groupCtx); err != nil {
		return err
	}

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	group.Go(func() error {
		return w.outboxRelay.Run(groupCtx, w.pollInterval)
	})
	group.Go(func() error {
		return serveMetrics(groupCtx, w.metricsAddr, w.metrics.Handler())
	})

	err := group.Wait()
	w.bus.Wait()
	return err
}

func (w *WorkerApp) Close() error {
	return w.database.Close()
}

func connect(cfg config.Config, logger *slog.Logger) (*db.Database, error) {
	database, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(postgresadapter.AutoMigrate); err != nil {
			return nil, errors.Join(err, database.Close())
		}
		logger.Info("schema migrated on startup",
			"event", "bootstrap_schema_migrated",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"driver", cfg.Database.Driver,
		)
	}
	return database, nil
}

func buildModule(database *db.Database, logger *slog.Logger) campaignservice.Module {
	repo := postgresadapter.NewRepository(database.DB, logger)
	return campaignservice.NewModule(campaignservice.Dependencies{
		UnitOfWork:  repo,
		Repository:  repo,
		Clock:       postgresadapter.SystemClock{},
		IDGenerator: postgresadapter.UUIDGenerator{},
		Logger:      logger,
	})
}

func serveMetrics(ctx context.Context, addr string, handler http.Handler) error {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", handler)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-errCh
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.Contains(value, ":") {
		return value
	}
	return ":" + value
}
