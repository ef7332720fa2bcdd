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
	"sync"
	"syscall"
	"time"

	"carrental/internal/api"
	"carrental/internal/config"
	"carrental/internal/database"
	"carrental/internal/domain"
	"carrental/internal/events"
	"carrental/internal/logging"
	"carrental/internal/metrics"
	"carrental/internal/repository"
	"carrental/internal/service"
	"carrental/internal/store"
	"carrental/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

// storage is the selected snapshot backend plus what main has to run and close for it.
type storage struct {
	repo   domain.SnapshotRepository
	health func(ctx context.Context) error
	backup *database.BackupService
	close  func()
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	appStore := store.New(st.repo, logging.Component(logger, "store"), store.WithSessionTTL(cfg.Booking.SessionTTL))
	if err := appStore.Load(ctx); err != nil && !errors.Is(err, domain.ErrMalformedSnapshot) {
		return fmt.Errorf("load snapshot: %w", err)
	}

	bus := events.NewEventBus()
	subscribeEventLog(bus, logging.Component(logger, "events"))

	catalog := service.NewCatalogService(appStore, cfg.Cars, cfg.Places, cfg.Booking.RestockOnCancel, logging.Component(logger, "catalog"))
	if err := catalog.Seed(ctx); err != nil {
		return err
	}
	accounts := service.NewAccountService(appStore, bus, logging.Component(logger, "accounts"))
	bookings := service.NewBookingService(appStore, catalog, bus, service.NewPricing(cfg.Booking.Surcharge()), logging.Component(logger, "bookings"))
	admin := service.NewAdminService(adminCredentials(cfg.Admins), logging.Component(logger, "admin"))

	httpServer := api.NewHTTPServer(cfg.API, api.Deps{
		Catalog:  catalog,
		Accounts: accounts,
		Bookings: bookings,
		Admin:    admin,
		Health:   st.health,
	}, logging.Component(logger, "http"))

	autosave := worker.NewAutosaveWorker(appStore, cfg.Storage.AutosaveInterval, worker.DefaultRetryPolicy(), logging.Component(logger, "autosave"))

	startMetrics(ctx, cfg, logger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		autosave.Run(ctx)
	}()
	if st.backup != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st.backup.Start(ctx)
		}()
	}

	err = serve(ctx, httpServer, cfg, logger)
	stop()
	wg.Wait()
	return err
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logging.Component(baseLogger, "api-main"), closer, nil
}

func openStorage(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		db, err := database.NewDB(cfg.Storage.Path, logging.Component(logger, "database"))
		if err != nil {
			logger.Error().Err(err).Str("db_path", cfg.Storage.Path).Msg("init database")
			return nil, err
		}
		s := &storage{
			repo:   db.SnapshotRepository(cfg.Storage.Key),
			health: db.PingContext,
			close:  func() { _ = db.Close() },
		}
		if cfg.Backup.Enabled {
			s.backup = database.NewBackupService(db, cfg.Backup, logging.Component(logger, "backup"))
		}
		return s, nil

	case config.DriverRedis:
		client := repository.NewRedisClient(cfg.Redis)
		primary := repository.NewRedisSnapshotRepository(client, cfg.Storage.RedisPrefix, cfg.Storage.Key)
		if err := repository.Ping(ctx, client); err != nil {
			logger.Warn().Err(err).Msg("redis unavailable at startup, snapshot load will fail")
		} else {
			logger.Info().Str("addr", cfg.Redis.Address).Str("key", primary.Key()).Msg("redis connected")
		}
		failover := repository.NewFailoverSnapshotRepository(primary, repository.NewMemorySnapshotRepository(), logging.Component(logger, "storage"))
		return &storage{
			repo: failover,
			health: func(ctx context.Context) error {
				return repository.Ping(ctx, client)
			},
			close: func() { _ = repository.Close(client) },
		}, nil

	default:
		logger.Warn().Msg("memory storage: state is lost on restart")
		return &storage{repo: repository.NewMemorySnapshotRepository(), close: func() {}}, nil
	}
}

func adminCredentials(admins []config.AdminAccount) []service.AdminCredential {
	out := make([]service.AdminCredential, 0, len(admins))
	for _, a := range admins {
		out = append(out, service.AdminCredential{Username: a.Username, Password: a.Password})
	}
	return out
}

func subscribeEventLog(bus *events.EventBus, logger *zerolog.Logger) {
	bus.SubscribeAll(func(e *events.Event) error {
		logger.Debug().Str("type", e.Type).RawJSON("payload", e.Payload).Msg("event")
		return nil
	})
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	metrics.Register()
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func serve(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Str("storage", cfg.Storage.Driver).Msg("API server started")

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case serveErr = <-errCh:
		logger.Error().Err(serveErr).Msg("http server stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return serveErr
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
