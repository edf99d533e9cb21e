package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studioz/internal/api"
	"studioz/internal/cache"
	"studioz/internal/config"
	"studioz/internal/database"
	"studioz/internal/events"
	"studioz/internal/export"
	"studioz/internal/logging"
	"studioz/internal/metrics"
	"studioz/internal/notify"
	"studioz/internal/service"
	"studioz/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
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

	catalog, err := loadCatalog(cfg, &logger)
	if err != nil {
		return err
	}

	db, err := initDatabase(cfg, catalog, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if !cfg.API.Enabled {
		logger.Warn().Msg("API is disabled in config, but starting API application. Check your config.")
	}

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	availCache := cache.NewAvailabilityCache(
		redisClient,
		time.Duration(cfg.Redis.CacheTTL)*time.Second,
		&logger,
	)

	bus := events.NewEventBus()
	notifier := notify.NewNotifier(bus, redisClient, &logger)
	initVendorAlerts(cfg, bus, &logger)

	svc := service.NewReservationService(
		db,
		notifier,
		availCache,
		cfg.Reservations.HoldMinutes,
		cfg.Reservations.MaxBookingDays,
		cfg.Reservations.RetentionDays,
		&logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeper := worker.NewSweeper(
		svc,
		time.Duration(cfg.Reservations.SweepIntervalSeconds)*time.Second,
		cfg.Reservations.CleanupHour,
		&logger,
	)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
	go backupService.Start(ctx)

	startMetrics(ctx, cfg, &logger)

	exporter := export.NewExporter(cfg.Exports.Path, db, &logger)
	httpServer := api.NewHTTPServer(cfg.API, cfg.App.Environment, svc, db, exporter, &logger)

	return startServer(ctx, httpServer, cfg, &logger)
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
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func loadCatalog(cfg *config.Config, logger *zerolog.Logger) (*config.Catalog, error) {
	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		logger.Error().Err(err).Str("catalog_path", cfg.CatalogPath).Msg("load catalog")
		return nil, err
	}
	logger.Info().
		Int("studios", len(catalog.Studios)).
		Int("items", len(catalog.Items)).
		Int("add_ons", len(catalog.AddOns)).
		Msg("catalog loaded")
	return catalog, nil
}

func initDatabase(cfg *config.Config, catalog *config.Catalog, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, err
	}

	db.SetCatalog(catalog.Studios, catalog.Items)
	if err := db.SyncAddOns(context.Background(), catalog.AddOns); err != nil {
		db.Close()
		logger.Error().Err(err).Msg("sync add-ons")
		return nil, err
	}
	return db, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if !cfg.Redis.Enabled || cfg.Redis.Address == "" {
		return nil
	}

	redisClient := cache.NewRedisClient(cfg.Redis)
	if err := cache.Ping(context.Background(), redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

func initVendorAlerts(cfg *config.Config, bus *events.EventBus, logger *zerolog.Logger) {
	if !cfg.Telegram.Enabled || cfg.Telegram.BotToken == "" {
		return
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, continuing without vendor alerts")
		return
	}
	botAPI.Debug = cfg.Telegram.Debug

	alerts := notify.NewVendorAlerts(botAPI, cfg.Telegram.VendorChatID, logger)
	alerts.Register(bus)
	logger.Info().Int64("chat_id", cfg.Telegram.VendorChatID).Msg("vendor alerts enabled")
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServer(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	go func() {
		if !cfg.API.HTTP.Enabled {
			return
		}
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
