package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	httpapi "github.com/i474232898/farm-weather/internal/api/http"
	"github.com/i474232898/farm-weather/internal/config"
	"github.com/i474232898/farm-weather/internal/db"
	"github.com/i474232898/farm-weather/internal/logging"
	"github.com/i474232898/farm-weather/internal/metrics"
	"github.com/i474232898/farm-weather/internal/mqtt"
	"github.com/i474232898/farm-weather/internal/scheduler"
	"github.com/i474232898/farm-weather/internal/station"
	"github.com/i474232898/farm-weather/internal/store"
	"github.com/i474232898/farm-weather/internal/weather"
	"github.com/i474232898/farm-weather/internal/weather/providers"
)

const appName = "farm-weather"

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.New(cfg, appName)
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// Durable copy of station readings. The service keeps running on the
	// in-memory slot alone when the database cannot be opened.
	var (
		sqlDB *sql.DB
		repo  *store.SQLiteRepository
	)
	if cfg.PersistenceEnabled() {
		sqlDB, err = db.Open(cfg)
		if err == nil {
			err = store.Migrate(sqlDB)
		}
		if err != nil {
			logger.Warn("station persistence disabled", "path", cfg.SQLitePath, "error", err)
			if sqlDB != nil {
				_ = sqlDB.Close()
				sqlDB = nil
			}
		} else {
			repo = store.NewSQLiteRepository(sqlDB)
			logger.Info("station persistence enabled", "path", cfg.SQLitePath)
		}
	}

	stationOpts := []station.Option{station.WithMetrics(m)}
	if repo != nil {
		stationOpts = append(stationOpts, station.WithPersister(repo))
	}
	stations := station.NewService(store.NewMemoryStore(), logger, stationOpts...)

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.WeatherAPITimeout,
	}
	openMeteo := providers.NewOpenMeteoProvider(httpClient, cfg.OpenMeteoBaseURL, m)

	mock := weather.NewMockGenerator()
	resolver := weather.NewResolver(stations, openMeteo, mock, weather.ResolverConfig{
		DefaultLatitude:  cfg.DefaultLatitude,
		DefaultLongitude: cfg.DefaultLongitude,
		FetchTimeout:     cfg.WeatherAPITimeout,
		StationMaxAge:    cfg.StationMaxAge,
		Logger:           logger,
		Metrics:          m,
	})

	// Retention job for persisted readings.
	if repo != nil {
		sched := scheduler.New(repo, cfg.StationRetention, cfg.PruneInterval, logger)
		if err := sched.Start(); err != nil {
			logger.Error("failed to start scheduler", "error", err)
		} else {
			defer sched.Stop()
		}
	}

	// MQTT ingestion path; a broker outage never blocks the HTTP surface.
	if cfg.MQTTEnabled() {
		sub := mqtt.NewSubscriber(cfg, func(raw map[string]any) {
			stations.Ingest(station.OriginMQTT, raw)
		}, logger)

		connectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := sub.Connect(connectCtx); err != nil {
			logger.Warn("mqtt broker unavailable; will keep retrying", "broker", cfg.MQTTBroker, "error", err)
		}
		cancel()
		defer sub.Disconnect()
	}

	app := httpapi.NewApp(appName)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler(reg)))

	deps := httpapi.Dependencies{
		Resolver: resolver,
		Stations: stations,
		Mock:     mock,
		Logger:   logger,
	}
	if repo != nil {
		deps.Archive = repo
		deps.Cities = repo
	}
	httpapi.RegisterRoutes(app, deps)

	// Start server with graceful shutdown
	go func() {
		logger.Info("listening", "port", cfg.Port, "env", cfg.AppEnv)
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", "error", err)
	}

	stations.Wait()
	if sqlDB != nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("closing database", "error", err)
		}
	}
}
