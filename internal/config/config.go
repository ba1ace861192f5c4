package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port     string `validate:"required,numeric"`
	AppEnv   string `validate:"oneof=dev prod"`
	LogLevel slog.Level

	// Open-Meteo forecast endpoint and per-request timeout.
	OpenMeteoBaseURL  string        `validate:"required,url"`
	WeatherAPITimeout time.Duration `validate:"gt=0"`

	// Location used for mode=auto and for unparseable coordinates.
	DefaultLatitude  float64 `validate:"gte=-90,lte=90"`
	DefaultLongitude float64 `validate:"gte=-180,lte=180"`

	// StationMaxAge discards older station readings when resolving weather (0 = never).
	StationMaxAge time.Duration `validate:"gte=0"`

	// Durable copy of station readings; empty path disables persistence.
	SQLitePath            string
	SQLiteMaxOpenConns    int `validate:"gte=0"`
	SQLiteConnMaxLifetime time.Duration
	StationRetention      time.Duration `validate:"gte=0"`
	PruneInterval         time.Duration `validate:"gte=0"`

	// MQTT ingestion; empty broker disables it.
	MQTTBroker   string
	MQTTPort     int `validate:"gte=1,lte=65535"`
	MQTTTopic    string
	MQTTClientID string
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "5000")
	cfg.AppEnv = getenvDefault("APP_ENV", "dev")

	level, err := parseLogLevel(getenvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	cfg.OpenMeteoBaseURL = getenvDefault("OPEN_METEO_BASE_URL", "https://api.open-meteo.com/v1/forecast")
	cfg.WeatherAPITimeout = time.Duration(getenvInt("WEATHER_API_TIMEOUT", 10000)) * time.Millisecond
	cfg.DefaultLatitude = getenvFloat("DEFAULT_LATITUDE", 22.3072)
	cfg.DefaultLongitude = getenvFloat("DEFAULT_LONGITUDE", 73.1812)

	if cfg.StationMaxAge, err = getenvDuration("STATION_MAX_AGE", "0s"); err != nil {
		return nil, err
	}

	cfg.SQLitePath = getenvDefault("SQLITE_PATH", "data/farm-weather.db")
	cfg.SQLiteMaxOpenConns = getenvInt("SQLITE_MAX_OPEN_CONNS", 1)
	if cfg.SQLiteConnMaxLifetime, err = getenvDuration("SQLITE_CONN_MAX_LIFETIME", "0s"); err != nil {
		return nil, err
	}
	if cfg.StationRetention, err = getenvDuration("STATION_RETENTION", "720h"); err != nil {
		return nil, err
	}
	if cfg.PruneInterval, err = getenvDuration("PRUNE_INTERVAL", "1h"); err != nil {
		return nil, err
	}

	cfg.MQTTBroker = os.Getenv("MQTT_BROKER")
	cfg.MQTTPort = getenvInt("MQTT_PORT", 1883)
	cfg.MQTTTopic = getenvDefault("MQTT_TOPIC", "farm/stations/+/data")
	cfg.MQTTClientID = getenvDefault("MQTT_CLIENT_ID", "farm-weather")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// PersistenceEnabled reports whether station readings get a durable copy.
func (c *AppConfig) PersistenceEnabled() bool {
	return strings.TrimSpace(c.SQLitePath) != ""
}

// MQTTEnabled reports whether the MQTT subscriber should run.
func (c *AppConfig) MQTTEnabled() bool {
	return strings.TrimSpace(c.MQTTBroker) != ""
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err == nil {
			return f
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	raw := getenvDefault(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
