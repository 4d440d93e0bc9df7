package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	ServiceName    = "go-inventory-ledger"
	ServiceVersion = "1.0.0"
)

const (
	DefaultKafkaTopic   = "inventory.ledger"
	KafkaBatchTimeout   = 10 * time.Millisecond
	OtelTracesPath      = "/v1/traces"
	OtelLogsPath        = "/v1/logs"
	OtelExportTimeout   = 30 * time.Second
	OtelMaxQueueSize    = 2048
	defaultJWTSecret    = "your-super-secret-key-change-in-production"
	defaultAdminUser    = "admin"
	defaultAdminPass    = "admin1234"
	defaultDisplayShift = 9
)

type Config struct {
	Port string

	DBDriver    string // postgres | sqlite
	DatabaseURL string

	JWTSecret     string
	AdminUsername string
	AdminPassword string

	// DisplayOffset shifts stored UTC timestamps for presentation only.
	DisplayOffset     time.Duration
	LowStockThreshold int

	KafkaBroker string
	KafkaTopic  string

	OtelEndpoint   string
	OtelAuthHeader string

	LogLevel string
}

// Load reads the configuration from the environment. Call godotenv.Load first
// if a .env file should be honoured.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "3000"),
		DBDriver:       getEnv("DB_DRIVER", "postgres"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWTSecret:      getEnv("JWT_SECRET", defaultJWTSecret),
		AdminUsername:  getEnv("ADMIN_USERNAME", defaultAdminUser),
		AdminPassword:  getEnv("ADMIN_PASSWORD", defaultAdminPass),
		KafkaBroker:    os.Getenv("KAFKA_BROKER"),
		KafkaTopic:     getEnv("KAFKA_TOPIC", DefaultKafkaTopic),
		OtelEndpoint:   os.Getenv("OTEL_ENDPOINT"),
		OtelAuthHeader: os.Getenv("OTEL_AUTH_HEADER"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}

	offset, err := getEnvInt("DISPLAY_OFFSET_HOURS", defaultDisplayShift)
	if err != nil {
		return nil, err
	}
	cfg.DisplayOffset = time.Duration(offset) * time.Hour

	cfg.LowStockThreshold, err = getEnvInt("LOW_STOCK_THRESHOLD", 10)
	if err != nil {
		return nil, err
	}

	switch cfg.DBDriver {
	case "postgres":
		if cfg.DatabaseURL == "" {
			cfg.DatabaseURL = fmt.Sprintf(
				"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
				os.Getenv("DB_HOST"),
				os.Getenv("DB_USER"),
				os.Getenv("DB_PASSWORD"),
				os.Getenv("DB_NAME"),
				getEnv("DB_PORT", "5432"),
			)
		}
	case "sqlite":
		if cfg.DatabaseURL == "" {
			cfg.DatabaseURL = "inventory.db"
		}
	default:
		return nil, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", cfg.DBDriver)
	}

	return cfg, nil
}

// UsesDefaultSecret reports whether JWT_SECRET was left unset.
func (c *Config) UsesDefaultSecret() bool {
	return c.JWTSecret == defaultJWTSecret
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
