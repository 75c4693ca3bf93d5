// Package config provides application configuration loaded from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Ledger   LedgerConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Otel     OtelConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string
	ReadTimeout     int // seconds
	WriteTimeout    int // seconds
	IdleTimeout     int // seconds
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds connection settings for the backing store.
// Driver is one of postgres, mysql, sqlite or memory.
type DatabaseConfig struct {
	Driver        string
	Host          string
	Port          int
	User          string
	Password      string
	DBName        string
	SSLMode       string
	Path          string // sqlite file path
	Debug         bool
	SQLMigrations bool
	Seed          bool
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Env           string
	LogLevel      string
	SessionSecret string
	Migrations    bool
}

// LedgerConfig holds engine tunables.
type LedgerConfig struct {
	LowStockThreshold int
	TenantCacheTTL    time.Duration
}

// RedisConfig enables cache invalidation signals when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// KafkaConfig enables the Kafka notification emitter when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// OtelConfig enables OTLP trace and log export when Endpoint is set.
type OtelConfig struct {
	Endpoint    string
	Insecure    bool
	ServiceName string
}

// Dev reports whether the app runs in development mode.
func (a AppConfig) Dev() bool { return a.Env == "development" }

// DSN returns the driver-specific connection string.
func (d DatabaseConfig) DSN() string {
	switch d.Driver {
	case "mysql":
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			d.User, d.Password, d.Host, d.Port, d.DBName,
		)
	case "sqlite":
		return d.Path
	default:
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
		)
	}
}

// URL returns the PostgreSQL connection string in URL format.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout:    getEnvInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:     getEnvInt("SERVER_IDLE_TIMEOUT", 60),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Driver:        strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			Host:          getEnv("DB_HOST", "localhost"),
			Port:          getEnvInt("DB_PORT", 5432),
			User:          getEnv("DB_USER", "ledger"),
			Password:      getEnv("DB_PASSWORD", "ledger123"),
			DBName:        getEnv("DB_NAME", "ledger"),
			SSLMode:       getEnv("DB_SSLMODE", "disable"),
			Path:          getEnv("DB_PATH", "ledger.db"),
			Debug:         getEnvBool("DB_DEBUG", false),
			SQLMigrations: getEnvBool("DB_SQL_MIGRATIONS", false),
			Seed:          getEnvBool("DB_SEED", false),
		},
		App: AppConfig{
			Env:           getEnv("APP_ENV", "development"),
			LogLevel:      getEnv("LOG_LEVEL", "info"),
			SessionSecret: getEnv("SESSION_SECRET", "devsessionsecret"),
			Migrations:    getEnvBool("MIGRATIONS", true),
		},
		Ledger: LedgerConfig{
			LowStockThreshold: getEnvInt("LOW_STOCK_THRESHOLD", 5),
			TenantCacheTTL:    getEnvDuration("TENANT_CACHE_TTL", time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			Channel:  getEnv("REDIS_INVALIDATION_CHANNEL", "ledger.invalidate"),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvList("KAFKA_BROKERS"),
			Topic:   getEnv("KAFKA_TOPIC", "ledger.notifications"),
		},
		Otel: OtelConfig{
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure:    getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "stock-ledger"),
		},
	}
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default.
// Accepts "1", "true", "yes" as true; everything else is false.
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}

// getEnvDuration accepts Go duration strings ("30s") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if i, err := strconv.Atoi(value); err == nil {
		return time.Duration(i) * time.Second
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
