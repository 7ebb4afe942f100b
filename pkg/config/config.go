package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	AppEnv      string
	JWTSecret   string
	LogLevel    string

	// Link minting
	LinkScheme        string
	ShortCodeLength   int
	ShortCodeAttempts int
	ProvisionWorkers  int

	// Messaging transport; an empty API key logs messages instead of sending them
	MessagingEndpoint string
	MessagingAPIKey   string
	MessagingTimeout  time.Duration
}

func Load() *Config {
	_ = godotenv.Load() // Ignore error if .env not found (e.g. prod)

	return &Config{
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       getEnv("DATABASE_URL", "file:db.sqlite"),
		AppEnv:            getEnv("APP_ENV", "local"),
		JWTSecret:         getEnv("JWT_SECRET", "secret"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LinkScheme:        getEnv("LINK_SCHEME", "https"),
		ShortCodeLength:   getEnvInt("SHORT_CODE_LENGTH", 8),
		ShortCodeAttempts: getEnvInt("SHORT_CODE_ATTEMPTS", 10),
		ProvisionWorkers:  getEnvInt("PROVISION_WORKERS", 8),
		MessagingEndpoint: getEnv("MESSAGING_ENDPOINT", ""),
		MessagingAPIKey:   getEnv("MESSAGING_API_KEY", ""),
		MessagingTimeout:  getEnvDuration("MESSAGING_TIMEOUT", 10*time.Second),
	}
}

// IsProduction reports whether APP_ENV is "production".
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// NewLogger builds the process logger: JSON in production, text otherwise.
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(c.LogLevel)}
	if c.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
