package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/wastedesk/admingate/internal/gateway/domain"
	"github.com/wastedesk/admingate/pkg/httpx"
)

type Config struct {
	BackendBaseURL string // Required: base URL of the concierge backend API
	SealKey        string // Optional: base64 32-byte key sealing stored credentials (ephemeral if unset)

	DatabaseFile         string        // Optional: path to SQLite database file (default: ./admingate.db)
	SessionTTL           time.Duration // Optional: lifetime of a stored browser session (default: 24h)
	ManagerTTL           time.Duration // Optional: how long a resolved session stays cached in memory (default: 5m)
	AllowedRoles         []string      // Optional: space-delimited dashboard role allow-list
	SecureCookies        bool          // Optional: mark session cookies Secure (default: true outside dev)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired session sweep interval (default: 1h)
}

func LoadConfig() Config {
	// A local .env is a dev convenience; absence is fine.
	_ = godotenv.Load()

	cfg := Config{
		BackendBaseURL:       os.Getenv("ADMINGATE_BACKEND_URL"),
		SealKey:              os.Getenv("ADMINGATE_SEAL_KEY"),
		DatabaseFile:         getEnvOrDefault("ADMINGATE_DATABASE_FILE", "admingate.db"),
		SessionTTL:           getEnvDurationOrDefault("ADMINGATE_SESSION_TTL", 24*time.Hour),
		ManagerTTL:           getEnvDurationOrDefault("ADMINGATE_MANAGER_TTL", 5*time.Minute),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	cfg.AllowedRoles = httpx.ParseSpaceDelimitedFields(
		getEnvOrDefault("ADMINGATE_ALLOWED_ROLES", strings.Join(domain.DashboardRoles(), " ")),
	)

	cfg.SecureCookies = getEnvBoolOrDefault("ADMINGATE_SECURE_COOKIES", cfg.Env != "dev")

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
