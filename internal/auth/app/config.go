package app

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/skyvault-io/skyvault/internal/auth/service"
)

type Config struct {
	Issuer    string // Issuer claim for tokens (default: skyvault-auth)
	Audience  string // Audience claim for tokens (default: skyvault-api)
	SecretKey string // Required: HS256 signing secret; startup fails when empty

	AccessTokenTTL  time.Duration          // Access token lifetime (default: 15m)
	RefreshTokenTTL time.Duration          // Refresh token lifetime (default: 168h / 7 days)
	RoleClaimsMode  service.RoleClaimsMode // first (default) or union

	DatabaseFile        string        // Path to SQLite database file (default: ./auth.db)
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		Issuer:    getEnvOrDefault("AUTH_ISSUER", "skyvault-auth"),
		Audience:  getEnvOrDefault("AUTH_AUDIENCE", "skyvault-api"),
		SecretKey: os.Getenv("AUTH_SECRET_KEY"),

		AccessTokenTTL:  getEnvDurationOrDefault("AUTH_ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: getEnvDurationOrDefault("AUTH_REFRESH_TOKEN_TTL", 7*24*time.Hour),
		RoleClaimsMode: service.RoleClaimsMode(
			getEnvOrDefault("AUTH_ROLE_CLAIMS_MODE", string(service.RoleClaimsFirst)),
		),

		DatabaseFile:        getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

// Validate rejects configurations the service must not start with.
func (c Config) Validate() error {
	if c.SecretKey == "" {
		return errors.New("AUTH_SECRET_KEY must be set")
	}
	if c.AccessTokenTTL <= 0 {
		return errors.New("AUTH_ACCESS_TOKEN_TTL must be positive")
	}
	if c.RefreshTokenTTL <= 0 {
		return errors.New("AUTH_REFRESH_TOKEN_TTL must be positive")
	}
	switch c.RoleClaimsMode {
	case service.RoleClaimsFirst, service.RoleClaimsUnion:
	default:
		return errors.New("AUTH_ROLE_CLAIMS_MODE must be \"first\" or \"union\"")
	}
	return nil
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
