package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Broker   BrokerConfig
	Snapshot SnapshotConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string

	// FernetKey encrypts broker API secrets at rest. Required when broker
	// credentials are stored.
	FernetKey string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// BrokerConfig holds Kite Connect configuration. APIKey is the fallback used
// when an account has no stored credentials.
type BrokerConfig struct {
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
}

// SnapshotConfig holds the daily snapshot schedule.
type SnapshotConfig struct {
	// Schedule is a cron expression; empty disables the scheduler.
	Schedule string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path:      getEnv("DB_PATH", "./data/portfolio_tracker.db"),
			FernetKey: getEnv("FERNET_KEY", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost")),
		},
		Broker: BrokerConfig{
			BaseURL:        getEnv("KITE_BASE_URL", ""),
			APIKey:         getEnv("KITE_API_KEY", ""),
			TimeoutSeconds: getEnvInt("KITE_TIMEOUT_SECONDS", 10),
		},
		Snapshot: SnapshotConfig{
			// Weekdays at 16:00, after the exchange closes.
			Schedule: getEnv("SNAPSHOT_SCHEDULE", "0 16 * * 1-5"),
		},
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
