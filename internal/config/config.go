package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// DefaultAPIURL is used when neither the environment nor payhub.json names a server
const DefaultAPIURL = "http://localhost:8081/api/v1/auth"

// Config holds all environment-driven configuration for the CLI
type Config struct {
	// API Configuration
	API APIConfig

	// Credentials supplied non-interactively (CI/CD)
	Credentials CredentialsConfig

	// Logging Configuration
	Logging LoggingConfig
}

// APIConfig holds the auth API settings
type APIConfig struct {
	URL     string        // Auth API base URL (.../api/v1/auth)
	Timeout time.Duration // http.Client timeout, 0 disables it
}

// CredentialsConfig holds credentials read from the environment
type CredentialsConfig struct {
	Email    string
	Password string
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	apiURL := GetEnv("PAYHUB_API_URL", "")

	timeout := time.Duration(0)
	if raw := os.Getenv("PAYHUB_HTTP_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid PAYHUB_HTTP_TIMEOUT %q: %w", raw, err)
		}
		timeout = d
	}

	// Logs go to stderr; warn keeps interactive output quiet by default
	logLevel := GetEnv("PAYHUB_LOG_LEVEL", "warn")
	logFormat := GetEnv("PAYHUB_LOG_FORMAT", "console")

	return &Config{
		API: APIConfig{
			URL:     apiURL,
			Timeout: timeout,
		},
		Credentials: CredentialsConfig{
			Email:    os.Getenv("PAYHUB_EMAIL"),
			Password: os.Getenv("PAYHUB_PASSWORD"),
		},
		Logging: LoggingConfig{
			Level:  logLevel,
			Format: logFormat,
		},
	}, nil
}

// GetEnv returns the value of the environment variable or fallback when unset
func GetEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
