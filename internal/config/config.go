package config

import (
	"fmt"
	"os"
	"strings"
)

// Default base URL for the portfolio data provider
const DefaultTrackerURL = "https://data.solanatracker.io"

// Config holds all configuration for Hoard
type Config struct {
	// Portfolio data provider configuration
	TrackerURL    string
	TrackerAPIKey string

	// Notification bus configuration (optional; events are logged when unset)
	AMQPURL string

	// Logging configuration
	LogLevel string

	// Metrics configuration
	MetricsPort string
}

// Load reads configuration from environment variables and validates it
func Load() (Config, error) {
	cfg := Config{
		TrackerURL:    getEnv("TRACKER_API_URL", DefaultTrackerURL),
		TrackerAPIKey: getEnv("TRACKER_API_KEY", ""),
		AMQPURL:       getEnv("AMQP_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		MetricsPort:   getEnv("METRICS_PORT", "9100"),
	}

	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks that the configuration is valid
func (c Config) validate() error {
	if c.TrackerURL == "" {
		return fmt.Errorf("TRACKER_API_URL is required")
	}

	if c.TrackerAPIKey == "" {
		return fmt.Errorf("TRACKER_API_KEY is required")
	}

	validLogLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
		"panic": true,
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid LOG_LEVEL: %s (must be one of: trace, debug, info, warn, error, fatal, panic)", c.LogLevel)
	}

	return nil
}

// getEnv retrieves an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
