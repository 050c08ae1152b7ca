package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"confusionflow/internal/errors"
	"confusionflow/internal/viewstate"
)

// Data sources
const (
	SourceLogDir = "logdir"
	SourceAPI    = "api"
)

// MaxRunCountLimit bounds the number of runs shown side by side
const MaxRunCountLimit = 10

// Config represents the complete application configuration
type Config struct {
	Server ServerConfig
	Data   DataConfig
	View   ViewConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port      string
	SSEBuffer int
}

// DataConfig selects where performance logs are read from
type DataConfig struct {
	Source     string
	LogDir     string
	APIBaseURL string
	Timeout    time.Duration
}

// ViewConfig holds the defaults of the matrix view
type ViewConfig struct {
	MaxRunCount         int
	CellSize            float64
	DefaultCellRenderer viewstate.CellRenderer
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	renderer, err := viewstate.ParseCellRenderer(getEnvOrDefault("CELL_RENDERER", string(viewstate.CellRendererHeatmap)))
	if err != nil {
		return nil, errors.ConfigInvalid(fmt.Sprintf("CELL_RENDERER: %v", err))
	}

	config := &Config{
		Server: ServerConfig{
			Port:      getEnvOrDefault("PORT", "8080"),
			SSEBuffer: getEnvIntOrDefault("SSE_BUFFER", 100),
		},
		Data: DataConfig{
			Source:     getEnvOrDefault("DATA_SOURCE", SourceLogDir),
			LogDir:     getEnvOrDefault("CONFUSIONFLOW_LOGDIR", "./logs"),
			APIBaseURL: getEnvOrDefault("CONFUSIONFLOW_API", "http://localhost:8080/api"),
			Timeout:    getEnvDurationOrDefault("API_TIMEOUT", 30*time.Second),
		},
		View: ViewConfig{
			MaxRunCount:         getEnvIntOrDefault("MAX_RUN_COUNT", 4),
			CellSize:            getEnvFloatOrDefault("CELL_SIZE", 60),
			DefaultCellRenderer: renderer,
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	if config.Server.SSEBuffer < 1 {
		return errors.ConfigInvalid("SSE_BUFFER must be positive")
	}
	switch config.Data.Source {
	case SourceLogDir:
		if config.Data.LogDir == "" {
			return errors.ConfigInvalid("CONFUSIONFLOW_LOGDIR is required for the logdir source")
		}
	case SourceAPI:
		u, err := url.Parse(config.Data.APIBaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.ConfigInvalid(fmt.Sprintf("CONFUSIONFLOW_API is not a valid URL: %q", config.Data.APIBaseURL))
		}
	default:
		return errors.ConfigInvalid(fmt.Sprintf("DATA_SOURCE must be %q or %q, got %q", SourceLogDir, SourceAPI, config.Data.Source))
	}
	if config.Data.Timeout <= 0 {
		return errors.ConfigInvalid("API_TIMEOUT must be positive")
	}
	if config.View.MaxRunCount < 1 || config.View.MaxRunCount > MaxRunCountLimit {
		return errors.ConfigInvalid(fmt.Sprintf("MAX_RUN_COUNT must be between 1 and %d", MaxRunCountLimit))
	}
	if config.View.CellSize <= 0 {
		return errors.ConfigInvalid("CELL_SIZE must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
