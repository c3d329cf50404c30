package config

import (
	"os"
	"strconv"
	"time"

	"bioprep/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Service  ServiceConfig
	Server   ServerConfig
	Sampling SamplingConfig
	Folders  FolderConfig
}

// ServiceConfig holds the remote analysis service settings
type ServiceConfig struct {
	BaseURL string `validate:"required"`
	Timeout time.Duration
	// FigureSaveDelay is the fixed pause between sequential plot downloads
	FigureSaveDelay time.Duration
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string `validate:"required"`
	GinMode string
}

// SamplingConfig holds stimulus-log sampling limits
type SamplingConfig struct {
	// MaxSampleRows caps the rows read per stimulus-log file
	MaxSampleRows int
	// MaxConcurrentReads bounds the batch sampling fan-out
	MaxConcurrentReads int
}

// FolderConfig holds the data-folder naming conventions. The defaults match
// the recording pipeline; deployments with different layouts override them.
type FolderConfig struct {
	BiometricFolder   string
	RespirationFolder string
	StimulusLogFolder string
	EventMarkerSuffix string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Service: ServiceConfig{
			BaseURL:         getEnvOrDefault("ANALYSIS_SERVICE_URL", "http://localhost:5000"),
			Timeout:         getEnvDurationOrDefault("ANALYSIS_SERVICE_TIMEOUT", 120*time.Second),
			FigureSaveDelay: getEnvDurationOrDefault("FIGURE_SAVE_DELAY", 500*time.Millisecond),
		},
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "debug"),
		},
		Sampling: SamplingConfig{
			MaxSampleRows:      getEnvIntOrDefault("MAX_SAMPLE_ROWS", 10),
			MaxConcurrentReads: getEnvIntOrDefault("MAX_CONCURRENT_READS", 4),
		},
		Folders: FolderConfig{
			BiometricFolder:   getEnvOrDefault("BIOMETRIC_FOLDER", "emotibit_data"),
			RespirationFolder: getEnvOrDefault("RESPIRATION_FOLDER", "respiration_data"),
			StimulusLogFolder: getEnvOrDefault("STIMULUS_LOG_FOLDER", "psychopy"),
			EventMarkerSuffix: getEnvOrDefault("EVENT_MARKER_SUFFIX", "_event_markers.csv"),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.Service.BaseURL == "" {
		return errors.ConfigInvalid("analysis service URL is required")
	}
	if config.Sampling.MaxSampleRows < 1 {
		return errors.ConfigInvalid("MAX_SAMPLE_ROWS must be at least 1")
	}
	if config.Sampling.MaxConcurrentReads < 1 {
		return errors.ConfigInvalid("MAX_CONCURRENT_READS must be at least 1")
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

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
