// Package config loads runtime configuration from the environment.
//
// An optional .env file is read first; variables already set in the
// environment take precedence. Every value has a default suitable for local
// development.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	Database     DatabaseConfig
	Log          LogConfig
	JWT          JWTConfig
	Collaborator CollaboratorConfig
	Delivery     DeliveryConfig
}

// DatabaseConfig holds store configuration.
type DatabaseConfig struct {
	Path string
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string
	Environment string
}

// JWTConfig holds token configuration for the authenticator.
type JWTConfig struct {
	SigningKey     string
	ExpirationTime time.Duration
}

// CollaboratorConfig holds settings for external collaborators.
type CollaboratorConfig struct {
	Timeout       time.Duration
	ClassifierURL string
	StorageDir    string
	VerifierIDs   []string
}

// DeliveryConfig holds notification dispatcher settings.
type DeliveryConfig struct {
	MaxAttempts int
	Backoff     time.Duration
	Rate        float64
	Workers     int
}

// Load loads the configuration. Missing files in envFiles are ignored;
// with no files, ".env" in the working directory is tried.
func Load(envFiles ...string) *Config {
	_ = godotenv.Load(envFiles...)

	return &Config{
		Database: DatabaseConfig{
			Path: getEnv("SAFELINE_DB_PATH", "safeline.db"),
		},
		Log: LogConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Environment: getEnv("APP_ENV", "development"),
		},
		JWT: JWTConfig{
			SigningKey:     getEnv("JWT_SIGNING_KEY", "safeline-dev-signing-key"),
			ExpirationTime: time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 24)) * time.Hour,
		},
		Collaborator: CollaboratorConfig{
			Timeout:       getEnvAsDuration("COLLABORATOR_TIMEOUT", 5*time.Second),
			ClassifierURL: getEnv("CLASSIFIER_URL", "http://localhost:8090/classify"),
			StorageDir:    getEnv("STORAGE_DIR", "evidence"),
			VerifierIDs:   getEnvAsList("VERIFIER_IDS"),
		},
		Delivery: DeliveryConfig{
			MaxAttempts: getEnvAsInt("DELIVERY_MAX_ATTEMPTS", 3),
			Backoff:     getEnvAsDuration("DELIVERY_BACKOFF", 500*time.Millisecond),
			Rate:        getEnvAsFloat("DELIVERY_RATE", 50),
			Workers:     getEnvAsInt("DELIVERY_WORKERS", 4),
		},
	}
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Log.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping empty entries.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
