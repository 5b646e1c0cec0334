package config

import (
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	apperrors "github.com/brightpath/attempt-service/internal/errors"
)

type Config struct {
	Port        string `validate:"required,numeric"`
	Environment string `validate:"required,oneof=development staging production"`

	// Grading backend collaborator.
	BackendURL   string `validate:"required,url"`
	BackendToken string

	// Snapshot cache for refresh-resume. DatabaseURL may be a key-value DSN,
	// so only the redis URL is shape-checked.
	RedisURL    string `validate:"omitempty,url"`
	DatabaseURL string
	SnapshotTTL time.Duration `validate:"gt=0"`

	// Countdown warning threshold, seconds.
	TimeWarning int `validate:"gte=0"`

	Events EventConfig

	Casdoor CasdoorConfig
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		if mapped := apperrors.ToValidationErrors(err); len(mapped) > 0 {
			return mapped
		}
		return err
	}
	return nil
}

type CasdoorConfig struct {
	Endpoint     string
	ClientID     string
	ClientSecret string
	Certificate  string
	Organization string
	Application  string
}

func (c CasdoorConfig) Enabled() bool {
	return c.Endpoint != "" && c.ClientID != ""
}

func LoadConfig() (*Config, error) {
	// A missing .env file is fine in production; the environment is already
	// populated there.
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		Environment:  getEnv("ENVIRONMENT", "development"),
		BackendURL:   getEnv("BACKEND_URL", "http://localhost:9090"),
		BackendToken: getEnv("BACKEND_TOKEN", ""),
		RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		SnapshotTTL:  getDurationEnv("SNAPSHOT_TTL", 24*time.Hour),
		TimeWarning:  getIntEnv("TIME_WARNING_SECONDS", 300),
		Events:       loadEventConfig(),
		Casdoor: CasdoorConfig{
			Endpoint:     getEnv("CASDOOR_ENDPOINT", ""),
			ClientID:     getEnv("CASDOOR_CLIENT_ID", ""),
			ClientSecret: getEnv("CASDOOR_CLIENT_SECRET", ""),
			Certificate:  getEnv("CASDOOR_CERTIFICATE", ""),
			Organization: getEnv("CASDOOR_ORGANIZATION", ""),
			Application:  getEnv("CASDOOR_APPLICATION", ""),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
