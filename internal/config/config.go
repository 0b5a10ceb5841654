package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Port        string `validate:"required"`
	Environment string `validate:"oneof=development staging production test"`

	DatabaseURL string `validate:"required"`

	// RedisURL is optional; without it the geo index, dispatch guard and
	// prompt dedupe run in process.
	RedisURL string

	JWTSecret string `validate:"required,min=16"`

	CORSOrigins string

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=json console"`

	StoreTimeout          time.Duration `validate:"min=1ms"`
	GeoTimeout            time.Duration `validate:"min=1ms"`
	DispatchBatchSize     int           `validate:"min=1,max=1000"`
	CampaignSweepInterval time.Duration `validate:"min=1m"`

	ResendAPIKey string
	FromEmail    string `validate:"omitempty,email"`
	Locale       string `validate:"required"`
}

var validate = validator.New()

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),

		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:5173"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		StoreTimeout:          getDurationEnv("STORE_TIMEOUT", 3*time.Second),
		GeoTimeout:            getDurationEnv("GEO_TIMEOUT", 2*time.Second),
		DispatchBatchSize:     getIntEnv("DISPATCH_BATCH_SIZE", 50),
		CampaignSweepInterval: getDurationEnv("CAMPAIGN_SWEEP_INTERVAL", time.Hour),

		ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		FromEmail:    getEnv("FROM_EMAIL", "alerts@bloodlink.local"),
		Locale:       getEnv("LOCALE", "en"),
	}
}

// Validate checks the loaded configuration before any connection is opened.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
