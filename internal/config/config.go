// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Identity provider key set endpoint
	JWKSURL string `env:"JWKS_URL,required"`
	// Lifetime of the cached signing key set
	KeyCacheTTL time.Duration `env:"KEY_CACHE_TTL" envDefault:"10m"`

	// Record store (DynamoDB)
	AWSRegion             string `env:"AWS_REGION" envDefault:"us-east-1"`
	RecipesTable          string `env:"RECIPES_TABLE,required"`
	RecipesCreatedAtIndex string `env:"RECIPES_CREATED_AT_INDEX,required"`
	// Overrides for local development (dynamodb-local / MinIO)
	DynamoDBEndpoint   string `env:"DYNAMODB_ENDPOINT" envDefault:""`
	S3Endpoint         string `env:"S3_ENDPOINT" envDefault:""`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" envDefault:""`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" envDefault:""`

	// Object store (S3)
	AttachmentBucket    string        `env:"ATTACHMENT_S3_BUCKET,required"`
	SignedURLExpiration time.Duration `env:"SIGNED_URL_EXPIRATION" envDefault:"5m"`

	// Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting
	RateLimitAPIEnabled   bool `env:"RATE_LIMIT_API_ENABLED" envDefault:"true"`
	RateLimitAPIPerMinute int  `env:"RATE_LIMIT_API_PER_MINUTE" envDefault:"300"`
	RateLimitAPIBurst     int  `env:"RATE_LIMIT_API_BURST" envDefault:"30"`
	RateLimitIPEnabled    bool `env:"RATE_LIMIT_IP_ENABLED" envDefault:"true"`
	RateLimitIPRPS        int  `env:"RATE_LIMIT_IP_RPS" envDefault:"20"`
	RateLimitIPBurst      int  `env:"RATE_LIMIT_IP_BURST" envDefault:"10"`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
