// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketProjectImages() string
	IsMinIOEnabled() bool
}

// AIConfig provides settings for the vision/generation provider.
type AIConfig interface {
	GetAIProvider() string
	GetGeminiAPIKey() string
	GetOpenRouterAPIKey() string
	GetAIGenerationTimeout() time.Duration
}

// SchedulerConfig provides settings for the asynq-based janitor.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetStaleProjectAge() time.Duration
}

// UploadConfig provides settings for image upload validation.
type UploadConfig interface {
	GetMaxUploadSize() int64
	GetAllowedImageFormats() []string
}

// NotificationConfig provides settings for internal lead notifications.
type NotificationConfig interface {
	IsNotifyEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetNotifyFromName() string
	GetNotifyFromAddress() string
	GetNotifyToAddress() string
}

// RateLimitConfig provides settings for the per-IP rate limiter.
type RateLimitConfig interface {
	GetRateLimitRPS() float64
	GetRateLimitBurst() int
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                 string
	HTTPAddr            string
	DatabaseURL         string
	CORSAllowAll        bool
	CORSOrigins         []string
	MinIOEndpoint       string
	MinIOAccessKey      string
	MinIOSecretKey      string
	MinIOUseSSL         bool
	MinIOMaxFileSize    int64
	BucketProjectImages string
	AIProvider          string
	GeminiAPIKey        string
	OpenRouterAPIKey    string
	AIGenerationTimeout time.Duration
	RedisURL            string
	RedisTLSInsecure    bool
	AsynqQueueName      string
	AsynqConcurrency    int
	StaleProjectAge     time.Duration
	MaxUploadSize       int64
	AllowedImageFormats []string
	NotifyEnabled       bool
	SMTPHost            string
	SMTPPort            int
	SMTPUsername        string
	SMTPPassword        string
	NotifyFromName      string
	NotifyFromAddress   string
	NotifyToAddress     string
	RateLimitRPS        float64
	RateLimitBurst      int
}

// Load reads configuration from the environment, with .env support for
// local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5201"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	smtpHost := getEnv("SMTP_HOST", "")
	notifyEnabled := strings.EqualFold(getEnv("LEAD_NOTIFY_ENABLED", "true"), "true")

	cfg := &Config{
		Env:                 getEnv("APP_ENV", "development"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":4001"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		CORSAllowAll:        corsAllowAll,
		CORSOrigins:         corsOrigins,
		MinIOEndpoint:       getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:      getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:      getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:         strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:    mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "10485760")),
		BucketProjectImages: getEnv("MINIO_BUCKET_PROJECT_IMAGES", "project-images"),
		AIProvider:          strings.ToLower(getEnv("AI_PROVIDER", "gemini")),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		OpenRouterAPIKey:    getEnv("OPENROUTER_API_KEY", ""),
		AIGenerationTimeout: mustDuration(getEnv("AI_GENERATION_TIMEOUT", "60s")),
		RedisURL:            getEnv("REDIS_URL", ""),
		RedisTLSInsecure:    strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:      getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:    mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		StaleProjectAge:     mustDuration(getEnv("STALE_PROJECT_AGE", "1h")),
		MaxUploadSize:       mustInt64(getEnv("MAX_UPLOAD_SIZE", "10485760")),
		AllowedImageFormats: splitCSV(getEnv("ALLOWED_IMAGE_FORMATS", "image/jpeg,image/jpg,image/png")),
		NotifyEnabled:       notifyEnabled && smtpHost != "",
		SMTPHost:            smtpHost,
		SMTPPort:            mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:        getEnv("SMTP_USERNAME", ""),
		SMTPPassword:        getEnv("SMTP_PASSWORD", ""),
		NotifyFromName:      getEnv("NOTIFY_FROM_NAME", "GreenViz"),
		NotifyFromAddress:   getEnv("NOTIFY_FROM_ADDRESS", ""),
		NotifyToAddress:     getEnv("NOTIFY_TO_ADDRESS", ""),
		RateLimitRPS:        mustFloat(getEnv("RATE_LIMIT_RPS", "2")),
		RateLimitBurst:      mustInt(getEnv("RATE_LIMIT_BURST", "10")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	switch cfg.AIProvider {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required when AI_PROVIDER is gemini")
		}
	case "openrouter":
		if cfg.OpenRouterAPIKey == "" {
			return nil, fmt.Errorf("OPENROUTER_API_KEY is required when AI_PROVIDER is openrouter")
		}
	default:
		return nil, fmt.Errorf("unsupported AI_PROVIDER %q", cfg.AIProvider)
	}
	if cfg.NotifyEnabled && cfg.NotifyToAddress == "" {
		return nil, fmt.Errorf("NOTIFY_TO_ADDRESS is required when lead notifications are enabled")
	}

	return cfg, nil
}

// =============================================================================
// Interface implementations
// =============================================================================

func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

func (c *Config) GetMinIOEndpoint() string           { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string          { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string          { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool               { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64         { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketProjectImages() string { return c.BucketProjectImages }
func (c *Config) IsMinIOEnabled() bool {
	return c.MinIOEndpoint != "" && c.MinIOAccessKey != "" && c.MinIOSecretKey != ""
}

func (c *Config) GetAIProvider() string                { return c.AIProvider }
func (c *Config) GetGeminiAPIKey() string              { return c.GeminiAPIKey }
func (c *Config) GetOpenRouterAPIKey() string          { return c.OpenRouterAPIKey }
func (c *Config) GetAIGenerationTimeout() time.Duration { return c.AIGenerationTimeout }

func (c *Config) GetRedisURL() string                { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool          { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string          { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int           { return c.AsynqConcurrency }
func (c *Config) GetStaleProjectAge() time.Duration  { return c.StaleProjectAge }

func (c *Config) GetMaxUploadSize() int64          { return c.MaxUploadSize }
func (c *Config) GetAllowedImageFormats() []string { return c.AllowedImageFormats }

func (c *Config) IsNotifyEnabled() bool         { return c.NotifyEnabled }
func (c *Config) GetSMTPHost() string           { return c.SMTPHost }
func (c *Config) GetSMTPPort() int              { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string       { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string       { return c.SMTPPassword }
func (c *Config) GetNotifyFromName() string     { return c.NotifyFromName }
func (c *Config) GetNotifyFromAddress() string  { return c.NotifyFromAddress }
func (c *Config) GetNotifyToAddress() string    { return c.NotifyToAddress }

func (c *Config) GetRateLimitRPS() float64 { return c.RateLimitRPS }
func (c *Config) GetRateLimitBurst() int   { return c.RateLimitBurst }

// =============================================================================
// Helpers
// =============================================================================

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}

func mustInt64(value string) int64 {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func mustFloat(value string) float64 {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return f
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
