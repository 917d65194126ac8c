package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends accepted by CONVERSATION_STORE.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreDynamoDB = "dynamodb"
)

// Config holds application configuration
type Config struct {
	Port      string
	Env       string
	LogLevel  string
	LogFormat string

	// Booking assistant
	ShopName                string
	Timezone                string
	ConversationStore       string
	ConversationTTL         time.Duration
	ConversationIdleTimeout time.Duration
	ConversationsTable      string
	LockTTL                 time.Duration

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	AWSRegion             string
	AWSAccessKeyID        string
	AWSSecretAccessKey    string
	AWSEndpointOverride   string
	BookingEventsQueueURL string

	TwilioAuthToken  string
	AdminJWTSecret   string
	WebhookRateLimit float64
	WebhookRateBurst int

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "8080"),
		Env:       getEnv("ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		ShopName:                getEnv("SHOP_NAME", "Barber Pro"),
		Timezone:                getEnv("TIMEZONE", "UTC"),
		ConversationStore:       strings.ToLower(strings.TrimSpace(getEnv("CONVERSATION_STORE", StoreMemory))),
		ConversationTTL:         getEnvAsDuration("CONVERSATION_TTL", 0),
		ConversationIdleTimeout: getEnvAsDuration("CONVERSATION_IDLE_TIMEOUT", 0),
		ConversationsTable:      getEnv("CONVERSATIONS_TABLE", "conversations"),
		LockTTL:                 getEnvAsDuration("LOCK_TTL", 10*time.Second),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		AWSRegion:             getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:        getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:    getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride:   getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		BookingEventsQueueURL: getEnv("BOOKING_EVENTS_QUEUE_URL", ""),

		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		AdminJWTSecret:   getEnv("ADMIN_JWT_SECRET", ""),
		WebhookRateLimit: getEnvAsFloat("WEBHOOK_RATE_LIMIT", 0),
		WebhookRateBurst: getEnvAsInt("WEBHOOK_RATE_BURST", 20),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
	}
}

// IsProduction reports whether the service runs with ENV=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "production")
}

// Location resolves the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(strings.TrimSpace(c.Timezone))
	if err != nil || c.Timezone == "" {
		return time.UTC
	}
	return loc
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blank entries.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
