package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// UseMemoryQueue swaps the Redis-backed call queue for an in-process one
	// and runs the call worker inside the API process. Dev/test only.
	UseMemoryQueue bool

	// CallConcurrency is the number of outbound calls in flight at once.
	// Fixed at 1 for the MVP so calls never overlap.
	CallConcurrency  int
	QueueMaxAttempts int
	QueueBackoffBase time.Duration

	CallStateTTL          time.Duration
	CallTimeout           time.Duration
	SimulatedCallDuration time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		UseMemoryQueue: getEnvAsBool("USE_MEMORY_QUEUE", false),

		CallConcurrency:  getEnvAsInt("CALL_CONCURRENCY", 1),
		QueueMaxAttempts: getEnvAsInt("QUEUE_MAX_ATTEMPTS", 3),
		QueueBackoffBase: getEnvAsDuration("QUEUE_BACKOFF_BASE", 5*time.Second),

		CallStateTTL:          getEnvAsDuration("CALL_STATE_TTL", 30*time.Minute),
		CallTimeout:           getEnvAsDuration("CALL_TIMEOUT", 2*time.Minute),
		SimulatedCallDuration: getEnvAsDuration("SIMULATED_CALL_DURATION", 5*time.Second),
	}
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

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
