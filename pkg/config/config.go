package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Backend selection values.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds the application configuration
type Config struct {
	Environment        string
	ServerPort         int
	Backend            string
	RedisURL           string
	LogLevel           string
	CORSAllowedOrigins []string

	JWTSecret   string
	OAuthIssuer string

	RateLimitRequests int
	RateLimitWindowS  int

	StatsIntervalSeconds int

	Database DatabaseConfig
}

// DatabaseConfig holds PostgreSQL settings, used when Backend is "postgres".
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	port, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}

	backend := getEnv("BACKEND", BackendMemory)
	switch backend {
	case BackendMemory, BackendRedis, BackendPostgres:
	default:
		return nil, fmt.Errorf("invalid BACKEND %q: want memory, redis or postgres", backend)
	}

	rateReqs, err := intEnv("RATE_LIMIT_REQUESTS", 100)
	if err != nil {
		return nil, err
	}
	rateWindow, err := intEnv("RATE_LIMIT_WINDOW_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	statsInterval, err := intEnv("STATS_INTERVAL_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	dbPort, err := intEnv("DATABASE_PORT", 5432)
	if err != nil {
		return nil, err
	}

	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		ServerPort:  port,
		Backend:     backend,
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: parseCSVEnv("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:5173",
			"http://localhost:3000",
		}),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		OAuthIssuer:          getEnv("OAUTH_ISSUER", "http://localhost:8080"),
		RateLimitRequests:    rateReqs,
		RateLimitWindowS:     rateWindow,
		StatsIntervalSeconds: statsInterval,
		Database: DatabaseConfig{
			Host:     getEnv("DATABASE_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DATABASE_USER", "tasklist"),
			Password: getEnv("DATABASE_PASSWORD", "dev"),
			Database: getEnv("DATABASE_NAME", "tasklist"),
			SSLMode:  getEnv("DATABASE_SSLMODE", "disable"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func intEnv(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseCSVEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
