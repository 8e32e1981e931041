package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins string

	DatabaseURL string
	RedisURL    string

	MeiliSearchHost string
	MeiliMasterKey  string

	JWTSecret     string
	JWTTTLMinutes int

	// SweepInterval drives the periodic suspension-expiry and due-reminder
	// sweeps.
	SweepInterval time.Duration

	// EnableUnvote exposes vote retraction to neutral. Off by default: the
	// product historically only allowed switching direction.
	EnableUnvote bool

	// StrictTicketFlow rejects backward ticket moves (completed can never be
	// reopened, processing may only go back to unchosen). Off by default,
	// matching the permissive behavior admins rely on.
	StrictTicketFlow bool
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		MeiliSearchHost: getEnv("MEILISEARCH_HOST", "http://localhost:7700"),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),

		JWTSecret: getEnv("JWT_SECRET", "change-me"),

		EnableUnvote:     getEnvBool("ENABLE_UNVOTE", false),
		StrictTicketFlow: getEnvBool("STRICT_TICKET_FLOW", false),
	}

	ttl := 60
	if ttlStr := os.Getenv("JWT_TTL_MINUTES"); ttlStr != "" {
		parsed, err := strconv.Atoi(ttlStr)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_TTL_MINUTES: %w", err)
		}
		ttl = parsed
	}
	cfg.JWTTTLMinutes = ttl

	interval, err := time.ParseDuration(getEnv("SWEEP_INTERVAL", "60s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SWEEP_INTERVAL: %w", err)
	}
	cfg.SweepInterval = interval

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
