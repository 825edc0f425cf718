/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L3
Logic:       Process-level configuration for the booking orchestrator:
             server address, graceful shutdown, Redis URL for the TTL
             caches, LLM call timeout/retry, and rate limiting. Per-
             tenant behavioral config (catalog, prompts, deposit
             policy, HIL toggles) is NOT here — it lives in the
             tenant store and is loaded per request.
Root Cause:  Orchestrator needs process config independent of any
             one tenant's settings.
Context:     Mirrors the gateway's config.Load() shape.
Suitability: L3 — straightforward env-var config loading.
──────────────────────────────────────────────────────────────
*/

package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process-wide configuration values.
type Config struct {
	// Server
	Addr            string
	Env             string
	GracefulTimeout time.Duration

	// Redis (TTL caches: catalog, prompt overrides, snapshot store)
	RedisURL string

	// Tenant header
	TenantHeader string

	// Rate limiting (per tenant_id)
	RateLimitEnabled bool
	RateLimitRPM     int
	RateLimitBurst   int

	// LLM gateway
	LLMCallTimeout time.Duration
	LLMCallRetries int

	// Body limits
	MaxBodyBytes int64

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables and an optional .env file.
func Load() *Config {
	_ = godotenv.Load()

	gracefulSec := getEnvInt("ORCH_GRACEFUL_TIMEOUT_SEC", 15)
	llmTimeoutSec := getEnvInt("ORCH_LLM_TIMEOUT_SEC", 30)

	return &Config{
		Addr:             getEnv("ORCH_ADDR", ":8080"),
		Env:              getEnv("ENV", "development"),
		GracefulTimeout:  time.Duration(gracefulSec) * time.Second,
		RedisURL:         getEnv("REDIS_URL", "redis://redis:6379"),
		TenantHeader:     getEnv("TENANT_HEADER", "X-Team-Id"),
		RateLimitEnabled: getEnvBool("RATE_LIMIT_ENABLED", true),
		RateLimitRPM:     getEnvInt("RATE_LIMIT_RPM", 120),
		RateLimitBurst:   getEnvInt("RATE_LIMIT_BURST", 20),
		LLMCallTimeout:   time.Duration(llmTimeoutSec) * time.Second,
		LLMCallRetries:   getEnvInt("ORCH_LLM_RETRIES", 1),
		MaxBodyBytes:     int64(getEnvInt("ORCH_MAX_BODY_BYTES", 1*1024*1024)),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
