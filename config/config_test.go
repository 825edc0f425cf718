package config_test

import (
	"os"
	"testing"

	"github.com/venuehost/orchestrator/config"
)

func TestLoadConfigFromEnv(t *testing.T) {
	os.Setenv("REDIS_URL", "redis://localhost:6379")
	os.Setenv("ENV", "test")
	os.Setenv("TENANT_HEADER", "X-Tenant")
	defer func() {
		os.Unsetenv("REDIS_URL")
		os.Unsetenv("ENV")
		os.Unsetenv("TENANT_HEADER")
	}()

	cfg := config.Load()
	if cfg.RedisURL != "redis://localhost:6379" {
		t.Fatalf("expected REDIS_URL to be loaded, got %s", cfg.RedisURL)
	}
	if cfg.Env != "test" {
		t.Fatalf("expected ENV=test, got %s", cfg.Env)
	}
	if cfg.TenantHeader != "X-Tenant" {
		t.Fatalf("expected TENANT_HEADER=X-Tenant, got %s", cfg.TenantHeader)
	}
	if cfg.IsProduction() {
		t.Fatalf("expected test env to not be production")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	os.Unsetenv("REDIS_URL")
	os.Unsetenv("ENV")
	cfg := config.Load()
	if cfg.RedisURL == "" {
		t.Fatalf("expected a default RedisURL")
	}
	if cfg.RateLimitRPM <= 0 {
		t.Fatalf("expected a positive default rate limit")
	}
	if cfg.LLMCallTimeout <= 0 {
		t.Fatalf("expected a positive default LLM timeout")
	}
}
