/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L2
Logic:       Router tests covering health endpoints, tenant
             resolution rejection, CORS preflight, and security
             headers against the booking orchestrator's NewRouter.
Root Cause:  Sprint task T122 — full HTTP API surface.
Context:     Retargeted from the gateway's provider-registry test
             setup to the orchestrator's service.Service bundle.
Suitability: L2 model for standard test updates.
──────────────────────────────────────────────────────────────
*/

package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/venuehost/orchestrator/audit"
	"github.com/venuehost/orchestrator/catalog"
	"github.com/venuehost/orchestrator/config"
	"github.com/venuehost/orchestrator/llm"
	"github.com/venuehost/orchestrator/secrets"
	"github.com/venuehost/orchestrator/service"
	"github.com/venuehost/orchestrator/store"
)

func testSetup(t *testing.T) (http.Handler, *catalog.Store) {
	t.Helper()

	cfg := &config.Config{
		Addr:             ":0",
		Env:              "test",
		RateLimitEnabled: false,
		TenantHeader:     "X-Team-Id",
		MaxBodyBytes:     1 << 20,
		LLMCallTimeout:   5 * time.Second,
		LLMCallRetries:   1,
	}
	log := zerolog.New(io.Discard).With().Timestamp().Logger()

	catalogStore := catalog.NewStore()
	catalogStore.Put(&catalog.Tenant{TenantID: "acme", LLMProvider: "stub"})

	tenantStore, err := store.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("store setup: %v", err)
	}

	registry := llm.NewRegistry(cfg.LLMCallTimeout, cfg.LLMCallRetries)
	registry.Register("stub", llm.NewStubProvider())

	auditPipeline := audit.NewPipeline(log, audit.NewMemorySink())

	svc := service.New(log, catalogStore, tenantStore, secrets.NewStore(time.Minute), registry, auditPipeline)

	r := NewRouter(cfg, log, catalogStore, svc, nil)
	return r, catalogStore
}

func TestHealthEndpoints(t *testing.T) {
	r, _ := testSetup(t)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"healthz", "/healthz", http.StatusOK},
		{"health", "/health", http.StatusOK},
		{"ready", "/ready", http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			rw := httptest.NewRecorder()
			r.ServeHTTP(rw, req)
			if rw.Result().StatusCode != tc.status {
				t.Fatalf("expected %d for %s, got %d", tc.status, tc.path, rw.Result().StatusCode)
			}
		})
	}
}

func TestMissingTenantHeaderReturns401(t *testing.T) {
	r, _ := testSetup(t)

	req := httptest.NewRequest(http.MethodGet, "/tasks/pending", nil)
	rw := httptest.NewRecorder()
	r.ServeHTTP(rw, req)

	if rw.Result().StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for missing tenant header, got %d", rw.Result().StatusCode)
	}
}

func TestUnknownTenantReturns401(t *testing.T) {
	r, _ := testSetup(t)

	req := httptest.NewRequest(http.MethodGet, "/tasks/pending", nil)
	req.Header.Set("X-Team-Id", "nope")
	rw := httptest.NewRecorder()
	r.ServeHTTP(rw, req)

	if rw.Result().StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown tenant, got %d", rw.Result().StatusCode)
	}
}

func TestKnownTenantReachesHandler(t *testing.T) {
	r, _ := testSetup(t)

	req := httptest.NewRequest(http.MethodGet, "/tasks/pending?tenant_id=acme", nil)
	req.Header.Set("X-Team-Id", "acme")
	rw := httptest.NewRecorder()
	r.ServeHTTP(rw, req)

	if rw.Result().StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for known tenant, got %d", rw.Result().StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	r, _ := testSetup(t)

	req := httptest.NewRequest(http.MethodOptions, "/send_message", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rw := httptest.NewRecorder()
	r.ServeHTTP(rw, req)

	if rw.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatal("expected CORS Allow-Origin header on preflight response")
	}
}

func TestSecurityHeaders(t *testing.T) {
	r, _ := testSetup(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rw := httptest.NewRecorder()
	r.ServeHTTP(rw, req)

	headers := []string{
		"X-Content-Type-Options",
		"X-Frame-Options",
		"Strict-Transport-Security",
	}
	for _, h := range headers {
		if rw.Header().Get(h) == "" {
			t.Fatalf("expected security header %s to be set", h)
		}
	}
}
