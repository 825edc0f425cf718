/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L3
Logic:       Router with middleware chain:
             CORS → Security Headers → Request ID → Recoverer
             → Request Logger → Body Size Limit → Tenant Resolution
             → Rate Limit → Header Normalization → Timeout.
             Routes: send_message, events/*, event/*, tasks/*,
             tenants/{tenant_id}/* config, health/metrics/docs.
Root Cause:  Sprint task T121 — full HTTP API surface.
Context:     Router design affects all downstream handlers; mirrors
             the gateway's middleware ordering with tenant resolution
             standing in for API-key auth.
Suitability: L3 model for proper middleware chain design.
──────────────────────────────────────────────────────────────
*/

package router

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/venuehost/orchestrator/catalog"
	"github.com/venuehost/orchestrator/config"
	"github.com/venuehost/orchestrator/handler"
	orchmw "github.com/venuehost/orchestrator/middleware"
	"github.com/venuehost/orchestrator/observability"
	"github.com/venuehost/orchestrator/service"
)

// NewRouter returns a configured chi Router with the full middleware
// chain and every API route mounted.
func NewRouter(cfg *config.Config, appLogger zerolog.Logger, catalogStore *catalog.Store, svc *service.Service, metrics *observability.Metrics) http.Handler {
	r := chi.NewRouter()

	// --- Middleware chain (order matters) ---
	r.Use(orchmw.CORSMiddleware([]string{"*"}))
	r.Use(orchmw.SecurityHeadersMiddleware)
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(mwRequestLogger(appLogger))
	r.Use(mwMaxBodySize(cfg.MaxBodyBytes))

	// --- Unauthenticated endpoints ---
	healthHandler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","service":"venue-orchestrator"}`))
	}
	r.Get("/healthz", healthHandler)
	r.Get("/health", healthHandler)
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready","service":"venue-orchestrator"}`))
	})
	if metrics != nil {
		r.Get("/metrics", metrics.Handler())
	}
	r.Get("/openapi.json", handler.OpenAPIHandler())
	r.Get("/docs", handler.SwaggerUIHandler())

	// --- Handlers ---
	conversationHandler := handler.NewConversationHandler(appLogger, svc)
	eventHandler := handler.NewEventHandler(appLogger, svc)
	taskHandler := handler.NewTaskHandler(appLogger, svc)
	configHandler := handler.NewConfigHandler(appLogger, svc)

	tenantMW := orchmw.NewTenantMiddleware(appLogger, catalogStore, cfg.TenantHeader)
	rateLimiter := orchmw.NewRateLimiter(appLogger, cfg.RateLimitEnabled, cfg.RateLimitRPM, cfg.RateLimitBurst)
	headerNorm := orchmw.NewHeaderNormalization(appLogger)
	timeoutMW := orchmw.NewTimeoutMiddleware(appLogger, cfg)

	r.Group(func(r chi.Router) {
		r.Use(tenantMW.Handler)
		r.Use(rateLimiter.Handler)
		r.Use(headerNorm.Handler)
		r.Use(timeoutMW.Handler)

		// conversation entry points
		r.Post("/send_message", conversationHandler.SendMessage)
		r.Post("/start_conversation", conversationHandler.StartConversation)

		// event lifecycle and read operations
		r.Get("/events/{id}", eventHandler.GetEvent)
		r.Get("/events/{id}/progress", eventHandler.Progress)
		r.Get("/events/{id}/activity", eventHandler.Activity)
		r.Post("/event/{id}/cancel", eventHandler.CancelEvent)
		r.Post("/event/deposit/pay", eventHandler.PayDeposit)

		// HIL task queue
		r.Get("/tasks/pending", taskHandler.ListPending)
		r.Post("/tasks/{id}/approve", taskHandler.Approve)
		r.Post("/tasks/{id}/reject", taskHandler.Reject)
		r.Post("/tasks/cleanup", taskHandler.Cleanup)

		// per-tenant config
		r.Route("/tenants/{tenant_id}", func(r chi.Router) {
			r.Get("/global-deposit", configHandler.GetGlobalDeposit)
			r.Post("/global-deposit", configHandler.SetGlobalDeposit)
			r.Get("/hil-mode", configHandler.GetHILMode)
			r.Post("/hil-mode", configHandler.SetHILMode)
			r.Get("/email-format", configHandler.GetEmailFormat)
			r.Post("/email-format", configHandler.SetEmailFormat)
			r.Get("/llm-provider", configHandler.GetLLMProvider)
			r.Post("/llm-provider", configHandler.SetLLMProvider)
			r.Get("/pre-filter", configHandler.GetPreFilter)
			r.Post("/pre-filter", configHandler.SetPreFilter)
			r.Get("/detection-mode", configHandler.GetDetectionMode)
			r.Post("/detection-mode", configHandler.SetDetectionMode)
			r.Get("/prompts", configHandler.GetPrompts)
			r.Post("/prompts", configHandler.SetPrompts)
			r.Get("/prompts/history", configHandler.PromptHistory)
			r.Post("/prompts/revert/{idx}", configHandler.RevertPrompts)
			r.Get("/venue", configHandler.GetVenue)
			r.Post("/venue", configHandler.SetVenue)
			r.Get("/site-visit", configHandler.GetSiteVisit)
			r.Post("/site-visit", configHandler.SetSiteVisit)
			r.Get("/managers", configHandler.GetManagers)
			r.Post("/managers", configHandler.SetManagers)
			r.Get("/products", configHandler.GetProducts)
			r.Post("/products", configHandler.SetProducts)
			r.Get("/menus", configHandler.GetMenus)
			r.Post("/menus", configHandler.SetMenus)
			r.Get("/catalog", configHandler.GetCatalog)
			r.Post("/catalog", configHandler.SetCatalog)
			r.Get("/faq", configHandler.GetFAQ)
			r.Post("/faq", configHandler.SetFAQ)
		})
	})

	return r
}

// mwMaxBodySize returns middleware that limits the request body size.
func mwMaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = 1 * 1024 * 1024 // default 1MB
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			max := maxBytes
			if v := os.Getenv("ORCH_MAX_BODY_BYTES"); v != "" {
				if parsed, err := strconv.ParseInt(v, 10, 64); err == nil && parsed > 0 {
					max = parsed
				}
			}

			if r.ContentLength > 0 && r.ContentLength > max {
				http.Error(w, `{"error":"request_too_large","message":"request body too large"}`, http.StatusRequestEntityTooLarge)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, max)
			next.ServeHTTP(w, r)
		})
	}
}

func mwRequestLogger(appLogger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(rw, r)
			dur := time.Since(start)
			reqID := chimw.GetReqID(r.Context())
			appLogger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("req_id", reqID).
				Int("status", rw.Status()).
				Dur("duration", dur).
				Msg("request completed")
		})
	}
}
