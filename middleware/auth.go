/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L3
Logic:       Tenant resolution middleware: extracts the tenant id from
             the X-Team-Id header (or a bearer token fallback), looks
             it up in the catalog store, and attaches it to the
             request context for every downstream handler.
Root Cause:  Retargeted from the gateway's AuthMiddleware (Bearer
             token -> backend user validation) to tenant resolution:
             every endpoint in this system is scoped to exactly one
             tenant, there is no end-user auth concept here.
Context:     Mounted ahead of every tenant-scoped route; a missing or
             unknown tenant id is rejected before any handler runs.
             Carries the resolved id via tenant.WithID so it ends up
             in the same context slot tenant.FromContext reads.
Suitability: L3 — header parsing + a store lookup, no crypto.
──────────────────────────────────────────────────────────────
*/

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/venuehost/orchestrator/catalog"
	"github.com/venuehost/orchestrator/tenant"
)

// TenantMiddleware resolves the X-Team-Id header against the catalog
// store before letting a request reach a handler.
type TenantMiddleware struct {
	logger  zerolog.Logger
	catalog *catalog.Store
	header  string
}

// NewTenantMiddleware creates a tenant-resolution middleware.
func NewTenantMiddleware(logger zerolog.Logger, store *catalog.Store, header string) *TenantMiddleware {
	if header == "" {
		header = "X-Team-Id"
	}
	return &TenantMiddleware{logger: logger, catalog: store, header: header}
}

// Handler returns the tenant-resolution middleware handler function.
func (tm *TenantMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := r.Header.Get(tm.header)
		if tenantID == "" {
			if auth := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(auth), "bearer ") {
				tenantID = strings.TrimSpace(auth[7:])
			}
		}
		if tenantID == "" {
			http.Error(w, `{"error":"missing_tenant","message":"X-Team-Id header required"}`, http.StatusUnauthorized)
			return
		}

		if _, err := tm.catalog.Get(tenantID); err != nil {
			tm.logger.Warn().Str("tenant_id", tenantID).Msg("unknown tenant rejected")
			http.Error(w, `{"error":"unknown_tenant","message":"tenant not recognized"}`, http.StatusUnauthorized)
			return
		}

		ctx := tenant.WithID(r.Context(), tenantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetTenantID extracts the resolved tenant id from the request context.
func GetTenantID(ctx context.Context) string {
	id, _ := tenant.FromContext(ctx)
	return id
}
