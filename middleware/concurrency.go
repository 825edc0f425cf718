/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L3
Logic:       Per-tenant concurrency guard: bounds how many turns for
             the same tenant can be in flight at once, so one noisy
             integration can't monopolize the LLM gateway's capacity.
Root Cause:  Trimmed from the gateway's concurrency.go, which bundled
             five primitives (KeyedMutex, Semaphore, Deduplicator,
             AtomicCounter, ConcurrencyGuard) built for wallet
             double-spend prevention. KeyedMutex's actual job —
             serializing mutations to the same shared resource — is
             now concurrency.EventLock, scoped to one event instead of
             one org. Request deduplication and raw atomic counters
             have no caller here: every turn is already serialized per
             event by EventLock, so there's nothing left to
             deduplicate or count. Only the per-key semaphore survives,
             retargeted from org to tenant.
Context:     Not mounted by router.NewRouter. It reads the tenant id
             that TenantMiddleware puts on the request context.
Suitability: L3 — bounded concurrency, no financial-integrity stakes.
──────────────────────────────────────────────────────────────
*/

package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Semaphore provides bounded concurrency control per key (tenant id).
type Semaphore struct {
	mu    sync.Mutex
	semas map[string]chan struct{}
	limit int
}

// NewSemaphore creates a new per-key semaphore with the given concurrency limit.
func NewSemaphore(limit int) *Semaphore {
	if limit <= 0 {
		limit = 100
	}
	return &Semaphore{semas: make(map[string]chan struct{}), limit: limit}
}

// Acquire attempts to acquire a slot for the given key within timeout.
// The caller must call Release when done.
func (s *Semaphore) Acquire(key string, timeout time.Duration) bool {
	s.mu.Lock()
	ch, ok := s.semas[key]
	if !ok {
		ch = make(chan struct{}, s.limit)
		s.semas[key] = ch
	}
	s.mu.Unlock()

	select {
	case ch <- struct{}{}:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Release releases a slot for the given key.
func (s *Semaphore) Release(key string) {
	s.mu.Lock()
	ch, ok := s.semas[key]
	s.mu.Unlock()
	if ok {
		select {
		case <-ch:
		default:
		}
	}
}

// ActiveCount returns the number of active requests for a key.
func (s *Semaphore) ActiveCount(key string) int {
	s.mu.Lock()
	ch, ok := s.semas[key]
	s.mu.Unlock()
	if !ok {
		return 0
	}
	return len(ch)
}

// ConcurrencyGuard enforces a per-tenant concurrency limit.
type ConcurrencyGuard struct {
	semaphore *Semaphore
	logger    zerolog.Logger
	timeout   time.Duration
}

// NewConcurrencyGuard creates a new concurrency guard middleware.
func NewConcurrencyGuard(maxConcurrentPerTenant int, timeout time.Duration, logger zerolog.Logger) *ConcurrencyGuard {
	return &ConcurrencyGuard{semaphore: NewSemaphore(maxConcurrentPerTenant), logger: logger, timeout: timeout}
}

// Middleware enforces the per-tenant concurrency limit, rejecting with
// 429 when a tenant exceeds it.
func (cg *ConcurrencyGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := GetTenantID(r.Context())
		if tenantID == "" {
			tenantID = "default"
		}

		if !cg.semaphore.Acquire(tenantID, cg.timeout) {
			cg.logger.Warn().Str("tenant_id", tenantID).Int("active", cg.semaphore.ActiveCount(tenantID)).Msg("concurrency limit reached — rejecting request")
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprintf(w, `{"error":{"type":"rate_limit","message":"Too many concurrent requests for this tenant"}}`)
			return
		}
		defer cg.semaphore.Release(tenantID)
		next.ServeHTTP(w, r)
	})
}

// Stats returns current concurrency statistics.
func (cg *ConcurrencyGuard) Stats() map[string]int {
	return map[string]int{"configured_limit": cg.semaphore.limit}
}
