/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L4
Logic:       The orchestrator's central service: composes catalog
             lookup, event resolution, the event lock, detection,
             pre-route, step dispatch, the conflict detector, and
             persistence into the one call every external endpoint
             reduces to. This is the piece the conversation/event/task
             handlers delegate to; the handler package stays a thin
             HTTP/JSON adapter over it, matching how
             handler.ProxyHandler stayed thin over provider.Registry.
Root Cause:  Sprint task T127 — single entry point per request; the
             event lock is acquired and held for the full pipeline
             exactly where this type's methods run it.
Context:     One Service instance is constructed once at boot and
             shared across all requests; all per-request state lives
             in the *domain.Event/*store.TenantData values it loads
             and saves, not on Service itself.
Suitability: L4 — the highest fan-in type in the system: individually
             small steps, but the composition order is the hard part.
──────────────────────────────────────────────────────────────
*/

package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/venuehost/orchestrator/audit"
	"github.com/venuehost/orchestrator/catalog"
	"github.com/venuehost/orchestrator/compose"
	"github.com/venuehost/orchestrator/concurrency"
	"github.com/venuehost/orchestrator/detection"
	"github.com/venuehost/orchestrator/domain"
	"github.com/venuehost/orchestrator/hil"
	"github.com/venuehost/orchestrator/llm"
	"github.com/venuehost/orchestrator/secrets"
	"github.com/venuehost/orchestrator/store"
)

// Service is the shared dependency bundle every inbound operation runs
// against.
type Service struct {
	logger   zerolog.Logger
	catalog  *catalog.Store
	store    store.TenantStore
	secrets  *secrets.Store
	registry *llm.Registry
	detector *detection.Detector
	composer *compose.Composer
	audit    *audit.Pipeline
	locks    *concurrency.EventLock

	// Now is overridable in tests; defaults to time.Now.
	Now func() time.Time

	hilMu     sync.Mutex
	hilQueues map[string]*hil.Queue
}

// New wires a Service from its collaborators. auditPipeline may be nil
// (no-op recording).
func New(logger zerolog.Logger, catalogStore *catalog.Store, tenantStore store.TenantStore, secretsStore *secrets.Store, registry *llm.Registry, auditPipeline *audit.Pipeline) *Service {
	return &Service{
		logger:    logger,
		catalog:   catalogStore,
		store:     tenantStore,
		secrets:   secretsStore,
		registry:  registry,
		detector:  detection.NewDetector(registry),
		composer:  compose.NewComposer(registry),
		audit:     auditPipeline,
		locks:     concurrency.NewEventLock(),
		Now:       time.Now,
		hilQueues: make(map[string]*hil.Queue),
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) record(tenantID, eventID, kind, detail string) {
	if s.audit != nil {
		s.audit.Record(tenantID, eventID, kind, detail)
	}
}

// newID returns a short random crypto/rand hex identifier, used for
// event_id and task_id generation, rather than introducing a UUID
// dependency.
func newID(prefix string) string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return fmt.Sprintf("%s_%s", prefix, hex.EncodeToString(b[:]))
}

// hilQueueFor returns the tenant's HIL queue, lazily hydrating it from
// the persisted task map on first access.
func (s *Service) hilQueueFor(tenantID string, data *store.TenantData) *hil.Queue {
	s.hilMu.Lock()
	defer s.hilMu.Unlock()
	q, ok := s.hilQueues[tenantID]
	if !ok {
		q = hil.NewQueue()
		q.LoadTasks(data.Tasks)
		s.hilQueues[tenantID] = q
	}
	return q
}

// persistHIL copies the queue's current task set back into the
// tenant document before it's saved, keeping store.TenantData.Tasks
// as the durable mirror of in-memory queue state.
func (s *Service) persistHIL(tenantID string, data *store.TenantData) {
	q := s.hilQueueFor(tenantID, data)
	data.Tasks = q.All()
}

// lockKey is the exclusivity key that serializes an event's turns:
// new conversations have no event_id yet, so every turn keys on the
// thread_id, including turns for an already-resolved event — the two
// converge to the same serialization domain since one thread maps to
// at most one active event.
func lockKey(tenantID, threadID string) string {
	return tenantID + "/" + threadID
}

func getOrCreateClient(data *store.TenantData, tenantID, email, name string) *domain.Client {
	c, ok := data.Clients[email]
	if !ok {
		c = &domain.Client{TenantID: tenantID, Email: email, Name: name, Status: domain.StatusLead}
		data.Clients[email] = c
	} else if name != "" {
		c.Name = name
	}
	return c
}

// resolveEvent finds the event a message belongs to, or creates one.
// extras.EventID pins a specific event (used by the deposit/approval
// continuations); otherwise the most recently updated event on the
// same thread_id is reused so that a multi-turn conversation stays on
// one event record (DevReuseEvents only affects whether a *completed*
// event is still reusable for a new inquiry from the same client).
func resolveEvent(tenant *catalog.Tenant, data *store.TenantData, tenantID, threadID, clientEmail string, extras domain.MessageExtras, now time.Time) *domain.Event {
	if extras.EventID != "" {
		if ev, ok := data.Events[extras.EventID]; ok {
			return ev
		}
	}

	var best *domain.Event
	for _, ev := range data.Events {
		if ev.ThreadID != threadID {
			continue
		}
		if ev.Status == domain.StatusCancelled {
			continue
		}
		if ev.Status == domain.StatusConfirmed && tenant != nil && !tenant.DevReuseEvents {
			continue
		}
		if best == nil || ev.UpdatedAt.After(best.UpdatedAt) {
			best = ev
		}
	}
	if best != nil {
		return best
	}

	ev := &domain.Event{
		EventID:     newID("evt"),
		TenantID:    tenantID,
		ClientID:    clientEmail,
		ThreadID:    threadID,
		CurrentStep: 1,
		Status:      domain.StatusLead,
		CreatedAt:   now,
	}
	data.Events[ev.EventID] = ev
	return ev
}
