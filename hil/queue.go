/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L3
Logic:       HIL task queue. Category-separated storage, a
             signature-based dedup on approve, and a continuation
             dispatch hook the router wires to Step 7 / the gate.
Root Cause:  Sprint task T116 — HIL task queue.
Context:     Grounded on policy.OPAClient's CRUD + eval-log shape: a
             per-tenant lock around a map keyed by id, same pattern as
             the gateway's policy store, with an append-only resolution
             trail instead of an eval log.
Suitability: L3 — stateful queue with an approval protocol, not a pure
             lookup.
──────────────────────────────────────────────────────────────
*/

package hil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/venuehost/orchestrator/domain"
)

// ErrNotFound is returned when a task id is unknown to the tenant's queue.
var ErrNotFound = fmt.Errorf("hil: task not found")

// ErrDuplicateApproval is returned when the same (thread, category, body
// digest) has already been approved.
var ErrDuplicateApproval = fmt.Errorf("hil: duplicate approval ignored")

// Continuation describes the follow-up action the router should take
// after a task is approved.
type Continuation struct {
	Action  string // "dispatch_step7" | "check_gate" | ""
	EventID string
}

// Queue is a per-tenant, concurrency-safe HIL task store.
type Queue struct {
	mu    sync.Mutex
	tasks map[string]*domain.HILTask
	// resolvedSignatures dedups approvals by (thread_id, category, body_digest).
	resolvedSignatures map[string]bool
}

// NewQueue creates an empty HIL task queue for one tenant.
func NewQueue() *Queue {
	return &Queue{
		tasks:              make(map[string]*domain.HILTask),
		resolvedSignatures: make(map[string]bool),
	}
}

// Signature computes the dedup key for a draft: sha256(thread_id |
// category | body), as the full hex digest.
func Signature(threadID string, category domain.TaskCategory, body string) string {
	h := sha256.Sum256([]byte(threadID + "|" + string(category) + "|" + body))
	return hex.EncodeToString(h[:])
}

// Enqueue adds a new pending task. The two approval-bypassing
// categories (offer_message/confirmation_message vs ai_reply_approval)
// never both fire for the same draft — callers choose exactly one
// category per draft.
func (q *Queue) Enqueue(t *domain.HILTask) {
	q.mu.Lock()
	defer q.mu.Unlock()
	t.Status = domain.TaskPending
	t.Signature = Signature(t.ThreadID, t.Category, t.DraftBody)
	q.tasks[t.TaskID] = t
}

// LoadTasks seeds the queue from a persisted task map (store.TenantData.Tasks),
// rebuilding the signature-dedup index so a restart doesn't re-open the
// door to an already-resolved approval.
func (q *Queue) LoadTasks(tasks map[string]*domain.HILTask) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for id, t := range tasks {
		q.tasks[id] = t
		if t.Status != domain.TaskPending && t.Signature != "" {
			q.resolvedSignatures[t.Signature] = true
		}
	}
}

// All returns every task currently held, pending or resolved, for
// persistence back to the tenant store.
func (q *Queue) All() map[string]*domain.HILTask {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make(map[string]*domain.HILTask, len(q.tasks))
	for id, t := range q.tasks {
		out[id] = t
	}
	return out
}

// Get returns one task by id.
func (q *Queue) Get(taskID string) (*domain.HILTask, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	t, ok := q.tasks[taskID]
	return t, ok
}

// Pending lists every task still awaiting a decision, grouped by category.
func (q *Queue) Pending() map[domain.TaskCategory][]*domain.HILTask {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make(map[domain.TaskCategory][]*domain.HILTask)
	for _, t := range q.tasks {
		if t.Status == domain.TaskPending {
			out[t.Category] = append(out[t.Category], t)
		}
	}
	return out
}

// Approve resolves a task, applying the signature dedup rule and
// computing the effective client-facing reply.
func (q *Queue) Approve(taskID, editedMessage string, now time.Time) (reply string, cont Continuation, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	t, ok := q.tasks[taskID]
	if !ok {
		return "", Continuation{}, ErrNotFound
	}
	if t.Status != domain.TaskPending {
		return "", Continuation{}, ErrDuplicateApproval
	}
	if q.resolvedSignatures[t.Signature] {
		t.Status = domain.TaskRejected
		return "", Continuation{}, ErrDuplicateApproval
	}

	if editedMessage != "" {
		t.EditedBody = editedMessage
	}
	t.Status = domain.TaskApproved
	resolvedAt := now
	t.ResolvedAt = &resolvedAt
	q.resolvedSignatures[t.Signature] = true

	return t.EffectiveReply(), continuationFor(t), nil
}

// Reject marks a task resolved without dispatching any continuation.
func (q *Queue) Reject(taskID, notes string, now time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	t, ok := q.tasks[taskID]
	if !ok {
		return ErrNotFound
	}
	if t.Status != domain.TaskPending {
		return ErrDuplicateApproval
	}
	t.Status = domain.TaskRejected
	t.Notes = notes
	resolvedAt := now
	t.ResolvedAt = &resolvedAt
	return nil
}

// continuationFor decides what happens after an approval: an approved
// offer task whose event has cleared the confirmation gate goes
// straight to Step 7; a negotiation acceptance re-checks the gate.
func continuationFor(t *domain.HILTask) Continuation {
	switch t.Category {
	case domain.CategoryOfferMessage:
		return Continuation{Action: "check_gate", EventID: t.EventID}
	case domain.CategoryConfirmationMessage:
		return Continuation{Action: "dispatch_step7", EventID: t.EventID}
	default:
		return Continuation{EventID: t.EventID}
	}
}

// Cleanup removes resolved tasks older than the given age.
func (q *Queue) Cleanup(olderThan time.Duration, now time.Time) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	removed := 0
	for id, t := range q.tasks {
		if t.Status == domain.TaskPending {
			continue
		}
		if t.ResolvedAt != nil && now.Sub(*t.ResolvedAt) > olderThan {
			delete(q.tasks, id)
			removed++
		}
	}
	return removed
}
