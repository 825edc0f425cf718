/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L2
Logic:       REST API handler for the HIL task queue: list pending,
             approve, reject, cleanup.
Root Cause:  Sprint task T115 — HIL task endpoints.
Context:     Grounded on handler/routing.go's engine-backed REST CRUD
             shape, retargeted from routing rules to HIL tasks.
Suitability: L2 — standard REST handler wrapping a service method.
──────────────────────────────────────────────────────────────
*/

package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/venuehost/orchestrator/service"
)

const defaultTaskCleanupAge = 7 * 24 * time.Hour

// TaskHandler handles HIL task REST API requests.
type TaskHandler struct {
	logger zerolog.Logger
	svc    *service.Service
}

// NewTaskHandler creates a new HIL task handler.
func NewTaskHandler(logger zerolog.Logger, svc *service.Service) *TaskHandler {
	return &TaskHandler{logger: logger.With().Str("handler", "task").Logger(), svc: svc}
}

// ListPending handles GET tasks/pending?tenant_id=....
func (h *TaskHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant_id")
	if tenantID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "tenant_id is required"})
		return
	}
	pending, err := h.svc.PendingTasks(tenantID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": pending})
}

// Approve handles POST tasks/{id}/approve.
func (h *TaskHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		EditedMessage string `json:"edited_message,omitempty"`
		Notes         string `json:"notes,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	reply, err := h.svc.ApproveTask(id, req.EditedMessage)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"task_status":     "approved",
		"assistant_reply": reply,
	})
}

// Reject handles POST tasks/{id}/reject.
func (h *TaskHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.svc.RejectTask(id, req.Notes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"task_status": "rejected"})
}

// Cleanup handles POST tasks/cleanup.
func (h *TaskHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	removed, err := h.svc.CleanupTasks(defaultTaskCleanupAge)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"removed": removed})
}
