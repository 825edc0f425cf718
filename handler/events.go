/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L2
Logic:       REST API handler for event lifecycle and read
             operations: fetch, cancel, pay deposit, progress, and
             activity.
Root Cause:  Sprint task T113 — event endpoints.
Context:     Grounded on handler/providers.go's GET/{name}-shaped REST
             CRUD pattern, retargeted from provider config to event
             records; writeJSON is the same shared helper the
             teacher's handler package already defines.
Suitability: L2 — standard REST handler wrapping a service method.
──────────────────────────────────────────────────────────────
*/

package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/venuehost/orchestrator/service"
)

// EventHandler handles event lifecycle and read REST operations.
type EventHandler struct {
	logger zerolog.Logger
	svc    *service.Service
}

// NewEventHandler creates a new event handler.
func NewEventHandler(logger zerolog.Logger, svc *service.Service) *EventHandler {
	return &EventHandler{logger: logger.With().Str("handler", "event").Logger(), svc: svc}
}

// GetEvent handles GET events/{id}.
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant_id")
	id := chi.URLParam(r, "id")

	ev, err := h.svc.GetEvent(tenantID, id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// CancelEvent handles POST event/{id}/cancel.
func (h *EventHandler) CancelEvent(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant_id")
	id := chi.URLParam(r, "id")

	var req struct {
		Confirmation string `json:"confirmation"`
		Reason       string `json:"reason,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.svc.CancelEvent(tenantID, id, req.Confirmation, req.Reason); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// PayDeposit handles POST event/deposit/pay.
func (h *EventHandler) PayDeposit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TenantID string `json:"tenant_id"`
		EventID  string `json:"event_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.svc.PayDeposit(r.Context(), req.TenantID, req.EventID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Progress handles GET events/{id}/progress.
func (h *EventHandler) Progress(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant_id")
	id := chi.URLParam(r, "id")

	stages, err := h.svc.Progress(tenantID, id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"stages": stages})
}

// Activity handles GET events/{id}/activity?granularity=high|detailed&limit=N.
func (h *EventHandler) Activity(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant_id")
	id := chi.URLParam(r, "id")
	granularity := r.URL.Query().Get("granularity")
	if granularity == "" {
		granularity = "detailed"
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	entries, err := h.svc.Activity(tenantID, id, granularity, limit)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"activity": entries})
}
