/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L3
Logic:       HTTP handlers implementing POST send_message and POST
             start_conversation, the conversation entry points every
             client turn flows through. Thin JSON decode/
             validate/encode shell over service.Service.HandleMessage/
             StartConversation — no business logic lives here.
Root Cause:  Sprint task T112 — send a message / start a conversation.
Context:     The system's single busiest endpoint, same role
             proxy.go's ChatCompletions played for the gateway's AI
             traffic.
Suitability: L3 model for HTTP request/response shaping.
──────────────────────────────────────────────────────────────
*/

package handler

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/venuehost/orchestrator/domain"
	"github.com/venuehost/orchestrator/service"
)

// ConversationHandler handles inbound client messages.
type ConversationHandler struct {
	logger zerolog.Logger
	svc    *service.Service
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(logger zerolog.Logger, svc *service.Service) *ConversationHandler {
	return &ConversationHandler{logger: logger, svc: svc}
}

type sendMessageRequest struct {
	TenantID    string               `json:"tenant_id"`
	ThreadID    string               `json:"thread_id"`
	SessionID   string               `json:"session_id"`
	ClientEmail string               `json:"client_email"`
	ClientName  string               `json:"client_name,omitempty"`
	Subject     string               `json:"subject,omitempty"`
	Body        string               `json:"body"`
	Extras      domain.MessageExtras `json:"extras,omitempty"`
}

// SendMessage handles POST send_message.
func (h *ConversationHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "failed to parse request body: "+err.Error())
		return
	}

	if req.TenantID == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "tenant_id is required")
		return
	}
	threadID := req.ThreadID
	if threadID == "" {
		threadID = req.SessionID
	}
	if threadID == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "thread_id or session_id is required")
		return
	}
	if req.ClientEmail == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "client_email is required")
		return
	}
	if req.Body == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "body is required")
		return
	}

	result, err := h.svc.HandleMessage(r.Context(), req.TenantID, threadID, req.ClientEmail, req.ClientName, req.Subject, req.Body, req.Extras)
	if err != nil {
		h.logger.Error().Err(err).Str("tenant_id", req.TenantID).Str("thread_id", threadID).Msg("handle message failed")
		h.writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	h.logger.Info().
		Str("tenant_id", req.TenantID).
		Str("thread_id", threadID).
		Int("current_step", result.CurrentStep).
		Int64("latency_ms", time.Since(start).Milliseconds()).
		Msg("message handled")

	h.writeJSON(w, http.StatusOK, result)
}

type startConversationRequest struct {
	TenantID    string `json:"tenant_id"`
	ClientEmail string `json:"client_email"`
	ClientName  string `json:"client_name,omitempty"`
	EmailBody   string `json:"email_body"`
}

// StartConversation handles POST start_conversation: an inbound email
// opening a thread with no prior session_id, so a fresh thread_id is
// minted here rather than supplied by the caller.
func (h *ConversationHandler) StartConversation(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req startConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "failed to parse request body: "+err.Error())
		return
	}
	if req.TenantID == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "tenant_id is required")
		return
	}
	if req.ClientEmail == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "client_email is required")
		return
	}
	if req.EmailBody == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "email_body is required")
		return
	}

	threadID := newThreadID()
	result, err := h.svc.StartConversation(r.Context(), req.TenantID, threadID, req.ClientEmail, req.ClientName, "", req.EmailBody)
	if err != nil {
		h.logger.Error().Err(err).Str("tenant_id", req.TenantID).Str("thread_id", threadID).Msg("start conversation failed")
		h.writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	h.logger.Info().
		Str("tenant_id", req.TenantID).
		Str("thread_id", threadID).
		Int("current_step", result.CurrentStep).
		Int64("latency_ms", time.Since(start).Milliseconds()).
		Msg("conversation started")

	h.writeJSON(w, http.StatusOK, result)
}

// newThreadID mints a fresh thread_id for a new conversation — same
// crypto/rand pattern service.newID uses for event_id/task_id, since no
// UUID dependency appears anywhere in the example pack.
func newThreadID() string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return fmt.Sprintf("thread_%s", hex.EncodeToString(b[:]))
}

func (h *ConversationHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (h *ConversationHandler) writeError(w http.ResponseWriter, status int, errType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"type":    errType,
			"message": message,
		},
	})
}
