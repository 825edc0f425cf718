/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L2
Logic:       Per-tenant config REST API: GET/POST over
             global-deposit, hil-mode, email-format, llm-provider,
             pre-filter, detection-mode, prompts (+history/+revert),
             venue, site-visit, managers, products, menus, catalog,
             faq. Every key is its own pair of thin methods over the
             matching service.Service getter/setter.
Root Cause:  Sprint task T111 — tenant config endpoints.
Context:     Grounded on handler/policy.go's GET/PUT-per-resource REST
             shape, retargeted from OPA policy documents to tenant
             catalog config.
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

	"github.com/venuehost/orchestrator/catalog"
	"github.com/venuehost/orchestrator/service"
)

// ConfigHandler handles the per-tenant config REST surface.
type ConfigHandler struct {
	logger zerolog.Logger
	svc    *service.Service
}

// NewConfigHandler creates a new config handler.
func NewConfigHandler(logger zerolog.Logger, svc *service.Service) *ConfigHandler {
	return &ConfigHandler{logger: logger.With().Str("handler", "config").Logger(), svc: svc}
}

func tenantIDFromRequest(r *http.Request) string {
	if id := chi.URLParam(r, "tenant_id"); id != "" {
		return id
	}
	return r.URL.Query().Get("tenant_id")
}

func decodeBody(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// GetGlobalDeposit handles GET tenants/{tenant_id}/global-deposit.
func (h *ConfigHandler) GetGlobalDeposit(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetGlobalDeposit(tenantIDFromRequest(r))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// SetGlobalDeposit handles POST tenants/{tenant_id}/global-deposit.
func (h *ConfigHandler) SetGlobalDeposit(w http.ResponseWriter, r *http.Request) {
	var p catalog.DepositPolicy
	if err := decodeBody(r, &p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := h.svc.SetGlobalDeposit(tenantIDFromRequest(r), p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GetHILMode handles GET tenants/{tenant_id}/hil-mode.
func (h *ConfigHandler) GetHILMode(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.GetHILMode(tenantIDFromRequest(r))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"hil_all_llm_replies": v})
}

// SetHILMode handles POST tenants/{tenant_id}/hil-mode.
func (h *ConfigHandler) SetHILMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"hil_all_llm_replies"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := h.svc.SetHILMode(tenantIDFromRequest(r), req.Enabled); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// GetEmailFormat handles GET tenants/{tenant_id}/email-format.
func (h *ConfigHandler) GetEmailFormat(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.GetEmailFormat(tenantIDFromRequest(r))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"email_format": v})
}

// SetEmailFormat handles POST tenants/{tenant_id}/email-format.
func (h *ConfigHandler) SetEmailFormat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Format string `json:"email_format"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := h.svc.SetEmailFormat(tenantIDFromRequest(r), req.Format); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// GetLLMProvider handles GET tenants/{tenant_id}/llm-provider.
func (h *ConfigHandler) GetLLMProvider(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.GetLLMProvider(tenantIDFromRequest(r))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"llm_provider": v})
}

// SetLLMProvider handles POST tenants/{tenant_id}/llm-provider.
func (h *ConfigHandler) SetLLMProvider(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Provider string `json:"llm_provider"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := h.svc.SetLLMProvider(tenantIDFromRequest(r), req.Provider); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// GetPreFilter handles GET tenants/{tenant_id}/pre-filter.
func (h *ConfigHandler) GetPreFilter(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.GetPreFilter(tenantIDFromRequest(r))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"pre_filter_enabled": v})
}

// SetPreFilter handles POST tenants/{tenant_id}/pre-filter.
func (h *ConfigHandler) SetPreFilter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"pre_filter_enabled"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := h.svc.SetPreFilter(tenantIDFromRequest(r), req.Enabled); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// GetDetectionMode handles GET tenants/{tenant_id}/detection-mode.
func (h *ConfigHandler) GetDetectionMode(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.GetDetectionMode(tenantIDFromRequest(r))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detection_mode": v})
}

// SetDetectionMode handles POST tenants/{tenant_id}/detection-mode.
func (h *ConfigHandler) SetDetectionMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode string `json:"detection_mode"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := h.svc.SetDetectionMode(tenantIDFromRequest(r), req.Mode); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// GetPrompts handles GET tenants/{tenant_id}/prompts.
func (h *ConfigHandler) GetPrompts(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetPrompts(tenantIDFromRequest(r))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// SetPrompts handles POST tenants/{tenant_id}/prompts.
func (h *ConfigHandler) SetPrompts(w http.ResponseWriter, r *http.Request) {
	var p catalog.Prompts
	if err := decodeBody(r, &p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := h.svc.SetPrompts(tenantIDFromRequest(r), p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// PromptHistory handles GET tenants/{tenant_id}/prompts/history.
func (h *ConfigHandler) PromptHistory(w http.ResponseWriter, r *http.Request) {
	hist, err := h.svc.PromptHistory(tenantIDFromRequest(r))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"history": hist})
}

// RevertPrompts handles POST tenants/{tenant_id}/prompts/revert/{idx}.
func (h *ConfigHandler) RevertPrompts(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(chi.URLParam(r, "idx"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "idx must be an integer"})
		return
	}
	if err := h.svc.RevertPrompts(tenantIDFromRequest(r), idx); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reverted"})
}

// GetVenue handles GET tenants/{tenant_id}/venue.
func (h *ConfigHandler) GetVenue(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.GetVenue(tenantIDFromRequest(r))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// SetVenue handles POST tenants/{tenant_id}/venue.
func (h *ConfigHandler) SetVenue(w http.ResponseWriter, r *http.Request) {
	var v catalog.Venue
	if err := decodeBody(r, &v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := h.svc.SetVenue(tenantIDFromRequest(r), v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// GetSiteVisit handles GET tenants/{tenant_id}/site-visit.
func (h *ConfigHandler) GetSiteVisit(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.GetSiteVisitEnabled(tenantIDFromRequest(r))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"site_visit_enabled": v})
}

// SetSiteVisit handles POST tenants/{tenant_id}/site-visit.
func (h *ConfigHandler) SetSiteVisit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"site_visit_enabled"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := h.svc.SetSiteVisitEnabled(tenantIDFromRequest(r), req.Enabled); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// GetManagers handles GET tenants/{tenant_id}/managers.
func (h *ConfigHandler) GetManagers(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.GetManagerEmails(tenantIDFromRequest(r))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"managers": v})
}

// SetManagers handles POST tenants/{tenant_id}/managers.
func (h *ConfigHandler) SetManagers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Managers []string `json:"managers"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := h.svc.SetManagerEmails(tenantIDFromRequest(r), req.Managers); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// GetProducts handles GET tenants/{tenant_id}/products.
func (h *ConfigHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.GetProducts(tenantIDFromRequest(r))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"products": v})
}

// SetProducts handles POST tenants/{tenant_id}/products.
func (h *ConfigHandler) SetProducts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Products []catalog.Product `json:"products"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := h.svc.SetProducts(tenantIDFromRequest(r), req.Products); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// GetMenus handles GET tenants/{tenant_id}/menus.
func (h *ConfigHandler) GetMenus(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.GetMenus(tenantIDFromRequest(r))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"menus": v})
}

// SetMenus handles POST tenants/{tenant_id}/menus.
func (h *ConfigHandler) SetMenus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Menus []catalog.Menu `json:"menus"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := h.svc.SetMenus(tenantIDFromRequest(r), req.Menus); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// GetCatalog handles GET tenants/{tenant_id}/catalog.
func (h *ConfigHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.GetCatalog(tenantIDFromRequest(r))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rooms": v})
}

// SetCatalog handles POST tenants/{tenant_id}/catalog.
func (h *ConfigHandler) SetCatalog(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rooms []catalog.Room `json:"rooms"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := h.svc.SetCatalog(tenantIDFromRequest(r), req.Rooms); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// GetFAQ handles GET tenants/{tenant_id}/faq.
func (h *ConfigHandler) GetFAQ(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.GetFAQ(tenantIDFromRequest(r))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"faq": v})
}

// SetFAQ handles POST tenants/{tenant_id}/faq.
func (h *ConfigHandler) SetFAQ(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FAQ []catalog.FAQEntry `json:"faq"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := h.svc.SetFAQ(tenantIDFromRequest(r), req.FAQ); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, req)
}
