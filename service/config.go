/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L2
Logic:       Per-tenant config CRUD surface: global-deposit,
             hil-mode, email-format, llm-provider, pre-filter,
             detection-mode, prompts (+history/+revert), venue,
             site-visit, managers, products, menus, catalog, faq.
             Every setter goes through catalog.Store.Put so the 30s
             read cache is invalidated immediately for the writer.
Root Cause:  Sprint task T124 — tenant config endpoints.
Context:     Grounded on handler/policy.go's GET/PUT-per-key shape
             over a tenant-scoped config document; this module plays
             the same role over catalog.Tenant instead of a routing
             policy document.
Suitability: L2 — field-level get/set over an existing struct.
──────────────────────────────────────────────────────────────
*/

package service

import (
	"fmt"

	"github.com/venuehost/orchestrator/catalog"
)

func (s *Service) tenant(tenantID string) (*catalog.Tenant, error) {
	return s.catalog.Get(tenantID)
}

// GetGlobalDeposit returns the tenant's default deposit policy.
func (s *Service) GetGlobalDeposit(tenantID string) (catalog.DepositPolicy, error) {
	t, err := s.tenant(tenantID)
	if err != nil {
		return catalog.DepositPolicy{}, err
	}
	return t.GlobalDeposit, nil
}

// SetGlobalDeposit updates the tenant's default deposit policy.
func (s *Service) SetGlobalDeposit(tenantID string, p catalog.DepositPolicy) error {
	t, err := s.tenant(tenantID)
	if err != nil {
		return err
	}
	t.GlobalDeposit = p
	t.Deposit = p
	s.catalog.Put(t)
	return nil
}

// GetHILMode returns whether every AI draft routes through manager approval.
func (s *Service) GetHILMode(tenantID string) (bool, error) {
	t, err := s.tenant(tenantID)
	if err != nil {
		return false, err
	}
	return t.HilAllLLMReplies, nil
}

// SetHILMode toggles hil_all_llm_replies.
func (s *Service) SetHILMode(tenantID string, enabled bool) error {
	t, err := s.tenant(tenantID)
	if err != nil {
		return err
	}
	t.HilAllLLMReplies = enabled
	s.catalog.Put(t)
	return nil
}

// GetEmailFormat returns "html" or "text".
func (s *Service) GetEmailFormat(tenantID string) (string, error) {
	t, err := s.tenant(tenantID)
	if err != nil {
		return "", err
	}
	return t.EmailFormat, nil
}

// SetEmailFormat sets the outbound email rendering format.
func (s *Service) SetEmailFormat(tenantID, format string) error {
	if format != "html" && format != "text" {
		return fmt.Errorf("service: email_format must be \"html\" or \"text\", got %q", format)
	}
	t, err := s.tenant(tenantID)
	if err != nil {
		return err
	}
	t.EmailFormat = format
	s.catalog.Put(t)
	return nil
}

// GetLLMProvider returns the tenant's configured provider name.
func (s *Service) GetLLMProvider(tenantID string) (string, error) {
	t, err := s.tenant(tenantID)
	if err != nil {
		return "", err
	}
	return t.LLMProvider, nil
}

// SetLLMProvider changes the registry provider name this tenant's
// detection/composition calls resolve against. Validated against the
// live registry so a typo never silently routes to the stub provider.
func (s *Service) SetLLMProvider(tenantID, provider string) error {
	found := false
	for _, p := range s.registry.List() {
		if p == provider {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("service: unknown llm provider %q", provider)
	}
	t, err := s.tenant(tenantID)
	if err != nil {
		return err
	}
	t.LLMProvider = provider
	s.catalog.Put(t)
	return nil
}

// GetPreFilter returns whether the heuristic pre-filter stage runs.
func (s *Service) GetPreFilter(tenantID string) (bool, error) {
	t, err := s.tenant(tenantID)
	if err != nil {
		return false, err
	}
	return t.PreFilterEnabled, nil
}

// SetPreFilter toggles the heuristic pre-filter stage.
func (s *Service) SetPreFilter(tenantID string, enabled bool) error {
	t, err := s.tenant(tenantID)
	if err != nil {
		return err
	}
	t.PreFilterEnabled = enabled
	s.catalog.Put(t)
	return nil
}

// GetDetectionMode returns "unified" or "legacy".
func (s *Service) GetDetectionMode(tenantID string) (string, error) {
	t, err := s.tenant(tenantID)
	if err != nil {
		return "", err
	}
	if t.DetectionUnified {
		return "unified", nil
	}
	return "legacy", nil
}

// SetDetectionMode switches between unified and legacy detection.
func (s *Service) SetDetectionMode(tenantID, mode string) error {
	var unified bool
	switch mode {
	case "unified":
		unified = true
	case "legacy":
		unified = false
	default:
		return fmt.Errorf("service: detection mode must be \"unified\" or \"legacy\", got %q", mode)
	}
	t, err := s.tenant(tenantID)
	if err != nil {
		return err
	}
	t.DetectionUnified = unified
	s.catalog.Put(t)
	return nil
}

// GetPrompts returns the tenant's current tone overrides.
func (s *Service) GetPrompts(tenantID string) (catalog.Prompts, error) {
	t, err := s.tenant(tenantID)
	if err != nil {
		return catalog.Prompts{}, err
	}
	return t.Prompts, nil
}

// SetPrompts saves the current prompts into history and installs a new
// set (prompts have version history, latest 50).
func (s *Service) SetPrompts(tenantID string, p catalog.Prompts) error {
	t, err := s.tenant(tenantID)
	if err != nil {
		return err
	}
	t.SaveCurrentPrompts(s.now())
	t.Prompts = p
	s.catalog.Put(t)
	return nil
}

// PromptHistory returns the tenant's saved prompt revisions, oldest first.
func (s *Service) PromptHistory(tenantID string) ([]catalog.PromptVersion, error) {
	t, err := s.tenant(tenantID)
	if err != nil {
		return nil, err
	}
	return t.PromptHistory, nil
}

// RevertPrompts restores prompts from history index idx.
func (s *Service) RevertPrompts(tenantID string, idx int) error {
	t, err := s.tenant(tenantID)
	if err != nil {
		return err
	}
	if !t.RevertPrompts(idx, s.now()) {
		return fmt.Errorf("service: no prompt history at index %d", idx)
	}
	s.catalog.Put(t)
	return nil
}

// GetVenue returns the tenant's venue profile.
func (s *Service) GetVenue(tenantID string) (catalog.Venue, error) {
	t, err := s.tenant(tenantID)
	if err != nil {
		return catalog.Venue{}, err
	}
	return t.Venue, nil
}

// SetVenue updates the tenant's venue profile.
func (s *Service) SetVenue(tenantID string, v catalog.Venue) error {
	t, err := s.tenant(tenantID)
	if err != nil {
		return err
	}
	t.Venue = v
	s.catalog.Put(t)
	return nil
}

// GetSiteVisitEnabled returns whether the site-visit sub-flow is offered.
func (s *Service) GetSiteVisitEnabled(tenantID string) (bool, error) {
	t, err := s.tenant(tenantID)
	if err != nil {
		return false, err
	}
	return t.SiteVisitEnabled, nil
}

// SetSiteVisitEnabled toggles the site-visit sub-flow.
func (s *Service) SetSiteVisitEnabled(tenantID string, enabled bool) error {
	t, err := s.tenant(tenantID)
	if err != nil {
		return err
	}
	t.SiteVisitEnabled = enabled
	s.catalog.Put(t)
	return nil
}

// GetManagerEmails returns the HIL task notification recipients.
func (s *Service) GetManagerEmails(tenantID string) ([]string, error) {
	t, err := s.tenant(tenantID)
	if err != nil {
		return nil, err
	}
	return t.ManagerEmails, nil
}

// SetManagerEmails replaces the HIL task notification recipient list.
func (s *Service) SetManagerEmails(tenantID string, emails []string) error {
	t, err := s.tenant(tenantID)
	if err != nil {
		return err
	}
	t.ManagerEmails = emails
	s.catalog.Put(t)
	return nil
}

// GetProducts returns the tenant's product catalog.
func (s *Service) GetProducts(tenantID string) ([]catalog.Product, error) {
	t, err := s.tenant(tenantID)
	if err != nil {
		return nil, err
	}
	return t.Products, nil
}

// SetProducts replaces the tenant's product catalog.
func (s *Service) SetProducts(tenantID string, products []catalog.Product) error {
	t, err := s.tenant(tenantID)
	if err != nil {
		return err
	}
	t.Products = products
	s.catalog.Put(t)
	return nil
}

// GetMenus returns the tenant's catering menus.
func (s *Service) GetMenus(tenantID string) ([]catalog.Menu, error) {
	t, err := s.tenant(tenantID)
	if err != nil {
		return nil, err
	}
	return t.Menus, nil
}

// SetMenus replaces the tenant's catering menus.
func (s *Service) SetMenus(tenantID string, menus []catalog.Menu) error {
	t, err := s.tenant(tenantID)
	if err != nil {
		return err
	}
	t.Menus = menus
	s.catalog.Put(t)
	return nil
}

// GetCatalog returns the tenant's room inventory.
func (s *Service) GetCatalog(tenantID string) ([]catalog.Room, error) {
	t, err := s.tenant(tenantID)
	if err != nil {
		return nil, err
	}
	return t.Rooms, nil
}

// SetCatalog replaces the tenant's room inventory.
func (s *Service) SetCatalog(tenantID string, rooms []catalog.Room) error {
	t, err := s.tenant(tenantID)
	if err != nil {
		return err
	}
	t.Rooms = rooms
	s.catalog.Put(t)
	return nil
}

// GetFAQ returns the tenant's Q&A entries.
func (s *Service) GetFAQ(tenantID string) ([]catalog.FAQEntry, error) {
	t, err := s.tenant(tenantID)
	if err != nil {
		return nil, err
	}
	return t.FAQ, nil
}

// SetFAQ replaces the tenant's Q&A entries.
func (s *Service) SetFAQ(tenantID string, entries []catalog.FAQEntry) error {
	t, err := s.tenant(tenantID)
	if err != nil {
		return err
	}
	t.FAQ = entries
	s.catalog.Put(t)
	return nil
}
