/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L3
Logic:       C9 — message composition. Plain (deterministic template)
             and empathetic ("safety sandwich": verbalize intro only,
             verify hard facts, surgical patch, else fall back to
             template) verbalization modes.
Root Cause:  Sprint task T102 — message composition.
Context:     The fact-verification step is grounded on caching.Engine's
             ValidateResponses/cache-poisoning check: both scan a
             candidate LLM output against a known-good reference set
             before it's allowed to reach the caller, rejecting (here:
             patching, then templating) anything that drifted.
Suitability: L3 — orchestration of an LLM call plus a verification and
             repair loop.
──────────────────────────────────────────────────────────────
*/

package compose

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/venuehost/orchestrator/billing"
	"github.com/venuehost/orchestrator/llm"
)

// HardFacts is the bundle of verbatim facts the verbalizer must
// preserve.
type HardFacts struct {
	Dates        []string
	Prices       []string
	ProductNames []string
	Units        []string
	RoomNames    []string
}

// FactsFromOffer extracts the hard-facts bundle from a computed offer
// so the verbalizer has something to check its output against.
func FactsFromOffer(offer billing.Offer, roomName, eventDate string) HardFacts {
	f := HardFacts{Dates: []string{eventDate}, RoomNames: []string{roomName}}
	for _, it := range offer.LineItems {
		f.ProductNames = append(f.ProductNames, it.Name)
		f.Units = append(f.Units, it.Unit)
		f.Prices = append(f.Prices, formatPrice(it.Total))
	}
	if offer.DepositLine != nil {
		f.ProductNames = append(f.ProductNames, offer.DepositLine.Name)
		f.Units = append(f.Units, offer.DepositLine.Unit)
		f.Prices = append(f.Prices, formatPrice(offer.DepositDue))
	}
	f.Prices = append(f.Prices, formatPrice(offer.Total))
	return f
}

func formatPrice(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

var datePattern = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
var moneyPattern = regexp.MustCompile(`\$?\d+\.\d{2}\b`)

// Mode selects the verbalization strategy.
type Mode string

const (
	ModePlain       Mode = "plain"
	ModeEmpathetic  Mode = "empathetic"
)

// Composer produces outbound message bodies.
type Composer struct {
	registry *llm.Registry
}

// NewComposer creates a Composer backed by the given LLM registry.
func NewComposer(registry *llm.Registry) *Composer {
	return &Composer{registry: registry}
}

// Compose builds the final message body. template is the deterministic
// plain-mode rendering (always computed as the fallback target); intro
// is the portion the empathetic mode is allowed to rewrite (everything
// else — the structured body — is appended verbatim and never touched).
func (c *Composer) Compose(ctx context.Context, mode Mode, provider, template, intro, structuredBody string, facts HardFacts, tone string) (string, bool) {
	if mode == ModePlain || c.registry == nil {
		return template, false
	}

	prompt := fmt.Sprintf("Rewrite only the following introduction in a %s tone. Do not invent or omit any facts.\n\n%s", toneOrDefault(tone), intro)
	rewritten, err := c.registry.Complete(ctx, provider, prompt)
	if err != nil {
		return template, false
	}

	if ok := Verify(rewritten, facts); !ok {
		patched, ok := SurgicalPatch(rewritten, facts)
		if !ok {
			return template, false
		}
		rewritten = patched
	}

	return strings.TrimSpace(rewritten) + "\n\n" + structuredBody, true
}

func toneOrDefault(tone string) string {
	if tone == "" {
		return "warm and professional"
	}
	return tone
}

// Verify checks that every date/price/room/product name from facts
// appears verbatim in output, and that no date/money-looking token
// appears in output that isn't in facts (no invented facts), and that
// no unit swap occurred.
func Verify(output string, facts HardFacts) bool {
	for _, d := range facts.Dates {
		if d != "" && !strings.Contains(output, d) {
			return false
		}
	}
	for _, p := range facts.Prices {
		if !strings.Contains(output, p) {
			return false
		}
	}
	for _, r := range facts.RoomNames {
		if r != "" && !strings.Contains(output, r) {
			return false
		}
	}
	for _, n := range facts.ProductNames {
		if n != "" && !strings.Contains(output, n) {
			return false
		}
	}

	for _, m := range datePattern.FindAllString(output, -1) {
		if !containsString(facts.Dates, m) {
			return false
		}
	}
	for _, m := range moneyPattern.FindAllString(output, -1) {
		if !containsString(facts.Prices, strings.TrimPrefix(m, "$")) {
			return false
		}
	}

	return !unitsSwapped(output, facts.Units)
}

func unitsSwapped(output string, units []string) bool {
	hasPerPerson := containsString(units, "per person")
	hasPerEvent := containsString(units, "per event")
	if hasPerPerson && strings.Contains(output, "per event") && !hasPerEvent {
		return true
	}
	if hasPerEvent && strings.Contains(output, "per person") && !hasPerPerson {
		return true
	}
	return false
}

// SurgicalPatch attempts to fix a single-unit swap via regex
// replacement and re-verify. It only handles the unit-swap case; any
// other verification failure falls through to the deterministic
// template.
func SurgicalPatch(output string, facts HardFacts) (string, bool) {
	patched := output
	hasPerPerson := containsString(facts.Units, "per person")
	hasPerEvent := containsString(facts.Units, "per event")
	if hasPerPerson && !hasPerEvent {
		patched = strings.ReplaceAll(patched, "per event", "per person")
	} else if hasPerEvent && !hasPerPerson {
		patched = strings.ReplaceAll(patched, "per person", "per event")
	}
	if Verify(patched, facts) {
		return patched, true
	}
	return output, false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
