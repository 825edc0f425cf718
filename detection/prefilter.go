/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L2
Logic:       Deterministic, keyword/regex heuristic pass run before
             (and, in unified mode, alongside) the LLM call: gibberish
             heuristic, email/postal/confirmation-word pattern match,
             and the single-word-interrogative position rule.
Root Cause:  Sprint task T107 — pre-filter.
Context:     Adapted from intelligence.Classifier's keyword-weighted
             rule scoring: rules here score toward a PreFilterSignals
             struct instead of a single best-category enum, since the
             pre-filter's job is to propose several independent
             boolean signals rather than pick one category.
Suitability: L2 — pattern/heuristic matching, no external calls.
──────────────────────────────────────────────────────────────
*/

package detection

import (
	"regexp"
	"strings"
	"unicode"
)

// PreFilterSignals are the deterministic signals computed before any
// LLM call. They are either used standalone (legacy mode) or merged
// with an LLM result under the LLM-first rule (unified mode).
type PreFilterSignals struct {
	IsGibberish      bool
	HasQuestionSignal bool
	HasEmail         bool
	HasPostalCode    bool
	HasConfirmWord   bool
	QnATypes         []string
}

var (
	emailPattern      = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	postalCodePattern = regexp.MustCompile(`\b\d{5}(-\d{4})?\b`)

	confirmWords = []string{"confirm", "confirmed", "yes please", "sounds good", "go ahead", "book it", "let's do it"}
	rejectWords  = []string{"cancel", "no longer", "not interested", "changed our minds", "won't be able"}

	interrogatives = []string{"what", "when", "where", "who", "why", "how", "which", "can", "could", "do", "does", "is", "are"}
)

// classificationRule mirrors intelligence.ClassificationRule: a set of
// keywords that add Weight to a named signal when any appear.
type classificationRule struct {
	Signal   string
	Keywords []string
	Weight   float64
}

var qnaRules = []classificationRule{
	{"pricing", []string{"how much", "cost", "price", "rate", "fee"}, 1.0},
	{"availability", []string{"available", "open date", "free that day", "vacancy"}, 1.0},
	{"capacity", []string{"how many people", "capacity", "fit", "hold how many"}, 1.0},
	{"policy", []string{"cancellation policy", "refund", "deposit required", "payment terms"}, 1.0},
	{"amenities", []string{"parking", "catering", "av equipment", "wifi", "accessib"}, 0.8},
}

// RunPreFilter computes the deterministic signal set for one message
// body. It never blocks and never errors: worst case every signal is
// false.
func RunPreFilter(body string) PreFilterSignals {
	lower := strings.ToLower(strings.TrimSpace(body))

	sig := PreFilterSignals{
		IsGibberish:       isGibberish(lower),
		HasEmail:          emailPattern.MatchString(body),
		HasPostalCode:     postalCodePattern.MatchString(body),
		HasQuestionSignal: hasQuestionSignal(lower),
	}
	sig.HasConfirmWord = containsAny(lower, confirmWords) && !containsAny(lower, rejectWords)

	scores := make(map[string]float64)
	for _, rule := range qnaRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				scores[rule.Signal] += rule.Weight
			}
		}
	}
	for sig2, score := range scores {
		if score > 0 {
			sig.QnATypes = append(sig.QnATypes, sig2)
		}
	}

	return sig
}

// isGibberish flags bodies with no recognizable word content: empty,
// or mostly non-letter runes, or a single long token with no vowels
// (keyboard-mash heuristic).
func isGibberish(lower string) bool {
	trimmed := strings.TrimSpace(lower)
	if trimmed == "" {
		return true
	}
	letters, total := 0, 0
	for _, r := range trimmed {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if total == 0 {
		return true
	}
	if float64(letters)/float64(total) < 0.4 {
		return true
	}
	fields := strings.Fields(trimmed)
	if len(fields) == 1 && len(fields[0]) > 6 && !hasVowel(fields[0]) {
		return true
	}
	return false
}

func hasVowel(s string) bool {
	for _, r := range s {
		switch r {
		case 'a', 'e', 'i', 'o', 'u':
			return true
		}
	}
	return false
}

// hasQuestionSignal implements the single-word-interrogative position
// rule: a literal "?" always counts, and so does a message
// that OPENS with an interrogative word even without punctuation
// ("when is the wedding"). An interrogative appearing mid-sentence
// ("I know how that works") does not count on its own.
func hasQuestionSignal(lower string) bool {
	if strings.Contains(lower, "?") {
		return true
	}
	fields := strings.Fields(lower)
	if len(fields) == 0 {
		return false
	}
	first := strings.Trim(fields[0], ",.!")
	for _, w := range interrogatives {
		if first == w {
			return true
		}
	}
	return false
}

func containsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
