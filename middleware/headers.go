/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L2
Logic:       Request/response header normalization middleware.
             Strips internal debug/credential headers a client should
             never be able to set, normalizes content-type, and tags
             every response with standard service headers.
Root Cause:  Retargeted from the gateway's per-provider header
             stripping (x-api-key, openai-organization, stainless SDK
             telemetry, etc.) — this system has no upstream LLM
             passthrough API, so there is nothing provider-specific to
             scrub. What carries over is the pattern itself: strip
             headers a client shouldn't control, normalize
             content-type, stamp the response.
Suitability: L2 for straightforward header manipulation.
──────────────────────────────────────────────────────────────
*/

package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// HeaderNormalization performs request and response header normalization.
type HeaderNormalization struct {
	logger zerolog.Logger
}

// NewHeaderNormalization creates a new header normalization middleware.
func NewHeaderNormalization(logger zerolog.Logger) *HeaderNormalization {
	return &HeaderNormalization{logger: logger}
}

// headersToStripFromRequest are internal-only headers a client should
// never be able to set directly.
var headersToStripFromRequest = []string{
	"x-internal-provider-key",
	"x-internal-secret",
}

// standardResponseHeaders are headers every response carries.
var standardResponseHeaders = map[string]string{
	"X-Powered-By": "venuehost-orchestrator",
}

// Handler returns the HTTP middleware handler.
func (h *HeaderNormalization) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, header := range headersToStripFromRequest {
			if r.Header.Get(header) != "" {
				h.logger.Debug().Str("header", header).Str("path", r.URL.Path).Msg("stripped internal header from request")
				r.Header.Del(header)
			}
		}

		ct := r.Header.Get("Content-Type")
		if ct != "" && strings.Contains(ct, "json") && ct != "application/json" {
			r.Header.Set("Content-Type", "application/json")
		}
		if r.Header.Get("Accept") == "" {
			r.Header.Set("Accept", "application/json")
		}

		wrapped := &headerNormWriter{ResponseWriter: w}
		next.ServeHTTP(wrapped, r)
	})
}

// headerNormWriter wraps http.ResponseWriter to stamp standard response headers.
type headerNormWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (hw *headerNormWriter) WriteHeader(code int) {
	if hw.wroteHeader {
		return
	}
	hw.wroteHeader = true
	for k, v := range standardResponseHeaders {
		hw.ResponseWriter.Header().Set(k, v)
	}
	hw.ResponseWriter.WriteHeader(code)
}

func (hw *headerNormWriter) Write(b []byte) (int, error) {
	if !hw.wroteHeader {
		hw.WriteHeader(http.StatusOK)
	}
	return hw.ResponseWriter.Write(b)
}

// Flush supports streaming by delegating to the underlying writer.
func (hw *headerNormWriter) Flush() {
	if f, ok := hw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
