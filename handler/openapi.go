/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L1
Logic:       Hand-maintained OpenAPI 3.0 specification describing the
             conversation, event, config, and HIL task REST surface.
             Embeds the spec as a Go literal and serves it at
             /openapi.json and /docs (Swagger UI).
Root Cause:  Sprint task T114 — full HTTP API surface.
Context:     Same role as the gateway's original spec generator, now
             describing send_message/events/tenants/tasks instead of
             chat completions and routing rules.
Suitability: L1 — specification writing, no domain logic.
──────────────────────────────────────────────────────────────
*/

package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// OpenAPISpec returns the OpenAPI 3.0 specification for the orchestrator API.
func OpenAPISpec() map[string]interface{} {
	return map[string]interface{}{
		"openapi": "3.0.3",
		"info": map[string]interface{}{
			"title":       "Venue Booking Orchestrator",
			"description": "Conversational booking-workflow orchestrator API",
			"version":     "1.0.0",
			"contact": map[string]interface{}{
				"name": "Orchestrator Engineering",
			},
		},
		"servers": []map[string]interface{}{
			{"url": "http://localhost:8080", "description": "Local development"},
		},
		"paths": openAPIPaths(),
		"components": map[string]interface{}{
			"securitySchemes": map[string]interface{}{
				"BearerAuth": map[string]interface{}{
					"type":        "http",
					"scheme":      "bearer",
					"description": "Tenant API key",
				},
			},
			"schemas": openAPISchemas(),
		},
		"security": []map[string]interface{}{
			{"BearerAuth": []string{}},
		},
		"tags": []map[string]interface{}{
			{"name": "Conversation", "description": "Inbound client messages"},
			{"name": "Events", "description": "Booking event lifecycle and read operations"},
			{"name": "Tasks", "description": "Human-in-the-loop approval queue"},
			{"name": "Config", "description": "Per-tenant configuration"},
			{"name": "Health", "description": "Service health checks"},
		},
	}
}

func openAPIPaths() map[string]interface{} {
	return map[string]interface{}{
		"/send_message": map[string]interface{}{
			"post": map[string]interface{}{
				"tags":        []string{"Conversation"},
				"summary":     "Send a client message",
				"description": "Feeds an inbound message through detection, pre-routing, and the step pipeline, returning the assistant's reply (or pending_review if a human must approve it first).",
				"operationId": "sendMessage",
				"requestBody": map[string]interface{}{
					"required": true,
					"content": map[string]interface{}{
						"application/json": map[string]interface{}{
							"schema": map[string]interface{}{"$ref": "#/components/schemas/SendMessageRequest"},
						},
					},
				},
				"responses": map[string]interface{}{
					"200": map[string]interface{}{
						"description": "Message handled",
						"content": map[string]interface{}{
							"application/json": map[string]interface{}{
								"schema": map[string]interface{}{"$ref": "#/components/schemas/MessageResult"},
							},
						},
					},
					"400": map[string]interface{}{"description": "Invalid request"},
				},
			},
		},
		"/start_conversation": map[string]interface{}{
			"post": map[string]interface{}{
				"tags":        []string{"Conversation"},
				"summary":     "Start a conversation from an inbound email",
				"description": "Mints a fresh thread_id and feeds the opening email through the same pipeline send_message uses.",
				"operationId": "startConversation",
				"requestBody": map[string]interface{}{
					"required": true,
					"content": map[string]interface{}{
						"application/json": map[string]interface{}{
							"schema": map[string]interface{}{
								"type":     "object",
								"required": []string{"tenant_id", "client_email", "email_body"},
								"properties": map[string]interface{}{
									"tenant_id":    map[string]interface{}{"type": "string"},
									"client_email": map[string]interface{}{"type": "string"},
									"client_name":  map[string]interface{}{"type": "string"},
									"email_body":   map[string]interface{}{"type": "string"},
								},
							},
						},
					},
				},
				"responses": map[string]interface{}{
					"200": map[string]interface{}{
						"description": "Conversation started",
						"content": map[string]interface{}{
							"application/json": map[string]interface{}{
								"schema": map[string]interface{}{"$ref": "#/components/schemas/MessageResult"},
							},
						},
					},
					"400": map[string]interface{}{"description": "Invalid request"},
				},
			},
		},
		"/events/{id}": map[string]interface{}{
			"get": map[string]interface{}{
				"tags":        []string{"Events"},
				"summary":     "Fetch a booking event",
				"operationId": "getEvent",
				"parameters":  eventIDParam(),
				"responses": map[string]interface{}{
					"200": map[string]interface{}{"description": "Event record"},
					"404": map[string]interface{}{"description": "Event not found"},
				},
			},
		},
		"/event/{id}/cancel": map[string]interface{}{
			"post": map[string]interface{}{
				"tags":        []string{"Events"},
				"summary":     "Cancel a booking event",
				"operationId": "cancelEvent",
				"parameters":  eventIDParam(),
				"requestBody": map[string]interface{}{
					"required": true,
					"content": map[string]interface{}{
						"application/json": map[string]interface{}{
							"schema": map[string]interface{}{
								"type":     "object",
								"required": []string{"confirmation"},
								"properties": map[string]interface{}{
									"confirmation": map[string]interface{}{"type": "string", "enum": []string{"CANCEL"}},
									"reason":       map[string]interface{}{"type": "string"},
								},
							},
						},
					},
				},
				"responses": map[string]interface{}{
					"200": map[string]interface{}{"description": "Event cancelled"},
					"400": map[string]interface{}{"description": "Missing or wrong confirmation token"},
				},
			},
		},
		"/event/deposit/pay": map[string]interface{}{
			"post": map[string]interface{}{
				"tags":        []string{"Events"},
				"summary":     "Record deposit payment",
				"operationId": "payDeposit",
				"responses": map[string]interface{}{
					"200": map[string]interface{}{"description": "Deposit recorded, confirmation step re-run"},
				},
			},
		},
		"/events/{id}/progress": map[string]interface{}{
			"get": map[string]interface{}{
				"tags":        []string{"Events"},
				"summary":     "Five-stage booking progress",
				"operationId": "eventProgress",
				"parameters":  eventIDParam(),
				"responses": map[string]interface{}{
					"200": map[string]interface{}{"description": "date/room/offer/deposit/confirmed stage statuses"},
				},
			},
		},
		"/events/{id}/activity": map[string]interface{}{
			"get": map[string]interface{}{
				"tags":        []string{"Events"},
				"summary":     "Event activity log",
				"operationId": "eventActivity",
				"parameters": append(eventIDParam(),
					map[string]interface{}{"name": "granularity", "in": "query", "schema": map[string]interface{}{"type": "string", "enum": []string{"high", "detailed"}}},
					map[string]interface{}{"name": "limit", "in": "query", "schema": map[string]interface{}{"type": "integer"}},
				),
				"responses": map[string]interface{}{
					"200": map[string]interface{}{"description": "Activity entries, most recent first"},
				},
			},
		},
		"/tasks/pending": map[string]interface{}{
			"get": map[string]interface{}{
				"tags":        []string{"Tasks"},
				"summary":     "List pending HIL tasks",
				"operationId": "listPendingTasks",
				"parameters": []map[string]interface{}{
					{"name": "tenant_id", "in": "query", "required": true, "schema": map[string]interface{}{"type": "string"}},
				},
				"responses": map[string]interface{}{
					"200": map[string]interface{}{"description": "Pending tasks grouped by category"},
				},
			},
		},
		"/tasks/{id}/approve": map[string]interface{}{
			"post": map[string]interface{}{
				"tags":        []string{"Tasks"},
				"summary":     "Approve a pending HIL task",
				"operationId": "approveTask",
				"parameters":  taskIDParam(),
				"responses": map[string]interface{}{
					"200": map[string]interface{}{"description": "Task approved and dispatched"},
					"400": map[string]interface{}{"description": "Task already resolved or its event was cancelled"},
				},
			},
		},
		"/tasks/{id}/reject": map[string]interface{}{
			"post": map[string]interface{}{
				"tags":        []string{"Tasks"},
				"summary":     "Reject a pending HIL task",
				"operationId": "rejectTask",
				"parameters":  taskIDParam(),
				"responses": map[string]interface{}{
					"200": map[string]interface{}{"description": "Task rejected"},
				},
			},
		},
		"/tasks/cleanup": map[string]interface{}{
			"post": map[string]interface{}{
				"tags":        []string{"Tasks"},
				"summary":     "Purge stale resolved tasks",
				"operationId": "cleanupTasks",
				"responses": map[string]interface{}{
					"200": map[string]interface{}{"description": "Number of tasks removed"},
				},
			},
		},
		"/tenants/{tenant_id}/prompts": map[string]interface{}{
			"get": map[string]interface{}{
				"tags":        []string{"Config"},
				"summary":     "Get tone prompt overrides",
				"operationId": "getPrompts",
				"parameters":  tenantIDParam(),
				"responses":   map[string]interface{}{"200": map[string]interface{}{"description": "Current prompts"}},
			},
			"post": map[string]interface{}{
				"tags":        []string{"Config"},
				"summary":     "Update tone prompt overrides",
				"operationId": "setPrompts",
				"parameters":  tenantIDParam(),
				"responses":   map[string]interface{}{"200": map[string]interface{}{"description": "Prompts updated, prior version archived"}},
			},
		},
		"/tenants/{tenant_id}/llm-provider": map[string]interface{}{
			"get": map[string]interface{}{
				"tags":        []string{"Config"},
				"summary":     "Get configured LLM provider",
				"operationId": "getLLMProvider",
				"parameters":  tenantIDParam(),
				"responses":   map[string]interface{}{"200": map[string]interface{}{"description": "Provider name"}},
			},
			"post": map[string]interface{}{
				"tags":        []string{"Config"},
				"summary":     "Switch LLM provider",
				"operationId": "setLLMProvider",
				"parameters":  tenantIDParam(),
				"responses":   map[string]interface{}{"200": map[string]interface{}{"description": "Provider updated"}, "400": map[string]interface{}{"description": "Unknown provider name"}},
			},
		},
		"/healthz": map[string]interface{}{
			"get": map[string]interface{}{
				"tags":        []string{"Health"},
				"summary":     "Liveness probe",
				"operationId": "healthz",
				"security":    []map[string]interface{}{},
				"responses":   map[string]interface{}{"200": map[string]interface{}{"description": "Service is alive"}},
			},
		},
		"/ready": map[string]interface{}{
			"get": map[string]interface{}{
				"tags":        []string{"Health"},
				"summary":     "Readiness probe",
				"operationId": "ready",
				"security":    []map[string]interface{}{},
				"responses":   map[string]interface{}{"200": map[string]interface{}{"description": "Service is ready"}},
			},
		},
		"/metrics": map[string]interface{}{
			"get": map[string]interface{}{
				"tags":        []string{"Health"},
				"summary":     "Prometheus metrics",
				"operationId": "metrics",
				"security":    []map[string]interface{}{},
				"responses":   map[string]interface{}{"200": map[string]interface{}{"description": "Prometheus text exposition format"}},
			},
		},
	}
}

func eventIDParam() []map[string]interface{} {
	return []map[string]interface{}{
		{"name": "id", "in": "path", "required": true, "schema": map[string]interface{}{"type": "string"}},
		{"name": "tenant_id", "in": "query", "required": true, "schema": map[string]interface{}{"type": "string"}},
	}
}

func taskIDParam() []map[string]interface{} {
	return []map[string]interface{}{
		{"name": "id", "in": "path", "required": true, "schema": map[string]interface{}{"type": "string"}},
	}
}

func tenantIDParam() []map[string]interface{} {
	return []map[string]interface{}{
		{"name": "tenant_id", "in": "path", "required": true, "schema": map[string]interface{}{"type": "string"}},
	}
}

func openAPISchemas() map[string]interface{} {
	return map[string]interface{}{
		"SendMessageRequest": map[string]interface{}{
			"type":     "object",
			"required": []string{"tenant_id", "client_email", "body"},
			"properties": map[string]interface{}{
				"tenant_id":    map[string]interface{}{"type": "string"},
				"thread_id":    map[string]interface{}{"type": "string", "description": "Falls back to session_id when omitted"},
				"session_id":   map[string]interface{}{"type": "string"},
				"client_email": map[string]interface{}{"type": "string"},
				"client_name":  map[string]interface{}{"type": "string"},
				"subject":      map[string]interface{}{"type": "string"},
				"body":         map[string]interface{}{"type": "string"},
			},
		},
		"MessageResult": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"thread_id":      map[string]interface{}{"type": "string"},
				"event_id":       map[string]interface{}{"type": "string"},
				"response":       map[string]interface{}{"type": "string"},
				"current_step":   map[string]interface{}{"type": "integer"},
				"status":         map[string]interface{}{"type": "string"},
				"deposit_info":   map[string]interface{}{"type": "object"},
				"pending_review": map[string]interface{}{"type": "boolean"},
			},
		},
		"Error": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"error": map[string]interface{}{"type": "string"},
			},
		},
	}
}

// OpenAPIHandler serves the OpenAPI spec at /openapi.json.
func OpenAPIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		spec := OpenAPISpec()
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		json.NewEncoder(w).Encode(spec)
	}
}

// SwaggerUIHandler serves a minimal Swagger UI page.
func SwaggerUIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Venue Booking Orchestrator API</title>
    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
    SwaggerUI({
        url: '/openapi.json',
        dom_id: '#swagger-ui',
        deepLinking: true,
        presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
        layout: "BaseLayout"
    });
    </script>
</body>
</html>`
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, html)
	}
}
