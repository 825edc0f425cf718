/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L3
Logic:       Orchestrator entry point with graceful shutdown, LLM
             provider registration, Redis connectivity, persistence
             store, audit pipeline, and a background HIL task cleanup
             ticker. Coordinates every subsystem service.Service
             depends on.
Root Cause:  Process wiring: config → logger → Redis → catalog →
             secrets → LLM registry → service → router → HTTP server
             with OS signal handling.
Context:     Entry point mirrors the gateway's own startup sequencing
             (Redis probe, provider registration, health poller,
             signal-driven graceful shutdown) retargeted to the
             booking orchestrator's subsystems.
Suitability: L3 model for graceful shutdown and system wiring.
──────────────────────────────────────────────────────────────
*/

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/venuehost/orchestrator/audit"
	"github.com/venuehost/orchestrator/catalog"
	"github.com/venuehost/orchestrator/config"
	"github.com/venuehost/orchestrator/llm"
	"github.com/venuehost/orchestrator/logger"
	"github.com/venuehost/orchestrator/observability"
	"github.com/venuehost/orchestrator/redisclient"
	"github.com/venuehost/orchestrator/router"
	"github.com/venuehost/orchestrator/secrets"
	"github.com/venuehost/orchestrator/service"
	"github.com/venuehost/orchestrator/store"
)

const taskCleanupInterval = 1 * time.Hour

func main() {
	cfg := config.Load()
	log := logger.New(cfg)

	log.Info().Str("env", cfg.Env).Msg("orchestrator starting")

	rc, err := redisclient.New(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("redis init failed — continuing without Redis")
	} else {
		if err := rc.Ping(); err != nil {
			log.Warn().Err(err).Msg("redis ping failed")
		} else {
			log.Info().Msg("redis connected")
		}
		defer rc.Close()
	}

	catalogStore := catalog.NewStore()
	seedCatalog(catalogStore)

	secretsStore := secrets.NewStore(5 * time.Minute)

	tenantStore, err := store.NewStore(dataDir())
	if err != nil {
		log.Fatal().Err(err).Msg("tenant store init failed")
	}

	registry := llm.NewRegistry(cfg.LLMCallTimeout, cfg.LLMCallRetries)
	registerLLMProviders(registry, log)

	auditSink, err := audit.NewJSONFileSink(auditLogPath())
	if err != nil {
		log.Warn().Err(err).Msg("audit file sink init failed — falling back to in-memory sink")
	}
	var sink audit.Sink
	if auditSink != nil {
		sink = auditSink
	} else {
		sink = audit.NewMemorySink()
	}
	auditPipeline := audit.NewPipeline(log, sink)
	auditPipeline.Start(context.Background())

	svc := service.New(log, catalogStore, tenantStore, secretsStore, registry, auditPipeline)

	metrics := observability.NewMetrics(log)

	r := router.NewRouter(cfg, log, catalogStore, svc, metrics)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.LLMCallTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	healthPoller := llm.NewHealthPoller(registry, log, 30*time.Second)
	healthPoller.OnStatusChange(func(name string, healthy bool, status llm.HealthStatus) {
		if healthy {
			log.Info().Str("provider", name).Msg("llm provider recovered")
		} else {
			log.Error().Str("provider", name).Str("error", status.Error).Msg("llm provider degraded")
		}
	})
	healthPoller.Start()

	cleanupDone := make(chan struct{})
	go runTaskCleanup(svc, log, cleanupDone)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("orchestrator listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-done
	log.Info().Msg("shutdown signal received")

	healthPoller.Stop()
	close(cleanupDone)
	auditPipeline.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.GracefulTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	} else {
		log.Info().Msg("orchestrator stopped gracefully")
	}
}

// registerLLMProviders wires a Gateway for every provider with a
// configured API key, plus an always-available stub registered as
// "stub" for tenants whose llm_provider is set to it.
func registerLLMProviders(registry *llm.Registry, log zerolog.Logger) {
	registry.Register("stub", llm.NewStubProvider())

	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		model := os.Getenv("ANTHROPIC_MODEL")
		if model == "" {
			model = "claude-3-5-sonnet-20241022"
		}
		registry.Register("anthropic", llm.NewAnthropicProvider(key, model, 30*time.Second))
		log.Info().Msg("registered anthropic llm provider")
	}

	log.Info().Int("providers", len(registry.List())).Msg("llm provider registration complete")
}

// seedCatalog installs a minimal demo tenant so the service has at
// least one resolvable tenant on a fresh checkout. Real deployments
// populate the catalog store through the config endpoints.
func seedCatalog(catalogStore *catalog.Store) {
	catalogStore.Put(&catalog.Tenant{
		TenantID:    "demo",
		LLMProvider: "stub",
		EmailFormat: "text",
		Rooms: []catalog.Room{
			{ID: "garden-room", Name: "Garden Room", CapacityMax: 120, UnitPrice: 1500},
		},
		GlobalDeposit: catalog.DepositPolicy{Required: true, Percentage: 0.25, DeadlineDays: 14},
		Deposit:       catalog.DepositPolicy{Required: true, Percentage: 0.25, DeadlineDays: 14},
	})
}

func dataDir() string {
	if v := os.Getenv("ORCH_DATA_DIR"); v != "" {
		return v
	}
	return "./data"
}

func auditLogPath() string {
	if v := os.Getenv("ORCH_AUDIT_LOG_PATH"); v != "" {
		return v
	}
	return "./data/audit.ndjson"
}

func runTaskCleanup(svc *service.Service, log zerolog.Logger, done chan struct{}) {
	ticker := time.NewTicker(taskCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			removed, err := svc.CleanupTasks(7 * 24 * time.Hour)
			if err != nil {
				log.Warn().Err(err).Msg("hil task cleanup failed")
				continue
			}
			if removed > 0 {
				log.Info().Int("removed", removed).Msg("stale hil tasks purged")
			}
		case <-done:
			return
		}
	}
}
