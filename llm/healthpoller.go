/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L2
Logic:       Background goroutine polling every registered LLM
             provider on an interval, caching results on the
             Registry and firing a callback on health transitions.
Root Cause:  Sprint task T119 — LLM calls are the only I/O-bound suspension
             point; proactive health detection lets detection/
             verbalization fall back before a turn ever blocks on
             a dead provider.
Context:     Adapted from provider.HealthPoller; a provider that does
             not implement the optional healthChecker interface is
             recorded as healthy without being checked.
Suitability: L2 — background polling with status tracking.
──────────────────────────────────────────────────────────────
*/

package llm

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type healthChecker interface {
	HealthCheck(ctx context.Context) HealthStatus
}

// HealthPoller continuously monitors provider health in the background.
type HealthPoller struct {
	registry *Registry
	logger   zerolog.Logger
	interval time.Duration

	mu             sync.RWMutex
	lastStatus     map[string]bool
	statusChangeCB func(provider string, healthy bool, status HealthStatus)

	cancel context.CancelFunc
	done   chan struct{}
}

// NewHealthPoller creates a poller that checks all providers at the
// given interval (minimum 5 seconds).
func NewHealthPoller(registry *Registry, logger zerolog.Logger, interval time.Duration) *HealthPoller {
	if interval < 5*time.Second {
		interval = 5 * time.Second
	}
	return &HealthPoller{
		registry:   registry,
		logger:     logger.With().Str("component", "llm_health_poller").Logger(),
		interval:   interval,
		lastStatus: make(map[string]bool),
		done:       make(chan struct{}),
	}
}

// OnStatusChange registers a callback invoked on health transitions.
func (hp *HealthPoller) OnStatusChange(cb func(provider string, healthy bool, status HealthStatus)) {
	hp.statusChangeCB = cb
}

// Start begins the background polling loop.
func (hp *HealthPoller) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	hp.cancel = cancel
	hp.logger.Info().Dur("interval", hp.interval).Msg("starting llm provider health poller")
	go hp.pollLoop(ctx)
}

// Stop gracefully shuts down the poller and waits for it to finish.
func (hp *HealthPoller) Stop() {
	if hp.cancel != nil {
		hp.cancel()
	}
	<-hp.done
	hp.logger.Info().Msg("llm health poller stopped")
}

func (hp *HealthPoller) pollLoop(ctx context.Context) {
	defer close(hp.done)
	hp.poll(ctx)

	ticker := time.NewTicker(hp.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hp.poll(ctx)
		}
	}
}

func (hp *HealthPoller) poll(ctx context.Context) {
	pollCtx, cancel := context.WithTimeout(ctx, hp.interval/2)
	defer cancel()

	hp.registry.mu.RLock()
	providers := make(map[string]Gateway, len(hp.registry.providers))
	for name, g := range hp.registry.providers {
		providers[name] = g
	}
	hp.registry.mu.RUnlock()

	hp.mu.Lock()
	defer hp.mu.Unlock()

	for name, g := range providers {
		checker, ok := g.(healthChecker)
		var status HealthStatus
		if ok {
			status = checker.HealthCheck(pollCtx)
		} else {
			status = HealthStatus{Healthy: true, LastCheck: time.Now()}
		}
		hp.registry.SetHealth(name, status)

		wasHealthy, known := hp.lastStatus[name]
		if known && wasHealthy != status.Healthy {
			transition := "recovered"
			if !status.Healthy {
				transition = "degraded"
			}
			hp.logger.Warn().Str("provider", name).Str("transition", transition).Str("error", status.Error).Msg("llm provider status change")
			if hp.statusChangeCB != nil {
				hp.statusChangeCB(name, status.Healthy, status)
			}
		}
		hp.lastStatus[name] = status.Healthy
	}
}

// IsHealthy returns whether a specific provider was healthy at last check.
func (hp *HealthPoller) IsHealthy(name string) bool {
	hp.mu.RLock()
	defer hp.mu.RUnlock()
	healthy, ok := hp.lastStatus[name]
	return ok && healthy
}
