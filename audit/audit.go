/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L2
Logic:       Async operational audit stream: step transitions, HIL
             approvals/rejections, conflict resolutions, and billing
             actions are pushed onto a buffered channel and flushed in
             batches by a background worker against a pluggable Sink.
             This is a side-channel operational log, separate from the
             per-event audit_log/activity_log fields the persistence
             layer stores with the event record (C10).
Root Cause:  Trimmed from the gateway's analytics.Pipeline, which fans
             out three event streams (request/cost/wallet) over three
             channels and three worker pools — collapsed here to the
             single operational event stream this system actually
             produces.
Context:     Started once at process boot; every handler that mutates
             state may call Record without blocking the request path.
Suitability: L2 — one buffered channel, one worker, no batching
             complexity beyond a flush interval and a max batch size.
──────────────────────────────────────────────────────────────
*/

package audit

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Event is one operational audit record.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	TenantID  string    `json:"tenant_id"`
	EventID   string    `json:"event_id,omitempty"`
	Kind      string    `json:"kind"` // step_transition | hil_approved | hil_rejected | conflict_resolved | billing_captured
	Detail    string    `json:"detail"`
}

// Sink is the destination for flushed audit batches.
type Sink interface {
	Write(ctx context.Context, events []Event) error
	Close() error
}

// Config controls buffering and flush behavior.
type Config struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
}

// DefaultConfig returns sane production defaults.
func DefaultConfig() Config {
	return Config{BufferSize: 10000, BatchSize: 200, FlushInterval: 5 * time.Second}
}

// Pipeline is the async audit ingestion engine.
type Pipeline struct {
	logger zerolog.Logger
	config Config
	sink   Sink

	ch     chan Event
	wg     sync.WaitGroup
	cancel context.CancelFunc

	received int64
	written  int64
	dropped  int64
}

// NewPipeline creates a pipeline writing to sink.
func NewPipeline(logger zerolog.Logger, sink Sink, cfg ...Config) *Pipeline {
	c := DefaultConfig()
	if len(cfg) > 0 {
		c = cfg[0]
	}
	return &Pipeline{
		logger: logger.With().Str("component", "audit-pipeline").Logger(),
		config: c,
		sink:   sink,
		ch:     make(chan Event, c.BufferSize),
	}
}

// Start launches the flush worker.
func (p *Pipeline) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(1)
	go p.worker(ctx)
	p.logger.Info().Int("buffer_size", p.config.BufferSize).Dur("flush_interval", p.config.FlushInterval).Msg("audit pipeline started")
}

// Stop drains and flushes remaining events, then closes the sink.
func (p *Pipeline) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	p.drain()
	if p.sink != nil {
		_ = p.sink.Close()
	}
	p.logger.Info().Int64("received", atomic.LoadInt64(&p.received)).Int64("written", atomic.LoadInt64(&p.written)).Int64("dropped", atomic.LoadInt64(&p.dropped)).Msg("audit pipeline stopped")
}

// Record submits an audit event. Non-blocking: drops on a full buffer
// rather than stall the request path.
func (p *Pipeline) Record(tenantID, eventID, kind, detail string) {
	e := Event{Timestamp: time.Now().UTC(), TenantID: tenantID, EventID: eventID, Kind: kind, Detail: detail}
	select {
	case p.ch <- e:
		atomic.AddInt64(&p.received, 1)
	default:
		atomic.AddInt64(&p.dropped, 1)
		p.logger.Warn().Str("tenant_id", tenantID).Str("kind", kind).Msg("audit event dropped: buffer full")
	}
}

func (p *Pipeline) worker(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.config.FlushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, p.config.BatchSize)
	for {
		select {
		case <-ctx.Done():
			if len(batch) > 0 {
				p.flush(batch)
			}
			return
		case e := <-p.ch:
			batch = append(batch, e)
			if len(batch) >= p.config.BatchSize {
				p.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				p.flush(batch)
				batch = batch[:0]
			}
		}
	}
}

func (p *Pipeline) drain() {
	batch := make([]Event, 0, p.config.BatchSize)
	for {
		select {
		case e := <-p.ch:
			batch = append(batch, e)
			if len(batch) >= p.config.BatchSize {
				p.flush(batch)
				batch = batch[:0]
			}
		default:
			if len(batch) > 0 {
				p.flush(batch)
			}
			return
		}
	}
}

func (p *Pipeline) flush(batch []Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.sink.Write(ctx, batch); err != nil {
		atomic.AddInt64(&p.dropped, int64(len(batch)))
		p.logger.Error().Err(err).Int("batch_size", len(batch)).Msg("audit batch dropped after flush failure")
		return
	}
	atomic.AddInt64(&p.written, int64(len(batch)))
}

// MemorySink accumulates events in process memory, useful for tests and
// for serving the events/{id}/activity read path without a backing store.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Write(_ context.Context, events []Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
	return nil
}

func (s *MemorySink) Close() error { return nil }

// All returns a snapshot of every recorded event.
func (s *MemorySink) All() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// JSONFileSink appends newline-delimited JSON events to a file.
type JSONFileSink struct {
	mu sync.Mutex
	f  *os.File
}

// NewJSONFileSink opens (creating if needed) path for append.
func NewJSONFileSink(path string) (*JSONFileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONFileSink{f: f}, nil
}

func (s *JSONFileSink) Write(_ context.Context, events []Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	enc := json.NewEncoder(s.f)
	for _, e := range events {
		if err := enc.Encode(e); err != nil {
			return err
		}
	}
	return nil
}

func (s *JSONFileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}
