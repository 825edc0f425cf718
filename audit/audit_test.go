package audit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestRecordFlushesToMemorySink(t *testing.T) {
	sink := NewMemorySink()
	p := NewPipeline(zerolog.Nop(), sink, Config{BufferSize: 10, BatchSize: 2, FlushInterval: 20 * time.Millisecond})
	p.Start(context.Background())

	p.Record("acme", "ev1", "step_transition", "1->2")
	p.Record("acme", "ev1", "hil_approved", "offer_message")

	time.Sleep(100 * time.Millisecond)
	p.Stop()

	events := sink.All()
	if len(events) != 2 {
		t.Fatalf("expected 2 flushed events, got %d", len(events))
	}
}

func TestJSONFileSinkAppendsNDJSON(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/audit.ndjson"
	sink, err := NewJSONFileSink(path)
	if err != nil {
		t.Fatalf("NewJSONFileSink: %v", err)
	}
	if err := sink.Write(context.Background(), []Event{{TenantID: "acme", Kind: "step_transition", Detail: "1->2"}}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	sink.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected non-empty audit file")
	}
}

func TestDroppedWhenBufferFull(t *testing.T) {
	sink := NewMemorySink()
	p := NewPipeline(zerolog.Nop(), sink, Config{BufferSize: 1, BatchSize: 100, FlushInterval: time.Hour})
	// No Start(): the channel never drains, so a second Record must drop.
	p.Record("acme", "ev1", "step_transition", "a")
	p.Record("acme", "ev1", "step_transition", "b")
	if p.dropped != 1 {
		t.Fatalf("expected exactly 1 dropped event, got %d", p.dropped)
	}
}
