package logger

import (
	"context"
	"testing"
	"time"
)

type capturePublisher struct {
	batches chan []AggregatedLogEntry
}

func (p *capturePublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	batch, ok := payload.([]AggregatedLogEntry)
	if !ok {
		return nil
	}
	p.batches <- batch
	return nil
}

func awaitBatch(t *testing.T, p *capturePublisher) []AggregatedLogEntry {
	t.Helper()
	select {
	case batch := <-p.batches:
		return batch
	case <-time.After(2 * time.Second):
		t.Fatal("no batch published")
		return nil
	}
}

func TestCollectorFlushesAtThreshold(t *testing.T) {
	pub := &capturePublisher{batches: make(chan []AggregatedLogEntry, 1)}
	c := NewLogCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 2,
		Topic:          "logs.errors",
		Publisher:      pub,
	})
	defer c.Close()

	fields := map[string]interface{}{"symbol": "AAPL"}
	c.AddLog("error", "provider fetch failed", fields, "provider.go:42")
	c.AddLog("error", "provider fetch failed", fields, "provider.go:42")
	c.AddLog("error", "bar insert failed", nil, "store.go:10")

	batch := awaitBatch(t, pub)
	if len(batch) != 2 {
		t.Fatalf("batch size = %d, want 2 deduplicated entries", len(batch))
	}
	for _, e := range batch {
		if e.Message == "provider fetch failed" && e.Count != 2 {
			t.Errorf("repeated entry count = %d, want 2", e.Count)
		}
	}
}

func TestCollectorFlushesRemainderOnClose(t *testing.T) {
	pub := &capturePublisher{batches: make(chan []AggregatedLogEntry, 1)}
	c := NewLogCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 100,
		Topic:          "logs.errors",
		Publisher:      pub,
	})

	c.AddLog("error", "stream disconnected", nil, "stream.go:88")
	c.Close()

	batch := awaitBatch(t, pub)
	if len(batch) != 1 || batch[0].Message != "stream disconnected" {
		t.Fatalf("unexpected final batch: %+v", batch)
	}
}

func TestEntryKeyIgnoresFieldOrder(t *testing.T) {
	a := map[string]interface{}{"symbol": "AAPL", "attempt": 2}
	b := map[string]interface{}{"attempt": 2, "symbol": "AAPL"}
	if entryKey("error", "m", a, "c") != entryKey("error", "m", b, "c") {
		t.Error("same fields in different order produced different keys")
	}
	if entryKey("error", "m", a, "c") == entryKey("warn", "m", a, "c") {
		t.Error("different levels collided")
	}
}
