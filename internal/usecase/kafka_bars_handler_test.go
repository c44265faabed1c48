package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
)

type fakeBarStore struct {
	stored []*models.Candle
	tfs    []domrepo.Timeframe
}

func (s *fakeBarStore) Init(ctx context.Context) error { return nil }
func (s *fakeBarStore) StoreBar(ctx context.Context, bar *models.Candle, tf domrepo.Timeframe) error {
	s.stored = append(s.stored, bar)
	s.tfs = append(s.tfs, tf)
	return nil
}
func (s *fakeBarStore) StoreBars(ctx context.Context, bars []*models.Candle, tf domrepo.Timeframe) error {
	for _, b := range bars {
		s.stored = append(s.stored, b)
		s.tfs = append(s.tfs, tf)
	}
	return nil
}
func (s *fakeBarStore) GetBars(ctx context.Context, symbol string, from, to time.Time, tf domrepo.Timeframe) (models.Series, error) {
	return nil, nil
}
func (s *fakeBarStore) GetLatestBars(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) (models.Series, error) {
	return nil, nil
}
func (s *fakeBarStore) Health(ctx context.Context) error { return nil }
func (s *fakeBarStore) Close() error                     { return nil }

type fakeMetrics struct {
	errors []string
}

func (m *fakeMetrics) RecordFetch(source, symbol string)        {}
func (m *fakeMetrics) RecordTraining(model string, ok bool)     {}
func (m *fakeMetrics) RecordForecast(model, symbol string)      {}
func (m *fakeMetrics) RecordError(kind string)                  { m.errors = append(m.errors, kind) }
func (m *fakeMetrics) RecordLastPrice(symbol string, p float64) {}
func (m *fakeMetrics) RecordLatency(op string, seconds float64) {}

func tickMsg(t *testing.T, symbol string, ts time.Time, price, volume float64) []byte {
	t.Helper()
	b, err := json.Marshal(map[string]interface{}{
		"symbol": symbol,
		"t":      ts.Unix(),
		"p":      price,
		"v":      volume,
	})
	if err != nil {
		t.Fatalf("marshal tick: %v", err)
	}
	return b
}

func TestBarsHandlerAggregatesWithinMinute(t *testing.T) {
	store := &fakeBarStore{}
	h := NewKafkaBarsHandler("ticks", store, &fakeMetrics{})
	ctx := context.Background()

	base := time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)
	for i, price := range []float64{100, 103, 99, 101} {
		msg := tickMsg(t, "AAPL", base.Add(time.Duration(i)*10*time.Second), price, 5)
		if err := h.Handle(ctx, msg); err != nil {
			t.Fatalf("handle tick %d: %v", i, err)
		}
	}

	// Same minute, nothing flushed yet.
	if len(store.stored) != 0 {
		t.Fatalf("expected no flush within the minute, got %d bars", len(store.stored))
	}

	// First tick of the next minute closes the bar.
	if err := h.Handle(ctx, tickMsg(t, "AAPL", base.Add(time.Minute), 102, 1)); err != nil {
		t.Fatalf("handle rollover tick: %v", err)
	}
	if len(store.stored) != 1 {
		t.Fatalf("expected 1 flushed bar, got %d", len(store.stored))
	}

	bar := store.stored[0]
	if bar.Open != 100 || bar.High != 103 || bar.Low != 99 || bar.Close != 101 {
		t.Fatalf("wrong OHLC: %+v", bar)
	}
	if bar.Volume != 20 {
		t.Fatalf("expected volume 20, got %v", bar.Volume)
	}
	if !bar.Timestamp.Equal(base) {
		t.Fatalf("expected bucket %v, got %v", base, bar.Timestamp)
	}
	if store.tfs[0] != domrepo.TF1m {
		t.Fatalf("expected 1m timeframe, got %s", store.tfs[0])
	}
}

func TestBarsHandlerTracksSymbolsIndependently(t *testing.T) {
	store := &fakeBarStore{}
	h := NewKafkaBarsHandler("ticks", store, &fakeMetrics{})
	ctx := context.Background()

	base := time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)
	_ = h.Handle(ctx, tickMsg(t, "AAPL", base, 100, 1))
	_ = h.Handle(ctx, tickMsg(t, "MSFT", base, 300, 1))

	// AAPL rolls over; MSFT stays open.
	_ = h.Handle(ctx, tickMsg(t, "AAPL", base.Add(time.Minute), 101, 1))
	if len(store.stored) != 1 {
		t.Fatalf("expected only the AAPL bar flushed, got %d", len(store.stored))
	}
	if store.stored[0].Symbol != "AAPL" {
		t.Fatalf("expected AAPL bar, got %s", store.stored[0].Symbol)
	}
}

func TestBarsHandlerDropsLateTicks(t *testing.T) {
	store := &fakeBarStore{}
	h := NewKafkaBarsHandler("ticks", store, &fakeMetrics{})
	ctx := context.Background()

	base := time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)
	_ = h.Handle(ctx, tickMsg(t, "AAPL", base.Add(time.Minute), 101, 1))
	// Tick from the previous, already-started minute must not corrupt the bar.
	_ = h.Handle(ctx, tickMsg(t, "AAPL", base, 999, 1))
	_ = h.Handle(ctx, tickMsg(t, "AAPL", base.Add(2*time.Minute), 102, 1))

	if len(store.stored) != 1 {
		t.Fatalf("expected 1 flushed bar, got %d", len(store.stored))
	}
	if store.stored[0].High == 999 {
		t.Fatalf("late tick leaked into the flushed bar")
	}
}

func TestBarsHandlerRejectsMalformedPayload(t *testing.T) {
	m := &fakeMetrics{}
	h := NewKafkaBarsHandler("ticks", &fakeBarStore{}, m)
	if err := h.Handle(context.Background(), []byte("{not json")); err == nil {
		t.Fatalf("expected unmarshal error")
	}
	if len(m.errors) == 0 {
		t.Fatalf("expected an error metric")
	}
}

func TestBarsHandlerFlushWritesOpenBars(t *testing.T) {
	store := &fakeBarStore{}
	h := NewKafkaBarsHandler("ticks", store, &fakeMetrics{})
	ctx := context.Background()

	base := time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)
	_ = h.Handle(ctx, tickMsg(t, "AAPL", base, 100, 1))
	_ = h.Handle(ctx, tickMsg(t, "MSFT", base, 300, 2))

	if err := h.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if len(store.stored) != 2 {
		t.Fatalf("expected 2 bars after flush, got %d", len(store.stored))
	}

	// Flush is drain-once; a second flush is a no-op.
	if err := h.Flush(ctx); err != nil {
		t.Fatalf("second flush: %v", err)
	}
	if len(store.stored) != 2 {
		t.Fatalf("second flush should not re-store bars")
	}
}

func TestBarsHandlerConvertsMillisecondTimestamps(t *testing.T) {
	store := &fakeBarStore{}
	h := NewKafkaBarsHandler("ticks", store, &fakeMetrics{})
	ctx := context.Background()

	base := time.Date(2025, 6, 2, 14, 30, 5, 0, time.UTC)
	msg, _ := json.Marshal(map[string]interface{}{
		"symbol": "AAPL", "t": base.UnixMilli(), "p": 100.0, "v": 1.0,
	})
	if err := h.Handle(ctx, msg); err != nil {
		t.Fatalf("handle ms tick: %v", err)
	}
	if err := h.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	want := base.Truncate(time.Minute)
	if !store.stored[0].Timestamp.Equal(want) {
		t.Fatalf("expected bucket %v, got %v", want, store.stored[0].Timestamp)
	}
}
