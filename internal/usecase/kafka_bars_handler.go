package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	pkgkafka "StockCast/pkg/kafka"
)

// KafkaBarsHandler consumes tick messages from Kafka and aggregates them
// into one-minute OHLCV bars. A bar is flushed to the bar store when a tick
// for a later minute arrives for the same symbol.
type KafkaBarsHandler struct {
	topic   string
	store   domrepo.BarStore
	metrics domrepo.Metrics

	mu   sync.Mutex
	open map[string]*models.Candle // symbol -> bar under construction
}

func NewKafkaBarsHandler(topic string, store domrepo.BarStore, metrics domrepo.Metrics) *KafkaBarsHandler {
	return &KafkaBarsHandler{
		topic:   topic,
		store:   store,
		metrics: metrics,
		open:    make(map[string]*models.Candle),
	}
}

func (h *KafkaBarsHandler) Topic() string { return h.topic }

// incoming message schema: {symbol, t, p, v} with t in unix seconds
func (h *KafkaBarsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol string  `json:"symbol"`
		T      int64   `json:"t"`
		P      float64 `json:"p"`
		V      float64 `json:"v"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.Symbol == "" || m.T == 0 {
		return nil
	}
	if m.T > 1e11 { // ms
		m.T = m.T / 1000
	}
	ts := time.Unix(m.T, 0).UTC()
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(ts).Seconds())

	closed := h.apply(m.Symbol, ts.Truncate(time.Minute), m.P, m.V)
	if closed == nil {
		return nil
	}

	start := time.Now()
	err := h.store.StoreBar(ctx, closed, domrepo.TF1m)
	h.metrics.RecordLatency("bar_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	return nil
}

// apply folds a tick into the symbol's open bar and returns the previous
// bar when the tick starts a new minute.
func (h *KafkaBarsHandler) apply(symbol string, bucket time.Time, price, volume float64) *models.Candle {
	h.mu.Lock()
	defer h.mu.Unlock()

	cur, ok := h.open[symbol]
	if !ok || bucket.After(cur.Timestamp) {
		h.open[symbol] = &models.Candle{
			Timestamp: bucket,
			Symbol:    symbol,
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			Volume:    volume,
		}
		if ok {
			return cur
		}
		return nil
	}
	if bucket.Before(cur.Timestamp) {
		// Late tick for an already-flushed minute; drop it.
		return nil
	}

	if price > cur.High {
		cur.High = price
	}
	if price < cur.Low {
		cur.Low = price
	}
	cur.Close = price
	cur.Volume += volume
	return nil
}

// Flush writes all open bars to the store. Called on shutdown so partial
// minutes are not lost.
func (h *KafkaBarsHandler) Flush(ctx context.Context) error {
	h.mu.Lock()
	bars := make([]*models.Candle, 0, len(h.open))
	for _, c := range h.open {
		bars = append(bars, c)
	}
	h.open = make(map[string]*models.Candle)
	h.mu.Unlock()

	if len(bars) == 0 {
		return nil
	}
	return h.store.StoreBars(ctx, bars, domrepo.TF1m)
}

var _ pkgkafka.MessageHandler = (*KafkaBarsHandler)(nil)
