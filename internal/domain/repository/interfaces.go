package repository

import (
	"context"
	"time"

	"StockCast/internal/domain/models"
)

// HistoryProvider fetches historical bars and real-time quotes from a
// market-data provider over HTTP.
type HistoryProvider interface {
	FetchHistory(ctx context.Context, symbol string, from, to time.Time) (models.Series, error)
	FetchQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

// TickStream is a live trade stream from a market-data provider.
type TickStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher publishes ticks and completed forecasts to the message bus.
type Publisher interface {
	PublishTick(ctx context.Context, t *models.Tick) error
	PublishTicks(ctx context.Context, ticks []*models.Tick) error
	PublishForecast(ctx context.Context, symbol string, res *models.ForecastResult) error
	Close() error
}

// BarStore persists and serves OHLCV bars.
type BarStore interface {
	Init(ctx context.Context) error
	StoreBar(ctx context.Context, bar *models.Candle, tf Timeframe) error
	StoreBars(ctx context.Context, bars []*models.Candle, tf Timeframe) error
	GetBars(ctx context.Context, symbol string, from, to time.Time, tf Timeframe) (models.Series, error)
	GetLatestBars(ctx context.Context, symbol string, n int, tf Timeframe) (models.Series, error)
	Health(ctx context.Context) error
	Close() error
}

// Metrics records operational metrics.
type Metrics interface {
	RecordFetch(source, symbol string)
	RecordTraining(model string, ok bool)
	RecordForecast(model, symbol string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
