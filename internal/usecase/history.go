package usecase

import (
	"context"
	"fmt"
	"time"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	applogger "StockCast/pkg/logger"
	"StockCast/pkg/util"
)

// HistoryUseCase fetches historical bars, persists them, and serves them to
// the API and the forecasting service. The provider is the source of truth;
// the bar store is a write-behind archive.
type HistoryUseCase struct {
	provider domrepo.HistoryProvider
	store    domrepo.BarStore
	metrics  domrepo.Metrics
	l        *applogger.Logger
}

func NewHistoryUseCase(provider domrepo.HistoryProvider, store domrepo.BarStore, metrics domrepo.Metrics, l *applogger.Logger) *HistoryUseCase {
	return &HistoryUseCase{provider: provider, store: store, metrics: metrics, l: l}
}

type GetHistoryParams struct {
	Symbol string
	Period string // 1mo, 3mo, 6mo, 1y, 2y, 5y
	Limit  int
}

type GetHistoryResult struct {
	Symbol  string        `json:"symbol"`
	Period  string        `json:"period"`
	From    time.Time     `json:"from"`
	To      time.Time     `json:"to"`
	Count   int           `json:"count"`
	Candles models.Series `json:"candles"`
}

// GetHistory fetches the symbol's daily bars for the period. Fetched bars
// are archived to the bar store best-effort; an archive failure never fails
// the read path.
func (uc *HistoryUseCase) GetHistory(ctx context.Context, p GetHistoryParams) (*GetHistoryResult, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.Limit <= 0 {
		p.Limit = 10000
	}

	now := time.Now().UTC()
	from := util.PeriodStart(now, p.Period)

	start := time.Now()
	series, err := uc.provider.FetchHistory(ctx, p.Symbol, from, now)
	if err != nil {
		uc.metrics.RecordError("history_fetch")
		return nil, fmt.Errorf("get history: %w", err)
	}
	uc.metrics.RecordLatency("history_fetch", time.Since(start).Seconds())

	if uc.store != nil && len(series) > 0 {
		bars := make([]*models.Candle, len(series))
		for i := range series {
			bars[i] = &series[i]
		}
		if err := uc.store.StoreBars(ctx, bars, domrepo.TF1d); err != nil {
			uc.metrics.RecordError("history_archive")
			if uc.l != nil {
				uc.l.Warn("bar archive failed",
					applogger.String("symbol", p.Symbol),
					applogger.Error(err),
				)
			}
		}
	}

	if len(series) > p.Limit {
		series = series[len(series)-p.Limit:]
	}
	return &GetHistoryResult{
		Symbol:  p.Symbol,
		Period:  p.Period,
		From:    from,
		To:      now,
		Count:   len(series),
		Candles: series,
	}, nil
}

// GetQuote fetches the real-time snapshot for a symbol.
func (uc *HistoryUseCase) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	return uc.provider.FetchQuote(ctx, symbol)
}

// GetStoredBars reads archived bars from the bar store, for callers that
// want the local copy instead of a provider round-trip.
func (uc *HistoryUseCase) GetStoredBars(ctx context.Context, symbol string, from, to time.Time, tf domrepo.Timeframe) (models.Series, error) {
	if uc.store == nil {
		return nil, fmt.Errorf("bar store not configured")
	}
	return uc.store.GetBars(ctx, symbol, from, to, tf)
}
