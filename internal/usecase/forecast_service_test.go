package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"StockCast/internal/domain/models"
	"StockCast/internal/forecast"
	"StockCast/pkg/cache"
)

type fakeProvider struct {
	series  models.Series
	fetches int
}

func (p *fakeProvider) FetchHistory(ctx context.Context, symbol string, from, to time.Time) (models.Series, error) {
	p.fetches++
	return p.series, nil
}

func (p *fakeProvider) FetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	return &models.Quote{Symbol: symbol, Price: p.series.LastClose()}, nil
}

type fakePublisher struct {
	forecasts []string
}

func (f *fakePublisher) PublishTick(ctx context.Context, t *models.Tick) error        { return nil }
func (f *fakePublisher) PublishTicks(ctx context.Context, ticks []*models.Tick) error { return nil }
func (f *fakePublisher) PublishForecast(ctx context.Context, symbol string, res *models.ForecastResult) error {
	f.forecasts = append(f.forecasts, symbol)
	return nil
}
func (f *fakePublisher) Close() error { return nil }

func risingSeries(n int) models.Series {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := make(models.Series, n)
	for i := range s {
		price := 100 + float64(i)
		s[i] = models.Candle{
			Timestamp: start.AddDate(0, 0, i),
			Symbol:    "AAPL",
			Open:      price,
			High:      price + 1,
			Low:       price - 1,
			Close:     price,
			Volume:    1000,
		}
	}
	return s
}

func newTestService(t *testing.T) (*ForecastService, *fakeProvider, *fakePublisher, cache.Service) {
	t.Helper()
	provider := &fakeProvider{series: risingSeries(90)}
	pub := &fakePublisher{}
	m := &fakeMetrics{}
	c := cache.NewMemoryCache()
	t.Cleanup(func() { _ = c.Close() })
	history := NewHistoryUseCase(provider, nil, m, nil)
	svc := NewForecastService(history, pub, m, c, nil)
	return svc, provider, pub, c
}

func TestForecastTrainsAndPublishes(t *testing.T) {
	svc, _, pub, _ := newTestService(t)

	out, err := svc.Forecast(context.Background(), ForecastParams{
		Symbol: "AAPL", Model: "trend", Horizon: 5, Period: "1y",
	})
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if out.Model != "Trend" {
		t.Fatalf("expected Trend, got %s", out.Model)
	}
	if len(out.Result.Predictions) != 5 {
		t.Fatalf("expected 5 predictions, got %d", len(out.Result.Predictions))
	}
	if out.Training == nil {
		t.Fatalf("cold forecast should report a training summary")
	}
	if out.Result.Trend != models.TrendBullish {
		t.Fatalf("rising series should forecast bullish, got %s", out.Result.Trend)
	}
	if len(pub.forecasts) != 1 || pub.forecasts[0] != "AAPL" {
		t.Fatalf("expected one published forecast for AAPL, got %v", pub.forecasts)
	}
}

func TestForecastReusesWarmModel(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	params := ForecastParams{Symbol: "AAPL", Model: "trend", Horizon: 3, Period: "1y"}

	first, err := svc.Forecast(ctx, params)
	if err != nil {
		t.Fatalf("first forecast: %v", err)
	}
	if first.Training == nil {
		t.Fatalf("first call should train")
	}

	second, err := svc.Forecast(ctx, params)
	if err != nil {
		t.Fatalf("second forecast: %v", err)
	}
	if second.Training != nil {
		t.Fatalf("second call should reuse the warm model")
	}
}

func TestForecastSymbolKeyIsCaseInsensitive(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Forecast(ctx, ForecastParams{Symbol: "aapl", Model: "trend", Horizon: 3, Period: "1y"}); err != nil {
		t.Fatalf("lower-case forecast: %v", err)
	}
	out, err := svc.Forecast(ctx, ForecastParams{Symbol: "AAPL", Model: "trend", Horizon: 3, Period: "1y"})
	if err != nil {
		t.Fatalf("upper-case forecast: %v", err)
	}
	if out.Training != nil {
		t.Fatalf("symbol casing should not cause a retrain")
	}
}

func TestForecastUnknownModel(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.Forecast(context.Background(), ForecastParams{
		Symbol: "AAPL", Model: "oracle", Horizon: 3, Period: "1y",
	})
	if !forecast.IsKind(err, forecast.KindUnknownModelType) {
		t.Fatalf("expected unknown model type error, got %v", err)
	}
}

func TestForecastRequiresSymbol(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	if _, err := svc.Forecast(context.Background(), ForecastParams{Model: "trend", Horizon: 3}); err == nil {
		t.Fatalf("expected error for missing symbol")
	}
}

func TestRetrainReplacesWarmModel(t *testing.T) {
	svc, provider, _, _ := newTestService(t)
	ctx := context.Background()
	params := ForecastParams{Symbol: "AAPL", Model: "trend", Horizon: 3, Period: "1y"}

	if _, err := svc.Forecast(ctx, params); err != nil {
		t.Fatalf("initial forecast: %v", err)
	}

	summary, err := svc.Retrain(ctx, "AAPL", "trend", "1y")
	if err != nil {
		t.Fatalf("retrain: %v", err)
	}
	if summary.Observations != len(provider.series) {
		t.Fatalf("expected %d observations, got %d", len(provider.series), summary.Observations)
	}

	// Warm model is still warm after the swap.
	out, err := svc.Forecast(ctx, params)
	if err != nil {
		t.Fatalf("post-retrain forecast: %v", err)
	}
	if out.Training != nil {
		t.Fatalf("retrain should leave a warm model behind")
	}
}

func TestRetrainSkipsWhenLockHeld(t *testing.T) {
	svc, _, _, c := newTestService(t)
	ctx := context.Background()

	ok, err := c.TryLock(ctx, cache.Key("lock", "retrain", "AAPL"), time.Minute)
	if err != nil || !ok {
		t.Fatalf("pre-acquire lock: ok=%v err=%v", ok, err)
	}

	if _, err := svc.Retrain(ctx, "aapl", "trend", "1y"); !errors.Is(err, ErrRetrainInProgress) {
		t.Fatalf("expected ErrRetrainInProgress, got %v", err)
	}
}

func TestRetrainReleasesLock(t *testing.T) {
	svc, _, _, c := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Retrain(ctx, "AAPL", "trend", "1y"); err != nil {
		t.Fatalf("retrain: %v", err)
	}

	ok, err := c.TryLock(ctx, cache.Key("lock", "retrain", "AAPL"), time.Minute)
	if err != nil || !ok {
		t.Fatalf("lock should be free after retrain: ok=%v err=%v", ok, err)
	}
}

func TestRetrainInvalidatesCachedHistory(t *testing.T) {
	svc, _, _, c := newTestService(t)
	ctx := context.Background()

	staleKey := cache.Key("history", "AAPL", 100, 200)
	if err := c.Set(ctx, staleKey, "stale bars", time.Hour); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	if _, err := svc.Retrain(ctx, "aapl", "trend", "1y"); err != nil {
		t.Fatalf("retrain: %v", err)
	}

	var v string
	if err := c.Get(ctx, staleKey, &v); !errors.Is(err, cache.ErrCacheMiss) {
		t.Fatalf("cached history should be invalidated, got %v", err)
	}
}

func TestAvailableModelsNonEmpty(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	if len(svc.AvailableModels()) == 0 {
		t.Fatalf("expected at least one available model")
	}
}
