package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	"StockCast/internal/forecast"
	"StockCast/pkg/cache"
	applogger "StockCast/pkg/logger"
)

// ErrRetrainInProgress is returned by Retrain when another worker already
// holds the symbol's retrain lock.
var ErrRetrainInProgress = errors.New("retrain already in progress")

// retrainLockTTL bounds how long a crashed worker can hold a retrain lock.
const retrainLockTTL = 5 * time.Minute

// ForecastService orchestrates the forecasting core: it pulls history
// through the history use case, trains (or reuses) a forecaster per
// (symbol, model), predicts, records metrics, and publishes completed
// forecasts to the bus. Trained forecasters are kept warm so repeated
// requests and the retrain worker share models.
type ForecastService struct {
	history *HistoryUseCase
	pub     domrepo.Publisher
	metrics domrepo.Metrics
	cache   cache.Service
	l       *applogger.Logger
	opts    []forecast.Option

	mu     sync.Mutex
	models map[string]forecast.Forecaster // key: symbol|model
}

func NewForecastService(history *HistoryUseCase, pub domrepo.Publisher, metrics domrepo.Metrics, c cache.Service, l *applogger.Logger, opts ...forecast.Option) *ForecastService {
	return &ForecastService{
		history: history,
		pub:     pub,
		metrics: metrics,
		cache:   c,
		l:       l,
		opts:    opts,
		models:  make(map[string]forecast.Forecaster),
	}
}

type ForecastParams struct {
	Symbol  string
	Model   string
	Horizon int
	Period  string
}

type ForecastOutput struct {
	Symbol   string                  `json:"symbol"`
	Model    string                  `json:"model"`
	Horizon  int                     `json:"horizon"`
	Result   *models.ForecastResult  `json:"result"`
	Training *models.TrainingSummary `json:"training,omitempty"`
}

// Forecast trains on the symbol's history when no warm model exists, then
// predicts horizon steps. Training errors and prediction errors surface to
// the caller unwrapped, so the handler can map the forecast error taxonomy
// to HTTP statuses.
func (s *ForecastService) Forecast(ctx context.Context, p ForecastParams) (*ForecastOutput, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}

	hist, err := s.history.GetHistory(ctx, GetHistoryParams{Symbol: p.Symbol, Period: p.Period})
	if err != nil {
		return nil, err
	}

	f, summary, err := s.forecaster(p.Symbol, p.Model, hist.Candles)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := f.Predict(hist.Candles, p.Horizon)
	if err != nil {
		s.metrics.RecordError("forecast_predict")
		return nil, err
	}
	s.metrics.RecordLatency("forecast_predict", time.Since(start).Seconds())
	s.metrics.RecordForecast(f.ModelType(), p.Symbol)

	if s.pub != nil {
		if err := s.pub.PublishForecast(ctx, p.Symbol, res); err != nil {
			s.metrics.RecordError("forecast_publish")
			if s.l != nil {
				s.l.Warn("forecast publish failed",
					applogger.String("symbol", p.Symbol),
					applogger.Error(err),
				)
			}
		}
	}

	return &ForecastOutput{
		Symbol:   p.Symbol,
		Model:    f.ModelType(),
		Horizon:  p.Horizon,
		Result:   res,
		Training: summary,
	}, nil
}

// Retrain forces a fresh fit for (symbol, model) on current history and
// replaces the warm model. Used by the retrain worker. A per-symbol cache
// lock keeps overlapping retrains from training the same model twice, and
// the symbol's cached history is invalidated so the refit sees current data.
func (s *ForecastService) Retrain(ctx context.Context, symbol, model, period string) (*models.TrainingSummary, error) {
	sym := strings.ToUpper(symbol)
	if s.cache != nil {
		lockKey := cache.Key("lock", "retrain", sym)
		ok, err := s.cache.TryLock(ctx, lockKey, retrainLockTTL)
		switch {
		case err != nil:
			// Lock backend down; proceed unlocked rather than stall retrains.
			s.metrics.RecordError("retrain_lock")
		case !ok:
			return nil, ErrRetrainInProgress
		default:
			defer func() { _ = s.cache.Unlock(ctx, lockKey) }()
		}

		if err := s.cache.DeleteByPattern(ctx, cache.KeyPattern("history", sym)); err != nil {
			s.metrics.RecordError("cache_invalidate")
		}
	}

	hist, err := s.history.GetHistory(ctx, GetHistoryParams{Symbol: symbol, Period: period})
	if err != nil {
		return nil, err
	}

	f, err := forecast.New(model, symbol, s.opts...)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	summary, err := f.Train(hist.Candles)
	s.metrics.RecordLatency("forecast_train", time.Since(start).Seconds())
	s.metrics.RecordTraining(f.ModelType(), err == nil)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.models[modelKey(symbol, f.ModelType())] = f
	s.mu.Unlock()

	if s.l != nil {
		s.l.Info("model retrained",
			applogger.String("symbol", symbol),
			applogger.String("model", f.ModelType()),
			applogger.Int("observations", summary.Observations),
		)
	}
	return summary, nil
}

// AvailableModels lists the model labels this runtime can construct.
func (s *ForecastService) AvailableModels() []string {
	return forecast.AvailableModels()
}

// forecaster returns a warm trained model for (symbol, model), training a
// new one when none exists. The returned summary is nil on a warm hit.
func (s *ForecastService) forecaster(symbol, model string, history models.Series) (forecast.Forecaster, *models.TrainingSummary, error) {
	f, err := forecast.New(model, symbol, s.opts...)
	if err != nil {
		return nil, nil, err
	}
	key := modelKey(symbol, f.ModelType())

	s.mu.Lock()
	warm, ok := s.models[key]
	s.mu.Unlock()
	if ok && warm.IsTrained() {
		return warm, nil, nil
	}

	start := time.Now()
	summary, err := f.Train(history)
	s.metrics.RecordLatency("forecast_train", time.Since(start).Seconds())
	s.metrics.RecordTraining(f.ModelType(), err == nil)
	if err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	s.models[key] = f
	s.mu.Unlock()
	return f, summary, nil
}

func modelKey(symbol, model string) string {
	return strings.ToUpper(symbol) + "|" + model
}
