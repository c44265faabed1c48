package forecast

import (
	"gonum.org/v1/gonum/stat"

	"StockCast/internal/domain/models"
)

// DefaultTrendLookback is the window of recent closes the trend baseline
// fits against.
const DefaultTrendLookback = 30

// TrendForecaster is the lightweight baseline: a first-degree polynomial fit
// over the last lookback closes, extrapolated linearly from the last
// observed price.
type TrendForecaster struct {
	state
	lookback int

	slope     float64
	intercept float64
}

// NewTrendForecaster builds an untrained trend baseline. A non-positive
// lookback falls back to the default.
func NewTrendForecaster(symbol string, lookback int) *TrendForecaster {
	if lookback <= 0 {
		lookback = DefaultTrendLookback
	}
	return &TrendForecaster{
		state:    state{symbol: symbol, modelType: ModelTrend},
		lookback: lookback,
	}
}

// Train fits slope and intercept over the last lookback closes. It requires
// lookback+1 observations.
func (f *TrendForecaster) Train(history models.Series) (*models.TrainingSummary, error) {
	min := f.lookback + 1
	if len(history) < min {
		return nil, errInsufficientData(ModelTrend, min, len(history))
	}

	window := history.Closes()[len(history)-f.lookback:]
	xs := make([]float64, len(window))
	for i := range xs {
		xs[i] = float64(i)
	}
	f.intercept, f.slope = stat.LinearRegression(xs, window, nil, false)
	f.markTrained()
	return f.summary(len(history)), nil
}

// Predict extrapolates last_price + slope*step for step 1..horizon. The
// extrapolation is anchored at the true last observed price rather than the
// fit's own endpoint, so a non-zero boundary residual does not shift the
// forecast.
func (f *TrendForecaster) Predict(history models.Series, horizon int) (*models.ForecastResult, error) {
	if !f.trained {
		return nil, errInvalidState(ModelTrend)
	}
	if err := validateHorizon(horizon); err != nil {
		return nil, err
	}

	last := history.LastClose()
	predictions := make([]float64, horizon)
	for i := 0; i < horizon; i++ {
		predictions[i] = last + f.slope*float64(i+1)
	}
	return newResult(ModelTrend, history, predictions), nil
}
