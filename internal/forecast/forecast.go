// Package forecast implements the price forecasting core: a family of
// interchangeable time-series predictors behind one contract, composable
// into a weighted ensemble. The core is synchronous and CPU-bound; it
// fetches nothing, persists nothing, and reads no global configuration.
// All tunables arrive through constructors.
package forecast

import (
	"fmt"
	"time"

	"StockCast/internal/domain/models"
	"StockCast/pkg/util"
)

// Model type labels produced in results and accepted (case-insensitively)
// by the factory.
const (
	ModelTrend    = "Trend"
	ModelARIMA    = "ARIMA"
	ModelLSTM     = "LSTM"
	ModelSeasonal = "Seasonal"
	ModelEnsemble = "Ensemble"
)

// Forecaster is the contract every predictor implements. Instances are
// single-owner and not safe for concurrent use; train once (re-training
// replaces prior state), then predict any number of times.
type Forecaster interface {
	Symbol() string
	ModelType() string
	IsTrained() bool
	TrainedAt() time.Time

	// Train fits internal state from history. It must be safe to call more
	// than once; each call is a full re-fit.
	Train(history models.Series) (*models.TrainingSummary, error)

	// Predict produces horizon point estimates. It fails with an
	// invalid-state error when called before Train, and never mutates
	// history or trained state.
	Predict(history models.Series, horizon int) (*models.ForecastResult, error)
}

// state carries the lifecycle fields shared by all variants. Variants embed
// it; there is no shared mutable fitting state beyond these fields.
type state struct {
	symbol    string
	modelType string
	trained   bool
	trainedAt time.Time
}

func (s *state) Symbol() string       { return s.symbol }
func (s *state) ModelType() string    { return s.modelType }
func (s *state) IsTrained() bool      { return s.trained }
func (s *state) TrainedAt() time.Time { return s.trainedAt }

func (s *state) markTrained() {
	s.trained = true
	s.trainedAt = time.Now()
}

func (s *state) summary(observations int) *models.TrainingSummary {
	return &models.TrainingSummary{
		ModelType:    s.modelType,
		Symbol:       s.symbol,
		TrainedAt:    s.trainedAt,
		Observations: observations,
	}
}

// newResult assembles the standard ForecastResult for a prediction vector.
func newResult(modelType string, history models.Series, predictions []float64) *models.ForecastResult {
	return &models.ForecastResult{
		Predictions:     predictions,
		Dates:           util.ForecastDates(history.Last().Timestamp, len(predictions)),
		ModelType:       modelType,
		LastActualPrice: history.LastClose(),
		Trend:           models.TrendOf(predictions),
	}
}

func validateHorizon(horizon int) error {
	if horizon <= 0 {
		return fmt.Errorf("horizon must be positive, got %d", horizon)
	}
	return nil
}
