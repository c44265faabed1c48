package models

import "time"

// Trend summarizes the direction of a forecast.
type Trend string

const (
	TrendBullish Trend = "bullish"
	TrendBearish Trend = "bearish"
)

// TrendOf compares the last and first predicted values. Equal values fall
// back to bearish.
func TrendOf(predictions []float64) Trend {
	if len(predictions) == 0 {
		return TrendBearish
	}
	if predictions[len(predictions)-1] > predictions[0] {
		return TrendBullish
	}
	return TrendBearish
}

// ForecastResult is the value object every forecaster produces: one point
// estimate per requested horizon step, aligned 1:1 with calendar dates that
// start the day after the last historical bar. Dates are plain calendar
// days; the core knows nothing about market calendars.
type ForecastResult struct {
	Predictions     []float64 `json:"predictions"`
	Dates           []string  `json:"dates"`
	ModelType       string    `json:"model_type"`
	LastActualPrice float64   `json:"last_actual_price"`
	Trend           Trend     `json:"trend"`

	// Ensemble-only diagnostics: the per-member results that went into the
	// blend, the weights applied, and per-member prediction failures.
	Individual map[string]*ForecastResult `json:"individual_predictions,omitempty"`
	Weights    map[string]float64         `json:"model_weights,omitempty"`
	Errors     map[string]string          `json:"model_errors,omitempty"`
}

// TrainingSummary reports what a Train call did.
type TrainingSummary struct {
	ModelType    string    `json:"model_type"`
	Symbol       string    `json:"symbol"`
	TrainedAt    time.Time `json:"trained_at"`
	Observations int       `json:"observations"`

	// Model-specific fields, populated by the variant that owns them.
	Order         string  `json:"model_order,omitempty"`    // autoregressive
	EpochsTrained int     `json:"epochs_trained,omitempty"` // sequence
	FinalLoss     float64 `json:"final_loss,omitempty"`
	FinalValLoss  float64 `json:"final_val_loss,omitempty"`

	// Ensemble-only: per-member summaries and training failures.
	Members      map[string]*TrainingSummary `json:"individual_results,omitempty"`
	MemberErrors map[string]string           `json:"errors,omitempty"`
	Weights      map[string]float64          `json:"model_weights,omitempty"`
}

// EvaluationMetrics is derived by comparing an actual sequence against a
// predicted one. DirectionalAccuracy is NaN when fewer than two points were
// compared.
type EvaluationMetrics struct {
	MSE                 float64 `json:"mse"`
	MAE                 float64 `json:"mae"`
	RMSE                float64 `json:"rmse"`
	RSquared            float64 `json:"r2"`
	DirectionalAccuracy float64 `json:"directional_accuracy"`
}
