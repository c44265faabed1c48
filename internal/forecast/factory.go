package forecast

import (
	"fmt"
	"strings"
)

// Options carries per-variant construction tunables. All tunables are passed
// explicitly; the factory reads no ambient configuration.
type Options struct {
	TrendLookback   int
	LSTM            LSTMConfig
	Seasonal        SeasonalConfig
	EnsembleMembers []string
}

// Option mutates construction Options.
type Option func(*Options)

// WithTrendLookback sets the trend baseline's fitting window.
func WithTrendLookback(n int) Option {
	return func(o *Options) { o.TrendLookback = n }
}

// WithLSTMConfig sets the sequence model's configuration.
func WithLSTMConfig(cfg LSTMConfig) Option {
	return func(o *Options) { o.LSTM = cfg }
}

// WithSeasonalConfig sets the seasonal decomposition's periods.
func WithSeasonalConfig(cfg SeasonalConfig) Option {
	return func(o *Options) { o.Seasonal = cfg }
}

// WithEnsembleMembers sets the model types an ensemble owns.
func WithEnsembleMembers(labels ...string) Option {
	return func(o *Options) { o.EnsembleMembers = labels }
}

// New resolves a model-type label, case-insensitively, to a concrete
// forecaster. Unrecognized labels fail with an unknown-model-type error;
// the seasonal label fails with a capability error when the engine is
// absent.
func New(modelType, symbol string, opts ...Option) (Forecaster, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}

	switch canonicalModelType(modelType) {
	case ModelTrend:
		return NewTrendForecaster(symbol, o.TrendLookback), nil
	case ModelARIMA:
		return NewARIMAForecaster(symbol), nil
	case ModelLSTM:
		return NewLSTMForecaster(symbol, o.LSTM), nil
	case ModelSeasonal:
		return NewSeasonalForecaster(symbol, o.Seasonal)
	case ModelEnsemble:
		return NewEnsembleForecaster(symbol, o.EnsembleMembers, opts...), nil
	default:
		return nil, &Error{
			Kind:    KindUnknownModelType,
			Message: fmt.Sprintf("unknown model type: %s", modelType),
		}
	}
}

// AvailableModels lists the labels New will accept in this runtime. The
// seasonal label appears only when its capability probe passes, so a listed
// label never fails construction with a capability error.
func AvailableModels() []string {
	labels := []string{ModelTrend, ModelARIMA, ModelLSTM, ModelEnsemble}
	if SeasonalAvailable() {
		labels = append(labels, ModelSeasonal)
	}
	return labels
}

func canonicalModelType(label string) string {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "trend", "linear":
		return ModelTrend
	case "arima":
		return ModelARIMA
	case "lstm":
		return ModelLSTM
	case "seasonal", "prophet":
		return ModelSeasonal
	case "ensemble":
		return ModelEnsemble
	default:
		return ""
	}
}
