package models

import (
	"fmt"
	"time"
)

// Feature names accepted by Series.Column and Series.Matrix.
const (
	FeatureOpen   = "open"
	FeatureHigh   = "high"
	FeatureLow    = "low"
	FeatureClose  = "close"
	FeatureVolume = "volume"
)

// Candle represents a single OHLCV bar.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Symbol    string    `json:"symbol,omitempty"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Series is an ordered price history with strictly increasing timestamps.
// It is owned by the caller; forecasters read it and never mutate it.
type Series []Candle

// Closes returns the closing-price column.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i := range s {
		out[i] = s[i].Close
	}
	return out
}

// Last returns the final bar. Callers must ensure the series is non-empty.
func (s Series) Last() Candle {
	return s[len(s)-1]
}

// LastClose returns the final observed closing price, or 0 for an empty series.
func (s Series) LastClose() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].Close
}

// Column extracts a single named feature column.
func (s Series) Column(feature string) ([]float64, error) {
	out := make([]float64, len(s))
	for i := range s {
		v, err := s[i].Feature(feature)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Matrix extracts the named feature columns as rows of feature vectors,
// one row per bar, columns in the given order.
func (s Series) Matrix(features []string) ([][]float64, error) {
	rows := make([][]float64, len(s))
	for i := range s {
		row := make([]float64, len(features))
		for j, f := range features {
			v, err := s[i].Feature(f)
			if err != nil {
				return nil, err
			}
			row[j] = v
		}
		rows[i] = row
	}
	return rows, nil
}

// Feature returns the named numeric field of the bar.
func (c Candle) Feature(name string) (float64, error) {
	switch name {
	case FeatureOpen:
		return c.Open, nil
	case FeatureHigh:
		return c.High, nil
	case FeatureLow:
		return c.Low, nil
	case FeatureClose:
		return c.Close, nil
	case FeatureVolume:
		return c.Volume, nil
	default:
		return 0, fmt.Errorf("unknown feature %q", name)
	}
}
