package forecast

import (
	"math"
	"testing"
)

func TestSeasonalFitsWeeklyCycle(t *testing.T) {
	// 120 daily bars of trend plus a clean weekly wave. The decomposition
	// should recover both and extrapolate them.
	series := syntheticSeries(120, func(i int) float64 {
		return 100 + 0.5*float64(i) + 5*math.Sin(2*math.Pi*float64(i)/7)
	})
	f, err := NewSeasonalForecaster("TEST", SeasonalConfig{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := f.Train(series); err != nil {
		t.Fatalf("train: %v", err)
	}

	res, err := f.Predict(series, 14)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if len(res.Predictions) != 14 {
		t.Fatalf("expected 14 predictions, got %d", len(res.Predictions))
	}
	for k, p := range res.Predictions {
		i := 120 + k
		want := 100 + 0.5*float64(i) + 5*math.Sin(2*math.Pi*float64(i)/7)
		if !almostEqual(p, want, 0.5) {
			t.Fatalf("step %d: expected ~%.3f, got %.3f", k+1, want, p)
		}
	}
}

func TestSeasonalSkipsUnderSampledPeriods(t *testing.T) {
	// 60 days spans weekly cycles but well under two yearly cycles, so the
	// yearly terms must be excluded from the fit.
	series := syntheticSeries(60, func(i int) float64 {
		return 50 + 4*math.Sin(2*math.Pi*float64(i)/7)
	})
	f := newSeasonalForecaster("TEST", DefaultSeasonalConfig())
	if _, err := f.Train(series); err != nil {
		t.Fatalf("train: %v", err)
	}
	if len(f.periods) != 1 || f.periods[0].Name != "weekly" {
		t.Fatalf("expected only the weekly period, got %+v", f.periods)
	}
}

func TestSeasonalInsufficientData(t *testing.T) {
	f := newSeasonalForecaster("TEST", DefaultSeasonalConfig())
	if _, err := f.Train(linearSeries(10)); !IsKind(err, KindInsufficientData) {
		t.Fatalf("expected insufficient-data error, got %v", err)
	}
}

func TestSeasonalPredictBeforeTrain(t *testing.T) {
	f := newSeasonalForecaster("TEST", DefaultSeasonalConfig())
	if _, err := f.Predict(linearSeries(60), 5); !IsKind(err, KindInvalidState) {
		t.Fatalf("expected invalid-state error, got %v", err)
	}
}

func TestSeasonalCapabilityError(t *testing.T) {
	err := &Error{Kind: KindCapabilityUnavailable, Model: ModelSeasonal, Message: "absent"}
	if !IsKind(err, KindCapabilityUnavailable) {
		t.Fatalf("IsKind should match capability errors")
	}
	if IsKind(err, KindInsufficientData) {
		t.Fatalf("IsKind should not match a different kind")
	}
}
