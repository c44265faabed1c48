package forecast

import (
	"math"
	"testing"
)

func TestARIMAConstantSeriesFallsBack(t *testing.T) {
	series := constantSeries(50, 42.5)
	f := NewARIMAForecaster("TEST")

	summary, err := f.Train(series)
	if err != nil {
		t.Fatalf("train on constant series should fall back, got %v", err)
	}
	if summary.Order != "(1,0,1)" {
		t.Fatalf("expected fallback order (1,0,1), got %s", summary.Order)
	}

	res, err := f.Predict(series, 10)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	for i, p := range res.Predictions {
		if !almostEqual(p, 42.5, 1e-6) {
			t.Fatalf("step %d: expected ~42.5, got %v", i+1, p)
		}
	}
}

func TestARIMANoisySeriesTrains(t *testing.T) {
	series := syntheticSeries(120, func(i int) float64 {
		return 100 + 0.5*float64(i) + 3*math.Sin(float64(i)/4)
	})
	f := NewARIMAForecaster("TEST")
	summary, err := f.Train(series)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if summary.Order != "(1,1,1)" {
		t.Fatalf("expected order (1,1,1), got %s", summary.Order)
	}

	res, err := f.Predict(series, 15)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if len(res.Predictions) != 15 || len(res.Dates) != 15 {
		t.Fatalf("expected 15 predictions and dates, got %d/%d", len(res.Predictions), len(res.Dates))
	}
	for _, p := range res.Predictions {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			t.Fatalf("non-finite prediction: %v", res.Predictions)
		}
	}
}

func TestARIMAPredictBeforeTrain(t *testing.T) {
	f := NewARIMAForecaster("TEST")
	if _, err := f.Predict(linearSeries(60), 5); !IsKind(err, KindInvalidState) {
		t.Fatalf("expected invalid-state error, got %v", err)
	}
}

func TestARIMAInsufficientData(t *testing.T) {
	f := NewARIMAForecaster("TEST")
	if _, err := f.Train(linearSeries(5)); !IsKind(err, KindInsufficientData) {
		t.Fatalf("expected insufficient-data error, got %v", err)
	}
}

func TestARIMAPredictIdempotent(t *testing.T) {
	series := syntheticSeries(80, func(i int) float64 {
		return 50 + 2*math.Cos(float64(i)/3) + 0.1*float64(i)
	})
	f := NewARIMAForecaster("TEST")
	if _, err := f.Train(series); err != nil {
		t.Fatalf("train: %v", err)
	}
	a, err := f.Predict(series, 7)
	if err != nil {
		t.Fatalf("first predict: %v", err)
	}
	b, err := f.Predict(series, 7)
	if err != nil {
		t.Fatalf("second predict: %v", err)
	}
	for i := range a.Predictions {
		if a.Predictions[i] != b.Predictions[i] {
			t.Fatalf("predictions differ at %d: %v vs %v", i, a.Predictions[i], b.Predictions[i])
		}
	}
}
