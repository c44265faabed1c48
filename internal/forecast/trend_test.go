package forecast

import (
	"testing"

	"StockCast/internal/domain/models"
)

func TestTrendContinuesLinearSlope(t *testing.T) {
	series := linearSeries(60)
	f := NewTrendForecaster("TEST", 30)

	if _, err := f.Train(series); err != nil {
		t.Fatalf("train: %v", err)
	}
	res, err := f.Predict(series, 10)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if len(res.Predictions) != 10 || len(res.Dates) != 10 {
		t.Fatalf("expected 10 predictions and dates, got %d/%d", len(res.Predictions), len(res.Dates))
	}

	last := series.LastClose()
	for i, p := range res.Predictions {
		want := last + 2*float64(i+1)
		if !almostEqual(p, want, 1e-6) {
			t.Fatalf("step %d: expected %.6f, got %.6f", i+1, want, p)
		}
	}
	if res.Trend != models.TrendBullish {
		t.Fatalf("expected bullish trend, got %s", res.Trend)
	}
	if res.LastActualPrice != last {
		t.Fatalf("expected last actual %.2f, got %.2f", last, res.LastActualPrice)
	}
}

func TestTrendDatesStartDayAfterHistory(t *testing.T) {
	series := linearSeries(40)
	f := NewTrendForecaster("TEST", 30)
	if _, err := f.Train(series); err != nil {
		t.Fatalf("train: %v", err)
	}
	res, err := f.Predict(series, 5)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	wantFirst := series.Last().Timestamp.AddDate(0, 0, 1).Format("2006-01-02")
	if res.Dates[0] != wantFirst {
		t.Fatalf("expected first date %s, got %s", wantFirst, res.Dates[0])
	}
	for i := 1; i < len(res.Dates); i++ {
		if res.Dates[i] <= res.Dates[i-1] {
			t.Fatalf("dates not strictly increasing: %v", res.Dates)
		}
	}
}

func TestTrendPredictBeforeTrain(t *testing.T) {
	f := NewTrendForecaster("TEST", 30)
	if _, err := f.Predict(linearSeries(60), 5); !IsKind(err, KindInvalidState) {
		t.Fatalf("expected invalid-state error, got %v", err)
	}
}

func TestTrendInsufficientData(t *testing.T) {
	f := NewTrendForecaster("TEST", 30)
	_, err := f.Train(linearSeries(30)) // needs lookback+1
	if !IsKind(err, KindInsufficientData) {
		t.Fatalf("expected insufficient-data error, got %v", err)
	}
}

func TestTrendBearishOnFallingSeries(t *testing.T) {
	series := syntheticSeries(50, func(i int) float64 { return 500 - 3*float64(i) })
	f := NewTrendForecaster("TEST", 20)
	if _, err := f.Train(series); err != nil {
		t.Fatalf("train: %v", err)
	}
	res, err := f.Predict(series, 5)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if res.Trend != models.TrendBearish {
		t.Fatalf("expected bearish trend, got %s", res.Trend)
	}
}

func TestTrendRetrainReplacesFit(t *testing.T) {
	f := NewTrendForecaster("TEST", 10)
	if _, err := f.Train(linearSeries(30)); err != nil {
		t.Fatalf("first train: %v", err)
	}
	falling := syntheticSeries(30, func(i int) float64 { return 500 - 5*float64(i) })
	if _, err := f.Train(falling); err != nil {
		t.Fatalf("retrain: %v", err)
	}
	res, err := f.Predict(falling, 3)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if res.Predictions[0] >= falling.LastClose() {
		t.Fatalf("retrained model should follow the falling series, got %v", res.Predictions)
	}
}
