package forecast

import (
	"math"
	"testing"
)

// tinyLSTMConfig keeps the network small enough for fast unit tests.
func tinyLSTMConfig() LSTMConfig {
	return LSTMConfig{
		Lookback:        5,
		Hidden1:         8,
		Hidden2:         4,
		DenseSize:       4,
		Dropout:         0.1,
		LearningRate:    0.01,
		Epochs:          5,
		BatchSize:       8,
		ValidationSplit: 0.2,
		Patience:        3,
		Seed:            7,
	}
}

func TestLSTMTrainAndPredict(t *testing.T) {
	series := syntheticSeries(60, func(i int) float64 {
		return 100 + float64(i) + 2*math.Sin(float64(i)/3)
	})
	f := NewLSTMForecaster("TEST", tinyLSTMConfig())

	summary, err := f.Train(series)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if summary.EpochsTrained < 1 {
		t.Fatalf("expected at least one epoch, got %d", summary.EpochsTrained)
	}
	if math.IsNaN(summary.FinalLoss) || math.IsInf(summary.FinalLoss, 0) {
		t.Fatalf("non-finite training loss: %v", summary.FinalLoss)
	}

	res, err := f.Predict(series, 10)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if len(res.Predictions) != 10 || len(res.Dates) != 10 {
		t.Fatalf("expected 10 predictions and dates, got %d/%d", len(res.Predictions), len(res.Dates))
	}
	for i, p := range res.Predictions {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			t.Fatalf("non-finite prediction at %d: %v", i, p)
		}
	}
	if res.LastActualPrice != series.LastClose() {
		t.Fatalf("expected last actual %v, got %v", series.LastClose(), res.LastActualPrice)
	}
}

func TestLSTMPredictDeterministic(t *testing.T) {
	series := syntheticSeries(50, func(i int) float64 { return 200 + 3*float64(i) })
	f := NewLSTMForecaster("TEST", tinyLSTMConfig())
	if _, err := f.Train(series); err != nil {
		t.Fatalf("train: %v", err)
	}
	a, err := f.Predict(series, 6)
	if err != nil {
		t.Fatalf("first predict: %v", err)
	}
	b, err := f.Predict(series, 6)
	if err != nil {
		t.Fatalf("second predict: %v", err)
	}
	for i := range a.Predictions {
		if a.Predictions[i] != b.Predictions[i] {
			t.Fatalf("rollout not deterministic at %d: %v vs %v", i, a.Predictions[i], b.Predictions[i])
		}
	}
}

func TestLSTMPredictBeforeTrain(t *testing.T) {
	f := NewLSTMForecaster("TEST", tinyLSTMConfig())
	if _, err := f.Predict(linearSeries(50), 5); !IsKind(err, KindInvalidState) {
		t.Fatalf("expected invalid-state error, got %v", err)
	}
}

func TestLSTMInsufficientData(t *testing.T) {
	cfg := tinyLSTMConfig()
	f := NewLSTMForecaster("TEST", cfg)
	// len == lookback is still insufficient: a window needs a next-step target.
	if _, err := f.Train(linearSeries(cfg.Lookback)); !IsKind(err, KindInsufficientData) {
		t.Fatalf("expected insufficient-data error, got %v", err)
	}
}

func TestLSTMConfigDefaults(t *testing.T) {
	cfg := LSTMConfig{}.withDefaults()
	want := DefaultLSTMConfig()
	if cfg.Lookback != want.Lookback || cfg.Hidden1 != want.Hidden1 || cfg.Epochs != want.Epochs {
		t.Fatalf("zero config did not fall back to defaults: %+v", cfg)
	}
	if len(cfg.Features) != 1 || cfg.Features[0] != want.Features[0] {
		t.Fatalf("expected default features %v, got %v", want.Features, cfg.Features)
	}
}

func TestScalerRoundTrip(t *testing.T) {
	matrix := [][]float64{
		{10, 100},
		{20, 150},
		{15, 125},
		{30, 175},
	}
	var s minMaxScaler
	if err := s.Fit(matrix); err != nil {
		t.Fatalf("fit: %v", err)
	}
	scaled, err := s.Transform(matrix)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	for _, row := range scaled {
		for _, v := range row {
			if v < 0 || v > 1 {
				t.Fatalf("scaled value out of [0,1]: %v", v)
			}
		}
	}
	back, err := s.Inverse(scaled)
	if err != nil {
		t.Fatalf("inverse: %v", err)
	}
	for i := range matrix {
		for j := range matrix[i] {
			if !almostEqual(back[i][j], matrix[i][j], 1e-9) {
				t.Fatalf("round trip mismatch at (%d,%d): %v vs %v", i, j, back[i][j], matrix[i][j])
			}
		}
	}
}

func TestScalerConstantColumn(t *testing.T) {
	matrix := [][]float64{{5, 1}, {5, 2}, {5, 3}}
	var s minMaxScaler
	if err := s.Fit(matrix); err != nil {
		t.Fatalf("fit: %v", err)
	}
	scaled, err := s.Transform(matrix)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	for _, row := range scaled {
		if row[0] != 0 {
			t.Fatalf("constant column should scale to 0, got %v", row[0])
		}
	}
}
