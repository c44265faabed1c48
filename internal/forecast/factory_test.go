package forecast

import (
	"testing"
)

func TestFactoryCaseInsensitive(t *testing.T) {
	for _, label := range []string{"trend", "TREND", "Trend", "linear"} {
		f, err := New(label, "TEST", WithTrendLookback(10))
		if err != nil {
			t.Fatalf("%s: %v", label, err)
		}
		if f.ModelType() != ModelTrend {
			t.Fatalf("%s: expected trend forecaster, got %s", label, f.ModelType())
		}
	}
	for label, want := range map[string]string{
		"arima":    ModelARIMA,
		"Lstm":     ModelLSTM,
		"ENSEMBLE": ModelEnsemble,
	} {
		f, err := New(label, "TEST")
		if err != nil {
			t.Fatalf("%s: %v", label, err)
		}
		if f.ModelType() != want {
			t.Fatalf("%s: expected %s, got %s", label, want, f.ModelType())
		}
	}
}

func TestFactoryUnknownModelType(t *testing.T) {
	if _, err := New("quantum", "TEST"); !IsKind(err, KindUnknownModelType) {
		t.Fatalf("expected unknown-model-type error, got %v", err)
	}
}

func TestFactorySymbolPropagates(t *testing.T) {
	f, err := New("arima", "AAPL")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if f.Symbol() != "AAPL" {
		t.Fatalf("expected symbol AAPL, got %s", f.Symbol())
	}
}

func TestFactoryProphetAliasMapsToSeasonal(t *testing.T) {
	f, err := New("prophet", "TEST")
	if err != nil {
		t.Fatalf("prophet alias: %v", err)
	}
	if f.ModelType() != ModelSeasonal {
		t.Fatalf("expected seasonal forecaster, got %s", f.ModelType())
	}
}

// Every listed label must construct; a listed label that fails with a
// capability error would be a contract violation.
func TestAvailableModelsAllConstruct(t *testing.T) {
	for _, label := range AvailableModels() {
		if _, err := New(label, "TEST"); err != nil {
			t.Fatalf("listed label %s failed to construct: %v", label, err)
		}
	}
}

func TestAvailableModelsIncludesSeasonalWhenRegistered(t *testing.T) {
	if !SeasonalAvailable() {
		t.Fatalf("seasonal engine registers at init, probe should pass")
	}
	found := false
	for _, label := range AvailableModels() {
		if label == ModelSeasonal {
			found = true
		}
	}
	if !found {
		t.Fatalf("available models should list seasonal: %v", AvailableModels())
	}
}
