package forecast

import (
	"math"
	"testing"
)

func TestEvaluatePerfectFit(t *testing.T) {
	m, err := Evaluate([]float64{1, 2, 3, 4}, []float64{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if m.MSE != 0 || m.MAE != 0 || m.RMSE != 0 {
		t.Fatalf("expected zero errors, got %+v", m)
	}
	if m.RSquared != 1 {
		t.Fatalf("expected r2=1, got %v", m.RSquared)
	}
	if m.DirectionalAccuracy != 1 {
		t.Fatalf("expected directional accuracy 1, got %v", m.DirectionalAccuracy)
	}
}

func TestEvaluateOppositeDirection(t *testing.T) {
	m, err := Evaluate([]float64{1, 2, 3, 4}, []float64{4, 3, 2, 1})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if m.DirectionalAccuracy != 0 {
		t.Fatalf("expected directional accuracy 0, got %v", m.DirectionalAccuracy)
	}
}

func TestEvaluateShapeMismatch(t *testing.T) {
	if _, err := Evaluate([]float64{1, 2, 3}, []float64{1, 2}); !IsKind(err, KindShapeMismatch) {
		t.Fatalf("expected shape-mismatch error, got %v", err)
	}
}

func TestEvaluateEmpty(t *testing.T) {
	if _, err := Evaluate(nil, nil); !IsKind(err, KindShapeMismatch) {
		t.Fatalf("expected shape-mismatch error, got %v", err)
	}
}

func TestEvaluateSinglePointDirectionalAccuracyNaN(t *testing.T) {
	m, err := Evaluate([]float64{5}, []float64{5})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !math.IsNaN(m.DirectionalAccuracy) {
		t.Fatalf("expected NaN directional accuracy for one point, got %v", m.DirectionalAccuracy)
	}
}

func TestEvaluateConstantActual(t *testing.T) {
	// Zero-variance actual with non-zero residuals must stay finite.
	m, err := Evaluate([]float64{2, 2, 2}, []float64{1, 2, 3})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if math.IsNaN(m.RSquared) || math.IsInf(m.RSquared, 0) {
		t.Fatalf("expected finite r2, got %v", m.RSquared)
	}
	if m.RSquared != 0 {
		t.Fatalf("expected r2=0 for imperfect fit on constant actual, got %v", m.RSquared)
	}
}

func TestEvaluateKnownValues(t *testing.T) {
	m, err := Evaluate([]float64{1, 2, 3, 4}, []float64{2, 3, 4, 5})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !almostEqual(m.MSE, 1, 1e-12) || !almostEqual(m.MAE, 1, 1e-12) || !almostEqual(m.RMSE, 1, 1e-12) {
		t.Fatalf("unexpected metrics %+v", m)
	}
	if m.DirectionalAccuracy != 1 {
		t.Fatalf("parallel series should agree in direction, got %v", m.DirectionalAccuracy)
	}
}
