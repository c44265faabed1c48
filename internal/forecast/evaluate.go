package forecast

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"StockCast/internal/domain/models"
)

// Evaluate compares an actual sequence against a predicted one. It is a pure
// function shared by every variant. Sequences of unequal length fail with a
// shape-mismatch error.
func Evaluate(actual, predicted []float64) (models.EvaluationMetrics, error) {
	var m models.EvaluationMetrics
	if len(actual) != len(predicted) {
		return m, errShapeMismatch("evaluate: actual and predicted lengths differ")
	}
	if len(actual) == 0 {
		return m, errShapeMismatch("evaluate: empty sequences")
	}

	n := float64(len(actual))
	var sumSq, sumAbs float64
	for i := range actual {
		d := actual[i] - predicted[i]
		sumSq += d * d
		sumAbs += math.Abs(d)
	}
	m.MSE = sumSq / n
	m.MAE = sumAbs / n
	m.RMSE = math.Sqrt(m.MSE)
	m.RSquared = rSquared(actual, sumSq)
	m.DirectionalAccuracy = directionalAccuracy(actual, predicted)
	return m, nil
}

// rSquared is 1 - SSres/SStot. A zero-variance actual series yields 1 for a
// perfect fit and 0 otherwise, keeping the value finite.
func rSquared(actual []float64, ssRes float64) float64 {
	mean := stat.Mean(actual, nil)
	var ssTot float64
	for _, v := range actual {
		d := v - mean
		ssTot += d * d
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}

// directionalAccuracy is the fraction of consecutive steps where the sign of
// change agrees between the two sequences. It needs at least two points and
// returns NaN for shorter input.
func directionalAccuracy(actual, predicted []float64) float64 {
	if len(actual) < 2 {
		return math.NaN()
	}
	var agree int
	for i := 1; i < len(actual); i++ {
		actualUp := actual[i] > actual[i-1]
		predictedUp := predicted[i] > predicted[i-1]
		if actualUp == predictedUp {
			agree++
		}
	}
	return float64(agree) / float64(len(actual)-1)
}
