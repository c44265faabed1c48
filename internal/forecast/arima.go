package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"StockCast/internal/domain/models"
)

// arimaMinObservations is the smallest history the autoregressive model
// accepts: one differencing pass plus enough lag-1 pairs to estimate
// coefficients.
const arimaMinObservations = 10

const arimaVarianceEps = 1e-12

// arimaFit holds the fitted ARIMA(p,1|0,1) coefficients. With p=q=1 a single
// AR and a single MA coefficient suffice.
type arimaFit struct {
	p, d, q int
	phi     float64 // AR(1) coefficient
	theta   float64 // MA(1) coefficient
	mean    float64 // mean of the (differenced) series
}

func (f arimaFit) order() string {
	return fmt.Sprintf("(%d,%d,%d)", f.p, f.d, f.q)
}

// ARIMAForecaster captures autocorrelation and differencing with an
// ARIMA(1,1,1) fit, falling back once to (1,0,1) when the first
// configuration fails to converge.
type ARIMAForecaster struct {
	state
	fit arimaFit
}

// NewARIMAForecaster builds an untrained autoregressive forecaster.
func NewARIMAForecaster(symbol string) *ARIMAForecaster {
	return &ARIMAForecaster{state: state{symbol: symbol, modelType: ModelARIMA}}
}

// Train fits ARIMA(1,1,1) over the closing prices. A degenerate or
// non-converging fit falls back to (1,0,1); if that also fails the error is
// surfaced as a fit failure rather than degenerate output.
func (f *ARIMAForecaster) Train(history models.Series) (*models.TrainingSummary, error) {
	if len(history) < arimaMinObservations {
		return nil, errInsufficientData(ModelARIMA, arimaMinObservations, len(history))
	}
	closes := history.Closes()

	fit, err := fitARIMA(closes, 1, 1, 1, true)
	if err != nil {
		// The level model tolerates a degenerate series by collapsing to its
		// mean; the differenced model must not.
		fit, err = fitARIMA(closes, 1, 0, 1, false)
	}
	if err != nil {
		return nil, errFitFailure(ModelARIMA, "fit did not converge after fallback", err)
	}

	f.fit = fit
	f.markTrained()
	s := f.summary(len(history))
	s.Order = fit.order()
	return s, nil
}

// Predict runs the model's native multi-step-ahead forecast: future shocks
// are zero, so step k>1 is pure AR recursion in differenced space, inverted
// back to price levels.
func (f *ARIMAForecaster) Predict(history models.Series, horizon int) (*models.ForecastResult, error) {
	if !f.trained {
		return nil, errInvalidState(ModelARIMA)
	}
	if err := validateHorizon(horizon); err != nil {
		return nil, err
	}
	if len(history) < f.fit.d+1 {
		return nil, errInsufficientData(ModelARIMA, f.fit.d+1, len(history))
	}

	closes := history.Closes()
	z := demean(difference(closes, f.fit.d), f.fit.mean)
	e := arResiduals(z, f.fit.phi)

	var zPrev, ePrev float64
	if len(z) > 0 {
		zPrev = z[len(z)-1]
		ePrev = e[len(e)-1]
	}

	predictions := make([]float64, horizon)
	level := closes[len(closes)-1]
	for k := 0; k < horizon; k++ {
		zk := f.fit.phi*zPrev + f.fit.theta*ePrev
		ePrev = 0 // future innovations are zero
		zPrev = zk
		wk := zk + f.fit.mean
		if f.fit.d > 0 {
			level += wk
		} else {
			level = wk
		}
		predictions[k] = level
	}
	return newResult(ModelARIMA, history, predictions), nil
}

// fitARIMA estimates phi by Yule-Walker on the differenced, demeaned series
// and theta by lag-1 regression of the AR residuals. In strict mode a
// zero-variance series is a convergence failure; otherwise the model
// degrades to the series mean.
func fitARIMA(values []float64, p, d, q int, strict bool) (arimaFit, error) {
	fit := arimaFit{p: p, d: d, q: q}

	w := difference(values, d)
	if len(w) < 3 {
		return fit, fmt.Errorf("series too short after differencing: %d", len(w))
	}
	fit.mean = stat.Mean(w, nil)
	z := demean(w, fit.mean)

	var lag0 float64
	for _, v := range z {
		lag0 += v * v
	}
	if lag0 < arimaVarianceEps {
		if strict {
			return fit, fmt.Errorf("differenced series has no variance")
		}
		return fit, nil // exact mean model
	}

	var lag1 float64
	for t := 1; t < len(z); t++ {
		lag1 += z[t] * z[t-1]
	}
	fit.phi = clampCoeff(lag1 / lag0)

	e := arResiduals(z, fit.phi)
	var num, den float64
	for t := 1; t < len(e); t++ {
		num += e[t] * e[t-1]
		den += e[t-1] * e[t-1]
	}
	if den > arimaVarianceEps {
		fit.theta = clampCoeff(num / den)
	}

	if math.IsNaN(fit.phi) || math.IsInf(fit.phi, 0) ||
		math.IsNaN(fit.theta) || math.IsInf(fit.theta, 0) {
		return fit, fmt.Errorf("non-finite coefficients")
	}
	return fit, nil
}

// difference applies d first-difference passes.
func difference(values []float64, d int) []float64 {
	out := append([]float64(nil), values...)
	for i := 0; i < d; i++ {
		diffed := make([]float64, len(out)-1)
		for t := 1; t < len(out); t++ {
			diffed[t-1] = out[t] - out[t-1]
		}
		out = diffed
	}
	return out
}

func demean(values []float64, mean float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v - mean
	}
	return out
}

// arResiduals computes e_t = z_t - phi*z_{t-1}, with e_0 = z_0.
func arResiduals(z []float64, phi float64) []float64 {
	e := make([]float64, len(z))
	if len(z) == 0 {
		return e
	}
	e[0] = z[0]
	for t := 1; t < len(z); t++ {
		e[t] = z[t] - phi*z[t-1]
	}
	return e
}

// clampCoeff keeps coefficients inside the invertibility region.
func clampCoeff(c float64) float64 {
	const limit = 0.99
	if c > limit {
		return limit
	}
	if c < -limit {
		return -limit
	}
	return c
}
