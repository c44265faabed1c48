package forecast

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"StockCast/internal/domain/models"
)

// SeasonalPeriod is one periodic component of the additive decomposition,
// approximated by a truncated Fourier series.
type SeasonalPeriod struct {
	Name  string
	Days  float64
	Order int
}

// SeasonalConfig selects which periodicities the decomposition fits.
type SeasonalConfig struct {
	Periods []SeasonalPeriod
}

// DefaultSeasonalConfig enables weekly and yearly seasonality, the two that
// matter for daily bars.
func DefaultSeasonalConfig() SeasonalConfig {
	return SeasonalConfig{Periods: []SeasonalPeriod{
		{Name: "weekly", Days: 7, Order: 3},
		{Name: "yearly", Days: 365.25, Order: 10},
	}}
}

func init() {
	registerSeasonalEngine(func(symbol string, cfg SeasonalConfig) Forecaster {
		return newSeasonalForecaster(symbol, cfg)
	})
}

// NewSeasonalForecaster builds the seasonal variant, or fails with a
// capability error when the decomposition engine is absent from this
// runtime. The factory consults SeasonalAvailable instead of calling this
// and catching the failure.
func NewSeasonalForecaster(symbol string, cfg SeasonalConfig) (Forecaster, error) {
	if len(cfg.Periods) == 0 {
		cfg = DefaultSeasonalConfig()
	}
	return newSeasonalFromRegistry(symbol, cfg)
}

// SeasonalForecaster decomposes the close series into a linear trend plus
// Fourier seasonal components and extrapolates the additive combination.
type SeasonalForecaster struct {
	state
	cfg SeasonalConfig

	t0      time.Time
	periods []SeasonalPeriod // periods the training span actually supports
	coeffs  []float64        // [intercept, slope, sin/cos pairs...]
}

func newSeasonalForecaster(symbol string, cfg SeasonalConfig) *SeasonalForecaster {
	return &SeasonalForecaster{
		state: state{symbol: symbol, modelType: ModelSeasonal},
		cfg:   cfg,
	}
}

const seasonalMinObservations = 14

// Train fits the decomposition by least squares. A period is only included
// when the history spans at least two of its cycles, so a year of daily
// bars gets weekly terms but not a half-observed yearly cycle.
func (f *SeasonalForecaster) Train(history models.Series) (*models.TrainingSummary, error) {
	if len(history) < seasonalMinObservations {
		return nil, errInsufficientData(ModelSeasonal, seasonalMinObservations, len(history))
	}

	t0 := history[0].Timestamp
	span := history.Last().Timestamp.Sub(t0).Hours() / 24

	var periods []SeasonalPeriod
	for _, p := range f.cfg.Periods {
		if p.Order > 0 && span >= 2*p.Days {
			periods = append(periods, p)
		}
	}

	cols := seasonalDesignWidth(periods)
	if len(history) <= cols {
		return nil, errInsufficientData(ModelSeasonal, cols+1, len(history))
	}

	rows := len(history)
	a := mat.NewDense(rows, cols, nil)
	y := mat.NewVecDense(rows, history.Closes())
	for i := range history {
		t := history[i].Timestamp.Sub(t0).Hours() / 24
		a.SetRow(i, seasonalDesignRow(t, periods, cols))
	}

	var beta mat.VecDense
	if err := beta.SolveVec(a, y); err != nil {
		return nil, errFitFailure(ModelSeasonal, "least squares decomposition", err)
	}

	f.t0 = t0
	f.periods = periods
	f.coeffs = make([]float64, cols)
	for i := range f.coeffs {
		f.coeffs[i] = beta.AtVec(i)
	}
	f.markTrained()
	return f.summary(len(history)), nil
}

// Predict evaluates trend + seasonal terms at each future calendar day.
func (f *SeasonalForecaster) Predict(history models.Series, horizon int) (*models.ForecastResult, error) {
	if !f.trained {
		return nil, errInvalidState(ModelSeasonal)
	}
	if err := validateHorizon(horizon); err != nil {
		return nil, err
	}

	last := history.Last().Timestamp
	predictions := make([]float64, horizon)
	cols := len(f.coeffs)
	for k := 0; k < horizon; k++ {
		future := last.AddDate(0, 0, k+1)
		t := future.Sub(f.t0).Hours() / 24
		row := seasonalDesignRow(t, f.periods, cols)
		var v float64
		for i, c := range f.coeffs {
			v += c * row[i]
		}
		predictions[k] = v
	}
	return newResult(ModelSeasonal, history, predictions), nil
}

func seasonalDesignWidth(periods []SeasonalPeriod) int {
	cols := 2 // intercept + linear trend
	for _, p := range periods {
		cols += 2 * p.Order
	}
	return cols
}

func seasonalDesignRow(t float64, periods []SeasonalPeriod, cols int) []float64 {
	row := make([]float64, 0, cols)
	row = append(row, 1, t)
	for _, p := range periods {
		for k := 1; k <= p.Order; k++ {
			arg := 2 * math.Pi * float64(k) * t / p.Days
			row = append(row, math.Sin(arg), math.Cos(arg))
		}
	}
	return row
}
