package forecast

import (
	"StockCast/internal/domain/models"
)

// DefaultEnsembleMembers are the model types an ensemble owns when the
// caller does not choose.
var DefaultEnsembleMembers = []string{ModelLSTM, ModelARIMA}

// EnsembleForecaster owns a set of independently trained members and blends
// their forecasts by weighted averaging. Members that fail to construct
// (an unavailable optional variant, an unknown label) are silently omitted;
// the constructed set is the working set.
type EnsembleForecaster struct {
	state
	members map[string]Forecaster
	order   []string
	weights map[string]float64
}

// NewEnsembleForecaster constructs the requested members. Weights start
// uniform over the members that constructed and are recomputed on every
// TrainAll.
func NewEnsembleForecaster(symbol string, memberTypes []string, opts ...Option) *EnsembleForecaster {
	if len(memberTypes) == 0 {
		memberTypes = DefaultEnsembleMembers
	}
	e := &EnsembleForecaster{
		state:   state{symbol: symbol, modelType: ModelEnsemble},
		members: make(map[string]Forecaster),
		weights: make(map[string]float64),
	}
	for _, label := range memberTypes {
		canonical := canonicalModelType(label)
		if canonical == "" || canonical == ModelEnsemble {
			continue
		}
		if _, dup := e.members[canonical]; dup {
			continue
		}
		member, err := New(canonical, symbol, opts...)
		if err != nil {
			continue
		}
		e.members[canonical] = member
		e.order = append(e.order, canonical)
	}
	e.resetWeights()
	return e
}

// Members returns the working set's labels in construction order.
func (e *EnsembleForecaster) Members() []string {
	return append([]string(nil), e.order...)
}

// Weights returns a copy of the current per-member weights.
func (e *EnsembleForecaster) Weights() map[string]float64 {
	out := make(map[string]float64, len(e.weights))
	for k, v := range e.weights {
		out[k] = v
	}
	return out
}

// Train satisfies the Forecaster contract; it is TrainAll.
func (e *EnsembleForecaster) Train(history models.Series) (*models.TrainingSummary, error) {
	return e.TrainAll(history)
}

// TrainAll trains every member independently. A member's training failure is
// recorded per model and never aborts the rest. Afterwards weights are reset
// to uniform 1/N over ALL members present; a member that failed to train
// keeps its weight and is filtered at prediction time instead.
func (e *EnsembleForecaster) TrainAll(history models.Series) (*models.TrainingSummary, error) {
	if len(e.members) == 0 {
		return nil, &Error{
			Kind:    KindNoModelsAvailable,
			Model:   ModelEnsemble,
			Message: "no members were constructed",
		}
	}

	results := make(map[string]*models.TrainingSummary)
	failures := make(map[string]string)
	for _, label := range e.order {
		summary, err := e.members[label].Train(history)
		if err != nil {
			failures[label] = err.Error()
			continue
		}
		results[label] = summary
	}
	e.resetWeights()
	e.markTrained()

	s := e.summary(len(history))
	s.Members = results
	s.MemberErrors = failures
	s.Weights = e.Weights()
	return s, nil
}

// Predict blends the members' forecasts. A member contributes only when it
// is trained and its prediction succeeds; failures are skipped and surfaced
// through the result's per-model diagnostics. Weights are NOT renormalized
// over the surviving subset, so a partial-failure blend is attenuated rather
// than rescaled. With zero usable members the call fails instead of
// fabricating an all-zero forecast.
func (e *EnsembleForecaster) Predict(history models.Series, horizon int) (*models.ForecastResult, error) {
	if !e.trained {
		return nil, errInvalidState(ModelEnsemble)
	}
	if err := validateHorizon(horizon); err != nil {
		return nil, err
	}

	blended := make([]float64, horizon)
	individual := make(map[string]*models.ForecastResult)
	failures := make(map[string]string)
	included := 0

	for _, label := range e.order {
		member := e.members[label]
		if !member.IsTrained() {
			failures[label] = "model is not trained"
			continue
		}
		res, err := member.Predict(history, horizon)
		if err != nil {
			failures[label] = err.Error()
			continue
		}
		individual[label] = res
		w := e.weights[label]
		for i, p := range res.Predictions {
			blended[i] += w * p
		}
		included++
	}

	if included == 0 {
		return nil, &Error{
			Kind:    KindNoModelsAvailable,
			Model:   ModelEnsemble,
			Message: "no trained member produced a prediction",
		}
	}

	result := newResult(ModelEnsemble, history, blended)
	result.Individual = individual
	result.Weights = e.Weights()
	result.Errors = failures
	return result, nil
}

func (e *EnsembleForecaster) resetWeights() {
	e.weights = make(map[string]float64, len(e.members))
	if len(e.members) == 0 {
		return
	}
	w := 1.0 / float64(len(e.members))
	for _, label := range e.order {
		e.weights[label] = w
	}
}
