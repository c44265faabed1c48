package forecast

import (
	"fmt"
	"math"
	"math/rand"

	"StockCast/internal/domain/models"
)

// LSTMConfig carries the sequence model's tunables. Zero values fall back to
// the defaults below.
type LSTMConfig struct {
	Lookback        int      // window length per training example
	Features        []string // ordered per-bar fields; index 0 is the target
	Hidden1         int
	Hidden2         int
	DenseSize       int
	Dropout         float64
	LearningRate    float64
	Epochs          int
	BatchSize       int
	ValidationSplit float64
	Patience        int
	Seed            int64
}

// DefaultLSTMConfig returns the production defaults.
func DefaultLSTMConfig() LSTMConfig {
	return LSTMConfig{
		Lookback:        60,
		Features:        []string{models.FeatureClose},
		Hidden1:         100,
		Hidden2:         50,
		DenseSize:       25,
		Dropout:         0.2,
		LearningRate:    0.001,
		Epochs:          50,
		BatchSize:       32,
		ValidationSplit: 0.2,
		Patience:        10,
		Seed:            1,
	}
}

func (c LSTMConfig) withDefaults() LSTMConfig {
	d := DefaultLSTMConfig()
	if c.Lookback <= 0 {
		c.Lookback = d.Lookback
	}
	if len(c.Features) == 0 {
		c.Features = d.Features
	}
	if c.Hidden1 <= 0 {
		c.Hidden1 = d.Hidden1
	}
	if c.Hidden2 <= 0 {
		c.Hidden2 = d.Hidden2
	}
	if c.DenseSize <= 0 {
		c.DenseSize = d.DenseSize
	}
	if c.Dropout < 0 || c.Dropout >= 1 {
		c.Dropout = d.Dropout
	}
	if c.LearningRate <= 0 {
		c.LearningRate = d.LearningRate
	}
	if c.Epochs <= 0 {
		c.Epochs = d.Epochs
	}
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.ValidationSplit < 0 || c.ValidationSplit >= 1 {
		c.ValidationSplit = d.ValidationSplit
	}
	if c.Patience <= 0 {
		c.Patience = d.Patience
	}
	if c.Seed == 0 {
		c.Seed = d.Seed
	}
	return c
}

// LSTMForecaster learns from windows of scaled feature sequences and
// forecasts by iterative rollout: each predicted close is fed back as the
// next synthetic observation's target feature, so later horizon steps
// compound earlier prediction error. That compounding is inherent to the
// design, not a defect.
type LSTMForecaster struct {
	state
	cfg    LSTMConfig
	scaler minMaxScaler
	net    *lstmNetwork
}

// NewLSTMForecaster builds an untrained sequence forecaster.
func NewLSTMForecaster(symbol string, cfg LSTMConfig) *LSTMForecaster {
	return &LSTMForecaster{
		state: state{symbol: symbol, modelType: ModelLSTM},
		cfg:   cfg.withDefaults(),
	}
}

// Train fits the scaler and the network from history. The scaler is fitted
// here and only here; predict reuses it unchanged. Training holds out the
// trailing validation fraction and stops early once validation loss stops
// improving, restoring the best-seen weights.
func (f *LSTMForecaster) Train(history models.Series) (*models.TrainingSummary, error) {
	matrix, err := history.Matrix(f.cfg.Features)
	if err != nil {
		return nil, fmt.Errorf("lstm features: %w", err)
	}
	if len(matrix) <= f.cfg.Lookback {
		return nil, errInsufficientData(ModelLSTM, f.cfg.Lookback+1, len(matrix))
	}

	f.scaler = minMaxScaler{}
	if err := f.scaler.Fit(matrix); err != nil {
		return nil, errFitFailure(ModelLSTM, "scaler fit", err)
	}
	scaled, err := f.scaler.Transform(matrix)
	if err != nil {
		return nil, errFitFailure(ModelLSTM, "scaler transform", err)
	}

	windows, targets := buildWindows(scaled, f.cfg.Lookback)

	// Keep the time ordering: the validation set is the trailing fraction,
	// never a shuffle of the future into the past.
	nVal := int(float64(len(windows)) * f.cfg.ValidationSplit)
	nTrain := len(windows) - nVal
	if nTrain < 1 {
		nTrain = len(windows)
		nVal = 0
	}

	rng := rand.New(rand.NewSource(f.cfg.Seed))
	net := newLSTMNetwork(len(f.cfg.Features), f.cfg.Hidden1, f.cfg.Hidden2, f.cfg.DenseSize, f.cfg.Dropout, rng)
	opt := newAdam(f.cfg.LearningRate)

	order := make([]int, nTrain)
	for i := range order {
		order[i] = i
	}

	bestVal := math.Inf(1)
	var bestSnap [][]float64
	sinceBest := 0
	epochs := 0
	var trainLoss, valLoss float64

	for epoch := 0; epoch < f.cfg.Epochs; epoch++ {
		epochs = epoch + 1
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		var lossSum float64
		for start := 0; start < nTrain; start += f.cfg.BatchSize {
			end := start + f.cfg.BatchSize
			if end > nTrain {
				end = nTrain
			}
			for _, idx := range order[start:end] {
				pred, cache := net.forward(windows[idx], true)
				diff := pred - targets[idx]
				lossSum += diff * diff
				net.backward(cache, 2*diff)
			}
			opt.step(net.all, 1/float64(end-start))
		}
		trainLoss = lossSum / float64(nTrain)

		if nVal == 0 {
			continue
		}
		valLoss = lstmLoss(net, windows[nTrain:], targets[nTrain:])
		if valLoss < bestVal {
			bestVal = valLoss
			bestSnap = net.snapshot()
			sinceBest = 0
		} else {
			sinceBest++
			if sinceBest >= f.cfg.Patience {
				break
			}
		}
	}
	if bestSnap != nil {
		net.restore(bestSnap)
		valLoss = bestVal
	}

	f.net = net
	f.markTrained()
	s := f.summary(len(history))
	s.EpochsTrained = epochs
	s.FinalLoss = trainLoss
	s.FinalValLoss = valLoss
	return s, nil
}

// Predict rolls the trained network forward horizon steps: predict one
// scaled close, splice it in as feature 0 of a synthetic bar whose other
// features hold their last-seen scaled values, slide the window, repeat,
// then invert the scaling. Deterministic for fixed weights.
func (f *LSTMForecaster) Predict(history models.Series, horizon int) (*models.ForecastResult, error) {
	if !f.trained {
		return nil, errInvalidState(ModelLSTM)
	}
	if err := validateHorizon(horizon); err != nil {
		return nil, err
	}
	matrix, err := history.Matrix(f.cfg.Features)
	if err != nil {
		return nil, fmt.Errorf("lstm features: %w", err)
	}
	if len(matrix) < f.cfg.Lookback {
		return nil, errInsufficientData(ModelLSTM, f.cfg.Lookback, len(matrix))
	}

	scaled, err := f.scaler.Transform(matrix)
	if err != nil {
		return nil, errFitFailure(ModelLSTM, "scaler transform", err)
	}

	window := make([][]float64, f.cfg.Lookback)
	for i := range window {
		window[i] = append([]float64(nil), scaled[len(scaled)-f.cfg.Lookback+i]...)
	}

	scaledPreds := make([]float64, horizon)
	for step := 0; step < horizon; step++ {
		pred, _ := f.net.forward(window, false)
		scaledPreds[step] = pred

		next := append([]float64(nil), window[len(window)-1]...)
		next[0] = pred
		window = append(window[1:], next)
	}

	predictions, err := f.scaler.InverseColumn(0, scaledPreds)
	if err != nil {
		return nil, errFitFailure(ModelLSTM, "inverse scaling", err)
	}
	return newResult(ModelLSTM, history, predictions), nil
}

// buildWindows turns T scaled rows into T-lookback (window, next-close)
// training examples.
func buildWindows(scaled [][]float64, lookback int) ([][][]float64, []float64) {
	n := len(scaled) - lookback
	windows := make([][][]float64, n)
	targets := make([]float64, n)
	for i := 0; i < n; i++ {
		windows[i] = scaled[i : i+lookback]
		targets[i] = scaled[i+lookback][0]
	}
	return windows, targets
}

func lstmLoss(net *lstmNetwork, windows [][][]float64, targets []float64) float64 {
	if len(windows) == 0 {
		return 0
	}
	var sum float64
	for i, w := range windows {
		pred, _ := net.forward(w, false)
		diff := pred - targets[i]
		sum += diff * diff
	}
	return sum / float64(len(windows))
}
