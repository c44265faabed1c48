package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"StockCast/pkg/logger"
	"StockCast/pkg/queue"
)

const RetrainJobType = "forecast.retrain"

// RetrainPayload is the queue message for a single retrain run.
type RetrainPayload struct {
	Symbol string `json:"symbol"`
	Model  string `json:"model"`
	Period string `json:"period"`
}

// RetrainJob refits a forecaster on fresh history. Jobs are enqueued by the
// RetrainScheduler and retried by the queue on failure.
type RetrainJob struct {
	svc *ForecastService
	l   *logger.Logger
}

func NewRetrainJob(svc *ForecastService, l *logger.Logger) *RetrainJob {
	return &RetrainJob{svc: svc, l: l}
}

func (j *RetrainJob) Name() string { return "retrain-forecaster" }
func (j *RetrainJob) Type() string { return RetrainJobType }

func (j *RetrainJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[RetrainPayload](payload)
	if err != nil {
		return fmt.Errorf("retrain payload: %w", err)
	}
	if p.Symbol == "" {
		return fmt.Errorf("retrain payload: symbol required")
	}

	summary, err := j.svc.Retrain(ctx, p.Symbol, p.Model, p.Period)
	if errors.Is(err, ErrRetrainInProgress) {
		j.l.Info("retrain skipped, lock held", logger.String("symbol", p.Symbol))
		return nil
	}
	if err != nil {
		return fmt.Errorf("retrain %s/%s: %w", p.Symbol, p.Model, err)
	}

	j.l.Info("retrain completed",
		logger.String("symbol", p.Symbol),
		logger.String("model", summary.ModelType),
		logger.Int("observations", summary.Observations),
	)
	return nil
}

var _ queue.Job = (*RetrainJob)(nil)

// RetrainScheduler periodically enqueues a retrain job per tracked symbol so
// warm models never go stale.
type RetrainScheduler struct {
	q        queue.QueueService
	symbols  []string
	model    string
	period   string
	interval time.Duration
	l        *logger.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewRetrainScheduler(q queue.QueueService, symbols []string, model, period string, interval time.Duration, l *logger.Logger) *RetrainScheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &RetrainScheduler{
		q:        q,
		symbols:  symbols,
		model:    model,
		period:   period,
		interval: interval,
		l:        l,
	}
}

// Start launches the scheduling loop. The first round is enqueued after one
// full interval; initial training happens lazily on the first forecast.
func (s *RetrainScheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.run(ctx)
}

func (s *RetrainScheduler) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.l.Info("retrain scheduler started",
		logger.Int("symbols", len(s.symbols)),
		logger.String("interval", s.interval.String()),
	)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.enqueueRound(ctx)
		}
	}
}

func (s *RetrainScheduler) enqueueRound(ctx context.Context) {
	for _, sym := range s.symbols {
		payload := RetrainPayload{Symbol: sym, Model: s.model, Period: s.period}
		if err := s.q.PublishMessage(ctx, RetrainJobType, payload); err != nil {
			s.l.Error("enqueue retrain failed",
				logger.String("symbol", sym),
				logger.Error(err),
			)
		}
	}
}

// Stop cancels the loop and waits for it to exit.
func (s *RetrainScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}
