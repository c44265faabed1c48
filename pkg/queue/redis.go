// Package queue carries retrain jobs and aggregated error logs through
// Redis lists. Failed jobs wait in a sorted set until their retry time and
// land in a dead-letter list once the retry budget is spent.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"StockCast/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// QueueMode defines the operation mode of the queue.
type QueueMode int

const (
	// ModeProducerConsumer both publishes and works jobs.
	ModeProducerConsumer QueueMode = iota
	// ModeProducerOnly only publishes; no workers are started.
	ModeProducerOnly
)

// RedisQueue is a Redis-list backed job queue.
type RedisQueue struct {
	logger    *logger.Logger
	config    *QueueConfig
	client    *redis.Client
	jobs      map[string]Job
	wg        sync.WaitGroup
	mu        sync.RWMutex
	isRunning bool
	stopCh    chan struct{}
	mode      QueueMode
	ctx       context.Context
	cancel    context.CancelFunc
	keyPrefix string
}

// RedisQueueOption configures RedisQueue.
type RedisQueueOption func(*RedisQueue)

// WithKeyPrefix namespaces the queue keys so independent queues sharing a
// Redis instance do not steal each other's messages.
func WithKeyPrefix(prefix string) RedisQueueOption {
	return func(q *RedisQueue) {
		q.keyPrefix = prefix
	}
}

// NewRedisQueue creates a new Redis queue.
func NewRedisQueue(lgr *logger.Logger, config *QueueConfig, client *redis.Client, mode QueueMode, opts ...RedisQueueOption) *RedisQueue {
	if config == nil {
		config = &QueueConfig{}
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	rq := &RedisQueue{
		logger:    lgr,
		config:    config,
		client:    client,
		jobs:      make(map[string]Job),
		stopCh:    make(chan struct{}),
		mode:      mode,
		ctx:       ctx,
		cancel:    cancel,
		keyPrefix: "stockcast:queue",
	}

	for _, opt := range opts {
		opt(rq)
	}

	return rq
}

// NewRedisPublisher creates a started publisher-only queue. The log
// collector uses this to ship aggregated error entries.
func NewRedisPublisher(lgr *logger.Logger, client *redis.Client, opts ...RedisQueueOption) *RedisQueue {
	q := NewRedisQueue(lgr, &QueueConfig{}, client, ModeProducerOnly, opts...)
	if err := q.Start(); err != nil {
		lgr.Error("redis publisher start failed", logger.Error(err))
	}
	return q
}

// RegisterJob registers the worker for one message type.
func (q *RedisQueue) RegisterJob(job Job) {
	if q.mode == ModeProducerOnly {
		q.logger.Warn("job registration ignored in producer-only mode",
			logger.String("job", job.Name()))
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.jobs[job.Type()]; exists {
		q.logger.Warn("job already registered", logger.String("job", job.Name()))
		return
	}

	q.jobs[job.Type()] = job
	q.logger.Info("job registered",
		logger.String("job", job.Name()),
		logger.String("type", job.Type()))
}

// Start verifies the Redis connection and, in consumer mode, launches the
// worker pool and the retry mover.
func (q *RedisQueue) Start() error {
	q.mu.Lock()
	if q.isRunning {
		q.mu.Unlock()
		return fmt.Errorf("queue already running")
	}
	q.isRunning = true
	q.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := q.client.Ping(ctx).Err(); err != nil {
		q.isRunning = false
		return fmt.Errorf("redis ping: %w", err)
	}

	if q.mode == ModeProducerOnly {
		q.logger.Info("redis publisher started",
			logger.String("addr", q.client.Options().Addr))
		return nil
	}

	for i := 0; i < q.config.Workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	q.wg.Add(1)
	go q.requeueLoop()

	q.logger.Info("redis queue started",
		logger.Int("workers", q.config.Workers),
		logger.String("addr", q.client.Options().Addr),
		logger.String("prefix", q.keyPrefix))
	return nil
}

// Stop gracefully stops the queue.
func (q *RedisQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.isRunning {
		q.mu.Unlock()
		return nil
	}
	q.isRunning = false
	q.cancel()
	if q.mode != ModeProducerOnly {
		close(q.stopCh)
	}
	q.mu.Unlock()

	doneCh := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(doneCh)
	}()

	select {
	case <-ctx.Done():
		q.logger.Warn("timeout waiting for queue workers", logger.Error(ctx.Err()))
		return fmt.Errorf("timeout: %w", ctx.Err())
	case <-doneCh:
		q.logger.Info("redis queue stopped gracefully")
		return nil
	}
}

// PublishMessage enqueues one message (implements QueueService).
func (q *RedisQueue) PublishMessage(ctx context.Context, msgType string, payload interface{}) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if !q.isRunning {
		return fmt.Errorf("queue not running")
	}

	if q.mode != ModeProducerOnly {
		if _, exists := q.jobs[msgType]; !exists {
			return fmt.Errorf("no job registered for type: %s", msgType)
		}
	}

	msg := Message{
		ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
		Attempts:  0,
	}

	msgData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := q.client.LPush(ctx, q.messagesKey(), msgData).Err(); err != nil {
		return fmt.Errorf("lpush: %w", err)
	}

	return nil
}

func (q *RedisQueue) worker(id int) {
	defer q.wg.Done()
	q.logger.Info("queue worker started", logger.Int("worker_id", id))

	for {
		select {
		case <-q.stopCh:
			q.logger.Info("queue worker stopping", logger.Int("worker_id", id))
			return
		case <-q.ctx.Done():
			return
		default:
			q.dequeueOne()
		}
	}
}

// dequeueOne pops one message with a short blocking timeout so the worker
// can notice shutdown between polls.
func (q *RedisQueue) dequeueOne() {
	ctx, cancel := context.WithTimeout(q.ctx, 1*time.Second)
	defer cancel()

	result, err := q.client.BRPop(ctx, 1*time.Second, q.messagesKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return
		}
		q.logger.Error("brpop error", logger.Error(err))
		time.Sleep(1 * time.Second)
		return
	}

	if len(result) < 2 {
		return
	}

	var msg Message
	if err := json.Unmarshal([]byte(result[1]), &msg); err != nil {
		q.logger.Error("unmarshal message", logger.Error(err))
		return
	}

	q.runJob(msg)
}

func (q *RedisQueue) runJob(msg Message) {
	job, exists := q.jobs[msg.Type]
	if !exists {
		q.logger.Error("no job found",
			logger.String("type", msg.Type),
			logger.String("id", msg.ID))
		return
	}

	start := time.Now()
	err := job.Handle(q.ctx, rawPayload(msg.Payload))
	elapsed := time.Since(start)

	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		q.logger.Warn("job cancelled mid-flight",
			logger.String("id", msg.ID),
			logger.String("job", job.Name()),
			logger.Int64("elapsed_ms", elapsed.Milliseconds()))
		return
	}
	q.retryOrBury(msg, job, err)
}

// rawPayload re-encodes a decoded JSON object so ParsePayload can unmarshal
// it into the job's own payload type.
func rawPayload(payload interface{}) interface{} {
	payloadMap, ok := payload.(map[string]interface{})
	if !ok {
		return payload
	}
	jsonBytes, err := json.Marshal(payloadMap)
	if err != nil {
		return payload
	}
	return json.RawMessage(jsonBytes)
}

func (q *RedisQueue) retryOrBury(msg Message, job Job, err error) {
	q.logger.Error("job failed",
		logger.String("id", msg.ID),
		logger.String("job", job.Name()),
		logger.Int("attempt", msg.Attempts+1),
		logger.Error(err))

	if msg.Attempts >= q.config.RetryLimit {
		q.logger.Error("max retries reached",
			logger.String("id", msg.ID),
			logger.String("job", job.Name()))
		q.bury(msg)
		return
	}

	msg.Attempts++
	retryAt := time.Now().Add(q.config.RetryDelay)
	msgData, merr := json.Marshal(msg)
	if merr != nil {
		q.logger.Error("marshal retry", logger.Error(merr))
		return
	}
	zerr := q.client.ZAdd(context.Background(), q.retryKey(), redis.Z{
		Score:  float64(retryAt.Unix()),
		Member: msgData,
	}).Err()
	if zerr != nil {
		q.logger.Error("zadd retry", logger.Error(zerr))
		return
	}
	q.logger.Info("scheduled retry",
		logger.String("id", msg.ID),
		logger.String("job", job.Name()),
		logger.Int("attempt", msg.Attempts),
		logger.String("retry_at", retryAt.Format(time.RFC3339)))
}

// bury moves an exhausted message to the dead-letter list for inspection.
func (q *RedisQueue) bury(msg Message) {
	msgData, err := json.Marshal(msg)
	if err != nil {
		q.logger.Error("marshal dlq", logger.Error(err))
		return
	}
	if err := q.client.LPush(context.Background(), q.deadLetterKey(), msgData).Err(); err != nil {
		q.logger.Error("lpush dlq", logger.Error(err))
	}
}

// requeueLoop periodically moves due retries back onto the main list.
func (q *RedisQueue) requeueLoop() {
	defer q.wg.Done()

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-q.stopCh:
			return
		case <-q.ctx.Done():
			return
		case <-ticker.C:
			q.requeueDue()
		}
	}
}

func (q *RedisQueue) requeueDue() {
	now := float64(time.Now().Unix())

	due, err := q.client.ZRangeByScoreWithScores(q.ctx, q.retryKey(), &redis.ZRangeBy{
		Min: "0",
		Max: strconv.FormatFloat(now, 'f', 0, 64),
	}).Result()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		q.logger.Error("fetch retry messages", logger.Error(err))
		return
	}

	for _, z := range due {
		select {
		case <-q.ctx.Done():
			return
		default:
		}

		msgData := z.Member.(string)

		// Remove and requeue atomically so a crash cannot duplicate the job.
		pipe := q.client.TxPipeline()
		pipe.ZRem(q.ctx, q.retryKey(), msgData)
		pipe.LPush(q.ctx, q.messagesKey(), msgData)
		if _, err := pipe.Exec(q.ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			q.logger.Error("move retry to queue", logger.Error(err))
		}
	}
}

func (q *RedisQueue) messagesKey() string   { return q.keyPrefix + ":messages" }
func (q *RedisQueue) retryKey() string      { return q.keyPrefix + ":retry" }
func (q *RedisQueue) deadLetterKey() string { return q.keyPrefix + ":dlq" }
