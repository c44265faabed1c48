package di

import (
	"context"
	"fmt"
	"time"

	"StockCast/internal/domain/repository"
	"StockCast/internal/forecast"
	"StockCast/internal/handler/api"
	internalrepo "StockCast/internal/repository"
	"StockCast/internal/service/marketdata"
	"StockCast/internal/usecase"
	"StockCast/pkg/cache"
	pkgch "StockCast/pkg/clickhouse"
	"StockCast/pkg/config"
	xhttp "StockCast/pkg/http"
	pkgkafka "StockCast/pkg/kafka"
	applogger "StockCast/pkg/logger"
	"StockCast/pkg/metrics"
	"StockCast/pkg/queue"
	"StockCast/pkg/server"

	segkafka "github.com/segmentio/kafka-go"
)

// ProvideLogger creates the application logger. Production logs JSON,
// everything else logs to console.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "console"
	if cfg.Environment == "production" {
		format = "json"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRedisCache creates a Redis cache client, or nil when disabled.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideCacheService builds the cache used by the market-data provider.
// With Redis available a two-level cache fronts it with memory; without it
// the in-memory cache serves alone.
func ProvideCacheService(rc *cache.RedisCache) cache.Service {
	if rc == nil {
		return cache.NewMemoryCache()
	}
	return cache.NewLayeredCache(rc)
}

// ProvideClickHouseClient creates a ClickHouse client and initializes the
// bar tables.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	barDDL := "(ts DateTime, symbol String, open Float64, high Float64, low Float64, close Float64, volume Float64) ENGINE=ReplacingMergeTree ORDER BY (symbol, ts)"
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		"CREATE TABLE IF NOT EXISTS " + db + ".bars_1m " + barDDL,
		"CREATE TABLE IF NOT EXISTS " + db + ".bars_1h " + barDDL,
		"CREATE TABLE IF NOT EXISTS " + db + ".bars_1d " + barDDL,
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when no brokers are
// configured.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates a Kafka consumer, or nil when disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Consumer.Enabled || len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerLogger(l),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideBarStore creates the ClickHouse bar store.
func ProvideBarStore(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.BarStore {
	store := internalrepo.NewClickHouseBarStore(chClient, cfg.ClickHouse.Database)
	store.SetLogger(l)
	return store
}

// ProvidePublisher creates the Kafka publisher, or nil when Kafka is not
// configured.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.TicksTopic, cfg.Kafka.ForecastTopic)
}

// ProvideHistoryProvider creates the market-data REST client.
func ProvideHistoryProvider(cfg *config.Config, c cache.Service, m repository.Metrics, l *applogger.Logger) repository.HistoryProvider {
	opts := []marketdata.ProviderOption{
		marketdata.WithMetrics(m),
		marketdata.WithLogger(l),
	}
	if c != nil {
		opts = append(opts, marketdata.WithCache(c, cfg.Provider.CacheTTL))
	}
	return marketdata.NewProvider(
		cfg.Provider.Name,
		cfg.Provider.BaseURL,
		cfg.Provider.APIKey,
		cfg.Provider.RateLimit,
		cfg.Provider.RateBurst,
		cfg.Provider.Timeout,
		opts...,
	)
}

// ProvideTickStream creates the provider WebSocket stream, or nil when no
// stream URL is configured.
func ProvideTickStream(cfg *config.Config) repository.TickStream {
	if cfg.Provider.WebSocketURL == "" {
		return nil
	}
	return marketdata.NewStream(
		cfg.Provider.APIKey,
		cfg.Provider.WebSocketURL,
		cfg.Provider.Symbols,
		cfg.Provider.ReconnectDelay,
		cfg.Provider.PingInterval,
	)
}

// ProvideHistoryUseCase creates the history use case.
func ProvideHistoryUseCase(provider repository.HistoryProvider, store repository.BarStore, m repository.Metrics, l *applogger.Logger) *usecase.HistoryUseCase {
	return usecase.NewHistoryUseCase(provider, store, m, l)
}

// ProvideForecastService creates the forecasting service with model options
// taken from configuration. It shares the provider cache so a retrain can
// invalidate stale history and hold a per-symbol lock.
func ProvideForecastService(history *usecase.HistoryUseCase, pub repository.Publisher, m repository.Metrics, c cache.Service, l *applogger.Logger, cfg *config.Config) *usecase.ForecastService {
	return usecase.NewForecastService(history, pub, m, c, l,
		forecast.WithTrendLookback(cfg.Forecast.TrendLookback),
		forecast.WithEnsembleMembers(cfg.Forecast.EnsembleMembers...),
	)
}

// ProvideTickCollector creates the live tick collector, or nil when either
// the stream or the publisher is unavailable.
func ProvideTickCollector(stream repository.TickStream, pub repository.Publisher, m repository.Metrics) *usecase.TickCollector {
	if stream == nil || pub == nil {
		return nil
	}
	return usecase.NewTickCollector(stream, pub, m)
}

// ProvideKafkaBarsHandler registers the handler for the ticks topic.
func ProvideKafkaBarsHandler(store repository.BarStore, m repository.Metrics, cfg *config.Config) *usecase.KafkaBarsHandler {
	return usecase.NewKafkaBarsHandler(cfg.Kafka.TicksTopic, store, m)
}

// ProvideRetrainQueue creates the Redis-backed retrain queue with the
// retrain job registered, or nil when Redis is disabled.
func ProvideRetrainQueue(cfg *config.Config, rc *cache.RedisCache, svc *usecase.ForecastService, l *applogger.Logger) *queue.RedisQueue {
	if rc == nil {
		return nil
	}
	q := queue.NewRedisQueue(l, &queue.QueueConfig{
		Workers:    cfg.Forecast.RetrainWorkers,
		RetryLimit: 3,
		RetryDelay: 30 * time.Second,
	}, rc.Client(), queue.ModeProducerConsumer, queue.WithKeyPrefix("stockcast:retrain"))
	q.RegisterJob(usecase.NewRetrainJob(svc, l))
	return q
}

// ProvideRetrainScheduler creates the periodic retrain scheduler, or nil
// when the queue is unavailable or scheduling is disabled.
func ProvideRetrainScheduler(cfg *config.Config, q *queue.RedisQueue, l *applogger.Logger) *usecase.RetrainScheduler {
	if q == nil || cfg.Forecast.RetrainInterval <= 0 {
		return nil
	}
	return usecase.NewRetrainScheduler(
		q,
		cfg.Provider.Symbols,
		cfg.Forecast.DefaultModel,
		cfg.Forecast.DefaultPeriod,
		cfg.Forecast.RetrainInterval,
		l,
	)
}

// ProvideHTTPHandler creates the API handler with status dependencies wired.
func ProvideHTTPHandler(l *applogger.Logger, history *usecase.HistoryUseCase, svc *usecase.ForecastService, collector *usecase.TickCollector, store repository.BarStore) xhttp.Handler {
	h := api.NewForecastHandler(l, history, svc)
	h.SetBarStore(store)
	if collector != nil {
		h.SetCollector(collector)
	}
	return h
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	collector *usecase.TickCollector,
	consumer *pkgkafka.Consumer,
	barsHandler *usecase.KafkaBarsHandler,
	retrainQueue *queue.RedisQueue,
	scheduler *usecase.RetrainScheduler,
	chClient *pkgch.Client,
	rc *cache.RedisCache,
) *server.App {
	// Tag every failed bar-ingest attempt with the correlation id carried in
	// the message headers.
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.HookFuncs{
			Err: func(_ context.Context, topic string, km segkafka.Message, _ []byte, err error) {
				l.Warn("kafka handler attempt failed",
					applogger.String("topic", topic),
					applogger.String("trace_id", pkgkafka.ExtractTraceID(km)),
					applogger.Error(err))
			},
		})
	}
	// Aggregate repeated error logs through Redis so a flapping provider
	// does not flood the log stream.
	if rc != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          "logs.errors",
			Publisher:      queue.NewRedisPublisher(l, rc.Client()),
		})
	}
	return server.New(cfg, l, handler, collector, consumer, barsHandler, retrainQueue, scheduler, chClient, rc)
}
