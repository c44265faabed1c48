package repository

import (
	"context"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	pkgkafka "StockCast/pkg/kafka"
)

// KafkaPublisher implements Publisher for Kafka. Ticks are keyed by symbol
// so per-symbol ordering survives partitioning; forecasts likewise.
type KafkaPublisher struct {
	producer      *pkgkafka.Producer
	ticksTopic    string
	forecastTopic string
}

// NewKafkaPublisher creates a Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, ticksTopic, forecastTopic string) domrepo.Publisher {
	return &KafkaPublisher{
		producer:      producer,
		ticksTopic:    ticksTopic,
		forecastTopic: forecastTopic,
	}
}

func (p *KafkaPublisher) PublishTick(ctx context.Context, t *models.Tick) error {
	return p.producer.Publish(ctx, p.ticksTopic, []byte(t.Symbol), tickPayload(t))
}

func (p *KafkaPublisher) PublishTicks(ctx context.Context, ticks []*models.Tick) error {
	if len(ticks) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(ticks))
	for i, t := range ticks {
		msgs[i] = pkgkafka.Message{Key: []byte(t.Symbol), Value: tickPayload(t)}
	}
	return p.producer.PublishBatch(ctx, p.ticksTopic, msgs)
}

func (p *KafkaPublisher) PublishForecast(ctx context.Context, symbol string, res *models.ForecastResult) error {
	if p.forecastTopic == "" {
		return nil
	}
	payload := map[string]interface{}{
		"symbol":   symbol,
		"model":    res.ModelType,
		"forecast": res,
	}
	return p.producer.Publish(ctx, p.forecastTopic, []byte(symbol), payload)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func tickPayload(t *models.Tick) map[string]interface{} {
	return map[string]interface{}{
		"symbol": t.Symbol,
		"t":      t.Timestamp.Unix(),
		"p":      t.Price,
		"v":      t.Volume,
	}
}
