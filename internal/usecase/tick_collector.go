package usecase

import (
	"context"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
)

// TickCollector reads the live trade stream and publishes ticks to the bus.
// A downstream consumer aggregates them into bars.
type TickCollector struct {
	stream  domrepo.TickStream
	pub     domrepo.Publisher
	metrics domrepo.Metrics
}

// NewTickCollector creates a new TickCollector instance.
func NewTickCollector(stream domrepo.TickStream, pub domrepo.Publisher, metrics domrepo.Metrics) *TickCollector {
	return &TickCollector{stream: stream, pub: pub, metrics: metrics}
}

// IsConnected returns true if the live stream is connected.
func (c *TickCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *TickCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	tickCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, tickCh, errCh)
	return nil
}

// consume drains the stream until the context ends. A read error closes the
// stream's channels, so after a reconnect fresh channels are acquired.
func (c *TickCollector) consume(ctx context.Context, tickCh <-chan *models.Tick, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
			}
			if ctx.Err() != nil {
				return
			}
			if rerr := c.stream.Reconnect(ctx); rerr != nil {
				c.metrics.RecordError("stream_reconnect")
			}
			tickCh, errCh = c.stream.Read(ctx)
		case t, ok := <-tickCh:
			if !ok {
				if ctx.Err() != nil {
					return
				}
				if rerr := c.stream.Reconnect(ctx); rerr != nil {
					c.metrics.RecordError("stream_reconnect")
				}
				tickCh, errCh = c.stream.Read(ctx)
				continue
			}
			if t == nil {
				continue
			}
			if err := c.pub.PublishTick(ctx, t); err != nil {
				c.metrics.RecordError("tick_publish")
				continue
			}
			c.metrics.RecordLastPrice(t.Symbol, t.Price)
		}
	}
}

// Shutdown closes the stream.
func (c *TickCollector) Shutdown(ctx context.Context) error {
	return c.stream.Close()
}
