package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"StockCast/internal/usecase"
	"StockCast/pkg/cache"
	pkgch "StockCast/pkg/clickhouse"
	"StockCast/pkg/config"
	xhttp "StockCast/pkg/http"
	pkgkafka "StockCast/pkg/kafka"
	applogger "StockCast/pkg/logger"
	"StockCast/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg          *config.Config
	l            *applogger.Logger
	httpHandler  xhttp.Handler
	collector    *usecase.TickCollector
	consumer     *pkgkafka.Consumer
	barsHandler  *usecase.KafkaBarsHandler
	retrainQueue *queue.RedisQueue
	scheduler    *usecase.RetrainScheduler
	chClient     *pkgch.Client
	redisCache   *cache.RedisCache
	httpServer   *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	httpHandler xhttp.Handler,
	collector *usecase.TickCollector,
	consumer *pkgkafka.Consumer,
	barsHandler *usecase.KafkaBarsHandler,
	retrainQueue *queue.RedisQueue,
	scheduler *usecase.RetrainScheduler,
	chClient *pkgch.Client,
	redisCache *cache.RedisCache,
) *App {
	return &App{
		cfg:          cfg,
		l:            l,
		httpHandler:  httpHandler,
		collector:    collector,
		consumer:     consumer,
		barsHandler:  barsHandler,
		retrainQueue: retrainQueue,
		scheduler:    scheduler,
		chClient:     chClient,
		redisCache:   redisCache,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithServerLogger(a.l),
	)

	// Start live tick collector when the provider stream is configured
	if a.collector != nil {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				a.l.Error("collector error", applogger.Error(err))
			}
		}()
		a.l.Info("collector started", applogger.Strings("symbols", a.cfg.Provider.Symbols))
	}

	// Start bar aggregation consumer if configured
	if a.consumer != nil && a.barsHandler != nil {
		a.consumer.RegisterHandler(a.barsHandler)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.l.Info("kafka consumer started", applogger.String("topic", a.barsHandler.Topic()))
	}

	// Start retrain queue and scheduler
	if a.retrainQueue != nil {
		if err := a.retrainQueue.Start(); err != nil {
			a.l.Error("retrain queue start error", applogger.Error(err))
		} else if a.scheduler != nil {
			a.scheduler.Start(ctx)
			a.l.Info("retrain scheduler started",
				applogger.String("interval", a.cfg.Forecast.RetrainInterval.String()))
		}
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	if a.collector != nil {
		if err := a.collector.Shutdown(shutdownCtx); err != nil {
			a.l.Warn("collector stop error", applogger.Error(err))
		}
	}

	if a.httpServer != nil {
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			a.l.Error("http shutdown error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Flush partial bars held by the aggregation handler
	if a.barsHandler != nil {
		if err := a.barsHandler.Flush(shutdownCtx); err != nil {
			a.l.Warn("bars flush error", applogger.Error(err))
		}
	}

	if a.retrainQueue != nil {
		if err := a.retrainQueue.Stop(shutdownCtx); err != nil {
			a.l.Warn("retrain queue stop error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	if a.redisCache != nil {
		if err := a.redisCache.Close(); err != nil {
			a.l.Warn("redis close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	a.l.RemoveCollector()
	return nil
}
