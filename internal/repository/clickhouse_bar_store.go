package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	pkgch "StockCast/pkg/clickhouse"
	applogger "StockCast/pkg/logger"
)

// ClickHouseBarStore implements BarStore backed by ClickHouse. Each
// timeframe has its own table (bars_1m, bars_1h, bars_1d); the engine is
// ReplacingMergeTree so re-archiving a range is idempotent.
type ClickHouseBarStore struct {
	db       *sql.DB
	database string
	l        *applogger.Logger
}

// NewClickHouseBarStore creates a ClickHouse-backed bar store.
func NewClickHouseBarStore(ch *pkgch.Client, database string) *ClickHouseBarStore {
	return &ClickHouseBarStore{db: ch.DB(), database: database}
}

// SetLogger injects a structured logger.
func (s *ClickHouseBarStore) SetLogger(l *applogger.Logger) { s.l = l }

// Init is a no-op; schema creation runs once at client construction.
func (s *ClickHouseBarStore) Init(ctx context.Context) error { return nil }

func (s *ClickHouseBarStore) StoreBar(ctx context.Context, bar *models.Candle, tf domrepo.Timeframe) error {
	return s.StoreBars(ctx, []*models.Candle{bar}, tf)
}

func (s *ClickHouseBarStore) StoreBars(ctx context.Context, bars []*models.Candle, tf domrepo.Timeframe) error {
	if len(bars) == 0 {
		return nil
	}

	// Multi-row VALUES inserts to cut round-trips, chunked.
	const chunkSize = 2000
	table := s.table(tf)
	for start := 0; start < len(bars); start += chunkSize {
		end := start + chunkSize
		if end > len(bars) {
			end = len(bars)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*7)
		for _, b := range bars[start:end] {
			if b == nil || b.Symbol == "" || b.Timestamp.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
			args = append(args, b.Timestamp, b.Symbol, b.Open, b.High, b.Low, b.Close, b.Volume)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf(
			"INSERT INTO %s (ts, symbol, open, high, low, close, volume) VALUES %s",
			table, strings.Join(values, ","),
		)
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse store_bars error",
					applogger.String("table", table),
					applogger.Int("rows", len(values)),
					applogger.Error(err),
				)
			}
			return fmt.Errorf("store bars: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseBarStore) GetBars(ctx context.Context, symbol string, from, to time.Time, tf domrepo.Timeframe) (models.Series, error) {
	start := time.Now()
	table := s.table(tf)
	const qtpl = `
        SELECT ts, symbol, open, high, low, close, volume
        FROM %s
        WHERE symbol = ? AND ts >= ? AND ts <= ?
        ORDER BY ts ASC
    `
	q := fmt.Sprintf(qtpl, table)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_bars query error",
				applogger.String("table", table),
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get bars: %w", err)
	}
	defer rows.Close()

	out := make(models.Series, 0, 1024)
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Timestamp, &c.Symbol, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse get_bars ok",
			applogger.String("table", table),
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *ClickHouseBarStore) GetLatestBars(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) (models.Series, error) {
	table := s.table(tf)
	const qtpl = `
        SELECT ts, symbol, open, high, low, close, volume
        FROM %s
        WHERE symbol = ?
        ORDER BY ts DESC
        LIMIT ?
    `
	q := fmt.Sprintf(qtpl, table)
	rows, err := s.db.QueryContext(ctx, q, symbol, n)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse latest_bars query error",
				applogger.String("table", table),
				applogger.String("symbol", symbol),
				applogger.Int("limit", n),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get latest bars: %w", err)
	}
	defer rows.Close()

	tmp := make(models.Series, 0, n)
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Timestamp, &c.Symbol, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		tmp = append(tmp, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	// reverse to ASC
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}
	return tmp, nil
}

func (s *ClickHouseBarStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseBarStore) Close() error {
	return nil // pool is owned by pkg/clickhouse.Client
}

func (s *ClickHouseBarStore) table(tf domrepo.Timeframe) string {
	switch tf {
	case domrepo.TF1m:
		return s.database + ".bars_1m"
	case domrepo.TF1h:
		return s.database + ".bars_1h"
	default:
		return s.database + ".bars_1d"
	}
}

var _ domrepo.BarStore = (*ClickHouseBarStore)(nil)
