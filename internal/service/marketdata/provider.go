package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"StockCast/internal/domain/models"
	drepo "StockCast/internal/domain/repository"
	"StockCast/pkg/cache"
	xhttp "StockCast/pkg/http"
	applogger "StockCast/pkg/logger"
)

// Provider fetches historical bars and quotes over the provider's REST API.
// Requests are rate limited per process and responses are cached with a TTL
// so repeated lookups within the window never hit the provider.
type Provider struct {
	name    string
	baseURL string
	apiKey  string
	limiter *rate.Limiter
	client  *xhttp.Client
	cache   cache.Service
	ttl     time.Duration
	metrics drepo.Metrics
	l       *applogger.Logger
}

// ProviderOption configures Provider.
type ProviderOption func(*Provider)

// WithCache enables response caching with the given TTL.
func WithCache(c cache.Service, ttl time.Duration) ProviderOption {
	return func(p *Provider) {
		p.cache = c
		p.ttl = ttl
	}
}

// WithMetrics enables fetch metrics.
func WithMetrics(m drepo.Metrics) ProviderOption {
	return func(p *Provider) { p.metrics = m }
}

// WithLogger injects a structured logger.
func WithLogger(l *applogger.Logger) ProviderOption {
	return func(p *Provider) { p.l = l }
}

// NewProvider builds a rate-limited REST provider client.
func NewProvider(name, baseURL, apiKey string, rps float64, burst int, timeout time.Duration, opts ...ProviderOption) *Provider {
	p := &Provider{
		name:    name,
		baseURL: baseURL,
		apiKey:  apiKey,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		ttl:     5 * time.Minute,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type barRow struct {
	T int64   `json:"t"` // unix seconds
	O float64 `json:"o"`
	H float64 `json:"h"`
	L float64 `json:"l"`
	C float64 `json:"c"`
	V float64 `json:"v"`
}

type historyResponse struct {
	Symbol string   `json:"symbol"`
	Bars   []barRow `json:"bars"`
}

// FetchHistory fetches daily bars for symbol in [from, to]. Bars that fail
// validation (missing fields, non-positive prices, high < low) are dropped
// rather than failing the whole fetch.
func (p *Provider) FetchHistory(ctx context.Context, symbol string, from, to time.Time) (models.Series, error) {
	cacheKey := cache.Key("history", strings.ToUpper(symbol), from.Unix(), to.Unix())
	if p.cache != nil {
		var cached models.Series
		if err := p.cache.Get(ctx, cacheKey, &cached); err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	var resp historyResponse
	err := p.client.DoJSON(ctx, &xhttp.RequestOptions{
		Method: http.MethodGet,
		URL:    fmt.Sprintf("%s/history/%s", p.baseURL, symbol),
		Headers: map[string]string{
			"Authorization": "Bearer " + p.apiKey,
		},
		Query: url.Values{
			"from":       {fmt.Sprintf("%d", from.Unix())},
			"to":         {fmt.Sprintf("%d", to.Unix())},
			"resolution": {"1d"},
		},
	}, &resp)
	if err != nil {
		if p.metrics != nil {
			p.metrics.RecordError("provider_fetch")
		}
		return nil, fmt.Errorf("fetch history %s: %w", symbol, err)
	}

	series := make(models.Series, 0, len(resp.Bars))
	dropped := 0
	for _, r := range resp.Bars {
		c := models.Candle{
			Timestamp: time.Unix(r.T, 0).UTC(),
			Symbol:    symbol,
			Open:      r.O,
			High:      r.H,
			Low:       r.L,
			Close:     r.C,
			Volume:    r.V,
		}
		if !validBar(c) {
			dropped++
			continue
		}
		series = append(series, c)
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Timestamp.Before(series[j].Timestamp) })

	if p.l != nil && dropped > 0 {
		p.l.Warn("provider returned invalid bars",
			applogger.String("symbol", symbol),
			applogger.Int("dropped", dropped),
		)
	}
	if p.metrics != nil {
		p.metrics.RecordFetch(p.name, symbol)
	}
	if p.cache != nil && len(series) > 0 {
		_ = p.cache.Set(ctx, cacheKey, series, p.ttl)
	}
	return series, nil
}

type quoteResponse struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Volume        float64 `json:"volume"`
	PrevClose     float64 `json:"prev_close"`
	TimestampUnix int64   `json:"t"`
}

// FetchQuote fetches a real-time price snapshot.
func (p *Provider) FetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	var resp quoteResponse
	err := p.client.DoJSON(ctx, &xhttp.RequestOptions{
		Method: http.MethodGet,
		URL:    fmt.Sprintf("%s/quote/%s", p.baseURL, symbol),
		Headers: map[string]string{
			"Authorization": "Bearer " + p.apiKey,
		},
	}, &resp)
	if err != nil {
		if p.metrics != nil {
			p.metrics.RecordError("provider_quote")
		}
		return nil, fmt.Errorf("fetch quote %s: %w", symbol, err)
	}

	q := &models.Quote{
		Symbol:    symbol,
		Price:     resp.Price,
		Open:      resp.Open,
		High:      resp.High,
		Low:       resp.Low,
		Volume:    resp.Volume,
		Timestamp: time.Unix(resp.TimestampUnix, 0).UTC(),
	}
	if resp.PrevClose > 0 {
		q.Change = resp.Price - resp.PrevClose
		q.ChangePercent = q.Change / resp.PrevClose * 100
	}
	if p.metrics != nil {
		p.metrics.RecordFetch(p.name, symbol)
		p.metrics.RecordLastPrice(symbol, q.Price)
	}
	return q, nil
}

// validBar rejects bars with non-positive prices or an inverted range.
func validBar(c models.Candle) bool {
	if c.Timestamp.IsZero() {
		return false
	}
	if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
		return false
	}
	if c.High < c.Low {
		return false
	}
	if c.Volume < 0 {
		return false
	}
	return true
}

var _ drepo.HistoryProvider = (*Provider)(nil)
