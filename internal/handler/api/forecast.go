package api

import (
	"net/http"
	"time"

	models "StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	"StockCast/internal/forecast"
	"StockCast/internal/indicator"
	"StockCast/internal/usecase"
	xhttp "StockCast/pkg/http"
	xlogger "StockCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ForecastHandler implements Echo-based HTTP handlers following Clean Architecture.
type ForecastHandler struct {
	logger    *xlogger.Logger
	history   *usecase.HistoryUseCase
	svc       *usecase.ForecastService
	collector *usecase.TickCollector
	store     domrepo.BarStore
	startedAt time.Time
}

func NewForecastHandler(logger *xlogger.Logger, history *usecase.HistoryUseCase, svc *usecase.ForecastService) *ForecastHandler {
	return &ForecastHandler{logger: logger, history: history, svc: svc, startedAt: time.Now()}
}

// SetCollector injects the live tick collector for status reporting.
func (h *ForecastHandler) SetCollector(c *usecase.TickCollector) { h.collector = c }

// SetBarStore injects the bar store for status reporting.
func (h *ForecastHandler) SetBarStore(s domrepo.BarStore) { h.store = s }

func (h *ForecastHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/api")
	g.POST("/forecast", h.Forecast)
	g.GET("/forecast/:symbol", h.Forecast)
	g.GET("/models", h.Models)
	g.GET("/stock/:symbol", h.Stock)
	g.GET("/bars/:symbol", h.Bars)
	g.GET("/quote/:symbol", h.Quote)
	g.GET("/indicators/:symbol", h.Indicators)
	g.GET("/status", h.Status)
}

func (h *ForecastHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *ForecastHandler) Forecast(c echo.Context) error {
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	out, err := h.svc.Forecast(c.Request().Context(), usecase.ForecastParams{
		Symbol:  req.Symbol,
		Model:   req.Model,
		Horizon: req.Horizon,
		Period:  req.Period,
	})
	if err != nil {
		h.logger.Error("forecast usecase error",
			xlogger.String("symbol", req.Symbol),
			xlogger.String("model", req.Model),
			xlogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, mapForecastError(err))
	}
	return xhttp.SuccessResponse(c, out)
}

func (h *ForecastHandler) Models(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"models":  h.svc.AvailableModels(),
		"default": "ensemble",
	})
}

func (h *ForecastHandler) Stock(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.history.GetHistory(c.Request().Context(), usecase.GetHistoryParams{
		Symbol: req.Symbol,
		Period: req.Period,
		Limit:  req.Limit,
	})
	if err != nil {
		h.logger.Error("history usecase error",
			xlogger.String("symbol", req.Symbol),
			xlogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, xhttp.InternalError("history fetch failed").WithError(err))
	}

	snap := indicator.Compute(res.Candles)
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"symbol":     res.Symbol,
		"period":     res.Period,
		"count":      res.Count,
		"candles":    res.Candles,
		"indicators": snap,
	})
}

// Bars serves archived bars straight from the bar store, bypassing the
// provider. Useful for intraday resolutions the REST provider cannot serve.
func (h *ForecastHandler) Bars(c echo.Context) error {
	symbol := c.Param("symbol")
	if symbol == "" {
		return xhttp.BadRequestResponse(c, "symbol required")
	}
	tf := domrepo.NormalizeTimeframe(c.QueryParam("tf"))

	now := time.Now().UTC()
	from := xhttp.ParseTimeDefault(c.QueryParam("from"), now.AddDate(0, -1, 0))
	to := xhttp.ParseTimeDefault(c.QueryParam("to"), now)
	limit := xhttp.ParseIntDefault(c.QueryParam("limit"), 1000)

	bars, err := h.history.GetStoredBars(c.Request().Context(), symbol, from, to, tf)
	if err != nil {
		h.logger.Error("stored bars error",
			xlogger.String("symbol", symbol),
			xlogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, xhttp.InternalError("bar store read failed").WithError(err))
	}
	if len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"symbol": symbol,
		"tf":     string(tf),
		"count":  len(bars),
		"bars":   bars,
	})
}

func (h *ForecastHandler) Quote(c echo.Context) error {
	req := &models.QuoteRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	q, err := h.history.GetQuote(c.Request().Context(), req.Symbol)
	if err != nil {
		h.logger.Error("quote usecase error",
			xlogger.String("symbol", req.Symbol),
			xlogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("quote for %s unavailable", req.Symbol).WithError(err))
	}
	return xhttp.SuccessResponse(c, q)
}

func (h *ForecastHandler) Indicators(c echo.Context) error {
	req := &models.IndicatorsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.history.GetHistory(c.Request().Context(), usecase.GetHistoryParams{
		Symbol: req.Symbol,
		Period: req.Period,
	})
	if err != nil {
		h.logger.Error("indicators usecase error",
			xlogger.String("symbol", req.Symbol),
			xlogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, xhttp.InternalError("history fetch failed").WithError(err))
	}

	return xhttp.SuccessResponse(c, map[string]interface{}{
		"symbol":     res.Symbol,
		"period":     res.Period,
		"indicators": indicator.Compute(res.Candles),
	})
}

func (h *ForecastHandler) Status(c echo.Context) error {
	status := map[string]interface{}{
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
		"models":         h.svc.AvailableModels(),
	}
	if h.collector != nil {
		status["stream_connected"] = h.collector.IsConnected()
	}
	if h.store != nil {
		ok := h.store.Health(c.Request().Context()) == nil
		status["bar_store_healthy"] = ok
	}
	return xhttp.SuccessResponse(c, status)
}

// mapForecastError translates the forecasting error taxonomy into HTTP
// application errors. Client mistakes map to 4xx, runtime limits to 5xx.
func mapForecastError(err error) error {
	switch {
	case forecast.IsKind(err, forecast.KindInsufficientData):
		return xhttp.NewAppError("ERR_INSUFFICIENT_DATA", "", err.Error(), http.StatusBadRequest).WithError(err)
	case forecast.IsKind(err, forecast.KindUnknownModelType):
		return xhttp.NewAppError("ERR_UNKNOWN_MODEL", "model", err.Error(), http.StatusBadRequest).WithError(err)
	case forecast.IsKind(err, forecast.KindCapabilityUnavailable):
		return xhttp.NewAppError("ERR_MODEL_UNAVAILABLE", "model", err.Error(), http.StatusNotImplemented).WithError(err)
	case forecast.IsKind(err, forecast.KindNoModelsAvailable):
		return xhttp.NewAppError("ERR_NO_MODELS", "", err.Error(), http.StatusServiceUnavailable).WithError(err)
	case forecast.IsKind(err, forecast.KindModelFitFailure):
		return xhttp.NewAppError("ERR_FIT_FAILURE", "", err.Error(), http.StatusInternalServerError).WithError(err)
	default:
		return xhttp.InternalError("forecast failed").WithError(err)
	}
}
