package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	models "StockCast/internal/domain/models"
	xhttp "StockCast/pkg/http"

	"github.com/labstack/echo/v4"
)

func forecastContext(t *testing.T, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/forecast", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

type envelope struct {
	Status int                     `json:"status"`
	Data   []xhttp.ValidationError `json:"data"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return env
}

func TestForecastRejectsMissingSymbol(t *testing.T) {
	h := NewForecastHandler(nil, nil, nil)
	c, rec := forecastContext(t, `{"horizon":10}`)

	if err := h.Forecast(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	env := decodeEnvelope(t, rec)
	if env.Status != http.StatusBadRequest {
		t.Fatalf("envelope status = %d, want 400", env.Status)
	}
	if len(env.Data) != 1 || env.Data[0].Code != "ERR_REQUIRED" || env.Data[0].Field != "Symbol" {
		t.Errorf("validation errors = %+v, want ERR_REQUIRED on Symbol", env.Data)
	}
}

func TestForecastRejectsHorizonAboveRange(t *testing.T) {
	h := NewForecastHandler(nil, nil, nil)
	c, rec := forecastContext(t, `{"symbol":"AAPL","horizon":400}`)

	if err := h.Forecast(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	env := decodeEnvelope(t, rec)
	if env.Status != http.StatusBadRequest {
		t.Fatalf("envelope status = %d, want 400", env.Status)
	}
	if len(env.Data) != 1 || env.Data[0].Code != "ERR_LTE" || env.Data[0].Field != "Horizon" {
		t.Errorf("validation errors = %+v, want ERR_LTE on Horizon", env.Data)
	}
}

func TestForecastRequestFillsDefaults(t *testing.T) {
	c, _ := forecastContext(t, `{"symbol":"AAPL"}`)

	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		t.Fatalf("unexpected validation error: %v", verr)
	}
	if req.Model != "ensemble" || req.Horizon != 30 || req.Period != "1y" {
		t.Errorf("defaults not applied: %+v", req)
	}
}
