package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

type sampleRequest struct {
	Symbol  string `query:"symbol" json:"symbol" validate:"required"`
	Model   string `query:"model" json:"model" default:"ensemble"`
	Horizon int    `query:"horizon" json:"horizon" default:"30" validate:"gte=1,lte=365"`
	Period  string `query:"period" json:"period" default:"1y" validate:"oneof=1mo 3mo 6mo 1y 2y 5y"`
}

func jsonContext(t *testing.T, body string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return e.NewContext(req, httptest.NewRecorder())
}

func asValidationErrors(t *testing.T, verr interface{}) []ValidationError {
	t.Helper()
	errs, ok := verr.([]ValidationError)
	if !ok {
		t.Fatalf("expected []ValidationError, got %T", verr)
	}
	return errs
}

func TestReadAndValidateRequestMissingRequiredField(t *testing.T) {
	req := &sampleRequest{}
	verr := ReadAndValidateRequest(jsonContext(t, `{"horizon":10}`), req)
	if verr == nil {
		t.Fatal("expected validation error for missing symbol")
	}
	errs := asValidationErrors(t, verr)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(errs), errs)
	}
	if errs[0].Code != "ERR_REQUIRED" || errs[0].Field != "Symbol" {
		t.Errorf("got code=%s field=%s, want ERR_REQUIRED on Symbol", errs[0].Code, errs[0].Field)
	}
}

func TestReadAndValidateRequestOutOfRange(t *testing.T) {
	req := &sampleRequest{}
	verr := ReadAndValidateRequest(jsonContext(t, `{"symbol":"AAPL","horizon":500}`), req)
	if verr == nil {
		t.Fatal("expected validation error for horizon above range")
	}
	errs := asValidationErrors(t, verr)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(errs), errs)
	}
	if errs[0].Code != "ERR_LTE" || errs[0].Field != "Horizon" {
		t.Errorf("got code=%s field=%s, want ERR_LTE on Horizon", errs[0].Code, errs[0].Field)
	}
	if errs[0].Params["max"] != "365" {
		t.Errorf("params = %v, want max=365", errs[0].Params)
	}
}

func TestReadAndValidateRequestRejectsUnknownEnumValue(t *testing.T) {
	req := &sampleRequest{}
	verr := ReadAndValidateRequest(jsonContext(t, `{"symbol":"AAPL","period":"7d"}`), req)
	if verr == nil {
		t.Fatal("expected validation error for unknown period")
	}
	errs := asValidationErrors(t, verr)
	if errs[0].Code != "ERR_ONEOF" || errs[0].Field != "Period" {
		t.Errorf("got code=%s field=%s, want ERR_ONEOF on Period", errs[0].Code, errs[0].Field)
	}
}

func TestReadAndValidateRequestAppliesDefaults(t *testing.T) {
	req := &sampleRequest{}
	if verr := ReadAndValidateRequest(jsonContext(t, `{"symbol":"AAPL"}`), req); verr != nil {
		t.Fatalf("unexpected validation error: %v", verr)
	}
	if req.Model != "ensemble" {
		t.Errorf("Model = %q, want ensemble", req.Model)
	}
	if req.Horizon != 30 {
		t.Errorf("Horizon = %d, want 30", req.Horizon)
	}
	if req.Period != "1y" {
		t.Errorf("Period = %q, want 1y", req.Period)
	}
}

func TestReadAndValidateRequestKeepsExplicitValues(t *testing.T) {
	req := &sampleRequest{}
	if verr := ReadAndValidateRequest(jsonContext(t, `{"symbol":"AAPL","model":"arima","horizon":7,"period":"3mo"}`), req); verr != nil {
		t.Fatalf("unexpected validation error: %v", verr)
	}
	if req.Model != "arima" || req.Horizon != 7 || req.Period != "3mo" {
		t.Errorf("explicit values overwritten: %+v", req)
	}
}
