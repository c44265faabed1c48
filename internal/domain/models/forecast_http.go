package models

// Requests for the forecasting HTTP endpoints. Defined in domain for
// consistency and reuse.

type ForecastRequest struct {
	Symbol  string `param:"symbol" query:"symbol" json:"symbol" validate:"required"`
	Model   string `query:"model" json:"model" default:"ensemble"`
	Horizon int    `query:"horizon" json:"horizon" default:"30" validate:"gte=1,lte=365"`
	Period  string `query:"period" json:"period" default:"1y" validate:"oneof=1mo 3mo 6mo 1y 2y 5y"`
}

type HistoryRequest struct {
	Symbol string `param:"symbol" query:"symbol" json:"symbol" validate:"required"`
	Period string `query:"period" json:"period" default:"1y" validate:"oneof=1mo 3mo 6mo 1y 2y 5y"`
	Limit  int    `query:"limit" json:"limit" default:"1000" validate:"gte=1,lte=10000"`
}

type QuoteRequest struct {
	Symbol string `param:"symbol" query:"symbol" json:"symbol" validate:"required"`
}

type IndicatorsRequest struct {
	Symbol string `param:"symbol" query:"symbol" json:"symbol" validate:"required"`
	Period string `query:"period" json:"period" default:"6mo" validate:"oneof=1mo 3mo 6mo 1y 2y 5y"`
}
