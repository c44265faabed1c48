// Package indicator computes standard technical indicators over close-price
// series. All functions are pure; outputs are aligned to the input so the
// value at index i is the indicator at bar i, with leading positions NaN
// until the warm-up window is filled.
package indicator

import (
	"math"

	"StockCast/internal/domain/models"
)

// Snapshot is the latest value of each configured indicator for a series,
// as served by the API.
type Snapshot struct {
	SMA20         float64 `json:"sma_20"`
	SMA50         float64 `json:"sma_50"`
	EMA12         float64 `json:"ema_12"`
	EMA26         float64 `json:"ema_26"`
	MACD          float64 `json:"macd"`
	MACDSignal    float64 `json:"macd_signal"`
	RSI14         float64 `json:"rsi_14"`
	BollingerMid  float64 `json:"bollinger_mid"`
	BollingerUp   float64 `json:"bollinger_upper"`
	BollingerDown float64 `json:"bollinger_lower"`
}

// Compute returns the latest indicator values for the series.
func Compute(series models.Series) Snapshot {
	closes := series.Closes()
	macd, signal := MACD(closes, 12, 26, 9)
	mid, up, down := Bollinger(closes, 20, 2)
	return Snapshot{
		SMA20:         last(SMA(closes, 20)),
		SMA50:         last(SMA(closes, 50)),
		EMA12:         last(EMA(closes, 12)),
		EMA26:         last(EMA(closes, 26)),
		MACD:          last(macd),
		MACDSignal:    last(signal),
		RSI14:         last(RSI(closes, 14)),
		BollingerMid:  last(mid),
		BollingerUp:   last(up),
		BollingerDown: last(down),
	}
}

// SMA is the simple moving average over period bars.
func SMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMA is the exponential moving average seeded with the first period's SMA.
func EMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	var seed float64
	for _, v := range values[:period] {
		seed += v
	}
	seed /= float64(period)
	out[period-1] = seed

	k := 2.0 / float64(period+1)
	prev := seed
	for i := period; i < len(values); i++ {
		prev = values[i]*k + prev*(1-k)
		out[i] = prev
	}
	return out
}

// MACD returns the MACD line (fast EMA minus slow EMA) and its signal line
// (EMA of the MACD line).
func MACD(values []float64, fast, slow, signalPeriod int) (macd, signal []float64) {
	fastEMA := EMA(values, fast)
	slowEMA := EMA(values, slow)
	macd = nanSlice(len(values))
	for i := range values {
		if !math.IsNaN(fastEMA[i]) && !math.IsNaN(slowEMA[i]) {
			macd[i] = fastEMA[i] - slowEMA[i]
		}
	}

	// Signal line starts where the MACD line becomes defined.
	signal = nanSlice(len(values))
	start := -1
	for i, v := range macd {
		if !math.IsNaN(v) {
			start = i
			break
		}
	}
	if start < 0 {
		return macd, signal
	}
	sub := EMA(macd[start:], signalPeriod)
	copy(signal[start:], sub)
	return macd, signal
}

// RSI is Wilder's relative strength index.
func RSI(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) <= period {
		return out
	}

	var gain, loss float64
	for i := 1; i <= period; i++ {
		d := values[i] - values[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(values); i++ {
		d := values[i] - values[i-1]
		g, l := 0.0, 0.0
		if d > 0 {
			g = d
		} else {
			l = -d
		}
		avgGain = (avgGain*float64(period-1) + g) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + l) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// Bollinger returns the middle band (SMA), upper and lower bands at k
// standard deviations.
func Bollinger(values []float64, period int, k float64) (mid, upper, lower []float64) {
	mid = SMA(values, period)
	upper = nanSlice(len(values))
	lower = nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return mid, upper, lower
	}
	for i := period - 1; i < len(values); i++ {
		m := mid[i]
		var ss float64
		for _, v := range values[i-period+1 : i+1] {
			d := v - m
			ss += d * d
		}
		sd := math.Sqrt(ss / float64(period))
		upper[i] = m + k*sd
		lower[i] = m - k*sd
	}
	return mid, upper, lower
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func last(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[len(values)-1]
}
