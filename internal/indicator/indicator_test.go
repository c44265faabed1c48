package indicator

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestSMAConstantSeries(t *testing.T) {
	values := make([]float64, 30)
	for i := range values {
		values[i] = 50
	}
	sma := SMA(values, 20)
	if !math.IsNaN(sma[18]) {
		t.Fatalf("expected NaN during warm-up, got %v", sma[18])
	}
	for i := 19; i < len(sma); i++ {
		if !almostEqual(sma[i], 50, 1e-12) {
			t.Fatalf("index %d: expected 50, got %v", i, sma[i])
		}
	}
}

func TestSMAKnownWindow(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	sma := SMA(values, 3)
	want := []float64{math.NaN(), math.NaN(), 2, 3, 4}
	for i := range want {
		if math.IsNaN(want[i]) {
			if !math.IsNaN(sma[i]) {
				t.Fatalf("index %d: expected NaN, got %v", i, sma[i])
			}
			continue
		}
		if !almostEqual(sma[i], want[i], 1e-12) {
			t.Fatalf("index %d: expected %v, got %v", i, want[i], sma[i])
		}
	}
}

func TestEMASeedsWithSMA(t *testing.T) {
	values := []float64{2, 4, 6, 8, 10}
	ema := EMA(values, 3)
	if !almostEqual(ema[2], 4, 1e-12) {
		t.Fatalf("expected seed 4 at index 2, got %v", ema[2])
	}
	// k = 0.5; ema[3] = 8*0.5 + 4*0.5 = 6
	if !almostEqual(ema[3], 6, 1e-12) {
		t.Fatalf("expected 6 at index 3, got %v", ema[3])
	}
	if !almostEqual(ema[4], 8, 1e-12) {
		t.Fatalf("expected 8 at index 4, got %v", ema[4])
	}
}

func TestRSIAllGains(t *testing.T) {
	values := make([]float64, 30)
	for i := range values {
		values[i] = float64(i + 1)
	}
	rsi := RSI(values, 14)
	if !almostEqual(rsi[len(rsi)-1], 100, 1e-9) {
		t.Fatalf("strictly rising series should peg RSI at 100, got %v", rsi[len(rsi)-1])
	}
}

func TestRSIBounds(t *testing.T) {
	values := []float64{44, 47, 45, 50, 48, 52, 49, 53, 51, 55, 52, 56, 54, 58, 55, 59, 57, 61, 58, 62}
	rsi := RSI(values, 14)
	for i := 14; i < len(rsi); i++ {
		if rsi[i] < 0 || rsi[i] > 100 {
			t.Fatalf("RSI out of [0,100] at %d: %v", i, rsi[i])
		}
	}
}

func TestMACDCrossesZeroOnTrendReversal(t *testing.T) {
	values := make([]float64, 80)
	for i := 0; i < 40; i++ {
		values[i] = 100 + float64(i)
	}
	for i := 40; i < 80; i++ {
		values[i] = 140 - float64(i-40)
	}
	macd, signal := MACD(values, 12, 26, 9)
	if macd[39] <= 0 {
		t.Fatalf("uptrend should have positive MACD, got %v", macd[39])
	}
	if macd[79] >= 0 {
		t.Fatalf("downtrend should have negative MACD, got %v", macd[79])
	}
	if math.IsNaN(signal[79]) {
		t.Fatalf("signal line should be defined at the end")
	}
}

func TestBollingerBandsBracketSMA(t *testing.T) {
	values := []float64{20, 21, 22, 21, 20, 22, 23, 22, 21, 20, 22, 23, 24, 23, 22, 21, 23, 24, 25, 24, 23, 22}
	mid, up, down := Bollinger(values, 20, 2)
	i := len(values) - 1
	if math.IsNaN(mid[i]) || math.IsNaN(up[i]) || math.IsNaN(down[i]) {
		t.Fatalf("bands undefined at the end")
	}
	if !(down[i] < mid[i] && mid[i] < up[i]) {
		t.Fatalf("expected lower < mid < upper, got %v %v %v", down[i], mid[i], up[i])
	}
	if !almostEqual(up[i]-mid[i], mid[i]-down[i], 1e-9) {
		t.Fatalf("bands should be symmetric around the middle")
	}
}

func TestBollingerConstantSeriesZeroWidth(t *testing.T) {
	values := make([]float64, 25)
	for i := range values {
		values[i] = 10
	}
	mid, up, down := Bollinger(values, 20, 2)
	i := len(values) - 1
	if !almostEqual(up[i], mid[i], 1e-12) || !almostEqual(down[i], mid[i], 1e-12) {
		t.Fatalf("constant series should collapse the bands, got %v %v %v", down[i], mid[i], up[i])
	}
}
