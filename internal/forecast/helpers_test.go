package forecast

import (
	"time"

	"StockCast/internal/domain/models"
)

// syntheticSeries builds n daily bars starting 2024-01-01 with closes from f.
func syntheticSeries(n int, f func(i int) float64) models.Series {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := make(models.Series, n)
	for i := range s {
		c := f(i)
		s[i] = models.Candle{
			Timestamp: start.AddDate(0, 0, i),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1000,
		}
	}
	return s
}

func linearSeries(n int) models.Series {
	return syntheticSeries(n, func(i int) float64 { return 100 + 2*float64(i) })
}

func constantSeries(n int, price float64) models.Series {
	return syntheticSeries(n, func(int) float64 { return price })
}

func almostEqual(a, b, tol float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}
