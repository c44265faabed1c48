package forecast

import "fmt"

// minMaxScaler normalizes feature columns to [0,1]. It is fitted once, at
// train time, from training data only; predict-time transforms reuse the
// fitted statistics so no future information leaks into the scale.
type minMaxScaler struct {
	min    []float64
	max    []float64
	fitted bool
}

// Fit derives per-column min and max from rows of feature vectors.
func (s *minMaxScaler) Fit(rows [][]float64) error {
	if len(rows) == 0 {
		return fmt.Errorf("scaler: no rows to fit")
	}
	cols := len(rows[0])
	s.min = make([]float64, cols)
	s.max = make([]float64, cols)
	copy(s.min, rows[0])
	copy(s.max, rows[0])
	for _, row := range rows[1:] {
		for j, v := range row {
			if v < s.min[j] {
				s.min[j] = v
			}
			if v > s.max[j] {
				s.max[j] = v
			}
		}
	}
	s.fitted = true
	return nil
}

// Transform maps rows into [0,1] per column. Constant columns map to 0.
func (s *minMaxScaler) Transform(rows [][]float64) ([][]float64, error) {
	if !s.fitted {
		return nil, fmt.Errorf("scaler: transform before fit")
	}
	out := make([][]float64, len(rows))
	for i, row := range rows {
		if len(row) != len(s.min) {
			return nil, fmt.Errorf("scaler: row has %d columns, fitted on %d", len(row), len(s.min))
		}
		scaled := make([]float64, len(row))
		for j, v := range row {
			span := s.max[j] - s.min[j]
			if span == 0 {
				scaled[j] = 0
				continue
			}
			scaled[j] = (v - s.min[j]) / span
		}
		out[i] = scaled
	}
	return out, nil
}

// Inverse maps scaled rows back to original units.
func (s *minMaxScaler) Inverse(rows [][]float64) ([][]float64, error) {
	if !s.fitted {
		return nil, fmt.Errorf("scaler: inverse before fit")
	}
	out := make([][]float64, len(rows))
	for i, row := range rows {
		if len(row) != len(s.min) {
			return nil, fmt.Errorf("scaler: row has %d columns, fitted on %d", len(row), len(s.min))
		}
		raw := make([]float64, len(row))
		for j, v := range row {
			span := s.max[j] - s.min[j]
			raw[j] = s.min[j] + v*span
		}
		out[i] = raw
	}
	return out, nil
}

// InverseColumn inverts a single column of scaled values by padding the
// other feature columns with zeros; only the requested column of the result
// is meaningful.
func (s *minMaxScaler) InverseColumn(col int, values []float64) ([]float64, error) {
	rows := make([][]float64, len(values))
	for i, v := range values {
		row := make([]float64, len(s.min))
		row[col] = v
		rows[i] = row
	}
	inverted, err := s.Inverse(rows)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(values))
	for i := range inverted {
		out[i] = inverted[i][col]
	}
	return out, nil
}
