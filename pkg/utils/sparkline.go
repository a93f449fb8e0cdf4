package utils

// NormalizeSparkline rescales a price series to [0, 1] using min-max
// normalization, the shape expected by a fixed-height trend chart.
// A flat or empty series maps to all zeros to avoid division by zero.
func NormalizeSparkline(prices []float64) []float64 {
	if len(prices) == 0 {
		return nil
	}

	min, max := prices[0], prices[0]
	for _, p := range prices[1:] {
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}

	out := make([]float64, len(prices))
	if max == min {
		return out
	}
	for i, p := range prices {
		out[i] = (p - min) / (max - min)
	}
	return out
}
