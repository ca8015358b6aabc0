package indicators

import (
	"math"
)

// SMA calculates the Simple Moving Average of the last period values.
func SMA(values []float64, period int) (float64, error) {
	if err := checkPeriod(period); err != nil {
		return 0, err
	}
	if len(values) < period {
		return 0, need(period, len(values))
	}

	sum := 0.0
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period), nil
}

// EMA calculates the Exponential Moving Average, seeded with the SMA of the
// first period values.
func EMA(values []float64, period int) (float64, error) {
	if err := checkPeriod(period); err != nil {
		return 0, err
	}
	if len(values) < period {
		return 0, need(period, len(values))
	}
	s := emaSeries(values, period)
	return s[len(s)-1], nil
}

// emaSeries returns the EMA aligned with values. Entries before the seed
// index (period-1) are NaN.
func emaSeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	multiplier := 2.0 / float64(period+1)

	sum := 0.0
	for i, v := range values {
		switch {
		case i < period-1:
			sum += v
			out[i] = math.NaN()
		case i == period-1:
			sum += v
			out[i] = sum / float64(period)
		default:
			out[i] = (v-out[i-1])*multiplier + out[i-1]
		}
	}
	return out
}

// smaSeries returns the rolling mean aligned with values. Entries before
// index period-1 are NaN.
func smaSeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i < period-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(period)
	}
	return out
}
