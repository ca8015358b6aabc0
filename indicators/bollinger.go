package indicators

import (
	"fmt"
	"math"
)

// Bands holds Bollinger Band values.
type Bands struct {
	Lower  float64
	Middle float64
	Upper  float64
}

// Width is the upper-lower spread.
func (b Bands) Width() float64 {
	return b.Upper - b.Lower
}

// Bollinger computes SMA(period) +/- k population standard deviations of the
// last period closes.
func Bollinger(closes []float64, period int, k float64) (Bands, error) {
	if err := checkPeriod(period); err != nil {
		return Bands{}, err
	}
	if k <= 0 {
		return Bands{}, fmt.Errorf("band multiplier must be positive, got %v", k)
	}
	if len(closes) < period {
		return Bands{}, need(period, len(closes))
	}

	window := closes[len(closes)-period:]
	mid, _ := SMA(window, period)

	variance := 0.0
	for _, c := range window {
		d := c - mid
		variance += d * d
	}
	sd := math.Sqrt(variance / float64(period))

	return Bands{
		Lower:  mid - k*sd,
		Middle: mid,
		Upper:  mid + k*sd,
	}, nil
}
