// Package signal turns an indicator snapshot into a trade direction.
package signal

import (
	"time"

	"github.com/rustyeddy/binscan/indicators"
)

// Direction is the classifier output.
type Direction string

const (
	None Direction = "NONE"
	Call Direction = "CALL"
	Put  Direction = "PUT"
)

// Thresholds parameterise Classify. The zero value is not usable; start
// from DefaultThresholds.
type Thresholds struct {
	RSIBuy    float64
	RSISell   float64
	ADXLow    float64
	ADXHigh   float64
	StochLow  float64
	StochHigh float64

	// StochasticFilter requires the stochastic extreme alongside RSI.
	StochasticFilter bool
	// TrendFilter only allows CALL in an UP trend and PUT in a DOWN trend.
	TrendFilter bool
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		RSIBuy:           25,
		RSISell:          75,
		ADXLow:           15,
		ADXHigh:          35,
		StochLow:         20,
		StochHigh:        80,
		StochasticFilter: true,
	}
}

// Signal is a directional decision for one asset.
type Signal struct {
	Asset       string
	Direction   Direction
	Snapshot    indicators.Snapshot
	GeneratedAt time.Time
}

// Classify is a pure mean-reversion rule: price pierces a Bollinger band
// while RSI (and optionally stochastic) is at the matching extreme, inside
// an ADX band that excludes both dead and strongly trending markets.
func Classify(s indicators.Snapshot, th Thresholds) Direction {
	if !s.Complete() {
		return None
	}
	if !(s.ADX > th.ADXLow && s.ADX < th.ADXHigh) {
		return None
	}

	if s.Price <= s.BBLower && s.RSI < th.RSIBuy &&
		(!th.StochasticFilter || s.StochK < th.StochLow) &&
		(!th.TrendFilter || s.Trend == indicators.TrendUp) {
		return Call
	}
	if s.Price >= s.BBUpper && s.RSI > th.RSISell &&
		(!th.StochasticFilter || s.StochK > th.StochHigh) &&
		(!th.TrendFilter || s.Trend == indicators.TrendDown) {
		return Put
	}
	return None
}
