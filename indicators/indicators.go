// Package indicators provides the technical indicators behind the signal
// classifier: Bollinger Bands, Wilder RSI/ATR/ADX, EMA, Stochastic and MACD.
package indicators

import (
	"errors"
	"fmt"

	"github.com/rustyeddy/binscan/market"
)

var (
	// ErrInsufficientData is returned when a series is shorter than an
	// indicator's window. No value is produced in that case.
	ErrInsufficientData = errors.New("not enough candles")

	// ErrComputation is returned when an indicator produces a non-finite value.
	ErrComputation = errors.New("indicator computation failed")
)

// Indicator computes a single streaming value from candles.
type Indicator interface {
	// Name returns a stable identifier like "EMA(200)" or "RSI(7)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next *closed* candle.
	Update(c market.Candle)

	// Ready reports whether Value() is meaningful.
	Ready() bool

	// Value returns 0 until Ready().
	Value() float64
}

func need(n, got int) error {
	return fmt.Errorf("%w: need %d, got %d", ErrInsufficientData, n, got)
}

func checkPeriod(period int) error {
	if period <= 0 {
		return fmt.Errorf("period must be positive, got %d", period)
	}
	return nil
}
