package indicators

import (
	"github.com/rustyeddy/binscan/market"
)

// Stoch is the slow stochastic oscillator output.
type Stoch struct {
	K float64
	D float64
}

// StochasticBars returns how many candles Stochastic needs.
func StochasticBars(kPeriod, smooth, dPeriod int) int {
	return kPeriod + smooth - 1 + dPeriod - 1
}

// Stochastic computes the slow stochastic: raw %K over kPeriod bars,
// smoothed by an SMA(smooth) into %K, and %D as SMA(dPeriod) of %K.
// A flat high/low window yields a raw %K of 50.
func Stochastic(candles []market.Candle, kPeriod, smooth, dPeriod int) (Stoch, error) {
	for _, p := range []int{kPeriod, smooth, dPeriod} {
		if err := checkPeriod(p); err != nil {
			return Stoch{}, err
		}
	}
	n := StochasticBars(kPeriod, smooth, dPeriod)
	if len(candles) < n {
		return Stoch{}, need(n, len(candles))
	}

	raw := make([]float64, 0, len(candles)-kPeriod+1)
	for i := kPeriod - 1; i < len(candles); i++ {
		hh, ll := candles[i].High, candles[i].Low
		for _, c := range candles[i-kPeriod+1 : i] {
			if c.High > hh {
				hh = c.High
			}
			if c.Low < ll {
				ll = c.Low
			}
		}
		if hh == ll {
			raw = append(raw, 50)
			continue
		}
		raw = append(raw, 100*(candles[i].Close-ll)/(hh-ll))
	}

	slowK := smaSeries(raw, smooth)[smooth-1:]
	d := smaSeries(slowK, dPeriod)

	return Stoch{
		K: slowK[len(slowK)-1],
		D: d[len(d)-1],
	}, nil
}
