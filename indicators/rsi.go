package indicators

import (
	"fmt"

	"github.com/rustyeddy/binscan/market"
)

// RSI calculates Wilder's Relative Strength Index over closes.
// It needs period+1 values (period price changes).
func RSI(closes []float64, period int) (float64, error) {
	if err := checkPeriod(period); err != nil {
		return 0, err
	}
	if len(closes) < period+1 {
		return 0, need(period+1, len(closes))
	}

	r := NewRSI(period)
	for _, c := range closes {
		r.update(c)
	}
	return r.Value(), nil
}

// RSIStream is a streaming Wilder RSI.
type RSIStream struct {
	period  int
	prev    float64
	seen    int
	avgGain float64
	avgLoss float64
}

func NewRSI(period int) *RSIStream {
	return &RSIStream{period: period}
}

func (r *RSIStream) Name() string {
	return fmt.Sprintf("RSI(%d)", r.period)
}

func (r *RSIStream) Warmup() int {
	return r.period + 1
}

func (r *RSIStream) Reset() {
	*r = RSIStream{period: r.period}
}

func (r *RSIStream) Update(c market.Candle) {
	r.update(c.Close)
}

func (r *RSIStream) update(close float64) {
	r.seen++
	if r.seen == 1 {
		r.prev = close
		return
	}

	change := close - r.prev
	r.prev = close
	gain, loss := 0.0, 0.0
	if change > 0 {
		gain = change
	} else {
		loss = -change
	}

	p := float64(r.period)
	if r.seen <= r.period+1 {
		// seed phase: simple average of the first period changes
		r.avgGain += gain / p
		r.avgLoss += loss / p
		return
	}
	r.avgGain = (r.avgGain*(p-1) + gain) / p
	r.avgLoss = (r.avgLoss*(p-1) + loss) / p
}

func (r *RSIStream) Ready() bool {
	return r.seen >= r.period+1
}

func (r *RSIStream) Value() float64 {
	if !r.Ready() {
		return 0
	}
	if r.avgLoss == 0 {
		if r.avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := r.avgGain / r.avgLoss
	return 100 - 100/(1+rs)
}
