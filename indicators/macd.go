package indicators

import "fmt"

// MACDValue is the last point of a MACD computation.
type MACDValue struct {
	Line      float64
	Signal    float64
	Histogram float64

	// BullishCross is true when the line crossed above the signal on the
	// last bar.
	BullishCross bool
}

// MACDBars returns how many closes MACD needs.
func MACDBars(slow, signal int) int {
	return slow + signal - 1
}

// MACD computes EMA(fast)-EMA(slow) and its EMA(signal).
func MACD(closes []float64, fast, slow, signal int) (MACDValue, error) {
	for _, p := range []int{fast, slow, signal} {
		if err := checkPeriod(p); err != nil {
			return MACDValue{}, err
		}
	}
	if fast >= slow {
		return MACDValue{}, fmt.Errorf("fast period %d must be below slow period %d", fast, slow)
	}
	n := MACDBars(slow, signal)
	if len(closes) < n {
		return MACDValue{}, need(n, len(closes))
	}

	fastS := emaSeries(closes, fast)
	slowS := emaSeries(closes, slow)

	line := make([]float64, 0, len(closes)-slow+1)
	for i := slow - 1; i < len(closes); i++ {
		line = append(line, fastS[i]-slowS[i])
	}
	sig := emaSeries(line, signal)

	last := len(line) - 1
	v := MACDValue{
		Line:      line[last],
		Signal:    sig[last],
		Histogram: line[last] - sig[last],
	}
	if last >= signal {
		v.BullishCross = line[last-1] <= sig[last-1] && line[last] > sig[last]
	}
	return v, nil
}
