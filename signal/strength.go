package signal

import (
	"fmt"
	"sort"

	"github.com/rustyeddy/binscan/market"
)

// DefaultStrengthThreshold is the base-quote differential, in percent,
// beyond which a counter-move signal is vetoed.
const DefaultStrengthThreshold = 0.15

// StrengthTable maps a currency code to its average percent change across
// the pairs it appears in.
type StrengthTable map[string]float64

// MeasureStrength builds a StrengthTable from one cycle's series. Each pair
// contributes its percent change over lookback bars: positively to the base
// currency and negatively to the quote currency. Pairs with too few bars or
// unknown codes are skipped.
func MeasureStrength(series map[string][]market.Candle, lookback int) StrengthTable {
	if lookback <= 0 {
		lookback = 1
	}
	sum := map[string]float64{}
	count := map[string]int{}

	for asset, cs := range series {
		if len(cs) <= lookback {
			continue
		}
		meta, err := market.Lookup(asset)
		if err != nil {
			continue
		}
		from := cs[len(cs)-1-lookback].Close
		if from == 0 {
			continue
		}
		change := 100 * (market.Last(cs).Close - from) / from

		sum[meta.BaseCurrency] += change
		count[meta.BaseCurrency]++
		sum[meta.QuoteCurrency] -= change
		count[meta.QuoteCurrency]++
	}

	out := make(StrengthTable, len(sum))
	for ccy, s := range sum {
		out[ccy] = s / float64(count[ccy])
	}
	return out
}

// Currencies returns the table keys ordered strongest first.
func (t StrengthTable) Currencies() []string {
	out := make([]string, 0, len(t))
	for c := range t {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if t[out[i]] == t[out[j]] {
			return out[i] < out[j]
		}
		return t[out[i]] > t[out[j]]
	})
	return out
}

// VetoResult explains a strength check.
type VetoResult struct {
	Vetoed       bool
	Differential float64
	Reason       string
}

// Veto rejects a CALL when the base currency is weaker than the quote by
// more than threshold, and a PUT when it is stronger by more than
// threshold. Assets missing from the table are never vetoed.
func (t StrengthTable) Veto(asset string, dir Direction, threshold float64) VetoResult {
	meta, err := market.Lookup(asset)
	if err != nil {
		return VetoResult{}
	}
	base, okB := t[meta.BaseCurrency]
	quote, okQ := t[meta.QuoteCurrency]
	if !okB || !okQ {
		return VetoResult{}
	}

	diff := base - quote
	res := VetoResult{Differential: diff}
	switch {
	case dir == Call && diff < -threshold:
		res.Vetoed = true
		res.Reason = fmt.Sprintf("%s weaker than %s by %.3f%%", meta.BaseCurrency, meta.QuoteCurrency, -diff)
	case dir == Put && diff > threshold:
		res.Vetoed = true
		res.Reason = fmt.Sprintf("%s stronger than %s by %.3f%%", meta.BaseCurrency, meta.QuoteCurrency, diff)
	}
	return res
}
