package signal

import (
	"testing"
	"time"

	"github.com/rustyeddy/binscan/indicators"
	"github.com/rustyeddy/binscan/market"
	"github.com/stretchr/testify/assert"
)

func snapshot(price, lower, upper, rsi, adx, stoch float64) indicators.Snapshot {
	return indicators.Snapshot{
		Asset:   "EURUSD",
		Price:   price,
		BBLower: lower,
		BBUpper: upper,
		RSI:     rsi,
		ADX:     adx,
		StochK:  stoch,
		Trend:   indicators.TrendUp,
		Bars:    250,
		MinBars: 200,
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	th := DefaultThresholds()

	tests := []struct {
		name string
		snap indicators.Snapshot
		want Direction
	}{
		{
			name: "call at lower band",
			snap: snapshot(1.0950, 1.0955, 1.1050, 20, 22, 15),
			want: Call,
		},
		{
			name: "put at upper band",
			snap: snapshot(1.1060, 1.0955, 1.1050, 80, 22, 85),
			want: Put,
		},
		{
			name: "trending market excluded",
			snap: snapshot(1.1060, 1.0955, 1.1050, 80, 40, 85),
			want: None,
		},
		{
			name: "dead market excluded",
			snap: snapshot(1.0950, 1.0955, 1.1050, 20, 15, 15),
			want: None,
		},
		{
			name: "adx upper bound exclusive",
			snap: snapshot(1.0950, 1.0955, 1.1050, 20, 35, 15),
			want: None,
		},
		{
			name: "rsi not extreme",
			snap: snapshot(1.0950, 1.0955, 1.1050, 30, 22, 15),
			want: None,
		},
		{
			name: "stochastic not extreme",
			snap: snapshot(1.0950, 1.0955, 1.1050, 20, 22, 40),
			want: None,
		},
		{
			name: "inside bands",
			snap: snapshot(1.1000, 1.0955, 1.1050, 20, 22, 15),
			want: None,
		},
		{
			name: "price equal to lower band",
			snap: snapshot(1.0955, 1.0955, 1.1050, 24.9, 22, 19.9),
			want: Call,
		},
		{
			name: "incomplete snapshot",
			snap: func() indicators.Snapshot {
				s := snapshot(1.0950, 1.0955, 1.1050, 20, 22, 15)
				s.Bars = 15
				return s
			}(),
			want: None,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Classify(tt.snap, th))
		})
	}
}

func TestClassifyFilters(t *testing.T) {
	t.Parallel()

	s := snapshot(1.0950, 1.0955, 1.1050, 20, 22, 40)

	th := DefaultThresholds()
	assert.Equal(t, None, Classify(s, th))

	th.StochasticFilter = false
	assert.Equal(t, Call, Classify(s, th))

	th.TrendFilter = true
	assert.Equal(t, Call, Classify(s, th))
	s.Trend = indicators.TrendDown
	assert.Equal(t, None, Classify(s, th))
}

func series(from, to float64) []market.Candle {
	t0 := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	return []market.Candle{
		{Time: t0, Open: from, High: from, Low: from, Close: from},
		{Time: t0.Add(time.Minute), Open: to, High: to, Low: to, Close: to},
	}
}

func TestMeasureStrength(t *testing.T) {
	t.Parallel()

	tbl := MeasureStrength(map[string][]market.Candle{
		"EURUSD": series(1.0, 1.01),  // +1%
		"GBPUSD": series(1.0, 0.99),  // -1%
		"USDJPY": series(100, 100.5), // +0.5%
		"XAUUSD": series(2000, 2000),
		"SHORT":  series(1, 1)[:1],
	}, 1)

	assert.InDelta(t, 1.0, tbl["EUR"], 1e-9)
	assert.InDelta(t, -1.0, tbl["GBP"], 1e-9)
	assert.InDelta(t, -0.5, tbl["JPY"], 1e-9)
	// USD: -1 (EURUSD) +1 (GBPUSD) +0.5 (USDJPY) -0 (XAUUSD) over 4 pairs
	assert.InDelta(t, 0.5/4, tbl["USD"], 1e-9)
	assert.Equal(t, "EUR", tbl.Currencies()[0])
	assert.Equal(t, "GBP", tbl.Currencies()[len(tbl)-1])
}

func TestStrengthVeto(t *testing.T) {
	t.Parallel()

	tbl := StrengthTable{"EUR": -0.20, "USD": 0.05, "GBP": 0.30}

	v := tbl.Veto("EURUSD", Call, DefaultStrengthThreshold)
	assert.True(t, v.Vetoed)
	assert.InDelta(t, -0.25, v.Differential, 1e-9)
	assert.Contains(t, v.Reason, "EUR weaker than USD")

	assert.False(t, tbl.Veto("EURUSD", Put, DefaultStrengthThreshold).Vetoed)

	v = tbl.Veto("GBPUSD", Put, DefaultStrengthThreshold)
	assert.True(t, v.Vetoed)
	assert.Contains(t, v.Reason, "GBP stronger than USD")

	// within threshold
	assert.False(t, tbl.Veto("GBPUSD", Call, DefaultStrengthThreshold).Vetoed)
	// unknown currency never vetoes
	assert.False(t, tbl.Veto("AUDUSD", Call, DefaultStrengthThreshold).Vetoed)
	assert.False(t, StrengthTable(nil).Veto("EURUSD", Call, DefaultStrengthThreshold).Vetoed)
}
