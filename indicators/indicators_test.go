package indicators

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rustyeddy/binscan/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestCloses() []float64 {
	return []float64{102, 105, 106, 108, 110, 111, 113, 114, 116, 118}
}

// risingCandles returns n bars that climb one unit per bar and close mid-range.
func risingCandles(n int) []market.Candle {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]market.Candle, n)
	for i := range out {
		base := 100 + float64(i)
		out[i] = market.Candle{
			Time:  t0.Add(time.Duration(i) * time.Minute),
			Open:  base + 0.5,
			High:  base + 1,
			Low:   base,
			Close: base + 0.5,
		}
	}
	return out
}

// waveCandles oscillates around 1.1000 so every indicator has variation.
func waveCandles(n int) []market.Candle {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]market.Candle, n)
	prev := 1.1
	for i := range out {
		c := 1.1 + 0.002*math.Sin(float64(i)/7) + 0.0005*math.Cos(float64(i)/3)
		out[i] = market.Candle{
			Time:  t0.Add(time.Duration(i) * time.Minute),
			Open:  prev,
			High:  math.Max(prev, c) + 0.0002,
			Low:   math.Min(prev, c) - 0.0002,
			Close: c,
		}
		prev = c
	}
	return out
}

func TestSMA(t *testing.T) {
	t.Parallel()

	ma, err := SMA(createTestCloses(), 5)
	require.NoError(t, err)
	// 111,113,114,116,118
	assert.InDelta(t, 114.4, ma, 0.001)

	_, err = SMA(createTestCloses(), 11)
	assert.True(t, errors.Is(err, ErrInsufficientData))

	_, err = SMA(createTestCloses(), 0)
	assert.Error(t, err)
}

func TestEMA(t *testing.T) {
	t.Parallel()

	// seed SMA(1,2,3)=2, then k=0.5: 3, 4
	ema, err := EMA([]float64{1, 2, 3, 4, 5}, 3)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, ema, 1e-12)

	_, err = EMA([]float64{1, 2}, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not enough candles: need 3, got 2")
}

func TestRSI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		closes []float64
		period int
		want   float64
	}{
		{name: "all gains", closes: []float64{1, 2, 3, 4, 5, 6}, period: 3, want: 100},
		{name: "all losses", closes: []float64{6, 5, 4, 3, 2, 1}, period: 3, want: 0},
		{name: "flat", closes: []float64{2, 2, 2, 2}, period: 3, want: 50},
		// seed gain 0.5 loss 0.5, then +2: gain 1.25 loss 0.25, RS 5
		{name: "wilder smoothing", closes: []float64{10, 11, 10, 12}, period: 2, want: 100 - 100.0/6},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := RSI(tt.closes, tt.period)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	_, err := RSI([]float64{1, 2, 3}, 7)
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestATRFuncDetailed(t *testing.T) {
	t.Parallel()

	candles := []market.Candle{
		{High: 10, Low: 8, Close: 9},
		{High: 11, Low: 9, Close: 10},
		{High: 12, Low: 10, Close: 11},
		{High: 11, Low: 9, Close: 10},
		{High: 12, Low: 10, Close: 11},
		{High: 13, Low: 11, Close: 12},
	}
	atr, err := ATRFunc(candles, 3)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, atr, 1e-12)

	_, err = ATRFunc(candles[:3], 3)
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestTrueRange(t *testing.T) {
	t.Parallel()

	current := market.Candle{High: 110, Low: 100, Close: 105}
	previous := market.Candle{Close: 104}
	assert.InDelta(t, 10.0, trueRange(current, previous), 1e-12)

	// gap up: previous close far below
	previous = market.Candle{Close: 90}
	assert.InDelta(t, 20.0, trueRange(current, previous), 1e-12)
}

func TestBollinger(t *testing.T) {
	t.Parallel()

	b, err := Bollinger([]float64{9, 1, 2, 3, 4, 5}, 5, 2)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, b.Middle, 1e-12)
	assert.InDelta(t, 3+2*math.Sqrt2, b.Upper, 1e-12)
	assert.InDelta(t, 3-2*math.Sqrt2, b.Lower, 1e-12)
	assert.InDelta(t, 4*math.Sqrt2, b.Width(), 1e-12)

	_, err = Bollinger([]float64{1, 2}, 5, 2)
	assert.True(t, errors.Is(err, ErrInsufficientData))

	_, err = Bollinger([]float64{1, 2, 3, 4, 5}, 5, 0)
	assert.Error(t, err)
}

func TestStochastic(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	n := StochasticBars(14, 3, 3)
	assert.Equal(t, 18, n)

	atHigh := make([]market.Candle, n)
	atLow := make([]market.Candle, n)
	flat := make([]market.Candle, n)
	for i := 0; i < n; i++ {
		base := 100 + float64(i)
		ts := t0.Add(time.Duration(i) * time.Minute)
		atHigh[i] = market.Candle{Time: ts, Open: base, High: base + 1, Low: base, Close: base + 1}
		atLow[i] = market.Candle{Time: ts, Open: base, High: base + 1, Low: base, Close: base}
		flat[i] = market.Candle{Time: ts, Open: 1, High: 1, Low: 1, Close: 1}
	}

	st, err := Stochastic(atHigh, 14, 3, 3)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, st.K, 1e-9)
	assert.InDelta(t, 100.0, st.D, 1e-9)

	// closing on the bar low in a rising window: 13/14 of the range
	st, err = Stochastic(atLow, 14, 3, 3)
	require.NoError(t, err)
	assert.InDelta(t, 100.0*13/14, st.K, 1e-9)
	assert.InDelta(t, 100.0*13/14, st.D, 1e-9)

	st, err = Stochastic(flat, 14, 3, 3)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, st.K, 1e-9)

	_, err = Stochastic(flat[:n-1], 14, 3, 3)
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestMACD(t *testing.T) {
	t.Parallel()

	flat := make([]float64, 40)
	for i := range flat {
		flat[i] = 1.25
	}
	v, err := MACD(flat, 12, 26, 9)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, v.Line, 1e-12)
	assert.InDelta(t, 0.0, v.Signal, 1e-12)
	assert.False(t, v.BullishCross)

	rising := make([]float64, 60)
	for i := range rising {
		rising[i] = 1 + float64(i)*0.01
	}
	v, err = MACD(rising, 12, 26, 9)
	require.NoError(t, err)
	assert.Greater(t, v.Line, 0.0)

	_, err = MACD(rising[:33], 12, 26, 9)
	assert.True(t, errors.Is(err, ErrInsufficientData))

	_, err = MACD(rising, 26, 12, 9)
	assert.Error(t, err)
}

func TestADXFuncTrending(t *testing.T) {
	t.Parallel()

	candles := risingCandles(29)
	dmi, err := ADXFunc(candles, 14)
	require.NoError(t, err)
	// +DM 1, -DM 0, TR 1.5 on every bar
	assert.InDelta(t, 100.0, dmi.ADX, 1e-9)
	assert.InDelta(t, 100.0/1.5, dmi.PlusDI, 1e-9)
	assert.InDelta(t, 0.0, dmi.MinusDI, 1e-9)

	_, err = ADXFunc(candles[:28], 14)
	assert.True(t, errors.Is(err, ErrInsufficientData))
}
