package indicators

import (
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/binscan/market"
)

// Trend is the informational EMA regime of a snapshot.
type Trend string

const (
	TrendUp   Trend = "UP"
	TrendDown Trend = "DOWN"
)

// Params holds the indicator windows used to build a Snapshot.
type Params struct {
	BBPeriod         int
	BBK              float64
	RSIPeriod        int
	RSIDisplayPeriod int
	ADXPeriod        int
	ATRPeriod        int
	EMAPeriod        int
	StochK           int
	StochSmooth      int
	StochD           int
	MACDFast         int
	MACDSlow         int
	MACDSignal       int
}

// DefaultParams returns the windows the classifier thresholds are tuned for.
func DefaultParams() Params {
	return Params{
		BBPeriod:         20,
		BBK:              2.0,
		RSIPeriod:        7,
		RSIDisplayPeriod: 14,
		ADXPeriod:        14,
		ATRPeriod:        14,
		EMAPeriod:        200,
		StochK:           14,
		StochSmooth:      3,
		StochD:           3,
		MACDFast:         12,
		MACDSlow:         26,
		MACDSignal:       9,
	}
}

// Snapshot is the full indicator read-out for one asset at one decision
// point. Every field is set in a single Compute call.
type Snapshot struct {
	Asset string
	Time  time.Time
	Price float64

	RSI        float64
	RSIDisplay float64
	ADX        float64
	PlusDI     float64
	MinusDI    float64
	ATR        float64
	EMA        float64
	StochK     float64
	StochD     float64

	BBLower  float64
	BBMiddle float64
	BBUpper  float64
	BBWidth  float64

	MACD       float64
	MACDSignal float64
	MACDHist   float64
	MACDCross  bool

	Trend Trend

	// Bars is the length of the series the snapshot was built from;
	// MinBars is what the engine required.
	Bars    int
	MinBars int
}

// Complete reports whether the snapshot was computed from a long enough series.
func (s Snapshot) Complete() bool {
	return s.MinBars > 0 && s.Bars >= s.MinBars
}

// Engine computes snapshots. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	p       Params
	minBars int
}

// NewEngine validates p and returns an Engine.
func NewEngine(p Params) (*Engine, error) {
	for name, v := range map[string]int{
		"bb_period":          p.BBPeriod,
		"rsi_period":         p.RSIPeriod,
		"rsi_display_period": p.RSIDisplayPeriod,
		"adx_period":         p.ADXPeriod,
		"atr_period":         p.ATRPeriod,
		"ema_period":         p.EMAPeriod,
		"stoch_k":            p.StochK,
		"stoch_smooth":       p.StochSmooth,
		"stoch_d":            p.StochD,
		"macd_fast":          p.MACDFast,
		"macd_slow":          p.MACDSlow,
		"macd_signal":        p.MACDSignal,
	} {
		if v <= 0 {
			return nil, fmt.Errorf("%s must be positive, got %d", name, v)
		}
	}
	if p.BBK <= 0 {
		return nil, fmt.Errorf("bb_k must be positive, got %v", p.BBK)
	}
	if p.MACDFast >= p.MACDSlow {
		return nil, fmt.Errorf("macd_fast must be below macd_slow")
	}

	return &Engine{p: p, minBars: minBars(p)}, nil
}

func minBars(p Params) int {
	n := 0
	for _, v := range []int{
		p.BBPeriod,
		p.RSIPeriod + 1,
		p.RSIDisplayPeriod + 1,
		2*p.ADXPeriod + 1,
		p.ATRPeriod + 1,
		p.EMAPeriod,
		StochasticBars(p.StochK, p.StochSmooth, p.StochD),
		MACDBars(p.MACDSlow, p.MACDSignal),
	} {
		if v > n {
			n = v
		}
	}
	return n
}

// Params returns the engine configuration.
func (e *Engine) Params() Params { return e.p }

// MinBars is the richest window requirement across all indicators.
func (e *Engine) MinBars() int { return e.minBars }

// Compute builds a Snapshot from a normalized, closed-bar series. A series
// shorter than MinBars yields ErrInsufficientData and no snapshot.
func (e *Engine) Compute(asset string, series []market.Candle) (Snapshot, error) {
	if len(series) < e.minBars {
		return Snapshot{}, fmt.Errorf("%s: %w", asset, need(e.minBars, len(series)))
	}

	closes := market.Closes(series)
	last := market.Last(series)

	bb, err := Bollinger(closes, e.p.BBPeriod, e.p.BBK)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%s: bollinger: %w", asset, err)
	}
	rsi, err := RSI(closes, e.p.RSIPeriod)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%s: rsi: %w", asset, err)
	}
	rsiDisplay, err := RSI(closes, e.p.RSIDisplayPeriod)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%s: rsi: %w", asset, err)
	}
	dmi, err := ADXFunc(series, e.p.ADXPeriod)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%s: adx: %w", asset, err)
	}
	atr, err := ATRFunc(series, e.p.ATRPeriod)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%s: atr: %w", asset, err)
	}
	ema, err := Stream(NewEMA(e.p.EMAPeriod), series)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%s: ema: %w", asset, err)
	}
	st, err := Stochastic(series, e.p.StochK, e.p.StochSmooth, e.p.StochD)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%s: stochastic: %w", asset, err)
	}
	macd, err := MACD(closes, e.p.MACDFast, e.p.MACDSlow, e.p.MACDSignal)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%s: macd: %w", asset, err)
	}

	trend := TrendDown
	if last.Close >= ema {
		trend = TrendUp
	}

	snap := Snapshot{
		Asset:      asset,
		Time:       last.Time,
		Price:      last.Close,
		RSI:        rsi,
		RSIDisplay: rsiDisplay,
		ADX:        dmi.ADX,
		PlusDI:     dmi.PlusDI,
		MinusDI:    dmi.MinusDI,
		ATR:        atr,
		EMA:        ema,
		StochK:     st.K,
		StochD:     st.D,
		BBLower:    bb.Lower,
		BBMiddle:   bb.Middle,
		BBUpper:    bb.Upper,
		BBWidth:    bb.Width(),
		MACD:       macd.Line,
		MACDSignal: macd.Signal,
		MACDHist:   macd.Histogram,
		MACDCross:  macd.BullishCross,
		Trend:      trend,
		Bars:       len(series),
		MinBars:    e.minBars,
	}
	if err := snap.finite(); err != nil {
		return Snapshot{}, fmt.Errorf("%s: %w", asset, err)
	}
	return snap, nil
}

func (s Snapshot) finite() error {
	for name, v := range map[string]float64{
		"price": s.Price, "rsi": s.RSI, "rsi_display": s.RSIDisplay,
		"adx": s.ADX, "atr": s.ATR, "ema": s.EMA,
		"stoch_k": s.StochK, "stoch_d": s.StochD,
		"bb_lower": s.BBLower, "bb_upper": s.BBUpper, "macd": s.MACD,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrComputation, name)
		}
	}
	return nil
}
