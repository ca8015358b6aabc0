package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/binscan/market"
)

// DMI bundles the directional movement outputs.
type DMI struct {
	ADX     float64
	PlusDI  float64
	MinusDI float64
}

// ADXFunc runs Wilder's ADX over candles and returns the final values.
// It needs 2*period+1 candles.
func ADXFunc(candles []market.Candle, period int) (DMI, error) {
	if err := checkPeriod(period); err != nil {
		return DMI{}, err
	}
	if len(candles) < 2*period+1 {
		return DMI{}, need(2*period+1, len(candles))
	}

	a := NewADX(period)
	for _, c := range candles {
		a.Update(c)
	}
	return DMI{ADX: a.Value(), PlusDI: a.PlusDI(), MinusDI: a.MinusDI()}, nil
}

// ADX implements Wilder's Average Directional Index (trend strength).
// Usage:
//
//	adx := indicators.NewADX(14)
//	adx.Update(candle)
//	if adx.Ready() && adx.Value() < 35 { ... }
type ADX struct {
	period int

	prev     market.Candle
	havePrev bool

	// Wilder-smoothed values after warmup
	trS  float64
	pdmS float64
	mdmS float64

	pdi float64
	mdi float64

	adx   float64
	dxSum float64

	// candles processed, including the seed
	count int
	ready bool
}

func NewADX(period int) *ADX {
	return &ADX{period: period}
}

func (a *ADX) Name() string {
	return fmt.Sprintf("ADX(%d)", a.period)
}

func (a *ADX) Warmup() int {
	return 2*a.period + 1
}

func (a *ADX) Reset() {
	*a = ADX{period: a.period}
}

func (a *ADX) Value() float64 {
	if !a.ready {
		return 0
	}
	return a.adx
}

func (a *ADX) PlusDI() float64  { return a.pdi }
func (a *ADX) MinusDI() float64 { return a.mdi }

func (a *ADX) Ready() bool {
	return a.ready
}

// Update consumes the next candle. Ready becomes true after 2*period
// candles past the seed: period to initialise the smoothed TR/+DM/-DM, then
// period DX values to initialise ADX.
func (a *ADX) Update(c market.Candle) {
	if !a.havePrev {
		a.prev = c
		a.havePrev = true
		a.count = 1
		return
	}

	upMove := c.High - a.prev.High
	downMove := a.prev.Low - c.Low

	var pdm, mdm float64
	if upMove > downMove && upMove > 0 {
		pdm = upMove
	}
	if downMove > upMove && downMove > 0 {
		mdm = downMove
	}
	tr := trueRange(c, a.prev)

	a.prev = c
	a.count++

	p := float64(a.period)

	// Phase A: simple averages seed the Wilder smoothing
	if a.count <= a.period+1 {
		a.trS += tr / p
		a.pdmS += pdm / p
		a.mdmS += mdm / p
		return
	}
	a.trS = (a.trS*(p-1) + tr) / p
	a.pdmS = (a.pdmS*(p-1) + pdm) / p
	a.mdmS = (a.mdmS*(p-1) + mdm) / p

	a.pdi, a.mdi = 0, 0
	if a.trS > 0 {
		a.pdi = 100 * a.pdmS / a.trS
		a.mdi = 100 * a.mdmS / a.trS
	}
	dx := 0.0
	if den := a.pdi + a.mdi; den > 0 {
		dx = 100 * math.Abs(a.pdi-a.mdi) / den
	}

	// Phase B: the first period DX values seed ADX
	if !a.ready {
		a.dxSum += dx
		if a.count == 2*a.period+1 {
			a.adx = a.dxSum / p
			a.ready = true
		}
		return
	}
	a.adx = (a.adx*(p-1) + dx) / p
}
