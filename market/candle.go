package market

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

var (
	// ErrNoData is returned when a source has nothing for an asset.
	ErrNoData = errors.New("no candle data")

	// ErrMalformedCandle marks a bar that can never feed an indicator.
	ErrMalformedCandle = errors.New("malformed candle")
)

// Candle represents one closed OHLC interval. Time is the interval open.
type Candle struct {
	Time  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// Validate reports whether the candle is internally consistent.
func (c Candle) Validate() error {
	for _, v := range []float64{c.Open, c.High, c.Low, c.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite price at %s", ErrMalformedCandle, c.Time.Format(time.RFC3339))
		}
		if v <= 0 {
			return fmt.Errorf("%w: non-positive price at %s", ErrMalformedCandle, c.Time.Format(time.RFC3339))
		}
	}
	if c.High < c.Low {
		return fmt.Errorf("%w: high %.5f < low %.5f at %s", ErrMalformedCandle, c.High, c.Low, c.Time.Format(time.RFC3339))
	}
	if c.Open > c.High || c.Open < c.Low || c.Close > c.High || c.Close < c.Low {
		return fmt.Errorf("%w: open/close outside range at %s", ErrMalformedCandle, c.Time.Format(time.RFC3339))
	}
	return nil
}

// Closed reports whether the interval starting at c.Time has finished by asOf.
func (c Candle) Closed(period time.Duration, asOf time.Time) bool {
	return !c.Time.Add(period).After(asOf)
}

// Normalize turns a raw feed into a series usable by the indicator engine:
// ascending by time, unique timestamps (first occurrence wins), every bar
// valid, and no bar whose interval is still forming at asOf.
//
// A zero asOf skips the forming-bar check.
func Normalize(raw []Candle, period time.Duration, asOf time.Time) ([]Candle, error) {
	if len(raw) == 0 {
		return nil, ErrNoData
	}

	out := make([]Candle, len(raw))
	copy(out, raw)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })

	uniq := out[:0]
	for i, c := range out {
		if i > 0 && c.Time.Equal(uniq[len(uniq)-1].Time) {
			continue
		}
		if err := c.Validate(); err != nil {
			return nil, err
		}
		uniq = append(uniq, c)
	}

	if !asOf.IsZero() {
		for len(uniq) > 0 && !uniq[len(uniq)-1].Closed(period, asOf) {
			uniq = uniq[:len(uniq)-1]
		}
	}
	if len(uniq) == 0 {
		return nil, ErrNoData
	}
	return uniq, nil
}

// Closes extracts the close column.
func Closes(cs []Candle) []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.Close
	}
	return out
}

// Last returns the most recent candle of a non-empty series.
func Last(cs []Candle) Candle {
	return cs[len(cs)-1]
}
