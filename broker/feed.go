package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/rustyeddy/binscan/market"
)

// Feed fetches closed-bar series for the indicator engine.
type Feed struct {
	Data   MarketData
	Period time.Duration
	Count  int
}

func NewFeed(md MarketData, period time.Duration, count int) *Feed {
	return &Feed{Data: md, Period: period, Count: count}
}

// Fetch returns up to Count closed candles ending at asOf. One extra bar is
// requested so that dropping the forming bar still leaves Count bars.
func (f *Feed) Fetch(ctx context.Context, asset string, asOf time.Time) ([]market.Candle, error) {
	raw, err := f.Data.Candles(ctx, asset, f.Period, f.Count+1, asOf)
	if err != nil {
		return nil, fmt.Errorf("candles %s: %w", asset, err)
	}
	series, err := market.Normalize(raw, f.Period, asOf)
	if err != nil {
		return nil, fmt.Errorf("candles %s: %w", asset, err)
	}
	if len(series) > f.Count {
		series = series[len(series)-f.Count:]
	}
	return series, nil
}
