package oanda

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rustyeddy/binscan/market"
)

type ohlc struct {
	O string `json:"o"`
	H string `json:"h"`
	L string `json:"l"`
	C string `json:"c"`
}

type candlesResp struct {
	Instrument  string `json:"instrument"`
	Granularity string `json:"granularity"`
	Candles     []struct {
		Complete bool   `json:"complete"`
		Time     string `json:"time"`
		Volume   int    `json:"volume"`
		Mid      *ohlc  `json:"mid,omitempty"`
	} `json:"candles"`
}

var granularities = []struct {
	d    time.Duration
	name string
}{
	{5 * time.Second, "S5"},
	{10 * time.Second, "S10"},
	{15 * time.Second, "S15"},
	{30 * time.Second, "S30"},
	{time.Minute, "M1"},
	{2 * time.Minute, "M2"},
	{4 * time.Minute, "M4"},
	{5 * time.Minute, "M5"},
	{10 * time.Minute, "M10"},
	{15 * time.Minute, "M15"},
	{30 * time.Minute, "M30"},
	{time.Hour, "H1"},
	{4 * time.Hour, "H4"},
	{24 * time.Hour, "D"},
}

// Granularity maps a bar period onto an OANDA granularity code.
func Granularity(period time.Duration) (string, error) {
	for _, g := range granularities {
		if g.d == period {
			return g.name, nil
		}
	}
	return "", fmt.Errorf("oanda: no granularity for period %s", period)
}

// Candles returns up to count completed mid-price bars ending at end (or now
// when end is zero).
func (c *Client) Candles(ctx context.Context, asset string, period time.Duration, count int, end time.Time) ([]market.Candle, error) {
	gran, err := Granularity(period)
	if err != nil {
		return nil, err
	}
	inst := market.OandaName(asset)

	q := url.Values{}
	q.Set("granularity", gran)
	q.Set("price", "M")
	if count > 0 {
		q.Set("count", strconv.Itoa(count))
	}
	if !end.IsZero() {
		q.Set("to", end.UTC().Format(time.RFC3339))
	}

	var cr candlesResp
	if err := c.getJSON(ctx, fmt.Sprintf("/v3/instruments/%s/candles", inst), q, &cr); err != nil {
		return nil, err
	}

	out := make([]market.Candle, 0, len(cr.Candles))
	for _, cd := range cr.Candles {
		if !cd.Complete || cd.Mid == nil {
			continue
		}
		bar, err := parseCandle(cd.Time, cd.Mid)
		if err != nil {
			return nil, fmt.Errorf("oanda %s: %w", inst, err)
		}
		out = append(out, bar)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("oanda %s: %w", inst, market.ErrNoData)
	}
	return out, nil
}

func parseCandle(ts string, p *ohlc) (market.Candle, error) {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return market.Candle{}, fmt.Errorf("bad time %q: %w", ts, err)
	}
	var v [4]float64
	for i, s := range []string{p.O, p.H, p.L, p.C} {
		if v[i], err = strconv.ParseFloat(s, 64); err != nil {
			return market.Candle{}, fmt.Errorf("%w: bad price %q", market.ErrMalformedCandle, s)
		}
	}
	return market.Candle{Time: t.UTC(), Open: v[0], High: v[1], Low: v[2], Close: v[3]}, nil
}
