package sim

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rustyeddy/binscan/market"
)

// Candles is an in-memory MarketData source keyed by canonical asset.
type Candles struct {
	mu     sync.RWMutex
	series map[string][]market.Candle
}

func NewCandles() *Candles {
	return &Candles{series: make(map[string][]market.Candle)}
}

// Add appends bars for asset, keeping the series ordered by time.
func (c *Candles) Add(asset string, bars ...market.Candle) {
	asset = market.CanonicalAsset(asset)

	c.mu.Lock()
	defer c.mu.Unlock()
	s := append(c.series[asset], bars...)
	sort.SliceStable(s, func(i, j int) bool { return s[i].Time.Before(s[j].Time) })
	c.series[asset] = s
}

func (c *Candles) Assets() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.series))
	for a := range c.series {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Candles returns up to count bars that open at or before end. period is
// ignored; the stored bars are returned as recorded.
func (c *Candles) Candles(_ context.Context, asset string, _ time.Duration, count int, end time.Time) ([]market.Candle, error) {
	asset = market.CanonicalAsset(asset)

	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.series[asset]
	if !ok || len(s) == 0 {
		return nil, fmt.Errorf("%s: %w", asset, market.ErrNoData)
	}

	hi := len(s)
	if !end.IsZero() {
		hi = sort.Search(len(s), func(i int) bool { return s[i].Time.After(end) })
	}
	lo := 0
	if count > 0 && hi-count > 0 {
		lo = hi - count
	}
	if hi == lo {
		return nil, fmt.Errorf("%s: %w", asset, market.ErrNoData)
	}
	out := make([]market.Candle, hi-lo)
	copy(out, s[lo:hi])
	return out, nil
}

// LoadCSVDir loads one file per asset from dir. Files are named after the
// asset ("EURUSD.csv") and hold rows of
//
//	time,open,high,low,close
//
// where time is RFC3339 or unix seconds. A header row is allowed.
func LoadCSVDir(dir string) (*Candles, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}
	c := NewCandles()
	for _, p := range paths {
		asset := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		bars, err := readCandleFile(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		c.Add(asset, bars...)
	}
	return c, nil
}

func readCandleFile(path string) ([]market.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCandles(f)
}

// ReadCandles parses candle rows from r.
func ReadCandles(r io.Reader) ([]market.Candle, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var out []market.Candle
	for line := 1; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 0 {
			continue
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(row[0]), "time") {
			continue
		}
		if len(row) < 5 {
			continue
		}
		c, err := parseCandleRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, c)
	}
}

func parseCandleRow(row []string) (market.Candle, error) {
	ts := strings.TrimSpace(row[0])
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		sec, err2 := strconv.ParseInt(ts, 10, 64)
		if err2 != nil {
			return market.Candle{}, fmt.Errorf("bad time %q: %w", ts, err)
		}
		t = time.Unix(sec, 0)
	}

	var v [4]float64
	for i := range v {
		v[i], err = strconv.ParseFloat(strings.TrimSpace(row[i+1]), 64)
		if err != nil {
			return market.Candle{}, fmt.Errorf("bad price %q: %w", row[i+1], err)
		}
	}
	return market.Candle{Time: t.UTC(), Open: v[0], High: v[1], Low: v[2], Close: v[3]}, nil
}

// WriteCandles writes bars in the format ReadCandles accepts.
func WriteCandles(w io.Writer, bars []market.Candle) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "open", "high", "low", "close"}); err != nil {
		return err
	}
	for _, c := range bars {
		row := []string{
			c.Time.UTC().Format(time.RFC3339),
			strconv.FormatFloat(c.Open, 'f', -1, 64),
			strconv.FormatFloat(c.High, 'f', -1, 64),
			strconv.FormatFloat(c.Low, 'f', -1, 64),
			strconv.FormatFloat(c.Close, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
