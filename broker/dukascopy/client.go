// Package dukascopy reads historical one-minute candles from the public
// Dukascopy datafeed. Each trading day is one LZMA-compressed file of BID
// candles; a day is only published once it is complete, so the current
// UTC day is never available.
package dukascopy

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ulikunitz/xz/lzma"

	"github.com/rustyeddy/binscan/broker"
	"github.com/rustyeddy/binscan/market"
)

const DefaultBaseURL = "https://datafeed.dukascopy.com/datafeed"

// recordSize is one candle: seconds into the day, open, close, low, high
// as big-endian uint32 points, then volume as float32.
const recordSize = 24

type Client struct {
	BaseURL string
	// CacheDir keeps downloaded day files. Empty disables the disk cache.
	CacheDir string
	HTTP     *http.Client
	// MaxDays bounds how far back Candles walks to fill a request.
	MaxDays int

	mu   sync.Mutex
	days map[string][]market.Candle
	now  func() time.Time
}

func New(cacheDir string) *Client {
	return &Client{
		BaseURL:  DefaultBaseURL,
		CacheDir: cacheDir,
		HTTP:     &http.Client{Timeout: 45 * time.Second},
		MaxDays:  10,
		days:     make(map[string][]market.Candle),
		now:      time.Now,
	}
}

// DayURL returns the candle file URL for asset on day. Months are zero
// based in the datafeed path.
func DayURL(base, asset string, day time.Time) string {
	d := day.UTC()
	return fmt.Sprintf("%s/%s/%04d/%02d/%02d/BID_candles_min_1.bi5",
		strings.TrimRight(base, "/"), market.CanonicalAsset(asset),
		d.Year(), int(d.Month())-1, d.Day())
}

// Scale is the divisor from datafeed points to price for asset.
func Scale(asset string) float64 {
	meta, err := market.Lookup(asset)
	if err != nil {
		return 1e5
	}
	return math.Pow10(1 - meta.PipLocation)
}

// Candles returns up to count bars of period ending at or before end,
// oldest first. Period must be a whole number of minutes.
func (c *Client) Candles(ctx context.Context, asset string, period time.Duration, count int, end time.Time) ([]market.Candle, error) {
	if period <= 0 || period%time.Minute != 0 {
		return nil, fmt.Errorf("dukascopy: period %s is not a whole number of minutes", period)
	}
	if end.IsZero() {
		end = c.now()
	}
	end = end.UTC()
	perDay := int(24 * time.Hour / period)

	var bars []market.Candle
	day := end.Truncate(24 * time.Hour)
	for i := 0; i < c.maxDays(); i++ {
		d, err := c.Day(ctx, asset, day)
		if err != nil {
			return nil, err
		}
		bars = append(Aggregate(d, period), bars...)
		if count > 0 && len(bars) >= count+perDay {
			break
		}
		day = day.AddDate(0, 0, -1)
	}

	n := sort.Search(len(bars), func(i int) bool { return bars[i].Time.After(end) })
	bars = bars[:n]
	if count > 0 && len(bars) > count {
		bars = bars[len(bars)-count:]
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("dukascopy %s: %w", asset, market.ErrNoData)
	}
	return bars, nil
}

func (c *Client) maxDays() int {
	if c.MaxDays <= 0 {
		return 10
	}
	return c.MaxDays
}

// Day returns the one-minute bars of asset for the UTC day containing day.
// Days that are not published yet, or have no trading, are empty.
func (c *Client) Day(ctx context.Context, asset string, day time.Time) ([]market.Candle, error) {
	asset = market.CanonicalAsset(asset)
	day = day.UTC().Truncate(24 * time.Hour)
	if !day.Before(c.now().UTC().Truncate(24 * time.Hour)) {
		return nil, nil
	}

	key := asset + "/" + day.Format("2006-01-02")
	c.mu.Lock()
	if d, ok := c.days[key]; ok {
		c.mu.Unlock()
		return d, nil
	}
	c.mu.Unlock()

	raw, err := c.load(ctx, asset, day)
	if err != nil {
		return nil, err
	}
	bars, err := Decode(bytes.NewReader(raw), day, Scale(asset))
	if err != nil {
		return nil, fmt.Errorf("dukascopy %s %s: %w", asset, day.Format("2006-01-02"), err)
	}

	c.mu.Lock()
	c.days[key] = bars
	c.mu.Unlock()
	return bars, nil
}

func (c *Client) cachePath(asset string, day time.Time) string {
	return filepath.Join(c.CacheDir, asset, day.Format("2006"), day.Format("01"), day.Format("02")+"_BID_candles_min_1.bi5")
}

func (c *Client) load(ctx context.Context, asset string, day time.Time) ([]byte, error) {
	var path string
	if c.CacheDir != "" {
		path = c.cachePath(asset, day)
		if b, err := os.ReadFile(path); err == nil {
			return b, nil
		}
	}

	b, err := c.download(ctx, DayURL(c.BaseURL, asset, day))
	if err != nil || path == "" {
		return b, err
	}
	if err := writeAtomic(path, b); err != nil {
		return nil, fmt.Errorf("dukascopy cache: %w", err)
	}
	return b, nil
}

// download returns the file body, or nil for a 404. Transport failures and
// 5xx responses wrap broker.ErrConnectivity.
func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "binscan/1.0")

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", broker.ErrConnectivity, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: dukascopy http %d", broker.ErrConnectivity, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("dukascopy http %d", resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", broker.ErrConnectivity, err)
	}
	return b, nil
}

func writeAtomic(path string, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".part"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// Decode decompresses a day file and converts its records to candles.
// An empty input is a day without data.
func Decode(r io.Reader, day time.Time, scale float64) ([]market.Candle, error) {
	br := nonEmpty(r)
	if br == nil {
		return nil, nil
	}
	lr, err := lzma.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("lzma: %w", err)
	}
	raw, err := io.ReadAll(lr)
	if err != nil {
		return nil, fmt.Errorf("lzma: %w", err)
	}
	if len(raw)%recordSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of records", market.ErrMalformedCandle, len(raw))
	}

	day = day.UTC().Truncate(24 * time.Hour)
	out := make([]market.Candle, 0, len(raw)/recordSize)
	for off := 0; off < len(raw); off += recordSize {
		rec := raw[off : off+recordSize]
		u := func(i int) float64 { return float64(binary.BigEndian.Uint32(rec[i*4:])) / scale }
		c := market.Candle{
			Time:  day.Add(time.Duration(binary.BigEndian.Uint32(rec)) * time.Second),
			Open:  u(1),
			Close: u(2),
			Low:   u(3),
			High:  u(4),
		}
		// flat zero-volume bars pad the file outside trading hours
		volume := math.Float32frombits(binary.BigEndian.Uint32(rec[20:]))
		if volume == 0 && c.Open == c.Close && c.High == c.Low {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// nonEmpty returns nil when r is empty, else a reader over all of r.
func nonEmpty(r io.Reader) io.Reader {
	var one [1]byte
	n, _ := io.ReadFull(r, one[:])
	if n == 0 {
		return nil
	}
	return io.MultiReader(bytes.NewReader(one[:n]), r)
}

// Aggregate folds one-minute bars into bars of period aligned to the UTC
// day.
func Aggregate(bars []market.Candle, period time.Duration) []market.Candle {
	if period <= time.Minute || len(bars) == 0 {
		return bars
	}
	var out []market.Candle
	for _, b := range bars {
		t := b.Time.Truncate(period)
		if n := len(out); n > 0 && out[n-1].Time.Equal(t) {
			cur := &out[n-1]
			cur.High = math.Max(cur.High, b.High)
			cur.Low = math.Min(cur.Low, b.Low)
			cur.Close = b.Close
			continue
		}
		b.Time = t
		out = append(out, b)
	}
	return out
}
