package dukascopy

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz/lzma"

	"github.com/rustyeddy/binscan/broker"
	"github.com/rustyeddy/binscan/market"
)

var tue = time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)

type rec struct {
	sec                    uint32
	open, close, low, high uint32
	volume                 float32
}

func encode(t *testing.T, recs ...rec) []byte {
	t.Helper()
	var raw bytes.Buffer
	for _, r := range recs {
		for _, v := range []uint32{r.sec, r.open, r.close, r.low, r.high, math.Float32bits(r.volume)} {
			require.NoError(t, binary.Write(&raw, binary.BigEndian, v))
		}
	}
	var out bytes.Buffer
	w, err := lzma.NewWriter(&out)
	require.NoError(t, err)
	_, err = w.Write(raw.Bytes())
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return out.Bytes()
}

func TestDayURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		"https://datafeed.dukascopy.com/datafeed/EURUSD/2026/02/03/BID_candles_min_1.bi5",
		DayURL(DefaultBaseURL, "eur_usd", tue.Add(13*time.Hour)))
	assert.Equal(t, "http://x/USDJPY/2026/00/31/BID_candles_min_1.bi5",
		DayURL("http://x/", "USDJPY", time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)))
}

func TestScale(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1e5, Scale("EURUSD"))
	assert.Equal(t, 1e3, Scale("USDJPY"))
}

func TestDecode(t *testing.T) {
	t.Parallel()

	data := encode(t,
		rec{sec: 0, open: 108500, close: 108500, low: 108500, high: 108500},
		rec{sec: 60, open: 108510, close: 108530, low: 108505, high: 108540, volume: 12.5},
		rec{sec: 120, open: 108530, close: 108520, low: 108515, high: 108535, volume: 3},
	)
	bars, err := Decode(bytes.NewReader(data), tue, 1e5)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, tue.Add(time.Minute), bars[0].Time)
	assert.InDelta(t, 1.0851, bars[0].Open, 1e-9)
	assert.InDelta(t, 1.0853, bars[0].Close, 1e-9)
	assert.InDelta(t, 1.08505, bars[0].Low, 1e-9)
	assert.InDelta(t, 1.0854, bars[0].High, 1e-9)
	assert.NoError(t, bars[1].Validate())

	empty, err := Decode(bytes.NewReader(nil), tue, 1e5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDecodeTruncated(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	w, err := lzma.NewWriter(&out)
	require.NoError(t, err)
	_, _ = w.Write(make([]byte, 30))
	require.NoError(t, w.Close())

	_, err = Decode(&out, tue, 1e5)
	assert.ErrorIs(t, err, market.ErrMalformedCandle)
}

func TestAggregate(t *testing.T) {
	t.Parallel()

	in := []market.Candle{
		{Time: tue.Add(0), Open: 1, High: 2, Low: 0.5, Close: 1.5},
		{Time: tue.Add(1 * time.Minute), Open: 1.5, High: 3, Low: 1, Close: 2},
		{Time: tue.Add(5 * time.Minute), Open: 2, High: 2.2, Low: 1.9, Close: 2.1},
	}
	out := Aggregate(in, 5*time.Minute)
	require.Len(t, out, 2)
	assert.Equal(t, market.Candle{Time: tue, Open: 1, High: 3, Low: 0.5, Close: 2}, out[0])
	assert.Equal(t, tue.Add(5*time.Minute), out[1].Time)
}

func minuteRecs(n int, base uint32) []rec {
	out := make([]rec, n)
	for i := range out {
		p := base + uint32(i)
		out[i] = rec{sec: uint32(i * 60), open: p, close: p + 1, low: p, high: p + 1, volume: 1}
	}
	return out
}

func TestCandlesAcrossDays(t *testing.T) {
	t.Parallel()

	mon := encode(t, minuteRecs(5, 108000)...)
	tueData := encode(t, minuteRecs(3, 109000)...)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/EURUSD/2026/02/02/BID_candles_min_1.bi5":
			_, _ = w.Write(mon)
		case "/EURUSD/2026/02/03/BID_candles_min_1.bi5":
			_, _ = w.Write(tueData)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(t.TempDir())
	c.BaseURL = srv.URL
	c.MaxDays = 3
	c.now = func() time.Time { return time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC) }

	end := tue.Add(time.Minute)
	bars, err := c.Candles(context.Background(), "EURUSD", time.Minute, 4, end)
	require.NoError(t, err)
	require.Len(t, bars, 4)
	assert.Equal(t, tue.Add(-24*time.Hour+3*time.Minute), bars[0].Time)
	assert.Equal(t, end, bars[3].Time)

	// served from memory the second time
	before := hits.Load()
	_, err = c.Candles(context.Background(), "EURUSD", time.Minute, 4, end)
	require.NoError(t, err)
	assert.Equal(t, before, hits.Load())

	// and from the disk cache by a fresh client
	c2 := New(c.CacheDir)
	c2.BaseURL = "http://127.0.0.1:1"
	c2.now = c.now
	d, err := c2.Day(context.Background(), "EURUSD", tue)
	require.NoError(t, err)
	assert.Len(t, d, 3)
	_, err = os.Stat(c.cachePath("EURUSD", tue))
	assert.NoError(t, err)
}

func TestCandlesErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/GBPUSD/2026/02/03/BID_candles_min_1.bi5" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New("")
	c.BaseURL = srv.URL
	c.MaxDays = 2
	c.now = func() time.Time { return tue.Add(48 * time.Hour) }

	_, err := c.Candles(context.Background(), "EURUSD", time.Minute, 10, tue.Add(time.Hour))
	assert.True(t, errors.Is(err, market.ErrNoData), err)

	_, err = c.Candles(context.Background(), "GBPUSD", time.Minute, 10, tue.Add(time.Hour))
	assert.ErrorIs(t, err, broker.ErrConnectivity)

	_, err = c.Candles(context.Background(), "EURUSD", 90*time.Second, 10, tue)
	assert.Error(t, err)
}

func TestCurrentDayIsNotFetched(t *testing.T) {
	t.Parallel()

	c := New("")
	c.BaseURL = "http://127.0.0.1:1"
	c.now = func() time.Time { return tue.Add(10 * time.Hour) }

	d, err := c.Day(context.Background(), "EURUSD", tue)
	require.NoError(t, err)
	assert.Nil(t, d)
}
