package journal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTrade(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)

	want := sampleRecord("T123", "WIN", 0.87)
	require.NoError(t, j.RecordTrade(want))

	got, err := j.GetTrade("T123")
	require.NoError(t, err)

	assert.Equal(t, want.TradeID, got.TradeID)
	assert.Equal(t, want.Asset, got.Asset)
	assert.Equal(t, want.Direction, got.Direction)
	assert.Equal(t, want.Instrument, got.Instrument)
	assert.InDelta(t, want.Stake, got.Stake, 1e-9)
	assert.InDelta(t, want.EntryPrice, got.EntryPrice, 1e-9)
	assert.InDelta(t, want.RSI, got.RSI, 1e-9)
	assert.InDelta(t, want.ADX, got.ADX, 1e-9)
	assert.InDelta(t, want.StochK, got.StochK, 1e-9)
	assert.InDelta(t, want.ATR, got.ATR, 1e-12)
	assert.Equal(t, want.Trend, got.Trend)
	assert.True(t, got.OpenTime.Equal(want.OpenTime))
	assert.True(t, got.SettleTime.Equal(want.SettleTime))
	assert.Equal(t, want.Outcome, got.Outcome)
	assert.InDelta(t, want.Profit, got.Profit, 1e-9)
}

func TestGetTradeNotFound(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)

	_, err := j.GetTrade("nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestListTradesSettledBetween(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)

	day := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)
	mk := func(id string, settle time.Time, outcome string, profit float64) TradeRecord {
		r := sampleRecord(id, outcome, profit)
		r.OpenTime = settle.Add(-62 * time.Second)
		r.SettleTime = settle
		return r
	}

	recs := []TradeRecord{
		mk("before", day.Add(-time.Minute), "WIN", 0.8),
		mk("start", day, "WIN", 0.8),
		mk("mid", day.Add(12*time.Hour), "LOSS", -1),
		mk("late", day.Add(23*time.Hour+59*time.Minute), "WIN", 0.8),
		mk("end", day.Add(24*time.Hour), "LOSS", -1),
	}
	for _, r := range recs {
		require.NoError(t, j.RecordTrade(r))
	}

	got, err := j.ListTradesSettledBetween(day, day.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "start", got[0].TradeID)
	assert.Equal(t, "mid", got[1].TradeID)
	assert.Equal(t, "late", got[2].TradeID)

	sum, err := j.SummaryBetween(day, day.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Trades)
	assert.Equal(t, 2, sum.Wins)
	assert.Equal(t, 1, sum.Losses)
	assert.InDelta(t, 0.6, sum.PnL, 1e-9)
	assert.InDelta(t, 1.6, sum.ProfitFactor, 1e-9)
	assert.InDelta(t, 2.0/3.0, sum.WinRate(), 1e-9)

	empty, err := j.ListTradesSettledBetween(day.Add(48*time.Hour), day.Add(72*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSummarizeEmpty(t *testing.T) {
	t.Parallel()

	s := Summarize(nil)
	assert.Zero(t, s.Trades)
	assert.Zero(t, s.WinRate())
	assert.Zero(t, s.ProfitFactor)

	// a push counts as a loss with zero profit
	s = Summarize([]TradeRecord{{Outcome: "LOSS", Profit: 0}})
	assert.Equal(t, 1, s.Losses)
	assert.Zero(t, s.GrossLoss)
}
