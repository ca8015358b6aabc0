package journal

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(id string, outcome string, profit float64) TradeRecord {
	open := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return TradeRecord{
		TradeID:    id,
		Asset:      "EURUSD",
		Direction:  "CALL",
		Instrument: "binary",
		Stake:      1,
		EntryPrice: 1.0950,
		RSI:        20.123,
		ADX:        22.5,
		StochK:     15,
		ATR:        0.00042,
		Trend:      "UP",
		OpenTime:   open,
		SettleTime: open.Add(62 * time.Second),
		Outcome:    outcome,
		Profit:     profit,
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVJournalHeaders(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trades.csv")

	j, err := NewCSV(path)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	rows := readCSV(t, path)
	require.Len(t, rows, 1)
	want := []string{"time", "asset", "direction", "price", "rsi", "adx", "stoch_k", "atr", "trend", "outcome", "profit"}
	assert.Equal(t, want, rows[0])
}

func TestCSVJournalRecordTrade(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trades.csv")

	j, err := NewCSV(path)
	require.NoError(t, err)
	require.NoError(t, j.RecordTrade(sampleRecord("T1", "WIN", 0.85)))
	require.NoError(t, j.Close())

	rows := readCSV(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{
		"2024-01-02T03:04:05Z", "EURUSD", "CALL", "1.095000", "20.12", "22.50", "15.00", "0.000420", "UP", "WIN", "0.85",
	}, rows[1])
}

func TestCSVJournalAppendsWithoutSecondHeader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trades.csv")

	j, err := NewCSV(path)
	require.NoError(t, err)
	require.NoError(t, j.RecordTrade(sampleRecord("T1", "WIN", 0.85)))
	require.NoError(t, j.Close())

	j, err = NewCSV(path)
	require.NoError(t, err)
	require.NoError(t, j.RecordTrade(sampleRecord("T2", "LOSS", -1)))
	require.NoError(t, j.Close())

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, "time", rows[0][0])
	assert.Equal(t, "LOSS", rows[2][9])
	assert.Equal(t, "-1.00", rows[2][10])
}

func TestWriteReport(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := WriteReport(&buf, []TradeRecord{
		sampleRecord("T1", "WIN", 0.85),
		sampleRecord("T2", "LOSS", -1),
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(ReportHeader, ","), lines[0])
	assert.True(t, strings.HasSuffix(lines[2], ",LOSS,-1.00"))

	buf.Reset()
	require.NoError(t, WriteReport(&buf, nil))
	assert.Equal(t, strings.Join(ReportHeader, ",")+"\n", buf.String())
}

func TestNewCSVBadPath(t *testing.T) {
	t.Parallel()

	_, err := NewCSV(filepath.Join(t.TempDir(), "missing", "trades.csv"))
	assert.Error(t, err)
}
