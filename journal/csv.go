package journal

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"sync"
	"time"
)

// ReportHeader is the column set of the trade report.
var ReportHeader = []string{"time", "asset", "direction", "price", "rsi", "adx", "stoch_k", "atr", "trend", "outcome", "profit"}

func reportRow(t TradeRecord) []string {
	return []string{
		t.OpenTime.UTC().Format(time.RFC3339),
		t.Asset,
		t.Direction,
		f(t.EntryPrice),
		f2(t.RSI),
		f2(t.ADX),
		f2(t.StochK),
		f(t.ATR),
		t.Trend,
		t.Outcome,
		f2(t.Profit),
	}
}

// WriteReport writes the header and one row per record.
func WriteReport(w io.Writer, recs []TradeRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ReportHeader); err != nil {
		return err
	}
	for _, r := range recs {
		if err := cw.Write(reportRow(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSVJournal appends report rows to a file as trades settle. An existing
// file is appended to; the header is written only to an empty file.
type CSVJournal struct {
	mu     sync.Mutex
	trades *csv.Writer
	tf     *os.File
}

func NewCSV(tradesPath string) (*CSVJournal, error) {
	tf, err := os.OpenFile(tradesPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := tf.Stat()
	if err != nil {
		tf.Close()
		return nil, err
	}

	tw := csv.NewWriter(tf)
	if info.Size() == 0 {
		if err := tw.Write(ReportHeader); err != nil {
			tf.Close()
			return nil, err
		}
		tw.Flush()
		if err := tw.Error(); err != nil {
			tf.Close()
			return nil, err
		}
	}

	return &CSVJournal{trades: tw, tf: tf}, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.trades.Write(reportRow(t)); err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		j.tf.Close()
		return err
	}
	return j.tf.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

func f2(x float64) string {
	return strconv.FormatFloat(x, 'f', 2, 64)
}
