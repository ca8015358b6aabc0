// Package journal persists settled trades and renders reports.
package journal

import "time"

// TradeRecord is a settled trade with the indicator context it was taken on.
type TradeRecord struct {
	TradeID    string
	Asset      string
	Direction  string
	Instrument string
	Stake      float64
	EntryPrice float64

	RSI    float64
	ADX    float64
	StochK float64
	ATR    float64
	Trend  string

	OpenTime   time.Time
	SettleTime time.Time
	Outcome    string
	Profit     float64
}

type Journal interface {
	RecordTrade(TradeRecord) error
	Close() error
}

// Nop discards records.
type Nop struct{}

func (Nop) RecordTrade(TradeRecord) error { return nil }
func (Nop) Close() error                  { return nil }
