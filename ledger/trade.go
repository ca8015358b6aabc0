package ledger

import (
	"time"

	"github.com/rustyeddy/binscan/broker"
	"github.com/rustyeddy/binscan/indicators"
	"github.com/rustyeddy/binscan/journal"
	"github.com/rustyeddy/binscan/signal"
)

type Status string

const (
	Pending Status = "PENDING"
	Win     Status = "WIN"
	Loss    Status = "LOSS"
)

// OutcomeStatus maps a broker-reported profit to a final status. A push
// (zero profit) settles as LOSS with zero profit.
func OutcomeStatus(profit float64) Status {
	if profit > 0 {
		return Win
	}
	return Loss
}

// Trade is one binary position. Profit is only meaningful once Status is
// not Pending.
type Trade struct {
	ID         string
	Asset      string
	Direction  signal.Direction
	Stake      float64
	Instrument broker.InstrumentType
	OrderID    string
	EntryPrice float64
	OpenedAt   time.Time
	Expiry     time.Time

	Status    Status
	Profit    float64
	SettledAt time.Time

	// Stuck is set when settlement retries were exhausted.
	Stuck bool

	Snapshot indicators.Snapshot
}

// Record converts a settled trade into its journal row.
func (t Trade) Record() journal.TradeRecord {
	return journal.TradeRecord{
		TradeID:    t.ID,
		Asset:      t.Asset,
		Direction:  string(t.Direction),
		Instrument: string(t.Instrument),
		Stake:      t.Stake,
		EntryPrice: t.EntryPrice,
		RSI:        t.Snapshot.RSI,
		ADX:        t.Snapshot.ADX,
		StochK:     t.Snapshot.StochK,
		ATR:        t.Snapshot.ATR,
		Trend:      string(t.Snapshot.Trend),
		OpenTime:   t.OpenedAt,
		SettleTime: t.SettledAt,
		Outcome:    string(t.Status),
		Profit:     t.Profit,
	}
}
