package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const tradeColumns = `trade_id, asset, direction, instrument, stake, entry_price, rsi, adx, stoch_k, atr, trend, open_time, settle_time, outcome, profit`

type scanner interface {
	Scan(dest ...any) error
}

func scanTrade(s scanner) (TradeRecord, error) {
	var rec TradeRecord
	err := s.Scan(
		&rec.TradeID,
		&rec.Asset,
		&rec.Direction,
		&rec.Instrument,
		&rec.Stake,
		&rec.EntryPrice,
		&rec.RSI,
		&rec.ADX,
		&rec.StochK,
		&rec.ATR,
		&rec.Trend,
		&rec.OpenTime,
		&rec.SettleTime,
		&rec.Outcome,
		&rec.Profit,
	)
	return rec, err
}

// GetTrade returns a single trade record by ID.
func (j *SQLite) GetTrade(tradeID string) (TradeRecord, error) {
	row := j.db.QueryRow(`SELECT `+tradeColumns+` FROM trades WHERE trade_id = ?`, tradeID)

	rec, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TradeRecord{}, fmt.Errorf("trade %q not found", tradeID)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// ListTradesSettledBetween returns trades whose settle_time is within [start, end).
func (j *SQLite) ListTradesSettledBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT `+tradeColumns+`
		FROM trades
		WHERE settle_time >= ? AND settle_time < ?
		ORDER BY settle_time ASC, trade_id ASC`, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Summary aggregates a set of settled trades.
type Summary struct {
	Trades int
	Wins   int
	Losses int
	PnL    float64

	GrossProfit  float64
	GrossLoss    float64
	ProfitFactor float64
}

// WinRate is wins over trades, 0 for an empty summary.
func (s Summary) WinRate() float64 {
	if s.Trades == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Trades)
}

// Summarize folds records into a Summary.
func Summarize(recs []TradeRecord) Summary {
	var s Summary
	for _, r := range recs {
		s.Trades++
		if r.Outcome == "WIN" {
			s.Wins++
		} else {
			s.Losses++
		}
		s.PnL += r.Profit
		if r.Profit > 0 {
			s.GrossProfit += r.Profit
		} else {
			s.GrossLoss -= r.Profit
		}
	}
	if s.GrossLoss > 0 {
		s.ProfitFactor = s.GrossProfit / s.GrossLoss
	}
	return s
}

// SummaryBetween summarizes trades settled within [start, end).
func (j *SQLite) SummaryBetween(start, end time.Time) (Summary, error) {
	recs, err := j.ListTradesSettledBetween(start, end)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(recs), nil
}
