package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

// RecordTrade inserts a settled trade. A second insert with the same
// trade id is ignored.
func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT OR IGNORE INTO trades
		(trade_id, asset, direction, instrument, stake, entry_price, rsi, adx, stoch_k, atr, trend, open_time, settle_time, outcome, profit)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.Asset, t.Direction, t.Instrument, t.Stake, t.EntryPrice,
		t.RSI, t.ADX, t.StochK, t.ATR, t.Trend,
		t.OpenTime.UTC(), t.SettleTime.UTC(), t.Outcome, t.Profit,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
