package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	asset TEXT NOT NULL,
	direction TEXT NOT NULL,
	instrument TEXT NOT NULL,
	stake REAL NOT NULL,
	entry_price REAL NOT NULL,
	rsi REAL NOT NULL,
	adx REAL NOT NULL,
	stoch_k REAL NOT NULL,
	atr REAL NOT NULL,
	trend TEXT NOT NULL,
	open_time DATETIME NOT NULL,
	settle_time DATETIME NOT NULL,
	outcome TEXT NOT NULL,
	profit REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_settle_time ON trades(settle_time);
`
