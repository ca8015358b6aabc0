package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/binscan/broker"
	"github.com/rustyeddy/binscan/indicators"
	"github.com/rustyeddy/binscan/signal"
)

func validDefault() *Config {
	cfg := Default()
	cfg.Broker.Oanda.Token = "test-token"
	return cfg
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Equal(t, 10.0, cfg.Account.Stake)
	assert.Equal(t, 25.0, cfg.Strategy.RSIBuy)
	assert.Equal(t, 75.0, cfg.Strategy.RSISell)
	assert.Equal(t, 15.0, cfg.Strategy.ADXLow)
	assert.Equal(t, 35.0, cfg.Strategy.ADXHigh)
	assert.True(t, cfg.Strategy.StochasticFilter)
	assert.False(t, cfg.Strategy.TrendFilter)
	assert.Equal(t, 60, cfg.Scanner.ScanIntervalSeconds)
	assert.True(t, cfg.Execution.PaperTrading)
	assert.Len(t, cfg.Scanner.AssetBasket, 10)
	assert.Equal(t, "EURUSD", cfg.Scanner.AssetBasket[0])

	assert.Equal(t, indicators.DefaultParams(), cfg.IndicatorParams())
	assert.Equal(t, signal.DefaultThresholds(), cfg.Thresholds())
	assert.NoError(t, validDefault().Validate())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"zero stake", func(c *Config) { c.Account.Stake = 0 }, "account.stake must be greater than 0"},
		{"rsi thresholds crossed", func(c *Config) { c.Strategy.RSIBuy = 80 }, "rsi_buy_threshold (80) must be below"},
		{"adx band empty", func(c *Config) { c.Strategy.ADXLow = 35 }, "adx_low (35) must be below adx_high (35)"},
		{"unknown asset", func(c *Config) { c.Scanner.AssetBasket = []string{"EURUSD", "BTC"} }, "scanner.asset_basket"},
		{"empty basket", func(c *Config) { c.Scanner.AssetBasket = nil }, "scanner.asset_basket is required"},
		{"bad instrument", func(c *Config) { c.Execution.Instruments = []string{"turbo"} }, "must be one of: binary, digital"},
		{"bad journal", func(c *Config) { c.Journal.Type = "parquet" }, "journal.type must be one of"},
		{"sqlite without path", func(c *Config) { c.Journal.Type = "sqlite"; c.Journal.DBPath = "" }, "journal.db_path required"},
		{"oanda without token", func(c *Config) { c.Broker.Oanda.Token = "" }, "OANDA_TOKEN"},
		{"live without bridge", func(c *Config) { c.Execution.PaperTrading = false }, "paper_trading is off"},
		{"telegram without chat", func(c *Config) { c.Notify.Telegram.Token = "t" }, "chat_id required"},
		{"unknown data source", func(c *Config) { c.Broker.Data = "yahoo" }, "broker.data must be one of"},
		{"dukascopy without url", func(c *Config) { c.Broker.Data = "dukascopy"; c.Broker.Dukascopy.BaseURL = "" }, "broker.dukascopy.base_url"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level must be one of"},
		{"zero interval", func(c *Config) { c.Scanner.ScanIntervalSeconds = 0 }, "scanner.scan_interval_seconds must be at least 1"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validDefault()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	t.Parallel()

	cfg := validDefault()
	cfg.Account.Stake = -1
	cfg.Risk.StopLoss = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account.stake")
	assert.Contains(t, err.Error(), "risk.stop_loss")
}

func TestSaveAndLoadYAML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "binscan.yaml")

	cfg := validDefault()
	cfg.Account.Stake = 25
	cfg.Scanner.AssetBasket = []string{"EURUSD", "USDJPY"}
	cfg.Strategy.StochasticFilter = false
	require.NoError(t, cfg.SaveToFile(path))

	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 25.0, got.Account.Stake)
	assert.Equal(t, []string{"EURUSD", "USDJPY"}, got.Scanner.AssetBasket)
	assert.False(t, got.Strategy.StochasticFilter)
}

func TestSaveAndLoadJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "binscan.json")
	cfg := validDefault()
	cfg.Risk.TargetProfit = 120
	require.NoError(t, cfg.SaveToFile(path))

	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 120.0, got.Risk.TargetProfit)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := []byte(`
account:
  stake: 5
strategy:
  rsi_buy_threshold: 30
  rsi_sell_threshold: 70
scanner:
  asset_basket: [GBPUSD]
broker:
  data: csv
  csv_dir: ./data
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5.0, got.Account.Stake)
	assert.Equal(t, 30.0, got.Strategy.RSIBuy)
	assert.Equal(t, 35.0, got.Strategy.ADXHigh)
	assert.Equal(t, 200, got.Strategy.EMAPeriod)
	assert.Equal(t, []string{"GBPUSD"}, got.Basket())
	assert.Equal(t, time.Minute, got.ScanInterval())
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("account: [unclosed"), 0o600))
	_, err = LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestExecutionConfig(t *testing.T) {
	t.Parallel()

	ec := Default().ExecutionConfig()
	assert.Equal(t, time.Minute, ec.Duration)
	assert.Equal(t, 2*time.Second, ec.SettleBuffer)
	assert.Equal(t, 3, ec.Retries)
	assert.Equal(t, 5*time.Second, ec.RetryInterval)
	assert.Equal(t, 30*time.Second, ec.StuckRetryInterval)
	assert.Equal(t, time.Minute, ec.OutcomeGrace)
	assert.Equal(t, []broker.InstrumentType{broker.Binary, broker.Digital}, ec.Instruments)
}
