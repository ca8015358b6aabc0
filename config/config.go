package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/binscan/market"
)

// Config represents the complete scanner configuration
type Config struct {
	Account   AccountConfig   `json:"account" yaml:"account"`
	Strategy  StrategyConfig  `json:"strategy" yaml:"strategy"`
	Risk      RiskConfig      `json:"risk" yaml:"risk"`
	Scanner   ScannerConfig   `json:"scanner" yaml:"scanner"`
	Execution ExecutionConfig `json:"execution" yaml:"execution"`
	Broker    BrokerConfig    `json:"broker" yaml:"broker"`
	Journal   JournalConfig   `json:"journal" yaml:"journal"`
	Notify    NotifyConfig    `json:"notify" yaml:"notify"`
	Control   ControlConfig   `json:"control" yaml:"control"`
	Metrics   MetricsConfig   `json:"metrics" yaml:"metrics"`
	Log       LogConfig       `json:"log" yaml:"log"`
}

// AccountConfig sizes every trade
type AccountConfig struct {
	Stake  float64 `json:"stake" yaml:"stake" default:"10" validate:"gt=0"`
	Payout float64 `json:"payout" yaml:"payout" default:"0.8" validate:"gt=0,lte=2"`
}

// StrategyConfig holds classifier thresholds and indicator windows
type StrategyConfig struct {
	RSIBuy    float64 `json:"rsi_buy_threshold" yaml:"rsi_buy_threshold" default:"25" validate:"gt=0,lt=100"`
	RSISell   float64 `json:"rsi_sell_threshold" yaml:"rsi_sell_threshold" default:"75" validate:"gt=0,lt=100"`
	ADXLow    float64 `json:"adx_low" yaml:"adx_low" default:"15" validate:"gte=0,lt=100"`
	ADXHigh   float64 `json:"adx_high" yaml:"adx_high" default:"35" validate:"gt=0,lte=100"`
	StochLow  float64 `json:"stoch_low" yaml:"stoch_low" default:"20" validate:"gte=0,lt=100"`
	StochHigh float64 `json:"stoch_high" yaml:"stoch_high" default:"80" validate:"gt=0,lte=100"`

	StochasticFilter bool `json:"stochastic_filter" yaml:"stochastic_filter" default:"true"`
	TrendFilter      bool `json:"trend_filter" yaml:"trend_filter"`

	BBPeriod         int     `json:"bb_period" yaml:"bb_period" default:"20" validate:"min=2"`
	BBK              float64 `json:"bb_k" yaml:"bb_k" default:"2" validate:"gt=0"`
	RSIPeriod        int     `json:"rsi_period" yaml:"rsi_period" default:"7" validate:"min=2"`
	RSIDisplayPeriod int     `json:"rsi_display_period" yaml:"rsi_display_period" default:"14" validate:"min=2"`
	ADXPeriod        int     `json:"adx_period" yaml:"adx_period" default:"14" validate:"min=2"`
	ATRPeriod        int     `json:"atr_period" yaml:"atr_period" default:"14" validate:"min=1"`
	EMAPeriod        int     `json:"ema_period" yaml:"ema_period" default:"200" validate:"min=2"`
	StochK           int     `json:"stoch_k" yaml:"stoch_k" default:"14" validate:"min=1"`
	StochSmooth      int     `json:"stoch_smooth" yaml:"stoch_smooth" default:"3" validate:"min=1"`
	StochD           int     `json:"stoch_d" yaml:"stoch_d" default:"3" validate:"min=1"`
	MACDFast         int     `json:"macd_fast" yaml:"macd_fast" default:"12" validate:"min=1"`
	MACDSlow         int     `json:"macd_slow" yaml:"macd_slow" default:"26" validate:"min=2"`
	MACDSignal       int     `json:"macd_signal" yaml:"macd_signal" default:"9" validate:"min=1"`
}

// RiskConfig holds the session P&L band and the strength veto
type RiskConfig struct {
	TargetProfit      float64 `json:"target_profit" yaml:"target_profit" default:"50" validate:"gt=0"`
	StopLoss          float64 `json:"stop_loss" yaml:"stop_loss" default:"30" validate:"gt=0"`
	StrengthFilter    bool    `json:"strength_filter" yaml:"strength_filter"`
	StrengthThreshold float64 `json:"strength_threshold" yaml:"strength_threshold" default:"0.15" validate:"gte=0"`
	StrengthLookback  int     `json:"strength_lookback" yaml:"strength_lookback" default:"20" validate:"min=1"`
}

// ScannerConfig controls the scan loop
type ScannerConfig struct {
	AssetBasket          []string `json:"asset_basket" yaml:"asset_basket" validate:"required,min=1,dive,required"`
	ScanIntervalSeconds  int      `json:"scan_interval_seconds" yaml:"scan_interval_seconds" default:"60" validate:"min=1"`
	CandlePeriodSeconds  int      `json:"candle_period_seconds" yaml:"candle_period_seconds" default:"60" validate:"min=5"`
	CandleCount          int      `json:"candle_count" yaml:"candle_count" default:"250" validate:"min=1"`
	TradeDurationSeconds int      `json:"trade_duration_seconds" yaml:"trade_duration_seconds" default:"60" validate:"min=1"`
	SettleBufferSeconds  int      `json:"settle_buffer_seconds" yaml:"settle_buffer_seconds" default:"2" validate:"min=0"`
	// TradingEnabled is the kill-switch position at startup.
	TradingEnabled bool `json:"trading_enabled" yaml:"trading_enabled" default:"true"`
}

// ExecutionConfig controls order placement and settlement
type ExecutionConfig struct {
	PaperTrading         bool     `json:"paper_trading" yaml:"paper_trading" default:"true"`
	Instruments          []string `json:"instruments" yaml:"instruments" validate:"required,min=1,dive,oneof=binary digital"`
	Retries              int      `json:"retries" yaml:"retries" default:"3" validate:"min=1"`
	RetryIntervalSeconds int      `json:"retry_interval_seconds" yaml:"retry_interval_seconds" default:"5" validate:"min=1"`
	StuckRetrySeconds    int      `json:"stuck_retry_seconds" yaml:"stuck_retry_seconds" default:"30" validate:"min=1"`
}

// BrokerConfig selects where candles come from and where live orders go
type BrokerConfig struct {
	Data      string          `json:"data" yaml:"data" default:"oanda" validate:"oneof=oanda bridge csv dukascopy"`
	CSVDir    string          `json:"csv_dir,omitempty" yaml:"csv_dir,omitempty"`
	Oanda     OandaConfig     `json:"oanda" yaml:"oanda"`
	Bridge    BridgeConfig    `json:"bridge" yaml:"bridge"`
	Dukascopy DukascopyConfig `json:"dukascopy" yaml:"dukascopy"`
}

type OandaConfig struct {
	Env   string `json:"env" yaml:"env" default:"practice" validate:"oneof=practice demo live"`
	Token string `json:"token,omitempty" yaml:"token,omitempty"`
}

// DukascopyConfig points at the historical datafeed. Completed days only.
type DukascopyConfig struct {
	BaseURL  string `json:"base_url" yaml:"base_url" default:"https://datafeed.dukascopy.com/datafeed" validate:"omitempty,url"`
	CacheDir string `json:"cache_dir" yaml:"cache_dir" default:"./dukascopy"`
}

type BridgeConfig struct {
	URL   string `json:"url,omitempty" yaml:"url,omitempty" validate:"omitempty,url"`
	Token string `json:"token,omitempty" yaml:"token,omitempty"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type" default:"csv" validate:"oneof=csv sqlite none"` // "csv", "sqlite" or "none"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty" default:"./trades.csv"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty" default:"./binscan.db"`
}

type NotifyConfig struct {
	Log        bool           `json:"log" yaml:"log" default:"true"`
	WebhookURL string         `json:"webhook_url,omitempty" yaml:"webhook_url,omitempty" validate:"omitempty,url"`
	Telegram   TelegramConfig `json:"telegram" yaml:"telegram"`
	QueueSize  int            `json:"queue_size" yaml:"queue_size" default:"64" validate:"min=1"`
}

type TelegramConfig struct {
	Token  string `json:"token,omitempty" yaml:"token,omitempty"`
	ChatID int64  `json:"chat_id,omitempty" yaml:"chat_id,omitempty"`
}

// ControlConfig selects where operator commands are exchanged
type ControlConfig struct {
	Backend string      `json:"backend" yaml:"backend" default:"memory" validate:"oneof=memory redis"`
	Redis   RedisConfig `json:"redis" yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr" default:"localhost:6379"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int    `json:"db" yaml:"db" validate:"min=0"`
	Prefix   string `json:"prefix" yaml:"prefix" default:"binscan"`
}

type MetricsConfig struct {
	// Addr serves /metrics; empty disables the endpoint.
	Addr string `json:"addr" yaml:"addr" default:":9100"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `json:"format" yaml:"format" default:"json" validate:"oneof=json console"`
}

// LoadFromFile loads configuration from a file (YAML or JSON). Fields
// missing from the file keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = Default()
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", jerr)
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyEnv fills secrets that are commonly kept out of config files.
func (c *Config) applyEnv() {
	if c.Broker.Oanda.Token == "" {
		c.Broker.Oanda.Token = os.Getenv("OANDA_TOKEN")
	}
	if c.Notify.Telegram.Token == "" {
		c.Notify.Telegram.Token = os.Getenv("TELEGRAM_BOT_TOKEN")
	}
	if c.Control.Redis.Password == "" {
		c.Control.Redis.Password = os.Getenv("REDIS_PASSWORD")
	}
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	cfg.Scanner.AssetBasket = append([]string(nil), market.DefaultBasket...)
	cfg.Execution.Instruments = []string{"binary", "digital"}
	return cfg
}
