package config

import (
	"time"

	"github.com/rustyeddy/binscan/broker"
	"github.com/rustyeddy/binscan/execution"
	"github.com/rustyeddy/binscan/indicators"
	"github.com/rustyeddy/binscan/market"
	"github.com/rustyeddy/binscan/risk"
	"github.com/rustyeddy/binscan/signal"
)

func (c *Config) IndicatorParams() indicators.Params {
	s := c.Strategy
	return indicators.Params{
		BBPeriod:         s.BBPeriod,
		BBK:              s.BBK,
		RSIPeriod:        s.RSIPeriod,
		RSIDisplayPeriod: s.RSIDisplayPeriod,
		ADXPeriod:        s.ADXPeriod,
		ATRPeriod:        s.ATRPeriod,
		EMAPeriod:        s.EMAPeriod,
		StochK:           s.StochK,
		StochSmooth:      s.StochSmooth,
		StochD:           s.StochD,
		MACDFast:         s.MACDFast,
		MACDSlow:         s.MACDSlow,
		MACDSignal:       s.MACDSignal,
	}
}

func (c *Config) Thresholds() signal.Thresholds {
	s := c.Strategy
	return signal.Thresholds{
		RSIBuy:           s.RSIBuy,
		RSISell:          s.RSISell,
		ADXLow:           s.ADXLow,
		ADXHigh:          s.ADXHigh,
		StochLow:         s.StochLow,
		StochHigh:        s.StochHigh,
		StochasticFilter: s.StochasticFilter,
		TrendFilter:      s.TrendFilter,
	}
}

func (c *Config) Policy() risk.Policy {
	return risk.Policy{
		Stake:          c.Account.Stake,
		TargetProfit:   c.Risk.TargetProfit,
		StopLoss:       c.Risk.StopLoss,
		StrengthFilter: c.Risk.StrengthFilter,
	}
}

func (c *Config) ExecutionConfig() execution.Config {
	inst := make([]broker.InstrumentType, 0, len(c.Execution.Instruments))
	for _, s := range c.Execution.Instruments {
		inst = append(inst, broker.InstrumentType(s))
	}
	return execution.Config{
		Duration:           seconds(c.Scanner.TradeDurationSeconds),
		SettleBuffer:       seconds(c.Scanner.SettleBufferSeconds),
		Retries:            c.Execution.Retries,
		RetryInterval:      seconds(c.Execution.RetryIntervalSeconds),
		StuckRetryInterval: seconds(c.Execution.StuckRetrySeconds),
		OutcomeGrace:       c.CandlePeriod(),
		Instruments:        inst,
	}
}

// Basket returns the configured assets in canonical form.
func (c *Config) Basket() []string {
	out := make([]string, 0, len(c.Scanner.AssetBasket))
	for _, a := range c.Scanner.AssetBasket {
		out = append(out, market.CanonicalAsset(a))
	}
	return out
}

func (c *Config) ScanInterval() time.Duration { return seconds(c.Scanner.ScanIntervalSeconds) }

func (c *Config) CandlePeriod() time.Duration { return seconds(c.Scanner.CandlePeriodSeconds) }

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }
