package cmd

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rustyeddy/binscan/broker"
	"github.com/rustyeddy/binscan/broker/bridge"
	"github.com/rustyeddy/binscan/broker/dukascopy"
	"github.com/rustyeddy/binscan/broker/oanda"
	"github.com/rustyeddy/binscan/broker/sim"
	"github.com/rustyeddy/binscan/config"
	"github.com/rustyeddy/binscan/control"
	"github.com/rustyeddy/binscan/journal"
	"github.com/rustyeddy/binscan/notify"
)

func openJournal(cfg *config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "csv":
		return journal.NewCSV(cfg.Journal.TradesFile)
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.DBPath)
	default:
		return journal.Nop{}, nil
	}
}

func openMarketData(cfg *config.Config) (broker.MarketData, error) {
	switch cfg.Broker.Data {
	case "oanda":
		return oanda.New(cfg.Broker.Oanda.Env, cfg.Broker.Oanda.Token)
	case "bridge":
		return bridge.New(cfg.Broker.Bridge.URL, cfg.Broker.Bridge.Token)
	case "csv":
		return sim.LoadCSVDir(cfg.Broker.CSVDir)
	case "dukascopy":
		return newDukascopy(cfg), nil
	default:
		return nil, fmt.Errorf("unknown data source %q", cfg.Broker.Data)
	}
}

func newDukascopy(cfg *config.Config) *dukascopy.Client {
	c := dukascopy.New(cfg.Broker.Dukascopy.CacheDir)
	if cfg.Broker.Dukascopy.BaseURL != "" {
		c.BaseURL = cfg.Broker.Dukascopy.BaseURL
	}
	return c
}

func openBroker(cfg *config.Config, md broker.MarketData) (broker.Broker, error) {
	if cfg.Execution.PaperTrading {
		ec := cfg.ExecutionConfig()
		return sim.NewPaper(md, sim.Config{
			Payout:      cfg.Account.Payout,
			Period:      cfg.CandlePeriod(),
			Instruments: ec.Instruments,
		}), nil
	}
	return bridge.New(cfg.Broker.Bridge.URL, cfg.Broker.Bridge.Token)
}

func openNotifier(cfg *config.Config, log *zap.Logger) (*notify.Dispatcher, error) {
	var sinks notify.Multi
	if cfg.Notify.Log {
		sinks = append(sinks, notify.NewLog(log))
	}
	if cfg.Notify.WebhookURL != "" {
		sinks = append(sinks, notify.NewWebhook(cfg.Notify.WebhookURL))
	}
	if cfg.Notify.Telegram.Token != "" {
		tg, err := notify.NewTelegram(cfg.Notify.Telegram.Token, cfg.Notify.Telegram.ChatID)
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		sinks = append(sinks, tg)
	}
	return notify.NewDispatcher(sinks, log, cfg.Notify.QueueSize), nil
}

func openControl(cfg *config.Config) (control.Store, error) {
	if cfg.Control.Backend == "redis" {
		r := cfg.Control.Redis
		return control.NewRedis(control.RedisConfig{
			Addr:     r.Addr,
			Password: r.Password,
			DB:       r.DB,
			Prefix:   r.Prefix,
		})
	}
	return control.NewMemory(), nil
}

// remoteControl opens the store a running scanner reads. A memory store
// lives inside one process, so commands from another process need redis.
func remoteControl() (control.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Control.Backend != "redis" {
		return nil, errors.New("control.backend is memory; set it to redis to reach a running scanner")
	}
	return openControl(cfg)
}

// reconnectors fans a reconnect out to every distinct client in use.
type reconnectors []broker.Reconnector

func collectReconnectors(vs ...any) reconnectors {
	var out reconnectors
	seen := map[any]bool{}
	for _, v := range vs {
		r, ok := v.(broker.Reconnector)
		if !ok || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, r)
	}
	return out
}

func (rs reconnectors) Reconnect(ctx context.Context) error {
	var errs []error
	for _, r := range rs {
		if err := r.Reconnect(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
