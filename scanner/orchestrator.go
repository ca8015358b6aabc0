// Package scanner runs the fixed-interval scan loop: fetch every asset in
// the basket, compute indicators, classify, gate, and hand firing signals to
// execution. Settlement runs elsewhere, so a cycle never waits on an
// outcome.
package scanner

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/binscan/broker"
	"github.com/rustyeddy/binscan/control"
	"github.com/rustyeddy/binscan/indicators"
	"github.com/rustyeddy/binscan/ledger"
	"github.com/rustyeddy/binscan/market"
	"github.com/rustyeddy/binscan/metrics"
	"github.com/rustyeddy/binscan/notify"
	"github.com/rustyeddy/binscan/risk"
	"github.com/rustyeddy/binscan/signal"
)

// Fetcher returns the closed-bar series for an asset as of a time.
type Fetcher interface {
	Fetch(ctx context.Context, asset string, asOf time.Time) ([]market.Candle, error)
}

// Analyzer turns a series into an indicator snapshot.
type Analyzer interface {
	Compute(asset string, series []market.Candle) (indicators.Snapshot, error)
}

// Executor places trades and settles stuck ones on operator request.
type Executor interface {
	Open(ctx context.Context, sig signal.Signal) (ledger.Trade, error)
	Reconcile(tradeID string, profit float64) (ledger.Trade, error)
}

type Alerter interface {
	Notify(notify.Alert)
}

type Config struct {
	Basket            []string
	Interval          time.Duration
	Thresholds        signal.Thresholds
	StrengthThreshold float64
	StrengthLookback  int
}

// Deps are the collaborators of an Orchestrator. Control, Reconnector,
// Alerter, Metrics, Logger and OnReport are optional.
type Deps struct {
	Feed        Fetcher
	Engine      Analyzer
	Gate        *risk.Gate
	Executor    Executor
	Ledger      *ledger.Ledger
	Control     control.Store
	Reconnector broker.Reconnector
	Alerter     Alerter
	Metrics     *metrics.Recorder
	Logger      *zap.Logger
	OnReport    func(CycleReport)
}

type Orchestrator struct {
	cfg Config
	Deps
	now func() time.Time
}

func New(cfg Config, d Deps) (*Orchestrator, error) {
	switch {
	case d.Feed == nil:
		return nil, errors.New("scanner: feed is required")
	case d.Engine == nil:
		return nil, errors.New("scanner: indicator engine is required")
	case d.Gate == nil:
		return nil, errors.New("scanner: risk gate is required")
	case d.Executor == nil:
		return nil, errors.New("scanner: executor is required")
	case d.Ledger == nil:
		return nil, errors.New("scanner: ledger is required")
	}
	if len(cfg.Basket) == 0 {
		cfg.Basket = market.DefaultBasket
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.StrengthThreshold <= 0 {
		cfg.StrengthThreshold = signal.DefaultStrengthThreshold
	}
	if cfg.StrengthLookback <= 0 {
		cfg.StrengthLookback = 20
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Alerter == nil {
		d.Alerter = nopAlerter{}
	}
	return &Orchestrator{cfg: cfg, Deps: d, now: time.Now}, nil
}

type nopAlerter struct{}

func (nopAlerter) Notify(notify.Alert) {}

// Run scans immediately and then every Interval until ctx ends.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.Logger.Info("scanner started",
		zap.Strings("basket", o.cfg.Basket),
		zap.Duration("interval", o.cfg.Interval))

	ticker := time.NewTicker(o.cfg.Interval)
	defer ticker.Stop()

	for {
		o.runCycle(ctx)
		select {
		case <-ctx.Done():
			o.Logger.Info("scanner stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func (o *Orchestrator) runCycle(ctx context.Context) {
	r := o.Cycle(ctx)
	if o.OnReport != nil {
		o.OnReport(r)
	}
}

// Cycle runs one pass over the basket.
func (o *Orchestrator) Cycle(ctx context.Context) CycleReport {
	start := o.now()
	o.Metrics.CycleStarted()
	r := CycleReport{Started: start}
	defer func() {
		o.Metrics.CycleFinished(time.Since(start).Seconds())
	}()

	o.applyControl(ctx)

	session := o.Gate.Session()
	o.Metrics.TradingEnabled(session.Enabled())
	if !session.Enabled() {
		r.Skipped = true
		r.SkipReason = session.DisabledReason()
		r.Finished = o.now()
		o.finish(&r)
		o.Logger.Info("cycle skipped", zap.String("reason", r.SkipReason))
		return r
	}

	c := &cycle{o: o, report: &r}
	series := c.fetchAll(ctx)

	if session.Policy().StrengthFilter {
		r.Strength = signal.MeasureStrength(series, o.cfg.StrengthLookback)
	}

	for _, asset := range o.cfg.Basket {
		res := c.results[asset]
		if res.State == Scanning {
			res = c.decide(ctx, asset, series[asset])
		}
		o.Metrics.AssetResult(string(res.State))
		o.logResult(res)
		r.Results = append(r.Results, res)
	}

	r.Finished = o.now()
	o.finish(&r)
	o.Logger.Info("cycle finished",
		zap.Int("assets", len(r.Results)),
		zap.Int("trades", r.TradesOpened),
		zap.Float64("daily_pnl", r.DailyPnL),
		zap.Duration("took", r.Finished.Sub(r.Started)))
	return r
}

func (o *Orchestrator) finish(r *CycleReport) {
	r.DailyPnL = o.Ledger.DailyPnL()
	r.TotalProfit = o.Ledger.TotalPnL()
	st := o.Ledger.Stats()
	o.Metrics.Book(r.DailyPnL, st.Pending, st.Stuck)
}

func (o *Orchestrator) logResult(res AssetResult) {
	fields := []zap.Field{
		zap.String("asset", res.Asset),
		zap.String("state", string(res.State)),
		zap.String("direction", string(res.Direction)),
	}
	if res.Snapshot.Bars > 0 {
		fields = append(fields,
			zap.Float64("price", res.Snapshot.Price),
			zap.Float64("rsi", res.Snapshot.RSI),
			zap.Float64("adx", res.Snapshot.ADX),
			zap.Float64("stoch_k", res.Snapshot.StochK))
	}
	if res.Reason != "" {
		fields = append(fields, zap.String("reason", res.Reason))
	}
	if res.TradeID != "" {
		fields = append(fields, zap.String("trade_id", res.TradeID))
	}
	o.Logger.Info("asset scanned", fields...)
}

// applyControl applies operator commands queued since the last cycle.
func (o *Orchestrator) applyControl(ctx context.Context) {
	if o.Control == nil {
		return
	}
	session := o.Gate.Session()

	enabled, ok, err := o.Control.TradingEnabled(ctx)
	switch {
	case err != nil:
		o.Logger.Warn("read kill-switch", zap.Error(err))
	case ok && enabled && !session.Enabled():
		session.Enable()
		o.Logger.Info("trading enabled by operator")
		o.Alerter.Notify(notify.Alert{Level: notify.Info, Title: "Trading enabled", Message: "kill-switch on"})
	case ok && !enabled && session.Enabled():
		session.Disable(risk.CodeTradingDisabled + ": operator kill-switch")
		o.Logger.Info("trading disabled by operator")
		o.Alerter.Notify(notify.Alert{Level: notify.Warning, Title: "Trading disabled", Message: "kill-switch off"})
	}

	reset, err := o.Control.ConsumeReset(ctx)
	if err != nil {
		o.Logger.Warn("read reset request", zap.Error(err))
	} else if reset {
		before := o.Ledger.DailyPnL()
		o.Ledger.Reset()
		o.Logger.Info("session reset", zap.Float64("previous_pnl", before))
		o.Alerter.Notify(notify.Alertf(notify.Info, "Session reset", "daily pnl %+.2f cleared", before))
	}

	recs, err := o.Control.DrainReconciles(ctx)
	if err != nil {
		o.Logger.Warn("read reconcile requests", zap.Error(err))
	}
	for _, rq := range recs {
		if _, err := o.Executor.Reconcile(rq.TradeID, rq.Profit); err != nil {
			o.Logger.Warn("reconcile", zap.String("trade_id", rq.TradeID), zap.Error(err))
		}
	}
}

// syncKillSwitchOff records a forced disable in the control store so the
// next control read does not turn trading back on.
func (o *Orchestrator) syncKillSwitchOff(ctx context.Context) {
	if o.Control == nil {
		return
	}
	if err := o.Control.SetTradingEnabled(ctx, false); err != nil {
		o.Logger.Warn("write kill-switch", zap.Error(err))
	}
}

// cycle holds per-cycle state.
type cycle struct {
	o           *Orchestrator
	report      *CycleReport
	results     map[string]AssetResult
	reconnected bool
	lost        bool
}

func (c *cycle) fetchAll(ctx context.Context) map[string][]market.Candle {
	o := c.o
	asOf := o.now()
	series := make(map[string][]market.Candle, len(o.cfg.Basket))
	c.results = make(map[string]AssetResult, len(o.cfg.Basket))

	for _, asset := range o.cfg.Basket {
		res := AssetResult{Asset: asset, State: Scanning, Direction: signal.None}
		if c.lost {
			res.State, res.Reason = Error, risk.HaltConnectivityLost
			c.results[asset] = res
			continue
		}

		var s []market.Candle
		err := c.withReconnect(ctx, func() error {
			var ferr error
			s, ferr = o.Feed.Fetch(ctx, asset, asOf)
			return ferr
		})
		switch {
		case err == nil:
			series[asset] = s
		case errors.Is(err, broker.ErrConnectivity):
			res.State, res.Reason = Error, err.Error()
		default:
			res.State, res.Reason = NoData, err.Error()
		}
		c.results[asset] = res
	}
	return series
}

func (c *cycle) decide(ctx context.Context, asset string, series []market.Candle) AssetResult {
	o := c.o
	res := AssetResult{Asset: asset, State: Scanning, Direction: signal.None}

	snap, err := o.Engine.Compute(asset, series)
	if err != nil {
		res.State, res.Reason = NoData, err.Error()
		return res
	}
	res.Snapshot = snap

	dir := signal.Classify(snap, o.cfg.Thresholds)
	res.Direction = dir
	if dir == signal.None {
		res.State = NoSignal
		return res
	}
	o.Metrics.Signal(string(dir))

	var veto signal.VetoResult
	if c.report.Strength != nil {
		veto = c.report.Strength.Veto(asset, dir, o.cfg.StrengthThreshold)
	}

	d := o.Gate.Check(o.now(), veto)
	if !d.Allowed {
		res.State, res.Reason = SignalBlocked, d.Reason()
		if d.Disabled {
			o.syncKillSwitchOff(ctx)
			o.Metrics.TradingEnabled(false)
			o.Logger.Warn("trading disabled", zap.String("reason", d.Reason()))
			o.Alerter.Notify(notify.Alert{Level: notify.Warning, Title: "Trading disabled", Message: d.Reason()})
		}
		return res
	}

	sig := signal.Signal{Asset: asset, Direction: dir, Snapshot: snap, GeneratedAt: o.now()}
	var t ledger.Trade
	err = c.withReconnect(ctx, func() error {
		var oerr error
		t, oerr = o.Executor.Open(ctx, sig)
		return oerr
	})
	if err != nil {
		res.State, res.Reason = Error, err.Error()
		return res
	}

	res.State, res.TradeID = SignalExecuted, t.ID
	c.report.TradesOpened++
	return res
}

// withReconnect runs fn and, on a connectivity failure, reconnects once per
// cycle and retries fn once. A second failure raises CONNECTIVITY_LOST and
// forces the kill-switch off.
func (c *cycle) withReconnect(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil || !errors.Is(err, broker.ErrConnectivity) {
		return err
	}
	if c.lost {
		return err
	}

	o := c.o
	if !c.reconnected && o.Reconnector != nil {
		c.reconnected = true
		o.Logger.Warn("connectivity lost, reconnecting", zap.Error(err))
		if rerr := o.Reconnector.Reconnect(ctx); rerr != nil {
			o.Logger.Error("reconnect failed", zap.Error(rerr))
		} else if err = fn(); err == nil || !errors.Is(err, broker.ErrConnectivity) {
			return err
		}
	}

	c.lost = true
	session := o.Gate.Session()
	msg := err.Error()
	session.Halt(risk.HaltConnectivityLost, msg)
	session.Disable(risk.HaltConnectivityLost + ": " + msg)
	o.syncKillSwitchOff(ctx)
	o.Metrics.TradingEnabled(false)
	o.Logger.Error("connectivity lost, trading disabled", zap.Error(err))
	o.Alerter.Notify(notify.Alertf(notify.Critical, "Connectivity lost",
		"broker unreachable after reconnect; trading disabled until re-enabled: %s", msg))
	return err
}
