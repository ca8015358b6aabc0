// Package execution places binary orders and settles them in the
// background.
//
// Open submits an order (falling back from Binary to Digital on rejection),
// records a PENDING trade in the ledger and schedules its settlement. A
// single settlement lane goroutine pulls due settlements in expiry order and
// queries the broker, so the scan loop never waits on an outcome. A trade
// whose outcome cannot be read after the configured retries is marked stuck,
// trading halts with SETTLEMENT_UNRESOLVED, and the lane keeps retrying it
// until it resolves or an operator calls Reconcile.
package execution

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/binscan/broker"
	"github.com/rustyeddy/binscan/ledger"
	"github.com/rustyeddy/binscan/metrics"
	"github.com/rustyeddy/binscan/notify"
	"github.com/rustyeddy/binscan/pkg/id"
	"github.com/rustyeddy/binscan/risk"
	"github.com/rustyeddy/binscan/signal"
)

var (
	// ErrOrderRejected means every instrument family refused the order.
	ErrOrderRejected = errors.New("order rejected")

	ErrClosed   = errors.New("execution manager closed")
	ErrNoSignal = errors.New("signal has no direction")
)

type Config struct {
	Duration           time.Duration
	SettleBuffer       time.Duration
	Retries            int
	RetryInterval      time.Duration
	StuckRetryInterval time.Duration
	// OutcomeGrace is how long past the first due time a broker may keep
	// answering ErrOutcomePending before those answers count as failed
	// attempts. Zero counts them at once.
	OutcomeGrace time.Duration
	// Instruments are tried in order until one accepts.
	Instruments []broker.InstrumentType
}

func DefaultConfig() Config {
	return Config{
		Duration:           60 * time.Second,
		SettleBuffer:       2 * time.Second,
		Retries:            3,
		RetryInterval:      5 * time.Second,
		StuckRetryInterval: 30 * time.Second,
		OutcomeGrace:       60 * time.Second,
		Instruments:        []broker.InstrumentType{broker.Binary, broker.Digital},
	}
}

// Alerter receives fire-and-forget notifications.
type Alerter interface {
	Notify(notify.Alert)
}

type nopAlerter struct{}

func (nopAlerter) Notify(notify.Alert) {}

type Option func(*Manager)

func WithLogger(l *zap.Logger) Option { return func(m *Manager) { m.log = l } }

func WithAlerter(a Alerter) Option { return func(m *Manager) { m.alert = a } }

func WithMetrics(r *metrics.Recorder) Option { return func(m *Manager) { m.metrics = r } }

type Manager struct {
	cfg     Config
	broker  broker.Broker
	ledger  *ledger.Ledger
	session *risk.Session
	alert   Alerter
	metrics *metrics.Recorder
	log     *zap.Logger
	now     func() time.Time

	mu      sync.Mutex
	queue   dueQueue
	seq     uint64
	closing bool

	wake   chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

// New starts the settlement lane. Call Close to stop it.
func New(b broker.Broker, l *ledger.Ledger, s *risk.Session, cfg Config, opts ...Option) *Manager {
	def := DefaultConfig()
	if cfg.Duration <= 0 {
		cfg.Duration = def.Duration
	}
	if cfg.SettleBuffer < 0 {
		cfg.SettleBuffer = 0
	}
	if cfg.Retries <= 0 {
		cfg.Retries = def.Retries
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = def.RetryInterval
	}
	if cfg.StuckRetryInterval <= 0 {
		cfg.StuckRetryInterval = def.StuckRetryInterval
	}
	if cfg.OutcomeGrace < 0 {
		cfg.OutcomeGrace = 0
	}
	if len(cfg.Instruments) == 0 {
		cfg.Instruments = def.Instruments
	}

	m := &Manager{
		cfg:     cfg,
		broker:  b,
		ledger:  l,
		session: s,
		alert:   nopAlerter{},
		log:     zap.NewNop(),
		now:     time.Now,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	for _, o := range opts {
		o(m)
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	go m.lane(ctx)
	return m
}

// Open places an order for sig and returns the PENDING trade.
func (m *Manager) Open(ctx context.Context, sig signal.Signal) (ledger.Trade, error) {
	if sig.Direction != signal.Call && sig.Direction != signal.Put {
		return ledger.Trade{}, fmt.Errorf("open %s: %w", sig.Asset, ErrNoSignal)
	}
	m.mu.Lock()
	closing := m.closing
	m.mu.Unlock()
	if closing {
		return ledger.Trade{}, ErrClosed
	}

	stake := m.session.Policy().Stake
	req := broker.OrderRequest{
		Asset:     sig.Asset,
		Direction: sig.Direction,
		Stake:     stake,
		Duration:  m.cfg.Duration,
		Price:     sig.Snapshot.Price,
	}

	var (
		ack     broker.OrderAck
		lastErr error
		placed  bool
	)
	for _, inst := range m.cfg.Instruments {
		req.Instrument = inst
		a, err := m.broker.PlaceOrder(ctx, req)
		if err == nil {
			ack, placed = a, true
			break
		}
		if errors.Is(err, broker.ErrConnectivity) || ctx.Err() != nil {
			return ledger.Trade{}, fmt.Errorf("open %s: %w", sig.Asset, err)
		}
		lastErr = err
		m.metrics.OrderRejected()
		m.log.Warn("order rejected",
			zap.String("asset", sig.Asset),
			zap.String("instrument", string(inst)),
			zap.Error(err))
	}
	if !placed {
		return ledger.Trade{}, fmt.Errorf("open %s: %w: %w", sig.Asset, ErrOrderRejected, lastErr)
	}

	opened := ack.OpenedAt
	if opened.IsZero() {
		opened = m.now().UTC()
	}
	t := ledger.Trade{
		ID:         id.New(),
		Asset:      sig.Asset,
		Direction:  sig.Direction,
		Stake:      stake,
		Instrument: ack.Instrument,
		OrderID:    ack.OrderID,
		EntryPrice: sig.Snapshot.Price,
		OpenedAt:   opened,
		Expiry:     opened.Add(m.cfg.Duration),
		Status:     ledger.Pending,
		Snapshot:   sig.Snapshot,
	}
	if t.Instrument == "" {
		t.Instrument = req.Instrument
	}
	if err := m.ledger.Track(t); err != nil {
		return ledger.Trade{}, fmt.Errorf("open %s: %w", sig.Asset, err)
	}
	m.enqueue(&settlement{
		tradeID:    t.ID,
		orderID:    t.OrderID,
		asset:      t.Asset,
		instrument: t.Instrument,
		due:        t.Expiry.Add(m.cfg.SettleBuffer),
		graceEnd:   t.Expiry.Add(m.cfg.SettleBuffer + m.cfg.OutcomeGrace),
	})

	m.metrics.TradeOpened(string(t.Instrument))
	m.log.Info("trade opened",
		zap.String("trade_id", t.ID),
		zap.String("asset", t.Asset),
		zap.String("direction", string(t.Direction)),
		zap.String("instrument", string(t.Instrument)),
		zap.Float64("stake", t.Stake),
		zap.Float64("entry_price", t.EntryPrice),
		zap.Time("expiry", t.Expiry))
	m.alert.Notify(notify.Alertf(notify.Info, "Trade opened",
		"%s %s %.2f @ %.5f (%s)", t.Direction, t.Asset, t.Stake, t.EntryPrice, t.Instrument))
	return t, nil
}

// Reconcile settles a pending trade with an operator-supplied profit and
// removes it from the settlement lane.
func (m *Manager) Reconcile(tradeID string, profit float64) (ledger.Trade, error) {
	t, err := m.ledger.Settle(tradeID, profit, m.now().UTC())
	if err != nil {
		return ledger.Trade{}, fmt.Errorf("reconcile: %w", err)
	}

	m.mu.Lock()
	m.queue.remove(tradeID)
	m.mu.Unlock()
	m.signal()

	m.log.Info("trade reconciled",
		zap.String("trade_id", t.ID),
		zap.String("status", string(t.Status)),
		zap.Float64("profit", t.Profit))
	m.settled(t)
	return t, nil
}

// Pending is the number of settlements still queued.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.Len()
}

// Close stops accepting orders and waits for queued settlements to finish.
// Trades already stuck do not hold up shutdown. If ctx ends first the lane
// is stopped and ctx's error returned.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	m.closing = true
	m.mu.Unlock()
	m.signal()

	select {
	case <-m.done:
		return nil
	case <-ctx.Done():
		m.cancel()
		<-m.done
		if n := m.Pending(); n > 0 {
			m.log.Warn("settlement lane stopped with trades unsettled", zap.Int("pending", n))
		}
		return ctx.Err()
	}
}

func (m *Manager) enqueue(s *settlement) {
	m.mu.Lock()
	m.seq++
	s.seq = m.seq
	heap.Push(&m.queue, s)
	m.mu.Unlock()
	m.signal()
}

func (m *Manager) signal() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *Manager) lane(ctx context.Context) {
	defer close(m.done)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		m.mu.Lock()
		if m.closing && m.queue.onlyStuck() {
			m.mu.Unlock()
			return
		}
		next := m.queue.peek()
		var wait time.Duration
		if next != nil {
			wait = next.due.Sub(m.now())
			if wait <= 0 {
				heap.Pop(&m.queue)
			}
		}
		m.mu.Unlock()

		switch {
		case next != nil && wait <= 0:
			m.attempt(ctx, next)
			continue
		case next != nil:
			timer.Reset(wait)
		}

		select {
		case <-ctx.Done():
			return
		case <-m.wake:
		case <-timer.C:
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
	}
}

func (m *Manager) attempt(ctx context.Context, s *settlement) {
	out, err := m.broker.QueryOutcome(ctx, s.instrument, s.orderID)
	if err == nil {
		at := out.SettledAt
		if at.IsZero() {
			at = m.now().UTC()
		}
		t, serr := m.ledger.Settle(s.tradeID, out.Profit, at)
		if serr != nil {
			// already reconciled by an operator
			m.log.Info("settlement skipped", zap.String("trade_id", s.tradeID), zap.Error(serr))
			m.refreshHalt()
			return
		}
		m.log.Info("trade settled",
			zap.String("trade_id", t.ID),
			zap.String("asset", t.Asset),
			zap.String("status", string(t.Status)),
			zap.Float64("profit", t.Profit),
			zap.Int("attempts", s.attempts+1))
		m.settled(t)
		return
	}
	if ctx.Err() != nil {
		return
	}
	if !m.stillPending(s.tradeID) {
		m.drop(s)
		return
	}

	fields := []zap.Field{
		zap.String("trade_id", s.tradeID),
		zap.String("asset", s.asset),
		zap.Error(err),
	}

	switch {
	case s.stuck:
		s.attempts++
		m.log.Debug("stuck trade still unresolved", append(fields, zap.Int("attempts", s.attempts))...)
		s.due = m.now().Add(m.cfg.StuckRetryInterval)
	case errors.Is(err, broker.ErrOutcomePending) && m.now().Before(s.graceEnd):
		m.log.Debug("outcome not settled yet", fields...)
		s.due = m.now().Add(m.cfg.RetryInterval)
	case s.attempts+1 < m.cfg.Retries:
		s.attempts++
		m.log.Debug("outcome not available, retrying", append(fields, zap.Int("attempts", s.attempts))...)
		s.due = m.now().Add(m.cfg.RetryInterval)
	default:
		s.attempts++
		s.stuck = true
		s.due = m.now().Add(m.cfg.StuckRetryInterval)
		m.log.Error("settlement unresolved", append(fields, zap.Int("attempts", s.attempts))...)
		msg := fmt.Sprintf("trade %s (%s) outcome unknown after %d attempts", s.tradeID, s.asset, s.attempts)
		if m.session.Halt(risk.HaltSettlementUnresolved, msg) {
			m.alert.Notify(notify.Alert{Level: notify.Critical, Title: "Trading halted", Message: msg})
		}
		if merr := m.ledger.MarkStuck(s.tradeID, true); merr != nil {
			m.log.Warn("mark stuck", zap.String("trade_id", s.tradeID), zap.Error(merr))
		}
		m.publishBook()
	}

	// Reconcile settles the ledger before it takes mu to dequeue.
	m.mu.Lock()
	requeue := m.stillPending(s.tradeID)
	if requeue {
		m.seq++
		s.seq = m.seq
		heap.Push(&m.queue, s)
	}
	m.mu.Unlock()
	if !requeue {
		m.drop(s)
	}
}

func (m *Manager) stillPending(tradeID string) bool {
	t, ok := m.ledger.Get(tradeID)
	return ok && t.Status == ledger.Pending
}

// drop forgets a settlement whose trade was settled elsewhere.
func (m *Manager) drop(s *settlement) {
	m.log.Info("settlement dropped, trade no longer pending", zap.String("trade_id", s.tradeID))
	m.refreshHalt()
	m.publishBook()
}

func (m *Manager) settled(t ledger.Trade) {
	m.metrics.TradeSettled(string(t.Status))
	m.refreshHalt()
	m.publishBook()
	m.alert.Notify(notify.Alertf(notify.Info, "Trade settled",
		"%s %s %s %+.2f (day %+.2f)", t.Status, t.Direction, t.Asset, t.Profit, m.ledger.DailyPnL()))
}

func (m *Manager) refreshHalt() {
	if len(m.ledger.Stuck()) > 0 {
		return
	}
	if m.session.ClearHalt(risk.HaltSettlementUnresolved) {
		m.log.Info("settlement halt cleared")
		m.alert.Notify(notify.Alert{Level: notify.Warning, Title: "Halt cleared", Message: "all trades settled"})
	}
}

func (m *Manager) publishBook() {
	st := m.ledger.Stats()
	m.metrics.Book(m.ledger.DailyPnL(), st.Pending, st.Stuck)
}
