// Package sim provides a paper broker and in-memory market data so the
// scanner can run end to end without a venue.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rustyeddy/binscan/broker"
	"github.com/rustyeddy/binscan/market"
	"github.com/rustyeddy/binscan/pkg/id"
	"github.com/rustyeddy/binscan/signal"
)

var ErrInvalidOrder = errors.New("invalid order")

// Config controls the paper broker.
type Config struct {
	// Payout is the profit ratio on a winning stake (0.8 pays 80%).
	Payout float64
	// Period is the bar length used to look up the exit price.
	Period time.Duration
	// Instruments accepted for placement. Empty means all.
	Instruments []broker.InstrumentType
}

type order struct {
	ack       broker.OrderAck
	req       broker.OrderRequest
	settled   bool
	outcome   broker.Outcome
	exitPrice float64
}

// Paper accepts every valid order and settles it against market data: the
// exit price is the close of the last bar completed by expiry.
type Paper struct {
	mu      sync.Mutex
	data    broker.MarketData
	cfg     Config
	enabled map[broker.InstrumentType]bool
	orders  map[string]*order
	now     func() time.Time
}

func NewPaper(md broker.MarketData, cfg Config) *Paper {
	if cfg.Payout <= 0 {
		cfg.Payout = 0.8
	}
	if cfg.Period <= 0 {
		cfg.Period = time.Minute
	}
	p := &Paper{
		data:   md,
		cfg:    cfg,
		orders: make(map[string]*order),
		now:    time.Now,
	}
	p.SetInstruments(cfg.Instruments...)
	return p
}

// SetInstruments replaces the accepted instrument families.
func (p *Paper) SetInstruments(types ...broker.InstrumentType) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(types) == 0 {
		p.enabled = nil
		return
	}
	p.enabled = make(map[broker.InstrumentType]bool, len(types))
	for _, t := range types {
		p.enabled[t] = true
	}
}

func (p *Paper) PlaceOrder(ctx context.Context, req broker.OrderRequest) (broker.OrderAck, error) {
	if req.Stake <= 0 || req.Duration <= 0 || req.Price <= 0 {
		return broker.OrderAck{}, fmt.Errorf("%w: %w: stake %.2f duration %s price %.5f",
			broker.ErrRejected, ErrInvalidOrder, req.Stake, req.Duration, req.Price)
	}
	if req.Direction != signal.Call && req.Direction != signal.Put {
		return broker.OrderAck{}, fmt.Errorf("%w: %w: direction %q", broker.ErrRejected, ErrInvalidOrder, req.Direction)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.enabled != nil && !p.enabled[req.Instrument] {
		return broker.OrderAck{}, fmt.Errorf("%w: %s not available for %s", broker.ErrRejected, req.Instrument, req.Asset)
	}

	now := p.now().UTC()
	ack := broker.OrderAck{
		OrderID:    id.New(),
		Asset:      market.CanonicalAsset(req.Asset),
		Instrument: req.Instrument,
		OpenedAt:   now,
		Expiry:     now.Add(req.Duration),
	}
	p.orders[ack.OrderID] = &order{ack: ack, req: req}
	return ack, nil
}

func (p *Paper) QueryOutcome(ctx context.Context, instrument broker.InstrumentType, orderID string) (broker.Outcome, error) {
	p.mu.Lock()
	o, ok := p.orders[orderID]
	if !ok || o.ack.Instrument != instrument {
		p.mu.Unlock()
		return broker.Outcome{}, fmt.Errorf("%w: %s %s", broker.ErrUnknownOrder, instrument, orderID)
	}
	if o.settled {
		out := o.outcome
		p.mu.Unlock()
		return out, nil
	}
	ack, req := o.ack, o.req
	now := p.now().UTC()
	p.mu.Unlock()

	if now.Before(ack.Expiry) {
		return broker.Outcome{}, broker.ErrOutcomePending
	}

	exit, err := p.exitPrice(ctx, ack.Asset, ack.Expiry, now)
	if err != nil {
		return broker.Outcome{}, err
	}

	out := broker.Outcome{
		OrderID:   orderID,
		Profit:    Profit(req.Direction, req.Price, exit, req.Stake, p.cfg.Payout),
		SettledAt: now,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if o.settled {
		return o.outcome, nil
	}
	o.settled, o.outcome, o.exitPrice = true, out, exit
	return out, nil
}

// Reconnect is a no-op; the paper broker is always reachable.
func (p *Paper) Reconnect(context.Context) error { return nil }

// exitPrice returns the close of the last bar that closed at or before
// expiry. The outcome stays pending until that bar is the one ending in the
// final period before expiry, or the feed has moved past expiry.
func (p *Paper) exitPrice(ctx context.Context, asset string, expiry, now time.Time) (float64, error) {
	bars, err := p.data.Candles(ctx, asset, p.cfg.Period, 0, now)
	if err != nil {
		if errors.Is(err, market.ErrNoData) {
			return 0, broker.ErrOutcomePending
		}
		return 0, err
	}

	exit, past := -1, false
	for i, b := range bars {
		if b.Time.Add(p.cfg.Period).After(expiry) {
			past = true
			break
		}
		exit = i
	}
	if exit < 0 {
		return 0, broker.ErrOutcomePending
	}
	last := bars[exit]
	if past || last.Time.Add(p.cfg.Period).After(expiry.Add(-p.cfg.Period)) {
		return last.Close, nil
	}
	return 0, broker.ErrOutcomePending
}

// Profit is the payoff of a binary option: stake*payout when the exit moves
// in the predicted direction, zero when it does not move, and -stake
// otherwise.
func Profit(dir signal.Direction, entry, exit, stake, payout float64) float64 {
	switch {
	case exit == entry:
		return 0
	case dir == signal.Call && exit > entry, dir == signal.Put && exit < entry:
		return stake * payout
	default:
		return -stake
	}
}
