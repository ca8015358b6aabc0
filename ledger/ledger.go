// Package ledger records pending and settled trades and owns the daily P&L.
package ledger

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rustyeddy/binscan/journal"
	"go.uber.org/zap"
)

var (
	ErrDuplicateTrade = errors.New("duplicate trade id")
	ErrTradeNotFound  = errors.New("trade not found")
	ErrAlreadySettled = errors.New("trade already settled")
	ErrInvalidStatus  = errors.New("invalid trade status")
)

// Stats summarizes the ledger since the last reset.
type Stats struct {
	Trades  int
	Wins    int
	Losses  int
	Pending int
	Stuck   int
	PnL     float64
}

func (s Stats) WinRate() float64 {
	if s.Trades == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Trades)
}

// Ledger is safe for concurrent use. Settled trades are written through to
// the journal; a journal failure is logged and never drops the in-memory
// record.
type Ledger struct {
	mu sync.RWMutex

	pending map[string]*Trade
	settled []Trade
	// every id ever settled, kept across Reset
	seen map[string]struct{}

	pnl   float64
	total float64

	journal journal.Journal
	log     *zap.Logger
}

func New(j journal.Journal, log *zap.Logger) *Ledger {
	if j == nil {
		j = journal.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{
		pending: make(map[string]*Trade),
		seen:    make(map[string]struct{}),
		journal: j,
		log:     log,
	}
}

// Track registers a newly placed PENDING trade.
func (l *Ledger) Track(t Trade) error {
	if t.Status != Pending {
		return fmt.Errorf("track %s: %w: %s", t.ID, ErrInvalidStatus, t.Status)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.pending[t.ID]; ok {
		return fmt.Errorf("track: %w: %q", ErrDuplicateTrade, t.ID)
	}
	if _, ok := l.seen[t.ID]; ok {
		return fmt.Errorf("track: %w: %q", ErrDuplicateTrade, t.ID)
	}
	tc := t
	l.pending[t.ID] = &tc
	return nil
}

// Settle moves a pending trade to WIN or LOSS. Settling the same id twice
// returns ErrAlreadySettled and leaves P&L unchanged.
func (l *Ledger) Settle(id string, profit float64, at time.Time) (Trade, error) {
	l.mu.Lock()
	p, ok := l.pending[id]
	if !ok {
		_, done := l.seen[id]
		l.mu.Unlock()
		if done {
			return Trade{}, fmt.Errorf("settle: %w: %q", ErrAlreadySettled, id)
		}
		return Trade{}, fmt.Errorf("settle: %w: %q", ErrTradeNotFound, id)
	}

	t := *p
	t.Status = OutcomeStatus(profit)
	t.Profit = profit
	t.SettledAt = at
	t.Stuck = false
	l.appendLocked(t)
	l.mu.Unlock()

	l.write(t)
	return t, nil
}

// Append records an already settled trade. The status must agree with the
// profit. It reports false without error when the id was recorded before.
func (l *Ledger) Append(t Trade) (bool, error) {
	if t.Status != Win && t.Status != Loss {
		return false, fmt.Errorf("append %s: %w: %s", t.ID, ErrInvalidStatus, t.Status)
	}
	if want := OutcomeStatus(t.Profit); t.Status != want {
		return false, fmt.Errorf("append %s: %w: %s with profit %+.2f", t.ID, ErrInvalidStatus, t.Status, t.Profit)
	}

	l.mu.Lock()
	if _, ok := l.seen[t.ID]; ok {
		l.mu.Unlock()
		return false, nil
	}
	l.appendLocked(t)
	l.mu.Unlock()

	l.write(t)
	return true, nil
}

func (l *Ledger) appendLocked(t Trade) {
	delete(l.pending, t.ID)
	l.seen[t.ID] = struct{}{}
	l.settled = append(l.settled, t)
	l.pnl += t.Profit
	l.total += t.Profit
}

func (l *Ledger) write(t Trade) {
	if err := l.journal.RecordTrade(t.Record()); err != nil {
		l.log.Error("journal write failed",
			zap.String("trade_id", t.ID),
			zap.Error(err))
	}
}

// MarkStuck flags or clears a pending trade whose outcome could not be read.
func (l *Ledger) MarkStuck(id string, stuck bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.pending[id]
	if !ok {
		return fmt.Errorf("mark stuck: %w: %q", ErrTradeNotFound, id)
	}
	p.Stuck = stuck
	return nil
}

// DailyPnL is the sum of settled profits since the last Reset.
func (l *Ledger) DailyPnL() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.pnl
}

// TotalPnL is the sum of settled profits since the ledger was created.
func (l *Ledger) TotalPnL() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.total
}

// Reset clears settled trades and daily P&L. Pending trades are kept and
// settle into the new session.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.settled = nil
	l.pnl = 0
}

// Get returns a trade by id, pending or settled since the last reset.
func (l *Ledger) Get(id string) (Trade, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if p, ok := l.pending[id]; ok {
		return *p, true
	}
	for _, t := range l.settled {
		if t.ID == id {
			return t, true
		}
	}
	return Trade{}, false
}

// Trades returns settled trades in settlement order.
func (l *Ledger) Trades() []Trade {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Trade, len(l.settled))
	copy(out, l.settled)
	return out
}

// Pending returns pending trades ordered by expiry.
func (l *Ledger) Pending() []Trade {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.pendingLocked(false)
}

// Stuck returns pending trades flagged as stuck.
func (l *Ledger) Stuck() []Trade {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.pendingLocked(true)
}

func (l *Ledger) pendingLocked(onlyStuck bool) []Trade {
	out := make([]Trade, 0, len(l.pending))
	for _, p := range l.pending {
		if onlyStuck && !p.Stuck {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Expiry.Equal(out[j].Expiry) {
			return out[i].ID < out[j].ID
		}
		return out[i].Expiry.Before(out[j].Expiry)
	})
	return out
}

func (l *Ledger) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := Stats{Trades: len(l.settled), Pending: len(l.pending), PnL: l.pnl}
	for _, t := range l.settled {
		if t.Status == Win {
			s.Wins++
		} else {
			s.Losses++
		}
	}
	for _, p := range l.pending {
		if p.Stuck {
			s.Stuck++
		}
	}
	return s
}
