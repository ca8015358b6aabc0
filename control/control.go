// Package control carries operator commands to a running scanner: the
// kill-switch, session resets and manual reconciliation of stuck trades.
// The CLI writes to a Store and the scanner reads it at the start of every
// cycle.
package control

import (
	"context"
	"sync"
)

// Reconcile asks the scanner to settle a trade with a known profit.
type Reconcile struct {
	TradeID string  `json:"trade_id"`
	Profit  float64 `json:"profit"`
}

type Store interface {
	// TradingEnabled returns the operator's kill-switch position. ok is
	// false when the operator has never set it.
	TradingEnabled(ctx context.Context) (enabled, ok bool, err error)
	SetTradingEnabled(ctx context.Context, enabled bool) error

	RequestReset(ctx context.Context) error
	// ConsumeReset reports whether a reset was requested and clears the
	// request.
	ConsumeReset(ctx context.Context) (bool, error)

	RequestReconcile(ctx context.Context, r Reconcile) error
	// DrainReconciles returns queued reconcile requests oldest first and
	// removes them.
	DrainReconciles(ctx context.Context) ([]Reconcile, error)

	Close() error
}

// Memory is a Store for a single process.
type Memory struct {
	mu         sync.Mutex
	enabled    bool
	set        bool
	reset      bool
	reconciles []Reconcile
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) TradingEnabled(context.Context) (bool, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled, m.set, nil
}

func (m *Memory) SetTradingEnabled(_ context.Context, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled, m.set = enabled, true
	return nil
}

func (m *Memory) RequestReset(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset = true
	return nil
}

func (m *Memory) ConsumeReset(context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.reset
	m.reset = false
	return r, nil
}

func (m *Memory) RequestReconcile(_ context.Context, r Reconcile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconciles = append(m.reconciles, r)
	return nil
}

func (m *Memory) DrainReconciles(context.Context) ([]Reconcile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.reconciles
	m.reconciles = nil
	return out, nil
}

func (m *Memory) Close() error { return nil }
