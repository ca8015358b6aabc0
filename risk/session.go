package risk

import (
	"sort"
	"sync"
)

// Halt codes block new placements until cleared, independently of the
// operator kill-switch.
const (
	HaltSettlementUnresolved = "SETTLEMENT_UNRESOLVED"
	HaltConnectivityLost     = "CONNECTIVITY_LOST"
)

// Session is the single owner of mutable session state: the kill-switch,
// active halts and the limits. Daily P&L lives in the ledger.
type Session struct {
	mu sync.RWMutex

	policy         Policy
	enabled        bool
	disabledReason string
	halts          map[string]string
}

// NewSession returns a session with trading enabled or disabled.
func NewSession(p Policy, enabled bool) *Session {
	s := &Session{
		policy:  p,
		enabled: enabled,
		halts:   make(map[string]string),
	}
	if !enabled {
		s.disabledReason = "disabled at start"
	}
	return s
}

func (s *Session) Policy() Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy
}

// Enabled reports the kill-switch position. Halts are separate.
func (s *Session) Enabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled
}

// DisabledReason is empty while trading is enabled.
func (s *Session) DisabledReason() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.disabledReason
}

// Enable turns the kill-switch on and clears a connectivity halt, which
// only an operator can acknowledge. It reports whether the state changed.
func (s *Session) Enable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, hadHalt := s.halts[HaltConnectivityLost]
	delete(s.halts, HaltConnectivityLost)
	changed := !s.enabled || hadHalt
	s.enabled = true
	s.disabledReason = ""
	return changed
}

// Disable turns the kill-switch off. It reports whether the state changed;
// the first reason is kept.
func (s *Session) Disable(reason string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled {
		return false
	}
	s.enabled = false
	s.disabledReason = reason
	return true
}

// Halt raises a named halt. It reports whether the halt is new.
func (s *Session) Halt(code, msg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.halts[code]
	s.halts[code] = msg
	return !exists
}

// ClearHalt drops a named halt. It reports whether one was active.
func (s *Session) ClearHalt(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.halts[code]
	delete(s.halts, code)
	return exists
}

// Halts returns the active halts ordered by code.
func (s *Session) Halts() []Violation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Violation, 0, len(s.halts))
	for code, msg := range s.halts {
		out = append(out, Violation{Code: code, Msg: msg})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// CanTrade reports whether new placements are allowed before any P&L or
// market check, with a reason when they are not.
func (s *Session) CanTrade() (bool, string) {
	if !s.Enabled() {
		return false, s.DisabledReason()
	}
	if h := s.Halts(); len(h) > 0 {
		return false, h[0].Code + ": " + h[0].Msg
	}
	return true, ""
}
