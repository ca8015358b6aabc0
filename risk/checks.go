package risk

import (
	"fmt"
	"time"

	"github.com/rustyeddy/binscan/market"
	"github.com/rustyeddy/binscan/signal"
)

// Denial codes, in evaluation order.
const (
	CodeTradingDisabled = "TRADING_DISABLED"
	CodeHalted          = "HALTED"
	CodeTargetReached   = "TARGET_REACHED"
	CodeStopLossHit     = "STOP_LOSS_HIT"
	CodeMarketClosed    = "MARKET_CLOSED"
	CodeStrengthVeto    = "STRENGTH_VETO"
)

type Violation struct {
	Code string
	Msg  string
}

type Decision struct {
	Allowed    bool
	Violations []Violation

	// PnL is the daily P&L the decision was taken against.
	PnL float64
	// Disabled is true when this evaluation flipped the kill-switch off.
	Disabled bool
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Code returns the first violation code, or "" when allowed.
func (d Decision) Code() string {
	if len(d.Violations) == 0 {
		return ""
	}
	return d.Violations[0].Code
}

// Reason renders the first violation as "CODE: message".
func (d Decision) Reason() string {
	if len(d.Violations) == 0 {
		return ""
	}
	v := d.Violations[0]
	return v.Code + ": " + v.Msg
}

// PnLSource supplies the settled daily P&L.
type PnLSource interface {
	DailyPnL() float64
}

// Gate evaluates whether a new trade may be placed.
type Gate struct {
	session *Session
	pnl     PnLSource
}

func NewGate(s *Session, pnl PnLSource) *Gate {
	return &Gate{session: s, pnl: pnl}
}

func (g *Gate) Session() *Session { return g.session }

// Check runs the ordered checks and stops at the first failure:
// kill-switch and halts, the P&L band, weekend closure, then the strength
// veto. It never returns an error; a denial carries a reason code.
//
// Reaching either P&L boundary disables trading for the rest of the session.
func (g *Gate) Check(now time.Time, veto signal.VetoResult) Decision {
	d := Decision{Allowed: true}

	if !g.session.Enabled() {
		d.add(CodeTradingDisabled, g.session.DisabledReason())
		return d
	}
	if h := g.session.Halts(); len(h) > 0 {
		d.add(CodeHalted, h[0].Code+": "+h[0].Msg)
		return d
	}

	p := g.session.Policy()
	d.PnL = g.pnl.DailyPnL()
	switch {
	case d.PnL >= p.TargetProfit:
		msg := fmt.Sprintf("daily pnl %.2f reached target %.2f", d.PnL, p.TargetProfit)
		d.Disabled = g.session.Disable(CodeTargetReached + ": " + msg)
		d.add(CodeTargetReached, msg)
		return d
	case d.PnL <= -p.StopLoss:
		msg := fmt.Sprintf("daily pnl %.2f hit stop loss -%.2f", d.PnL, p.StopLoss)
		d.Disabled = g.session.Disable(CodeStopLossHit + ": " + msg)
		d.add(CodeStopLossHit, msg)
		return d
	}

	if market.Sessions(now).WeekendClosed {
		d.add(CodeMarketClosed, "weekend closure")
		return d
	}

	if p.StrengthFilter && veto.Vetoed {
		d.add(CodeStrengthVeto, veto.Reason)
		return d
	}

	return d
}
