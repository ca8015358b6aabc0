package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatTradeOrg renders a TradeRecord as an Org-mode block. Structured
// facts go in the PROPERTIES drawer; Setup and Review are left for notes.
func FormatTradeOrg(t TradeRecord) string {
	heading := fmt.Sprintf("** %s %s %s (%s)", t.Outcome, t.Direction, t.Asset, shortID(t.TradeID))

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":TRADE_ID: %s\n", t.TradeID)
	fmt.Fprintf(&b, ":ASSET: %s\n", t.Asset)
	fmt.Fprintf(&b, ":DIRECTION: %s\n", t.Direction)
	fmt.Fprintf(&b, ":INSTRUMENT: %s\n", t.Instrument)
	fmt.Fprintf(&b, ":STAKE: %.2f\n", t.Stake)
	fmt.Fprintf(&b, ":ENTRY_PRICE: %.5f\n", t.EntryPrice)
	fmt.Fprintf(&b, ":OPEN_TIME: %s\n", t.OpenTime.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, ":SETTLE_TIME: %s\n", t.SettleTime.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, ":OUTCOME: %s\n", t.Outcome)
	fmt.Fprintf(&b, ":PROFIT: %.2f\n", t.Profit)
	b.WriteString(":END:\n")
	b.WriteString("\n")
	b.WriteString("*** Setup\n")
	fmt.Fprintf(&b, "- RSI %.1f, ADX %.1f, Stoch %%K %.1f, ATR %.5f, trend %s\n\n", t.RSI, t.ADX, t.StochK, t.ATR, t.Trend)
	b.WriteString("*** Review\n- \n")

	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines, followed
// by a summary line when there is at least one trade.
func FormatTradesOrg(trades []TradeRecord) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	if len(trades) > 0 {
		s := Summarize(trades)
		fmt.Fprintf(&b, "\n\n* Summary: %d trades, %d wins, %d losses, win rate %.1f%%, pnl %.2f\n",
			s.Trades, s.Wins, s.Losses, 100*s.WinRate(), s.PnL)
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
