package scanner

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/rustyeddy/binscan/indicators"
	"github.com/rustyeddy/binscan/signal"
)

// State is where an asset ended up in one cycle.
type State string

const (
	Scanning       State = "SCANNING"
	NoData         State = "NO_DATA"
	NoSignal       State = "NO_SIGNAL"
	SignalBlocked  State = "SIGNAL_BLOCKED"
	SignalExecuted State = "SIGNAL_EXECUTED"
	Error          State = "ERROR"
)

type AssetResult struct {
	Asset     string
	State     State
	Direction signal.Direction
	Reason    string
	Snapshot  indicators.Snapshot
	TradeID   string
}

type CycleReport struct {
	Started  time.Time
	Finished time.Time

	// Skipped is set when the cycle did not scan, e.g. with the
	// kill-switch off.
	Skipped    bool
	SkipReason string

	Results      []AssetResult
	Strength     signal.StrengthTable
	TradesOpened int
	DailyPnL     float64
	TotalProfit  float64
}

// Result returns the entry for asset.
func (r CycleReport) Result(asset string) (AssetResult, bool) {
	for _, a := range r.Results {
		if a.Asset == asset {
			return a, true
		}
	}
	return AssetResult{}, false
}

// Count returns how many assets finished in state s.
func (r CycleReport) Count(s State) int {
	n := 0
	for _, a := range r.Results {
		if a.State == s {
			n++
		}
	}
	return n
}

// WriteTable prints the per-asset scan table.
func WriteTable(w io.Writer, r CycleReport) error {
	if r.Skipped {
		_, err := fmt.Fprintf(w, "%s  cycle skipped: %s\n", r.Started.UTC().Format(time.RFC3339), r.SkipReason)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ASSET\tPRICE\tRSI\tADX\tSTOCH_K\tTREND\tSIGNAL\tSTATE\tREASON")
	for _, a := range r.Results {
		s := a.Snapshot
		price, rsi, adx, stoch := "-", "-", "-", "-"
		if s.Bars > 0 {
			price = fmt.Sprintf("%.5f", s.Price)
			rsi = fmt.Sprintf("%.1f", s.RSI)
			adx = fmt.Sprintf("%.1f", s.ADX)
			stoch = fmt.Sprintf("%.1f", s.StochK)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			a.Asset, price, rsi, adx, stoch, orDash(string(s.Trend)), a.Direction, a.State, a.Reason)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "trades this scan: %d  daily pnl: %+.2f  total profit: %+.2f\n",
		r.TradesOpened, r.DailyPnL, r.TotalProfit)
	return err
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
