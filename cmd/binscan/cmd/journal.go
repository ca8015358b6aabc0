package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/binscan/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query trade journal data",
	Long: `Query and display trade journal records from the SQLite database.

Subcommands:
  trade   - Get details of a specific trade by ID
  today   - List trades settled today
  day     - List trades settled on a specific day
  summary - Win rate and P&L for a day
  export  - Write the CSV trade report for a date range

Examples:
  binscan journal trade <trade-id>
  binscan journal today
  binscan journal day 2026-03-04
  binscan journal export --from 2026-03-01 --to 2026-03-07 -o march.csv`,
}

var journalTradeCmd = &cobra.Command{
	Use:   "trade <trade-id>",
	Short: "Get details of a specific trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrade,
}

var journalTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "List trades settled today",
	Args:  cobra.NoArgs,
	RunE:  runJournalToday,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List trades settled on a specific day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var journalSummaryCmd = &cobra.Command{
	Use:   "summary [YYYY-MM-DD]",
	Short: "Summarize a day (today by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runJournalSummary,
}

var journalExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the trade report as CSV",
	Args:  cobra.NoArgs,
	RunE:  runJournalExport,
}

var (
	journalDBPath string
	exportFrom    string
	exportTo      string
	exportOutput  string
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalTradeCmd)
	journalCmd.AddCommand(journalTodayCmd)
	journalCmd.AddCommand(journalDayCmd)
	journalCmd.AddCommand(journalSummaryCmd)
	journalCmd.AddCommand(journalExportCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./binscan.db", "path to SQLite journal DB")

	journalExportCmd.Flags().StringVar(&exportFrom, "from", "", "first day to include, YYYY-MM-DD (required)")
	journalExportCmd.Flags().StringVar(&exportTo, "to", "", "last day to include, YYYY-MM-DD (default: --from)")
	journalExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "-", "output file, - for stdout")
	journalExportCmd.MarkFlagRequired("from")
}

func runJournalTrade(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	rec, err := j.GetTrade(args[0])
	if err != nil {
		return fmt.Errorf("get trade: %w", err)
	}

	fmt.Println(journal.FormatTradeOrg(rec))
	return nil
}

func runJournalToday(cmd *cobra.Command, args []string) error {
	return listDay(time.Now().In(time.Local).Format("2006-01-02"))
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	return listDay(args[0])
}

func listDay(day string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	start, end, err := dayBounds(time.Local, day)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	recs, err := j.ListTradesSettledBetween(start, end)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	fmt.Println(journal.FormatTradesOrg(recs))
	return nil
}

func runJournalSummary(cmd *cobra.Command, args []string) error {
	day := time.Now().In(time.Local).Format("2006-01-02")
	if len(args) == 1 {
		day = args[0]
	}

	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	start, end, err := dayBounds(time.Local, day)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}
	s, err := j.SummaryBetween(start, end)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	fmt.Printf("Summary for %s\n", day)
	fmt.Printf("  Trades: %d (wins %d, losses %d)\n", s.Trades, s.Wins, s.Losses)
	fmt.Printf("  Win rate: %.1f%%\n", s.WinRate()*100)
	fmt.Printf("  P&L: %+.2f (gross +%.2f / -%.2f, profit factor %.2f)\n", s.PnL, s.GrossProfit, s.GrossLoss, s.ProfitFactor)
	return nil
}

func runJournalExport(cmd *cobra.Command, args []string) error {
	if exportTo == "" {
		exportTo = exportFrom
	}
	start, _, err := dayBounds(time.Local, exportFrom)
	if err != nil {
		return fmt.Errorf("from: %w", err)
	}
	_, end, err := dayBounds(time.Local, exportTo)
	if err != nil {
		return fmt.Errorf("to: %w", err)
	}

	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	recs, err := j.ListTradesSettledBetween(start, end)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	var w io.Writer = os.Stdout
	if exportOutput != "-" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := journal.WriteReport(w, recs); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if exportOutput != "-" {
		fmt.Fprintf(os.Stderr, "✓ Exported %d trades to %s\n", len(recs), exportOutput)
	}
	return nil
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	return start, end, nil
}
