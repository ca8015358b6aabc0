package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/binscan/control"
)

var killswitchCmd = &cobra.Command{
	Use:   "killswitch",
	Short: "Turn trading on or off in a running scanner",
	Long: `Set or read the operator kill-switch. The scanner picks the change up at
the start of its next cycle. Turning trading back on also acknowledges a
connectivity halt.

Requires control.backend: redis.

Examples:
  binscan killswitch off
  binscan killswitch on
  binscan killswitch status`,
}

var killswitchOnCmd = &cobra.Command{
	Use:   "on",
	Short: "Enable trading",
	Args:  cobra.NoArgs,
	RunE:  func(cmd *cobra.Command, args []string) error { return setKillswitch(true) },
}

var killswitchOffCmd = &cobra.Command{
	Use:   "off",
	Short: "Disable trading",
	Args:  cobra.NoArgs,
	RunE:  func(cmd *cobra.Command, args []string) error { return setKillswitch(false) },
}

var killswitchStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the kill-switch position",
	Args:  cobra.NoArgs,
	RunE:  runKillswitchStatus,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Start a new session",
	Long: `Clear the running scanner's daily P&L at its next cycle. The kill-switch
is left as it is; use "binscan killswitch on" after a stop-loss or target
disable.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <trade-id> <profit>",
	Short: "Settle a stuck trade by hand",
	Long: `Settle a trade whose outcome the broker never reported. Profit is the
amount shown by the broker: positive for a win, negative or zero for a loss.

Example:
  binscan reconcile 01J8Z6Q0N3W4 8.00
  binscan reconcile 01J8Z6Q0N3W4 -10`,
	Args: cobra.ExactArgs(2),
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(killswitchCmd)
	killswitchCmd.AddCommand(killswitchOnCmd)
	killswitchCmd.AddCommand(killswitchOffCmd)
	killswitchCmd.AddCommand(killswitchStatusCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(reconcileCmd)
}

func withControl(fn func(ctx context.Context, s control.Store) error) error {
	s, err := remoteControl()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return fn(ctx, s)
}

func setKillswitch(enabled bool) error {
	return withControl(func(ctx context.Context, s control.Store) error {
		if err := s.SetTradingEnabled(ctx, enabled); err != nil {
			return fmt.Errorf("set kill-switch: %w", err)
		}
		if enabled {
			fmt.Println("✓ Trading enabled")
		} else {
			fmt.Println("✓ Trading disabled")
		}
		return nil
	})
}

func runKillswitchStatus(cmd *cobra.Command, args []string) error {
	return withControl(func(ctx context.Context, s control.Store) error {
		enabled, ok, err := s.TradingEnabled(ctx)
		if err != nil {
			return fmt.Errorf("read kill-switch: %w", err)
		}
		switch {
		case !ok:
			fmt.Println("kill-switch: not set (scanner uses its startup setting)")
		case enabled:
			fmt.Println("kill-switch: on")
		default:
			fmt.Println("kill-switch: off")
		}
		return nil
	})
}

func runReset(cmd *cobra.Command, args []string) error {
	return withControl(func(ctx context.Context, s control.Store) error {
		if err := s.RequestReset(ctx); err != nil {
			return fmt.Errorf("request reset: %w", err)
		}
		fmt.Println("✓ Reset requested; applied at the next scan cycle")
		return nil
	})
}

func runReconcile(cmd *cobra.Command, args []string) error {
	profit, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("bad profit %q: %w", args[1], err)
	}
	return withControl(func(ctx context.Context, s control.Store) error {
		r := control.Reconcile{TradeID: args[0], Profit: profit}
		if err := s.RequestReconcile(ctx, r); err != nil {
			return fmt.Errorf("request reconcile: %w", err)
		}
		fmt.Printf("✓ Reconcile queued: %s %+.2f\n", r.TradeID, r.Profit)
		return nil
	})
}
