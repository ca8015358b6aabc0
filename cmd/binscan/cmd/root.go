package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/binscan/config"
)

var rootCmd = &cobra.Command{
	Use:   "binscan",
	Short: "Binary-options signal scanner for FX majors",
	Long: `Binscan scans a basket of FX pairs on a fixed interval, computes a set of
technical indicators on closed one-minute candles, and places short-expiry
binary trades when a mean-reversion signal fires and the session risk
limits allow it.

It provides tools for:
  - Running the scan loop against OANDA candles, a broker bridge or CSV files
  - Paper trading with simulated settlement
  - Controlling a running scanner (kill-switch, reset, reconcile)
  - Querying and exporting the trade journal

Complete documentation is available at https://github.com/rustyeddy/binscan`,
	SilenceUsage: true,
}

var configPath string

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "f", "binscan.yaml", "path to config file (YAML or JSON)")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
