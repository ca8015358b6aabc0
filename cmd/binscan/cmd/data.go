package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/binscan/broker/dukascopy"
	"github.com/rustyeddy/binscan/broker/sim"
	"github.com/rustyeddy/binscan/market"
)

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Download historical candles",
	Long: `Download historical one-minute candles and write them in the CSV layout
the csv data source reads (one ASSET.csv per pair).

Example:
  binscan data dukascopy --from 2026-03-02 --to 2026-03-06 -o ./data`,
}

var dataDukascopyCmd = &cobra.Command{
	Use:   "dukascopy [asset...]",
	Short: "Fetch BID candles from the Dukascopy datafeed",
	Long: `Fetch one-minute BID candles from the Dukascopy datafeed for each asset
(default: the configured basket) and every day in [--from, --to].
Downloaded day files are cached under --cache.`,
	RunE: runDataDukascopy,
}

var (
	dataFrom  string
	dataTo    string
	dataOut   string
	dataCache string
)

func init() {
	rootCmd.AddCommand(dataCmd)
	dataCmd.AddCommand(dataDukascopyCmd)

	dataDukascopyCmd.Flags().StringVar(&dataFrom, "from", "", "first UTC day, YYYY-MM-DD (required)")
	dataDukascopyCmd.Flags().StringVar(&dataTo, "to", "", "last UTC day, YYYY-MM-DD (default: --from)")
	dataDukascopyCmd.Flags().StringVarP(&dataOut, "output", "o", "./data", "output directory")
	dataDukascopyCmd.Flags().StringVar(&dataCache, "cache", "./dukascopy", "day file cache directory")
	dataDukascopyCmd.MarkFlagRequired("from")
}

func runDataDukascopy(cmd *cobra.Command, args []string) error {
	if dataTo == "" {
		dataTo = dataFrom
	}
	from, _, err := dayBounds(time.UTC, dataFrom)
	if err != nil {
		return fmt.Errorf("from: %w", err)
	}
	_, to, err := dayBounds(time.UTC, dataTo)
	if err != nil {
		return fmt.Errorf("to: %w", err)
	}

	assets := args
	if len(assets) == 0 {
		assets = market.DefaultBasket
		if cfg, err := loadConfig(); err == nil {
			assets = cfg.Basket()
		}
	}
	if err := os.MkdirAll(dataOut, 0o755); err != nil {
		return err
	}

	c := dukascopy.New(dataCache)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	for _, a := range assets {
		asset := market.CanonicalAsset(a)
		var bars []market.Candle
		for day := from; day.Before(to); day = day.AddDate(0, 0, 1) {
			d, err := c.Day(ctx, asset, day)
			if err != nil {
				return fmt.Errorf("%s %s: %w", asset, day.Format("2006-01-02"), err)
			}
			bars = append(bars, d...)
		}

		path := filepath.Join(dataOut, asset+".csv")
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := sim.WriteCandles(f, bars); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("OK    %s  %d bars\n", path, len(bars))
	}
	return nil
}
