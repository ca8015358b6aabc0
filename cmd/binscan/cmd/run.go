package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/binscan/broker"
	"github.com/rustyeddy/binscan/execution"
	"github.com/rustyeddy/binscan/indicators"
	"github.com/rustyeddy/binscan/internal/logger"
	"github.com/rustyeddy/binscan/ledger"
	"github.com/rustyeddy/binscan/metrics"
	"github.com/rustyeddy/binscan/risk"
	"github.com/rustyeddy/binscan/scanner"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scan loop",
	Long: `Run the scanner using settings from a configuration file.

Every scan interval the basket is fetched, indicators are computed on closed
candles, and firing signals that pass the risk gate are placed. Trades
settle in the background. Stop with Ctrl-C; pending settlements are given a
grace period to finish.

Example:
  binscan run -f binscan.yaml`,
	RunE: runRun,
}

var (
	runOnce  bool
	runQuiet bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runOnce, "once", false, "run a single cycle and exit after settlements finish")
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "do not print the per-cycle table")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	j, err := openJournal(cfg)
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	defer j.Close()

	md, err := openMarketData(cfg)
	if err != nil {
		return fmt.Errorf("market data: %w", err)
	}
	brk, err := openBroker(cfg, md)
	if err != nil {
		return fmt.Errorf("broker: %w", err)
	}

	engine, err := indicators.NewEngine(cfg.IndicatorParams())
	if err != nil {
		return fmt.Errorf("indicators: %w", err)
	}

	disp, err := openNotifier(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = disp.Close(cctx)
	}()

	store, err := openControl(cfg)
	if err != nil {
		return fmt.Errorf("control: %w", err)
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	rec := metrics.New(reg)
	if cfg.Metrics.Addr != "" {
		srv := serveMetrics(cfg.Metrics.Addr, rec, log)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	session := risk.NewSession(cfg.Policy(), cfg.Scanner.TradingEnabled)
	book := ledger.New(j, log.Named("ledger"))
	gate := risk.NewGate(session, book)

	ec := cfg.ExecutionConfig()
	exec := execution.New(brk, book, session, ec,
		execution.WithLogger(log.Named("execution")),
		execution.WithAlerter(disp),
		execution.WithMetrics(rec))

	orch, err := scanner.New(scanner.Config{
		Basket:            cfg.Basket(),
		Interval:          cfg.ScanInterval(),
		Thresholds:        cfg.Thresholds(),
		StrengthThreshold: cfg.Risk.StrengthThreshold,
		StrengthLookback:  cfg.Risk.StrengthLookback,
	}, scanner.Deps{
		Feed:        broker.NewFeed(md, cfg.CandlePeriod(), cfg.Scanner.CandleCount),
		Engine:      engine,
		Gate:        gate,
		Executor:    exec,
		Ledger:      book,
		Control:     store,
		Reconnector: collectReconnectors(md, brk),
		Alerter:     disp,
		Metrics:     rec,
		Logger:      log.Named("scanner"),
		OnReport: func(r scanner.CycleReport) {
			if runQuiet {
				return
			}
			_ = scanner.WriteTable(os.Stdout, r)
		},
	})
	if err != nil {
		return err
	}

	mode := "paper"
	if !cfg.Execution.PaperTrading {
		mode = "live"
	}
	log.Info("binscan starting",
		zap.String("version", version),
		zap.String("mode", mode),
		zap.String("data", cfg.Broker.Data),
		zap.Strings("basket", cfg.Basket()),
		zap.Bool("trading_enabled", session.Enabled()))
	rec.TradingEnabled(session.Enabled())

	if runOnce {
		r := orch.Cycle(ctx)
		orch.OnReport(r)
	} else if err := orch.Run(ctx); err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(context.Background(), shutdownGrace(ec))
	defer cancel()
	if err := exec.Close(cctx); err != nil {
		log.Warn("shutdown with unsettled trades", zap.Int("pending", exec.Pending()), zap.Error(err))
	}

	st := book.Stats()
	fmt.Printf("\nSession Results:\n")
	fmt.Printf("  Trades: %d (wins %d, losses %d, win rate %.1f%%)\n", st.Trades, st.Wins, st.Losses, st.WinRate()*100)
	fmt.Printf("  Pending: %d  Stuck: %d\n", st.Pending, st.Stuck)
	fmt.Printf("  Daily P&L: %+.2f  Total: %+.2f\n", book.DailyPnL(), book.TotalPnL())
	return nil
}

func serveMetrics(addr string, rec *metrics.Recorder, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", rec.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", zap.Error(err))
		}
	}()
	log.Info("metrics listening", zap.String("addr", addr))
	return srv
}

// shutdownGrace covers a trade opened in the last cycle through expiry and
// every settlement retry.
func shutdownGrace(ec execution.Config) time.Duration {
	return ec.Duration + ec.SettleBuffer + ec.OutcomeGrace + time.Duration(ec.Retries)*ec.RetryInterval
}
