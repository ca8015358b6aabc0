// Package metrics exposes scanner and trade counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder records scanner activity. A nil *Recorder is a no-op.
type Recorder struct {
	gatherer prometheus.Gatherer

	cycles         prometheus.Counter
	cycleDuration  prometheus.Histogram
	assetStates    *prometheus.CounterVec
	signals        *prometheus.CounterVec
	tradesOpened   *prometheus.CounterVec
	tradesSettled  *prometheus.CounterVec
	orderRejects   prometheus.Counter
	dailyPnL       prometheus.Gauge
	pendingTrades  prometheus.Gauge
	stuckTrades    prometheus.Gauge
	tradingEnabled prometheus.Gauge
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in
// tests to avoid clashing with the default registry.
func New(reg *prometheus.Registry) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		gatherer: reg,
		cycles: f.NewCounter(prometheus.CounterOpts{
			Name: "binscan_cycles_total",
			Help: "Scan cycles started.",
		}),
		cycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "binscan_cycle_duration_seconds",
			Help:    "Wall time of a scan cycle.",
			Buckets: prometheus.DefBuckets,
		}),
		assetStates: f.NewCounterVec(prometheus.CounterOpts{
			Name: "binscan_asset_results_total",
			Help: "Per-asset cycle results by final state.",
		}, []string{"state"}),
		signals: f.NewCounterVec(prometheus.CounterOpts{
			Name: "binscan_signals_total",
			Help: "Directional signals produced by the classifier.",
		}, []string{"direction"}),
		tradesOpened: f.NewCounterVec(prometheus.CounterOpts{
			Name: "binscan_trades_opened_total",
			Help: "Trades accepted by the broker, by instrument.",
		}, []string{"instrument"}),
		tradesSettled: f.NewCounterVec(prometheus.CounterOpts{
			Name: "binscan_trades_settled_total",
			Help: "Trades settled, by status.",
		}, []string{"status"}),
		orderRejects: f.NewCounter(prometheus.CounterOpts{
			Name: "binscan_order_rejections_total",
			Help: "Orders rejected on every instrument.",
		}),
		dailyPnL: f.NewGauge(prometheus.GaugeOpts{
			Name: "binscan_daily_pnl",
			Help: "Settled profit since the last reset.",
		}),
		pendingTrades: f.NewGauge(prometheus.GaugeOpts{
			Name: "binscan_pending_trades",
			Help: "Trades awaiting settlement.",
		}),
		stuckTrades: f.NewGauge(prometheus.GaugeOpts{
			Name: "binscan_stuck_trades",
			Help: "Pending trades whose outcome could not be read.",
		}),
		tradingEnabled: f.NewGauge(prometheus.GaugeOpts{
			Name: "binscan_trading_enabled",
			Help: "1 when the kill-switch allows trading.",
		}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}

func (r *Recorder) CycleStarted() {
	if r == nil {
		return
	}
	r.cycles.Inc()
}

func (r *Recorder) CycleFinished(seconds float64) {
	if r == nil {
		return
	}
	r.cycleDuration.Observe(seconds)
}

func (r *Recorder) AssetResult(state string) {
	if r == nil {
		return
	}
	r.assetStates.WithLabelValues(state).Inc()
}

func (r *Recorder) Signal(direction string) {
	if r == nil {
		return
	}
	r.signals.WithLabelValues(direction).Inc()
}

func (r *Recorder) TradeOpened(instrument string) {
	if r == nil {
		return
	}
	r.tradesOpened.WithLabelValues(instrument).Inc()
}

func (r *Recorder) TradeSettled(status string) {
	if r == nil {
		return
	}
	r.tradesSettled.WithLabelValues(status).Inc()
}

func (r *Recorder) OrderRejected() {
	if r == nil {
		return
	}
	r.orderRejects.Inc()
}

// Book updates the ledger gauges.
func (r *Recorder) Book(pnl float64, pending, stuck int) {
	if r == nil {
		return
	}
	r.dailyPnL.Set(pnl)
	r.pendingTrades.Set(float64(pending))
	r.stuckTrades.Set(float64(stuck))
}

func (r *Recorder) TradingEnabled(enabled bool) {
	if r == nil {
		return
	}
	if enabled {
		r.tradingEnabled.Set(1)
		return
	}
	r.tradingEnabled.Set(0)
}
