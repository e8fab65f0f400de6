// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Action metrics
	ActionRunsTotal *prometheus.CounterVec
	ActionDuration  *prometheus.HistogramVec
	ActionInFlight  *prometheus.GaugeVec
	ActionsBusy     *prometheus.CounterVec

	// Solana metrics
	RPCCallLatency     *prometheus.HistogramVec
	RPCErrors          *prometheus.CounterVec
	ConfirmationsTotal *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Status stream metrics
	StatusSubscribers prometheus.Gauge

	// Health metrics
	WalletConnected prometheus.Gauge
	StartTime       prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "wallet_kit"
	}
	f := promauto.With(reg)

	return &Metrics{
		ActionRunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "action_runs_total",
			Help:      "Total number of finished panel actions by outcome",
		}, []string{"panel", "action", "outcome"}),
		ActionDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "action_duration_seconds",
			Help:      "Panel action wall time in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"panel", "action"}),
		ActionInFlight: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "action_in_flight",
			Help:      "Whether a panel currently has an action in flight",
		}, []string{"panel"}),
		ActionsBusy: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "action_busy_rejections_total",
			Help:      "Submissions refused because the panel was busy",
		}, []string{"panel"}),

		RPCCallLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RPCErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_errors_total",
			Help:      "Total number of failed Solana RPC calls",
		}, []string{"method"}),
		ConfirmationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "confirmations_total",
			Help:      "Transaction confirmation waits by result",
		}, []string{"result"}),

		DBQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		StatusSubscribers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "web",
			Name:      "status_subscribers",
			Help:      "Connected status stream WebSocket clients",
		}),

		WalletConnected: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "wallet_connected",
			Help:      "1 when a wallet is connected",
		}),
		StartTime: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "start_time_seconds",
			Help:      "Unix timestamp of process start",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", prometheus.DefaultRegisterer)

func init() {
	DefaultMetrics.StartTime.Set(float64(time.Now().Unix()))
}

// RecordActionStart marks panel busy.
func RecordActionStart(panel string) {
	DefaultMetrics.ActionInFlight.WithLabelValues(panel).Set(1)
}

// RecordActionFinish marks panel idle and records the outcome.
func RecordActionFinish(panel, action, outcome string, elapsed time.Duration) {
	DefaultMetrics.ActionInFlight.WithLabelValues(panel).Set(0)
	DefaultMetrics.ActionRunsTotal.WithLabelValues(panel, action, outcome).Inc()
	DefaultMetrics.ActionDuration.WithLabelValues(panel, action).Observe(elapsed.Seconds())
}

// RecordActionBusy counts a refused concurrent submission.
func RecordActionBusy(panel string) {
	DefaultMetrics.ActionsBusy.WithLabelValues(panel).Inc()
}

// RecordRPCCall records RPC call latency and failures. Matches solana.CallObserver.
func RecordRPCCall(method string, elapsed time.Duration, err error) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(elapsed.Seconds())
	if err != nil {
		DefaultMetrics.RPCErrors.WithLabelValues(method).Inc()
	}
}

// RecordConfirmation counts a confirmation result.
func RecordConfirmation(result string) {
	DefaultMetrics.ConfirmationsTotal.WithLabelValues(result).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// SetStatusSubscribers updates the status stream client gauge.
func SetStatusSubscribers(n int) {
	DefaultMetrics.StatusSubscribers.Set(float64(n))
}

// SetWalletConnected updates the wallet connection gauge.
func SetWalletConnected(connected bool) {
	v := 0.0
	if connected {
		v = 1
	}
	DefaultMetrics.WalletConnected.Set(v)
}
