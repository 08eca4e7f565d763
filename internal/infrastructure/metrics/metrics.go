package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Rate metrics
	RateResolutions *prometheus.CounterVec
	RateFetches     *prometheus.CounterVec
	RateFetchTime   *prometheus.HistogramVec
	RateFallbacks   *prometheus.CounterVec

	// Wallet metrics
	WalletsCreated *prometheus.CounterVec
	WalletEvents   *prometheus.CounterVec

	// Reconciliation metrics
	ReconciliationRuns          *prometheus.CounterVec
	ReconciliationDiscrepancies *prometheus.CounterVec
	MissingRates                *prometheus.CounterVec

	// API metrics
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	HTTPInFlight  prometheus.Gauge
	RateLimitHits prometheus.Counter

	// Database metrics
	DBRetries *prometheus.CounterVec
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Rate metrics
		RateResolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletrecon_rate_resolutions_total",
				Help: "Rate resolutions by the method that produced them",
			},
			[]string{"method"},
		),
		RateFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletrecon_rate_fetches_total",
				Help: "External rate feed fetches by feed and status",
			},
			[]string{"feed", "status"},
		),
		RateFetchTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "walletrecon_rate_fetch_duration_seconds",
				Help:    "Duration of external rate feed fetches",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"feed"},
		),
		RateFallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletrecon_rate_fallbacks_total",
				Help: "Rate tables served from a fallback source",
			},
			[]string{"feed", "source"},
		),

		// Wallet metrics
		WalletsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletrecon_wallets_created_total",
				Help: "Wallets created by currency type",
			},
			[]string{"type"},
		),
		WalletEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletrecon_wallet_events_total",
				Help: "Wallet events published by type",
			},
			[]string{"event_type"},
		),

		// Reconciliation metrics
		ReconciliationRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletrecon_reconciliation_runs_total",
				Help: "Per-user reconciliation runs by status",
			},
			[]string{"status"},
		),
		ReconciliationDiscrepancies: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletrecon_reconciliation_discrepancies_total",
				Help: "Currencies found with ledger/balance drift",
			},
			[]string{"currency"},
		),
		MissingRates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletrecon_missing_rates_total",
				Help: "Currencies that could not be converted to the base currency",
			},
			[]string{"currency", "base"},
		),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletrecon_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "walletrecon_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "walletrecon_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),
		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletrecon_rate_limit_hits_total",
			Help: "Requests rejected by the API rate limiter",
		}),

		// Database metrics
		DBRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletrecon_db_retries_total",
				Help: "Database operations retried after a transient error",
			},
			[]string{"code"},
		),
	}
}
