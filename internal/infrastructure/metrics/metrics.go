package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Analytics metrics
	OccurrencesGenerated prometheus.Counter
	RecurrenceSkipped    prometheus.Counter
	AggregationDuration  *prometheus.HistogramVec
	DashboardCache       *prometheus.CounterVec

	// Transaction metrics
	TransactionsCreated *prometheus.CounterVec
	TransactionsDeleted prometheus.Counter
	AccountsCreated     prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge

	// Database metrics
	DBRetries *prometheus.CounterVec
}

// New creates the metrics and registers them with reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		OccurrencesGenerated: factory.NewCounter(prometheus.CounterOpts{
			Name: "famledger_recurrence_occurrences_total",
			Help: "Total number of virtual occurrences generated",
		}),
		RecurrenceSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "famledger_recurrence_skipped_total",
			Help: "Total number of recurring transactions skipped for invalid rules",
		}),
		AggregationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "famledger_aggregation_duration_seconds",
				Help:    "Duration of dashboard computations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		DashboardCache: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "famledger_dashboard_cache_total",
				Help: "Dashboard cache lookups by result",
			},
			[]string{"result"},
		),

		TransactionsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "famledger_transactions_created_total",
				Help: "Total number of transactions created by type",
			},
			[]string{"type"},
		),
		TransactionsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "famledger_transactions_deleted_total",
			Help: "Total number of transactions deleted",
		}),
		AccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "famledger_accounts_created_total",
			Help: "Total number of accounts created",
		}),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "famledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "famledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "famledger_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),

		DBRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "famledger_db_retries_total",
				Help: "Database transaction retries by reason",
			},
			[]string{"reason"},
		),
	}
}

// ObserveAggregation records how long a dashboard operation took.
func (m *Metrics) ObserveAggregation(operation string, started time.Time) {
	if m == nil {
		return
	}
	m.AggregationDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// RecordExpansion records the outcome of one recurrence expansion.
func (m *Metrics) RecordExpansion(generated, skipped int) {
	if m == nil {
		return
	}
	m.OccurrencesGenerated.Add(float64(generated))
	m.RecurrenceSkipped.Add(float64(skipped))
}

// RecordCache records a dashboard cache hit or miss.
func (m *Metrics) RecordCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.DashboardCache.WithLabelValues(result).Inc()
}

// RecordAccountCreated counts a new account.
func (m *Metrics) RecordAccountCreated() {
	if m == nil {
		return
	}
	m.AccountsCreated.Inc()
}

// RecordTransactionCreated counts a stored transaction by type.
func (m *Metrics) RecordTransactionCreated(txType string) {
	if m == nil {
		return
	}
	m.TransactionsCreated.WithLabelValues(txType).Inc()
}

// RecordTransactionDeleted counts a deleted transaction.
func (m *Metrics) RecordTransactionDeleted() {
	if m == nil {
		return
	}
	m.TransactionsDeleted.Inc()
}

// RecordRetry counts a retried database transaction.
func (m *Metrics) RecordRetry(reason string) {
	if m == nil {
		return
	}
	m.DBRetries.WithLabelValues(reason).Inc()
}
