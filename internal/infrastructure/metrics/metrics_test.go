package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := New(registry)

	if m.OccurrencesGenerated == nil || m.HTTPRequests == nil || m.DBRetries == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.HTTPRequests.WithLabelValues("GET", "/health", "200").Inc()

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestRecordExpansion(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordExpansion(5, 2)
	m.RecordExpansion(1, 0)

	if got := testutil.ToFloat64(m.OccurrencesGenerated); got != 6 {
		t.Fatalf("expected 6 occurrences, got %v", got)
	}
	if got := testutil.ToFloat64(m.RecurrenceSkipped); got != 2 {
		t.Fatalf("expected 2 skipped, got %v", got)
	}
}

func TestRecordCacheAndAggregation(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordCache(true)
	m.RecordCache(false)
	m.RecordCache(false)
	m.ObserveAggregation("series", time.Now())

	if got := testutil.ToFloat64(m.DashboardCache.WithLabelValues("miss")); got != 2 {
		t.Fatalf("expected 2 misses, got %v", got)
	}
	if got := testutil.CollectAndCount(m.AggregationDuration); got != 1 {
		t.Fatalf("expected one aggregation series, got %d", got)
	}
}

func TestRecordLedgerCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordAccountCreated()
	m.RecordTransactionCreated("expense")
	m.RecordTransactionCreated("expense")
	m.RecordTransactionDeleted()
	m.RecordRetry("deadlock")

	if got := testutil.ToFloat64(m.TransactionsCreated.WithLabelValues("expense")); got != 2 {
		t.Fatalf("expected 2 expenses, got %v", got)
	}
	if got := testutil.ToFloat64(m.AccountsCreated); got != 1 {
		t.Fatalf("expected 1 account, got %v", got)
	}
	if got := testutil.ToFloat64(m.DBRetries.WithLabelValues("deadlock")); got != 1 {
		t.Fatalf("expected 1 retry, got %v", got)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics

	m.RecordExpansion(1, 1)
	m.RecordAccountCreated()
	m.RecordTransactionCreated("income")
	m.RecordTransactionDeleted()
	m.RecordRetry("deadlock")
	m.RecordCache(true)
	m.ObserveAggregation("series", time.Now())
}
