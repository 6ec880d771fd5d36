package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetGauge().GetValue()
}

func TestReassignMetrics_Counters(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m := newReassignMetricsWithRegisterer(registry)

	m.RecordDraftProcessed()
	m.RecordDraftProcessed()
	m.RecordDraftSucceeded()
	m.RecordDraftFailed()
	m.RecordAnonymized()
	m.RecordProductTypeChange()
	m.RecordRetry()

	if got := counterValue(t, m.draftsProcessed); got != 2 {
		t.Fatalf("draftsProcessed = %v, want 2", got)
	}
	if got := counterValue(t, m.draftsSucceeded); got != 1 {
		t.Fatalf("draftsSucceeded = %v, want 1", got)
	}
	if got := counterValue(t, m.draftsFailed); got != 1 {
		t.Fatalf("draftsFailed = %v, want 1", got)
	}
	if got := counterValue(t, m.productsAnonymized); got != 1 {
		t.Fatalf("productsAnonymized = %v, want 1", got)
	}
	if got := counterValue(t, m.productTypeChanges); got != 1 {
		t.Fatalf("productTypeChanges = %v, want 1", got)
	}
	if got := counterValue(t, m.transactionRetries); got != 1 {
		t.Fatalf("transactionRetries = %v, want 1", got)
	}
}

func TestReassignMetrics_Gauge(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m := newReassignMetricsWithRegisterer(registry)

	m.SetPendingTransactions(7)
	if got := gaugeValue(t, m.pendingTransactions); got != 7 {
		t.Fatalf("pendingTransactions = %v, want 7", got)
	}
	m.SetPendingTransactions(0)
	if got := gaugeValue(t, m.pendingTransactions); got != 0 {
		t.Fatalf("pendingTransactions = %v, want 0", got)
	}
}

func TestReassignMetrics_Histograms(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m := newReassignMetricsWithRegisterer(registry)

	m.RecordDraftDuration(50 * time.Millisecond)
	m.RecordStepDuration("donor_cleanup", 5*time.Millisecond)
	m.RecordStepDuration("slug_dedup", time.Millisecond)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	byName := map[string]*dto.MetricFamily{}
	for _, family := range families {
		byName[family.GetName()] = family
	}

	draft, ok := byName["reassign_draft_duration_seconds"]
	if !ok {
		t.Fatal("draft duration histogram not registered")
	}
	if draft.GetMetric()[0].GetHistogram().GetSampleCount() != 1 {
		t.Fatal("expected one draft duration sample")
	}

	steps, ok := byName["reassign_step_duration_seconds"]
	if !ok {
		t.Fatal("step duration histogram not registered")
	}
	if len(steps.GetMetric()) != 2 {
		t.Fatalf("expected 2 step label series, got %d", len(steps.GetMetric()))
	}
}

func TestReassignMetrics_DuplicateRegistrationReusesCollectors(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	first := newReassignMetricsWithRegisterer(registry)
	second := newReassignMetricsWithRegisterer(registry)

	first.RecordDraftProcessed()
	second.RecordDraftProcessed()

	if got := counterValue(t, first.draftsProcessed); got != 2 {
		t.Fatalf("expected shared collector with value 2, got %v", got)
	}
}
