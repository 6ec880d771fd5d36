package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReassignMetrics содержит метрики движка переназначения вариантов.
type ReassignMetrics struct {
	// Счётчики драфтов
	draftsProcessed prometheus.Counter
	draftsSucceeded prometheus.Counter
	draftsFailed    prometheus.Counter

	// Счётчики операций каталога
	productsAnonymized prometheus.Counter
	productTypeChanges prometheus.Counter
	transactionRetries prometheus.Counter

	// Гистограммы времени выполнения
	draftDuration prometheus.Histogram
	stepDuration  *prometheus.HistogramVec

	// Gauge незавершённых записей журнала
	pendingTransactions prometheus.Gauge
}

// NewReassignMetrics создаёт новый экземпляр метрик движка.
func NewReassignMetrics() *ReassignMetrics {
	return newReassignMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newReassignMetricsWithRegisterer(registerer prometheus.Registerer) *ReassignMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &ReassignMetrics{
		draftsProcessed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "reassign_drafts_processed_total",
			Help: "Total number of product drafts taken into processing",
		}),
		draftsSucceeded: registerCounter(registerer, prometheus.CounterOpts{
			Name: "reassign_drafts_succeeded_total",
			Help: "Total number of product drafts reconciled successfully",
		}),
		draftsFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "reassign_drafts_failed_total",
			Help: "Total number of product drafts failed after retry",
		}),
		productsAnonymized: registerCounter(registerer, prometheus.CounterOpts{
			Name: "reassign_products_anonymized_total",
			Help: "Total number of products anonymized for slug uniqueness or backup",
		}),
		productTypeChanges: registerCounter(registerer, prometheus.CounterOpts{
			Name: "reassign_product_type_changes_total",
			Help: "Total number of target products recreated under a new product type",
		}),
		transactionRetries: registerCounter(registerer, prometheus.CounterOpts{
			Name: "reassign_transaction_retries_total",
			Help: "Total number of per-draft retries via the journal",
		}),
		draftDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "reassign_draft_duration_seconds",
			Help:    "Duration of processing one product draft in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		stepDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "reassign_step_duration_seconds",
			Help:    "Duration of individual coordinator steps in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"step"}),
		pendingTransactions: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "reassign_journal_pending_transactions",
			Help: "Number of unfinished transactions currently in the journal",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordDraftProcessed увеличивает счётчик драфтов, взятых в обработку.
func (m *ReassignMetrics) RecordDraftProcessed() {
	m.draftsProcessed.Inc()
}

// RecordDraftSucceeded увеличивает счётчик успешных драфтов.
func (m *ReassignMetrics) RecordDraftSucceeded() {
	m.draftsSucceeded.Inc()
}

// RecordDraftFailed увеличивает счётчик драфтов, проваленных после повтора.
func (m *ReassignMetrics) RecordDraftFailed() {
	m.draftsFailed.Inc()
}

// RecordAnonymized увеличивает счётчик анонимизированных продуктов.
func (m *ReassignMetrics) RecordAnonymized() {
	m.productsAnonymized.Inc()
}

// RecordProductTypeChange увеличивает счётчик смен типа продукта.
func (m *ReassignMetrics) RecordProductTypeChange() {
	m.productTypeChanges.Inc()
}

// RecordRetry увеличивает счётчик повторов обработки.
func (m *ReassignMetrics) RecordRetry() {
	m.transactionRetries.Inc()
}

// RecordDraftDuration записывает время обработки одного драфта.
func (m *ReassignMetrics) RecordDraftDuration(duration time.Duration) {
	m.draftDuration.Observe(duration.Seconds())
}

// RecordStepDuration записывает время выполнения шага координатора.
func (m *ReassignMetrics) RecordStepDuration(step string, duration time.Duration) {
	m.stepDuration.WithLabelValues(step).Observe(duration.Seconds())
}

// SetPendingTransactions выставляет число незавершённых записей журнала.
func (m *ReassignMetrics) SetPendingTransactions(n int) {
	m.pendingTransactions.Set(float64(n))
}
