package obs

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DomainMetrics groups the ledger and billing collectors. A nil *DomainMetrics
// is valid and records nothing.
type DomainMetrics struct {
	LedgerUpserts    *prometheus.CounterVec
	NegativeHolding  prometheus.Counter
	BillSaves        *prometheus.CounterVec
	BillRunDuration  prometheus.Histogram
	ReceiptsRendered *prometheus.CounterVec
	BillMessages     *prometheus.CounterVec
}

// NewDomainMetrics builds and registers the domain collectors. Collectors that
// are already registered are reused.
func NewDomainMetrics(namespace string, reg prometheus.Registerer) *DomainMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &DomainMetrics{
		LedgerUpserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_upserts_total",
			Help:      "Daily ledger upserts by outcome.",
		}, []string{"result"}),
		NegativeHolding: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_negative_holding_total",
			Help:      "Ledger entries saved with a negative holding balance.",
		}),
		BillSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bill_saves_total",
			Help:      "Monthly bill upserts by outcome.",
		}, []string{"result"}),
		BillRunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bill_batch_duration_ms",
			Help:      "Duration of batch bill generation and saving in milliseconds.",
			Buckets:   []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}),
		ReceiptsRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipts_rendered_total",
			Help:      "Rendered receipts and bill documents by format.",
		}, []string{"format"}),
		BillMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bill_messages_total",
			Help:      "Bill notifications sent to customers by outcome.",
		}, []string{"result"}),
	}

	mustRegisterCollector(reg, m.LedgerUpserts, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.CounterVec); ok {
			m.LedgerUpserts = v
		}
	})
	mustRegisterCollector(reg, m.NegativeHolding, func(existing prometheus.Collector) {
		if v, ok := existing.(prometheus.Counter); ok {
			m.NegativeHolding = v
		}
	})
	mustRegisterCollector(reg, m.BillSaves, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.CounterVec); ok {
			m.BillSaves = v
		}
	})
	mustRegisterCollector(reg, m.BillRunDuration, func(existing prometheus.Collector) {
		if v, ok := existing.(prometheus.Histogram); ok {
			m.BillRunDuration = v
		}
	})
	mustRegisterCollector(reg, m.ReceiptsRendered, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.CounterVec); ok {
			m.ReceiptsRendered = v
		}
	})
	mustRegisterCollector(reg, m.BillMessages, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.CounterVec); ok {
			m.BillMessages = v
		}
	})
	return m
}

// LedgerUpsert counts one ledger write.
func (m *DomainMetrics) LedgerUpsert(result string, negative bool) {
	if m == nil {
		return
	}
	m.LedgerUpserts.WithLabelValues(result).Inc()
	if negative {
		m.NegativeHolding.Inc()
	}
}

// BillSaved counts one bill upsert.
func (m *DomainMetrics) BillSaved(result string) {
	if m == nil {
		return
	}
	m.BillSaves.WithLabelValues(result).Inc()
}

// BillRun observes a batch duration.
func (m *DomainMetrics) BillRun(d time.Duration) {
	if m == nil {
		return
	}
	m.BillRunDuration.Observe(DurationMillis(d))
}

// Rendered counts one rendered document.
func (m *DomainMetrics) Rendered(format string) {
	if m == nil {
		return
	}
	m.ReceiptsRendered.WithLabelValues(format).Inc()
}

// BillMessage counts one bill notification attempt.
func (m *DomainMetrics) BillMessage(result string) {
	if m == nil {
		return
	}
	m.BillMessages.WithLabelValues(result).Inc()
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
