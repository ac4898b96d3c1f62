// Package metrics exposes prometheus collectors for the wallet session layer.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wallet"

// Metrics collectors shared by the wallet services.
type Metrics struct {
	priceFetches   *prometheus.CounterVec
	priceDuration  prometheus.Histogram
	ledgerReads    *prometheus.CounterVec
	refreshes      *prometheus.CounterVec
	connects       *prometheus.CounterVec
	transfers      *prometheus.CounterVec
	signingPending prometheus.Gauge
}

// New creates collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		priceFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_fetches_total",
			Help:      "Price quotes by outcome (live or fallback).",
		}, []string{"source", "outcome"}),
		priceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "price_fetch_duration_seconds",
			Help:      "Duration of price fetches including timeouts.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		ledgerReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_reads_total",
			Help:      "Native balance reads by outcome (ok or zero fallback).",
		}, []string{"outcome"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Balance refresh cycles by result (applied or stale).",
		}, []string{"result"}),
		connects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connects_total",
			Help:      "Connect attempts by result.",
		}, []string{"result"}),
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfers_total",
			Help:      "Transfer attempts by result.",
		}, []string{"result"}),
		signingPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "signing_pending",
			Help:      "1 while a signature request is pending at the provider.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.priceFetches, m.priceDuration, m.ledgerReads, m.refreshes,
			m.connects, m.transfers, m.signingPending)
	}
	return m
}

// PriceFetched records one quote.
func (m *Metrics) PriceFetched(source string, fallback bool, took time.Duration) {
	if m == nil {
		return
	}
	outcome := "live"
	if fallback {
		outcome = "fallback"
	}
	m.priceFetches.WithLabelValues(source, outcome).Inc()
	m.priceDuration.Observe(took.Seconds())
}

// LedgerRead records one balance read.
func (m *Metrics) LedgerRead(ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "zero_fallback"
	}
	m.ledgerReads.WithLabelValues(outcome).Inc()
}

// Refreshed records a completed refresh cycle.
func (m *Metrics) Refreshed(applied bool) {
	if m == nil {
		return
	}
	result := "applied"
	if !applied {
		result = "stale"
	}
	m.refreshes.WithLabelValues(result).Inc()
}

// Connected records a connect attempt result: ok, failed or noop.
func (m *Metrics) Connected(result string) {
	if m == nil {
		return
	}
	m.connects.WithLabelValues(result).Inc()
}

// Transferred records a transfer attempt result: ok, invalid or failed.
func (m *Metrics) Transferred(result string) {
	if m == nil {
		return
	}
	m.transfers.WithLabelValues(result).Inc()
}

// Signing toggles the pending signature gauge.
func (m *Metrics) Signing(pending bool) {
	if m == nil {
		return
	}
	if pending {
		m.signingPending.Set(1)
		return
	}
	m.signingPending.Set(0)
}
