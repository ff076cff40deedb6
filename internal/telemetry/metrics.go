// Package telemetry exposes prometheus instrumentation for the valuation
// engine and its feeds.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics aggregates the engine's prometheus collectors.
type Metrics struct {
	CyclesTotal    prometheus.Counter
	CycleDuration  prometheus.Histogram
	TickersTotal   *prometheus.CounterVec // status: ok|failed|skipped
	MethodSelected *prometheus.CounterVec // method label
	FeedReconnects prometheus.Counter
	FeedTicks      prometheus.Counter
}

// New registers the engine collectors on reg and returns them. Tests pass
// a private registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "navcast_cycles_total",
			Help: "Completed Calculate passes",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "navcast_cycle_duration_seconds",
			Help:    "Wall time of one full Calculate pass",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		TickersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "navcast_tickers_total",
			Help: "Per-ticker calculation outcomes",
		}, []string{"status"}),
		MethodSelected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "navcast_method_selected_total",
			Help: "Estimation method chosen by the hierarchy resolver",
		}, []string{"method"}),
		FeedReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "navcast_feed_reconnects_total",
			Help: "Market-data feed reconnect attempts",
		}),
		FeedTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "navcast_feed_ticks_total",
			Help: "Price ticks applied to the price store",
		}),
	}
	reg.MustRegister(m.CyclesTotal, m.CycleDuration, m.TickersTotal,
		m.MethodSelected, m.FeedReconnects, m.FeedTicks)
	return m
}

// ObserveCycle records one finished pass.
func (m *Metrics) ObserveCycle(d time.Duration, ok, failed int) {
	if m == nil {
		return
	}
	m.CyclesTotal.Inc()
	m.CycleDuration.Observe(d.Seconds())
	m.TickersTotal.WithLabelValues("ok").Add(float64(ok))
	m.TickersTotal.WithLabelValues("failed").Add(float64(failed))
}

// ObserveMethod records the method the hierarchy resolver settled on.
func (m *Metrics) ObserveMethod(method string) {
	if m == nil {
		return
	}
	m.MethodSelected.WithLabelValues(method).Inc()
}
