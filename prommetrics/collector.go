// Package prommetrics exports registry metrics to Prometheus.
//
//	c := prommetrics.New(prometheus.DefaultRegisterer)
//	r := propdex.New(propdex.WithMetricsCollector(c))
//	http.Handle("/metrics", promhttp.Handler())
package prommetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/propdex"
)

const namespace = "propdex"

var _ propdex.MetricsCollector = (*Collector)(nil)

// Collector implements propdex.MetricsCollector with Prometheus metrics.
type Collector struct {
	opLatency   *prometheus.HistogramVec
	inserts     *prometheus.CounterVec
	lookups     *prometheus.CounterVec
	registers   *prometheus.CounterVec
	loadRecords *prometheus.CounterVec
}

// New creates a collector and registers its metrics with reg.
// A nil reg leaves the metrics unregistered.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_latency_seconds",
			Help:      "Latency of index operations",
			Buckets:   prometheus.ExponentialBuckets(1e-7, 4, 12),
		}, []string{"op", "status"}),
		inserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inserts_total",
			Help:      "Entity inserts by property",
		}, []string{"property", "status"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Lookups by property and result",
		}, []string{"property", "result"}),
		registers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Property and composite registrations",
		}, []string{"status"}),
		loadRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_records_total",
			Help:      "Records passed to bulk loads",
		}, []string{"status"}),
	}

	if reg != nil {
		reg.MustRegister(c.opLatency, c.inserts, c.lookups, c.registers, c.loadRecords)
	}
	return c
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordInsert implements propdex.MetricsCollector.
func (c *Collector) RecordInsert(property string, d time.Duration, err error) {
	s := status(err)
	c.opLatency.WithLabelValues("insert", s).Observe(d.Seconds())
	c.inserts.WithLabelValues(property, s).Inc()
}

// RecordLookup implements propdex.MetricsCollector.
func (c *Collector) RecordLookup(property string, hit bool, d time.Duration) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.opLatency.WithLabelValues("lookup", "success").Observe(d.Seconds())
	c.lookups.WithLabelValues(property, result).Inc()
}

// RecordRegister implements propdex.MetricsCollector.
func (c *Collector) RecordRegister(_ string, err error) {
	c.registers.WithLabelValues(status(err)).Inc()
}

// RecordLoad implements propdex.MetricsCollector.
func (c *Collector) RecordLoad(count, failed int, d time.Duration) {
	c.opLatency.WithLabelValues("load", "success").Observe(d.Seconds())
	c.loadRecords.WithLabelValues("success").Add(float64(count - failed))
	c.loadRecords.WithLabelValues("error").Add(float64(failed))
}
