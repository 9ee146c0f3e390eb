package stat7

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements MetricsCollector on top of Prometheus
// counters and histograms. Register it once per engine:
//
//	mc := stat7.NewPrometheusCollector(prometheus.DefaultRegisterer, "stat7")
//	eng, err := stat7.New(stat7.WithMetricsCollector(mc))
type PrometheusCollector struct {
	ops        *prometheus.CounterVec
	opErrors   *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	rangeMatch prometheus.Histogram
}

// NewPrometheusCollector creates and registers a PrometheusCollector. If reg
// is nil, prometheus.DefaultRegisterer is used. namespace prefixes every
// metric name.
func NewPrometheusCollector(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &PrometheusCollector{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Total operations by kind.",
		}, []string{"op"}),
		opErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Failed operations by kind.",
		}, []string{"op"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Operation latency by kind.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
		}, []string{"op"}),
		rangeMatch: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "range_query_matches",
			Help:      "Entities yielded per range query.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
	}

	reg.MustRegister(c.ops, c.opErrors, c.durations, c.rangeMatch)
	return c
}

func (c *PrometheusCollector) record(op string, duration time.Duration, err error) {
	c.ops.WithLabelValues(op).Inc()
	c.durations.WithLabelValues(op).Observe(duration.Seconds())
	if err != nil {
		c.opErrors.WithLabelValues(op).Inc()
	}
}

// RecordSubmit implements MetricsCollector.
func (c *PrometheusCollector) RecordSubmit(duration time.Duration, err error) {
	c.record("submit", duration, err)
}

// RecordBatchSubmit implements MetricsCollector.
func (c *PrometheusCollector) RecordBatchSubmit(count, failed int, duration time.Duration) {
	c.ops.WithLabelValues("batch_submit").Inc()
	c.durations.WithLabelValues("batch_submit").Observe(duration.Seconds())
	if failed > 0 {
		c.opErrors.WithLabelValues("batch_submit").Add(float64(failed))
	}
}

// RecordLookup implements MetricsCollector.
func (c *PrometheusCollector) RecordLookup(duration time.Duration, found bool) {
	c.record("lookup", duration, nil)
	if !found {
		c.ops.WithLabelValues("lookup_miss").Inc()
	}
}

// RecordDelete implements MetricsCollector.
func (c *PrometheusCollector) RecordDelete(duration time.Duration, err error) {
	c.record("delete", duration, err)
}

// RecordRangeQuery implements MetricsCollector.
func (c *PrometheusCollector) RecordRangeQuery(matched int, duration time.Duration) {
	c.record("range_query", duration, nil)
	c.rangeMatch.Observe(float64(matched))
}

// RecordHybridQuery implements MetricsCollector.
func (c *PrometheusCollector) RecordHybridQuery(k int, duration time.Duration, err error) {
	c.record("hybrid_query", duration, err)
}

// RecordCompress implements MetricsCollector.
func (c *PrometheusCollector) RecordCompress(stages int, duration time.Duration, err error) {
	c.record("compress", duration, err)
}

// RecordExpand implements MetricsCollector.
func (c *PrometheusCollector) RecordExpand(duration time.Duration, err error) {
	c.record("expand", duration, err)
}
