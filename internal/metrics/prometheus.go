package metrics

import (
	"strconv"
	"sync"

	"github.com/arloliu/keysplit/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
//
// Collectors are created and registered lazily on first use, so constructing a
// PrometheusCollector never panics on duplicate registration by itself. Two
// collectors recording into the same registry and namespace do panic.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	solveTotal         *prometheus.CounterVec
	solveDuration      prometheus.Histogram
	partitionsLast     prometheus.Gauge
	partitionsTotal    prometheus.Counter
	diffDuration       prometheus.Histogram
	diffKeys           *prometheus.CounterVec
	plansPublished     prometheus.Counter
	planVersion        prometheus.Gauge
	publishedPartition prometheus.Counter
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "keysplit" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "keysplit"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		factory := promauto.With(p.reg)

		p.solveTotal = factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "planner",
			Name:      "solve_total",
			Help:      "Total partition-count solver runs by outcome.",
		}, []string{"success"})

		p.solveDuration = factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "planner",
			Name:      "solve_duration_seconds",
			Help:      "Latency of partition-count solver runs in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8), // 100us .. ~1.6s
		})

		p.partitionsLast = factory.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "planner",
			Name:      "partitions_last",
			Help:      "Number of keyspace partitions produced by the latest pass.",
		})

		p.partitionsTotal = factory.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "planner",
			Name:      "partitions_generated_total",
			Help:      "Total keyspace partitions produced.",
		})

		p.diffDuration = factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "diff",
			Name:      "duration_seconds",
			Help:      "Latency of dataset diff computations in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2.5, 10),
		})

		p.diffKeys = factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "diff",
			Name:      "keys_total",
			Help:      "Total keys classified by facet (files,metadata) and category.",
		}, []string{"facet", "category"})

		p.plansPublished = factory.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "publish",
			Name:      "plans_total",
			Help:      "Total plans published to the KV bucket.",
		})

		p.planVersion = factory.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "publish",
			Name:      "plan_version",
			Help:      "Version of the latest published plan.",
		})

		p.publishedPartition = factory.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "publish",
			Name:      "partitions_total",
			Help:      "Total partitions handed off through published plans.",
		})
	})
}

// RecordSolve counts a solver run and observes its latency.
func (p *PrometheusCollector) RecordSolve(duration float64, success bool) {
	p.ensureRegistered()
	p.solveTotal.WithLabelValues(strconv.FormatBool(success)).Inc()
	p.solveDuration.Observe(duration)
}

// RecordPartitionsGenerated sets the last-pass gauge and bumps the running total.
func (p *PrometheusCollector) RecordPartitionsGenerated(count int) {
	p.ensureRegistered()
	p.partitionsLast.Set(float64(count))
	p.partitionsTotal.Add(float64(count))
}

// RecordDiffDuration observes diff latency.
func (p *PrometheusCollector) RecordDiffDuration(duration float64) {
	p.ensureRegistered()
	p.diffDuration.Observe(duration)
}

// RecordDiffKeys adds count keys to the facet/category counter.
func (p *PrometheusCollector) RecordDiffKeys(facet, category string, count int) {
	p.ensureRegistered()
	p.diffKeys.WithLabelValues(facet, category).Add(float64(count))
}

// RecordPlanPublished records a published plan.
func (p *PrometheusCollector) RecordPlanPublished(partitions int, version int64) {
	p.ensureRegistered()
	p.plansPublished.Inc()
	p.planVersion.Set(float64(version))
	p.publishedPartition.Add(float64(partitions))
}
