// Package metrics instruments a local.World group with Prometheus
// collectors: a barrier-duration histogram, a blocked-processor gauge,
// and a per-queue delivered-message counter. It is optional — a
// Configuration with no MetricsSink simply skips all of this.
package metrics

import (
	"strconv"

	"github.com/jkazl/go-bsp/pkg/bsp"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector implements bsp.MetricsSink on top of a Prometheus registry.
type Collector struct {
	barrierDuration prometheus.Histogram
	blocked         prometheus.Gauge
	delivered       *prometheus.CounterVec
}

// NewCollector registers a fresh set of collectors on reg, prefixed with
// "bsp_", and returns a Collector ready to pass as bsp.WithMetrics.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		barrierDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bsp_barrier_duration_seconds",
			Help:    "Wall-clock time spent inside a single Sync call.",
			Buckets: prometheus.DefBuckets,
		}),
		blocked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bsp_processors_blocked",
			Help: "Number of processors currently blocked in Sync.",
		}),
		delivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bsp_queue_messages_delivered_total",
			Help: "Messages delivered into a queue's local buffer at a barrier.",
		}, []string{"queue"}),
	}
	reg.MustRegister(c.barrierDuration, c.blocked, c.delivered)
	return c
}

// ObserveBarrier implements bsp.MetricsSink.
func (c *Collector) ObserveBarrier(seconds float64) { c.barrierDuration.Observe(seconds) }

// IncBlocked implements bsp.MetricsSink.
func (c *Collector) IncBlocked() { c.blocked.Inc() }

// DecBlocked implements bsp.MetricsSink.
func (c *Collector) DecBlocked() { c.blocked.Dec() }

// AddDelivered implements bsp.MetricsSink.
func (c *Collector) AddDelivered(queue bsp.RegistrationID, n int) {
	c.delivered.WithLabelValues(strconv.Itoa(int(queue))).Add(float64(n))
}
