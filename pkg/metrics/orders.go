package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics tracks order placement outcomes and loyalty accrual.
type OrderMetrics struct {
	placed   prometheus.Counter
	failed   *prometheus.CounterVec
	duration prometheus.Histogram
	points   prometheus.Counter
}

func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	m := &OrderMetrics{
		placed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Orders committed successfully.",
		}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_failed_total",
			Help:      "Order placements rolled back, by error code.",
		}, []string{"reason"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_placement_duration_seconds",
			Help:      "Wall time of the order placement transaction.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		points: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "zep_points_awarded_total",
			Help:      "Zep Points credited by committed orders.",
		}),
	}
	reg.MustRegister(m.placed, m.failed, m.duration, m.points)
	return m
}

// ObservePlaced records a committed order and the points it earned.
func (m *OrderMetrics) ObservePlaced(d time.Duration, points int64) {
	if m == nil || m.placed == nil {
		return
	}
	m.placed.Inc()
	m.duration.Observe(d.Seconds())
	m.points.Add(float64(points))
}

// ObserveFailed records a rolled-back placement under reason.
func (m *OrderMetrics) ObserveFailed(d time.Duration, reason string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(reason)).Inc()
	m.duration.Observe(d.Seconds())
}
