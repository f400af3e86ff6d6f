package metrics

import "github.com/prometheus/client_golang/prometheus"

// TrustScoreMetrics counts computations per resulting level.
type TrustScoreMetrics struct {
	computed *prometheus.CounterVec
	scores   prometheus.Histogram
}

func NewTrustScoreMetrics(reg prometheus.Registerer) *TrustScoreMetrics {
	if reg == nil {
		return &TrustScoreMetrics{}
	}
	m := &TrustScoreMetrics{
		computed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trust_score_computations_total",
			Help:      "Trust score computations by level.",
		}, []string{"level"}),
		scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "trust_score_value",
			Help:      "Distribution of computed trust scores.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
	}
	reg.MustRegister(m.computed, m.scores)
	return m
}

func (m *TrustScoreMetrics) Observe(level string, score float64) {
	if m == nil || m.computed == nil {
		return
	}
	m.computed.WithLabelValues(normalizeLabel(level)).Inc()
	m.scores.Observe(score)
}
