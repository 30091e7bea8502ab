package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector 基于独立 Registry 的 Prometheus 指标收集器
type PrometheusCollector struct {
	lockAcquire       *prometheus.CounterVec
	guardRetries      prometheus.Counter
	likeConflicts     prometheus.Counter
	rankingOps        *prometheus.CounterVec
	similarCandidates prometheus.Histogram
	registry          *prometheus.Registry
}

// NewCollector 创建 Prometheus 指标收集器
func NewCollector() *PrometheusCollector {
	registry := prometheus.NewRegistry()

	lockAcquire := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "melorank_lock_acquire_total",
			Help: "Distributed lock acquisition attempts by result",
		},
		[]string{"result"},
	)

	guardRetries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "melorank_guard_retries_total",
		Help: "Retries caused by lock contention inside the guarded executor",
	})

	likeConflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "melorank_like_conflicts_total",
		Help: "Like toggles rejected after exhausting lock retries",
	})

	rankingOps := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "melorank_ranking_ops_total",
			Help: "Ranking store operations by type and status",
		},
		[]string{"op", "status"},
	)

	similarCandidates := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "melorank_similar_candidates",
		Help:    "Number of candidates scored per similar-songs request",
		Buckets: []float64{0, 10, 50, 100, 250, 500, 1000, 5000},
	})

	registry.MustRegister(lockAcquire, guardRetries, likeConflicts, rankingOps, similarCandidates)

	return &PrometheusCollector{
		lockAcquire:       lockAcquire,
		guardRetries:      guardRetries,
		likeConflicts:     likeConflicts,
		rankingOps:        rankingOps,
		similarCandidates: similarCandidates,
		registry:          registry,
	}
}

func (m *PrometheusCollector) LockAcquire(result string) {
	m.lockAcquire.WithLabelValues(result).Inc()
}

func (m *PrometheusCollector) GuardRetry() {
	m.guardRetries.Inc()
}

func (m *PrometheusCollector) LikeConflict() {
	m.likeConflicts.Inc()
}

func (m *PrometheusCollector) RankingOp(op, status string) {
	m.rankingOps.WithLabelValues(op, status).Inc()
}

func (m *PrometheusCollector) SimilarCandidates(n int) {
	m.similarCandidates.Observe(float64(n))
}

// Registry 返回 Prometheus Registry，用于 HTTP 暴露
func (m *PrometheusCollector) Registry() *prometheus.Registry {
	return m.registry
}

var _ Collector = (*PrometheusCollector)(nil)
