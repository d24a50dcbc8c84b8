package feed

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rushteam/foryou/pipeline"
)

// Feed 请求结果
const (
	outcomeOK          = "ok"
	outcomeEmpty       = "empty"
	outcomeUnavailable = "unavailable"
	outcomeInvalid     = "invalid"
)

type metrics struct {
	requests     *prometheus.CounterVec
	duration     prometheus.Histogram
	candidates   prometheus.Histogram
	nodeDuration *prometheus.HistogramVec
	filterErrors *prometheus.CounterVec
	records      *prometheus.CounterVec
}

// newMetrics 在 reg 上注册指标；reg 为 nil 时指标只在内存中计数，不对外暴露。
// 同一 Registerer 上只能注册一个 Assembler。
func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foryou_feed_requests_total",
				Help: "Total number of For You feed requests by outcome",
			},
			[]string{"outcome", "personalized"},
		),
		duration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "foryou_feed_duration_seconds",
				Help:    "For You feed assembly duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
		),
		candidates: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "foryou_feed_candidates",
				Help:    "Number of recalled candidates per feed request",
				Buckets: []float64{0, 5, 10, 25, 50, 100, 200},
			},
		),
		nodeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "foryou_pipeline_node_duration_seconds",
				Help:    "Pipeline node execution duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"node", "kind"},
		),
		filterErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foryou_filter_errors_total",
				Help: "Total number of filter errors (filters fail open)",
			},
			[]string{"filter"},
		),
		records: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foryou_interactions_recorded_total",
				Help: "Total number of recorded interactions by kind and result",
			},
			[]string{"kind", "result"},
		),
	}
}

func (m *metrics) observeRequest(outcome string, personalized bool, elapsed time.Duration) {
	p := "false"
	if personalized {
		p = "true"
	}
	m.requests.WithLabelValues(outcome, p).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// ObserveNode 实现 pipeline.Observer。
func (m *metrics) ObserveNode(node pipeline.Node, _, _ int, elapsed time.Duration, _ error) {
	m.nodeDuration.WithLabelValues(node.Name(), string(node.Kind())).Observe(elapsed.Seconds())
}
