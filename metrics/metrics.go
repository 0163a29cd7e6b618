// Package metrics 定义推荐服务的 Prometheus 指标，通过 /metrics 暴露。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 请求结果
const (
	OutcomeOK              = "ok"
	OutcomeEmpty           = "empty"
	OutcomeClassifierError = "classifier_error"
	OutcomeError           = "error"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodrec_requests_total",
			Help: "Total number of recommendation requests by outcome",
		},
		[]string{"outcome"},
	)

	RequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "moodrec_request_duration_seconds",
			Help:    "End-to-end recommendation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	RecommendationsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "moodrec_recommendations_returned",
			Help:    "Number of recommendations returned per request",
			Buckets: []float64{0, 1, 3, 5, 8, 12, 16, 20, 24},
		},
	)

	ClassifierDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moodrec_classifier_duration_seconds",
			Help:    "Mood classifier latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"classifier"},
	)

	ClassifierErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodrec_classifier_errors_total",
			Help: "Total number of mood classifier errors by code",
		},
		[]string{"classifier", "code"},
	)

	CorpusBooks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "moodrec_corpus_books",
			Help: "Number of books in the loaded corpus",
		},
	)

	ClassifierCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodrec_classifier_cache_total",
			Help: "Classifier cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)
)

// ObserveRequest 记录一次推荐请求。
func ObserveRequest(outcome string, started time.Time, returned int) {
	RequestsTotal.WithLabelValues(outcome).Inc()
	RequestDuration.Observe(time.Since(started).Seconds())
	if outcome == OutcomeOK || outcome == OutcomeEmpty {
		RecommendationsReturned.Observe(float64(returned))
	}
}

// ObserveClassifier 记录一次分类器调用；code 为空表示成功。
func ObserveClassifier(name string, started time.Time, code string) {
	ClassifierDuration.WithLabelValues(name).Observe(time.Since(started).Seconds())
	if code != "" {
		ClassifierErrors.WithLabelValues(name, code).Inc()
	}
}
