package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 邮件分流计数
	EmailTriagedCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "email_triaged_count",
			Help: "Total number of emails run through triage",
		},
		[]string{"outcome"}, // outcome: automated, no_match, error
	)

	// 规则命中计数
	RuleMatchedCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rule_matched_count",
			Help: "Total number of rule matches by selected action",
		},
		[]string{"action"},
	)

	// 命令解析计数
	CommandResolvedCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "command_resolved_count",
			Help: "Total number of resolved chat commands",
		},
		[]string{"intent", "strategy"}, // strategy: keyword, classifier
	)

	// 分类器降级计数
	ClassifierFallbackCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "classifier_fallback_count",
			Help: "Total number of classifier failures recovered by the keyword strategy",
		},
	)

	// 分类器调用延迟（毫秒）
	ClassifierCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "classifier_call_latency_ms",
			Help:    "External classifier call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(100, 2, 10), // 100ms to ~100s
		},
		[]string{"status"},
	)

	// 分流处理延迟（毫秒）
	TriageDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "triage_duration_ms",
			Help:    "Per-email triage duration in milliseconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1ms to ~4s
		},
	)

	// MQ 消费延迟（毫秒）
	MQConsumeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mq_consume_latency_ms",
			Help:    "MQ message consumption latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"routing_key", "queue"},
	)

	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)
)

// IncrementEmailTriaged 增加邮件分流计数
func IncrementEmailTriaged(outcome string) {
	EmailTriagedCount.WithLabelValues(outcome).Inc()
}

// IncrementRuleMatched 增加规则命中计数
func IncrementRuleMatched(action string) {
	RuleMatchedCount.WithLabelValues(action).Inc()
}

// IncrementCommandResolved 增加命令解析计数
func IncrementCommandResolved(intent, strategy string) {
	CommandResolvedCount.WithLabelValues(intent, strategy).Inc()
}

// IncrementClassifierFallback 增加分类器降级计数
func IncrementClassifierFallback() {
	ClassifierFallbackCount.Inc()
}

// RecordClassifierCallLatency 记录分类器调用延迟
func RecordClassifierCallLatency(status string, duration time.Duration) {
	ClassifierCallLatency.WithLabelValues(status).Observe(float64(duration.Milliseconds()))
}

// RecordTriageDuration 记录分流处理延迟
func RecordTriageDuration(duration time.Duration) {
	TriageDuration.Observe(float64(duration.Milliseconds()))
}

// RecordMQConsumeLatency 记录 MQ 消费延迟
func RecordMQConsumeLatency(routingKey, queue string, duration time.Duration) {
	MQConsumeLatency.WithLabelValues(routingKey, queue).Observe(float64(duration.Milliseconds()))
}

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
