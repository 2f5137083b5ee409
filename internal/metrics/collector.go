// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// 共识指标
	consensusRoundsTotal   *prometheus.CounterVec
	consensusRoundDuration *prometheus.HistogramVec

	// Agent 指标
	agentEvaluationsTotal   *prometheus.CounterVec
	agentEvaluationDuration *prometheus.HistogramVec
	agentFailuresTotal      *prometheus.CounterVec

	// Session 指标
	sessionIterationsTotal   *prometheus.CounterVec
	sessionIterationDuration *prometheus.HistogramVec
	sessionsActive           prometheus.Gauge

	// 消息总线指标
	busPublishedTotal *prometheus.CounterVec
	busDroppedTotal   *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器
// reg 为 nil 时使用 prometheus.DefaultRegisterer
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// 共识指标
	c.consensusRoundsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consensus_rounds_total",
			Help:      "Total number of consensus rounds by resulting status",
		},
		[]string{"status"},
	)

	c.consensusRoundDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "consensus_round_duration_seconds",
			Help:      "Consensus round duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	// Agent 指标
	c.agentEvaluationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_evaluations_total",
			Help:      "Total number of agent evaluations",
		},
		[]string{"specialty"},
	)

	c.agentEvaluationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "agent_evaluation_duration_seconds",
			Help:      "Agent evaluation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"specialty"},
	)

	c.agentFailuresTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_failures_total",
			Help:      "Total number of isolated agent evaluation failures",
		},
		[]string{"specialty"},
	)

	// Session 指标
	c.sessionIterationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_iterations_total",
			Help:      "Total number of session iterations by session status",
		},
		[]string{"status"},
	)

	c.sessionIterationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_iteration_duration_seconds",
			Help:      "Session iteration duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	c.sessionsActive = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of sessions currently in the active state",
		},
	)

	// 消息总线指标
	c.busPublishedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bus_published_total",
			Help:      "Total number of messages published per topic",
		},
		[]string{"topic"},
	)

	c.busDroppedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bus_dropped_total",
			Help:      "Total number of messages dropped due to full subscriber buffers",
		},
		[]string{"topic"},
	)

	return c
}

// RecordConsensusRound 记录一轮共识
func (c *Collector) RecordConsensusRound(status string, duration time.Duration) {
	c.consensusRoundsTotal.WithLabelValues(status).Inc()
	c.consensusRoundDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordAgentEvaluation 记录一次 Agent 评估
func (c *Collector) RecordAgentEvaluation(specialty string, duration time.Duration) {
	c.agentEvaluationsTotal.WithLabelValues(specialty).Inc()
	c.agentEvaluationDuration.WithLabelValues(specialty).Observe(duration.Seconds())
}

// RecordAgentFailure 记录一次被隔离的 Agent 失败
func (c *Collector) RecordAgentFailure(specialty string) {
	c.agentFailuresTotal.WithLabelValues(specialty).Inc()
}

// RecordSessionIteration 记录一次会话迭代
func (c *Collector) RecordSessionIteration(status string, duration time.Duration) {
	c.sessionIterationsTotal.WithLabelValues(status).Inc()
	c.sessionIterationDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// SessionStarted 会话进入 active 状态
func (c *Collector) SessionStarted() {
	c.sessionsActive.Inc()
}

// SessionEnded 会话离开 active 状态
func (c *Collector) SessionEnded() {
	c.sessionsActive.Dec()
}

// RecordBusPublish 记录一次总线发布
func (c *Collector) RecordBusPublish(topic string) {
	c.busPublishedTotal.WithLabelValues(topic).Inc()
}

// RecordBusDrop 记录一次因订阅者缓冲满导致的丢弃
func (c *Collector) RecordBusDrop(topic string) {
	c.busDroppedTotal.WithLabelValues(topic).Inc()
}
