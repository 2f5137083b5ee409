package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCollector_RegistersAndCounts(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	c := NewCollector("designflow", reg, zap.NewNop())

	c.RecordConsensusRound("consensus", 50*time.Millisecond)
	c.RecordConsensusRound("consensus", 30*time.Millisecond)
	c.RecordConsensusRound("disagreement", 10*time.Millisecond)

	c.RecordAgentEvaluation("safety", 5*time.Millisecond)
	c.RecordAgentFailure("mep")

	c.RecordSessionIteration("converged", 100*time.Millisecond)
	c.SessionStarted()
	c.SessionStarted()
	c.SessionEnded()

	c.RecordBusPublish("session.iteration.complete")
	c.RecordBusDrop("session.iteration.complete")

	assert.Equal(t, float64(2), testutil.ToFloat64(
		c.consensusRoundsTotal.WithLabelValues("consensus")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		c.consensusRoundsTotal.WithLabelValues("disagreement")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		c.agentEvaluationsTotal.WithLabelValues("safety")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		c.agentFailuresTotal.WithLabelValues("mep")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		c.sessionIterationsTotal.WithLabelValues("converged")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.sessionsActive))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		c.busPublishedTotal.WithLabelValues("session.iteration.complete")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		c.busDroppedTotal.WithLabelValues("session.iteration.complete")))
}

func TestCollector_IndependentRegistries(t *testing.T) {
	t.Parallel()
	// two collectors must not collide when given separate registries
	a := NewCollector("designflow", prometheus.NewRegistry(), nil)
	b := NewCollector("designflow", prometheus.NewRegistry(), nil)

	a.RecordBusPublish("topic")

	assert.Equal(t, float64(1), testutil.ToFloat64(a.busPublishedTotal.WithLabelValues("topic")))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.busPublishedTotal.WithLabelValues("topic")))
}

func TestCollector_MetricNames(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	c := NewCollector("designflow", reg, nil)
	c.RecordConsensusRound("consensus", time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "designflow_consensus_rounds_total")
	assert.Contains(t, names, "designflow_consensus_round_duration_seconds")
}
