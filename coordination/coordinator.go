package coordination

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/parametriq/designflow/design"
	"github.com/parametriq/designflow/internal/metrics"
)

// tracerName 用于共识链路追踪
const tracerName = "github.com/parametriq/designflow/coordination"

// Config 协调器配置
type Config struct {
	// ApprovalThreshold is the minimum mean score for approval.
	ApprovalThreshold float64 `json:"approval_threshold" yaml:"approval_threshold"`

	// ConsensusSpread is the maximum score spread (max-min) for the
	// result to be classified as full consensus rather than majority.
	ConsensusSpread float64 `json:"consensus_spread" yaml:"consensus_spread"`

	// EvaluationTimeout bounds a single consensus round. Zero disables
	// the bound; the caller's context still applies.
	EvaluationTimeout time.Duration `json:"evaluation_timeout" yaml:"evaluation_timeout"`
}

// DefaultConfig 返回默认协调器配置
func DefaultConfig() Config {
	return Config{
		ApprovalThreshold: 0.7,
		ConsensusSpread:   0.15,
		EvaluationTimeout: 2 * time.Minute,
	}
}

// AgentCoordinator 管理专家 Agent 注册表并计算共识
type AgentCoordinator struct {
	mu     sync.RWMutex
	agents map[string]design.DesignAgent

	config    Config
	logger    *zap.Logger
	collector *metrics.Collector
}

// NewAgentCoordinator 创建协调器
func NewAgentCoordinator(config Config, logger *zap.Logger) *AgentCoordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.ApprovalThreshold <= 0 {
		config.ApprovalThreshold = DefaultConfig().ApprovalThreshold
	}
	if config.ConsensusSpread <= 0 {
		config.ConsensusSpread = DefaultConfig().ConsensusSpread
	}

	return &AgentCoordinator{
		agents: make(map[string]design.DesignAgent),
		config: config,
		logger: logger.With(zap.String("component", "agent_coordinator")),
	}
}

// SetCollector 注入指标收集器（可选）
func (c *AgentCoordinator) SetCollector(collector *metrics.Collector) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.collector = collector
}

// RegisterAgent registers an agent keyed by its ID. Registering an agent
// whose ID is already present is a no-op.
func (c *AgentCoordinator) RegisterAgent(agent design.DesignAgent) {
	if agent == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.agents[agent.ID()]; exists {
		c.logger.Debug("agent already registered",
			zap.String("agent_id", agent.ID()),
		)
		return
	}

	c.agents[agent.ID()] = agent
	c.logger.Info("agent registered",
		zap.String("agent_id", agent.ID()),
		zap.String("specialty", string(agent.Specialty())),
	)
}

// UnregisterAgent removes the agent with the given ID. No-op if absent.
func (c *AgentCoordinator) UnregisterAgent(agentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.agents[agentID]; !exists {
		return
	}

	delete(c.agents, agentID)
	c.logger.Info("agent unregistered", zap.String("agent_id", agentID))
}

// AgentCount 返回注册表大小
func (c *AgentCoordinator) AgentCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.agents)
}

// activeSnapshot copies the active-agent list before dispatch so an
// in-flight consensus round never races with (un)registration.
func (c *AgentCoordinator) activeSnapshot() []design.DesignAgent {
	c.mu.RLock()
	defer c.mu.RUnlock()

	agents := make([]design.DesignAgent, 0, len(c.agents))
	for _, a := range c.agents {
		if a.IsActive() {
			agents = append(agents, a)
		}
	}

	// Stable dispatch order; aggregation itself is order-independent.
	sort.Slice(agents, func(i, j int) bool { return agents[i].ID() < agents[j].ID() })

	return agents
}

// GetConsensus fans the proposal out to every active agent concurrently
// and aggregates their opinions into a ConsensusResult.
//
// Cancellation of ctx aborts the round and is propagated to the caller;
// no partial result is returned. A single failing agent is isolated: its
// opinion is excluded and the failure logged.
func (c *AgentCoordinator) GetConsensus(ctx context.Context, proposal *design.DesignProposal, ec *design.EvaluationContext) (*design.ConsensusResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()

	agents := c.activeSnapshot()
	if len(agents) == 0 {
		c.logger.Warn("consensus requested with no active agents")
		return &design.ConsensusResult{
			Status:     design.StatusNoAgents,
			IsApproved: false,
			Message:    "No active agents registered for consensus evaluation",
		}, nil
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "coordination.GetConsensus",
		trace.WithAttributes(
			attribute.String("proposal.id", proposal.ID),
			attribute.Int("agents.active", len(agents)),
		),
	)
	defer span.End()

	if c.config.EvaluationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.EvaluationTimeout)
		defer cancel()
	}

	opinions := make([]*design.AgentOpinion, len(agents))

	g, gctx := errgroup.WithContext(ctx)
	for i, a := range agents {
		g.Go(func() error {
			evalStart := time.Now()
			opinion, err := a.Evaluate(gctx, proposal, ec)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				// Isolate a failing agent instead of aborting the
				// whole round.
				c.logger.Warn("agent evaluation failed, opinion excluded",
					zap.String("agent_id", a.ID()),
					zap.String("specialty", string(a.Specialty())),
					zap.Error(err),
				)
				if c.collector != nil {
					c.collector.RecordAgentFailure(string(a.Specialty()))
				}
				return nil
			}
			if c.collector != nil {
				c.collector.RecordAgentEvaluation(string(a.Specialty()), time.Since(evalStart))
			}
			opinions[i] = opinion
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	collected := make([]design.AgentOpinion, 0, len(opinions))
	for _, op := range opinions {
		if op != nil {
			collected = append(collected, *op)
		}
	}

	var result *design.ConsensusResult
	if len(collected) == 0 {
		result = &design.ConsensusResult{
			Status:     design.StatusNoAgents,
			IsApproved: false,
			Message:    "No active agents produced an opinion (all evaluations failed)",
		}
	} else {
		result = c.classify(collected)
	}

	if c.collector != nil {
		c.collector.RecordConsensusRound(string(result.Status), time.Since(start))
	}

	c.logger.Info("consensus computed",
		zap.String("proposal_id", proposal.ID),
		zap.String("status", string(result.Status)),
		zap.Bool("approved", result.IsApproved),
		zap.Int("opinions", len(result.Opinions)),
	)

	return result, nil
}

// CollectSuggestions queries every active agent for improvement ideas and
// unions the results. Per-agent failures are isolated the same way as in
// GetConsensus.
func (c *AgentCoordinator) CollectSuggestions(ctx context.Context, dc *design.DesignContext) ([]design.AgentSuggestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	agents := c.activeSnapshot()
	if len(agents) == 0 {
		return nil, nil
	}

	perAgent := make([][]design.AgentSuggestion, len(agents))

	g, gctx := errgroup.WithContext(ctx)
	for i, a := range agents {
		g.Go(func() error {
			suggestions, err := a.Suggest(gctx, dc)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				c.logger.Warn("agent suggestion collection failed",
					zap.String("agent_id", a.ID()),
					zap.Error(err),
				)
				return nil
			}
			perAgent[i] = suggestions
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []design.AgentSuggestion
	for _, s := range perAgent {
		all = append(all, s...)
	}

	return all, nil
}

// ValidateAction calls ValidateAction on every registered agent
// synchronously, ANDs IsValid across all and unions issues and warnings.
// A single rejecting agent makes the aggregate invalid.
func (c *AgentCoordinator) ValidateAction(action *design.DesignAction) *design.ValidationResult {
	c.mu.RLock()
	agents := make([]design.DesignAgent, 0, len(c.agents))
	for _, a := range c.agents {
		agents = append(agents, a)
	}
	c.mu.RUnlock()

	aggregate := &design.ValidationResult{IsValid: true}

	for _, a := range agents {
		result := a.ValidateAction(action)
		if result == nil {
			continue
		}
		if !result.IsValid {
			aggregate.IsValid = false
		}
		aggregate.Warnings = append(aggregate.Warnings, result.Warnings...)
		aggregate.Issues = append(aggregate.Issues, result.Issues...)
	}

	return aggregate
}
