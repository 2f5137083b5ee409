// Package designflow provides a top-level convenience entry point for
// running design proposals through a multi-agent consensus engine with
// minimal boilerplate.
//
// Usage:
//
//	import "github.com/parametriq/designflow"
//
//	engine, err := designflow.New(designflow.WithDefaultAgents())
//	result, err := engine.Run(ctx, proposal, nil)
//
// This is a thin wrapper around the coordination, bus, and session
// packages; use those directly when you need finer control.
package designflow

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/parametriq/designflow/agents"
	"github.com/parametriq/designflow/bus"
	"github.com/parametriq/designflow/coordination"
	"github.com/parametriq/designflow/design"
	"github.com/parametriq/designflow/session"
)

// Engine bundles a coordinator and message bus ready to run sessions.
type Engine struct {
	coordinator *coordination.AgentCoordinator
	bus         *bus.MessageBus
	sessionCfg  session.Config
	logger      *zap.Logger
}

// Option configures the engine created by [New].
type Option func(*options)

type options struct {
	logger        *zap.Logger
	coordCfg      coordination.Config
	maxIterations int
	agents        []design.DesignAgent
	defaults      bool
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithCoordinatorConfig overrides the consensus thresholds and timeout.
func WithCoordinatorConfig(cfg coordination.Config) Option {
	return func(o *options) { o.coordCfg = cfg }
}

// WithMaxIterations overrides the per-session iteration budget.
func WithMaxIterations(n int) Option {
	return func(o *options) { o.maxIterations = n }
}

// WithAgent registers an agent with the engine's coordinator.
func WithAgent(agent design.DesignAgent) Option {
	return func(o *options) { o.agents = append(o.agents, agent) }
}

// WithDefaultAgents registers the standard review panel: architectural,
// safety, structural, and MEP specialists.
func WithDefaultAgents() Option {
	return func(o *options) { o.defaults = true }
}

// New creates an [Engine]. At minimum, at least one agent must be
// registered via [WithAgent] or [WithDefaultAgents].
func New(opts ...Option) (*Engine, error) {
	o := &options{
		logger:   zap.NewNop(),
		coordCfg: coordination.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.defaults {
		o.agents = append(o.agents,
			agents.NewArchitecturalAgent("arch-1", o.logger),
			agents.NewSafetyAgent("safety-1", o.logger),
			agents.NewStructuralAgent("struct-1", o.logger),
			agents.NewMEPAgent("mep-1", o.logger),
		)
	}
	if len(o.agents) == 0 {
		return nil, errors.New("designflow: at least one agent is required")
	}

	coordinator := coordination.NewAgentCoordinator(o.coordCfg, o.logger)
	for _, a := range o.agents {
		coordinator.RegisterAgent(a)
	}

	sessionCfg := session.DefaultConfig()
	if o.maxIterations > 0 {
		sessionCfg.MaxIterations = o.maxIterations
	}

	return &Engine{
		coordinator: coordinator,
		bus:         bus.NewMessageBus(o.logger),
		sessionCfg:  sessionCfg,
		logger:      o.logger,
	}, nil
}

// Coordinator exposes the underlying coordinator for agent management.
func (e *Engine) Coordinator() *coordination.AgentCoordinator { return e.coordinator }

// Bus exposes the underlying message bus for event subscriptions.
func (e *Engine) Bus() *bus.MessageBus { return e.bus }

// NewSession creates a collaborative session over the engine's
// coordinator and bus without running it.
func (e *Engine) NewSession(proposal *design.DesignProposal) *session.CollaborativeSession {
	return session.NewCollaborativeSession(e.coordinator, e.bus, proposal, e.sessionCfg, e.logger)
}

// Run drives a proposal through iterations until convergence or the
// iteration budget is exhausted, returning the terminal result.
func (e *Engine) Run(ctx context.Context, proposal *design.DesignProposal, ec *design.EvaluationContext) (*session.SessionResult, error) {
	return e.NewSession(proposal).RunToCompletion(ctx, 0, ec)
}

// Close shuts down the engine's message bus.
func (e *Engine) Close() {
	e.bus.Close()
}
