// Package session drives bounded iterative refinement of one design
// proposal: each iteration asks the coordinator for consensus, collects
// agent suggestions when not yet approved, updates the session status, and
// publishes an iteration-complete event on the message bus.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/parametriq/designflow/bus"
	"github.com/parametriq/designflow/coordination"
	"github.com/parametriq/designflow/design"
	"github.com/parametriq/designflow/internal/metrics"
)

// TopicIterationComplete is published on the bus after every completed
// iteration, carrying an *IterationEvent payload.
const TopicIterationComplete = "session.iteration.complete"

// tracerName 用于会话链路追踪
const tracerName = "github.com/parametriq/designflow/session"

// ErrSessionTerminal is returned by Iterate once the session has reached
// Converged or MaxIterations. Terminal sessions are read-only.
var ErrSessionTerminal = errors.New("session is in a terminal state")

// Status 会话状态
type Status string

const (
	StatusActive        Status = "active"
	StatusConverged     Status = "converged"
	StatusMaxIterations Status = "max_iterations"
)

// Terminal reports whether no further iterations are permitted.
func (s Status) Terminal() bool {
	return s == StatusConverged || s == StatusMaxIterations
}

// Config 会话配置
type Config struct {
	// MaxIterations is the iteration budget (default 10).
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`
}

// DefaultConfig 返回默认会话配置
func DefaultConfig() Config {
	return Config{MaxIterations: 10}
}

// DesignIteration records one refinement iteration. InputProposal and
// OutputProposal are identical in this core; the output field exists for
// a future revision step driven by suggestions.
type DesignIteration struct {
	IterationNumber int                      `json:"iteration_number"`
	StartTime       time.Time                `json:"start_time"`
	EndTime         time.Time                `json:"end_time"`
	Duration        time.Duration            `json:"duration"`
	InputProposal   *design.DesignProposal   `json:"input_proposal"`
	OutputProposal  *design.DesignProposal   `json:"output_proposal"`
	Consensus       *design.ConsensusResult  `json:"consensus_result"`
	Suggestions     []design.AgentSuggestion `json:"suggestions,omitempty"`
}

// SessionResult is the terminal snapshot of a completed session.
type SessionResult struct {
	SessionID      string                  `json:"session_id"`
	Status         Status                  `json:"status"`
	IterationCount int                     `json:"iteration_count"`
	FinalProposal  *design.DesignProposal  `json:"final_proposal"`
	FinalConsensus *design.ConsensusResult `json:"final_consensus"`
	Iterations     []DesignIteration       `json:"iterations"`
}

// IterationEvent is the bus payload published under
// TopicIterationComplete.
type IterationEvent struct {
	SessionID string           `json:"session_id"`
	Status    Status           `json:"status"`
	Iteration *DesignIteration `json:"iteration"`
}

// CollaborativeSession drives one proposal through bounded iterative
// refinement. Iterations are strictly sequential per session; the
// shared-state store may be read and written from concurrent contexts.
type CollaborativeSession struct {
	id          string
	coordinator *coordination.AgentCoordinator
	bus         *bus.MessageBus
	config      Config
	logger      *zap.Logger
	collector   *metrics.Collector

	// mu serializes Iterate and guards the fields below.
	mu             sync.Mutex
	iterationCount int
	status         Status
	current        *design.DesignProposal
	iterations     []DesignIteration
	lastConsensus  *design.ConsensusResult

	state *sharedState
}

// NewCollaborativeSession creates a session over one initial proposal.
// The 8-character session identifier is generated once and never changes.
func NewCollaborativeSession(coordinator *coordination.AgentCoordinator, messageBus *bus.MessageBus, proposal *design.DesignProposal, config Config, logger *zap.Logger) *CollaborativeSession {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxIterations <= 0 {
		config.MaxIterations = DefaultConfig().MaxIterations
	}

	id := uuid.New().String()[:8]

	return &CollaborativeSession{
		id:          id,
		coordinator: coordinator,
		bus:         messageBus,
		config:      config,
		logger: logger.With(
			zap.String("component", "collaborative_session"),
			zap.String("session_id", id),
		),
		status:  StatusActive,
		current: proposal,
		state:   newSharedState(),
	}
}

// SetCollector 注入指标收集器（可选）
func (s *CollaborativeSession) SetCollector(collector *metrics.Collector) {
	s.collector = collector
}

// ID 返回会话标识（8 字符，进程内唯一）
func (s *CollaborativeSession) ID() string { return s.id }

// Status 返回当前会话状态
func (s *CollaborativeSession) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// IterationCount 返回已完成的迭代次数
func (s *CollaborativeSession) IterationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.iterationCount
}

// CurrentProposal 返回会话当前持有的 proposal
func (s *CollaborativeSession) CurrentProposal() *design.DesignProposal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Iterate runs one refinement iteration: consensus, status update,
// suggestion collection when not approved, and event publication.
//
// A cancelled context fails the call before any state is mutated. Calling
// Iterate on a terminal session returns ErrSessionTerminal.
func (s *CollaborativeSession) Iterate(ctx context.Context, ec *design.EvaluationContext) (*DesignIteration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status.Terminal() {
		return nil, ErrSessionTerminal
	}

	next := s.iterationCount + 1

	ctx, span := otel.Tracer(tracerName).Start(ctx, "session.Iterate",
		trace.WithAttributes(
			attribute.String("session.id", s.id),
			attribute.Int("iteration", next),
		),
	)
	defer span.End()

	iteration := DesignIteration{
		IterationNumber: next,
		StartTime:       time.Now(),
		InputProposal:   s.current,
	}

	consensus, err := s.coordinator.GetConsensus(ctx, s.current, ec)
	if err != nil {
		// Nothing committed: the iteration counter stays gap-free.
		return nil, err
	}

	s.iterationCount = next
	iteration.Consensus = consensus

	switch {
	case consensus.IsApproved:
		s.status = StatusConverged
	case next >= s.config.MaxIterations:
		s.status = StatusMaxIterations
	}

	if !consensus.IsApproved {
		dc := &design.DesignContext{
			Task:       s.current.Description,
			Proposal:   s.current,
			Evaluation: ec,
		}
		suggestions, err := s.coordinator.CollectSuggestions(ctx, dc)
		if err != nil {
			return nil, err
		}
		iteration.Suggestions = suggestions
	}

	iteration.OutputProposal = s.current
	iteration.EndTime = time.Now()
	iteration.Duration = iteration.EndTime.Sub(iteration.StartTime)

	s.iterations = append(s.iterations, iteration)
	s.lastConsensus = consensus

	if s.collector != nil {
		s.collector.RecordSessionIteration(string(s.status), iteration.Duration)
	}

	if s.bus != nil {
		event := &IterationEvent{
			SessionID: s.id,
			Status:    s.status,
			Iteration: &iteration,
		}
		if err := s.bus.Publish(TopicIterationComplete, event); err != nil {
			s.logger.Warn("iteration event publish failed", zap.Error(err))
		}
	}

	s.logger.Info("iteration complete",
		zap.Int("iteration", next),
		zap.String("status", string(s.status)),
		zap.Bool("approved", consensus.IsApproved),
		zap.Duration("duration", iteration.Duration),
	)

	return &iteration, nil
}

// RunToCompletion repeatedly calls Iterate until the session reaches a
// terminal status or ctx is cancelled. maxIterations overrides the
// configured budget when positive. The returned SessionResult aggregates
// every iteration produced.
func (s *CollaborativeSession) RunToCompletion(ctx context.Context, maxIterations int, ec *design.EvaluationContext) (*SessionResult, error) {
	if maxIterations > 0 {
		s.mu.Lock()
		s.config.MaxIterations = maxIterations
		s.mu.Unlock()
	}

	if s.collector != nil {
		s.collector.SessionStarted()
		defer s.collector.SessionEnded()
	}

	for !s.Status().Terminal() {
		if _, err := s.Iterate(ctx, ec); err != nil {
			return nil, err
		}
	}

	return s.Result(), nil
}

// Result returns a snapshot of the session outcome. Intended for terminal
// sessions; an active session yields its progress so far.
func (s *CollaborativeSession) Result() *SessionResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	iterations := make([]DesignIteration, len(s.iterations))
	copy(iterations, s.iterations)

	return &SessionResult{
		SessionID:      s.id,
		Status:         s.status,
		IterationCount: s.iterationCount,
		FinalProposal:  s.current,
		FinalConsensus: s.lastConsensus,
		Iterations:     iterations,
	}
}
