// Package agents ships the built-in specialist evaluators: architectural,
// safety, structural and MEP. Each variant implements design.DesignAgent
// with deterministic rule-driven scoring over the proposal's elements.
//
// Deployments are free to register their own DesignAgent implementations
// instead; nothing in the engine depends on these concrete types.
package agents

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/parametriq/designflow/design"
)

// score penalties per issue severity
const (
	baseScore       = 0.95
	penaltyInfo     = 0.02
	penaltyWarning  = 0.10
	penaltyError    = 0.25
	penaltyCritical = 0.40
	floorScore      = 0.05
)

// specialist carries the identity, feedback queue and scoring helpers
// shared by every built-in agent variant.
type specialist struct {
	id        string
	specialty design.Specialty
	expertise float64

	mu      sync.Mutex
	active  bool
	pending []*design.AgentOpinion

	logger *zap.Logger
}

func newSpecialist(id string, specialty design.Specialty, expertise float64, logger *zap.Logger) specialist {
	if logger == nil {
		logger = zap.NewNop()
	}
	return specialist{
		id:        id,
		specialty: specialty,
		expertise: expertise,
		active:    true,
		logger: logger.With(
			zap.String("component", "design_agent"),
			zap.String("agent_id", id),
			zap.String("specialty", string(specialty)),
		),
	}
}

func (s *specialist) ID() string                 { return s.id }
func (s *specialist) Specialty() design.Specialty { return s.specialty }
func (s *specialist) ExpertiseLevel() float64    { return s.expertise }

// IsActive reports whether the agent participates in consensus rounds.
func (s *specialist) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// SetActive toggles participation without unregistering the agent.
func (s *specialist) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

// ReceiveFeedback stores another agent's opinion; the next Evaluate call
// consumes it. Feedback items accumulate until drained.
func (s *specialist) ReceiveFeedback(opinion *design.AgentOpinion) {
	if opinion == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, opinion)
	s.logger.Debug("feedback received",
		zap.String("from", opinion.AgentID),
		zap.String("from_specialty", string(opinion.Specialty)),
	)
}

func (s *specialist) drainFeedback() []*design.AgentOpinion {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := s.pending
	s.pending = nil
	return pending
}

// buildOpinion assembles the opinion for one evaluation: applies severity
// penalties to the base score, folds in pending feedback as conflict
// issues, and sets the critical flag.
func (s *specialist) buildOpinion(issues []design.DesignIssue, summary string) *design.AgentOpinion {
	opinion := &design.AgentOpinion{
		AgentID:    s.id,
		Specialty:  s.specialty,
		Confidence: s.expertise,
		Issues:     issues,
		Summary:    summary,
		Timestamp:  time.Now(),
	}

	for _, feedback := range s.drainFeedback() {
		opinion.IsRevised = true
		opinion.Issues = append(opinion.Issues, design.DesignIssue{
			Code: feedback.Specialty.ConflictCode(),
			Description: fmt.Sprintf("conflict raised by %s agent %s: %s",
				feedback.Specialty, feedback.AgentID, feedback.Summary),
			Severity: design.SeverityWarning,
		})
	}

	score := baseScore
	for _, issue := range opinion.Issues {
		switch issue.Severity {
		case design.SeverityCritical:
			opinion.HasCriticalIssues = true
			score -= penaltyCritical
		case design.SeverityError:
			score -= penaltyError
		case design.SeverityWarning:
			score -= penaltyWarning
		default:
			score -= penaltyInfo
		}
	}
	if score < floorScore {
		score = floorScore
	}
	opinion.Score = score

	return opinion
}

// elementsOfType filters proposal elements by type.
func elementsOfType(proposal *design.DesignProposal, t design.ElementType) []design.ProposedElement {
	if proposal == nil {
		return nil
	}
	var out []design.ProposedElement
	for _, e := range proposal.Elements {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// requireParameters is the shared precondition check for action
// validation: every named parameter must be present and non-empty.
func requireParameters(action *design.DesignAction, code string, names ...string) *design.ValidationResult {
	result := &design.ValidationResult{IsValid: true}
	if action == nil {
		result.IsValid = false
		result.Issues = append(result.Issues, design.DesignIssue{
			Code:        code,
			Description: "nil action",
			Severity:    design.SeverityError,
		})
		return result
	}
	for _, name := range names {
		v, ok := action.Parameters[name]
		if !ok || v == nil || v == "" {
			result.IsValid = false
			result.Issues = append(result.Issues, design.DesignIssue{
				Code:        code,
				Description: fmt.Sprintf("missing required parameter %q for action %s", name, action.Type),
				Severity:    design.SeverityError,
			})
		}
	}
	return result
}
