package design

import "context"

// Specialty 定义专家 Agent 的专业领域
type Specialty string

const (
	SpecialtyArchitectural Specialty = "architectural"
	SpecialtySafety        Specialty = "safety"
	SpecialtyStructural    Specialty = "structural"
	SpecialtyMEP           Specialty = "mep"
)

// ConflictCode returns the issue code prefix an agent uses when a revised
// evaluation surfaces a conflict reported by another specialty.
func (s Specialty) ConflictCode() string {
	switch s {
	case SpecialtyArchitectural:
		return "ARCH-CONFLICT"
	case SpecialtySafety:
		return "SAFETY-CONFLICT"
	case SpecialtyStructural:
		return "STRUCT-CONFLICT"
	case SpecialtyMEP:
		return "MEP-CONFLICT"
	default:
		return "AGENT-CONFLICT"
	}
}

// EvaluationContext carries project metadata agents may consult while
// evaluating. The engine itself never interprets these fields.
type EvaluationContext struct {
	ProjectType  string         `json:"project_type,omitempty"`
	BuildingCode string         `json:"building_code,omitempty"`
	Region       string         `json:"region,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// DesignContext describes the current task when collecting suggestions.
type DesignContext struct {
	Task       string             `json:"task"`
	Proposal   *DesignProposal    `json:"proposal,omitempty"`
	Evaluation *EvaluationContext `json:"evaluation,omitempty"`
}

// DesignAgent 定义专家评审 Agent 的核心行为接口
//
// The coordinator depends only on this interface, never on concrete
// variants. Implementations must be safe for concurrent use: Evaluate and
// Suggest are fanned out concurrently, and ReceiveFeedback may be called
// from another agent's context while an evaluation is in flight.
type DesignAgent interface {
	// 身份与能力
	ID() string
	Specialty() Specialty
	ExpertiseLevel() float64
	IsActive() bool

	// Evaluate returns the agent's scored judgment of the proposal.
	// Pending feedback accumulated via ReceiveFeedback must be reflected
	// in the returned opinion (IsRevised plus conflict issues) and is
	// consumed by the call.
	Evaluate(ctx context.Context, proposal *DesignProposal, ec *EvaluationContext) (*AgentOpinion, error)

	// Suggest returns advisory improvement ideas for the current task.
	Suggest(ctx context.Context, dc *DesignContext) ([]AgentSuggestion, error)

	// ValidateAction is a synchronous, fast precondition check for a
	// single proposed mutation.
	ValidateAction(action *DesignAction) *ValidationResult

	// ReceiveFeedback stores another agent's opinion as agent-local state
	// to be incorporated into the next Evaluate call.
	ReceiveFeedback(opinion *AgentOpinion)
}
