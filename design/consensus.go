package design

// ConsensusStatus 共识聚合状态
type ConsensusStatus string

const (
	// StatusNoAgents means no active agent was available to evaluate.
	StatusNoAgents ConsensusStatus = "no_agents"
	// StatusConsensus means all scores agree within the consensus spread
	// and the mean clears the approval threshold.
	StatusConsensus ConsensusStatus = "consensus"
	// StatusMajority means the mean clears the approval threshold but the
	// scores spread beyond the consensus band.
	StatusMajority ConsensusStatus = "majority"
	// StatusDisagreement means the mean falls short of the approval
	// threshold, or critical issues vetoed approval.
	StatusDisagreement ConsensusStatus = "disagreement"
)

// ConsensusResult is the aggregate agreement state across all agents'
// opinions on one proposal.
//
// Invariant: IsApproved is never true while any opinion carries
// HasCriticalIssues.
type ConsensusResult struct {
	Status     ConsensusStatus `json:"status"`
	IsApproved bool            `json:"is_approved"`
	Opinions   []AgentOpinion  `json:"opinions,omitempty"`
	Issues     []DesignIssue   `json:"issues,omitempty"`
	Message    string          `json:"message"`
}
