package design

import "time"

// IssueSeverity 问题严重程度
type IssueSeverity string

const (
	SeverityInfo     IssueSeverity = "info"
	SeverityWarning  IssueSeverity = "warning"
	SeverityError    IssueSeverity = "error"
	SeverityCritical IssueSeverity = "critical"
)

// DesignIssue is a single problem an agent found in a proposal or action.
// Code is a stable machine-readable identifier (e.g. "SAFETY-001").
type DesignIssue struct {
	Code        string        `json:"code"`
	Description string        `json:"description"`
	Severity    IssueSeverity `json:"severity"`
}

// AgentOpinion is one agent's scored judgment of a proposal. Opinions are
// produced fresh on every Evaluate call and never mutated afterward.
//
// Score and Confidence are in [0.0, 1.0]; higher is more favorable.
// HasCriticalIssues unconditionally vetoes approval during aggregation.
// IsRevised is set when the agent incorporated feedback received since its
// previous evaluation.
type AgentOpinion struct {
	AgentID           string        `json:"agent_id"`
	Specialty         Specialty     `json:"specialty"`
	Score             float64       `json:"score"`
	Confidence        float64       `json:"confidence"`
	HasCriticalIssues bool          `json:"has_critical_issues"`
	Issues            []DesignIssue `json:"issues,omitempty"`
	Summary           string        `json:"summary,omitempty"`
	Timestamp         time.Time     `json:"timestamp"`
	IsRevised         bool          `json:"is_revised"`
}

// SuggestionType 建议类别
type SuggestionType string

const (
	SuggestionCodeCompliance SuggestionType = "code_compliance"
	SuggestionBestPractice   SuggestionType = "best_practice"
	SuggestionCostSaving     SuggestionType = "cost_saving"
)

// AgentSuggestion is an advisory improvement idea. Suggestions never alter
// a proposal automatically.
type AgentSuggestion struct {
	AgentID     string         `json:"agent_id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Confidence  float64        `json:"confidence"`
	Impact      float64        `json:"impact"`
	Type        SuggestionType `json:"type"`
}

// ValidationResult is the outcome of a synchronous action precondition
// check, produced per-agent and AND-aggregated by the coordinator.
type ValidationResult struct {
	IsValid  bool          `json:"is_valid"`
	Warnings []string      `json:"warnings,omitempty"`
	Issues   []DesignIssue `json:"issues,omitempty"`
}
