package agents

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/parametriq/designflow/design"
)

// 结构规则常量（单位：米）
const (
	maxUnsupportedSpan = 6.0  // beyond this an intermediate support is expected
	maxBeamSpan        = 12.0 // beyond this the proposal is structurally unsound as drawn
	minColumnWidth     = 0.3
	slenderHeight      = 4.0
)

// StructuralAgent evaluates spans, supports and member sizing.
type StructuralAgent struct {
	specialist
}

// NewStructuralAgent 创建结构专家 Agent
func NewStructuralAgent(id string, logger *zap.Logger) *StructuralAgent {
	return &StructuralAgent{
		specialist: newSpecialist(id, design.SpecialtyStructural, 0.88, logger),
	}
}

// Evaluate scores the proposal against span and sizing rules.
func (a *StructuralAgent) Evaluate(ctx context.Context, proposal *design.DesignProposal, _ *design.EvaluationContext) (*design.AgentOpinion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var issues []design.DesignIssue

	columns := elementsOfType(proposal, design.ElementColumn)

	for _, beam := range elementsOfType(proposal, design.ElementBeam) {
		switch {
		case beam.Geometry.Length > maxBeamSpan:
			issues = append(issues, design.DesignIssue{
				Code: "STRUCT-302",
				Description: fmt.Sprintf("beam span %.1f m exceeds the %.1f m limit; redesign required",
					beam.Geometry.Length, maxBeamSpan),
				Severity: design.SeverityCritical,
			})
		case beam.Geometry.Length > maxUnsupportedSpan && len(columns) == 0:
			issues = append(issues, design.DesignIssue{
				Code: "STRUCT-301",
				Description: fmt.Sprintf("beam span %.1f m exceeds %.1f m with no intermediate support in scope",
					beam.Geometry.Length, maxUnsupportedSpan),
				Severity: design.SeverityError,
			})
		}
	}

	for _, column := range columns {
		if column.Geometry.Height > slenderHeight && column.Geometry.Width > 0 && column.Geometry.Width < minColumnWidth {
			issues = append(issues, design.DesignIssue{
				Code: "STRUCT-303",
				Description: fmt.Sprintf("column %.1f m tall at %.2f m width is slender; check buckling",
					column.Geometry.Height, column.Geometry.Width),
				Severity: design.SeverityWarning,
			})
		}
	}

	summary := "structural scheme plausible"
	if len(issues) > 0 {
		summary = fmt.Sprintf("%d structural findings", len(issues))
	}

	return a.buildOpinion(issues, summary), nil
}

// Suggest offers structural improvements.
func (a *StructuralAgent) Suggest(ctx context.Context, dc *design.DesignContext) ([]design.AgentSuggestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var suggestions []design.AgentSuggestion

	if dc != nil && dc.Proposal != nil && len(elementsOfType(dc.Proposal, design.ElementBeam)) > 0 {
		suggestions = append(suggestions, design.AgentSuggestion{
			AgentID:     a.id,
			Title:       "Align beams with the column grid",
			Description: "Regular grids cut connection variety and fabrication cost.",
			Confidence:  a.expertise,
			Impact:      0.5,
			Type:        design.SuggestionCostSaving,
		})
	}

	suggestions = append(suggestions, design.AgentSuggestion{
		AgentID:     a.id,
		Title:       "Confirm lateral system continuity",
		Description: "Trace the load path from roof to foundation before freezing the layout.",
		Confidence:  a.expertise,
		Impact:      0.6,
		Type:        design.SuggestionBestPractice,
	})

	return suggestions, nil
}

// ValidateAction rejects unanalyzed removal of load-bearing members.
func (a *StructuralAgent) ValidateAction(action *design.DesignAction) *design.ValidationResult {
	if action == nil {
		return requireParameters(action, "STRUCT-VAL-001")
	}

	result := &design.ValidationResult{IsValid: true}

	if action.Type == design.ActionDeleteElement {
		elementType, _ := action.Parameters["element_type"].(string)
		if elementType == string(design.ElementColumn) || elementType == string(design.ElementBeam) {
			result.IsValid = false
			result.Issues = append(result.Issues, design.DesignIssue{
				Code:        "STRUCT-VAL-002",
				Description: fmt.Sprintf("deleting a %s requires a structural re-analysis first", elementType),
				Severity:    design.SeverityError,
			})
		}
	}

	return result
}
