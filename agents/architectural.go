package agents

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/parametriq/designflow/design"
)

// 建筑规则常量（单位：米）
const (
	minDoorWidth     = 0.8 // accessibility minimum clear width
	minCeilingHeight = 2.4
)

// ArchitecturalAgent evaluates spatial quality and accessibility.
type ArchitecturalAgent struct {
	specialist
}

// NewArchitecturalAgent 创建建筑专家 Agent
func NewArchitecturalAgent(id string, logger *zap.Logger) *ArchitecturalAgent {
	return &ArchitecturalAgent{
		specialist: newSpecialist(id, design.SpecialtyArchitectural, 0.85, logger),
	}
}

// Evaluate scores the proposal against accessibility and spatial rules.
func (a *ArchitecturalAgent) Evaluate(ctx context.Context, proposal *design.DesignProposal, _ *design.EvaluationContext) (*design.AgentOpinion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var issues []design.DesignIssue

	for _, door := range elementsOfType(proposal, design.ElementDoor) {
		if door.Geometry.Width > 0 && door.Geometry.Width < minDoorWidth {
			issues = append(issues, design.DesignIssue{
				Code: "ARCH-101",
				Description: fmt.Sprintf("door %q is %.2f m wide, below the %.2f m accessibility minimum",
					door.FamilyName, door.Geometry.Width, minDoorWidth),
				Severity: design.SeverityWarning,
			})
		}
	}

	for _, wall := range elementsOfType(proposal, design.ElementWall) {
		if wall.Geometry.Height > 0 && wall.Geometry.Height < minCeilingHeight {
			issues = append(issues, design.DesignIssue{
				Code: "ARCH-102",
				Description: fmt.Sprintf("wall height %.2f m yields a ceiling below the %.2f m minimum",
					wall.Geometry.Height, minCeilingHeight),
				Severity: design.SeverityWarning,
			})
		}
	}

	if proposal != nil && proposal.Description == "" {
		issues = append(issues, design.DesignIssue{
			Code:        "ARCH-103",
			Description: "proposal carries no design intent description",
			Severity:    design.SeverityInfo,
		})
	}

	summary := "spatial layout acceptable"
	if len(issues) > 0 {
		summary = fmt.Sprintf("%d architectural concerns found", len(issues))
	}

	return a.buildOpinion(issues, summary), nil
}

// Suggest offers layout and accessibility improvements.
func (a *ArchitecturalAgent) Suggest(ctx context.Context, dc *design.DesignContext) ([]design.AgentSuggestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var suggestions []design.AgentSuggestion

	if dc != nil && dc.Proposal != nil && len(elementsOfType(dc.Proposal, design.ElementDoor)) > 0 {
		suggestions = append(suggestions, design.AgentSuggestion{
			AgentID:     a.id,
			Title:       "Widen door openings to 900 mm",
			Description: "Clear widths above the accessibility minimum ease furniture moves and wheelchair turning.",
			Confidence:  a.expertise,
			Impact:      0.4,
			Type:        design.SuggestionBestPractice,
		})
	}

	suggestions = append(suggestions, design.AgentSuggestion{
		AgentID:     a.id,
		Title:       "Verify daylight access for habitable rooms",
		Description: "Check window-to-floor area ratios against the applicable code before detailing.",
		Confidence:  a.expertise,
		Impact:      0.3,
		Type:        design.SuggestionCodeCompliance,
	})

	return suggestions, nil
}

// ValidateAction checks architectural preconditions for a single action.
func (a *ArchitecturalAgent) ValidateAction(action *design.DesignAction) *design.ValidationResult {
	switch {
	case action == nil:
		return requireParameters(action, "ARCH-VAL-001")
	case action.Type == design.ActionCreateElement:
		return requireParameters(action, "ARCH-VAL-001", "element_type")
	case action.Type == design.ActionSetParameter:
		return requireParameters(action, "ARCH-VAL-002", "name")
	default:
		return &design.ValidationResult{IsValid: true}
	}
}
