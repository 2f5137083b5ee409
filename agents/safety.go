package agents

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/parametriq/designflow/design"
)

// 消防与疏散规则常量（单位：米）
const (
	minEgressWidth   = 0.6 // below this a door cannot serve as egress at all
	minCorridorWidth = 1.2
)

// SafetyAgent evaluates egress and life-safety rules. It is the agent most
// likely to raise critical issues, which veto approval outright.
type SafetyAgent struct {
	specialist
}

// NewSafetyAgent 创建消防安全专家 Agent
func NewSafetyAgent(id string, logger *zap.Logger) *SafetyAgent {
	return &SafetyAgent{
		specialist: newSpecialist(id, design.SpecialtySafety, 0.9, logger),
	}
}

// Evaluate scores the proposal against egress rules.
func (a *SafetyAgent) Evaluate(ctx context.Context, proposal *design.DesignProposal, _ *design.EvaluationContext) (*design.AgentOpinion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var issues []design.DesignIssue

	doors := elementsOfType(proposal, design.ElementDoor)
	for _, door := range doors {
		if door.Geometry.Width > 0 && door.Geometry.Width < minEgressWidth {
			issues = append(issues, design.DesignIssue{
				Code: "SAFETY-201",
				Description: fmt.Sprintf("door %q at %.2f m is below the %.2f m minimum clear egress width",
					door.FamilyName, door.Geometry.Width, minEgressWidth),
				Severity: design.SeverityCritical,
			})
		}
	}

	for _, wall := range elementsOfType(proposal, design.ElementWall) {
		if roomType, _ := wall.Parameters["room_type"].(string); roomType == "corridor" {
			if wall.Geometry.Width > 0 && wall.Geometry.Width < minCorridorWidth {
				issues = append(issues, design.DesignIssue{
					Code: "SAFETY-202",
					Description: fmt.Sprintf("corridor width %.2f m is below the %.2f m evacuation minimum",
						wall.Geometry.Width, minCorridorWidth),
					Severity: design.SeverityError,
				})
			}
		}
	}

	if proposal != nil && len(proposal.Elements) > 0 && len(doors) == 0 {
		issues = append(issues, design.DesignIssue{
			Code:        "SAFETY-203",
			Description: "no egress element in this proposal; verify doors exist in the adjacent scope",
			Severity:    design.SeverityInfo,
		})
	}

	summary := "no life-safety violations found"
	if len(issues) > 0 {
		summary = fmt.Sprintf("%d life-safety findings", len(issues))
	}

	return a.buildOpinion(issues, summary), nil
}

// Suggest offers life-safety improvements.
func (a *SafetyAgent) Suggest(ctx context.Context, dc *design.DesignContext) ([]design.AgentSuggestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return []design.AgentSuggestion{
		{
			AgentID:     a.id,
			Title:       "Confirm two independent egress routes",
			Description: "Occupancies above the threshold load require a second exit; confirm travel distances early.",
			Confidence:  a.expertise,
			Impact:      0.7,
			Type:        design.SuggestionCodeCompliance,
		},
	}, nil
}

// ValidateAction rejects deletions that could remove an egress path.
func (a *SafetyAgent) ValidateAction(action *design.DesignAction) *design.ValidationResult {
	if action == nil {
		return requireParameters(action, "SAFETY-VAL-001")
	}

	result := &design.ValidationResult{IsValid: true}

	if action.Type == design.ActionDeleteElement {
		if elementType, _ := action.Parameters["element_type"].(string); elementType == string(design.ElementDoor) {
			result.Warnings = append(result.Warnings,
				"deleting a door: verify the remaining egress capacity before committing")
		}
	}

	return result
}
