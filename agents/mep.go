package agents

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/parametriq/designflow/design"
)

// 机电规则常量（单位：米）
const (
	minDuctHeight = 0.1
	maxPipeRun    = 30.0
)

// MEPAgent evaluates mechanical, electrical and plumbing routing.
type MEPAgent struct {
	specialist
}

// NewMEPAgent 创建机电专家 Agent
func NewMEPAgent(id string, logger *zap.Logger) *MEPAgent {
	return &MEPAgent{
		specialist: newSpecialist(id, design.SpecialtyMEP, 0.82, logger),
	}
}

// Evaluate scores the proposal against routing and clearance rules.
func (a *MEPAgent) Evaluate(ctx context.Context, proposal *design.DesignProposal, _ *design.EvaluationContext) (*design.AgentOpinion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var issues []design.DesignIssue

	ducts := elementsOfType(proposal, design.ElementDuct)
	pipes := elementsOfType(proposal, design.ElementPipe)

	for _, duct := range ducts {
		if duct.Geometry.Height > 0 && duct.Geometry.Height < minDuctHeight {
			issues = append(issues, design.DesignIssue{
				Code: "MEP-401",
				Description: fmt.Sprintf("duct height %.2f m is below the %.2f m serviceable minimum",
					duct.Geometry.Height, minDuctHeight),
				Severity: design.SeverityWarning,
			})
		}
	}

	for _, pipe := range pipes {
		if pipe.Geometry.Length > maxPipeRun {
			issues = append(issues, design.DesignIssue{
				Code: "MEP-402",
				Description: fmt.Sprintf("pipe run %.1f m exceeds %.1f m; add intermediate access",
					pipe.Geometry.Length, maxPipeRun),
				Severity: design.SeverityWarning,
			})
		}
	}

	summary := "services routing acceptable"
	if len(ducts)+len(pipes) == 0 {
		summary = "no services in scope"
	} else if len(issues) > 0 {
		summary = fmt.Sprintf("%d services findings", len(issues))
	}

	return a.buildOpinion(issues, summary), nil
}

// Suggest offers services-routing improvements.
func (a *MEPAgent) Suggest(ctx context.Context, dc *design.DesignContext) ([]design.AgentSuggestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return []design.AgentSuggestion{
		{
			AgentID:     a.id,
			Title:       "Reserve a ceiling services zone",
			Description: "A dedicated 300 mm zone above the ceiling avoids clash rework when ducts grow.",
			Confidence:  a.expertise,
			Impact:      0.4,
			Type:        design.SuggestionBestPractice,
		},
	}, nil
}

// ValidateAction checks services preconditions for a single action.
func (a *MEPAgent) ValidateAction(action *design.DesignAction) *design.ValidationResult {
	if action == nil {
		return requireParameters(action, "MEP-VAL-001")
	}

	result := &design.ValidationResult{IsValid: true}

	if action.Type == design.ActionCreateElement {
		if elementType, _ := action.Parameters["element_type"].(string); elementType == string(design.ElementDuct) {
			if _, ok := action.Parameters["system"]; !ok {
				result.Warnings = append(result.Warnings,
					"duct created without a system assignment; flow sizing will be skipped")
			}
		}
	}

	return result
}
