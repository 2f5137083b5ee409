package coordination

import (
	"fmt"

	"github.com/parametriq/designflow/design"
)

// classify reduces the collected opinions to a ConsensusResult.
//
// Any opinion with HasCriticalIssues vetoes approval unconditionally and
// contributes its issues to the aggregate. Absent critical issues, the
// mean score decides approval and the spread (max-min) separates full
// consensus from a majority decision.
func (c *AgentCoordinator) classify(opinions []design.AgentOpinion) *design.ConsensusResult {
	result := &design.ConsensusResult{Opinions: opinions}

	var criticalCount int
	for _, op := range opinions {
		if op.HasCriticalIssues {
			criticalCount++
			result.Issues = append(result.Issues, op.Issues...)
		}
	}

	mean, spread := scoreStats(opinions)

	if criticalCount > 0 {
		result.Status = design.StatusDisagreement
		result.IsApproved = false
		result.Message = fmt.Sprintf(
			"Approval vetoed: %d of %d agents reported critical issues (mean score %.2f)",
			criticalCount, len(opinions), mean,
		)
		return result
	}

	switch {
	case mean >= c.config.ApprovalThreshold && spread <= c.config.ConsensusSpread:
		result.Status = design.StatusConsensus
		result.IsApproved = true
		result.Message = fmt.Sprintf(
			"Full consensus: %d agents approve with mean score %.2f (spread %.2f)",
			len(opinions), mean, spread,
		)
	case mean >= c.config.ApprovalThreshold:
		result.Status = design.StatusMajority
		result.IsApproved = true
		result.Message = fmt.Sprintf(
			"Majority approval: mean score %.2f clears threshold %.2f but opinions spread %.2f",
			mean, c.config.ApprovalThreshold, spread,
		)
	default:
		result.Status = design.StatusDisagreement
		result.IsApproved = false
		result.Message = fmt.Sprintf(
			"No agreement: mean score %.2f below approval threshold %.2f",
			mean, c.config.ApprovalThreshold,
		)
	}

	return result
}

// scoreStats returns the mean and spread (max-min) of the opinion scores.
func scoreStats(opinions []design.AgentOpinion) (mean, spread float64) {
	if len(opinions) == 0 {
		return 0, 0
	}

	min, max := opinions[0].Score, opinions[0].Score
	var sum float64
	for _, op := range opinions {
		sum += op.Score
		if op.Score < min {
			min = op.Score
		}
		if op.Score > max {
			max = op.Score
		}
	}

	return sum / float64(len(opinions)), max - min
}
