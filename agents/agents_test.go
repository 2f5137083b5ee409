package agents

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parametriq/designflow/design"
)

func cleanProposal() *design.DesignProposal {
	return &design.DesignProposal{
		ID:          "prop-clean",
		Description: "single office partition",
		Elements: []design.ProposedElement{
			{
				Type:       design.ElementWall,
				FamilyName: "Generic 200mm",
				Geometry:   design.Geometry{Height: 2.8, Length: 4.0},
			},
			{
				Type:       design.ElementDoor,
				FamilyName: "Single Flush",
				Geometry:   design.Geometry{Width: 0.9, Height: 2.1},
			},
		},
	}
}

// ---------------------------------------------------------------------------
// Clean proposal scores
// ---------------------------------------------------------------------------

func TestAgents_CleanProposalScoresHigh(t *testing.T) {
	t.Parallel()
	proposal := cleanProposal()

	allAgents := []design.DesignAgent{
		NewArchitecturalAgent("arch-1", nil),
		NewSafetyAgent("safety-1", nil),
		NewStructuralAgent("struct-1", nil),
		NewMEPAgent("mep-1", nil),
	}

	for _, a := range allAgents {
		opinion, err := a.Evaluate(context.Background(), proposal, nil)
		require.NoError(t, err, a.ID())

		assert.GreaterOrEqual(t, opinion.Score, 0.9, a.ID())
		assert.False(t, opinion.HasCriticalIssues, a.ID())
		assert.False(t, opinion.IsRevised, a.ID())
		assert.Equal(t, a.ID(), opinion.AgentID)
		assert.Equal(t, a.Specialty(), opinion.Specialty)
		assert.Equal(t, a.ExpertiseLevel(), opinion.Confidence)
	}
}

// ---------------------------------------------------------------------------
// Architectural rules
// ---------------------------------------------------------------------------

func TestArchitecturalAgent_NarrowDoor(t *testing.T) {
	t.Parallel()
	a := NewArchitecturalAgent("arch-1", nil)

	proposal := cleanProposal()
	proposal.Elements[1].Geometry.Width = 0.7

	opinion, err := a.Evaluate(context.Background(), proposal, nil)
	require.NoError(t, err)

	require.Len(t, opinion.Issues, 1)
	assert.Equal(t, "ARCH-101", opinion.Issues[0].Code)
	assert.Equal(t, design.SeverityWarning, opinion.Issues[0].Severity)
	assert.False(t, opinion.HasCriticalIssues)
}

func TestArchitecturalAgent_LowCeiling(t *testing.T) {
	t.Parallel()
	a := NewArchitecturalAgent("arch-1", nil)

	proposal := cleanProposal()
	proposal.Elements[0].Geometry.Height = 2.2

	opinion, err := a.Evaluate(context.Background(), proposal, nil)
	require.NoError(t, err)

	require.Len(t, opinion.Issues, 1)
	assert.Equal(t, "ARCH-102", opinion.Issues[0].Code)
}

func TestArchitecturalAgent_MissingDescription(t *testing.T) {
	t.Parallel()
	a := NewArchitecturalAgent("arch-1", nil)

	proposal := cleanProposal()
	proposal.Description = ""

	opinion, err := a.Evaluate(context.Background(), proposal, nil)
	require.NoError(t, err)

	require.Len(t, opinion.Issues, 1)
	assert.Equal(t, "ARCH-103", opinion.Issues[0].Code)
	assert.Equal(t, design.SeverityInfo, opinion.Issues[0].Severity)
}

// ---------------------------------------------------------------------------
// Safety rules
// ---------------------------------------------------------------------------

func TestSafetyAgent_NarrowEgressIsCritical(t *testing.T) {
	t.Parallel()
	a := NewSafetyAgent("safety-1", nil)

	proposal := cleanProposal()
	proposal.Elements[1].Geometry.Width = 0.5

	opinion, err := a.Evaluate(context.Background(), proposal, nil)
	require.NoError(t, err)

	require.Len(t, opinion.Issues, 1)
	assert.Equal(t, "SAFETY-201", opinion.Issues[0].Code)
	assert.Equal(t, design.SeverityCritical, opinion.Issues[0].Severity)
	assert.True(t, opinion.HasCriticalIssues)
	assert.Less(t, opinion.Score, 0.7)
}

func TestSafetyAgent_NarrowCorridor(t *testing.T) {
	t.Parallel()
	a := NewSafetyAgent("safety-1", nil)

	proposal := &design.DesignProposal{
		ID:          "prop-corridor",
		Description: "corridor rework",
		Elements: []design.ProposedElement{
			{
				Type:       design.ElementWall,
				Geometry:   design.Geometry{Width: 1.0, Height: 2.8},
				Parameters: map[string]any{"room_type": "corridor"},
			},
		},
	}

	opinion, err := a.Evaluate(context.Background(), proposal, nil)
	require.NoError(t, err)

	var codes []string
	for _, issue := range opinion.Issues {
		codes = append(codes, issue.Code)
	}
	assert.Contains(t, codes, "SAFETY-202")
	assert.False(t, opinion.HasCriticalIssues)
}

func TestSafetyAgent_NoEgressInfo(t *testing.T) {
	t.Parallel()
	a := NewSafetyAgent("safety-1", nil)

	proposal := cleanProposal()
	proposal.Elements = proposal.Elements[:1] // walls only

	opinion, err := a.Evaluate(context.Background(), proposal, nil)
	require.NoError(t, err)

	require.Len(t, opinion.Issues, 1)
	assert.Equal(t, "SAFETY-203", opinion.Issues[0].Code)
	assert.Equal(t, design.SeverityInfo, opinion.Issues[0].Severity)
}

// ---------------------------------------------------------------------------
// Structural rules
// ---------------------------------------------------------------------------

func TestStructuralAgent_OverlongBeamIsCritical(t *testing.T) {
	t.Parallel()
	a := NewStructuralAgent("struct-1", nil)

	proposal := &design.DesignProposal{
		ID:          "prop-beam",
		Description: "long span hall",
		Elements: []design.ProposedElement{
			{Type: design.ElementBeam, Geometry: design.Geometry{Length: 14.0}},
		},
	}

	opinion, err := a.Evaluate(context.Background(), proposal, nil)
	require.NoError(t, err)

	require.Len(t, opinion.Issues, 1)
	assert.Equal(t, "STRUCT-302", opinion.Issues[0].Code)
	assert.True(t, opinion.HasCriticalIssues)
}

func TestStructuralAgent_UnsupportedSpan(t *testing.T) {
	t.Parallel()
	a := NewStructuralAgent("struct-1", nil)

	proposal := &design.DesignProposal{
		ID:          "prop-beam",
		Description: "medium span, no columns",
		Elements: []design.ProposedElement{
			{Type: design.ElementBeam, Geometry: design.Geometry{Length: 8.0}},
		},
	}

	opinion, err := a.Evaluate(context.Background(), proposal, nil)
	require.NoError(t, err)

	require.Len(t, opinion.Issues, 1)
	assert.Equal(t, "STRUCT-301", opinion.Issues[0].Code)
	assert.Equal(t, design.SeverityError, opinion.Issues[0].Severity)
}

func TestStructuralAgent_SpanWithColumnsPasses(t *testing.T) {
	t.Parallel()
	a := NewStructuralAgent("struct-1", nil)

	proposal := &design.DesignProposal{
		ID:          "prop-beam",
		Description: "medium span with columns",
		Elements: []design.ProposedElement{
			{Type: design.ElementBeam, Geometry: design.Geometry{Length: 8.0}},
			{Type: design.ElementColumn, Geometry: design.Geometry{Width: 0.4, Height: 3.0}},
		},
	}

	opinion, err := a.Evaluate(context.Background(), proposal, nil)
	require.NoError(t, err)
	assert.Empty(t, opinion.Issues)
}

func TestStructuralAgent_RejectsDeletingLoadBearing(t *testing.T) {
	t.Parallel()
	a := NewStructuralAgent("struct-1", nil)

	for _, elementType := range []design.ElementType{design.ElementColumn, design.ElementBeam} {
		result := a.ValidateAction(&design.DesignAction{
			Type:       design.ActionDeleteElement,
			Parameters: map[string]any{"element_type": string(elementType)},
		})
		assert.False(t, result.IsValid, string(elementType))
		require.Len(t, result.Issues, 1)
		assert.Equal(t, "STRUCT-VAL-002", result.Issues[0].Code)
	}

	// deleting a non-structural element is fine
	result := a.ValidateAction(&design.DesignAction{
		Type:       design.ActionDeleteElement,
		Parameters: map[string]any{"element_type": "window"},
	})
	assert.True(t, result.IsValid)
}

// ---------------------------------------------------------------------------
// MEP rules
// ---------------------------------------------------------------------------

func TestMEPAgent_FlatDuctAndLongPipe(t *testing.T) {
	t.Parallel()
	a := NewMEPAgent("mep-1", nil)

	proposal := &design.DesignProposal{
		ID:          "prop-services",
		Description: "services routing",
		Elements: []design.ProposedElement{
			{Type: design.ElementDuct, Geometry: design.Geometry{Height: 0.05}},
			{Type: design.ElementPipe, Geometry: design.Geometry{Length: 35.0}},
		},
	}

	opinion, err := a.Evaluate(context.Background(), proposal, nil)
	require.NoError(t, err)

	require.Len(t, opinion.Issues, 2)
	assert.Equal(t, "MEP-401", opinion.Issues[0].Code)
	assert.Equal(t, "MEP-402", opinion.Issues[1].Code)
	assert.False(t, opinion.HasCriticalIssues)
}

func TestMEPAgent_DuctWithoutSystemWarns(t *testing.T) {
	t.Parallel()
	a := NewMEPAgent("mep-1", nil)

	result := a.ValidateAction(&design.DesignAction{
		Type:       design.ActionCreateElement,
		Parameters: map[string]any{"element_type": "duct"},
	})
	assert.True(t, result.IsValid)
	assert.Len(t, result.Warnings, 1)
}

// ---------------------------------------------------------------------------
// Feedback
// ---------------------------------------------------------------------------

func TestFeedback_NextEvaluationIsRevised(t *testing.T) {
	t.Parallel()
	a := NewArchitecturalAgent("arch-1", nil)

	a.ReceiveFeedback(&design.AgentOpinion{
		AgentID:   "struct-1",
		Specialty: design.SpecialtyStructural,
		Summary:   "beam clashes with proposed wall",
		Timestamp: time.Now(),
	})

	opinion, err := a.Evaluate(context.Background(), cleanProposal(), nil)
	require.NoError(t, err)

	assert.True(t, opinion.IsRevised)
	require.Len(t, opinion.Issues, 1)
	assert.Equal(t, "STRUCT-CONFLICT", opinion.Issues[0].Code)
	assert.Equal(t, design.SeverityWarning, opinion.Issues[0].Severity)
	assert.Contains(t, opinion.Issues[0].Description, "struct-1")

	// the queue drains: a second evaluation is fresh again
	opinion, err = a.Evaluate(context.Background(), cleanProposal(), nil)
	require.NoError(t, err)
	assert.False(t, opinion.IsRevised)
	assert.Empty(t, opinion.Issues)
}

func TestFeedback_Accumulates(t *testing.T) {
	t.Parallel()
	a := NewMEPAgent("mep-1", nil)

	a.ReceiveFeedback(&design.AgentOpinion{AgentID: "arch-1", Specialty: design.SpecialtyArchitectural})
	a.ReceiveFeedback(&design.AgentOpinion{AgentID: "safety-1", Specialty: design.SpecialtySafety})
	a.ReceiveFeedback(nil) // ignored

	opinion, err := a.Evaluate(context.Background(), cleanProposal(), nil)
	require.NoError(t, err)

	assert.True(t, opinion.IsRevised)
	var codes []string
	for _, issue := range opinion.Issues {
		codes = append(codes, issue.Code)
	}
	assert.Contains(t, codes, "ARCH-CONFLICT")
	assert.Contains(t, codes, "SAFETY-CONFLICT")
}

// ---------------------------------------------------------------------------
// Activity toggle
// ---------------------------------------------------------------------------

func TestSetActive(t *testing.T) {
	t.Parallel()
	a := NewSafetyAgent("safety-1", nil)

	assert.True(t, a.IsActive())
	a.SetActive(false)
	assert.False(t, a.IsActive())
	a.SetActive(true)
	assert.True(t, a.IsActive())
}

// ---------------------------------------------------------------------------
// Score floor
// ---------------------------------------------------------------------------

func TestScoreFloor(t *testing.T) {
	t.Parallel()
	a := NewSafetyAgent("safety-1", nil)

	// many critical doors push the raw score far below zero
	proposal := &design.DesignProposal{
		ID:          "prop-bad",
		Description: "everything wrong",
	}
	for range 5 {
		proposal.Elements = append(proposal.Elements, design.ProposedElement{
			Type:     design.ElementDoor,
			Geometry: design.Geometry{Width: 0.4},
		})
	}

	opinion, err := a.Evaluate(context.Background(), proposal, nil)
	require.NoError(t, err)

	assert.True(t, opinion.HasCriticalIssues)
	assert.Equal(t, 0.05, opinion.Score)
}

// ---------------------------------------------------------------------------
// Cancellation
// ---------------------------------------------------------------------------

func TestEvaluate_CancelledContext(t *testing.T) {
	t.Parallel()
	a := NewArchitecturalAgent("arch-1", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Evaluate(ctx, cleanProposal(), nil)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = a.Suggest(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
