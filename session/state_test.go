package session

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newStateTestSession() *CollaborativeSession {
	return NewCollaborativeSession(newCoordinator(), nil, testProposal(), DefaultConfig(), zap.NewNop())
}

func TestSharedState_RoundTrip(t *testing.T) {
	t.Parallel()
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("a stored string comes back unchanged", prop.ForAll(
		func(key, value string) bool {
			s := newStateTestSession()
			s.SetSharedState(key, value)
			return GetSharedState[string](s, key) == value
		},
		gen.AlphaString(),
		gen.AnyString(),
	))

	properties.Property("overwrite replaces the previous value", prop.ForAll(
		func(key string, first, second int) bool {
			s := newStateTestSession()
			s.SetSharedState(key, first)
			s.SetSharedState(key, second)
			return GetSharedState[int](s, key) == second
		},
		gen.AlphaString(),
		gen.Int(),
		gen.Int(),
	))

	properties.Property("type mismatch yields the zero value", prop.ForAll(
		func(key string, value int) bool {
			s := newStateTestSession()
			s.SetSharedState(key, value)
			return GetSharedState[string](s, key) == ""
		},
		gen.AlphaString(),
		gen.Int(),
	))

	properties.TestingRun(t)
}

func TestSharedState_MissingKeyReturnsZero(t *testing.T) {
	t.Parallel()
	s := newStateTestSession()

	assert.Equal(t, "", GetSharedState[string](s, "absent"))
	assert.Equal(t, 0, GetSharedState[int](s, "absent"))
	assert.Nil(t, GetSharedState[*SessionResult](s, "absent"))
}

func TestSharedState_StructValues(t *testing.T) {
	t.Parallel()
	s := newStateTestSession()

	type revisionNote struct {
		Author string
		Round  int
	}

	s.SetSharedState("note", revisionNote{Author: "arch-1", Round: 2})
	got := GetSharedState[revisionNote](s, "note")
	assert.Equal(t, revisionNote{Author: "arch-1", Round: 2}, got)
}
