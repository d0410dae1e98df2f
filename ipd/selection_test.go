package ipd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/ipd-go/ipd/nn"
)

// scoredSimulator builds six beings scored 10, 20, ... 60 in creation order.
func scoredSimulator(t *testing.T, policy string, replace int) *GenerationSimulator {
	t.Helper()
	cfg := testConfig(6, 1)
	cfg.Simulation.ReplaceCount = replace
	cfg.Simulation.SelectionPolicy = policy
	cfg.Mutation = nn.MutationConfig{}
	s := newTestSimulator(t, cfg, 1)
	s.scoreBoard = make(map[string]int)
	for i, b := range s.Beings() {
		s.scoreBoard[b.ID()] = (i + 1) * 10
	}
	return s
}

func beingIDs(beings []*NetworkBeing) []string {
	out := make([]string, len(beings))
	for i, b := range beings {
		out[i] = b.ID()
	}
	return out
}

func TestReplaceCloneWorst(t *testing.T) {
	s := scoredSimulator(t, CloneWorst, 2)
	r := &GenerationReport{TotalScore: 210}
	s.replace(r)

	assert.Equal(t, []string{"Person-1", "Person-2"}, r.Removed)
	assert.Equal(t, []string{"Person-7", "Person-8"}, r.Cloned)
	assert.Equal(t, []string{"Person-3", "Person-4", "Person-5", "Person-6", "Person-7", "Person-8"}, beingIDs(s.Beings()))
	assert.Equal(t, map[string]int{
		"Person-3": 30, "Person-4": 40, "Person-5": 50, "Person-6": 60,
		"Person-7": 10, "Person-8": 20,
	}, s.ScoreBoard())
}

func TestReplaceCloneBest(t *testing.T) {
	s := scoredSimulator(t, CloneBest, 2)
	r := &GenerationReport{TotalScore: 210}
	s.replace(r)

	assert.Equal(t, []string{"Person-1", "Person-2"}, r.Removed)
	assert.Equal(t, 50, s.ScoreBoard()["Person-7"])
	assert.Equal(t, 60, s.ScoreBoard()["Person-8"])
	assert.Len(t, s.Beings(), 6)
}

func TestReplaceCountCappedAtHalf(t *testing.T) {
	s := scoredSimulator(t, CloneWorst, 5)
	assert.Equal(t, 3, s.replaceCount())
	r := &GenerationReport{TotalScore: 210}
	s.replace(r)
	assert.Len(t, r.Removed, 3)
	assert.Len(t, s.Beings(), 6)
}

func TestReplaceTiesBrokenByIdentity(t *testing.T) {
	s := scoredSimulator(t, CloneWorst, 1)
	for id := range s.scoreBoard {
		s.scoreBoard[id] = 7
	}
	ranked := s.rankAscending()
	assert.Equal(t, []string{"Person-1", "Person-2", "Person-3", "Person-4", "Person-5", "Person-6"}, beingIDs(ranked))
}

func TestReplaceWithZeroTotalMutatesEverything(t *testing.T) {
	s := scoredSimulator(t, CloneWorst, 2)
	for id := range s.scoreBoard {
		s.scoreBoard[id] = 0
	}
	r := &GenerationReport{TotalScore: 0}
	s.replace(r)
	assert.Equal(t, 8, r.Mutated)
}

func TestReplaceClonesKeepParentNetwork(t *testing.T) {
	s := scoredSimulator(t, CloneWorst, 1)
	parent := s.Beings()[0]
	x := []float64{0.4, 0.6, 0.1}
	want := parent.Brain().FeedForward(x...)

	r := &GenerationReport{TotalScore: 210}
	s.replace(r)
	require.Len(t, r.Cloned, 1)

	var clone *NetworkBeing
	for _, b := range s.Beings() {
		if b.ID() == r.Cloned[0] {
			clone = b
		}
	}
	require.NotNil(t, clone)
	assert.InDelta(t, want, clone.Brain().FeedForward(x...), 1e-12, "zero mutation rates leave the copy intact")
}
