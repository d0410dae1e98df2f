package ipd

import (
	"fmt"
	"math/rand"

	"github.com/baldhumanity/ipd-go/ipd/nn"
)

// FeatureCount is the number of inputs a network being feeds its brain.
const FeatureCount = 3

// DecisionPolicy tunes how a network being turns its brain output into an action.
type DecisionPolicy struct {
	// Threshold is the output above which the being cooperates.
	Threshold float64
	// RecencyWindow is the number of most recent rounds used for the first feature.
	RecencyWindow int
	// WarehouseLimit bounds archived generations; 0 keeps all.
	WarehouseLimit int
}

// DefaultDecisionPolicy returns the stock policy.
func DefaultDecisionPolicy() DecisionPolicy {
	return DecisionPolicy{Threshold: 0.5, RecencyWindow: 5}
}

// NetworkBeing decides with an evolving nn.Brain.
type NetworkBeing struct {
	memory
	brain  *nn.Brain
	policy DecisionPolicy
}

var _ Being = (*NetworkBeing)(nil)

// NewNetworkBeing creates a being backed by a fresh brain.
func NewNetworkBeing(ids *nn.IDAllocator, rng *rand.Rand, policy DecisionPolicy) *NetworkBeing {
	return &NetworkBeing{
		memory: newMemory(policy.WarehouseLimit),
		brain:  nn.NewBrain(FeatureCount, ids, rng),
		policy: policy,
	}
}

// ID is the identity of the underlying brain.
func (b *NetworkBeing) ID() string { return b.brain.ID() }

// Brain exposes the underlying network.
func (b *NetworkBeing) Brain() *nn.Brain { return b.brain }

// Features computes the brain inputs against counterpart:
//
//	[0] share of the counterpart's last RecencyWindow moves that cooperated
//	[1] share of all the counterpart's moves that cooperated
//	[2] (their score - our score) / our score over the shared history
//
// Without history the features are 1, 1, 0. A zero own score yields 0.
func (b *NetworkBeing) Features(counterpart string) [FeatureCount]float64 {
	xs := b.history[counterpart]
	if len(xs) == 0 {
		return [FeatureCount]float64{1, 1, 0}
	}

	window := b.policy.RecencyWindow
	if window <= 0 || window > len(xs) {
		window = len(xs)
	}
	recent := 0
	for _, x := range xs[len(xs)-window:] {
		if x.Them == Cooperate {
			recent++
		}
	}
	overall := 0
	for _, x := range xs {
		if x.Them == Cooperate {
			overall++
		}
	}

	var diff float64
	score := ScoreRounds(b.history.Rounds(counterpart))
	if score.P1 != 0 {
		diff = float64(score.P2-score.P1) / float64(score.P1)
	}
	return [FeatureCount]float64{
		float64(recent) / float64(window),
		float64(overall) / float64(len(xs)),
		diff,
	}
}

// Decide cooperates iff the brain output exceeds the policy threshold.
func (b *NetworkBeing) Decide(counterpart string) (Action, error) {
	f := b.Features(counterpart)
	if b.brain.FeedForward(f[:]...) > b.policy.Threshold {
		return Cooperate, nil
	}
	return Defect, nil
}

// Mutate applies one mutation pass to the brain.
func (b *NetworkBeing) Mutate(rng *rand.Rand, cfg nn.MutationConfig) nn.MutationReport {
	return b.brain.Mutate(rng, cfg)
}

// NodeCount is the current number of HIDDEN nodes.
func (b *NetworkBeing) NodeCount() int { return b.brain.HiddenCount() }

// Architecture is the bucket label derived from NodeCount, e.g. "N2".
func (b *NetworkBeing) Architecture() string { return ArchitectureLabel(b.NodeCount()) }

// ArchitectureLabel formats a hidden-node count as a bucket label.
func ArchitectureLabel(hidden int) string { return fmt.Sprintf("N%d", hidden) }

// BeingExport is the serialisable form of a network being.
type BeingExport struct {
	History   History        `json:"history"`
	Warehouse []History      `json:"warehouse"`
	Brain     nn.BrainExport `json:"brain"`
}

// Export emits the brain with an empty history and warehouse; only the
// network persists across save and load.
func (b *NetworkBeing) Export() BeingExport {
	return BeingExport{
		History:   History{},
		Warehouse: []History{},
		Brain:     b.brain.Export(),
	}
}

// ImportNetworkBeing rebuilds a being from its exported form with fresh identities.
// The brain must have exactly FeatureCount inputs.
func ImportNetworkBeing(ex BeingExport, ids *nn.IDAllocator, policy DecisionPolicy) (*NetworkBeing, error) {
	if n := len(ex.Brain.InputNodes); n != FeatureCount {
		return nil, fmt.Errorf("%w: being %s has %d inputs, want %d", ErrMalformedImport, ex.Brain.ID, n, FeatureCount)
	}
	brain, err := nn.ImportBrain(ex.Brain, ids)
	if err != nil {
		return nil, fmt.Errorf("import being %s: %w", ex.Brain.ID, err)
	}
	b := &NetworkBeing{
		memory: newMemory(policy.WarehouseLimit),
		brain:  brain,
		policy: policy,
	}
	b.SetHistory(ex.History)
	b.setWarehouse(ex.Warehouse)
	return b, nil
}

// Clone returns a being with a copy of the brain under fresh identities and
// no history or warehouse.
func (b *NetworkBeing) Clone(ids *nn.IDAllocator) *NetworkBeing {
	return &NetworkBeing{
		memory: newMemory(b.policy.WarehouseLimit),
		brain:  b.brain.Clone(ids),
		policy: b.policy,
	}
}
