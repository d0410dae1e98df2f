package nn

import (
	"fmt"
	"math/rand"
)

// NodeType is the role a node plays in a Brain.
type NodeType int

const (
	InputNode NodeType = iota
	HiddenNode
	OutputNode
)

func (t NodeType) String() string {
	switch t {
	case InputNode:
		return "INPUT"
	case HiddenNode:
		return "HIDDEN"
	case OutputNode:
		return "OUTPUT"
	default:
		return fmt.Sprintf("NodeType(%d)", int(t))
	}
}

// MutationConfig holds the probabilities and step sizes used by Brain.Mutate.
type MutationConfig struct {
	NodeMutateProb      float64 `ini:"node_mutate_prob"`
	WeightMutateProb    float64 `ini:"weight_mutate_prob"`
	WeightMutatePower   float64 `ini:"weight_mutate_power"`
	BiasMutateProb      float64 `ini:"bias_mutate_prob"`
	BiasMutatePower     float64 `ini:"bias_mutate_power"`
	StrengthMutateProb  float64 `ini:"strength_mutate_prob"`
	StrengthMutatePower float64 `ini:"strength_mutate_power"`
	SplitProb           float64 `ini:"split_prob"`
	NewConnectionProb   float64 `ini:"new_connection_prob"`
}

// DefaultMutationConfig returns the stock mutation rates.
func DefaultMutationConfig() MutationConfig {
	return MutationConfig{
		NodeMutateProb:      0.5,
		WeightMutateProb:    0.05,
		WeightMutatePower:   0.01,
		BiasMutateProb:      0.01,
		BiasMutatePower:     0.01,
		StrengthMutateProb:  0.01,
		StrengthMutatePower: 0.001,
		SplitProb:           0.0001,
		NewConnectionProb:   0.0001,
	}
}

// Validate checks that every probability lies in [0, 1] and no power is negative.
func (c MutationConfig) Validate() error {
	probs := []struct {
		name string
		v    float64
	}{
		{"node_mutate_prob", c.NodeMutateProb},
		{"weight_mutate_prob", c.WeightMutateProb},
		{"bias_mutate_prob", c.BiasMutateProb},
		{"strength_mutate_prob", c.StrengthMutateProb},
		{"split_prob", c.SplitProb},
		{"new_connection_prob", c.NewConnectionProb},
	}
	for _, p := range probs {
		if p.v < 0 || p.v > 1 {
			return fmt.Errorf("config error: %s must be between 0 and 1", p.name)
		}
	}
	if c.WeightMutatePower < 0 || c.BiasMutatePower < 0 || c.StrengthMutatePower < 0 {
		return fmt.Errorf("config error: mutate powers cannot be negative")
	}
	return nil
}

// --------------------------- Node ---------------------------

// Node is a neuron in the arena of a Brain. Connections are referenced by
// their handle (index into Brain.conns).
type Node struct {
	ID     string
	Type   NodeType
	Weight float64
	Bias   float64
	// Input is only read when the node has no incoming connections.
	Input float64
	// Relay marks an identity node inserted by a split. Its outgoing
	// connections pass their product through unsquashed.
	Relay    bool
	Outgoing []int
	Incoming []int
}

func newNode(id string, t NodeType, rng *rand.Rand) Node {
	n := Node{ID: id, Type: t}
	if t == OutputNode {
		n.Weight = 1
		n.Bias = 0
		return n
	}
	n.Weight = gaussian(rng, 0, 1)
	n.Bias = gaussian(rng, 0, 1) / 4
	return n
}

// String returns a string representation of the Node.
func (n *Node) String() string {
	return fmt.Sprintf("Node(%s %s, Weight: %.3f, Bias: %.3f, in: %d, out: %d)",
		n.ID, n.Type, n.Weight, n.Bias, len(n.Incoming), len(n.Outgoing))
}

// mutate perturbs weight and bias independently. It reports which of the two changed.
func (n *Node) mutate(rng *rand.Rand, cfg MutationConfig) (weight, bias bool) {
	if rng.Float64() < cfg.WeightMutateProb {
		n.Weight += gaussian(rng, 0, 1) * cfg.WeightMutatePower
		weight = true
	}
	if rng.Float64() < cfg.BiasMutateProb {
		n.Bias += gaussian(rng, 0, 1) * cfg.BiasMutatePower
		bias = true
	}
	return weight, bias
}

// --------------------------- Connection ---------------------------

// Connection is a directed, weighted edge between two node handles.
type Connection struct {
	From     int
	To       int
	Strength float64
}

func (c *Connection) mutate(rng *rand.Rand, cfg MutationConfig) bool {
	if rng.Float64() < cfg.StrengthMutateProb {
		c.Strength += gaussian(rng, 0, 1) * cfg.StrengthMutatePower
		return true
	}
	return false
}

// gaussian draws from N(mean, stdev).
func gaussian(rng *rand.Rand, mean, stdev float64) float64 {
	return rng.NormFloat64()*stdev + mean
}
