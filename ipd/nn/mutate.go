package nn

import "math/rand"

// MutationReport summarises what a single Mutate pass changed.
type MutationReport struct {
	NodesMutated     int
	WeightsChanged   int
	BiasesChanged    int
	StrengthsChanged int
	Splits           int
	NewConnections   int
}

// Structural reports whether the pass changed the topology.
func (r MutationReport) Structural() bool {
	return r.Splits > 0 || r.NewConnections > 0
}

// Mutate applies one mutation pass to the network.
//
// Every INPUT and HIDDEN node present at the start of the pass is mutated
// with probability NodeMutateProb. A mutated node perturbs its weight and
// bias, offers each outgoing connection a strength mutation and may then
// split one of its outgoing connections. Independently, a new connection is
// attempted with probability NewConnectionProb.
func (b *Brain) Mutate(rng *rand.Rand, cfg MutationConfig) MutationReport {
	var report MutationReport

	candidates := make([]int, 0, len(b.inputs)+len(b.hidden))
	candidates = append(candidates, b.inputs...)
	candidates = append(candidates, b.hidden...)

	for _, h := range candidates {
		if rng.Float64() >= cfg.NodeMutateProb {
			continue
		}
		report.NodesMutated++

		w, bias := b.nodes[h].mutate(rng, cfg)
		if w {
			report.WeightsChanged++
		}
		if bias {
			report.BiasesChanged++
		}
		for _, c := range b.nodes[h].Outgoing {
			if b.conns[c].mutate(rng, cfg) {
				report.StrengthsChanged++
			}
		}

		if rng.Float64() < cfg.SplitProb {
			if b.split(h, rng) {
				report.Splits++
			}
		}
	}

	if rng.Float64() < cfg.NewConnectionProb {
		if b.addRandomConnection(rng) {
			report.NewConnections++
		}
	}
	return report
}

// split inserts an identity relay node on a random outgoing connection of
// node h. The chosen connection keeps its source and strength but now ends
// at the relay; the relay feeds the original target with strength 1 through
// the slot the chosen connection used to occupy. The network's output is
// unchanged by the split.
func (b *Brain) split(h int, rng *rand.Rand) bool {
	outgoing := b.nodes[h].Outgoing
	if len(outgoing) == 0 {
		return false
	}
	c := outgoing[rng.Intn(len(outgoing))]
	target := b.conns[c].To

	relay := b.addNode(Node{
		ID:     b.ids.NodeID(),
		Type:   HiddenNode,
		Weight: 1,
		Bias:   0,
		Relay:  true,
	})
	b.hidden = append(b.hidden, relay)

	b.conns = append(b.conns, Connection{From: relay, To: target, Strength: 1})
	relayOut := len(b.conns) - 1
	b.nodes[relay].Outgoing = append(b.nodes[relay].Outgoing, relayOut)
	for i, ic := range b.nodes[target].Incoming {
		if ic == c {
			b.nodes[target].Incoming[i] = relayOut
		}
	}

	b.conns[c].To = relay
	b.nodes[relay].Incoming = append(b.nodes[relay].Incoming, c)
	return true
}

// addRandomConnection picks a random INPUT or HIDDEN source and connects it
// to a random HIDDEN target that is neither the source, nor already fed by
// it, nor one of its ancestors. It reports whether an edge was created.
func (b *Brain) addRandomConnection(rng *rand.Rand) bool {
	sources := make([]int, 0, len(b.inputs)+len(b.hidden))
	sources = append(sources, b.inputs...)
	sources = append(sources, b.hidden...)
	if len(sources) == 0 {
		return false
	}
	from := sources[rng.Intn(len(sources))]

	fed := make(map[int]bool, len(b.nodes[from].Outgoing))
	for _, c := range b.nodes[from].Outgoing {
		fed[b.conns[c].To] = true
	}
	ancestors := b.ancestors(from)

	targets := make([]int, 0, len(b.hidden))
	for _, h := range b.hidden {
		if h == from || fed[h] || ancestors[h] {
			continue
		}
		targets = append(targets, h)
	}
	if len(targets) == 0 {
		return false
	}
	to := targets[rng.Intn(len(targets))]
	b.connect(from, to, gaussian(rng, 0, 1))
	return true
}
