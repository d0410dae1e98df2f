package nn

import (
	"fmt"
	"math/rand"
)

// InitialHiddenNodes is the number of HIDDEN nodes a fresh Brain starts with.
const InitialHiddenNodes = 2

// Brain is a growable feed-forward computation graph with a fixed number of
// INPUT nodes, a growing set of HIDDEN nodes and exactly one OUTPUT node.
// Nodes and connections live in arenas and refer to each other by handle.
// Nodes and connections are never deleted; connections may be retargeted.
type Brain struct {
	id  string
	ids *IDAllocator

	nodes []Node
	conns []Connection

	inputs []int // node handles, in feature order
	hidden []int // node handles, in creation order
	output int   // node handle
}

// NewBrain creates a Brain with inputCount INPUT nodes, each connected to both
// of the two initial HIDDEN nodes, which in turn feed the OUTPUT node.
func NewBrain(inputCount int, ids *IDAllocator, rng *rand.Rand) *Brain {
	b := &Brain{id: ids.BrainID(), ids: ids}

	for i := 0; i < InitialHiddenNodes; i++ {
		b.hidden = append(b.hidden, b.addNode(newNode(ids.NodeID(), HiddenNode, rng)))
	}
	b.output = b.addNode(newNode(ids.NodeID(), OutputNode, rng))

	for i := 0; i < inputCount; i++ {
		in := b.addNode(newNode(ids.NodeID(), InputNode, rng))
		for _, h := range b.hidden {
			b.connect(in, h, gaussian(rng, 0, 1))
		}
		b.inputs = append(b.inputs, in)
	}
	for _, h := range b.hidden {
		b.connect(h, b.output, gaussian(rng, 0, 1))
	}
	return b
}

// ID returns the brain identity.
func (b *Brain) ID() string { return b.id }

// InputCount returns the number of INPUT nodes.
func (b *Brain) InputCount() int { return len(b.inputs) }

// HiddenCount returns the current number of HIDDEN nodes.
func (b *Brain) HiddenCount() int { return len(b.hidden) }

// ConnectionCount returns the number of connections in the graph.
func (b *Brain) ConnectionCount() int { return len(b.conns) }

// Node returns a copy of the node with the given handle.
func (b *Brain) Node(h int) Node { return b.nodes[h] }

// Output returns the handle of the OUTPUT node.
func (b *Brain) Output() int { return b.output }

// Inputs returns the INPUT node handles in feature order.
func (b *Brain) Inputs() []int { return append([]int(nil), b.inputs...) }

// Hidden returns the HIDDEN node handles in creation order.
func (b *Brain) Hidden() []int { return append([]int(nil), b.hidden...) }

// ConnectionID returns the derived identity "from-id:to-id" of a connection.
func (b *Brain) ConnectionID(c int) string {
	conn := b.conns[c]
	return fmt.Sprintf("%s:%s", b.nodes[conn.From].ID, b.nodes[conn.To].ID)
}

func (b *Brain) addNode(n Node) int {
	b.nodes = append(b.nodes, n)
	return len(b.nodes) - 1
}

// connect creates an edge from -> to and registers it on both endpoints.
func (b *Brain) connect(from, to int, strength float64) int {
	b.conns = append(b.conns, Connection{From: from, To: to, Strength: strength})
	c := len(b.conns) - 1
	b.nodes[from].Outgoing = append(b.nodes[from].Outgoing, c)
	b.nodes[to].Incoming = append(b.nodes[to].Incoming, c)
	return c
}

// ancestors returns the set of nodes that can reach n through existing
// connections. It walks incoming edges iteratively with a visited set.
func (b *Brain) ancestors(n int) map[int]bool {
	visited := make(map[int]bool)
	stack := []int{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, c := range b.nodes[cur].Incoming {
			from := b.conns[c].From
			if visited[from] {
				continue
			}
			visited[from] = true
			stack = append(stack, from)
		}
	}
	return visited
}

// createsCycle reports whether adding the edge from -> to would close a cycle,
// i.e. whether to already reaches from (or is from).
func (b *Brain) createsCycle(from, to int) bool {
	if from == to {
		return true
	}
	return b.ancestors(from)[to]
}

// Acyclic reports whether no node can reach itself through outgoing edges.
func (b *Brain) Acyclic() bool {
	_, ok := b.topoOrder()
	return ok
}
