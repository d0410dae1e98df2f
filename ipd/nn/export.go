package nn

import (
	"errors"
	"fmt"
)

// ErrMalformedImport is returned when an exported brain cannot be rebuilt
// into a valid network.
var ErrMalformedImport = errors.New("malformed brain import")

// ConnectionExport is the serialisable form of a Connection.
type ConnectionExport struct {
	From     string  `json:"from"`
	To       string  `json:"to"`
	Strength float64 `json:"strength"`
}

// NodeExport is the serialisable form of a Node and its outgoing connections.
type NodeExport struct {
	ID          string             `json:"id"`
	Weight      float64            `json:"weight"`
	Bias        float64            `json:"bias"`
	Relay       bool               `json:"relay,omitempty"`
	Connections []ConnectionExport `json:"connections"`
}

// BrainExport is the serialisable form of a Brain.
type BrainExport struct {
	ID          string       `json:"id"`
	InputNodes  []NodeExport `json:"inputNodes"`
	HiddenNodes []NodeExport `json:"hiddenNodes"`
	OutputNode  NodeExport   `json:"outputNode"`
}

// Export returns the canonical serialisable form of the network.
func (b *Brain) Export() BrainExport {
	ex := BrainExport{
		ID:          b.id,
		InputNodes:  make([]NodeExport, 0, len(b.inputs)),
		HiddenNodes: make([]NodeExport, 0, len(b.hidden)),
		OutputNode:  b.exportNode(b.output),
	}
	for _, h := range b.inputs {
		ex.InputNodes = append(ex.InputNodes, b.exportNode(h))
	}
	for _, h := range b.hidden {
		ex.HiddenNodes = append(ex.HiddenNodes, b.exportNode(h))
	}
	return ex
}

func (b *Brain) exportNode(h int) NodeExport {
	n := &b.nodes[h]
	ne := NodeExport{
		ID:          n.ID,
		Weight:      n.Weight,
		Bias:        n.Bias,
		Relay:       n.Relay,
		Connections: make([]ConnectionExport, 0, len(n.Outgoing)),
	}
	for _, c := range n.Outgoing {
		conn := b.conns[c]
		ne.Connections = append(ne.Connections, ConnectionExport{
			From:     b.nodes[conn.From].ID,
			To:       b.nodes[conn.To].ID,
			Strength: conn.Strength,
		})
	}
	return ne
}

// ImportBrain rebuilds a network from its exported form. The topology,
// weights, biases and strengths are reproduced exactly; the brain and every
// node receive fresh identities from ids.
//
// Nodes are rebuilt OUTPUT first, then HIDDEN, then INPUT (keeping input
// order), and the recorded connections are replayed by identity lookup.
func ImportBrain(ex BrainExport, ids *IDAllocator) (*Brain, error) {
	b := &Brain{id: ids.BrainID(), ids: ids}
	byID := make(map[string]int)

	add := func(ne NodeExport, t NodeType) (int, error) {
		if ne.ID == "" {
			return 0, fmt.Errorf("%w: %s node without id", ErrMalformedImport, t)
		}
		if _, dup := byID[ne.ID]; dup {
			return 0, fmt.Errorf("%w: duplicate node id %q", ErrMalformedImport, ne.ID)
		}
		h := b.addNode(Node{
			ID:     ids.NodeID(),
			Type:   t,
			Weight: ne.Weight,
			Bias:   ne.Bias,
			Relay:  ne.Relay && t == HiddenNode,
		})
		byID[ne.ID] = h
		return h, nil
	}

	var err error
	if b.output, err = add(ex.OutputNode, OutputNode); err != nil {
		return nil, err
	}
	for _, ne := range ex.HiddenNodes {
		h, err := add(ne, HiddenNode)
		if err != nil {
			return nil, err
		}
		b.hidden = append(b.hidden, h)
	}
	for _, ne := range ex.InputNodes {
		h, err := add(ne, InputNode)
		if err != nil {
			return nil, err
		}
		b.inputs = append(b.inputs, h)
	}

	pending := make([]ConnectionExport, 0)
	pending = append(pending, ex.OutputNode.Connections...)
	for _, ne := range ex.HiddenNodes {
		pending = append(pending, ne.Connections...)
	}
	for _, ne := range ex.InputNodes {
		pending = append(pending, ne.Connections...)
	}

	for _, ce := range pending {
		from, ok := byID[ce.From]
		if !ok {
			return nil, fmt.Errorf("%w: connection %s:%s references unknown source", ErrMalformedImport, ce.From, ce.To)
		}
		to, ok := byID[ce.To]
		if !ok {
			return nil, fmt.Errorf("%w: connection %s:%s references unknown target", ErrMalformedImport, ce.From, ce.To)
		}
		if b.nodes[from].Type == OutputNode {
			return nil, fmt.Errorf("%w: connection %s:%s leaves the output node", ErrMalformedImport, ce.From, ce.To)
		}
		if b.nodes[to].Type == InputNode {
			return nil, fmt.Errorf("%w: connection %s:%s enters an input node", ErrMalformedImport, ce.From, ce.To)
		}
		if b.createsCycle(from, to) {
			return nil, fmt.Errorf("%w: connection %s:%s closes a cycle", ErrMalformedImport, ce.From, ce.To)
		}
		b.connect(from, to, ce.Strength)
	}
	return b, nil
}

// Clone returns an independent copy of the network with fresh identities.
func (b *Brain) Clone(ids *IDAllocator) *Brain {
	c, err := ImportBrain(b.Export(), ids)
	if err != nil {
		// A live brain always exports a well-formed payload.
		panic(fmt.Sprintf("clone of brain %s failed: %v", b.id, err))
	}
	return c
}
