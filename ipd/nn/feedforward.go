package nn

// topoOrder returns every node handle in dependency order (Kahn's algorithm).
// ok is false when the graph contains a cycle, in which case the order is partial.
func (b *Brain) topoOrder() (order []int, ok bool) {
	inDegree := make([]int, len(b.nodes))
	for _, c := range b.conns {
		inDegree[c.To]++
	}

	queue := make([]int, 0, len(b.nodes))
	for h := range b.nodes {
		if inDegree[h] == 0 {
			queue = append(queue, h)
		}
	}

	order = make([]int, 0, len(b.nodes))
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		order = append(order, u)
		for _, c := range b.nodes[u].Outgoing {
			v := b.conns[c].To
			inDegree[v]--
			if inDegree[v] == 0 {
				queue = append(queue, v)
			}
		}
	}
	return order, len(order) == len(b.nodes)
}

// FeedForward assigns inputs to the INPUT nodes in order (missing values
// default to 0, extra values are ignored) and returns the OUTPUT node value.
// The whole graph is recomputed on every call.
func (b *Brain) FeedForward(inputs ...float64) float64 {
	for i, h := range b.inputs {
		if i < len(inputs) {
			b.nodes[h].Input = inputs[i]
		} else {
			b.nodes[h].Input = 0
		}
	}

	order, _ := b.topoOrder()
	values := make([]float64, len(b.nodes))
	for _, h := range order {
		values[h] = b.nodeValue(h, values)
	}
	return values[b.output]
}

// nodeValue computes the output of node h given the already-computed values
// of its sources.
func (b *Brain) nodeValue(h int, values []float64) float64 {
	n := &b.nodes[h]
	var v float64
	if len(n.Incoming) > 0 {
		sum := 0.0
		for _, c := range n.Incoming {
			sum += b.connectionValue(c, values)
		}
		v = sum*n.Weight + n.Bias
	} else {
		v = n.Input*n.Weight + n.Bias
	}
	if n.Type == OutputNode {
		return Sigmoid(v)
	}
	return v
}

// connectionValue is the source output times strength, squashed with tanh
// unless the source is an INPUT or relay node.
func (b *Brain) connectionValue(c int, values []float64) float64 {
	conn := b.conns[c]
	src := &b.nodes[conn.From]
	v := values[conn.From] * conn.Strength
	if src.Type == InputNode || src.Relay {
		return v
	}
	return Tanh(v)
}
