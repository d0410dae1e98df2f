package nn

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleInputs = [][]float64{
	{1, 1, 0},
	{0, 0, 0},
	{0.25, 0.75, -0.5},
	{1, 0, 3},
	{0.6, 0.4, 0.1},
}

func TestExportShape(t *testing.T) {
	b, _ := newTestBrain(t, 3, 2)
	ex := b.Export()

	assert.Equal(t, b.ID(), ex.ID)
	assert.Len(t, ex.InputNodes, 3)
	assert.Len(t, ex.HiddenNodes, 2)
	assert.Empty(t, ex.OutputNode.Connections)
	assert.Equal(t, 1.0, ex.OutputNode.Weight)
	for _, ne := range ex.InputNodes {
		require.Len(t, ne.Connections, 2)
		for _, ce := range ne.Connections {
			assert.Equal(t, ne.ID, ce.From)
		}
	}

	raw, err := json.Marshal(ex)
	require.NoError(t, err)
	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Contains(t, generic, "inputNodes")
	assert.Contains(t, generic, "hiddenNodes")
	assert.Contains(t, generic, "outputNode")
	assert.NotContains(t, string(raw), "relay", "relay is omitted for ordinary nodes")
}

func TestExportImportRoundTrip(t *testing.T) {
	for seed := int64(1); seed <= 15; seed++ {
		b, rng := newTestBrain(t, 3, seed)
		for i := 0; i < int(seed%5); i++ {
			b.Mutate(rng, aggressive())
		}

		ids := NewIDAllocator()
		ids.NextNode = 1000
		rebuilt, err := ImportBrain(b.Export(), ids)
		require.NoError(t, err, "seed %d", seed)

		assert.Equal(t, b.HiddenCount(), rebuilt.HiddenCount())
		assert.Equal(t, b.ConnectionCount(), rebuilt.ConnectionCount())
		assert.NotEqual(t, b.Node(b.Output()).ID, rebuilt.Node(rebuilt.Output()).ID, "identities are fresh")
		for _, x := range sampleInputs {
			assert.InDelta(t, b.FeedForward(x...), rebuilt.FeedForward(x...), 1e-12, "seed %d input %v", seed, x)
		}
	}
}

func TestImportPreservesParameters(t *testing.T) {
	b, rng := newTestBrain(t, 3, 4)
	require.True(t, b.split(b.Hidden()[0], rng))

	rebuilt, err := ImportBrain(b.Export(), NewIDAllocator())
	require.NoError(t, err)

	orig := b.Export()
	got := rebuilt.Export()
	require.Len(t, got.HiddenNodes, len(orig.HiddenNodes))
	for i := range orig.HiddenNodes {
		assert.Equal(t, orig.HiddenNodes[i].Weight, got.HiddenNodes[i].Weight)
		assert.Equal(t, orig.HiddenNodes[i].Bias, got.HiddenNodes[i].Bias)
		assert.Equal(t, orig.HiddenNodes[i].Relay, got.HiddenNodes[i].Relay)
		require.Len(t, got.HiddenNodes[i].Connections, len(orig.HiddenNodes[i].Connections))
		for j := range orig.HiddenNodes[i].Connections {
			assert.Equal(t, orig.HiddenNodes[i].Connections[j].Strength, got.HiddenNodes[i].Connections[j].Strength)
		}
	}
	assert.True(t, got.HiddenNodes[2].Relay)
}

func TestCloneIsIndependent(t *testing.T) {
	b, rng := newTestBrain(t, 3, 8)
	clone := b.Clone(b.ids)

	x := []float64{0.3, 0.9, 0.1}
	require.InDelta(t, b.FeedForward(x...), clone.FeedForward(x...), 1e-12)

	for i := 0; i < 3; i++ {
		clone.Mutate(rng, aggressive())
	}
	assert.Equal(t, 2, b.HiddenCount())
	assert.Equal(t, "Person-1", b.ID())
	assert.Equal(t, "Person-2", clone.ID())
}

func TestImportMalformed(t *testing.T) {
	base := func() BrainExport {
		b, _ := newTestBrain(t, 2, 1)
		return b.Export()
	}

	tests := []struct {
		name   string
		mutate func(ex *BrainExport)
	}{
		{"unknown target", func(ex *BrainExport) {
			ex.InputNodes[0].Connections[0].To = "node-404"
		}},
		{"unknown source", func(ex *BrainExport) {
			ex.HiddenNodes[0].Connections[0].From = "node-404"
		}},
		{"duplicate node id", func(ex *BrainExport) {
			ex.HiddenNodes[1].ID = ex.HiddenNodes[0].ID
		}},
		{"missing node id", func(ex *BrainExport) {
			ex.OutputNode.ID = ""
		}},
		{"edge into input", func(ex *BrainExport) {
			ex.HiddenNodes[0].Connections = append(ex.HiddenNodes[0].Connections, ConnectionExport{
				From: ex.HiddenNodes[0].ID, To: ex.InputNodes[0].ID, Strength: 1,
			})
		}},
		{"edge out of output", func(ex *BrainExport) {
			ex.OutputNode.Connections = []ConnectionExport{{From: ex.OutputNode.ID, To: ex.HiddenNodes[0].ID, Strength: 1}}
		}},
		{"cycle between hidden nodes", func(ex *BrainExport) {
			h0, h1 := ex.HiddenNodes[0].ID, ex.HiddenNodes[1].ID
			ex.HiddenNodes[0].Connections = append(ex.HiddenNodes[0].Connections, ConnectionExport{From: h0, To: h1, Strength: 1})
			ex.HiddenNodes[1].Connections = append(ex.HiddenNodes[1].Connections, ConnectionExport{From: h1, To: h0, Strength: 1})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := base()
			tt.mutate(&ex)
			_, err := ImportBrain(ex, NewIDAllocator())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedImport), "got %v", err)
		})
	}
}

func TestImportWithoutRelayFlagTreatsNodeAsHidden(t *testing.T) {
	b, rng := newTestBrain(t, 3, 6)
	require.True(t, b.split(b.Hidden()[1], rng))
	ex := b.Export()
	for i := range ex.HiddenNodes {
		ex.HiddenNodes[i].Relay = false
	}

	rebuilt, err := ImportBrain(ex, NewIDAllocator())
	require.NoError(t, err)
	for _, h := range rebuilt.Hidden() {
		assert.False(t, rebuilt.Node(h).Relay)
	}
	assert.True(t, rebuilt.Acyclic())
}
