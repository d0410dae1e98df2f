package ipd

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/ipd-go/ipd/nn"
)

var probeInputs = [][]float64{{1, 1, 0}, {0.5, 0.2, -0.3}, {0, 0, 2}}

func evolvedSimulator(t *testing.T) *GenerationSimulator {
	t.Helper()
	cfg := testConfig(6, 3)
	cfg.Mutation.SplitProb = 0.3
	cfg.Mutation.NewConnectionProb = 0.5
	s := newTestSimulator(t, cfg, 21)
	require.NoError(t, s.RunGenerations(context.Background(), 3, nil))
	return s
}

func assertSamePopulation(t *testing.T, want, got *GenerationSimulator) {
	t.Helper()
	assert.Equal(t, want.Generation(), got.Generation())
	wb, gb := want.Beings(), got.Beings()
	require.Len(t, gb, len(wb))
	for i := range wb {
		assert.Equal(t, wb[i].NodeCount(), gb[i].NodeCount())
		for _, x := range probeInputs {
			assert.InDelta(t, wb[i].Brain().FeedForward(x...), gb[i].Brain().FeedForward(x...), 1e-12)
		}
	}
}

func TestExportImportPopulation(t *testing.T) {
	s := evolvedSimulator(t)
	ex := s.Export()
	assert.Equal(t, 3, ex.Generation)
	require.Len(t, ex.Beings, 6)
	for _, be := range ex.Beings {
		assert.Empty(t, be.History)
		assert.Empty(t, be.Warehouse)
	}

	data, err := EncodePopulation(ex)
	require.NoError(t, err)
	decoded, err := DecodePopulation(data)
	require.NoError(t, err)

	restored := newTestSimulator(t, testConfig(1, 1), 99)
	require.NoError(t, restored.Import(decoded))
	assertSamePopulation(t, s, restored)

	_, err = restored.RunGeneration(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, restored.Generation())
}

func TestDecodePopulationRejects(t *testing.T) {
	s := newTestSimulator(t, testConfig(2, 1), 1)
	good, err := EncodePopulation(s.Export())
	require.NoError(t, err)

	mutate := func(fn func(doc map[string]any)) []byte {
		var doc map[string]any
		require.NoError(t, json.Unmarshal(good, &doc))
		fn(doc)
		out, err := json.Marshal(doc)
		require.NoError(t, err)
		return out
	}
	firstBeing := func(doc map[string]any) map[string]any {
		return doc["beings"].([]any)[0].(map[string]any)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"not json", []byte("{")},
		{"missing beings", mutate(func(doc map[string]any) { delete(doc, "beings") })},
		{"negative generation", mutate(func(doc map[string]any) { doc["generation"] = -1 })},
		{"fractional generation", mutate(func(doc map[string]any) { doc["generation"] = 1.5 })},
		{"missing brain", mutate(func(doc map[string]any) { delete(firstBeing(doc), "brain") })},
		{"bad action", mutate(func(doc map[string]any) {
			firstBeing(doc)["history"] = map[string]any{"Person-2": []any{map[string]any{"us": "MAYBE", "them": "DEFECT"}}}
		})},
		{"too few inputs", mutate(func(doc map[string]any) {
			brain := firstBeing(doc)["brain"].(map[string]any)
			brain["inputNodes"] = brain["inputNodes"].([]any)[:1]
		})},
		{"node without id", mutate(func(doc map[string]any) {
			brain := firstBeing(doc)["brain"].(map[string]any)
			delete(brain["outputNode"].(map[string]any), "id")
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePopulation(tt.data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedImport), "got %v", err)
		})
	}
}

func TestImportBrokenReferenceLeavesSimulatorUntouched(t *testing.T) {
	s := newTestSimulator(t, testConfig(3, 1), 1)
	before := beingIDs(s.Beings())

	donor := newTestSimulator(t, testConfig(2, 1), 2)
	ex := donor.Export()
	ex.Beings[1].Brain.InputNodes[0].Connections[0].To = "node-missing"

	err := s.Import(ex)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedImport)
	assert.Equal(t, before, beingIDs(s.Beings()))
	assert.Equal(t, 0, s.Generation())
}

func TestImportRejectsForeignInputCount(t *testing.T) {
	s := newTestSimulator(t, testConfig(2, 1), 1)
	brain := nn.NewBrain(1, nn.NewIDAllocator(), rand.New(rand.NewSource(4)))
	ex := PopulationExport{
		Generation: 2,
		Beings:     []BeingExport{{History: History{}, Warehouse: []History{}, Brain: brain.Export()}},
	}

	err := s.Import(ex)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedImport)
	assert.Len(t, s.Beings(), 2)
	assert.Equal(t, 0, s.Generation())
}

func TestCheckpointRoundTrip(t *testing.T) {
	s := evolvedSimulator(t)
	path := filepath.Join(t.TempDir(), "nested", "gen-3.ckpt")
	require.NoError(t, s.SaveCheckpoint(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, json.Valid(raw), "checkpoint is compressed")

	restored, err := LoadCheckpoint(path, "", WithRand(rand.New(rand.NewSource(5))))
	require.NoError(t, err)
	assertSamePopulation(t, s, restored)

	withConfig, err := LoadCheckpoint(path, filepath.Join("..", "configs", "ipd-config"))
	require.NoError(t, err)
	assert.Equal(t, 50, withConfig.Config.Simulation.PopulationSize)
	assert.Len(t, withConfig.Beings(), 6, "population comes from the checkpoint")
}

func TestLoadCheckpointErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadCheckpoint(filepath.Join(dir, "missing"), "")
	assert.Error(t, err)

	plain := filepath.Join(dir, "plain.json")
	require.NoError(t, os.WriteFile(plain, []byte(`{"generation":0,"beings":[]}`), 0o644))
	_, err = LoadCheckpoint(plain, "")
	assert.Error(t, err, "checkpoints must be zstd compressed")

	s := newTestSimulator(t, testConfig(2, 1), 1)
	good := filepath.Join(dir, "good.ckpt")
	require.NoError(t, s.SaveCheckpoint(good))
	_, err = LoadCheckpoint(good, filepath.Join(dir, "no-config"))
	assert.Error(t, err)
}
