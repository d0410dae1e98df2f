package ipd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 50, cfg.Simulation.PopulationSize)
	assert.Equal(t, 50, cfg.Simulation.RoundsMin)
	assert.Equal(t, 53, cfg.Simulation.RoundsMax)
	assert.Equal(t, 5, cfg.Simulation.ReplaceCount)
	assert.Equal(t, CloneWorst, cfg.Simulation.SelectionPolicy)
	assert.Equal(t, 0.5, cfg.Mutation.NodeMutateProb)
	assert.Equal(t, 0.0001, cfg.Mutation.SplitProb)
}

func TestLoadSampleConfig(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "configs", "ipd-config"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestParseConfigOverridesAndDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
[Simulation]
population_size = 12
rounds_min = 2
rounds_max = 4
selection_policy = Clone_Best ; inline comment
seed = 99

[Mutation]
split_prob = 0.25
`))
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Simulation.PopulationSize)
	assert.Equal(t, 2, cfg.Simulation.RoundsMin)
	assert.Equal(t, 4, cfg.Simulation.RoundsMax)
	assert.Equal(t, CloneBest, cfg.Simulation.SelectionPolicy)
	assert.Equal(t, int64(99), cfg.Simulation.Seed)
	assert.Equal(t, 0.25, cfg.Mutation.SplitProb)

	assert.Equal(t, 5, cfg.Simulation.ReplaceCount, "absent keys keep defaults")
	assert.Equal(t, 0.05, cfg.Mutation.WeightMutateProb)
}

func TestParseConfigRejects(t *testing.T) {
	tests := []struct {
		name string
		ini  string
	}{
		{"population", "[Simulation]\npopulation_size = 0\n"},
		{"rounds", "[Simulation]\nrounds_min = 10\nrounds_max = 5\n"},
		{"policy", "[Simulation]\nselection_policy = random\n"},
		{"threshold", "[Simulation]\ncooperation_threshold = 1.5\n"},
		{"window", "[Simulation]\nrecency_window = 0\n"},
		{"warehouse", "[Simulation]\nwarehouse_limit = -1\n"},
		{"probability", "[Mutation]\nnode_mutate_prob = 2\n"},
		{"not a number", "[Simulation]\npopulation_size = many\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.ini))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestDecisionPolicyFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg")
	require.NoError(t, os.WriteFile(path, []byte("[Simulation]\ndecision_threshold = 0.7\nrecency_window = 3\nwarehouse_limit = 4\n"), 0o644))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DecisionPolicy{Threshold: 0.7, RecencyWindow: 3, WarehouseLimit: 4}, cfg.DecisionPolicy())
}
