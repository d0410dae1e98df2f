package ipd

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/baldhumanity/ipd-go/ipd/nn"
)

// Selection policies for generational replacement.
const (
	CloneWorst = "clone_worst"
	CloneBest  = "clone_best"
)

// Config stores the parameters of a tournament run.
type Config struct {
	Simulation SimulationConfig
	Mutation   nn.MutationConfig
}

// SimulationConfig holds the [Simulation] section.
type SimulationConfig struct {
	PopulationSize       int     `ini:"population_size"`
	RoundsMin            int     `ini:"rounds_min"`
	RoundsMax            int     `ini:"rounds_max"` // inclusive
	ReplaceCount         int     `ini:"replace_count"`
	SelectionPolicy      string  `ini:"selection_policy"` // clone_worst or clone_best
	CooperationThreshold float64 `ini:"cooperation_threshold"`
	DecisionThreshold    float64 `ini:"decision_threshold"`
	RecencyWindow        int     `ini:"recency_window"`
	WarehouseLimit       int     `ini:"warehouse_limit"` // 0 keeps every generation
	Seed                 int64   `ini:"seed"`            // 0 seeds from the clock
	CheckpointEvery      int     `ini:"checkpoint_every"`
}

// DefaultConfig returns the stock parameters.
func DefaultConfig() *Config {
	return &Config{
		Simulation: SimulationConfig{
			PopulationSize:       50,
			RoundsMin:            50,
			RoundsMax:            53,
			ReplaceCount:         5,
			SelectionPolicy:      CloneWorst,
			CooperationThreshold: 0.5,
			DecisionThreshold:    0.5,
			RecencyWindow:        5,
			CheckpointEvery:      20,
		},
		Mutation: nn.DefaultMutationConfig(),
	}
}

// DecisionPolicy derives the policy handed to every network being.
func (c *Config) DecisionPolicy() DecisionPolicy {
	return DecisionPolicy{
		Threshold:      c.Simulation.DecisionThreshold,
		RecencyWindow:  c.Simulation.RecencyWindow,
		WarehouseLimit: c.Simulation.WarehouseLimit,
	}
}

// LoadConfig loads configuration parameters from an INI file. Keys that are
// absent keep their DefaultConfig value.
func LoadConfig(filePath string) (*Config, error) {
	return loadConfig(filePath)
}

// ParseConfig is LoadConfig over in-memory INI data.
func ParseConfig(data []byte) (*Config, error) {
	return loadConfig(data)
}

func loadConfig(source interface{}) (*Config, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, source)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	config := DefaultConfig()
	if err := file.Section("Simulation").StrictMapTo(&config.Simulation); err != nil {
		return nil, fmt.Errorf("failed to map [Simulation] section: %w", err)
	}
	if err := file.Section("Mutation").StrictMapTo(&config.Mutation); err != nil {
		return nil, fmt.Errorf("failed to map [Mutation] section: %w", err)
	}

	config.Simulation.SelectionPolicy = cleanIniString(config.Simulation.SelectionPolicy)
	if config.Simulation.SelectionPolicy == "" {
		config.Simulation.SelectionPolicy = CloneWorst
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks every parameter range.
func (c *Config) Validate() error {
	s := c.Simulation
	if s.PopulationSize <= 0 {
		return fmt.Errorf("config error: population_size must be positive")
	}
	if s.RoundsMin <= 0 {
		return fmt.Errorf("config error: rounds_min must be positive")
	}
	if s.RoundsMax < s.RoundsMin {
		return fmt.Errorf("config error: rounds_max cannot be less than rounds_min")
	}
	if s.ReplaceCount < 0 {
		return fmt.Errorf("config error: replace_count cannot be negative")
	}
	switch s.SelectionPolicy {
	case CloneWorst, CloneBest:
	default:
		return fmt.Errorf("config error: invalid selection_policy '%s', must be one of '%s', '%s'", s.SelectionPolicy, CloneWorst, CloneBest)
	}
	if s.CooperationThreshold < 0 || s.CooperationThreshold > 1 {
		return fmt.Errorf("config error: cooperation_threshold must be between 0 and 1")
	}
	if s.DecisionThreshold < 0 || s.DecisionThreshold > 1 {
		return fmt.Errorf("config error: decision_threshold must be between 0 and 1")
	}
	if s.RecencyWindow <= 0 {
		return fmt.Errorf("config error: recency_window must be positive")
	}
	if s.WarehouseLimit < 0 {
		return fmt.Errorf("config error: warehouse_limit cannot be negative")
	}
	if s.CheckpointEvery < 0 {
		return fmt.Errorf("config error: checkpoint_every cannot be negative")
	}
	return c.Mutation.Validate()
}

// cleanIniString removes inline comments and trims whitespace from a string read from INI.
func cleanIniString(s string) string {
	if idx := strings.IndexAny(s, "#;"); idx != -1 {
		s = s[:idx]
	}
	return strings.ToLower(strings.TrimSpace(s))
}
