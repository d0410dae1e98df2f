package ipd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StrategySpec names one scripted strategy.
type StrategySpec struct {
	Name  string `yaml:"name"`
	Logic string `yaml:"logic"`
}

type strategyFile struct {
	Strategies []StrategySpec `yaml:"strategies"`
}

// LoadStrategies reads a YAML file of the form
//
//	strategies:
//	  - name: tit-for-tat
//	    logic: 'size(history) == 0 ? COOPERATE : history[size(history) - 1].them'
//
// and compiles every entry into a ScriptedBeing.
func LoadStrategies(path string) ([]*ScriptedBeing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read strategies file '%s': %w", path, err)
	}
	return ParseStrategies(data)
}

// ParseStrategies compiles strategies from YAML bytes. Names must be unique
// and logic must be present.
func ParseStrategies(data []byte) ([]*ScriptedBeing, error) {
	var f strategyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse strategies: %w", err)
	}

	seen := make(map[string]bool, len(f.Strategies))
	beings := make([]*ScriptedBeing, 0, len(f.Strategies))
	for i, s := range f.Strategies {
		if s.Name == "" {
			return nil, fmt.Errorf("strategy %d: name is required", i)
		}
		if s.Logic == "" {
			return nil, fmt.Errorf("strategy %s: logic is required", s.Name)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("strategy %s: duplicate name", s.Name)
		}
		seen[s.Name] = true

		b, err := NewScriptedBeing(s.Name, s.Logic)
		if err != nil {
			return nil, err
		}
		beings = append(beings, b)
	}
	return beings, nil
}
