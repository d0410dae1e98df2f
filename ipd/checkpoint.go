package ipd

import (
	"bufio"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// PopulationExport is the serialisable snapshot of a simulator.
type PopulationExport struct {
	Generation int           `json:"generation"`
	Beings     []BeingExport `json:"beings"`
}

//go:embed population.schema.json
var populationSchemaSource string

var (
	populationSchemaOnce sync.Once
	populationSchema     *jsonschema.Schema
	populationSchemaErr  error
)

func compiledPopulationSchema() (*jsonschema.Schema, error) {
	populationSchemaOnce.Do(func() {
		populationSchema, populationSchemaErr = jsonschema.CompileString("population.schema.json", populationSchemaSource)
	})
	return populationSchema, populationSchemaErr
}

// Export snapshots the generation counter and every network being. Residents
// are not part of the snapshot.
func (s *GenerationSimulator) Export() PopulationExport {
	ex := PopulationExport{
		Generation: s.generation,
		Beings:     make([]BeingExport, 0, len(s.beings)),
	}
	for _, b := range s.beings {
		ex.Beings = append(ex.Beings, b.Export())
	}
	return ex
}

// Import replaces the population with the beings of ex, rebuilt under fresh
// identities, and restores the generation counter. On error the simulator is
// left untouched.
func (s *GenerationSimulator) Import(ex PopulationExport) error {
	if ex.Generation < 0 {
		return fmt.Errorf("%w: negative generation %d", ErrMalformedImport, ex.Generation)
	}
	policy := s.Config.DecisionPolicy()
	beings := make([]*NetworkBeing, 0, len(ex.Beings))
	for i, be := range ex.Beings {
		b, err := ImportNetworkBeing(be, s.ids, policy)
		if err != nil {
			return fmt.Errorf("being %d: %w", i, err)
		}
		beings = append(beings, b)
	}

	prev := s.beings
	s.beings = beings
	if err := s.checkIdentities(); err != nil {
		s.beings = prev
		return err
	}
	s.generation = ex.Generation
	s.scoreBoard = make(map[string]int)
	s.logger.Info("population imported", "generation", s.generation, "beings", len(beings))
	return nil
}

// EncodePopulation renders a snapshot as JSON.
func EncodePopulation(ex PopulationExport) ([]byte, error) {
	data, err := json.Marshal(ex)
	if err != nil {
		return nil, fmt.Errorf("failed to encode population: %w", err)
	}
	return data, nil
}

// DecodePopulation validates data against the population schema and decodes
// it. Validation failures are ErrMalformedImport.
func DecodePopulation(data []byte) (PopulationExport, error) {
	var ex PopulationExport
	schema, err := compiledPopulationSchema()
	if err != nil {
		return ex, fmt.Errorf("compile population schema: %w", err)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return ex, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	if err := schema.Validate(raw); err != nil {
		return ex, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	if err := json.Unmarshal(data, &ex); err != nil {
		return ex, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	return ex, nil
}

// SaveCheckpoint writes the current population to filePath as zstd
// compressed JSON.
func (s *GenerationSimulator) SaveCheckpoint(filePath string) error {
	return WriteCheckpoint(filePath, s.Export())
}

// WriteCheckpoint writes ex to filePath as zstd compressed JSON.
func WriteCheckpoint(filePath string, ex PopulationExport) error {
	data, err := EncodePopulation(ex)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create checkpoint directory: %w", err)
		}
	}
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint file '%s': %w", filePath, err)
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	if _, err := enc.Write(data); err != nil {
		enc.Close()
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to flush checkpoint: %w", err)
	}
	return f.Close()
}

// ReadCheckpoint reads and validates a checkpoint written by WriteCheckpoint.
func ReadCheckpoint(checkpointPath string) (PopulationExport, error) {
	f, err := os.Open(checkpointPath)
	if err != nil {
		return PopulationExport{}, fmt.Errorf("failed to open checkpoint file '%s': %w", checkpointPath, err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return PopulationExport{}, fmt.Errorf("failed to create zstd reader for checkpoint: %w", err)
	}
	defer dec.Close()

	data, err := io.ReadAll(bufio.NewReader(dec))
	if err != nil {
		return PopulationExport{}, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	return DecodePopulation(data)
}

// LoadCheckpoint rebuilds a simulator from a checkpoint. The configuration
// is reloaded from configPath; an empty path uses DefaultConfig.
func LoadCheckpoint(checkpointPath, configPath string, opts ...Option) (*GenerationSimulator, error) {
	config := DefaultConfig()
	if configPath != "" {
		var err error
		config, err = LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config '%s' for checkpoint: %w", configPath, err)
		}
	}

	ex, err := ReadCheckpoint(checkpointPath)
	if err != nil {
		return nil, err
	}
	s, err := RestoreSimulator(config, ex, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to restore checkpoint '%s': %w", checkpointPath, err)
	}
	return s, nil
}

// RestoreSimulator builds a simulator whose population is taken from ex
// instead of being freshly generated.
func RestoreSimulator(config *Config, ex PopulationExport, opts ...Option) (*GenerationSimulator, error) {
	s, err := newSimulator(config, opts...)
	if err != nil {
		return nil, err
	}
	if err := s.Import(ex); err != nil {
		return nil, err
	}
	return s, nil
}
