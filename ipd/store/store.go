// Package store persists population snapshots and generation reports keyed
// by run identity and generation.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/baldhumanity/ipd-go/ipd"
)

// ErrNotInitialized is returned by stores used before Init or after Close.
var ErrNotInitialized = errors.New("store is not initialized")

// Store is the persistence boundary of a tournament run.
type Store interface {
	Init(ctx context.Context) error
	// SaveSnapshot stores snap under (runID, snap.Generation), replacing any
	// previous snapshot of that generation.
	SaveSnapshot(ctx context.Context, runID string, snap ipd.PopulationExport) error
	GetSnapshot(ctx context.Context, runID string, generation int) (ipd.PopulationExport, bool, error)
	// LatestSnapshot returns the snapshot with the highest generation.
	LatestSnapshot(ctx context.Context, runID string) (ipd.PopulationExport, bool, error)
	SaveReport(ctx context.Context, runID string, report *ipd.GenerationReport) error
	// ListReports returns every report of the run ordered by generation.
	ListReports(ctx context.Context, runID string) ([]ipd.GenerationReport, error)
	Close() error
}

// Open returns an initialized store: in-memory for "" or ":memory:",
// otherwise a sqlite database at path.
func Open(ctx context.Context, path string) (Store, error) {
	var s Store
	switch path {
	case "", ":memory:":
		s = NewMemoryStore()
	default:
		s = NewSQLiteStore(path)
	}
	if err := s.Init(ctx); err != nil {
		return nil, fmt.Errorf("init store %q: %w", path, err)
	}
	return s, nil
}

func encodeReport(r *ipd.GenerationReport) ([]byte, error) {
	if r == nil {
		return nil, errors.New("nil report")
	}
	return json.Marshal(r)
}

func decodeReport(payload []byte) (ipd.GenerationReport, error) {
	var r ipd.GenerationReport
	if err := json.Unmarshal(payload, &r); err != nil {
		return r, fmt.Errorf("decode report: %w", err)
	}
	return r, nil
}
