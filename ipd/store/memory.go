package store

import (
	"context"
	"sort"
	"sync"

	"github.com/baldhumanity/ipd-go/ipd"
)

// MemoryStore keeps encoded payloads in maps, so callers never share state
// with the store.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	snapshots   map[string]map[int][]byte
	reports     map[string]map[int][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	s.initialized = true
	s.snapshots = make(map[string]map[int][]byte)
	s.reports = make(map[string]map[int][]byte)
	return nil
}

func (s *MemoryStore) SaveSnapshot(_ context.Context, runID string, snap ipd.PopulationExport) error {
	payload, err := ipd.EncodePopulation(snap)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}
	if s.snapshots[runID] == nil {
		s.snapshots[runID] = make(map[int][]byte)
	}
	s.snapshots[runID][snap.Generation] = payload
	return nil
}

func (s *MemoryStore) GetSnapshot(_ context.Context, runID string, generation int) (ipd.PopulationExport, bool, error) {
	s.mu.RLock()
	if !s.initialized {
		s.mu.RUnlock()
		return ipd.PopulationExport{}, false, ErrNotInitialized
	}
	payload, ok := s.snapshots[runID][generation]
	s.mu.RUnlock()

	if !ok {
		return ipd.PopulationExport{}, false, nil
	}
	snap, err := ipd.DecodePopulation(payload)
	if err != nil {
		return ipd.PopulationExport{}, false, err
	}
	return snap, true, nil
}

func (s *MemoryStore) LatestSnapshot(ctx context.Context, runID string) (ipd.PopulationExport, bool, error) {
	s.mu.RLock()
	if !s.initialized {
		s.mu.RUnlock()
		return ipd.PopulationExport{}, false, ErrNotInitialized
	}
	latest, found := 0, false
	for gen := range s.snapshots[runID] {
		if !found || gen > latest {
			latest, found = gen, true
		}
	}
	s.mu.RUnlock()

	if !found {
		return ipd.PopulationExport{}, false, nil
	}
	return s.GetSnapshot(ctx, runID, latest)
}

func (s *MemoryStore) SaveReport(_ context.Context, runID string, report *ipd.GenerationReport) error {
	payload, err := encodeReport(report)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}
	if s.reports[runID] == nil {
		s.reports[runID] = make(map[int][]byte)
	}
	s.reports[runID][report.Generation] = payload
	return nil
}

func (s *MemoryStore) ListReports(_ context.Context, runID string) ([]ipd.GenerationReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return nil, ErrNotInitialized
	}

	gens := make([]int, 0, len(s.reports[runID]))
	for gen := range s.reports[runID] {
		gens = append(gens, gen)
	}
	sort.Ints(gens)

	out := make([]ipd.GenerationReport, 0, len(gens))
	for _, gen := range gens {
		r, err := decodeReport(s.reports[runID][gen])
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = false
	s.snapshots = nil
	s.reports = nil
	return nil
}
