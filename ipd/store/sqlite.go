package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/baldhumanity/ipd-go/ipd"
)

// SQLiteStore persists payloads as JSON blobs in a sqlite database.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, runID string, snap ipd.PopulationExport) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	payload, err := ipd.EncodePopulation(snap)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO snapshots (run_id, generation, beings, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id, generation) DO UPDATE SET
			beings = excluded.beings,
			payload = excluded.payload
	`, runID, snap.Generation, len(snap.Beings), payload)
	return err
}

func (s *SQLiteStore) GetSnapshot(ctx context.Context, runID string, generation int) (ipd.PopulationExport, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return ipd.PopulationExport{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx,
		`SELECT payload FROM snapshots WHERE run_id = ? AND generation = ?`, runID, generation).Scan(&payload)
	return decodeSnapshotRow(payload, err, runID)
}

func (s *SQLiteStore) LatestSnapshot(ctx context.Context, runID string) (ipd.PopulationExport, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return ipd.PopulationExport{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx,
		`SELECT payload FROM snapshots WHERE run_id = ? ORDER BY generation DESC LIMIT 1`, runID).Scan(&payload)
	return decodeSnapshotRow(payload, err, runID)
}

func decodeSnapshotRow(payload []byte, err error, runID string) (ipd.PopulationExport, bool, error) {
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ipd.PopulationExport{}, false, nil
		}
		return ipd.PopulationExport{}, false, err
	}
	snap, err := ipd.DecodePopulation(payload)
	if err != nil {
		return ipd.PopulationExport{}, false, fmt.Errorf("decode snapshot of run %s: %w", runID, err)
	}
	return snap, true, nil
}

func (s *SQLiteStore) SaveReport(ctx context.Context, runID string, report *ipd.GenerationReport) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	payload, err := encodeReport(report)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO reports (run_id, generation, cooperators, defectors, total_score, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, generation) DO UPDATE SET
			cooperators = excluded.cooperators,
			defectors = excluded.defectors,
			total_score = excluded.total_score,
			payload = excluded.payload
	`, runID, report.Generation, report.Cooperators, report.Defectors, report.TotalScore, payload)
	return err
}

func (s *SQLiteStore) ListReports(ctx context.Context, runID string) ([]ipd.GenerationReport, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT payload FROM reports WHERE run_id = ? ORDER BY generation ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ipd.GenerationReport
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		r, err := decodeReport(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrNotInitialized
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS snapshots (
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			beings INTEGER NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (run_id, generation)
		);
		CREATE TABLE IF NOT EXISTS reports (
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			cooperators INTEGER NOT NULL,
			defectors INTEGER NOT NULL,
			total_score INTEGER NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (run_id, generation)
		);
	`)
	return err
}
