// Package runlog persists training runs and their per-epoch metrics in a
// SQLite database, so results survive the process and can be compared across
// runs.
package runlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	started_at TIMESTAMP NOT NULL,
	max_epochs INTEGER NOT NULL,
	notes      TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS epochs (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	epoch       INTEGER NOT NULL,
	loss        REAL NOT NULL,
	recorded_at TIMESTAMP NOT NULL,
	PRIMARY KEY (run_id, epoch)
);
`

// Store is a SQLite-backed run history.
type Store struct {
	db *sql.DB
}

// Open opens (creating when needed) the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("runlog: open: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("runlog: schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRun records a new run and returns its generated ID.
func (s *Store) CreateRun(ctx context.Context, maxEpochs int, notes string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, max_epochs, notes) VALUES (?, ?, ?, ?)`,
		id, time.Now().UTC(), maxEpochs, notes)
	if err != nil {
		return "", fmt.Errorf("runlog: create run: %w", err)
	}
	return id, nil
}

// LogEpoch records the loss of one epoch of a run.
func (s *Store) LogEpoch(ctx context.Context, runID string, epoch int, loss float64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO epochs (run_id, epoch, loss, recorded_at) VALUES (?, ?, ?, ?)`,
		runID, epoch, loss, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("runlog: log epoch: %w", err)
	}
	return nil
}

// EpochLoss is one recorded epoch of a run.
type EpochLoss struct {
	Epoch int
	Loss  float64
}

// Epochs returns the recorded epochs of a run in order.
func (s *Store) Epochs(ctx context.Context, runID string) ([]EpochLoss, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT epoch, loss FROM epochs WHERE run_id = ? ORDER BY epoch`, runID)
	if err != nil {
		return nil, fmt.Errorf("runlog: epochs: %w", err)
	}
	defer rows.Close()
	var out []EpochLoss
	for rows.Next() {
		var e EpochLoss
		if err := rows.Scan(&e.Epoch, &e.Loss); err != nil {
			return nil, fmt.Errorf("runlog: scan: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("runlog: rows: %w", err)
	}
	return out, nil
}
