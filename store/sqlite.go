// Package store persists trajectories in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/pthm-cable/heatshock/kinetics"
)

// ErrNotFound is returned when a run id does not exist.
var ErrNotFound = errors.New("store: run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	model       TEXT NOT NULL,
	replicate   INTEGER NOT NULL,
	seed        INTEGER NOT NULL,
	stream      INTEGER NOT NULL,
	t_start     REAL NOT NULL,
	t_end       REAL NOT NULL,
	steps       INTEGER NOT NULL,
	termination TEXT NOT NULL,
	species     TEXT NOT NULL,
	created_at  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS records (
	run_id      INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	idx         INTEGER NOT NULL,
	time        REAL NOT NULL,
	temperature REAL NOT NULL,
	counts      TEXT NOT NULL,
	PRIMARY KEY (run_id, idx)
);
`

// RunMeta describes how a stored trajectory was produced.
type RunMeta struct {
	ID          int64
	Model       string
	Replicate   int
	Seed        uint64
	Stream      uint64
	TStart      float64
	TEnd        float64
	Steps       int
	Termination kinetics.Termination
	Species     []string
	CreatedAt   time.Time
}

// Store is a SQLite-backed run archive.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and ensures the schema exists.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun stores a trajectory and returns its run id. Steps, Termination
// and Species are taken from traj.
func (s *Store) SaveRun(ctx context.Context, meta RunMeta, traj *kinetics.Trajectory) (int64, error) {
	species, err := json.Marshal(traj.Species)
	if err != nil {
		return 0, err
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (model, replicate, seed, stream, t_start, t_end, steps, termination, species, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.Model, meta.Replicate, int64(meta.Seed), int64(meta.Stream), meta.TStart, meta.TEnd,
		traj.Steps, string(traj.Termination), string(species), meta.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO records (run_id, idx, time, temperature, counts) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing record insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range traj.Records {
		counts, err := json.Marshal(rec.Counts)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx, id, i, rec.Time, rec.Temperature, string(counts)); err != nil {
			return 0, fmt.Errorf("inserting record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return id, nil
}

// Runs lists stored runs in insertion order.
func (s *Store) Runs(ctx context.Context) ([]RunMeta, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, model, replicate, seed, stream, t_start, t_end, steps, termination, species, created_at
		FROM runs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []RunMeta
	for rows.Next() {
		m, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Run returns the metadata of one run.
func (s *Store) Run(ctx context.Context, id int64) (RunMeta, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, model, replicate, seed, stream, t_start, t_end, steps, termination, species, created_at
		FROM runs WHERE id = ?`, id)
	m, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunMeta{}, fmt.Errorf("run %d: %w", id, ErrNotFound)
	}
	return m, err
}

// LoadTrajectory rebuilds the trajectory stored under id.
func (s *Store) LoadTrajectory(ctx context.Context, id int64) (*kinetics.Trajectory, error) {
	meta, err := s.Run(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT time, temperature, counts FROM records WHERE run_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	traj := &kinetics.Trajectory{
		Species:     meta.Species,
		Steps:       meta.Steps,
		Termination: meta.Termination,
	}
	for rows.Next() {
		var (
			rec    kinetics.Record
			counts string
		)
		if err := rows.Scan(&rec.Time, &rec.Temperature, &counts); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		if err := json.Unmarshal([]byte(counts), &rec.Counts); err != nil {
			return nil, fmt.Errorf("decoding counts: %w", err)
		}
		traj.Records = append(traj.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return traj, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (RunMeta, error) {
	var (
		m                    RunMeta
		seed, stream         int64
		term, species, stamp string
	)
	if err := sc.Scan(&m.ID, &m.Model, &m.Replicate, &seed, &stream, &m.TStart, &m.TEnd, &m.Steps, &term, &species, &stamp); err != nil {
		return RunMeta{}, err
	}
	m.Seed = uint64(seed)
	m.Stream = uint64(stream)
	m.Termination = kinetics.Termination(term)
	if err := json.Unmarshal([]byte(species), &m.Species); err != nil {
		return RunMeta{}, fmt.Errorf("decoding species: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return RunMeta{}, fmt.Errorf("parsing created_at: %w", err)
	}
	m.CreatedAt = t
	return m, nil
}
