package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/a-bouts/nav-sim/latlon"
	"github.com/a-bouts/nav-sim/track"
)

var ErrNotFound = errors.New("run not found")

// Run is a finished simulation as kept in the store.
type Run struct {
	ID         int64           `json:"id"`
	CreatedAt  time.Time       `json:"createdAt"`
	BoatClass  string          `json:"boat"`
	SailOption string          `json:"option"`
	Status     string          `json:"status"`
	Waypoint   int             `json:"waypoint"`
	Minutes    float64         `json:"minutes"`
	Distance   float64         `json:"distance"`
	Track      []latlon.LatLon `json:"-"`
}

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// ":memory:" databases are per connection
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at INTEGER NOT NULL,
			boat_class TEXT NOT NULL,
			sail_option TEXT NOT NULL,
			status TEXT NOT NULL,
			waypoint INTEGER NOT NULL,
			minutes REAL NOT NULL,
			distance REAL NOT NULL,
			track BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating runs table: %w", err)
	}

	log.Debugf("Runs store opened at %s", path)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores run and returns its id. The track is kept compressed.
func (s *Store) Save(ctx context.Context, run *Run) (int64, error) {
	blob, err := track.Marshal(run.Track)
	if err != nil {
		return 0, err
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (created_at, boat_class, sail_option, status, waypoint, minutes, distance, track) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.CreatedAt.Unix(), run.BoatClass, run.SailOption, run.Status, run.Waypoint, run.Minutes, run.Distance, blob)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	run.ID, err = res.LastInsertId()
	return run.ID, err
}

func (s *Store) Get(ctx context.Context, id int64) (*Run, error) {
	var (
		run     Run
		created int64
		blob    []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, boat_class, sail_option, status, waypoint, minutes, distance, track FROM runs WHERE id = ?`, id).
		Scan(&run.ID, &created, &run.BoatClass, &run.SailOption, &run.Status, &run.Waypoint, &run.Minutes, &run.Distance, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading run %d: %w", id, err)
	}

	run.CreatedAt = time.Unix(created, 0)
	if run.Track, err = track.Unmarshal(blob); err != nil {
		return nil, fmt.Errorf("run %d: %w", id, err)
	}
	return &run, nil
}

// List returns the latest runs first, without their tracks.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, boat_class, sail_option, status, waypoint, minutes, distance FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var (
			run     Run
			created int64
		)
		if err := rows.Scan(&run.ID, &created, &run.BoatClass, &run.SailOption, &run.Status, &run.Waypoint, &run.Minutes, &run.Distance); err != nil {
			return nil, err
		}
		run.CreatedAt = time.Unix(created, 0)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
