// Package history keeps a local record of task runs in SQLite.
//
// Every finished task invocation is stored with its arguments, final state
// and per-step outcome, so "taskgate history" can answer what ran, when, and
// where it stopped.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	tgerrors "github.com/felixgeelhaar/taskgate/internal/errors"
	"github.com/felixgeelhaar/taskgate/internal/task"
)

// DefaultLimit caps Recent when no limit is given.
const DefaultLimit = 20

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Run is one stored task invocation.
type Run struct {
	ID        int64             `json:"id" yaml:"id"`
	RunID     string            `json:"run_id" yaml:"run_id"`
	Task      string            `json:"task" yaml:"task"`
	Args      map[string]string `json:"args,omitempty" yaml:"args,omitempty"`
	State     string            `json:"state" yaml:"state"`
	ErrorCode string            `json:"error_code,omitempty" yaml:"error_code,omitempty"`
	Error     string            `json:"error,omitempty" yaml:"error,omitempty"`
	DryRun    bool              `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	Started   time.Time         `json:"started" yaml:"started"`
	Finished  time.Time         `json:"finished" yaml:"finished"`
	Steps     []Step            `json:"steps,omitempty" yaml:"steps,omitempty"`
}

// Duration returns how long the run took.
func (r Run) Duration() time.Duration {
	if r.Started.IsZero() || r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// Step is the stored outcome of one executed step.
type Step struct {
	Position  int           `json:"position" yaml:"position"`
	Name      string        `json:"name" yaml:"name"`
	Command   string        `json:"command" yaml:"command"`
	ExitCode  int           `json:"exit_code" yaml:"exit_code"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	Continued bool          `json:"continued,omitempty" yaml:"continued,omitempty"`
}

// Query filters Recent.
type Query struct {
	Task  string
	State string
	Limit int
}

// Store persists runs in a SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("history: create directory: %w", err)
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("history: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: migration: %w", err)
	}
	return s, nil
}

// Path returns the database file.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id     TEXT NOT NULL,
			task       TEXT NOT NULL,
			args       TEXT NOT NULL DEFAULT '{}',
			state      TEXT NOT NULL,
			error_code TEXT NOT NULL DEFAULT '',
			error      TEXT NOT NULL DEFAULT '',
			dry_run    INTEGER NOT NULL DEFAULT 0,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_runs_task ON runs(task, id);

		CREATE TABLE IF NOT EXISTS steps (
			run_pk    INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position  INTEGER NOT NULL,
			name      TEXT NOT NULL,
			command   TEXT NOT NULL,
			exit_code INTEGER NOT NULL,
			duration_ns INTEGER NOT NULL,
			continued INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (run_pk, position)
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores a finished report under runID. Reports that never started
// (validation failures) are stored too, with no steps.
func (s *Store) Record(ctx context.Context, runID string, report *task.Report, dryRun bool) (int64, error) {
	args, err := json.Marshal(report.Args)
	if err != nil {
		return 0, fmt.Errorf("history: encode args: %w", err)
	}

	var code, msg string
	if report.Err != nil {
		msg = report.Err.Error()
		if c, ok := tgerrors.CodeOf(report.Err); ok {
			code = string(c)
		}
	}

	started, finished := report.Started, report.Finished
	if started.IsZero() {
		started = time.Now()
	}
	if finished.IsZero() {
		finished = started
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, task, args, state, error_code, error, dry_run, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, report.Task, string(args), report.State.String(), code, msg, dryRun,
		formatTime(started), formatTime(finished))
	if err != nil {
		return 0, fmt.Errorf("history: insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for i, step := range report.Steps {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO steps (run_pk, position, name, command, exit_code, duration_ns, continued)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, i+1, step.Name, string(step.Command), step.ExitCode, int64(step.Duration), step.Continued)
		if err != nil {
			return 0, fmt.Errorf("history: insert step %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// Recent returns the newest runs first.
func (s *Store) Recent(ctx context.Context, q Query) ([]Run, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := `
		SELECT id, run_id, task, args, state, error_code, error, dry_run, started_at, finished_at
		FROM runs
		WHERE 1=1
	`
	args := []any{}
	if q.Task != "" {
		query += " AND task = ?"
		args = append(args, q.Task)
	}
	if q.State != "" {
		query += " AND state = ?"
		args = append(args, q.State)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		steps, err := s.steps(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Steps = steps
	}
	return runs, nil
}

func (s *Store) steps(ctx context.Context, id int64) ([]Step, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT position, name, command, exit_code, duration_ns, continued
		 FROM steps WHERE run_pk = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var steps []Step
	for rows.Next() {
		var st Step
		var dur int64
		if err := rows.Scan(&st.Position, &st.Name, &st.Command, &st.ExitCode, &dur, &st.Continued); err != nil {
			return nil, err
		}
		st.Duration = time.Duration(dur)
		steps = append(steps, st)
	}
	return steps, rows.Err()
}

// Prune deletes all but the newest keep runs and reports how many were removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE id NOT IN (SELECT id FROM runs ORDER BY id DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("history: prune: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run               Run
		args              string
		started, finished string
	)
	if err := row.Scan(&run.ID, &run.RunID, &run.Task, &args, &run.State, &run.ErrorCode, &run.Error,
		&run.DryRun, &started, &finished); err != nil {
		return Run{}, err
	}
	if err := json.Unmarshal([]byte(args), &run.Args); err != nil {
		return Run{}, fmt.Errorf("history: decode args of run %d: %w", run.ID, err)
	}
	var err error
	if run.Started, err = parseTime(started); err != nil {
		return Run{}, err
	}
	if run.Finished, err = parseTime(finished); err != nil {
		return Run{}, err
	}
	return run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
