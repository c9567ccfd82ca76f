// Package journal keeps a SQLite record of placement outcomes so past runs
// can be inspected with the history command.
package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/janitor/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// Store manages the outcome database.
type Store struct {
	db     *sql.DB
	dbPath string

	// RunID tags every outcome recorded through this store.
	RunID string

	// OnError receives failures from Report, which has no error return.
	OnError func(error)
}

// Query selects outcomes for Recent.
type Query struct {
	Limit  int    // 0 means 20
	Status string // empty means any
	RunID  string // empty means any run
}

// Open creates or opens the database at dbPath. ":memory:" opens a private
// in-memory database.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		// Ensure parent directory exists for file-based databases
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA busy_timeout=5000", // Must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := execWithRetry(db, schemaSQL, 5, 10*time.Millisecond); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath, RunID: uuid.NewString()}, nil
}

// execWithRetry executes a SQL statement with exponential backoff retry on lock errors.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}

		// Only retry on "database is locked" errors
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}

		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record inserts one outcome under the store's run ID.
func (s *Store) Record(ctx context.Context, o models.Outcome) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}

	query := `INSERT INTO outcomes
		(id, run_id, source, root, bucket, destination, action, status, reason, already_satisfied, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		o.ID,
		s.RunID,
		o.Source,
		o.Root,
		o.Bucket,
		o.Destination,
		o.Action.String(),
		o.Status,
		o.Reason,
		o.AlreadySatisfied,
		unixNano(o.Started),
		unixNano(o.Finished),
	)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// Report records o, passing any failure to OnError.
func (s *Store) Report(o models.Outcome) {
	if err := s.Record(context.Background(), o); err != nil && s.OnError != nil {
		s.OnError(err)
	}
}

// Recent returns outcomes matching q, most recently finished first.
func (s *Store) Recent(ctx context.Context, q Query) ([]models.Outcome, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}

	var where []string
	var args []interface{}
	if q.Status != "" {
		where = append(where, "status = ?")
		args = append(args, q.Status)
	}
	if q.RunID != "" {
		where = append(where, "run_id = ?")
		args = append(args, q.RunID)
	}

	query := `SELECT id, source, root, bucket, destination, action, status, reason, already_satisfied, started_at, finished_at
		FROM outcomes`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY finished_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []models.Outcome
	for rows.Next() {
		var o models.Outcome
		var action string
		var started, finished int64
		if err := rows.Scan(
			&o.ID,
			&o.Source,
			&o.Root,
			&o.Bucket,
			&o.Destination,
			&action,
			&o.Status,
			&o.Reason,
			&o.AlreadySatisfied,
			&started,
			&finished,
		); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		// Unknown spellings (including "none") map to ActionNone.
		o.Action, _ = models.ParseAction(action)
		o.Started = fromUnixNano(started)
		o.Finished = fromUnixNano(finished)
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return outcomes, nil
}

// Counts returns the number of recorded outcomes per status.
func (s *Store) Counts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM outcomes GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count outcomes: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}
