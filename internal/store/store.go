// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/keydrill/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for practice session history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			tool TEXT NOT NULL,
			mode TEXT NOT NULL,
			completed INTEGER NOT NULL,
			skipped INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS session_attempts (
			session_id INTEGER NOT NULL,
			keys TEXT NOT NULL,
			attempts INTEGER NOT NULL,
			PRIMARY KEY (session_id, keys)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_session_attempts_keys ON session_attempts(keys);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSession stores a finished session and its per-shortcut attempt counts.
func (s *Store) InsertSession(ctx context.Context, rec model.SessionRecord, attempts []model.AttemptRecord) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (started_at, ended_at, tool, mode, completed, skipped)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.StartedAt.Format(time.RFC3339Nano),
		rec.EndedAt.Format(time.RFC3339Nano),
		rec.Tool,
		rec.Mode,
		rec.Completed,
		rec.Skipped,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(attempts) > 0 {
		// Assign to the function-scoped err so the rollback defer above
		// observes failures from the attempts phase.
		var stmt *sql.Stmt
		stmt, err = tx.PrepareContext(ctx,
			`INSERT INTO session_attempts (session_id, keys, attempts)
			 VALUES (?, ?, ?)
			 ON CONFLICT(session_id, keys) DO UPDATE SET attempts = attempts + excluded.attempts`)
		if err != nil {
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, a := range attempts {
			if _, err = stmt.ExecContext(ctx, id, a.Keys, a.Attempts); err != nil {
				return 0, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListSessions returns stored sessions for a tool, oldest first. An empty
// tool matches every session; last > 0 keeps only the most recent N.
func (s *Store) ListSessions(ctx context.Context, tool string, last int) ([]model.SessionAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if tool != "" {
		clauses = append(clauses, "tool = ?")
		args = append(args, tool)
	}
	query := fmt.Sprintf(`SELECT id, ended_at, tool, mode, completed, skipped
		FROM sessions
		WHERE %s
		ORDER BY ended_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionAggregate
	for rows.Next() {
		var agg model.SessionAggregate
		var endedAt string
		if err := rows.Scan(&agg.SessionID, &endedAt, &agg.Tool, &agg.Mode, &agg.Completed, &agg.Skipped); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, err
		}
		agg.EndedAt = parsed
		sessions = append(sessions, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if last > 0 && len(sessions) > last {
		sessions = sessions[len(sessions)-last:]
	}
	return sessions, nil
}

// AttemptAggregates sums attempt counts per shortcut over the most recent
// sessions of a tool. Used to bias practice toward stubborn shortcuts.
func (s *Store) AttemptAggregates(ctx context.Context, window int, tool string) ([]model.AttemptAggregate, error) {
	if window <= 0 {
		return nil, nil
	}
	query := `WITH recent_sessions AS (
		SELECT id FROM sessions
		WHERE (? = '' OR tool = ?)
		ORDER BY ended_at DESC
		LIMIT ?
	)
	SELECT sa.keys, COUNT(*) AS completions, SUM(sa.attempts) AS attempt_sum
	FROM session_attempts sa
	JOIN recent_sessions r ON r.id = sa.session_id
	GROUP BY sa.keys`

	rows, err := s.db.QueryContext(ctx, query, tool, tool, window)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.AttemptAggregate
	for rows.Next() {
		var agg model.AttemptAggregate
		if err := rows.Scan(&agg.Keys, &agg.Completions, &agg.AttemptSum); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
