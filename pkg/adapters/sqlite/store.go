// Package sqlite persists the answer log in SQLite.
//
// The schema has two append-only tables: users (one row per session owner)
// and answer_log (one row per accepted answer).
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Tyler-Pritchard/Spokesperson/pkg/adapters/sqlite/migrations"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/domain"
	_ "modernc.org/sqlite"
)

// DefaultPath is the database file used when none is configured.
const DefaultPath = "spokesperson.db"

// Store implements ports.AnswerLog.
type Store struct {
	db    *sql.DB
	clock func() time.Time
}

// SessionInfo summarizes one registered session.
type SessionInfo struct {
	SessionID   string    `json:"session_id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	Answers     int       `json:"answers"`
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens (or creates) the database at path and applies the embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db, clock: time.Now}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks the database handle.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	return s.db.PingContext(ctx)
}

// RegisterSession inserts the users row of a session if it does not exist yet.
func (s *Store) RegisterSession(ctx context.Context, sessionID, displayName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	return s.register(ctx, s.db, sessionID, displayName)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) register(ctx context.Context, db execer, sessionID, displayName string) error {
	if strings.TrimSpace(displayName) == "" {
		displayName = sessionID
	}
	if _, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (id, display_name, created_at) VALUES (?, ?, ?)`,
		sessionID, displayName, toMillis(s.clock()),
	); err != nil {
		return fmt.Errorf("register session %s: %w", sessionID, err)
	}
	return nil
}

// AppendAnswer stores one answer, registering the session first when needed.
func (s *Store) AppendAnswer(ctx context.Context, sessionID, text string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(sessionID) == "" {
		return 0, fmt.Errorf("session id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.register(ctx, tx, sessionID, ""); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO answer_log (user_id, text, timestamp) VALUES (?, ?, ?)`,
		sessionID, text, toMillis(s.clock()),
	)
	if err != nil {
		return 0, fmt.Errorf("append answer for %s: %w", sessionID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("append answer for %s: %w", sessionID, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit answer for %s: %w", sessionID, err)
	}
	return id, nil
}

// FetchHistory returns the session's answers ordered by timestamp, then insertion.
func (s *Store) FetchHistory(ctx context.Context, sessionID string) ([]domain.AnswerRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, text, timestamp FROM answer_log WHERE user_id = ? ORDER BY timestamp, id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch history for %s: %w", sessionID, err)
	}
	defer rows.Close()

	records := []domain.AnswerRecord{}
	for rows.Next() {
		var (
			r  domain.AnswerRecord
			ts int64
		)
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Text, &ts); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		r.Timestamp = fromMillis(ts)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history for %s: %w", sessionID, err)
	}
	return records, nil
}

// Sessions lists registered sessions, most recent first.
func (s *Store) Sessions(ctx context.Context, limit int) ([]SessionInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT u.id, u.display_name, u.created_at, COUNT(a.id)
FROM users u
LEFT JOIN answer_log a ON a.user_id = u.id
GROUP BY u.id
ORDER BY u.created_at DESC, u.id
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionInfo
	for rows.Next() {
		var (
			info    SessionInfo
			created int64
		)
		if err := rows.Scan(&info.SessionID, &info.DisplayName, &created, &info.Answers); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		info.CreatedAt = fromMillis(created)
		out = append(out, info)
	}
	return out, rows.Err()
}
