package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/botflow/pkg/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversation_states (
    conversation_id TEXT PRIMARY KEY,
    state TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);
`

// Store implements ports.StateStore on a SQLite database.
type Store struct {
	sqlDB *sql.DB
}

// Open opens and migrates the database at path. ":memory:" is accepted for tests.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer at a time; also keeps a ":memory:" database on a single connection.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// GetState returns the stored state of a conversation.
func (s *Store) GetState(ctx context.Context, conversationID string) (string, error) {
	if s == nil || s.sqlDB == nil {
		return "", fmt.Errorf("storage is not configured")
	}

	var state string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT state FROM conversation_states WHERE conversation_id = ?`,
		conversationID,
	).Scan(&state)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrStateNotFound
		}
		return "", fmt.Errorf("get conversation state: %w", err)
	}
	return state, nil
}

// SetState upserts the conversation's state.
func (s *Store) SetState(ctx context.Context, conversationID, state string) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if conversationID == "" {
		return fmt.Errorf("conversation id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO conversation_states (conversation_id, state, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(conversation_id) DO UPDATE SET
		   state = excluded.state,
		   updated_at = excluded.updated_at`,
		conversationID, state, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put conversation state: %w", err)
	}
	return nil
}

// ClearState deletes the conversation's row.
func (s *Store) ClearState(ctx context.Context, conversationID string) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM conversation_states WHERE conversation_id = ?`,
		conversationID,
	); err != nil {
		return fmt.Errorf("delete conversation state: %w", err)
	}
	return nil
}

// List returns every conversation with stored state, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT conversation_id FROM conversation_states ORDER BY conversation_id`)
	if err != nil {
		return nil, fmt.Errorf("list conversation states: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan conversation id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversation states: %w", err)
	}
	return ids, nil
}
