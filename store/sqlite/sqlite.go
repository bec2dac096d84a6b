package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/smallnest/stockresearch/store"
)

// SqliteSessionStore implements store.SessionStore using SQLite
type SqliteSessionStore struct {
	db        *sql.DB
	tableName string
	now       func() time.Time
}

// SqliteOptions configuration for SQLite connection
type SqliteOptions struct {
	Path      string
	TableName string // Default "session_messages"
}

// NewSqliteSessionStore opens the database and creates the table if needed
func NewSqliteSessionStore(opts SqliteOptions) (*SqliteSessionStore, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}
	// one writer keeps multi-row inserts from hitting SQLITE_BUSY
	db.SetMaxOpenConns(1)

	tableName := opts.TableName
	if tableName == "" {
		tableName = "session_messages"
	}

	s := &SqliteSessionStore{
		db:        db,
		tableName: tableName,
		now:       time.Now,
	}

	if err := s.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

var _ store.SessionStore = (*SqliteSessionStore)(nil)

// InitSchema creates the necessary table if it doesn't exist
func (s *SqliteSessionStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_session_id ON %s (session_id, id);
	`, s.tableName, s.tableName, s.tableName)

	_, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SqliteSessionStore) Close() error {
	return s.db.Close()
}

// Load returns the session history in insertion order
func (s *SqliteSessionStore) Load(ctx context.Context, sessionID string) (*store.Session, error) {
	if sessionID == "" {
		return nil, store.ErrEmptySessionID
	}

	query := fmt.Sprintf(`SELECT role, content, created_at FROM %s WHERE session_id = ? ORDER BY id`, s.tableName)
	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	defer rows.Close()

	sess := &store.Session{ID: sessionID}
	for rows.Next() {
		var (
			role      string
			content   string
			createdAt int64
		)
		if err := rows.Scan(&role, &content, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		ts := time.Unix(0, createdAt).UTC()
		sess.Messages = append(sess.Messages, store.Message{Role: store.Role(role), Content: content, CreatedAt: ts})
		sess.UpdatedAt = ts
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return sess, nil
}

// Append inserts all messages with one multi-row INSERT
func (s *SqliteSessionStore) Append(ctx context.Context, sessionID string, msgs ...store.Message) error {
	if err := store.Validate(sessionID, msgs); err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}

	placeholders := make([]string, 0, len(msgs))
	args := make([]any, 0, len(msgs)*4)
	for _, m := range store.Stamp(msgs, s.now().UTC()) {
		placeholders = append(placeholders, "(?, ?, ?, ?)")
		args = append(args, sessionID, string(m.Role), m.Content, m.CreatedAt.UnixNano())
	}

	query := fmt.Sprintf(`INSERT INTO %s (session_id, role, content, created_at) VALUES %s`,
		s.tableName, strings.Join(placeholders, ", "))
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to append session messages: %w", err)
	}
	return nil
}

// Delete removes a session
func (s *SqliteSessionStore) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return store.ErrEmptySessionID
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE session_id = ?`, s.tableName)
	if _, err := s.db.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Prune deletes every session whose newest message is older than before and returns
// the number of removed messages.
func (s *SqliteSessionStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	query := fmt.Sprintf(`
		DELETE FROM %s WHERE session_id IN (
			SELECT session_id FROM %s GROUP BY session_id HAVING MAX(created_at) < ?
		)`, s.tableName, s.tableName)
	res, err := s.db.ExecContext(ctx, query, before.UTC().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to prune sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned rows: %w", err)
	}
	return n, nil
}
