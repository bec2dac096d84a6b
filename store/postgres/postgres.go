package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smallnest/stockresearch/store"
)

// DBPool defines the interface for database connection pool
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// PostgresSessionStore implements store.SessionStore using PostgreSQL
type PostgresSessionStore struct {
	pool      DBPool
	tableName string
	now       func() time.Time
}

// PostgresOptions configuration for Postgres connection
type PostgresOptions struct {
	ConnString string
	TableName  string // Default "session_messages"
}

// NewPostgresSessionStore connects and creates the table if needed
func NewPostgresSessionStore(ctx context.Context, opts PostgresOptions) (*PostgresSessionStore, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	s := NewPostgresSessionStoreWithPool(pool, opts.TableName)
	if err := s.InitSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresSessionStoreWithPool creates a store on an existing pool.
// Useful for testing with mocks
func NewPostgresSessionStoreWithPool(pool DBPool, tableName string) *PostgresSessionStore {
	if tableName == "" {
		tableName = "session_messages"
	}
	return &PostgresSessionStore{
		pool:      pool,
		tableName: tableName,
		now:       time.Now,
	}
}

var _ store.SessionStore = (*PostgresSessionStore)(nil)

// InitSchema creates the necessary table if it doesn't exist
func (s *PostgresSessionStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_session_id ON %s (session_id, id);
	`, s.tableName, s.tableName, s.tableName)

	_, err := s.pool.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (s *PostgresSessionStore) Close() {
	s.pool.Close()
}

// Load returns the session history in insertion order
func (s *PostgresSessionStore) Load(ctx context.Context, sessionID string) (*store.Session, error) {
	if sessionID == "" {
		return nil, store.ErrEmptySessionID
	}

	query := fmt.Sprintf(`SELECT role, content, created_at FROM %s WHERE session_id = $1 ORDER BY id`, s.tableName)
	rows, err := s.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	defer rows.Close()

	sess := &store.Session{ID: sessionID}
	for rows.Next() {
		var (
			role      string
			content   string
			createdAt time.Time
		)
		if err := rows.Scan(&role, &content, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		sess.Messages = append(sess.Messages, store.Message{Role: store.Role(role), Content: content, CreatedAt: createdAt})
		sess.UpdatedAt = createdAt
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return sess, nil
}

// Append inserts all messages with one multi-row INSERT
func (s *PostgresSessionStore) Append(ctx context.Context, sessionID string, msgs ...store.Message) error {
	if err := store.Validate(sessionID, msgs); err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}

	placeholders := make([]string, 0, len(msgs))
	args := make([]any, 0, len(msgs)*4)
	for i, m := range store.Stamp(msgs, s.now().UTC()) {
		n := i * 4
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4))
		args = append(args, sessionID, string(m.Role), m.Content, m.CreatedAt)
	}

	query := fmt.Sprintf(`INSERT INTO %s (session_id, role, content, created_at) VALUES %s`,
		s.tableName, strings.Join(placeholders, ", "))
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to append session messages: %w", err)
	}
	return nil
}

// Delete removes a session
func (s *PostgresSessionStore) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return store.ErrEmptySessionID
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE session_id = $1`, s.tableName)
	if _, err := s.pool.Exec(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Prune deletes every session whose newest message is older than before and returns
// the number of removed messages.
func (s *PostgresSessionStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE session_id IN (SELECT session_id FROM %s GROUP BY session_id HAVING MAX(created_at) < $1)`,
		s.tableName, s.tableName)
	tag, err := s.pool.Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to prune sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
