package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/smallnest/stockresearch/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SqliteSessionStore {
	t.Helper()
	s, err := NewSqliteSessionStore(SqliteOptions{Path: filepath.Join(t.TempDir(), "sessions.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSqliteSessionStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, sess.Messages)

	require.NoError(t, s.Append(ctx, "s1",
		store.Message{Role: store.RoleUser, Content: "Hello"},
		store.Message{Role: store.RoleAssistant, Content: "Hi! Ask me about stocks."},
	))
	require.NoError(t, s.Append(ctx, "s2", store.Message{Role: store.RoleUser, Content: "other"}))
	require.NoError(t, s.Append(ctx, "s1",
		store.Message{Role: store.RoleSystem, Content: "directive"},
		store.Message{Role: store.RoleUser, Content: "AAPL?"},
		store.Message{Role: store.RoleAssistant, Content: "$200"},
	))

	sess, err = s.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, sess.Messages, 5)
	roles := make([]store.Role, len(sess.Messages))
	for i, m := range sess.Messages {
		roles[i] = m.Role
	}
	assert.Equal(t, []store.Role{store.RoleUser, store.RoleAssistant, store.RoleSystem, store.RoleUser, store.RoleAssistant}, roles)
	assert.False(t, sess.UpdatedAt.IsZero())

	require.NoError(t, s.Delete(ctx, "s1"))
	sess, err = s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, sess.Messages)

	other, err := s.Load(ctx, "s2")
	require.NoError(t, err)
	assert.Len(t, other.Messages, 1)
}

func TestSqliteSessionStore_RejectsWholeBatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Append(ctx, "s1",
		store.Message{Role: store.RoleUser, Content: "ok"},
		store.Message{Role: "alien", Content: "bad"},
	)
	require.Error(t, err)

	sess, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, sess.Messages)
}

func TestSqliteSessionStore_Prune(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	s.now = func() time.Time { return base }
	require.NoError(t, s.Append(ctx, "old", store.Message{Role: store.RoleUser, Content: "q"}, store.Message{Role: store.RoleAssistant, Content: "a"}))

	s.now = func() time.Time { return base.Add(48 * time.Hour) }
	require.NoError(t, s.Append(ctx, "fresh", store.Message{Role: store.RoleUser, Content: "q"}))

	n, err := s.Prune(ctx, base.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	old, err := s.Load(ctx, "old")
	require.NoError(t, err)
	assert.Empty(t, old.Messages)

	fresh, err := s.Load(ctx, "fresh")
	require.NoError(t, err)
	assert.Len(t, fresh.Messages, 1)
}
