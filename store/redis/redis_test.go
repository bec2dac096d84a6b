package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/smallnest/stockresearch/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, ttl time.Duration) (*RedisSessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := NewRedisSessionStore(RedisOptions{Addr: mr.Addr(), TTL: ttl})
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisSessionStore(t *testing.T) {
	s, mr := newTestStore(t, 0)
	ctx := context.Background()

	sess, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, sess.Messages)

	err = s.Append(ctx, "s1",
		store.Message{Role: store.RoleSystem, Content: "directive"},
		store.Message{Role: store.RoleUser, Content: "price of AAPL?"},
		store.Message{Role: store.RoleAssistant, Content: "About $200."},
	)
	require.NoError(t, err)

	sess, err = s.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, sess.Messages, 3)
	assert.Equal(t, store.RoleSystem, sess.Messages[0].Role)
	assert.Equal(t, "About $200.", sess.Messages[2].Content)
	assert.False(t, sess.UpdatedAt.IsZero())

	assert.True(t, mr.Exists("stockresearch:session:s1:messages"))
	assert.Equal(t, time.Duration(0), mr.TTL("stockresearch:session:s1:messages"))

	require.NoError(t, s.Delete(ctx, "s1"))
	sess, err = s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, sess.Messages)
}

func TestRedisSessionStore_TTL(t *testing.T) {
	s, mr := newTestStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "s1", store.Message{Role: store.RoleUser, Content: "q"}))
	assert.Equal(t, time.Hour, mr.TTL("stockresearch:session:s1:messages"))

	mr.FastForward(2 * time.Hour)

	sess, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, sess.Messages)
}

func TestRedisSessionStore_SessionsAreIsolated(t *testing.T) {
	s, _ := newTestStore(t, 0)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "a", store.Message{Role: store.RoleUser, Content: "from a"}))
	require.NoError(t, s.Append(ctx, "b", store.Message{Role: store.RoleUser, Content: "from b"}))

	a, err := s.Load(ctx, "a")
	require.NoError(t, err)
	require.Len(t, a.Messages, 1)
	assert.Equal(t, "from a", a.Messages[0].Content)
}

func TestRedisSessionStore_Errors(t *testing.T) {
	s, mr := newTestStore(t, 0)
	ctx := context.Background()

	_, err := s.Load(ctx, "")
	assert.ErrorIs(t, err, store.ErrEmptySessionID)
	assert.Error(t, s.Append(ctx, "s1", store.Message{Role: "bogus"}))
	assert.NoError(t, s.Append(ctx, "s1"))

	require.NoError(t, mr.Set("stockresearch:session:bad:messages", "x"))
	_, err = s.Load(ctx, "bad")
	assert.Error(t, err, "wrong key type surfaces as a load error")

	down := NewRedisSessionStore(RedisOptions{Addr: "127.0.0.1:1"})
	defer down.Close()
	err = down.Append(ctx, "s1", store.Message{Role: store.RoleUser, Content: "q"})
	assert.Error(t, err)
}
