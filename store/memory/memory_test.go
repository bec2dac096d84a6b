package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/smallnest/stockresearch/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionStore_LazyCreateAndAppend(t *testing.T) {
	s := NewMemorySessionStore(MemoryOptions{})
	ctx := context.Background()

	sess, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", sess.ID)
	assert.Empty(t, sess.Messages)
	assert.Equal(t, 0, s.Len(), "load must not create the session")

	require.NoError(t, s.Append(ctx, "s1",
		store.Message{Role: store.RoleUser, Content: "hi"},
		store.Message{Role: store.RoleAssistant, Content: "hello"},
	))
	require.NoError(t, s.Append(ctx, "s1", store.Message{Role: store.RoleUser, Content: "again"}))

	sess, err = s.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, sess.Messages, 3)
	assert.Equal(t, "hi", sess.Messages[0].Content)
	assert.Equal(t, "again", sess.Messages[2].Content)
	assert.False(t, sess.Messages[0].CreatedAt.IsZero())
}

func TestMemorySessionStore_LoadReturnsCopy(t *testing.T) {
	s := NewMemorySessionStore(MemoryOptions{})
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, "s1", store.Message{Role: store.RoleUser, Content: "q"}))

	sess, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	sess.Messages[0].Content = "tampered"

	again, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "q", again.Messages[0].Content)
}

func TestMemorySessionStore_Validation(t *testing.T) {
	s := NewMemorySessionStore(MemoryOptions{})
	ctx := context.Background()

	_, err := s.Load(ctx, "")
	assert.ErrorIs(t, err, store.ErrEmptySessionID)

	err = s.Append(ctx, "s1", store.Message{Role: "robot"})
	assert.Error(t, err)

	sess, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, sess.Messages, "rejected batch must not be written")
}

func TestMemorySessionStore_Expiry(t *testing.T) {
	s := NewMemorySessionStore(MemoryOptions{TTL: 20 * time.Millisecond, CleanupInterval: 5 * time.Millisecond})
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, "s1", store.Message{Role: store.RoleUser, Content: "q"}))

	time.Sleep(60 * time.Millisecond)

	sess, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, sess.Messages)
}

func TestMemorySessionStore_Delete(t *testing.T) {
	s := NewMemorySessionStore(MemoryOptions{TTL: -1})
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, "s1", store.Message{Role: store.RoleUser, Content: "q"}))
	require.NoError(t, s.Delete(ctx, "s1"))

	sess, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, sess.Messages)
}

func TestMemorySessionStore_ConcurrentAppends(t *testing.T) {
	s := NewMemorySessionStore(MemoryOptions{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Append(ctx, "shared",
				store.Message{Role: store.RoleUser, Content: "q"},
				store.Message{Role: store.RoleAssistant, Content: "a"},
			)
		}()
	}
	wg.Wait()

	sess, err := s.Load(ctx, "shared")
	require.NoError(t, err)
	require.Len(t, sess.Messages, 100)
	for i := 0; i < len(sess.Messages); i += 2 {
		assert.Equal(t, store.RoleUser, sess.Messages[i].Role)
		assert.Equal(t, store.RoleAssistant, sess.Messages[i+1].Role)
	}
}
