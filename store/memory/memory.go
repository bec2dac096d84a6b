package memory

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/smallnest/stockresearch/store"
)

const (
	// DefaultTTL is how long an idle session is kept.
	DefaultTTL = 24 * time.Hour

	// DefaultCleanupInterval is how often expired sessions are purged.
	DefaultCleanupInterval = 10 * time.Minute
)

// MemorySessionStore keeps sessions in process memory. A session expires after TTL
// without appends.
type MemorySessionStore struct {
	cache *cache.Cache
	ttl   time.Duration
	mu    sync.Mutex
	now   func() time.Time
}

// MemoryOptions configures the in-memory store.
type MemoryOptions struct {
	TTL             time.Duration // default DefaultTTL; negative disables expiry
	CleanupInterval time.Duration // default DefaultCleanupInterval
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore(opts MemoryOptions) *MemorySessionStore {
	ttl := opts.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	if ttl < 0 {
		ttl = cache.NoExpiration
	}
	cleanup := opts.CleanupInterval
	if cleanup <= 0 {
		cleanup = DefaultCleanupInterval
	}

	return &MemorySessionStore{
		cache: cache.New(ttl, cleanup),
		ttl:   ttl,
		now:   time.Now,
	}
}

var _ store.SessionStore = (*MemorySessionStore)(nil)

// Load returns a copy of the session history.
func (s *MemorySessionStore) Load(ctx context.Context, sessionID string) (*store.Session, error) {
	if sessionID == "" {
		return nil, store.ErrEmptySessionID
	}

	x, found := s.cache.Get(sessionID)
	if !found {
		return &store.Session{ID: sessionID}, nil
	}

	sess := x.(*store.Session)
	s.mu.Lock()
	defer s.mu.Unlock()
	return &store.Session{
		ID:        sess.ID,
		Messages:  append([]store.Message(nil), sess.Messages...),
		UpdatedAt: sess.UpdatedAt,
	}, nil
}

// Append adds messages and refreshes the session's expiry.
func (s *MemorySessionStore) Append(ctx context.Context, sessionID string, msgs ...store.Message) error {
	if err := store.Validate(sessionID, msgs); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	next := &store.Session{ID: sessionID, UpdatedAt: now}
	if x, found := s.cache.Get(sessionID); found {
		prev := x.(*store.Session)
		next.Messages = make([]store.Message, 0, len(prev.Messages)+len(msgs))
		next.Messages = append(next.Messages, prev.Messages...)
	}
	next.Messages = append(next.Messages, store.Stamp(msgs, now)...)

	s.cache.Set(sessionID, next, cache.DefaultExpiration)
	return nil
}

// Delete removes a session.
func (s *MemorySessionStore) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return store.ErrEmptySessionID
	}
	s.cache.Delete(sessionID)
	return nil
}

// Len returns the number of live sessions, expired-but-unpurged ones included.
func (s *MemorySessionStore) Len() int {
	return s.cache.ItemCount()
}
