package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smallnest/stockresearch/store"
)

// RedisSessionStore implements store.SessionStore with one Redis list per session.
type RedisSessionStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// RedisOptions configuration for Redis connection
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Key prefix, default "stockresearch:"
	TTL      time.Duration // Idle expiry per session, default 0 (no expiration)
}

// NewRedisSessionStore creates a new Redis session store
func NewRedisSessionStore(opts RedisOptions) *RedisSessionStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewRedisSessionStoreWithClient(client, opts.Prefix, opts.TTL)
}

// NewRedisSessionStoreWithClient wraps an existing client.
func NewRedisSessionStoreWithClient(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisSessionStore {
	if prefix == "" {
		prefix = "stockresearch:"
	}
	return &RedisSessionStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		now:    time.Now,
	}
}

var _ store.SessionStore = (*RedisSessionStore)(nil)

func (s *RedisSessionStore) sessionKey(id string) string {
	return fmt.Sprintf("%ssession:%s:messages", s.prefix, id)
}

// Load returns the session history
func (s *RedisSessionStore) Load(ctx context.Context, sessionID string) (*store.Session, error) {
	if sessionID == "" {
		return nil, store.ErrEmptySessionID
	}

	raw, err := s.client.LRange(ctx, s.sessionKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load session from redis: %w", err)
	}

	sess := &store.Session{ID: sessionID, Messages: make([]store.Message, 0, len(raw))}
	for i, item := range raw {
		var msg store.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message %d of session %s: %w", i, sessionID, err)
		}
		sess.Messages = append(sess.Messages, msg)
		if msg.CreatedAt.After(sess.UpdatedAt) {
			sess.UpdatedAt = msg.CreatedAt
		}
	}
	return sess, nil
}

// Append pushes all messages with a single RPUSH and refreshes the TTL
func (s *RedisSessionStore) Append(ctx context.Context, sessionID string, msgs ...store.Message) error {
	if err := store.Validate(sessionID, msgs); err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}

	values := make([]any, 0, len(msgs))
	for _, m := range store.Stamp(msgs, s.now().UTC()) {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		values = append(values, data)
	}

	key := s.sessionKey(sessionID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, values...)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append session messages to redis: %w", err)
	}
	return nil
}

// Delete removes a session
func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return store.ErrEmptySessionID
	}
	if err := s.client.Del(ctx, s.sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Close closes the underlying client
func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}
