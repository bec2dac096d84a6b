package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Role identifies who produced a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Message is one entry in a session's history.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is the ordered message history of one conversation.
type Session struct {
	ID        string    `json:"id"`
	Messages  []Message `json:"messages"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ErrEmptySessionID is returned when a store is asked about the empty id.
var ErrEmptySessionID = errors.New("session id is empty")

// SessionStore persists conversation history keyed by session id.
//
// Sessions are created lazily: Load on an unknown id returns an empty session, and the
// first Append creates it. Append must write all given messages or none of them.
type SessionStore interface {
	// Load returns the session history. Unknown ids yield an empty session.
	Load(ctx context.Context, sessionID string) (*Session, error)

	// Append adds messages to the end of the session history atomically.
	Append(ctx context.Context, sessionID string, msgs ...Message) error

	// Delete removes a session and its history.
	Delete(ctx context.Context, sessionID string) error
}

// NewMessage builds a message stamped with the current time.
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content, CreatedAt: time.Now().UTC()}
}

// Stamp fills in missing CreatedAt values.
func Stamp(msgs []Message, now time.Time) []Message {
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		out[i] = m
	}
	return out
}

// Validate checks a batch before it is appended.
func Validate(sessionID string, msgs []Message) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}
	for i, m := range msgs {
		if !m.Role.Valid() {
			return fmt.Errorf("message %d has unknown role %q", i, m.Role)
		}
	}
	return nil
}

// Window keeps the last maxTurns user messages and everything that follows them.
// Non-positive maxTurns keeps the whole history.
func Window(msgs []Message, maxTurns int) []Message {
	if maxTurns <= 0 || len(msgs) == 0 {
		return msgs
	}
	users := 0
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == RoleUser {
			users++
			if users == maxTurns {
				// keep the system directive stored just before this turn's question
				if i > 0 && msgs[i-1].Role == RoleSystem {
					return msgs[i-1:]
				}
				return msgs[i:]
			}
		}
	}
	return msgs
}
