package convo

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ScopeKind distinguishes one-to-one chats from multi-party chats.
type ScopeKind string

const (
	ScopeDirect ScopeKind = "direct"
	ScopeShared ScopeKind = "shared"
)

// Role of a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Turn is one transcript entry. Speaker is set for user turns in shared scope only.
type Turn struct {
	Role    Role      `json:"role"`
	Speaker string    `json:"speaker,omitempty"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Rendered returns the text handed to the language model ("speaker: content" in shared scope).
func (t Turn) Rendered() string {
	if strings.TrimSpace(t.Speaker) == "" {
		return t.Content
	}
	return t.Speaker + ": " + t.Content
}

// Store keeps one append-only transcript per Key.
type Store interface {
	Ensure(ctx context.Context, key Key) error
	AppendUser(ctx context.Context, key Key, speaker, text string) error
	AppendAssistant(ctx context.Context, key Key, text string) error
	// Turns returns a copy of the transcript in insertion order. Unknown keys yield an empty slice.
	Turns(ctx context.Context, key Key) ([]Turn, error)
	Close() error
}

var ErrInvalidKey = errors.New("invalid conversation key")
