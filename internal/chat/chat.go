package chat

import (
	"context"
	"strings"

	"github.com/park285/parlor-bot/internal/convo"
)

// Callback is a button/menu selection tied to a previously sent message.
type Callback struct {
	ID        string
	Data      string
	MessageID string
}

// Event is one inbound update, normalized by a transport adapter.
type Event struct {
	Platform  string
	Scope     convo.ScopeKind
	ChatID    string
	UserID    string
	UserName  string
	Text      string
	MessageID string

	// Command is set (lowercased, without prefix) when Text is a bot command.
	Command string
	Args    []string

	Callback *Callback
}

// ScopeID qualifies the chat id with the platform so scopes never collide across transports.
func (e Event) ScopeID() string {
	if e.Platform == "" {
		return e.ChatID
	}
	return e.Platform + ":" + e.ChatID
}

// DisplayName is the speaker label used in shared-scope transcripts.
func (e Event) DisplayName() string {
	if n := strings.TrimSpace(e.UserName); n != "" {
		return n
	}
	if id := strings.TrimSpace(e.UserID); id != "" {
		return id
	}
	return "usuario"
}

// MenuOption is one menu entry. Command is the typed fallback for transports without buttons.
type MenuOption struct {
	Label   string
	Data    string
	Command string
}

// Outbox is what a transport offers for replies. Transports that cannot edit or
// acknowledge callbacks degrade to sending a new message / no-op.
type Outbox interface {
	Send(ctx context.Context, chatID, text string) (string, error)
	SendMenu(ctx context.Context, chatID, text string, options []MenuOption) (string, error)
	Edit(ctx context.Context, chatID, messageID, text string) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
	SendImage(ctx context.Context, chatID string, png []byte) error
}

// ParseCommand splits "/cmd@bot arg1 arg2" into ("cmd", [arg1 arg2]).
func ParseCommand(text, prefix string) (string, []string, bool) {
	s := strings.TrimSpace(text)
	if prefix == "" || !strings.HasPrefix(s, prefix) {
		return "", nil, false
	}
	fields := strings.Fields(strings.TrimPrefix(s, prefix))
	if len(fields) == 0 {
		return "", nil, false
	}
	name := strings.ToLower(fields[0])
	if i := strings.Index(name, "@"); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		return "", nil, false
	}
	return name, fields[1:], true
}
