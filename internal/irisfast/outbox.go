package irisfast

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/park285/parlor-bot/internal/chat"
	"github.com/park285/parlor-bot/internal/convo"
)

// Platform is the chat.Event platform tag for Iris.
const Platform = "kakao"

// ToEvent normalizes an Iris message. ok is false for empty or self messages.
func ToEvent(msg *Message, prefix string) (chat.Event, bool) {
	if msg == nil || strings.TrimSpace(msg.Msg) == "" || strings.TrimSpace(msg.Room) == "" {
		return chat.Event{}, false
	}
	ev := chat.Event{
		Platform: Platform,
		Scope:    convo.ScopeShared,
		ChatID:   strings.TrimSpace(msg.Room),
		Text:     msg.Msg,
	}
	if msg.Sender != nil {
		ev.UserName = strings.TrimSpace(*msg.Sender)
	}
	if j := msg.JSON; j != nil {
		ev.UserID = strings.TrimSpace(j.UserID)
		ev.MessageID = j.MessageID
		if j.IsGroupChat != nil && !*j.IsGroupChat {
			ev.Scope = convo.ScopeDirect
		}
	}
	if ev.UserID == "" {
		ev.UserID = ev.UserName
	}
	if name, args, ok := chat.ParseCommand(msg.Msg, prefix); ok {
		ev.Command, ev.Args = name, args
	}
	return ev, true
}

// Outbox implements chat.Outbox on top of an Egress. KakaoTalk has no edits or
// buttons, so menus become typed command hints and edits become new messages.
type Outbox struct {
	egress        Egress
	seeMoreHeader string
}

func NewOutbox(egress Egress, seeMoreHeader string) *Outbox {
	return &Outbox{egress: egress, seeMoreHeader: seeMoreHeader}
}

func (o *Outbox) Send(ctx context.Context, chatID, text string) (string, error) {
	return "", o.egress.SendText(ctx, chatID, applySeeMore(text, o.seeMoreHeader))
}

func (o *Outbox) SendMenu(ctx context.Context, chatID, text string, options []chat.MenuOption) (string, error) {
	var b strings.Builder
	b.WriteString(text)
	for _, opt := range options {
		b.WriteString("\n• ")
		b.WriteString(opt.Label)
		if opt.Command != "" {
			b.WriteString(": ")
			b.WriteString(opt.Command)
		}
	}
	return "", o.egress.SendText(ctx, chatID, b.String())
}

func (o *Outbox) Edit(ctx context.Context, chatID, _ string, text string) error {
	_, err := o.Send(ctx, chatID, text)
	return err
}

func (o *Outbox) AnswerCallback(context.Context, string, string) error { return nil }

func (o *Outbox) SendImage(ctx context.Context, chatID string, png []byte) error {
	return o.egress.SendImage(ctx, chatID, base64.StdEncoding.EncodeToString(png))
}
