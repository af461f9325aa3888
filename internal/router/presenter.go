package router

import (
	"context"

	"github.com/park285/parlor-bot/internal/chat"
	"github.com/park285/parlor-bot/internal/convo"
	"go.uber.org/zap"
)

// presenter delivers replies through an Outbox and records them as assistant turns.
type presenter struct {
	store  convo.Store
	logger *zap.Logger
}

// Reply appends text to the transcript, then sends it.
func (p *presenter) Reply(ctx context.Context, out chat.Outbox, ev chat.Event, key convo.Key, text string) {
	p.record(ctx, key, text)
	p.Send(ctx, out, ev, text)
}

// Send delivers text without recording it.
func (p *presenter) Send(ctx context.Context, out chat.Outbox, ev chat.Event, text string) {
	if _, err := out.Send(ctx, ev.ChatID, text); err != nil {
		p.logger.Error("reply_send_error", zap.String("platform", ev.Platform), zap.String("chat_id", ev.ChatID), zap.Error(err))
	}
}

// ReplyInPlace edits messageID when possible and falls back to a new message.
func (p *presenter) ReplyInPlace(ctx context.Context, out chat.Outbox, ev chat.Event, key convo.Key, messageID, text string) {
	p.record(ctx, key, text)
	if messageID != "" {
		err := out.Edit(ctx, ev.ChatID, messageID, text)
		if err == nil {
			return
		}
		p.logger.Warn("reply_edit_fallback", zap.String("chat_id", ev.ChatID), zap.Error(err))
	}
	p.Send(ctx, out, ev, text)
}

// Board sends a rendered game image; images are not part of the transcript.
func (p *presenter) Board(ctx context.Context, out chat.Outbox, ev chat.Event, png []byte) {
	if len(png) == 0 {
		return
	}
	if err := out.SendImage(ctx, ev.ChatID, png); err != nil {
		p.logger.Warn("board_send_error", zap.String("chat_id", ev.ChatID), zap.Error(err))
	}
}

func (p *presenter) record(ctx context.Context, key convo.Key, text string) {
	if err := p.store.AppendAssistant(ctx, key, text); err != nil {
		p.logger.Error("assistant_turn_error", zap.String("key", key.String()), zap.Error(err))
	}
}
