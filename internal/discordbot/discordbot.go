// Package discordbot is the Discord gateway transport: it turns gateway events
// into chat.Event and implements chat.Outbox with discordgo REST calls.
package discordbot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/park285/parlor-bot/internal/chat"
	"github.com/park285/parlor-bot/internal/convo"
	"go.uber.org/zap"
)

// Platform is the chat.Event platform tag for Discord.
const Platform = "discord"

const (
	maxRetries  = 3
	baseBackoff = 500 * time.Millisecond
	maxBackoff  = 10 * time.Second
)

// session abstracts the discordgo.Session methods we use, enabling test mocks.
type session interface {
	Open() error
	Close() error
	AddHandler(handler interface{}) func()
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEdit(channelID, messageID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
}

type realSession struct {
	s *discordgo.Session
}

func (r *realSession) Open() error                           { return r.s.Open() }
func (r *realSession) Close() error                          { return r.s.Close() }
func (r *realSession) AddHandler(handler interface{}) func() { return r.s.AddHandler(handler) }
func (r *realSession) ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return r.s.ChannelMessageSend(channelID, content, options...)
}
func (r *realSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return r.s.ChannelMessageSendComplex(channelID, data, options...)
}
func (r *realSession) ChannelMessageEdit(channelID, messageID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return r.s.ChannelMessageEdit(channelID, messageID, content, options...)
}
func (r *realSession) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	return r.s.InteractionRespond(interaction, resp, options...)
}

// Handler receives normalized events in gateway order; it must not block.
type Handler func(chat.Event)

// Options configures a Bot.
type Options struct {
	BotToken string
	// Prefix is the command prefix (e.g. "/").
	Prefix string
	// Handle replaces <@botID> mentions so mention detection works on plain text.
	Handle string
	Logger *zap.Logger
	// For testing: inject a mock session instead of real Discord API.
	Session session
}

// Bot is the Discord transport.
type Bot struct {
	sess    session
	token   string
	prefix  string
	handle  string
	logger  *zap.Logger
	backoff time.Duration

	mu      sync.Mutex
	botID   string
	opened  bool
	removes []func()
}

// New creates a Bot. The gateway is not opened until Start.
func New(opts Options) (*Bot, error) {
	if opts.Session == nil && strings.TrimSpace(opts.BotToken) == "" {
		return nil, errors.New("discord: bot token is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{
		sess:    opts.Session,
		token:   opts.BotToken,
		prefix:  opts.Prefix,
		handle:  opts.Handle,
		logger:  logger,
		backoff: baseBackoff,
	}, nil
}

// Start registers gateway handlers and opens the connection.
func (b *Bot) Start(handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.opened {
		return nil
	}
	if b.sess == nil {
		dg, err := discordgo.New("Bot " + b.token)
		if err != nil {
			return fmt.Errorf("discord: create session: %w", err)
		}
		dg.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent
		// 핸들러를 이벤트 순서대로 호출 (기본값은 이벤트마다 고루틴)
		dg.SyncEvents = true
		b.sess = &realSession{s: dg}
	}

	b.removes = append(b.removes,
		b.sess.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
			b.setBotID(r.User.ID)
			b.logger.Info("discord_ready", zap.String("user", r.User.Username), zap.String("id", r.User.ID))
		}),
		b.sess.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
			if ev, ok := b.messageEvent(m); ok {
				handler(ev)
			}
		}),
		b.sess.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
			if ev, ok := b.interactionEvent(i); ok {
				handler(ev)
			}
		}),
	)

	if err := b.sess.Open(); err != nil {
		return fmt.Errorf("discord: open gateway: %w", err)
	}
	b.opened = true
	return nil
}

// Close removes handlers and closes the gateway.
func (b *Bot) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, rm := range b.removes {
		rm()
	}
	b.removes = nil
	if !b.opened {
		return nil
	}
	b.opened = false
	return b.sess.Close()
}

func (b *Bot) setBotID(id string) {
	b.mu.Lock()
	b.botID = id
	b.mu.Unlock()
}

func (b *Bot) selfID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.botID
}

// messageEvent normalizes a MessageCreate. DMs have no guild and map to direct scope.
func (b *Bot) messageEvent(m *discordgo.MessageCreate) (chat.Event, bool) {
	if m == nil || m.Message == nil || m.Author == nil {
		return chat.Event{}, false
	}
	self := b.selfID()
	if m.Author.Bot || (self != "" && m.Author.ID == self) {
		return chat.Event{}, false
	}
	text := b.rewriteMentions(m.Content, self)
	if strings.TrimSpace(text) == "" {
		return chat.Event{}, false
	}

	ev := chat.Event{
		Platform:  Platform,
		Scope:     convo.ScopeShared,
		ChatID:    m.ChannelID,
		UserID:    m.Author.ID,
		UserName:  displayName(m.Member, m.Author),
		Text:      text,
		MessageID: m.ID,
	}
	if m.GuildID == "" {
		ev.Scope = convo.ScopeDirect
	}
	if name, args, ok := chat.ParseCommand(text, b.prefix); ok {
		ev.Command, ev.Args = name, args
	}
	return ev, true
}

// interactionEvent turns a button press into a callback event. The interaction
// is acknowledged right away since Discord only waits three seconds for it.
func (b *Bot) interactionEvent(i *discordgo.InteractionCreate) (chat.Event, bool) {
	if i == nil || i.Interaction == nil || i.Type != discordgo.InteractionMessageComponent {
		return chat.Event{}, false
	}
	err := b.retryOnRateLimit(context.Background(), func() error {
		return b.sess.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredMessageUpdate,
		})
	})
	if err != nil {
		b.logger.Warn("discord_interaction_ack_error", zap.String("interaction_id", i.ID), zap.Error(err))
	}

	user := i.User
	if i.Member != nil && i.Member.User != nil {
		user = i.Member.User
	}
	if user == nil {
		return chat.Event{}, false
	}
	ev := chat.Event{
		Platform: Platform,
		Scope:    convo.ScopeShared,
		ChatID:   i.ChannelID,
		UserID:   user.ID,
		UserName: displayName(i.Member, user),
		Callback: &chat.Callback{
			ID:   i.ID,
			Data: i.MessageComponentData().CustomID,
		},
	}
	if i.GuildID == "" {
		ev.Scope = convo.ScopeDirect
	}
	if i.Message != nil {
		ev.Callback.MessageID = i.Message.ID
	}
	return ev, true
}

func (b *Bot) rewriteMentions(text, self string) string {
	if self == "" || b.handle == "" {
		return text
	}
	text = strings.ReplaceAll(text, "<@!"+self+">", b.handle)
	return strings.ReplaceAll(text, "<@"+self+">", b.handle)
}

func displayName(member *discordgo.Member, user *discordgo.User) string {
	if member != nil && member.Nick != "" {
		return member.Nick
	}
	if user.GlobalName != "" {
		return user.GlobalName
	}
	return user.Username
}

// Send implements chat.Outbox.
func (b *Bot) Send(ctx context.Context, chatID, text string) (string, error) {
	var msg *discordgo.Message
	err := b.retryOnRateLimit(ctx, func() error {
		var err error
		msg, err = b.sess.ChannelMessageSend(chatID, text, discordgo.WithContext(ctx))
		return err
	})
	if err != nil {
		return "", fmt.Errorf("discord: send: %w", err)
	}
	return msg.ID, nil
}

// SendMenu posts text with one button per option; the button custom id is the option data.
func (b *Bot) SendMenu(ctx context.Context, chatID, text string, options []chat.MenuOption) (string, error) {
	buttons := make([]discordgo.MessageComponent, 0, len(options))
	for _, o := range options {
		buttons = append(buttons, discordgo.Button{
			Label:    o.Label,
			Style:    discordgo.PrimaryButton,
			CustomID: o.Data,
		})
	}
	data := &discordgo.MessageSend{Content: text}
	if len(buttons) > 0 {
		data.Components = []discordgo.MessageComponent{discordgo.ActionsRow{Components: buttons}}
	}
	var msg *discordgo.Message
	err := b.retryOnRateLimit(ctx, func() error {
		var err error
		msg, err = b.sess.ChannelMessageSendComplex(chatID, data, discordgo.WithContext(ctx))
		return err
	})
	if err != nil {
		return "", fmt.Errorf("discord: send menu: %w", err)
	}
	return msg.ID, nil
}

func (b *Bot) Edit(ctx context.Context, chatID, messageID, text string) error {
	err := b.retryOnRateLimit(ctx, func() error {
		_, err := b.sess.ChannelMessageEdit(chatID, messageID, text, discordgo.WithContext(ctx))
		return err
	})
	if err != nil {
		return fmt.Errorf("discord: edit: %w", err)
	}
	return nil
}

// AnswerCallback is a no-op: interactions are acknowledged on receipt.
func (b *Bot) AnswerCallback(context.Context, string, string) error { return nil }

func (b *Bot) SendImage(ctx context.Context, chatID string, png []byte) error {
	err := b.retryOnRateLimit(ctx, func() error {
		_, err := b.sess.ChannelMessageSendComplex(chatID, &discordgo.MessageSend{
			Files: []*discordgo.File{{
				Name:        "ahorcado.png",
				ContentType: "image/png",
				Reader:      bytes.NewReader(png),
			}},
		}, discordgo.WithContext(ctx))
		return err
	})
	if err != nil {
		return fmt.Errorf("discord: send image: %w", err)
	}
	return nil
}

// retryOnRateLimit retries fn with exponential backoff on 429 responses.
func (b *Bot) retryOnRateLimit(ctx context.Context, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		var restErr *discordgo.RESTError
		if !errors.As(err, &restErr) || restErr.Response == nil || restErr.Response.StatusCode != http.StatusTooManyRequests {
			return err
		}
		if attempt == maxRetries {
			return err
		}

		wait := time.Duration(math.Pow(2, float64(attempt))) * b.backoff
		if wait > maxBackoff {
			wait = maxBackoff
		}
		b.logger.Warn("discord_rate_limited", zap.Int("attempt", attempt+1), zap.Duration("wait", wait))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
