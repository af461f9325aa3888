package discordbot

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/park285/parlor-bot/internal/chat"
	"github.com/park285/parlor-bot/internal/convo"
)

type mockSession struct {
	mu        sync.Mutex
	handlers  []interface{}
	opened    bool
	sent      []string
	complex   []*discordgo.MessageSend
	edits     []string
	responds  int
	failSends int
}

func (m *mockSession) Open() error  { m.opened = true; return nil }
func (m *mockSession) Close() error { m.opened = false; return nil }
func (m *mockSession) AddHandler(h interface{}) func() {
	m.handlers = append(m.handlers, h)
	return func() {}
}

func (m *mockSession) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSends > 0 {
		m.failSends--
		return nil, &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusTooManyRequests}}
	}
	m.sent = append(m.sent, content)
	return &discordgo.Message{ID: "m1", ChannelID: channelID}, nil
}

func (m *mockSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.complex = append(m.complex, data)
	return &discordgo.Message{ID: "m2", ChannelID: channelID}, nil
}

func (m *mockSession) ChannelMessageEdit(_, messageID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edits = append(m.edits, messageID+"="+content)
	return &discordgo.Message{ID: messageID}, nil
}

func (m *mockSession) InteractionRespond(*discordgo.Interaction, *discordgo.InteractionResponse, ...discordgo.RequestOption) error {
	m.mu.Lock()
	m.responds++
	m.mu.Unlock()
	return nil
}

// dispatch invokes every registered handler that accepts the event type.
func (m *mockSession) dispatch(ev interface{}) {
	for _, h := range m.handlers {
		switch fn := h.(type) {
		case func(*discordgo.Session, *discordgo.Ready):
			if e, ok := ev.(*discordgo.Ready); ok {
				fn(nil, e)
			}
		case func(*discordgo.Session, *discordgo.MessageCreate):
			if e, ok := ev.(*discordgo.MessageCreate); ok {
				fn(nil, e)
			}
		case func(*discordgo.Session, *discordgo.InteractionCreate):
			if e, ok := ev.(*discordgo.InteractionCreate); ok {
				fn(nil, e)
			}
		}
	}
}

func startBot(t *testing.T) (*Bot, *mockSession, *[]chat.Event) {
	t.Helper()
	sess := &mockSession{}
	b, err := New(Options{Prefix: "/", Handle: "@parlor", Session: sess})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	var events []chat.Event
	if err := b.Start(func(ev chat.Event) { events = append(events, ev) }); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !sess.opened {
		t.Fatalf("gateway not opened")
	}
	sess.dispatch(&discordgo.Ready{User: &discordgo.User{ID: "bot1", Username: "parlor"}})
	return b, sess, &events
}

func TestNewRequiresToken(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatalf("expected error without token")
	}
}

func TestGuildMessageRewritesMention(t *testing.T) {
	_, sess, events := startBot(t)
	sess.dispatch(&discordgo.MessageCreate{Message: &discordgo.Message{
		ID: "x1", ChannelID: "c1", GuildID: "g1",
		Content: "hola <@!bot1> que tal",
		Author:  &discordgo.User{ID: "u1", Username: "ana"},
		Member:  &discordgo.Member{Nick: "Anita"},
	}})
	if len(*events) != 1 {
		t.Fatalf("events = %d", len(*events))
	}
	ev := (*events)[0]
	if ev.Scope != convo.ScopeShared || ev.Platform != Platform || ev.ChatID != "c1" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Text != "hola @parlor que tal" {
		t.Fatalf("text = %q", ev.Text)
	}
	if ev.UserName != "Anita" {
		t.Fatalf("user name = %q", ev.UserName)
	}
}

func TestDirectMessageAndCommand(t *testing.T) {
	_, sess, events := startBot(t)
	sess.dispatch(&discordgo.MessageCreate{Message: &discordgo.Message{
		ID: "x2", ChannelID: "dm1",
		Content: "/juegos ahorcado",
		Author:  &discordgo.User{ID: "u2", Username: "beto"},
	}})
	if len(*events) != 1 {
		t.Fatalf("events = %d", len(*events))
	}
	ev := (*events)[0]
	if ev.Scope != convo.ScopeDirect {
		t.Fatalf("scope = %v", ev.Scope)
	}
	if ev.Command != "juegos" || len(ev.Args) != 1 || ev.Args[0] != "ahorcado" {
		t.Fatalf("command = %q %v", ev.Command, ev.Args)
	}
}

func TestIgnoresBotsAndSelf(t *testing.T) {
	_, sess, events := startBot(t)
	sess.dispatch(&discordgo.MessageCreate{Message: &discordgo.Message{
		ChannelID: "c1", Content: "eco", Author: &discordgo.User{ID: "bot1"},
	}})
	sess.dispatch(&discordgo.MessageCreate{Message: &discordgo.Message{
		ChannelID: "c1", Content: "otro bot", Author: &discordgo.User{ID: "b2", Bot: true},
	}})
	if len(*events) != 0 {
		t.Fatalf("expected no events, got %d", len(*events))
	}
}

func TestButtonPressBecomesCallback(t *testing.T) {
	_, sess, events := startBot(t)
	sess.dispatch(&discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:        "i1",
		Type:      discordgo.InteractionMessageComponent,
		ChannelID: "c1",
		GuildID:   "g1",
		Member:    &discordgo.Member{User: &discordgo.User{ID: "u1", Username: "ana"}},
		Message:   &discordgo.Message{ID: "menu1"},
		Data:      discordgo.MessageComponentInteractionData{CustomID: "game:hangman"},
	}})
	if sess.responds != 1 {
		t.Fatalf("interaction acks = %d", sess.responds)
	}
	if len(*events) != 1 {
		t.Fatalf("events = %d", len(*events))
	}
	cb := (*events)[0].Callback
	if cb == nil || cb.Data != "game:hangman" || cb.MessageID != "menu1" || cb.ID != "i1" {
		t.Fatalf("callback = %+v", cb)
	}
}

func TestSendMenuUsesButtons(t *testing.T) {
	b, sess, _ := startBot(t)
	id, err := b.SendMenu(context.Background(), "c1", "Juegos", []chat.MenuOption{{Label: "Ahorcado", Data: "game:hangman"}})
	if err != nil || id != "m2" {
		t.Fatalf("send menu: %q %v", id, err)
	}
	row, ok := sess.complex[0].Components[0].(discordgo.ActionsRow)
	if !ok || len(row.Components) != 1 {
		t.Fatalf("unexpected components %+v", sess.complex[0].Components)
	}
	if btn := row.Components[0].(discordgo.Button); btn.CustomID != "game:hangman" {
		t.Fatalf("custom id = %q", btn.CustomID)
	}
}

func TestEditAndImage(t *testing.T) {
	b, sess, _ := startBot(t)
	if err := b.Edit(context.Background(), "c1", "menu1", "iniciado"); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if len(sess.edits) != 1 || sess.edits[0] != "menu1=iniciado" {
		t.Fatalf("edits = %v", sess.edits)
	}
	if err := b.SendImage(context.Background(), "c1", []byte{0x89, 'P', 'N', 'G'}); err != nil {
		t.Fatalf("image: %v", err)
	}
	if f := sess.complex[0].Files; len(f) != 1 || f[0].ContentType != "image/png" {
		t.Fatalf("files = %+v", f)
	}
}

func TestRetryOnRateLimit(t *testing.T) {
	b, sess, _ := startBot(t)
	b.backoff = time.Millisecond
	sess.failSends = 2
	if _, err := b.Send(context.Background(), "c1", "hola"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(sess.sent) != 1 {
		t.Fatalf("sent = %v", sess.sent)
	}

	sess.failSends = maxRetries + 1
	_, err := b.Send(context.Background(), "c1", "hola")
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		t.Fatalf("expected rest error after retries, got %v", err)
	}
}
