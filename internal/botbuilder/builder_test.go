package botbuilder

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/park285/parlor-bot/internal/chat"
	"github.com/park285/parlor-bot/internal/config"
	"github.com/park285/parlor-bot/internal/convo"
	"github.com/park285/parlor-bot/internal/hangman"
	"github.com/park285/parlor-bot/internal/llm"
	"github.com/park285/parlor-bot/internal/router"
)

type stubLLM struct{}

func (stubLLM) Complete(context.Context, []llm.Message) (string, error) { return "hola", nil }

type nopOutbox struct{}

func (nopOutbox) Send(context.Context, string, string) (string, error) { return "1", nil }
func (nopOutbox) SendMenu(context.Context, string, string, []chat.MenuOption) (string, error) {
	return "1", nil
}
func (nopOutbox) Edit(context.Context, string, string, string) error   { return nil }
func (nopOutbox) AnswerCallback(context.Context, string, string) error { return nil }
func (nopOutbox) SendImage(context.Context, string, []byte) error      { return nil }

func baseConfig() *config.AppConfig {
	return &config.AppConfig{
		BotPrefix:              "/",
		BotHandle:              "@parlor",
		MemoryMaxTurns:         10,
		MemoryMaxConversations: 10,
		MemoryIdleTTL:          time.Hour,
		MemorySweepCron:        "@every 5m",
		HangmanSessionTTL:      time.Hour,
		LLMTimeout:             time.Second,
	}
}

func TestBadRedisURLFails(t *testing.T) {
	for _, raw := range []string{"http://cache.local", "redis://cache.local/abc"} {
		cfg := baseConfig()
		cfg.RedisURL = raw
		if _, err := NewWithLLM(cfg, stubLLM{}, nil); err == nil {
			t.Fatalf("%s: expected parse error", raw)
		}
	}
}

func TestRedisURLSelectsDatabase(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := baseConfig()
	cfg.RedisURL = "redis://" + mr.Addr() + "/3"
	d, err := NewWithLLM(cfg, stubLLM{}, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(d.Close)
	if db := d.Redis.Options().DB; db != 3 {
		t.Fatalf("db = %d, want 3", db)
	}
}

func TestMemoryBackends(t *testing.T) {
	d, err := NewWithLLM(baseConfig(), stubLLM{}, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(d.Close)
	if _, ok := d.Store.(*convo.MemoryStore); !ok {
		t.Fatalf("store = %T", d.Store)
	}
	if _, ok := d.Games.(*hangman.MemoryRegistry); !ok {
		t.Fatalf("games = %T", d.Games)
	}
	if d.Janitor.RunOnce() != 0 {
		t.Fatalf("nothing should be evicted")
	}

	res := d.Router.Handle(context.Background(), chat.Event{
		Platform: "test", Scope: convo.ScopeDirect, ChatID: "c", UserID: "u", Text: "hola",
	}, nopOutbox{})
	if res.Action != router.ActionReplied || res.Reply != "hola" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestRedisBackends(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := baseConfig()
	cfg.RedisURL = "redis://" + mr.Addr() + "/0"
	d, err := NewWithLLM(cfg, stubLLM{}, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(d.Close)
	if _, ok := d.Store.(*convo.RedisStore); !ok {
		t.Fatalf("store = %T", d.Store)
	}
	if _, ok := d.Games.(*hangman.RedisRegistry); !ok {
		t.Fatalf("games = %T", d.Games)
	}
}

func TestInvalidWordFails(t *testing.T) {
	cfg := baseConfig()
	cfg.HangmanWords = []string{"p1thon"}
	if _, err := NewWithLLM(cfg, stubLLM{}, nil); err == nil {
		t.Fatalf("expected invalid word error")
	}
}

func TestMissingKeyFails(t *testing.T) {
	if _, err := New(baseConfig(), nil); err == nil {
		t.Fatalf("expected llm key error")
	}
}
