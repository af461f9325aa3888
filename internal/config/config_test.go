package config

import (
	"testing"
	"time"
)

func setBase(t *testing.T) {
	t.Helper()
	t.Setenv("TRANSPORTS", "")
	t.Setenv("BOT_HANDLE", "@parlor")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("IRIS_BASE_URL", "http://iris.local")
	t.Setenv("IRIS_WS_URL", "ws://iris.local/ws")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("HANGMAN_WORD", "")
	t.Setenv("HANGMAN_WORDS", "")
	t.Setenv("LLM_TEMPERATURE", "")
}

func TestLoadDefaults(t *testing.T) {
	setBase(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BotPrefix != "/" || !cfg.Enabled(TransportIris) || cfg.Enabled(TransportDiscord) {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.MemoryMaxTurns != 100 || cfg.MemoryIdleTTL != 24*time.Hour || cfg.LLMTimeout != time.Minute {
		t.Fatalf("unexpected memory/llm defaults: %+v", cfg)
	}
	if !cfg.HangmanImages || len(cfg.HangmanWords) != 0 {
		t.Fatalf("unexpected hangman defaults: %+v", cfg)
	}
}

func TestLoadRequiresHandle(t *testing.T) {
	setBase(t)
	t.Setenv("BOT_HANDLE", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected BOT_HANDLE error")
	}
}

func TestLoadRequiresProviderKey(t *testing.T) {
	setBase(t)
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected missing anthropic key error")
	}
	t.Setenv("ANTHROPIC_API_KEY", "ak")
	t.Setenv("ANTHROPIC_MODEL", "claude-x")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LLMAPIKey != "ak" || cfg.LLMModel != "claude-x" {
		t.Fatalf("anthropic settings not picked: %+v", cfg)
	}
}

func TestDiscordOnlyNeedsToken(t *testing.T) {
	setBase(t)
	t.Setenv("TRANSPORTS", "Discord")
	t.Setenv("IRIS_BASE_URL", "")
	t.Setenv("DISCORD_BOT_TOKEN", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected token error")
	}
	t.Setenv("DISCORD_BOT_TOKEN", "tok")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Enabled(TransportDiscord) || cfg.Enabled(TransportIris) {
		t.Fatalf("transports = %v", cfg.Transports)
	}
}

func TestHangmanWordsAndLists(t *testing.T) {
	setBase(t)
	t.Setenv("HANGMAN_WORD", "gato")
	t.Setenv("ALLOWED_ROOMS", " sala1, ,sala2 ")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.HangmanWords) != 1 || cfg.HangmanWords[0] != "gato" {
		t.Fatalf("words = %v", cfg.HangmanWords)
	}
	if len(cfg.AllowedRooms) != 2 || cfg.AllowedRooms[1] != "sala2" {
		t.Fatalf("rooms = %v", cfg.AllowedRooms)
	}

	t.Setenv("HANGMAN_WORDS", "uno,dos")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.HangmanWords) != 2 {
		t.Fatalf("words list should win: %v", cfg.HangmanWords)
	}
}

func TestInvalidTemperature(t *testing.T) {
	setBase(t)
	t.Setenv("LLM_TEMPERATURE", "hot")
	if _, err := Load(); err == nil {
		t.Fatalf("expected temperature error")
	}
}

func TestUnknownTransport(t *testing.T) {
	setBase(t)
	t.Setenv("TRANSPORTS", "telegram")
	if _, err := Load(); err == nil {
		t.Fatalf("expected unknown transport error")
	}
}
