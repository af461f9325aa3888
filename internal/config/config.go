package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	TransportIris    = "iris"
	TransportDiscord = "discord"
)

type LogConfig struct {
	Level   string
	Format  string
	Console bool
	ToFile  bool
	File    string
	Caller  bool
}

type AppConfig struct {
	Transports []string

	BotPrefix string
	BotHandle string

	IrisBaseURL string
	IrisWSURL   string
	IrisEgress  string
	// IrisSeeMoreHeader precedes the folded body of long KakaoTalk replies.
	IrisSeeMoreHeader string

	XUserID    string
	XUserEmail string
	XSessionID string

	AllowedRooms []string

	DiscordBotToken string

	RedisURL    string
	DatabaseURL string

	MemoryMaxTurns         int
	MemoryMaxConversations int
	MemoryIdleTTL          time.Duration
	MemorySweepCron        string

	HangmanWords      []string
	HangmanSessionTTL time.Duration
	HangmanImages     bool

	LLMProvider    string
	LLMAPIKey      string
	LLMModel       string
	LLMBaseURL     string
	LLMTimeout     time.Duration
	LLMMaxTokens   int
	LLMTemperature float32

	MessagesDir string

	Log LogConfig
}

// Load는 환경변수에서 설정을 읽고 기본값 적용 후 검증한다.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		BotPrefix:              "/",
		IrisEgress:             "auto",
		MemoryMaxTurns:         100,
		MemoryMaxConversations: 10000,
		MemoryIdleTTL:          24 * time.Hour,
		MemorySweepCron:        "@every 5m",
		HangmanSessionTTL:      24 * time.Hour,
		HangmanImages:          true,
		LLMProvider:            "openai",
		LLMTimeout:             60 * time.Second,
	}

	cfg.Transports = splitList(env("TRANSPORTS"))
	if len(cfg.Transports) == 0 {
		cfg.Transports = []string{TransportIris}
	}
	for i, t := range cfg.Transports {
		cfg.Transports[i] = strings.ToLower(t)
	}

	if v := env("BOT_PREFIX"); v != "" {
		cfg.BotPrefix = v
	}
	cfg.BotHandle = env("BOT_HANDLE")

	cfg.IrisBaseURL = env("IRIS_BASE_URL")
	cfg.IrisWSURL = env("IRIS_WS_URL")
	if v := env("IRIS_EGRESS"); v != "" {
		cfg.IrisEgress = strings.ToLower(v)
	}
	cfg.IrisSeeMoreHeader = env("IRIS_SEE_MORE_HEADER")
	cfg.XUserID = env("X_USER_ID")
	cfg.XUserEmail = env("X_USER_EMAIL")
	cfg.XSessionID = env("X_SESSION_ID")
	cfg.AllowedRooms = splitList(env("ALLOWED_ROOMS"))

	cfg.DiscordBotToken = env("DISCORD_BOT_TOKEN")

	cfg.RedisURL = env("REDIS_URL")
	cfg.DatabaseURL = env("DATABASE_URL")

	if n, ok := positiveInt("MEMORY_MAX_TURNS"); ok {
		cfg.MemoryMaxTurns = n
	}
	if n, ok := positiveInt("MEMORY_MAX_CONVERSATIONS"); ok {
		cfg.MemoryMaxConversations = n
	}
	if n, ok := positiveInt("MEMORY_IDLE_TTL_SEC"); ok {
		cfg.MemoryIdleTTL = time.Duration(n) * time.Second
	}
	if v := env("MEMORY_SWEEP_CRON"); v != "" {
		cfg.MemorySweepCron = v
	}

	// HANGMAN_WORDS가 있으면 무작위, 없으면 HANGMAN_WORD 고정
	cfg.HangmanWords = splitList(env("HANGMAN_WORDS"))
	if len(cfg.HangmanWords) == 0 {
		if v := env("HANGMAN_WORD"); v != "" {
			cfg.HangmanWords = []string{v}
		}
	}
	if n, ok := positiveInt("HANGMAN_SESSION_TTL_SEC"); ok {
		cfg.HangmanSessionTTL = time.Duration(n) * time.Second
	}
	if v := env("HANGMAN_IMAGES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.HangmanImages = b
		}
	}

	if v := env("LLM_PROVIDER"); v != "" {
		cfg.LLMProvider = strings.ToLower(v)
	}
	switch cfg.LLMProvider {
	case "openai":
		cfg.LLMAPIKey = env("OPENAI_API_KEY")
		cfg.LLMModel = env("OPENAI_MODEL")
		cfg.LLMBaseURL = env("OPENAI_BASE_URL")
	case "anthropic":
		cfg.LLMAPIKey = env("ANTHROPIC_API_KEY")
		cfg.LLMModel = env("ANTHROPIC_MODEL")
		cfg.LLMBaseURL = env("ANTHROPIC_BASE_URL")
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER: %s", cfg.LLMProvider)
	}
	if n, ok := positiveInt("LLM_TIMEOUT_SEC"); ok {
		cfg.LLMTimeout = time.Duration(n) * time.Second
	}
	if n, ok := positiveInt("LLM_MAX_TOKENS"); ok {
		cfg.LLMMaxTokens = n
	}
	if v := env("LLM_TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil || f < 0 || f > 2 {
			return nil, fmt.Errorf("LLM_TEMPERATURE must be a number in [0,2]: %q", v)
		}
		cfg.LLMTemperature = float32(f)
	}

	cfg.MessagesDir = env("MESSAGES_DIR")

	cfg.Log = LogConfig{
		Level:   envDefault("LOG_LEVEL", "info"),
		Format:  strings.ToLower(envDefault("LOG_FORMAT", "legacy")),
		Console: boolDefault("LOG_TO_CONSOLE", true),
		ToFile:  boolDefault("LOG_TO_FILE", true),
		File:    envDefault("LOG_FILE", "logs/bot.log"),
		Caller:  boolDefault("LOG_CALLER", false),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	if c.BotHandle == "" {
		return errors.New("BOT_HANDLE is required")
	}
	if c.LLMAPIKey == "" {
		return fmt.Errorf("%s_API_KEY is required", strings.ToUpper(c.LLMProvider))
	}
	for _, t := range c.Transports {
		switch t {
		case TransportIris:
			if c.IrisBaseURL == "" {
				return errors.New("IRIS_BASE_URL is required")
			}
			if c.IrisWSURL == "" {
				return errors.New("IRIS_WS_URL is required")
			}
		case TransportDiscord:
			if c.DiscordBotToken == "" {
				return errors.New("DISCORD_BOT_TOKEN is required")
			}
		default:
			return fmt.Errorf("unknown transport: %s", t)
		}
	}
	return nil
}

// Enabled reports whether transport t is configured.
func (c *AppConfig) Enabled(t string) bool {
	for _, v := range c.Transports {
		if v == t {
			return true
		}
	}
	return false
}

func env(k string) string { return strings.TrimSpace(os.Getenv(k)) }

func envDefault(k, def string) string {
	if v := env(k); v != "" {
		return v
	}
	return def
}

func boolDefault(k string, def bool) bool {
	if b, err := strconv.ParseBool(env(k)); err == nil {
		return b
	}
	return def
}

func positiveInt(k string) (int, bool) {
	n, err := strconv.Atoi(env(k))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
