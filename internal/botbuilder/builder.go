package botbuilder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/park285/parlor-bot/internal/config"
	"github.com/park285/parlor-bot/internal/convo"
	"github.com/park285/parlor-bot/internal/hangman"
	"github.com/park285/parlor-bot/internal/janitor"
	"github.com/park285/parlor-bot/internal/llm"
	"github.com/park285/parlor-bot/internal/msgcat"
	"github.com/park285/parlor-bot/internal/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Deps struct {
	Router  *router.Router
	Store   convo.Store
	Games   hangman.Registry
	Results hangman.ResultRecorder
	Janitor *janitor.Janitor
	Redis   *redis.Client
	Repo    *hangman.Repository
}

// New assembles the router and its backends. Redis and Postgres are optional:
// without them conversations, games and results stay in process memory.
func New(cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	return NewWithLLM(cfg, nil, logger)
}

// NewWithLLM is New with an injected language model client (nil builds one from cfg).
func NewWithLLM(cfg *config.AppConfig, client llm.Client, logger *zap.Logger) (_ *Deps, err error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Deps{}
	defer func() {
		if err != nil {
			d.Close()
		}
	}()

	words, err := hangman.NewWordPicker(cfg.HangmanWords...)
	if err != nil {
		return nil, fmt.Errorf("hangman words: %w", err)
	}
	catalog, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	if client == nil {
		client, err = llm.NewClient(llm.Config{
			Provider:    cfg.LLMProvider,
			APIKey:      cfg.LLMAPIKey,
			Model:       cfg.LLMModel,
			BaseURL:     cfg.LLMBaseURL,
			MaxTokens:   cfg.LLMMaxTokens,
			Temperature: cfg.LLMTemperature,
		})
		if err != nil {
			return nil, fmt.Errorf("init llm: %w", err)
		}
	}

	d.Janitor, err = janitor.New(cfg.MemorySweepCron, logger)
	if err != nil {
		return nil, err
	}

	// Redis (optional): 대화 기록과 진행중 게임을 공유 저장
	if strings.TrimSpace(cfg.RedisURL) != "" {
		opts, perr := redis.ParseURL(cfg.RedisURL)
		if perr != nil {
			return nil, fmt.Errorf("parse redis url: %w", perr)
		}
		d.Redis = redis.NewClient(opts)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.Redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		d.Store = convo.NewRedisStore(d.Redis, cfg.MemoryMaxTurns, cfg.MemoryIdleTTL)
		d.Games = hangman.NewRedisRegistry(d.Redis, cfg.HangmanSessionTTL)
		logger.Info("backend_redis", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
	} else {
		mem := convo.NewMemoryStore(convo.MemoryOptions{
			MaxTurns:         cfg.MemoryMaxTurns,
			MaxConversations: cfg.MemoryMaxConversations,
			IdleTTL:          cfg.MemoryIdleTTL,
		})
		games := hangman.NewMemoryRegistry(cfg.HangmanSessionTTL)
		d.Store, d.Games = mem, games
		d.Janitor.Add("conversations", mem)
		d.Janitor.Add("hangman_games", games)
		logger.Info("backend_memory", zap.Int("max_conversations", cfg.MemoryMaxConversations))
	}

	// Repository (optional)
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		d.Repo, err = hangman.NewRepository(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init repository: %w", err)
		}
		d.Results = d.Repo
	} else {
		d.Results = hangman.NewMemoryLedger()
	}

	var gallows *hangman.GallowsRenderer
	if cfg.HangmanImages {
		gallows = hangman.NewGallowsRenderer()
	}

	d.Router, err = router.New(router.Config{
		BotHandle:  cfg.BotHandle,
		Prefix:     cfg.BotPrefix,
		LLMTimeout: cfg.LLMTimeout,
		Images:     cfg.HangmanImages,
	}, router.Deps{
		Store:   d.Store,
		Games:   d.Games,
		Results: d.Results,
		LLM:     client,
		Words:   words,
		Gallows: gallows,
		Catalog: catalog,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Close releases backends. Safe on a partially built Deps.
func (d *Deps) Close() {
	if d == nil {
		return
	}
	if d.Store != nil {
		_ = d.Store.Close()
	}
	if d.Repo != nil {
		_ = d.Repo.Close()
	}
	if d.Redis != nil {
		_ = d.Redis.Close()
	}
}
