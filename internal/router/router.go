package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/park285/parlor-bot/internal/chat"
	"github.com/park285/parlor-bot/internal/convo"
	"github.com/park285/parlor-bot/internal/hangman"
	"github.com/park285/parlor-bot/internal/llm"
	"github.com/park285/parlor-bot/internal/msgcat"
	"go.uber.org/zap"
)

const defaultLLMTimeout = 60 * time.Second

// Config tunes the router.
type Config struct {
	BotHandle  string
	Prefix     string
	LLMTimeout time.Duration
	Images     bool
}

// Deps are the collaborators the router needs. Results, Gallows and Logger are optional.
type Deps struct {
	Store   convo.Store
	Games   hangman.Registry
	Results hangman.ResultRecorder
	LLM     llm.Client
	Words   *hangman.WordPicker
	Gallows *hangman.GallowsRenderer
	Catalog *msgcat.Catalog
	Logger  *zap.Logger
}

// Router decides, per inbound event, between recording, game play and a model reply.
type Router struct {
	cfg     Config
	store   convo.Store
	games   hangman.Registry
	results hangman.ResultRecorder
	llm     llm.Client
	words   *hangman.WordPicker
	gallows *hangman.GallowsRenderer
	texts   *Formatter
	present *presenter
	locks   *keyedMutex
	logger  *zap.Logger
}

func New(cfg Config, d Deps) (*Router, error) {
	if d.Store == nil || d.Games == nil || d.LLM == nil {
		return nil, errors.New("router requires store, games and llm")
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = defaultLLMTimeout
	}
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	words := d.Words
	if words == nil {
		words, _ = hangman.NewWordPicker()
	}
	return &Router{
		cfg:     cfg,
		store:   d.Store,
		games:   d.Games,
		results: d.Results,
		llm:     d.LLM,
		words:   words,
		gallows: d.Gallows,
		texts:   NewFormatter(d.Catalog, cfg.Prefix, cfg.BotHandle),
		present: &presenter{store: d.Store, logger: logger},
		locks:   newKeyedMutex(),
		logger:  logger,
	}, nil
}

// Mentioned reports whether text addresses the bot by its handle.
func (r *Router) Mentioned(text string) bool {
	h := strings.TrimSpace(r.cfg.BotHandle)
	return h != "" && strings.Contains(text, h)
}

// Handle dispatches an event to the callback, command or message path.
func (r *Router) Handle(ctx context.Context, ev chat.Event, out chat.Outbox) Result {
	switch {
	case ev.Callback != nil:
		return r.HandleCallback(ctx, ev, out)
	case ev.Command != "":
		return r.HandleCommand(ctx, ev, out)
	default:
		return r.HandleMessage(ctx, ev, out)
	}
}

// HandleMessage processes a plain text message.
//
//  1. record the user turn (speaker-tagged in shared scope)
//  2. with an active game and no mention, treat the text as a guess
//  3. otherwise ask the model when in direct scope or when mentioned
func (r *Router) HandleMessage(ctx context.Context, ev chat.Event, out chat.Outbox) Result {
	unlock := r.locks.Lock(ev.ScopeID())
	defer unlock()

	key := convo.ResolveKey(ev.Scope, ev.ScopeID(), ev.UserID)
	res := Result{Key: key}

	if err := r.store.Ensure(ctx, key); err != nil {
		return r.fail(ctx, ev, out, res, fmt.Errorf("ensure transcript: %w", err))
	}
	speaker := ""
	if ev.Scope == convo.ScopeShared {
		speaker = ev.DisplayName()
	}
	if err := r.store.AppendUser(ctx, key, speaker, ev.Text); err != nil {
		return r.fail(ctx, ev, out, res, fmt.Errorf("append user turn: %w", err))
	}

	mentioned := r.Mentioned(ev.Text)
	if !mentioned {
		game, err := r.games.Get(ctx, ev.ScopeID())
		if err != nil {
			return r.fail(ctx, ev, out, res, fmt.Errorf("load game: %w", err))
		}
		if game != nil {
			return r.guess(ctx, ev, out, res, game)
		}
	}

	if ev.Scope != convo.ScopeDirect && !mentioned {
		res.Action = ActionRecorded
		return res
	}
	return r.respond(ctx, ev, out, res)
}

func (r *Router) guess(ctx context.Context, ev chat.Event, out chat.Outbox, res Result, game *hangman.Session) Result {
	letter, err := hangman.ParseGuess(ev.Text)
	if err != nil {
		res.Action = ActionGuidance
		res.Reply = r.texts.InvalidGuess()
		res.Err = err
		r.present.Reply(ctx, out, ev, res.Key, res.Reply)
		return res
	}

	outcome, err := game.Guess(letter)
	if err != nil {
		return r.fail(ctx, ev, out, res, fmt.Errorf("apply guess: %w", err))
	}
	res.Outcome = outcome
	if outcome != hangman.OutcomeDuplicate {
		if err := r.games.Save(ctx, game); err != nil {
			if errors.Is(err, hangman.ErrNoActiveGame) {
				res.Action = ActionCommand
				res.Reply = r.texts.NoGame()
				r.present.Reply(ctx, out, ev, res.Key, res.Reply)
				return res
			}
			return r.fail(ctx, ev, out, res, fmt.Errorf("save game: %w", err))
		}
	}

	res.Action = ActionGuess
	res.Reply = r.texts.GuessReply(game, outcome, letter)
	r.present.Reply(ctx, out, ev, res.Key, res.Reply)
	if outcome != hangman.OutcomeDuplicate {
		r.sendBoard(ctx, out, ev, game)
	}

	if !game.IsOver() {
		return res
	}

	res.Action = ActionGameOver
	final := r.texts.Finished(game)
	r.present.Reply(ctx, out, ev, res.Key, final)
	if _, err := r.games.End(ctx, ev.ScopeID()); err != nil {
		r.logger.Warn("hangman_end_error", zap.String("scope", ev.ScopeID()), zap.Error(err))
	}
	result := hangman.ResultWon
	if game.State() == hangman.StateLost {
		result = hangman.ResultLost
	}
	r.logger.Info("hangman_game_over",
		zap.String("scope", ev.ScopeID()),
		zap.String("game_id", game.ID),
		zap.String("result", string(result)),
		zap.Int("lives", game.Lives),
	)
	r.recordResult(ctx, game, result, ev.UserID)
	return res
}

func (r *Router) respond(ctx context.Context, ev chat.Event, out chat.Outbox, res Result) Result {
	turns, err := r.store.Turns(ctx, res.Key)
	if err != nil {
		return r.fail(ctx, ev, out, res, fmt.Errorf("load transcript: %w", err))
	}

	msgs := make([]llm.Message, 0, len(turns)+1)
	if ev.Scope == convo.ScopeShared {
		msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: r.texts.SystemPrompt()})
	}
	for _, t := range turns {
		msgs = append(msgs, llm.Message{Role: llmRole(t.Role), Content: t.Rendered()})
	}

	cctx, cancel := context.WithTimeout(ctx, r.cfg.LLMTimeout)
	reply, err := r.llm.Complete(cctx, msgs)
	cancel()
	if err != nil {
		r.logger.Error("router_llm_error",
			zap.String("key", res.Key.String()),
			zap.Int("turns", len(turns)),
			zap.Error(err),
		)
		res.Action = ActionApology
		res.Reply = r.texts.Apology()
		res.Err = fmt.Errorf("%w: %v", ErrLanguageModel, err)
		r.present.Reply(ctx, out, ev, res.Key, res.Reply)
		return res
	}

	res.Action = ActionReplied
	res.Reply = reply
	r.present.Reply(ctx, out, ev, res.Key, reply)
	return res
}

// fail logs an infrastructure error and answers with the apology text.
func (r *Router) fail(ctx context.Context, ev chat.Event, out chat.Outbox, res Result, err error) Result {
	r.logger.Error("router_step_error",
		zap.String("platform", ev.Platform),
		zap.String("scope", ev.ScopeID()),
		zap.String("key", res.Key.String()),
		zap.Error(err),
	)
	res.Action = ActionFailed
	res.Err = err
	res.Reply = r.texts.Apology()
	r.present.Reply(ctx, out, ev, res.Key, res.Reply)
	return res
}

func (r *Router) sendBoard(ctx context.Context, out chat.Outbox, ev chat.Event, s *hangman.Session) {
	if !r.cfg.Images || r.gallows == nil || s == nil {
		return
	}
	img, err := r.gallows.RenderPNG(ctx, s)
	if err != nil {
		r.logger.Warn("gallows_render_error", zap.String("game_id", s.ID), zap.Error(err))
		return
	}
	r.present.Board(ctx, out, ev, img)
}

func (r *Router) recordResult(ctx context.Context, s *hangman.Session, result hangman.Result, finishedBy string) {
	if r.results == nil || s == nil {
		return
	}
	if err := r.results.Record(ctx, hangman.ToRecord(s, result, finishedBy)); err != nil {
		r.logger.Error("hangman_result_persist_error", zap.String("game_id", s.ID), zap.Error(err))
	}
}

func llmRole(role convo.Role) llm.Role {
	switch role {
	case convo.RoleAssistant:
		return llm.RoleAssistant
	case convo.RoleSystem:
		return llm.RoleSystem
	default:
		return llm.RoleUser
	}
}
