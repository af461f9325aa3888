package router

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/park285/parlor-bot/internal/chat"
	"github.com/park285/parlor-bot/internal/convo"
	"github.com/park285/parlor-bot/internal/hangman"
	"go.uber.org/zap"
)

const callbackHangman = "game:hangman"

// HandleCommand runs a bot command. Commands do not record the user's text.
func (r *Router) HandleCommand(ctx context.Context, ev chat.Event, out chat.Outbox) Result {
	unlock := r.locks.Lock(ev.ScopeID())
	defer unlock()

	key := convo.ResolveKey(ev.Scope, ev.ScopeID(), ev.UserID)
	res := Result{Key: key, Action: ActionCommand}

	switch ev.Command {
	case "start", "inicio":
		res.Reply = r.texts.Welcome()
		r.present.Reply(ctx, out, ev, key, res.Reply)
	case "juegos", "games":
		return r.listGames(ctx, ev, out, res)
	case "rendirse", "surrender":
		return r.surrender(ctx, ev, out, res)
	case "estadisticas", "stats":
		return r.stats(ctx, ev, out, res)
	case "ayuda", "help":
		res.Reply = r.texts.Help()
		r.present.Send(ctx, out, ev, res.Reply)
	default:
		res.Reply = r.texts.Unknown()
		r.present.Send(ctx, out, ev, res.Reply)
	}
	return res
}

// HandleCallback handles a menu selection.
func (r *Router) HandleCallback(ctx context.Context, ev chat.Event, out chat.Outbox) Result {
	unlock := r.locks.Lock(ev.ScopeID())
	defer unlock()

	key := convo.ResolveKey(ev.Scope, ev.ScopeID(), ev.UserID)
	res := Result{Key: key, Action: ActionCommand}
	cb := ev.Callback

	if err := out.AnswerCallback(ctx, cb.ID, ""); err != nil {
		r.logger.Warn("callback_answer_error", zap.String("callback_id", cb.ID), zap.Error(err))
	}
	switch cb.Data {
	case callbackHangman:
		return r.startHangman(ctx, ev, out, res, cb.MessageID)
	default:
		res.Reply = r.texts.UnknownGame()
		r.present.Send(ctx, out, ev, res.Reply)
		return res
	}
}

func (r *Router) listGames(ctx context.Context, ev chat.Event, out chat.Outbox, res Result) Result {
	if len(ev.Args) > 0 {
		switch strings.ToLower(ev.Args[0]) {
		case "ahorcado", "hangman":
			return r.startHangman(ctx, ev, out, res, "")
		default:
			res.Reply = r.texts.UnknownGame()
			r.present.Send(ctx, out, ev, res.Reply)
			return res
		}
	}
	text, options := r.texts.GamesMenu()
	res.Reply = text
	if _, err := out.SendMenu(ctx, ev.ChatID, text, options); err != nil {
		r.logger.Error("games_menu_error", zap.String("chat_id", ev.ChatID), zap.Error(err))
		res.Err = err
	}
	return res
}

// startHangman starts a game for the scope; editID is the menu message to replace, if any.
func (r *Router) startHangman(ctx context.Context, ev chat.Event, out chat.Outbox, res Result, editID string) Result {
	s, err := r.games.Start(ctx, ev.ScopeID(), r.words.Pick(), ev.UserID)
	switch {
	case errors.Is(err, hangman.ErrAlreadyActive):
		res.Reply = r.texts.AlreadyActive()
		res.Err = err
		r.present.ReplyInPlace(ctx, out, ev, res.Key, editID, res.Reply)
		return res
	case err != nil:
		return r.fail(ctx, ev, out, res, fmt.Errorf("start game: %w", err))
	}

	r.logger.Info("hangman_game_start",
		zap.String("scope", ev.ScopeID()),
		zap.String("game_id", s.ID),
		zap.String("started_by", ev.UserID),
		zap.Int("letters", len([]rune(s.Word))),
	)
	res.Reply = r.texts.Started(s)
	r.present.ReplyInPlace(ctx, out, ev, res.Key, editID, res.Reply)
	r.sendBoard(ctx, out, ev, s)
	return res
}

func (r *Router) surrender(ctx context.Context, ev chat.Event, out chat.Outbox, res Result) Result {
	s, err := r.games.End(ctx, ev.ScopeID())
	switch {
	case errors.Is(err, hangman.ErrNoActiveGame):
		res.Reply = r.texts.NoGame()
		r.present.Reply(ctx, out, ev, res.Key, res.Reply)
		return res
	case err != nil:
		return r.fail(ctx, ev, out, res, fmt.Errorf("end game: %w", err))
	}
	r.logger.Info("hangman_surrender", zap.String("scope", ev.ScopeID()), zap.String("game_id", s.ID))
	res.Reply = r.texts.Surrender(s)
	r.present.Reply(ctx, out, ev, res.Key, res.Reply)
	r.recordResult(ctx, s, hangman.ResultSurrendered, ev.UserID)
	return res
}

func (r *Router) stats(ctx context.Context, ev chat.Event, out chat.Outbox, res Result) Result {
	if r.results == nil {
		res.Reply = r.texts.Stats(nil)
		r.present.Send(ctx, out, ev, res.Reply)
		return res
	}
	st, err := r.results.Stats(ctx, ev.ScopeID())
	if err != nil {
		r.logger.Error("hangman_stats_error", zap.String("scope", ev.ScopeID()), zap.Error(err))
		res.Err = err
		st = nil
	}
	res.Reply = r.texts.Stats(st)
	r.present.Send(ctx, out, ev, res.Reply)
	return res
}
