package router

import (
	"strings"

	"github.com/park285/parlor-bot/internal/chat"
	"github.com/park285/parlor-bot/internal/domain"
	"github.com/park285/parlor-bot/internal/hangman"
	"github.com/park285/parlor-bot/internal/msgcat"
)

// Formatter renders user-facing texts from the message catalog.
type Formatter struct {
	cat    *msgcat.Catalog
	prefix string
	handle string
}

func NewFormatter(cat *msgcat.Catalog, prefix, handle string) *Formatter {
	if cat == nil {
		cat = msgcat.MustDefault()
	}
	return &Formatter{cat: cat, prefix: prefix, handle: handle}
}

func (f *Formatter) base() map[string]any {
	return map[string]any{"Prefix": f.prefix, "Handle": f.handle}
}

func (f *Formatter) Welcome() string      { return f.cat.Text("general.welcome", nil) }
func (f *Formatter) Apology() string      { return f.cat.Text("general.apology", nil) }
func (f *Formatter) Help() string         { return f.cat.Text("general.help", f.base()) }
func (f *Formatter) Unknown() string      { return f.cat.Text("general.unknown_command", f.base()) }
func (f *Formatter) SystemPrompt() string { return f.cat.Text("group.system_prompt", nil) }
func (f *Formatter) InvalidGuess() string { return f.cat.Text("hangman.invalid_guess", nil) }
func (f *Formatter) AlreadyActive() string {
	return f.cat.Text("hangman.already_active", nil)
}
func (f *Formatter) NoGame() string { return f.cat.Text("hangman.no_game", nil) }

func (f *Formatter) GamesMenu() (string, []chat.MenuOption) {
	return f.cat.Text("games.menu", nil), []chat.MenuOption{{
		Label:   f.cat.Text("games.hangman_label", nil),
		Data:    callbackHangman,
		Command: f.prefix + "juegos ahorcado",
	}}
}

func (f *Formatter) UnknownGame() string { return f.cat.Text("games.unknown", f.base()) }

func (f *Formatter) Started(s *hangman.Session) string {
	return f.cat.Text("hangman.started", map[string]any{"Masked": s.Masked(), "Lives": s.Lives})
}

// GuessReply combines the outcome line with the current board.
func (f *Formatter) GuessReply(s *hangman.Session, outcome hangman.Outcome, letter rune) string {
	var head string
	switch outcome {
	case hangman.OutcomeDuplicate:
		head = f.cat.Text("hangman.duplicate", map[string]any{"Letter": string(letter)})
	case hangman.OutcomeCorrect:
		head = f.cat.Text("hangman.correct", nil)
	default:
		head = f.cat.Text("hangman.incorrect", nil)
	}
	return head + "\n" + f.Status(s)
}

func (f *Formatter) Status(s *hangman.Session) string {
	return f.cat.Text("hangman.status", map[string]any{
		"Masked":    s.Masked(),
		"Lives":     max(s.Lives, 0),
		"Incorrect": strings.Join(s.IncorrectLetters(), ", "),
	})
}

func (f *Formatter) Finished(s *hangman.Session) string {
	key := "hangman.won"
	if s.State() == hangman.StateLost {
		key = "hangman.lost"
	}
	return f.cat.Text(key, map[string]any{"Word": s.Word})
}

func (f *Formatter) Surrender(s *hangman.Session) string {
	return f.cat.Text("hangman.surrender", map[string]any{"Word": s.Word})
}

func (f *Formatter) Stats(st *domain.HangmanStats) string {
	if st == nil || st.GamesPlayed == 0 {
		return f.cat.Text("hangman.stats_empty", nil)
	}
	return f.cat.Text("hangman.stats", map[string]any{
		"Played":     st.GamesPlayed,
		"Wins":       st.Wins,
		"Losses":     st.Losses,
		"Surrenders": st.Surrenders,
	})
}
