package router

import (
	"errors"

	"github.com/park285/parlor-bot/internal/convo"
	"github.com/park285/parlor-bot/internal/hangman"
)

// Action describes what a router step did.
type Action string

const (
	ActionRecorded Action = "recorded"  // user turn stored, no reply
	ActionGuidance Action = "guidance"  // invalid guess input
	ActionGuess    Action = "guess"     // guess applied, game continues
	ActionGameOver Action = "game_over" // guess finished the game
	ActionReplied  Action = "replied"   // language model reply delivered
	ActionApology  Action = "apology"   // language model failed
	ActionCommand  Action = "command"   // command or callback handled
	ActionFailed   Action = "failed"    // storage failure, apology sent
)

// ErrLanguageModel wraps any failure of the language model call.
var ErrLanguageModel = errors.New("language model failure")

// Result is returned by every router entry point. Err is informational; the
// router has already logged it and replied to the user.
type Result struct {
	Action  Action
	Key     convo.Key
	Reply   string
	Outcome hangman.Outcome
	Err     error
}
