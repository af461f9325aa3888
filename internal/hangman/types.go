package hangman

import "errors"

// InitialLives is the number of wrong guesses a session tolerates.
const InitialLives = 6

// State of a session.
type State string

const (
	StateActive State = "active"
	StateWon    State = "won"
	StateLost   State = "lost"
)

// Outcome of a single guess.
type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
	OutcomeDuplicate Outcome = "duplicate"
)

// Result of a finished session as recorded in the ledger.
type Result string

const (
	ResultWon         Result = "won"
	ResultLost        Result = "lost"
	ResultSurrendered Result = "surrendered"
)

var (
	ErrInvalidWord   = errors.New("word must be non-empty and alphabetic")
	ErrInvalidGuess  = errors.New("guess must be exactly one letter")
	ErrGameOver      = errors.New("game already finished")
	ErrAlreadyActive = errors.New("a game is already active in this chat")
	ErrNoActiveGame  = errors.New("no active game in this chat")
)
