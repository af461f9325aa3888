package domain

import "time"

// HangmanGame is a finished game as persisted in the ledger.
type HangmanGame struct {
	GameID     string
	ScopeID    string
	Word       string
	Result     string
	LivesLeft  int
	Incorrect  []string
	StartedBy  string
	FinishedBy string
	StartedAt  time.Time
	EndedAt    time.Time
	Duration   time.Duration
}

// HangmanStats aggregates finished games for one chat scope.
type HangmanStats struct {
	ScopeID     string
	GamesPlayed int
	Wins        int
	Losses      int
	Surrenders  int
	LastPlayed  time.Time
}
