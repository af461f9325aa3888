package hangman

import (
	"context"
	"sync"
	"time"

	"github.com/park285/parlor-bot/internal/domain"
)

// ResultRecorder persists finished games and reports per-scope stats.
type ResultRecorder interface {
	Record(ctx context.Context, game *domain.HangmanGame) error
	Stats(ctx context.Context, scopeID string) (*domain.HangmanStats, error)
}

// ToRecord converts an ended session into a ledger row.
func ToRecord(s *Session, result Result, finishedBy string) *domain.HangmanGame {
	if s == nil {
		return nil
	}
	end := time.Now()
	d := end.Sub(s.StartedAt)
	if d < 0 {
		d = 0
	}
	return &domain.HangmanGame{
		GameID:     s.ID,
		ScopeID:    s.ScopeID,
		Word:       s.Word,
		Result:     string(result),
		LivesLeft:  s.Lives,
		Incorrect:  s.IncorrectLetters(),
		StartedBy:  s.StartedBy,
		FinishedBy: finishedBy,
		StartedAt:  s.StartedAt,
		EndedAt:    end,
		Duration:   d,
	}
}

// memLedger is the in-memory ResultRecorder used when no database is configured.
type memLedger struct {
	mu      sync.RWMutex
	byID    map[string]*domain.HangmanGame
	byScope map[string][]*domain.HangmanGame
}

func NewMemoryLedger() ResultRecorder {
	return &memLedger{
		byID:    make(map[string]*domain.HangmanGame),
		byScope: make(map[string][]*domain.HangmanGame),
	}
}

func (m *memLedger) Record(_ context.Context, game *domain.HangmanGame) error {
	if game == nil {
		return nil
	}
	cp := *game
	cp.Incorrect = append([]string(nil), game.Incorrect...)

	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.byID[cp.GameID]; ok {
		// upsert
		*prev = cp
		return nil
	}
	m.byID[cp.GameID] = &cp
	m.byScope[cp.ScopeID] = append(m.byScope[cp.ScopeID], &cp)
	return nil
}

func (m *memLedger) Stats(_ context.Context, scopeID string) (*domain.HangmanStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := &domain.HangmanStats{ScopeID: scopeID}
	for _, g := range m.byScope[scopeID] {
		st.GamesPlayed++
		switch Result(g.Result) {
		case ResultWon:
			st.Wins++
		case ResultLost:
			st.Losses++
		case ResultSurrendered:
			st.Surrenders++
		}
		if g.EndedAt.After(st.LastPlayed) {
			st.LastPlayed = g.EndedAt
		}
	}
	return st, nil
}
