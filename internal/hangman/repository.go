package hangman

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/park285/parlor-bot/internal/domain"
)

const schemaSQL = `CREATE TABLE IF NOT EXISTS hangman_games (
    game_id      TEXT PRIMARY KEY,
    scope_id     TEXT NOT NULL,
    word         TEXT NOT NULL,
    result       TEXT NOT NULL,
    lives_left   INTEGER NOT NULL,
    incorrect    TEXT NOT NULL,
    started_by   TEXT NOT NULL DEFAULT '',
    finished_by  TEXT NOT NULL DEFAULT '',
    started_at   TIMESTAMPTZ NOT NULL,
    ended_at     TIMESTAMPTZ NOT NULL,
    duration_ms  BIGINT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS hangman_games_scope_idx ON hangman_games (scope_id, ended_at DESC);`

// Repository is the Postgres ResultRecorder.
type Repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate hangman_games: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Record upserts a finished game.
func (r *Repository) Record(ctx context.Context, g *domain.HangmanGame) error {
	if r == nil || r.db == nil || g == nil {
		return nil
	}
	incorrect, _ := json.Marshal(g.Incorrect)

	q := `INSERT INTO hangman_games (
        game_id, scope_id, word, result, lives_left, incorrect,
        started_by, finished_by, started_at, ended_at, duration_ms
      ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
      ON CONFLICT (game_id) DO UPDATE SET
        result=EXCLUDED.result,
        lives_left=EXCLUDED.lives_left,
        incorrect=EXCLUDED.incorrect,
        finished_by=EXCLUDED.finished_by,
        ended_at=EXCLUDED.ended_at,
        duration_ms=EXCLUDED.duration_ms`

	_, err := r.db.ExecContext(ctx, q,
		g.GameID, g.ScopeID, g.Word, g.Result, g.LivesLeft, string(incorrect),
		g.StartedBy, g.FinishedBy, g.StartedAt, g.EndedAt, g.Duration.Milliseconds(),
	)
	return err
}

func (r *Repository) Stats(ctx context.Context, scopeID string) (*domain.HangmanStats, error) {
	st := &domain.HangmanStats{ScopeID: scopeID}
	if r == nil || r.db == nil {
		return st, nil
	}
	q := `SELECT
        COUNT(*),
        COUNT(*) FILTER (WHERE result = 'won'),
        COUNT(*) FILTER (WHERE result = 'lost'),
        COUNT(*) FILTER (WHERE result = 'surrendered'),
        MAX(ended_at)
      FROM hangman_games WHERE scope_id = $1`
	var last sql.NullTime
	if err := r.db.QueryRowContext(ctx, q, scopeID).Scan(&st.GamesPlayed, &st.Wins, &st.Losses, &st.Surrenders, &last); err != nil {
		return nil, err
	}
	if last.Valid {
		st.LastPlayed = last.Time
	}
	return st, nil
}
