package hangman

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultSessionTTL = 24 * time.Hour

// RedisRegistry stores one JSON session per scope under hangman:game:<scope>.
// SETNX enforces a single active game; TTL expires abandoned games.
type RedisRegistry struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisRegistry(rdb *redis.Client, ttl time.Duration) *RedisRegistry {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &RedisRegistry{rdb: rdb, ttl: ttl}
}

func gameKey(scopeID string) string { return "hangman:game:" + strings.TrimSpace(scopeID) }

func (r *RedisRegistry) Start(ctx context.Context, scopeID, word, startedBy string) (*Session, error) {
	s, err := NewSession(strings.TrimSpace(scopeID), word, startedBy)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	ok, err := r.rdb.SetNX(ctx, gameKey(s.ScopeID), raw, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("start game: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyActive
	}
	return s, nil
}

func (r *RedisRegistry) Get(ctx context.Context, scopeID string) (*Session, error) {
	raw, err := r.rdb.Get(ctx, gameKey(scopeID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

// Save overwrites the stored session only while the same game is still active.
func (r *RedisRegistry) Save(ctx context.Context, s *Session) error {
	if s == nil {
		return ErrNoActiveGame
	}
	k := gameKey(s.ScopeID)
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, k).Bytes()
		if err == redis.Nil {
			return ErrNoActiveGame
		}
		if err != nil {
			return err
		}
		var stored Session
		if err := json.Unmarshal(cur, &stored); err != nil {
			return fmt.Errorf("decode session: %w", err)
		}
		if stored.ID != s.ID {
			return ErrNoActiveGame
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, k, raw, r.ttl)
			return nil
		})
		return err
	}, k)
}

func (r *RedisRegistry) End(ctx context.Context, scopeID string) (*Session, error) {
	k := gameKey(scopeID)
	var ended *Session
	err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, k).Bytes()
		if err == redis.Nil {
			return ErrNoActiveGame
		}
		if err != nil {
			return err
		}
		var s Session
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("decode session: %w", err)
		}
		if _, err := tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Del(ctx, k)
			return nil
		}); err != nil {
			return err
		}
		ended = &s
		return nil
	}, k)
	if err != nil {
		if errors.Is(err, ErrNoActiveGame) {
			return nil, err
		}
		return nil, fmt.Errorf("end game: %w", err)
	}
	return ended, nil
}
