package convo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisTTL = 24 * time.Hour

// RedisStore keeps each transcript as a Redis list of JSON turns under convo:<key>.
type RedisStore struct {
	rdb      *redis.Client
	maxTurns int
	ttl      time.Duration
	now      func() time.Time
}

func NewRedisStore(rdb *redis.Client, maxTurns int, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultRedisTTL
	}
	return &RedisStore{rdb: rdb, maxTurns: maxTurns, ttl: ttl, now: time.Now}
}

func (s *RedisStore) keyTurns(key Key) string { return "convo:" + key.String() }

// Ensure는 기존 기록의 TTL만 갱신한다. 리스트는 첫 append 때 생성된다.
func (s *RedisStore) Ensure(ctx context.Context, key Key) error {
	if !key.valid() {
		return ErrInvalidKey
	}
	return s.rdb.Expire(ctx, s.keyTurns(key), s.ttl).Err()
}

func (s *RedisStore) AppendUser(ctx context.Context, key Key, speaker, text string) error {
	return s.append(ctx, key, Turn{Role: RoleUser, Speaker: speaker, Content: text})
}

func (s *RedisStore) AppendAssistant(ctx context.Context, key Key, text string) error {
	return s.append(ctx, key, Turn{Role: RoleAssistant, Content: text})
}

func (s *RedisStore) append(ctx context.Context, key Key, turn Turn) error {
	if !key.valid() {
		return ErrInvalidKey
	}
	turn.At = s.now()
	raw, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("marshal turn: %w", err)
	}
	k := s.keyTurns(key)
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.RPush(ctx, k, raw)
		if s.maxTurns > 0 {
			p.LTrim(ctx, k, int64(-s.maxTurns), -1)
		}
		p.Expire(ctx, k, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

func (s *RedisStore) Turns(ctx context.Context, key Key) ([]Turn, error) {
	if !key.valid() {
		return nil, ErrInvalidKey
	}
	items, err := s.rdb.LRange(ctx, s.keyTurns(key), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load turns: %w", err)
	}
	out := make([]Turn, 0, len(items))
	for _, item := range items {
		var t Turn
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			return nil, fmt.Errorf("decode turn: %w", err)
		}
		out = append(out, t)
	}
	return out, nil
}

// Close는 공유 클라이언트를 닫지 않는다 (botbuilder가 소유).
func (s *RedisStore) Close() error { return nil }
