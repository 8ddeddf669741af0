package redisstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/linzhe2090468983-la/AI-PICTURE2/internal/history"
)

const (
	keyPrefix  = "session_history:"
	cacheDepth = 20
	cacheTTL   = 24 * time.Hour
)

// Store backs history.RecentCache with a bounded Redis list per session.
// Like the in-memory backend it is non-authoritative; failures are swallowed
// and callers fall through to the database.
type Store struct {
	rdb *redis.Client
}

func New(addr, password string, db int) *Store {
	return &Store{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (s *Store) Append(ctx context.Context, sessionID string, msg history.CachedMessage) {
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	key := keyPrefix + sessionID
	pipe := s.rdb.Pipeline()
	pipe.RPush(ctx, key, b)
	pipe.LTrim(ctx, key, -cacheDepth, -1)
	pipe.Expire(ctx, key, cacheTTL)
	_, _ = pipe.Exec(ctx)
}

func (s *Store) Recent(ctx context.Context, sessionID string, limit int) []history.CachedMessage {
	if limit <= 0 || limit > cacheDepth {
		limit = cacheDepth
	}
	raw, err := s.rdb.LRange(ctx, keyPrefix+sessionID, int64(-limit), -1).Result()
	if err != nil {
		return nil
	}
	out := make([]history.CachedMessage, 0, len(raw))
	for _, item := range raw {
		var m history.CachedMessage
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out
}

func (s *Store) Clear(ctx context.Context, sessionID string) {
	_ = s.rdb.Del(ctx, keyPrefix+sessionID).Err()
}

func (s *Store) Close() error { return s.rdb.Close() }

var _ history.RecentCache = (*Store)(nil)
