package hold

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists one hold per user so it survives a reload or a restart.
type Store interface {
	Get(ctx context.Context, userID string) (*Hold, error)
	// Save overwrites the user's hold; the entry lives until the hold expires.
	Save(ctx context.Context, h *Hold, now time.Time) error
	// Delete removes the user's hold only if it is still the hold with holdID.
	Delete(ctx context.Context, userID, holdID string) (bool, error)
}

// deleteIfMatch removes KEYS[1] only when its stored hold id equals ARGV[1].
var deleteIfMatch = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if not v then
	return 0
end
if cjson.decode(v)['id'] == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

type redisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) Store {
	return &redisStore{rdb: rdb}
}

func key(userID string) string {
	return "hold:" + userID
}

func (s *redisStore) Get(ctx context.Context, userID string) (*Hold, error) {
	raw, err := s.rdb.Get(ctx, key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoActiveHold
		}
		return nil, fmt.Errorf("get hold failed: %w", err)
	}

	var h Hold
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, fmt.Errorf("decode hold failed: %w", err)
	}
	return &h, nil
}

func (s *redisStore) Save(ctx context.Context, h *Hold, now time.Time) error {
	ttl := h.ExpiresAt.Sub(now)
	if ttl <= 0 {
		if _, err := s.Delete(ctx, h.UserID, h.ID); err != nil {
			return err
		}
		return ErrNotActive
	}

	raw, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("encode hold failed: %w", err)
	}
	if err := s.rdb.Set(ctx, key(h.UserID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("save hold failed: %w", err)
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, userID, holdID string) (bool, error) {
	n, err := deleteIfMatch.Run(ctx, s.rdb, []string{key(userID)}, holdID).Int()
	if err != nil {
		return false, fmt.Errorf("delete hold failed: %w", err)
	}
	return n > 0, nil
}
