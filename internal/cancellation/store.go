package cancellation

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenStore keeps one pending cancellation token per booking.
type TokenStore interface {
	Put(ctx context.Context, bookingID, token string, ttl time.Duration) error
	// Consume deletes the token if it matches. It reports ErrTokenExpired when
	// none is pending and ErrTokenInvalid when a different one is.
	Consume(ctx context.Context, bookingID, token string) error
}

// consumeIfMatch returns 1 when KEYS[1] held ARGV[1] and was deleted, 0 on a
// mismatch and -1 when the key is absent.
var consumeIfMatch = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if not v then
	return -1
end
if v == ARGV[1] then
	redis.call('DEL', KEYS[1])
	return 1
end
return 0
`)

type redisTokenStore struct {
	rdb *redis.Client
}

func NewRedisTokenStore(rdb *redis.Client) TokenStore {
	return &redisTokenStore{rdb: rdb}
}

func tokenKey(bookingID string) string {
	return "cancel:" + bookingID
}

func (s *redisTokenStore) Put(ctx context.Context, bookingID, token string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, tokenKey(bookingID), token, ttl).Err(); err != nil {
		return fmt.Errorf("save cancellation token failed: %w", err)
	}
	return nil
}

func (s *redisTokenStore) Consume(ctx context.Context, bookingID, token string) error {
	n, err := consumeIfMatch.Run(ctx, s.rdb, []string{tokenKey(bookingID)}, token).Int()
	if err != nil {
		return fmt.Errorf("consume cancellation token failed: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return ErrTokenInvalid
	default:
		return ErrTokenExpired
	}
}
