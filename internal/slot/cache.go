package slot

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// CachedRepository is a read-through cache over a slot Repository.
// Redis failures are logged and the call falls through to the underlying repository.
type CachedRepository struct {
	next   Repository
	rdb    *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

func NewCachedRepository(next Repository, rdb *redis.Client, ttl time.Duration, logger *logrus.Logger) *CachedRepository {
	return &CachedRepository{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

func areaKey(areaName string) string {
	return "slots:area:" + strings.ToLower(areaName)
}

func slotKey(id string) string {
	return "slots:id:" + id
}

func (r *CachedRepository) ListByArea(ctx context.Context, areaName string) ([]*Slot, error) {
	key := areaKey(areaName)

	var cached []*Slot
	if r.load(ctx, key, &cached) {
		return cached, nil
	}

	slots, err := r.next.ListByArea(ctx, areaName)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, slots)
	return slots, nil
}

func (r *CachedRepository) GetByID(ctx context.Context, id string) (*Slot, error) {
	key := slotKey(id)

	var cached Slot
	if r.load(ctx, key, &cached) {
		return &cached, nil
	}

	s, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, s)
	return s, nil
}

func (r *CachedRepository) load(ctx context.Context, key string, dst any) bool {
	raw, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.WithError(err).WithField("key", key).Warn("slot cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		r.logger.WithError(err).WithField("key", key).Warn("slot cache entry is corrupt")
		return false
	}
	return true
}

func (r *CachedRepository) store(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := r.rdb.Set(ctx, key, raw, r.ttl).Err(); err != nil {
		r.logger.WithError(err).WithField("key", key).Warn("slot cache write failed")
	}
}
