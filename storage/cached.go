package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/memorybook/memorybook/models"
	"github.com/memorybook/memorybook/utils"
)

const listCachePrefix = "cache:memories:"

// CachedRecordStore serves SelectAll from Redis and drops the cache on every insert.
// With a nil client it is a plain pass-through.
type CachedRecordStore struct {
	next RecordStore
	rc   *redis.Client
	ttl  time.Duration
}

func NewCachedRecordStore(next RecordStore, rc *redis.Client, ttl time.Duration) *CachedRecordStore {
	return &CachedRecordStore{next: next, rc: rc, ttl: ttl}
}

func (s *CachedRecordStore) Insert(ctx context.Context, m *models.Memory) error {
	if err := s.next.Insert(ctx, m); err != nil {
		return err
	}
	utils.InvalidateByPrefix(ctx, s.rc, listCachePrefix)
	return nil
}

func (s *CachedRecordStore) SelectAll(ctx context.Context) ([]models.Memory, error) {
	key := listCachePrefix + "all"
	if b, ok := utils.CacheGetBytes(ctx, s.rc, key); ok {
		var cached []models.Memory
		if err := json.Unmarshal(b, &cached); err == nil {
			return cached, nil
		}
	}
	out, err := s.next.SelectAll(ctx)
	if err != nil {
		return nil, err
	}
	utils.CacheSetJSON(ctx, s.rc, key, out, s.ttl)
	return out, nil
}
