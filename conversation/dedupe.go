package conversation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

// Deduper remembers inbound message ids. FirstSeen reports true exactly once
// per id within the retention window.
type Deduper interface {
	FirstSeen(ctx context.Context, messageID string) (bool, error)
}

const dedupeRetention = 24 * time.Hour

type MemoryDeduper struct {
	mu   sync.Mutex
	seen *expirable.LRU[string, struct{}]
}

func NewMemoryDeduper() *MemoryDeduper {
	return &MemoryDeduper{seen: expirable.NewLRU[string, struct{}](50000, nil, dedupeRetention)}
}

func (d *MemoryDeduper) FirstSeen(_ context.Context, messageID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen.Contains(messageID) {
		return false, nil
	}
	d.seen.Add(messageID, struct{}{})
	return true, nil
}

type RedisDeduper struct {
	rdb *redis.Client
}

func NewRedisDeduper(rdb *redis.Client) *RedisDeduper {
	return &RedisDeduper{rdb: rdb}
}

func (d *RedisDeduper) FirstSeen(ctx context.Context, messageID string) (bool, error) {
	ok, err := d.rdb.SetNX(ctx, "wamsg:"+messageID, 1, dedupeRetention).Result()
	if err != nil {
		return false, fmt.Errorf("dedupe message: %w", err)
	}
	return ok, nil
}
