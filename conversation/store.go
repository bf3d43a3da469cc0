package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

// StateStore keeps one State per (tenant, customer). Get returns nil, nil
// when there is none.
type StateStore interface {
	Get(ctx context.Context, key string) (*State, error)
	Set(ctx context.Context, key string, state *State) error
	Delete(ctx context.Context, key string) error
}

// Key identifies one conversation.
func Key(tenantID, customerChannelID string) string {
	return tenantID + ":" + customerChannelID
}

const memoryStoreSize = 10000

// MemoryStore is an expiring in-process store. Entries are kept encoded so
// callers never share slices with the stored copy.
type MemoryStore struct {
	cache *expirable.LRU[string, []byte]
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{cache: expirable.NewLRU[string, []byte](memoryStoreSize, nil, ttl)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (*State, error) {
	raw, ok := m.cache.Get(key)
	if !ok {
		return nil, nil
	}
	return decodeState(raw)
}

func (m *MemoryStore) Set(_ context.Context, key string, state *State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	m.cache.Add(key, raw)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.cache.Remove(key)
	return nil
}

// RedisStore shares conversations across instances. Every Set renews the
// TTL.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (r *RedisStore) key(key string) string {
	return "conv:" + key
}

func (r *RedisStore) Get(ctx context.Context, key string) (*State, error) {
	raw, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	return decodeState(raw)
}

func (r *RedisStore) Set(ctx context.Context, key string, state *State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, r.key(key), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

func decodeState(raw []byte) (*State, error) {
	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode conversation: %w", err)
	}
	return &s, nil
}
