package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoPosition is returned by a Cache that holds no position yet.
var ErrNoPosition = errors.New("no cached position")

// Fix is a position and the time it was taken.
type Fix struct {
	Position Position  `json:"position"`
	At       time.Time `json:"at"`
}

// Cache stores the last known position of the phone.
type Cache interface {
	Load(ctx context.Context) (Fix, error)
	Store(ctx context.Context, fix Fix) error
}

// MemoryCache is a concurrency-safe in-process Cache.
type MemoryCache struct {
	mu  sync.RWMutex
	fix *Fix
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (m *MemoryCache) Load(_ context.Context) (Fix, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.fix == nil {
		return Fix{}, ErrNoPosition
	}
	return *m.fix, nil
}

func (m *MemoryCache) Store(_ context.Context, fix Fix) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.fix = &fix
	return nil
}

// RedisCache keeps the last known position in Redis so it survives bridge restarts.
type RedisCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisCache stores the position under key; entries expire after ttl (0 = never).
func NewRedisCache(client *redis.Client, key string, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		key:    key,
		ttl:    ttl,
	}
}

func (r *RedisCache) Load(ctx context.Context) (Fix, error) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Fix{}, ErrNoPosition
	}
	if err != nil {
		return Fix{}, fmt.Errorf("redis get %s: %w", r.key, err)
	}

	var fix Fix
	if err := json.Unmarshal(raw, &fix); err != nil {
		return Fix{}, fmt.Errorf("decode cached position: %w", err)
	}
	return fix, nil
}

func (r *RedisCache) Store(ctx context.Context, fix Fix) error {
	raw, err := json.Marshal(fix)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}
