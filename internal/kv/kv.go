// Package kv is the ephemeral key/value store behind the session
// markers: Redis when REDIS_URL is set, an in-process map with TTLs
// otherwise. Nothing durable lives here — losing it only costs a
// session-restore retry.
package kv

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is an ephemeral TTL'd key/value store.
type Store struct {
	rdb *redis.Client

	mu  sync.Mutex
	mem map[string]memEntry
}

type memEntry struct {
	value     string
	expiresAt time.Time
}

// New creates a Store. An empty redisURL selects the in-memory mode;
// a bad URL is an error rather than a silent fallback.
func New(redisURL string) (*Store, error) {
	s := &Store{mem: make(map[string]memEntry)}
	if redisURL == "" {
		return s, nil
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	s.rdb = redis.NewClient(opt)
	return s, nil
}

// Set writes a value with a TTL.
func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if s.rdb != nil {
		return s.rdb.Set(ctx, key, value, ttl).Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mem[key] = memEntry{value: value, expiresAt: time.Now().Add(ttl)}
	return nil
}

// Get reads a value; returns "" with no error when the key is absent
// or expired.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if s.rdb != nil {
		v, err := s.rdb.Get(ctx, key).Result()
		if err == redis.Nil {
			return "", nil
		}
		return v, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.mem[key]
	if !ok {
		return "", nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.mem, key)
		return "", nil
	}
	return entry.value, nil
}

// Del removes keys, best-effort.
func (s *Store) Del(ctx context.Context, keys ...string) {
	if s.rdb != nil {
		_ = s.rdb.Del(ctx, keys...).Err()
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.mem, key)
	}
}
