package captcha

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store holds one pending challenge code per session. Setting a new
// code overwrites the previous one; Del is called when a challenge is
// consumed.
type Store interface {
	Set(ctx context.Context, sessionID, code string, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (string, error)
	Del(ctx context.Context, sessionID string) error
}

// ErrNotFound is returned when no challenge exists for a session.
var ErrNotFound = redis.Nil

type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) key(sessionID string) string {
	return "captcha:" + sessionID
}

func (s *RedisStore) Set(ctx context.Context, sessionID, code string, ttl time.Duration) error {
	return s.rdb.Set(ctx, s.key(sessionID), code, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (string, error) {
	return s.rdb.Get(ctx, s.key(sessionID)).Result()
}

func (s *RedisStore) Del(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, s.key(sessionID)).Err()
}

// MemoryStore backs the captcha service when no Redis address is
// configured (local development) and in tests.
type MemoryStore struct {
	mu    sync.Mutex
	codes map[string]memoryEntry
}

type memoryEntry struct {
	code      string
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{codes: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Set(ctx context.Context, sessionID, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[sessionID] = memoryEntry{code: code, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.codes[sessionID]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(s.codes, sessionID)
		return "", ErrNotFound
	}
	return entry.code, nil
}

func (s *MemoryStore) Del(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, sessionID)
	return nil
}
