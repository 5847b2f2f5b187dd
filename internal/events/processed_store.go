package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ProcessedStore records completion signals that were already handled.
type ProcessedStore interface {
	// AlreadyProcessed checks if we've seen this provider event id.
	AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error)
	// MarkProcessed records the id, returning false if it already exists.
	MarkProcessed(ctx context.Context, provider, eventID string) (bool, error)
	// Forget removes a marker whose side effect did not happen.
	Forget(ctx context.Context, provider, eventID string) error
}

func processedKey(provider, eventID string) string {
	return fmt.Sprintf("processed:%s:%s", provider, eventID)
}

// MemoryProcessedStore keeps processed ids for the life of the process.
type MemoryProcessedStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryProcessedStore() *MemoryProcessedStore {
	return &MemoryProcessedStore{seen: make(map[string]struct{})}
}

func (s *MemoryProcessedStore) AlreadyProcessed(_ context.Context, provider, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[processedKey(provider, eventID)]
	return ok, nil
}

func (s *MemoryProcessedStore) MarkProcessed(_ context.Context, provider, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := processedKey(provider, eventID)
	if _, ok := s.seen[key]; ok {
		return false, nil
	}
	s.seen[key] = struct{}{}
	return true, nil
}

func (s *MemoryProcessedStore) Forget(_ context.Context, provider, eventID string) error {
	s.mu.Lock()
	delete(s.seen, processedKey(provider, eventID))
	s.mu.Unlock()
	return nil
}

// RedisProcessedStore uses SETNX so concurrent markers agree on a single winner.
type RedisProcessedStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisProcessedStore keeps markers for ttl; zero keeps them forever.
func NewRedisProcessedStore(client redis.Cmdable, ttl time.Duration) *RedisProcessedStore {
	if client == nil {
		panic("events: redis client required")
	}
	return &RedisProcessedStore{client: client, ttl: ttl}
}

func (s *RedisProcessedStore) AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	err := s.client.Get(ctx, processedKey(provider, eventID)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("events: check processed: %w", err)
	}
	return true, nil
}

func (s *RedisProcessedStore) MarkProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	ok, err := s.client.SetNX(ctx, processedKey(provider, eventID), time.Now().UTC().Format(time.RFC3339Nano), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("events: mark processed: %w", err)
	}
	return ok, nil
}

func (s *RedisProcessedStore) Forget(ctx context.Context, provider, eventID string) error {
	if err := s.client.Del(ctx, processedKey(provider, eventID)).Err(); err != nil {
		return fmt.Errorf("events: forget processed: %w", err)
	}
	return nil
}
