package ratelimit

import (
	"context"
	"sync"
	"time"
)

type counter struct {
	count     int
	expiresAt time.Time
}

// 単一プロセス用（インスタンス間では共有されない）
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]counter
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counters: make(map[string]counter)}
}

func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration, now time.Time) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[key]
	if !ok || !now.Before(c.expiresAt) {
		c = counter{expiresAt: now.Add(window)}
	}
	c.count++
	s.counters[key] = c
	return c.count, c.expiresAt, nil
}

func (s *MemoryStore) Sweep(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, c := range s.counters {
		if !now.Before(c.expiresAt) {
			delete(s.counters, k)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.counters)
}
