package ratelimit_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"bakery/internal/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestLimiter_RejectsAfterMax(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := ratelimit.New(ratelimit.NewMemoryStore(), 3, time.Minute, ratelimit.WithClock(clock.Now))

	for i := 0; i < 3; i++ {
		d, err := l.Allow(ctx, "login:a@example.com")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 2-i, d.Remaining)
	}

	d, err := l.Allow(ctx, "login:a@example.com")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, time.Minute, d.RetryAfter)

	//別のkeyは独立
	d, err = l.Allow(ctx, "login:b@example.com")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestLimiter_WindowResets(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := ratelimit.New(ratelimit.NewMemoryStore(), 1, time.Minute, ratelimit.WithClock(clock.Now))

	d, _ := l.Allow(ctx, "k")
	assert.True(t, d.Allowed)
	d, _ = l.Allow(ctx, "k")
	assert.False(t, d.Allowed)

	clock.Advance(30 * time.Second)
	d, _ = l.Allow(ctx, "k")
	assert.False(t, d.Allowed)
	assert.Equal(t, 30*time.Second, d.RetryAfter)

	clock.Advance(30 * time.Second)
	d, _ = l.Allow(ctx, "k")
	assert.True(t, d.Allowed)
}

func TestMemoryStore_Sweep(t *testing.T) {
	ctx := context.Background()
	s := ratelimit.NewMemoryStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_, _, _ = s.Incr(ctx, "short", time.Second, now)
	_, _, _ = s.Incr(ctx, "long", time.Hour, now)

	n, err := s.Sweep(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, s.Len())
}

// 同時に呼ばれても上限を超えて許可しない
func TestLimiter_ConcurrentNeverExceedsMax(t *testing.T) {
	ctx := context.Background()
	l := ratelimit.New(ratelimit.NewMemoryStore(), 5, time.Hour)

	var allowed int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := l.Allow(ctx, "same-key")
			if err == nil && d.Allowed {
				atomic.AddInt64(&allowed, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(5), allowed)
}

func TestLimiter_RunStopsOnCancel(t *testing.T) {
	store := ratelimit.NewMemoryStore()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := ratelimit.New(store, 1, time.Millisecond, ratelimit.WithClock(clock.Now))

	_, err := l.Allow(context.Background(), "k")
	require.NoError(t, err)
	clock.Advance(time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx, 5*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
		close(done)
	}()

	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
