package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

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

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)}
	store := NewInMemoryIdempotencyStore(WithClock(clock.Now))
	defer store.Close()

	ctx := context.Background()

	t.Run("first request wins", func(t *testing.T) {
		ok, err := store.MarkProcessed(ctx, "req-1", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("repeat request refused", func(t *testing.T) {
		ok, err := store.MarkProcessed(ctx, "req-1", time.Hour)
		require.NoError(t, err)
		assert.False(t, ok)

		seen, err := store.IsProcessed(ctx, "req-1")
		require.NoError(t, err)
		assert.True(t, seen)
	})

	t.Run("key is accepted again after expiry", func(t *testing.T) {
		clock.Advance(time.Hour)

		seen, err := store.IsProcessed(ctx, "req-1")
		require.NoError(t, err)
		assert.False(t, seen)

		ok, err := store.MarkProcessed(ctx, "req-1", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("unknown key not processed", func(t *testing.T) {
		seen, err := store.IsProcessed(ctx, "never")
		require.NoError(t, err)
		assert.False(t, seen)
	})
}

func TestInMemoryIdempotencyStore_Cleanup(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	store := NewInMemoryIdempotencyStore(WithClock(clock.Now))
	defer store.Close()

	ctx := context.Background()
	_, _ = store.MarkProcessed(ctx, "short", time.Minute)
	_, _ = store.MarkProcessed(ctx, "long", time.Hour)
	require.Equal(t, 2, store.Size())

	clock.Advance(2 * time.Minute)
	store.cleanup()

	assert.Equal(t, 1, store.Size())
	seen, _ := store.IsProcessed(ctx, "long")
	assert.True(t, seen)
}

func TestInMemoryIdempotencyStore_ConcurrentSingleWinner(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.MarkProcessed(context.Background(), "same-key", time.Hour)
			if err == nil && ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestInMemoryIdempotencyStore_CloseTwice(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
