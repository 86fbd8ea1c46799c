package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestKeyOf(t *testing.T) {
	assert.Equal(t, Key("shop|list|0|10"), ShopsKey(0, 10))
	assert.Equal(t, Key("shop|3"), ShopKey(3))
	assert.Equal(t, Key("shop|3|titles"), TitlesKey(3))
	assert.Equal(t, Key("shop|3|entries|2024"), EntriesKey(3, 2024))
}

func TestGetCachesResult(t *testing.T) {
	cache := NewCache()
	var calls atomic.Int64

	fetch := func(ctx context.Context) ([]string, error) {
		calls.Add(1)
		return []string{"a", "b"}, nil
	}

	first, err := Get(context.Background(), cache, ShopsKey(0, 10), fetch)
	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, first)

	second, err := Get(context.Background(), cache, ShopsKey(0, 10), fetch)
	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, second)

	assert.Equal(t, int64(1), calls.Load())
}

func TestGetDeduplicatesConcurrentFetches(t *testing.T) {
	cache := NewCache()
	var calls atomic.Int64
	release := make(chan struct{})

	fetch := func(ctx context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	const waiters = 8
	var wg sync.WaitGroup
	results := make([]int, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := Get(context.Background(), cache, ShopKey(1), fetch)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, 42, v)
	}
}

func TestGetErrorIsNotCached(t *testing.T) {
	cache := NewCache()
	var calls atomic.Int64

	_, err := Get(context.Background(), cache, ShopKey(1), func(ctx context.Context) (int, error) {
		calls.Add(1)
		return 0, errors.New("boom")
	})
	assert.Error(t, err)

	v, err := Get(context.Background(), cache, ShopKey(1), func(ctx context.Context) (int, error) {
		calls.Add(1)
		return 7, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, int64(2), calls.Load())
}

func TestGetCancelledCallerDoesNotApplyResult(t *testing.T) {
	cache := NewCache()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Get(ctx, cache, ShopKey(1), func(ctx context.Context) (int, error) {
		return 42, nil
	})
	assert.IsError(t, err, context.Canceled)
}

func TestInvalidateIsNarrow(t *testing.T) {
	cache := NewCache()
	background := context.Background()

	put := func(key Key, v int) {
		_, err := Get(background, cache, key, func(ctx context.Context) (int, error) { return v, nil })
		assert.NoError(t, err)
	}

	put(ShopKey(3), 3)
	put(ShopKey(4), 4)
	put(TitlesKey(3), 30)
	put(EntriesKey(3, 2024), 300)
	put(EntriesKey(3, 2023), 301)
	put(ShopsKey(0, 10), 1000)

	// A mutation on shop 3 must leave shop 4 and the list page for other
	// offsets untouched.
	cache.Invalidate(ShopKey(3))

	_, ok := Peek[int](cache, ShopKey(3))
	assert.False(t, ok)
	_, ok = Peek[int](cache, TitlesKey(3))
	assert.False(t, ok)
	_, ok = Peek[int](cache, EntriesKey(3, 2024))
	assert.False(t, ok)

	v, ok := Peek[int](cache, ShopKey(4))
	assert.True(t, ok)
	assert.Equal(t, 4, v)
	v, ok = Peek[int](cache, ShopsKey(0, 10))
	assert.True(t, ok)
	assert.Equal(t, 1000, v)
}

func TestInvalidateEntriesByYear(t *testing.T) {
	cache := NewCache()
	background := context.Background()

	for _, year := range []int{2023, 2024} {
		year := year
		_, err := Get(background, cache, EntriesKey(5, year), func(ctx context.Context) (int, error) { return year, nil })
		assert.NoError(t, err)
	}

	cache.Invalidate(EntriesKey(5, 2024))

	_, ok := Peek[int](cache, EntriesKey(5, 2024))
	assert.False(t, ok)
	v, ok := Peek[int](cache, EntriesKey(5, 2023))
	assert.True(t, ok)
	assert.Equal(t, 2023, v)
}

func TestClear(t *testing.T) {
	cache := NewCache()
	_, err := Get(context.Background(), cache, ShopKey(1), func(ctx context.Context) (int, error) { return 1, nil })
	assert.NoError(t, err)
	assert.Equal(t, 1, cache.Len())

	cache.Clear()
	assert.Equal(t, 0, cache.Len())
}
