package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront-catalog/internal/domain"
	"github.com/DRSN-tech/storefront-catalog/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(kv KeyValueStore, clock *fakeClock, maxEntries int) *CacheStore {
	return NewCacheStore(kv, logger.Nop{}, CacheStoreOpts{
		TTL:        5 * time.Minute,
		MaxEntries: maxEntries,
		Clock:      clock.Now,
	})
}

func phonesNewest() domain.FilterState {
	return domain.FilterState{Category: "phones", SortBy: domain.SortNewest}
}

func TestCacheStore_PutGet(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	kv := newFakeKV()
	cache := newTestCache(kv, clock, 10)
	f := phonesNewest()

	_, ok := cache.Get(ctx, f)
	assert.False(t, ok)

	cache.Put(ctx, f, CacheEntry{Products: []domain.Product{testProduct("a")}, Cursor: 1, HasMore: true})

	entry, ok := cache.Get(ctx, f)
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, productIDs(entry.Products))
	assert.Equal(t, 1, entry.Cursor)
	assert.True(t, entry.HasMore)
	assert.Equal(t, f, entry.Filter)
	assert.Equal(t, clock.Now(), entry.FetchedAt)
	assert.True(t, kv.has(DefaultCacheKeyPrefix+"phones-newest"))

	stats := cache.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 1, stats.Entries)
}

func TestCacheStore_ExpiredEntryIsMissButPeekable(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	cache := newTestCache(newFakeKV(), clock, 10)
	f := phonesNewest()

	cache.Put(ctx, f, CacheEntry{Products: []domain.Product{testProduct("a")}, Cursor: 1})
	clock.Advance(5 * time.Minute)

	_, ok := cache.Get(ctx, f)
	assert.False(t, ok)

	stale, ok := cache.Peek(f)
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, productIDs(stale.Products))
}

func TestCacheStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(nil, newFakeClock(), 10)
	f := phonesNewest()

	cache.Put(ctx, f, CacheEntry{Products: []domain.Product{testProduct("a")}})

	entry, ok := cache.Get(ctx, f)
	require.True(t, ok)
	entry.Products[0].ID = "mutated"

	again, ok := cache.Peek(f)
	require.True(t, ok)
	assert.Equal(t, "a", again.Products[0].ID)
}

func TestCacheStore_PromotesPersistedEntry(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	kv := newFakeKV()
	f := phonesNewest()

	writer := newTestCache(kv, clock, 10)
	writer.Put(ctx, f, CacheEntry{
		Products: []domain.Product{testProduct("a"), testProduct("b")},
		Cursor:   2,
		HasMore:  true,
		Ahead:    makePage("p", 2, 2, 10),
	})

	reader := newTestCache(kv, clock, 10)
	_, ok := reader.Peek(f)
	assert.False(t, ok)

	entry, ok := reader.Get(ctx, f)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, productIDs(entry.Products))
	assert.Equal(t, 2, entry.Cursor)
	require.NotNil(t, entry.Ahead)
	assert.Equal(t, 2, entry.Ahead.Offset)
	assert.Equal(t, 1, entry.UsageCount)

	_, ok = reader.Peek(f)
	assert.True(t, ok)
	assert.Equal(t, uint64(1), reader.Stats().PersistedHits)
}

func TestCacheStore_ExpiredPersistedEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	kv := newFakeKV()
	f := phonesNewest()

	newTestCache(kv, clock, 10).Put(ctx, f, CacheEntry{Products: []domain.Product{testProduct("a")}})
	clock.Advance(10 * time.Minute)

	_, ok := newTestCache(kv, clock, 10).Get(ctx, f)
	assert.False(t, ok)
}

func TestCacheStore_CorruptedPersistedEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	kv.items[DefaultCacheKeyPrefix+"phones-newest"] = "{not json"

	cache := newTestCache(kv, newFakeClock(), 10)
	_, ok := cache.Get(ctx, phonesNewest())
	assert.False(t, ok)
	assert.Equal(t, uint64(1), cache.Stats().StorageFailures)
}

func TestCacheStore_StorageFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	kv.err = errBackend
	cache := newTestCache(kv, newFakeClock(), 10)
	f := phonesNewest()

	_, ok := cache.Get(ctx, f)
	assert.False(t, ok)

	cache.Put(ctx, f, CacheEntry{Products: []domain.Product{testProduct("a")}})
	entry, ok := cache.Get(ctx, f)
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, productIDs(entry.Products))

	cache.Invalidate(ctx, f)
	_, ok = cache.Peek(f)
	assert.False(t, ok)

	assert.Equal(t, uint64(3), cache.Stats().StorageFailures)
}

func TestCacheStore_PruneKeepsMostUsedAndLatest(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(nil, newFakeClock(), 2)

	hot := domain.FilterState{Category: "phones", SortBy: domain.SortNewest}
	cold := domain.FilterState{Category: "laptops", SortBy: domain.SortNewest}
	latest := domain.FilterState{Category: "tablets", SortBy: domain.SortNewest}

	cache.Put(ctx, hot, CacheEntry{Products: []domain.Product{testProduct("h")}})
	cache.Put(ctx, cold, CacheEntry{Products: []domain.Product{testProduct("c")}})
	for range 3 {
		_, ok := cache.Get(ctx, hot)
		require.True(t, ok)
	}

	cache.Put(ctx, latest, CacheEntry{Products: []domain.Product{testProduct("l")}})

	_, ok := cache.Peek(hot)
	assert.True(t, ok)
	_, ok = cache.Peek(latest)
	assert.True(t, ok)
	_, ok = cache.Peek(cold)
	assert.False(t, ok)

	stats := cache.Stats()
	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, uint64(1), stats.Evictions)
	assert.Equal(t, 0, cache.Prune())
}

func TestCacheStore_Merge(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	kv := newFakeKV()
	cache := newTestCache(kv, clock, 10)
	f := phonesNewest()

	assert.False(t, cache.Merge(ctx, f, []domain.Product{testProduct("x")}, 5, true))

	cache.Put(ctx, f, CacheEntry{Products: []domain.Product{testProduct("a"), testProduct("b")}, Cursor: 2, HasMore: true})

	assert.False(t, cache.Merge(ctx, f, []domain.Product{testProduct("c")}, 2, true))

	clock.Advance(time.Minute)
	ok := cache.Merge(ctx, f, []domain.Product{testProduct("b"), testProduct("c")}, 4, false)
	require.True(t, ok)

	entry, ok := cache.Get(ctx, f)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, productIDs(entry.Products))
	assert.Equal(t, 4, entry.Cursor)
	assert.False(t, entry.HasMore)
	assert.Equal(t, clock.Now(), entry.FetchedAt)

	persisted, err := decodeEntry(kv.items[DefaultCacheKeyPrefix+f.Key()])
	require.NoError(t, err)
	assert.Equal(t, 4, persisted.Cursor)
	assert.Len(t, persisted.Products, 3)
}

func TestCacheStore_StashAhead(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(nil, newFakeClock(), 10)
	f := phonesNewest()

	cache.Put(ctx, f, CacheEntry{Products: []domain.Product{testProduct("a")}, Cursor: 1, HasMore: true})

	assert.False(t, cache.StashAhead(ctx, f, nil))
	assert.False(t, cache.StashAhead(ctx, f, makePage("p", 3, 2, 10)))
	assert.True(t, cache.StashAhead(ctx, f, makePage("p", 1, 2, 10)))

	entry, ok := cache.Peek(f)
	require.True(t, ok)
	require.NotNil(t, entry.Ahead)
	assert.Equal(t, []string{"p-1", "p-2"}, productIDs(entry.Ahead.Products))
	assert.Equal(t, []string{"a"}, productIDs(entry.Products))

	// догрузка за пределы предзагруженной страницы её сбрасывает
	require.True(t, cache.Merge(ctx, f, entry.Ahead.Products, 3, true))
	entry, _ = cache.Peek(f)
	assert.Nil(t, entry.Ahead)
}

func TestCacheStore_InvalidateCategoryAndClear(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	cache := newTestCache(kv, newFakeClock(), 20)

	phonesPrice := domain.FilterState{Category: "phones", SortBy: domain.SortPriceLow}
	laptops := domain.FilterState{Category: "laptops", SortBy: domain.SortRating}
	all := domain.DefaultFilter()

	for _, f := range []domain.FilterState{phonesNewest(), phonesPrice, laptops, all} {
		cache.Put(ctx, f, CacheEntry{Products: []domain.Product{testProduct(f.Key())}})
	}

	cache.InvalidateCategory(ctx, "phones")

	_, ok := cache.Peek(phonesNewest())
	assert.False(t, ok)
	_, ok = cache.Peek(phonesPrice)
	assert.False(t, ok)
	assert.False(t, kv.has(DefaultCacheKeyPrefix+"phones-price_low"))
	_, ok = cache.Peek(laptops)
	assert.True(t, ok)

	cache.Clear(ctx)
	assert.Equal(t, 0, cache.Stats().Entries)
	assert.False(t, kv.has(DefaultCacheKeyPrefix+"laptops-rating"))
	assert.False(t, kv.has(DefaultCacheKeyPrefix+"all-newest"))
}
