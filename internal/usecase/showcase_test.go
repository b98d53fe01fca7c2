package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront-catalog/internal/domain"
	"github.com/DRSN-tech/storefront-catalog/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestShowcase(fetcher Fetcher, clock *fakeClock, soft time.Duration) *Showcase {
	cache := NewCacheStore(nil, logger.Nop{}, CacheStoreOpts{TTL: time.Hour, MaxEntries: 1, Clock: clock.Now})
	return NewShowcase(fetcher, cache, logger.Nop{}, ShowcaseOpts{
		Name:           "featured",
		Filter:         domain.FilterState{Category: domain.CategoryAll, SortBy: domain.SortRating},
		Limit:          4,
		MaxImages:      domain.FeaturedMaxImages,
		SoftTimeout:    soft,
		RequestTimeout: time.Second,
	})
}

func multiImagePage(offset, limit, total int) *Page {
	page := makePage("f", offset, limit, total)
	for i := range page.Products {
		page.Products[i].Images = []string{"https://a/1.jpg", "https://a/2.jpg", "https://a/3.jpg"}
	}
	return page
}

func TestShowcase_FetchesOnceWhileFresh(t *testing.T) {
	fetcher := &fakeFetcher{fetchFn: func(_ context.Context, _ domain.FilterState, offset, limit int) (*Page, error) {
		return multiImagePage(offset, limit, 10), nil
	}}
	s := newTestShowcase(fetcher, newFakeClock(), time.Second)
	defer s.Close()

	res, err := s.Products(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Stale)
	require.Len(t, res.Products, 4)
	for _, p := range res.Products {
		assert.Len(t, p.Images, 1)
	}

	again, err := s.Products(context.Background())
	require.NoError(t, err)
	assert.Equal(t, productIDs(res.Products), productIDs(again.Products))
	assert.Equal(t, int64(1), fetcher.count.Load())

	calls := fetcher.callsSnapshot()
	assert.Equal(t, domain.SortRating, calls[0].filter.SortBy)
	assert.Equal(t, 4, calls[0].limit)
}

func TestShowcase_ServesStaleOnFailure(t *testing.T) {
	var fail atomic.Bool
	fetcher := &fakeFetcher{fetchFn: func(_ context.Context, _ domain.FilterState, offset, limit int) (*Page, error) {
		if fail.Load() {
			return nil, errBackend
		}
		return makePage("f", offset, limit, 10), nil
	}}
	clock := newFakeClock()
	s := newTestShowcase(fetcher, clock, time.Second)
	defer s.Close()

	_, err := s.Products(context.Background())
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	fail.Store(true)

	res, err := s.Products(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Stale)
	assert.Len(t, res.Products, 4)
	assert.Equal(t, int64(2), fetcher.count.Load())
}

func TestShowcase_FailureWithoutCache(t *testing.T) {
	fetcher := &fakeFetcher{fetchFn: func(context.Context, domain.FilterState, int, int) (*Page, error) {
		return nil, errBackend
	}}
	s := newTestShowcase(fetcher, newFakeClock(), time.Second)
	defer s.Close()

	_, err := s.Products(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errBackend))
}

func TestShowcase_SoftTimeoutServesStale(t *testing.T) {
	release := make(chan struct{})
	var block atomic.Bool
	fetcher := &fakeFetcher{fetchFn: func(_ context.Context, _ domain.FilterState, offset, limit int) (*Page, error) {
		if block.Load() {
			<-release
		}
		return makePage("f", offset, limit, 10), nil
	}}
	clock := newFakeClock()
	s := newTestShowcase(fetcher, clock, 20*time.Millisecond)

	_, err := s.Products(context.Background())
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	block.Store(true)

	res, err := s.Products(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Stale)
	assert.Len(t, res.Products, 4)

	close(release)
	s.Close()
}

func TestShowcase_Invalidate(t *testing.T) {
	fetcher := &fakeFetcher{fetchFn: func(_ context.Context, _ domain.FilterState, offset, limit int) (*Page, error) {
		return makePage("f", offset, limit, 10), nil
	}}
	s := newTestShowcase(fetcher, newFakeClock(), time.Second)
	defer s.Close()

	_, err := s.Products(context.Background())
	require.NoError(t, err)

	s.Invalidate(context.Background())
	_, ok := s.cache.Peek(s.opts.Filter)
	assert.False(t, ok)

	_, err = s.Products(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), fetcher.count.Load())
}

func TestShowcase_NoFetchAfterClose(t *testing.T) {
	fetcher := &fakeFetcher{fetchFn: func(_ context.Context, _ domain.FilterState, offset, limit int) (*Page, error) {
		return makePage("f", offset, limit, 10), nil
	}}
	s := newTestShowcase(fetcher, newFakeClock(), time.Second)
	s.Close()

	_, err := s.Products(context.Background())
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(0), fetcher.count.Load())
}

func TestShowcase_CloseDuringConcurrentRequests(t *testing.T) {
	fetcher := &fakeFetcher{fetchFn: func(ctx context.Context, _ domain.FilterState, offset, limit int) (*Page, error) {
		select {
		case <-time.After(time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return makePage("f", offset, limit, 10), nil
	}}
	s := newTestShowcase(fetcher, newFakeClock(), time.Second)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Products(context.Background())
		}()
	}
	s.Close()
	wg.Wait()

	// после Close фоновых загрузок нет, повторный Close не блокируется
	s.Close()
	_, err := s.Products(context.Background())
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}
