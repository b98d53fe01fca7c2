package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/DRSN-tech/storefront-catalog/internal/domain"
	"github.com/DRSN-tech/storefront-catalog/pkg/e"
	"github.com/DRSN-tech/storefront-catalog/pkg/logger"
	"golang.org/x/sync/singleflight"
)

type ShowcaseOpts struct {
	Name           string // featured | hero, попадает в логи
	Filter         domain.FilterState
	Limit          int
	MaxImages      int
	SoftTimeout    time.Duration
	RequestTimeout time.Duration
}

// Showcase — небольшой витринный блок (featured, hero) со своим кэшем.
// Свежий кэш отдаётся сразу; иначе идёт загрузка, и если она не уложилась в
// мягкий таймаут или упала, отдаются закэшированные данные любой давности.
type Showcase struct {
	fetcher Fetcher
	cache   *CacheStore
	logger  logger.Logger
	opts    ShowcaseOpts

	group  singleflight.Group
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
	ctx    context.Context
	stop   context.CancelFunc
}

func NewShowcase(fetcher Fetcher, cache *CacheStore, logger logger.Logger, opts ShowcaseOpts) *Showcase {
	const (
		defaultSoftTimeout    = 3 * time.Second
		defaultRequestTimeout = 10 * time.Second
	)

	if opts.SoftTimeout <= 0 {
		opts.SoftTimeout = defaultSoftTimeout
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}

	ctx, stop := context.WithCancel(context.Background())

	return &Showcase{
		fetcher: fetcher,
		cache:   cache,
		logger:  logger,
		opts:    opts,
		ctx:     ctx,
		stop:    stop,
	}
}

func (s *Showcase) Products(ctx context.Context) (*ShowcaseResult, error) {
	op := "Showcase." + s.opts.Name

	if entry, ok := s.cache.Get(ctx, s.opts.Filter); ok {
		return s.result(entry, false), nil
	}

	// Загрузка общая для всех ждущих и не зависит от отмены конкретного запроса.
	ch := s.group.DoChan(s.opts.Filter.Key(), func() (any, error) {
		return s.refresh()
	})

	soft := time.NewTimer(s.opts.SoftTimeout)
	defer soft.Stop()

	for {
		select {
		case res := <-ch:
			if res.Err != nil {
				if entry, ok := s.cache.Peek(s.opts.Filter); ok {
					s.logger.Warnf("%s: fetch failed, serving cached: %v", op, res.Err)
					return s.result(entry, true), nil
				}
				return nil, e.Wrap(op, res.Err)
			}
			return res.Val.(*ShowcaseResult), nil

		case <-soft.C:
			if entry, ok := s.cache.Peek(s.opts.Filter); ok {
				s.logger.Debugf("%s: soft timeout, serving cached", op)
				return s.result(entry, true), nil
			}

		case <-ctx.Done():
			if entry, ok := s.cache.Peek(s.opts.Filter); ok {
				return s.result(entry, true), nil
			}
			return nil, e.Wrap(op, ctx.Err())
		}
	}
}

// Invalidate сбрасывает кэш блока.
func (s *Showcase) Invalidate(ctx context.Context) {
	s.cache.Clear(ctx)
}

// Close отменяет фоновые загрузки и ждёт их завершения.
func (s *Showcase) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.stop()
	s.wg.Wait()
}

func (s *Showcase) refresh() (*ShowcaseResult, error) {
	// после Close новые загрузки не стартуют: wg.Add только под mu до closed
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, context.Canceled
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(s.ctx, s.opts.RequestTimeout)
	defer cancel()

	page, err := s.fetcher.Fetch(ctx, s.opts.Filter, 0, s.opts.Limit)
	if err != nil {
		return nil, err
	}

	entry := CacheEntry{
		Filter:   s.opts.Filter,
		Products: page.Products,
		Cursor:   page.NextOffset,
	}
	s.cache.Put(ctx, s.opts.Filter, entry)

	stored, ok := s.cache.Peek(s.opts.Filter)
	if !ok {
		stored = entry
		stored.FetchedAt = time.Now()
	}
	return s.result(stored, false), nil
}

func (s *Showcase) result(entry CacheEntry, stale bool) *ShowcaseResult {
	products := make([]domain.Product, 0, len(entry.Products))
	for _, p := range entry.Products {
		products = append(products, p.WithImageLimit(s.opts.MaxImages))
		if s.opts.Limit > 0 && len(products) == s.opts.Limit {
			break
		}
	}

	return &ShowcaseResult{
		Products:  products,
		Stale:     stale,
		FetchedAt: entry.FetchedAt,
	}
}
