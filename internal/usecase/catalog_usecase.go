package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/DRSN-tech/storefront-catalog/internal/domain"
	"github.com/DRSN-tech/storefront-catalog/pkg/e"
	"github.com/DRSN-tech/storefront-catalog/pkg/logger"
)

// CatalogUseCase связывает сессии выдачи, витринные блоки и счётчики категорий.
type CatalogUseCase struct {
	sessions     *SessionRegistry
	gridCache    *CacheStore
	featured     *Showcase
	hero         *Showcase
	categoryRepo CategoryRepository
	logger       logger.Logger

	countsTTL time.Duration
	now       Clock
	countsMu  sync.Mutex
	counts    map[string]int64
	countedAt time.Time
}

func NewCatalogUC(
	sessions *SessionRegistry,
	gridCache *CacheStore,
	featured *Showcase,
	hero *Showcase,
	categoryRepo CategoryRepository,
	logger logger.Logger,
) *CatalogUseCase {
	return &CatalogUseCase{
		sessions:     sessions,
		gridCache:    gridCache,
		featured:     featured,
		hero:         hero,
		categoryRepo: categoryRepo,
		logger:       logger,
		countsTTL:    gridCache.TTL(),
		now:          time.Now,
	}
}

func (c *CatalogUseCase) Session(id string) (ProductsQuery, error) {
	ctrl, err := c.sessions.Acquire(id)
	if err != nil {
		return nil, err
	}
	return ctrl, nil
}

func (c *CatalogUseCase) Featured(ctx context.Context) (*ShowcaseResult, error) {
	return c.featured.Products(ctx)
}

func (c *CatalogUseCase) Hero(ctx context.Context) (*ShowcaseResult, error) {
	return c.hero.Products(ctx)
}

// Categories возвращает перечень категорий с кол-вом видимых товаров.
// Если БД недоступна, отдаются последние известные счётчики (или нули).
func (c *CatalogUseCase) Categories(ctx context.Context) ([]domain.Category, error) {
	const op = "CatalogUseCase.Categories"

	counts, err := c.categoryCounts(ctx)
	if err != nil {
		c.logger.Warnf("%s: %v", op, err)
	}

	categories := domain.Categories()
	for i := range categories {
		categories[i].Count = counts[categories[i].Value]
	}
	return categories, nil
}

func (c *CatalogUseCase) categoryCounts(ctx context.Context) (map[string]int64, error) {
	const op = "CatalogUseCase.categoryCounts"

	c.countsMu.Lock()
	defer c.countsMu.Unlock()

	if c.counts != nil && c.now().Sub(c.countedAt) < c.countsTTL {
		return c.counts, nil
	}

	counts, err := c.categoryRepo.CountVisible(ctx)
	if err != nil {
		return c.counts, e.Transient(op, err)
	}

	c.counts = counts
	c.countedAt = c.now()
	return counts, nil
}

// HandleProductChange сбрасывает кэш категории товара, общий список и витринные блоки.
func (c *CatalogUseCase) HandleProductChange(ctx context.Context, event ProductChangeEvent) error {
	const op = "CatalogUseCase.HandleProductChange"

	if event.Category != "" {
		if _, err := domain.ParseCategory(event.Category); err != nil {
			c.logger.Warnf("%s: event %s: %v", op, event.EventID, err)
		} else {
			c.gridCache.InvalidateCategory(ctx, event.Category)
		}
	}
	c.gridCache.InvalidateCategory(ctx, domain.CategoryAll)
	c.featured.Invalidate(ctx)
	c.hero.Invalidate(ctx)

	c.countsMu.Lock()
	c.counts = nil
	c.countsMu.Unlock()

	c.logger.Debugf("%s: product %s %s, category %q invalidated", op, event.ProductID, event.Operation, event.Category)
	return nil
}

func (c *CatalogUseCase) CacheStats() map[string]CacheStats {
	return map[string]CacheStats{
		"grid":     c.gridCache.Stats(),
		"featured": c.featured.cache.Stats(),
		"hero":     c.hero.cache.Stats(),
	}
}

// Close закрывает все сессии и ждёт фоновые загрузки витрин.
func (c *CatalogUseCase) Close() {
	c.sessions.Close()
	c.featured.Close()
	c.hero.Close()
}
