package usecase

import (
	"context"

	"github.com/DRSN-tech/storefront-catalog/internal/domain"
	"github.com/DRSN-tech/storefront-catalog/pkg/e"
	"github.com/DRSN-tech/storefront-catalog/pkg/logger"
)

// Fetcher загружает одну страницу выдачи.
type Fetcher interface {
	Fetch(ctx context.Context, filter domain.FilterState, offset, limit int) (*Page, error)
}

// CatalogFetcher строит запрос к коллекции, нормализует строки и отбрасывает
// товары без изображений.
type CatalogFetcher struct {
	repo      CatalogRepository
	images    ImagesInfra // nil — ключи хранилища не разрешаются
	maxImages int
	logger    logger.Logger
}

func NewCatalogFetcher(repo CatalogRepository, images ImagesInfra, maxImages int, logger logger.Logger) *CatalogFetcher {
	return &CatalogFetcher{
		repo:      repo,
		images:    images,
		maxImages: maxImages,
		logger:    logger,
	}
}

// OrderFor — таблица соответствия сортировки витрины и порядка в БД.
func OrderFor(sortBy domain.SortBy) []OrderTerm {
	switch sortBy {
	case domain.SortPriceLow:
		return []OrderTerm{{Column: OrderPrice}}
	case domain.SortPriceHigh:
		return []OrderTerm{{Column: OrderPrice, Desc: true}}
	case domain.SortRating:
		return []OrderTerm{{Column: OrderRating, Desc: true}, {Column: OrderReviewsCount, Desc: true}}
	default:
		return []OrderTerm{{Column: OrderCreatedAt, Desc: true}}
	}
}

// BuildCatalogQuery собирает запрос страницы. Предикаты наличия, удаления и
// изображений выставляются всегда.
func BuildCatalogQuery(filter domain.FilterState, offset, limit int) *CatalogQuery {
	q := &CatalogQuery{
		InStockOnly:    true,
		ExcludeDeleted: true,
		RequireImages:  true,
		Order:          OrderFor(filter.SortBy),
		Offset:         offset,
		Limit:          limit,
	}
	if !filter.AllCategories() {
		q.Category = filter.Category
	}
	return q
}

func (f *CatalogFetcher) Fetch(ctx context.Context, filter domain.FilterState, offset, limit int) (*Page, error) {
	const op = "CatalogFetcher.Fetch"

	rows, err := f.repo.QueryProducts(ctx, BuildCatalogQuery(filter, offset, limit))
	if err != nil {
		return nil, e.Transient(op, err)
	}

	normalized := make([][]string, len(rows))
	var refs []string
	for i, row := range rows {
		normalized[i] = domain.NormalizeImages(row.Images, 0)
		for _, ref := range normalized[i] {
			if domain.IsObjectKey(ref) {
				refs = append(refs, ref)
			}
		}
	}

	var resolved map[string]string
	if len(refs) > 0 && f.images != nil {
		resolved = f.images.ResolveImages(ctx, refs)
	}

	products := make([]domain.Product, 0, len(rows))
	for i, row := range rows {
		images := resolveRefs(normalized[i], resolved, f.maxImages)
		if len(images) == 0 {
			f.logger.Debugf("%s: product %s dropped, no usable images", op, row.ID)
			continue
		}
		products = append(products, toProduct(row, images))
	}

	return &Page{
		Products:     products,
		Offset:       offset,
		NextOffset:   offset + len(rows),
		PossiblyMore: limit > 0 && len(rows) == limit,
	}, nil
}

// resolveRefs заменяет ключи хранилища на URL; неразрешённые ключи отбрасываются.
func resolveRefs(refs []string, resolved map[string]string, max int) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if domain.IsObjectKey(ref) {
			url, ok := resolved[ref]
			if !ok {
				continue
			}
			ref = url
		}
		out = append(out, ref)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}

func toProduct(row ProductRow, images []string) domain.Product {
	p := domain.Product{
		ID:       row.ID,
		Name:     row.Name,
		Price:    row.Price,
		Category: row.Category,
		Images:   images,
		Rating:   domain.DefaultRating,
		InStock:  row.InStock,
	}

	if row.OriginalPrice.Valid && !row.OriginalPrice.Decimal.LessThan(row.Price) {
		orig := row.OriginalPrice.Decimal
		p.OriginalPrice = &orig
	}
	if row.Rating != nil && *row.Rating > 0 {
		p.Rating = min(*row.Rating, 5)
	}
	if row.ReviewsCount != nil && *row.ReviewsCount > 0 {
		p.ReviewsCount = *row.ReviewsCount
	}
	if row.Badge != nil {
		p.Badge = *row.Badge
		if row.BadgeColor != nil {
			p.BadgeColor = *row.BadgeColor
		}
	}

	return p
}
