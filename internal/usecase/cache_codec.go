package usecase

import (
	"encoding/json"
	"time"

	"github.com/DRSN-tech/storefront-catalog/internal/domain"
	"github.com/DRSN-tech/storefront-catalog/pkg/e"
	"github.com/shopspring/decimal"
)

// Модели персистентного уровня кэша. Отделены от domain, чтобы формат в Redis
// не менялся вместе с доменными типами.

type cachedProduct struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
	Category      string           `json:"category"`
	Images        []string         `json:"images"`
	Rating        float64          `json:"rating"`
	ReviewsCount  int              `json:"reviews_count"`
	Badge         string           `json:"badge,omitempty"`
	BadgeColor    string           `json:"badge_color,omitempty"`
	InStock       bool             `json:"in_stock"`
}

type cachedPage struct {
	Products     []cachedProduct `json:"products"`
	Offset       int             `json:"offset"`
	NextOffset   int             `json:"next_offset"`
	PossiblyMore bool            `json:"possibly_more"`
}

type cachedEntry struct {
	Category  string          `json:"category"`
	SortBy    string          `json:"sort_by"`
	Products  []cachedProduct `json:"products"`
	Cursor    int             `json:"cursor"`
	HasMore   bool            `json:"has_more"`
	Ahead     *cachedPage     `json:"ahead,omitempty"`
	FetchedAt time.Time       `json:"fetched_at"`
}

func encodeEntry(entry *CacheEntry) (string, error) {
	const op = "cacheCodec.encodeEntry"

	ce := cachedEntry{
		Category:  entry.Filter.Category,
		SortBy:    string(entry.Filter.SortBy),
		Products:  toCachedProducts(entry.Products),
		Cursor:    entry.Cursor,
		HasMore:   entry.HasMore,
		FetchedAt: entry.FetchedAt.UTC(),
	}
	if entry.Ahead != nil {
		ce.Ahead = &cachedPage{
			Products:     toCachedProducts(entry.Ahead.Products),
			Offset:       entry.Ahead.Offset,
			NextOffset:   entry.Ahead.NextOffset,
			PossiblyMore: entry.Ahead.PossiblyMore,
		}
	}

	b, err := json.Marshal(ce)
	if err != nil {
		return "", e.Wrap(op, err)
	}

	return string(b), nil
}

// decodeEntry разбирает запись из Redis. Повреждённая запись — ErrCacheEntryCorrupted.
func decodeEntry(raw string) (*CacheEntry, error) {
	const op = "cacheCodec.decodeEntry"

	var ce cachedEntry
	if err := json.Unmarshal([]byte(raw), &ce); err != nil {
		return nil, e.Wrap(op, e.Wrap(err.Error(), e.ErrCacheEntryCorrupted))
	}
	if ce.FetchedAt.IsZero() || ce.Cursor < 0 {
		return nil, e.Wrap(op, e.ErrCacheEntryCorrupted)
	}

	products, err := fromCachedProducts(ce.Products)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	entry := &CacheEntry{
		Filter:    domain.FilterState{Category: ce.Category, SortBy: domain.SortBy(ce.SortBy)},
		Products:  products,
		Cursor:    ce.Cursor,
		HasMore:   ce.HasMore,
		FetchedAt: ce.FetchedAt,
	}

	if ce.Ahead != nil {
		ahead, err := fromCachedProducts(ce.Ahead.Products)
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		entry.Ahead = &Page{
			Products:     ahead,
			Offset:       ce.Ahead.Offset,
			NextOffset:   ce.Ahead.NextOffset,
			PossiblyMore: ce.Ahead.PossiblyMore,
		}
	}

	return entry, nil
}

func toCachedProducts(products []domain.Product) []cachedProduct {
	out := make([]cachedProduct, 0, len(products))
	for _, p := range products {
		out = append(out, cachedProduct{
			ID:            p.ID,
			Name:          p.Name,
			Price:         p.Price,
			OriginalPrice: p.OriginalPrice,
			Category:      p.Category,
			Images:        p.Images,
			Rating:        p.Rating,
			ReviewsCount:  p.ReviewsCount,
			Badge:         p.Badge,
			BadgeColor:    p.BadgeColor,
			InStock:       p.InStock,
		})
	}
	return out
}

// fromCachedProducts не пропускает товары без id или без изображений:
// такие записи могли появиться только из-за порчи данных.
func fromCachedProducts(cached []cachedProduct) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(cached))
	for _, c := range cached {
		if c.ID == "" || len(c.Images) == 0 {
			return nil, e.ErrCacheEntryCorrupted
		}
		out = append(out, domain.Product{
			ID:            c.ID,
			Name:          c.Name,
			Price:         c.Price,
			OriginalPrice: c.OriginalPrice,
			Category:      c.Category,
			Images:        c.Images,
			Rating:        c.Rating,
			ReviewsCount:  c.ReviewsCount,
			Badge:         c.Badge,
			BadgeColor:    c.BadgeColor,
			InStock:       c.InStock,
		})
	}
	return out, nil
}
