package domain

import (
	"strings"

	"github.com/DRSN-tech/storefront-catalog/pkg/e"
)

// SortBy — порядок сортировки витрины.
type SortBy string

const (
	SortNewest    SortBy = "newest"
	SortPriceLow  SortBy = "price_low"
	SortPriceHigh SortBy = "price_high"
	SortRating    SortBy = "rating"
)

// ParseSortBy принимает значение из query string. "relevance", "name" и пустая
// строка означают сортировку по новизне.
func ParseSortBy(value string) (SortBy, error) {
	switch s := SortBy(strings.TrimSpace(value)); s {
	case "", "relevance", "name", SortNewest:
		return SortNewest, nil
	case SortPriceLow, SortPriceHigh, SortRating:
		return s, nil
	default:
		return "", e.ErrUnknownSort
	}
}

// FilterState — пара (категория, сортировка). Единственное, что определяет ключ кэша.
type FilterState struct {
	Category string
	SortBy   SortBy
}

// ParseFilter валидирует и нормализует параметры фильтра.
func ParseFilter(category, sortBy string) (FilterState, error) {
	c, err := ParseCategory(category)
	if err != nil {
		return FilterState{}, err
	}

	s, err := ParseSortBy(sortBy)
	if err != nil {
		return FilterState{}, err
	}

	return FilterState{Category: c, SortBy: s}, nil
}

// DefaultFilter — все категории, новые сверху.
func DefaultFilter() FilterState {
	return FilterState{Category: CategoryAll, SortBy: SortNewest}
}

// Key возвращает ключ кэша вида "<category>-<sort>".
func (f FilterState) Key() string {
	c := f.Category
	if c == "" {
		c = CategoryAll
	}
	s := f.SortBy
	if s == "" {
		s = SortNewest
	}
	return c + "-" + string(s)
}

// AllCategories сообщает, что фильтр не ограничивает категорию.
func (f FilterState) AllCategories() bool {
	return f.Category == "" || f.Category == CategoryAll
}
