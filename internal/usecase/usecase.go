package usecase

import (
	"context"

	"github.com/DRSN-tech/storefront-catalog/internal/domain"
)

// ProductsQuery — то, чем HTTP-слой управляет выдачей одной сессии.
type ProductsQuery interface {
	SetFilter(filter domain.FilterState)
	FetchMore()
	Retry()
	Snapshot() Snapshot
	Wait(ctx context.Context) Snapshot
}

type CatalogUC interface {
	Session(id string) (ProductsQuery, error)
	Featured(ctx context.Context) (*ShowcaseResult, error)
	Hero(ctx context.Context) (*ShowcaseResult, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	CacheStats() map[string]CacheStats
}

// ChangeHandler обрабатывает события изменения каталога.
type ChangeHandler interface {
	HandleProductChange(ctx context.Context, event ProductChangeEvent) error
}
