package usecase

import (
	"context"

	"github.com/DRSN-tech/storefront-catalog/internal/domain"
)

// CatalogRepository — коллекция товаров.
type CatalogRepository interface {
	QueryProducts(ctx context.Context, q *CatalogQuery) ([]ProductRow, error)
}

type CategoryRepository interface {
	// CountVisible возвращает кол-во видимых на витрине товаров по категориям.
	CountVisible(ctx context.Context) (map[string]int64, error)
}

// ProductWriter — запись в коллекцию, нужна только seed-утилите.
type ProductWriter interface {
	Upsert(ctx context.Context, req *UpsertProductReq) (*UpsertProductRes, error)
	SoftDelete(ctx context.Context, ids []string) ([]DeletedProduct, error)
}

// KeyValueStore — персистентный уровень кэша. Все методы могут вернуть ошибку;
// отсутствие ключа — ("", false, nil).
type KeyValueStore interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, keys ...string) error
}

type ImageRepository interface {
	Upload(ctx context.Context, image *domain.Image) (string, error)
	Delete(ctx context.Context, key string) error
	PresignedURL(ctx context.Context, key string) (string, error)
}
