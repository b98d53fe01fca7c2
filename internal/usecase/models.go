package usecase

import (
	"time"

	"github.com/DRSN-tech/storefront-catalog/internal/domain"
	"github.com/shopspring/decimal"
)

// REPOSITORIES

// OrderColumn — колонка, по которой бэкенд сортирует выдачу.
type OrderColumn string

const (
	OrderCreatedAt    OrderColumn = "created_at"
	OrderPrice        OrderColumn = "price"
	OrderRating       OrderColumn = "rating"
	OrderReviewsCount OrderColumn = "reviews_count"
)

type OrderTerm struct {
	Column OrderColumn
	Desc   bool
}

// CatalogQuery — запрос к коллекции товаров. Предикаты наличия, удаления и
// изображений выполняются на стороне БД.
type CatalogQuery struct {
	Category       string // пусто — все категории
	InStockOnly    bool
	ExcludeDeleted bool
	RequireImages  bool
	Order          []OrderTerm
	Offset         int
	Limit          int
}

// ProductRow — строка коллекции в сыром виде, до нормализации.
type ProductRow struct {
	ID            string
	Name          string
	Price         decimal.Decimal
	OriginalPrice decimal.NullDecimal
	Category      string
	Images        domain.ImageField
	Rating        *float64
	ReviewsCount  *int
	Badge         *string
	BadgeColor    *string
	InStock       bool
}

// UpsertProductReq — товар из фикстуры seed-утилиты.
type UpsertProductReq struct {
	ID            string
	Name          string
	Price         decimal.Decimal
	OriginalPrice *decimal.Decimal
	Category      string
	ImageURLs     []string
	Rating        *float64
	ReviewsCount  *int
	Badge         *string
	BadgeColor    *string
	InStock       bool
}

// UpsertProductRes — результат upsert'а одной строки.
type UpsertProductRes struct {
	ID       string
	Category string
	Inserted bool
}

// DeletedProduct — мягко удалённый товар.
type DeletedProduct struct {
	ID       string
	Category string
}

// FETCHER

// Page — одна страница выдачи.
// NextOffset и PossiblyMore считаются по кол-ву строк бэкенда до отбрасывания товаров без изображений.
type Page struct {
	Products     []domain.Product
	Offset       int
	NextOffset   int
	PossiblyMore bool
}

func (p *Page) clone() *Page {
	if p == nil {
		return nil
	}
	c := *p
	c.Products = append([]domain.Product(nil), p.Products...)
	return &c
}

// EVENTS

// ProductOperation — тип изменения товара.
type ProductOperation string

const (
	OperationUpsert ProductOperation = "upsert"
	OperationDelete ProductOperation = "delete"
)

// ProductChangeEvent — сообщение об изменении каталога.
type ProductChangeEvent struct {
	EventID    string           `json:"event_id"`
	ProductID  string           `json:"product_id"`
	Category   string           `json:"category"`
	Operation  ProductOperation `json:"operation"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// SHOWCASE

// ShowcaseResult — выдача витринного блока (featured, hero).
type ShowcaseResult struct {
	Products  []domain.Product
	Stale     bool
	FetchedAt time.Time
}

// SEED

// UploadImagesReq — запрос на загрузку изображений товара.
type UploadImagesReq struct {
	ProductID string
	Images    []ProductImage
}

// ProductImage — файл изображения товара.
type ProductImage struct {
	Data     []byte
	MimeType string
	Name     string // имя файла (для ключа и логов)
}

// UploadImagesRes — ключи загруженных объектов в MinIO.
type UploadImagesRes struct {
	ImagesKeys []string
}

func NewUploadImagesRes(keys []string) *UploadImagesRes {
	return &UploadImagesRes{ImagesKeys: keys}
}
