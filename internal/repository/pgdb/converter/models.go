package converter

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductModel представляет запись таблицы products в PostgreSQL.
// Изображения исторически лежат в двух колонках: images (text[]) и image_url
// (text: голый URL или JSON-строка).
type ProductModel struct {
	ID            string              `db:"id"`
	Name          string              `db:"name"`
	Price         decimal.Decimal     `db:"price"`
	OriginalPrice decimal.NullDecimal `db:"original_price"`
	Category      string              `db:"category"`
	Images        []string            `db:"images"`
	ImageURL      *string             `db:"image_url"`
	Rating        *float64            `db:"rating"`
	ReviewsCount  *int                `db:"reviews_count"`
	Badge         *string             `db:"badge"`
	BadgeColor    *string             `db:"badge_color"`
	InStock       bool                `db:"in_stock"`
	CreatedAt     time.Time           `db:"created_at"`
	UpdatedAt     *time.Time          `db:"updated_at"`
	DeletedAt     *time.Time          `db:"deleted_at"`
}
