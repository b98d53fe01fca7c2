package http

import (
	"time"

	"github.com/DRSN-tech/storefront-catalog/internal/domain"
	"github.com/DRSN-tech/storefront-catalog/internal/usecase"
	"github.com/shopspring/decimal"
)

type ProductResponse struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Price           decimal.Decimal  `json:"price"`
	OriginalPrice   *decimal.Decimal `json:"original_price,omitempty"`
	DiscountPercent int              `json:"discount_percent"`
	Category        string           `json:"category"`
	ImageURL        string           `json:"image_url"`
	Images          []string         `json:"images"`
	Rating          float64          `json:"rating"`
	ReviewsCount    int              `json:"reviews_count"`
	Badge           string           `json:"badge,omitempty"`
	BadgeColor      string           `json:"badge_color,omitempty"`
	InStock         bool             `json:"in_stock"`
	CanAddToCart    bool             `json:"can_add_to_cart"`
}

// ProductsResponse — снимок выдачи сессии.
type ProductsResponse struct {
	Category string            `json:"category"`
	SortBy   string            `json:"sort_by"`
	Search   string            `json:"search,omitempty"`
	Status   string            `json:"status"`
	Products []ProductResponse `json:"products"`
	Loading  bool              `json:"loading"`
	HasMore  bool              `json:"has_more"`
	Stale    bool              `json:"stale"`
	Error    string            `json:"error,omitempty"`
}

type ShowcaseResponse struct {
	Products  []ProductResponse `json:"products"`
	Stale     bool              `json:"stale"`
	FetchedAt time.Time         `json:"fetched_at"`
}

type CategoryResponse struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Count int64  `json:"count"`
}

func toProductResponse(p domain.Product) ProductResponse {
	images := p.Images
	if images == nil {
		images = []string{}
	}

	return ProductResponse{
		ID:              p.ID,
		Name:            p.Name,
		Price:           p.Price,
		OriginalPrice:   p.OriginalPrice,
		DiscountPercent: p.DiscountPercent(),
		Category:        p.Category,
		ImageURL:        p.ImageURL(),
		Images:          images,
		Rating:          p.Rating,
		ReviewsCount:    p.ReviewsCount,
		Badge:           p.Badge,
		BadgeColor:      p.BadgeColor,
		InStock:         p.InStock,
		CanAddToCart:    p.CanAddToCart(),
	}
}

func toProductResponses(products []domain.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	return out
}

// toProductsResponse применяет поиск к загруженным товарам: на ключ кэша и запрос к БД он не влияет.
func toProductsResponse(snap usecase.Snapshot, search string) ProductsResponse {
	return ProductsResponse{
		Category: snap.Filter.Category,
		SortBy:   string(snap.Filter.SortBy),
		Search:   search,
		Status:   string(snap.Status),
		Products: toProductResponses(usecase.FilterBySearch(snap.Products, search)),
		Loading:  snap.Loading,
		HasMore:  snap.HasMore,
		Stale:    snap.Stale,
		Error:    snap.Error,
	}
}

func toShowcaseResponse(res *usecase.ShowcaseResult) ShowcaseResponse {
	return ShowcaseResponse{
		Products:  toProductResponses(res.Products),
		Stale:     res.Stale,
		FetchedAt: res.FetchedAt,
	}
}

func toCategoryResponses(categories []domain.Category) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, CategoryResponse{Value: c.Value, Label: c.Label, Count: c.Count})
	}
	return out
}
