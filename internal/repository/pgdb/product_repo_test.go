package pgdb

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/DRSN-tech/storefront-catalog/internal/domain"
	"github.com/DRSN-tech/storefront-catalog/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/storefront-catalog/internal/usecase"
	"github.com/DRSN-tech/storefront-catalog/pkg/e"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCatalogQuery_CategoryAndPredicates(t *testing.T) {
	q := usecase.BuildCatalogQuery(domain.FilterState{Category: "laptops", SortBy: domain.SortPriceLow}, 24, 24)

	sql, args, err := buildCatalogQuery(q)
	require.NoError(t, err)

	assert.Contains(t, sql, "p.category = $1")
	assert.Contains(t, sql, "p.in_stock = TRUE")
	assert.Contains(t, sql, "p.deleted_at IS NULL")
	assert.Contains(t, sql, "(p.images IS NOT NULL OR p.image_url IS NOT NULL)")
	assert.Contains(t, sql, "ORDER BY p.price ASC, p.id ASC")
	assert.Contains(t, sql, "LIMIT $2")
	assert.Contains(t, sql, "OFFSET $3")
	assert.Equal(t, []any{"laptops", 24, 24}, args)
}

func TestBuildCatalogQuery_AllCategoriesRating(t *testing.T) {
	q := usecase.BuildCatalogQuery(domain.FilterState{Category: domain.CategoryAll, SortBy: domain.SortRating}, 0, 24)

	sql, args, err := buildCatalogQuery(q)
	require.NoError(t, err)

	assert.NotContains(t, sql, "p.category =")
	assert.NotContains(t, sql, "OFFSET")
	assert.Contains(t, sql, "ORDER BY p.rating DESC NULLS LAST, p.reviews_count DESC NULLS LAST, p.id ASC")
	assert.Contains(t, sql, "LIMIT $1")
	assert.Equal(t, []any{24}, args)
}

func TestBuildCatalogQuery_Newest(t *testing.T) {
	q := usecase.BuildCatalogQuery(domain.DefaultFilter(), 0, 4)

	sql, _, err := buildCatalogQuery(q)
	require.NoError(t, err)
	assert.Contains(t, sql, "ORDER BY p.created_at DESC NULLS LAST, p.id ASC")
}

func TestMigration_IndexesFollowCatalogOrder(t *testing.T) {
	raw, err := os.ReadFile("../../../db/migrations/000001_create_products.up.sql")
	require.NoError(t, err)
	migration := string(raw)

	for _, sortBy := range []domain.SortBy{domain.SortNewest, domain.SortPriceLow, domain.SortPriceHigh, domain.SortRating} {
		t.Run(string(sortBy), func(t *testing.T) {
			q := usecase.BuildCatalogQuery(domain.FilterState{Category: "laptops", SortBy: sortBy}, 0, 24)
			sql, _, err := buildCatalogQuery(q)
			require.NoError(t, err)

			_, order, ok := strings.Cut(sql, "ORDER BY ")
			require.True(t, ok)
			order, _, _ = strings.Cut(order, "\n")
			order = strings.ReplaceAll(order, "p.", "")
			order = strings.ReplaceAll(order, " ASC", "")

			assert.Contains(t, migration, "(category, "+order+")")
		})
	}
}

func TestBuildCatalogQuery_UnsupportedOrder(t *testing.T) {
	_, _, err := buildCatalogQuery(&usecase.CatalogQuery{
		Order: []usecase.OrderTerm{{Column: "name"}},
		Limit: 10,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, e.ErrUnsupportedOrder))
}

func TestProductConverter_ImageSources(t *testing.T) {
	legacy := `["https://a/1.jpg"]`
	conv := converter.ProductConverter{}

	fromArray := conv.ToRow(&converter.ProductModel{
		ID:       "1",
		Price:    decimal.NewFromInt(10),
		Images:   []string{"https://a/arr.jpg"},
		ImageURL: &legacy,
	})
	assert.Equal(t, domain.ImageFieldList, fromArray.Images.Kind())
	assert.Equal(t, []string{"https://a/arr.jpg"}, domain.NormalizeImages(fromArray.Images, 3))

	fromText := conv.ToRow(&converter.ProductModel{ID: "2", ImageURL: &legacy})
	assert.Equal(t, domain.ImageFieldText, fromText.Images.Kind())
	assert.Equal(t, []string{"https://a/1.jpg"}, domain.NormalizeImages(fromText.Images, 3))

	none := conv.ToRow(&converter.ProductModel{ID: "3"})
	assert.True(t, none.Images.IsNull())
}
