package pgdb

import (
	"context"

	"github.com/DRSN-tech/storefront-catalog/pkg/e"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// CategoryRepo считает видимые товары по категориям.
type CategoryRepo struct {
	pool *pgxpool.Pool
}

func NewCategoryRepo(pool *pgxpool.Pool) *CategoryRepo {
	return &CategoryRepo{pool: pool}
}

// CountVisible учитывает те же предикаты, что и выдача: в наличии, не удалён, есть изображения.
func (c *CategoryRepo) CountVisible(ctx context.Context) (map[string]int64, error) {
	query := `
		SELECT category, COUNT(*)
		FROM products
		WHERE in_stock = TRUE
		  AND deleted_at IS NULL
		  AND (images IS NOT NULL OR image_url IS NOT NULL)
		GROUP BY category;
	`

	rows, err := c.pool.Query(ctx, query)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			category string
			count    int64
		)
		if err := rows.Scan(&category, &count); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		counts[category] = count
	}
	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return counts, nil
}
