package pgdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/DRSN-tech/storefront-catalog/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/storefront-catalog/internal/usecase"
	"github.com/DRSN-tech/storefront-catalog/pkg/e"
	"github.com/DRSN-tech/storefront-catalog/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// querier — общее у pgxpool.Pool и pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ProductRepo реализует коллекцию товаров поверх PostgreSQL.
type ProductRepo struct {
	pool *pgxpool.Pool
	conv converter.ProductConverter
}

func NewProductRepo(pool *pgxpool.Pool, conv converter.ProductConverter) *ProductRepo {
	return &ProductRepo{
		pool: pool,
		conv: conv,
	}
}

// db возвращает транзакцию из контекста, если она есть, иначе пул.
func (p *ProductRepo) db(ctx context.Context) querier {
	if tx, err := tr.TxFromCtx(ctx); err == nil {
		return tx
	}
	return p.pool
}

const productColumns = `
	p.id::text, p.name, p.price, p.original_price, p.category, p.images, p.image_url,
	p.rating, p.reviews_count, p.badge, p.badge_color, p.in_stock`

// QueryProducts возвращает страницу коллекции. Фильтрация и сортировка выполняются в БД.
func (p *ProductRepo) QueryProducts(ctx context.Context, q *usecase.CatalogQuery) ([]usecase.ProductRow, error) {
	query, args, err := buildCatalogQuery(q)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	rows, err := p.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	models := make([]converter.ProductModel, 0, q.Limit)
	for rows.Next() {
		var m converter.ProductModel
		if err := rows.Scan(
			&m.ID, &m.Name, &m.Price, &m.OriginalPrice, &m.Category, &m.Images, &m.ImageURL,
			&m.Rating, &m.ReviewsCount, &m.Badge, &m.BadgeColor, &m.InStock,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		models = append(models, m)
	}
	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToRows(models), nil
}

var orderColumns = map[usecase.OrderColumn]string{
	usecase.OrderCreatedAt:    "p.created_at",
	usecase.OrderPrice:        "p.price",
	usecase.OrderRating:       "p.rating",
	usecase.OrderReviewsCount: "p.reviews_count",
}

// buildCatalogQuery собирает SELECT по CatalogQuery. Порядок всегда завершается
// p.id, чтобы смещения были стабильны при равных значениях сортировки.
func buildCatalogQuery(q *usecase.CatalogQuery) (string, []any, error) {
	var (
		sb    strings.Builder
		where []string
		args  []any
	)

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	sb.WriteString("SELECT")
	sb.WriteString(productColumns)
	sb.WriteString("\n\tFROM products p")

	if q.Category != "" {
		where = append(where, "p.category = "+arg(q.Category))
	}
	if q.InStockOnly {
		where = append(where, "p.in_stock = TRUE")
	}
	if q.ExcludeDeleted {
		where = append(where, "p.deleted_at IS NULL")
	}
	if q.RequireImages {
		where = append(where, "(p.images IS NOT NULL OR p.image_url IS NOT NULL)")
	}
	if len(where) > 0 {
		sb.WriteString("\n\tWHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}

	order := make([]string, 0, len(q.Order)+1)
	for _, term := range q.Order {
		col, ok := orderColumns[term.Column]
		if !ok {
			return "", nil, e.Wrap(string(term.Column), e.ErrUnsupportedOrder)
		}
		if term.Desc {
			order = append(order, col+" DESC NULLS LAST")
		} else {
			order = append(order, col+" ASC")
		}
	}
	order = append(order, "p.id ASC")
	sb.WriteString("\n\tORDER BY ")
	sb.WriteString(strings.Join(order, ", "))

	if q.Limit > 0 {
		sb.WriteString("\n\tLIMIT " + arg(q.Limit))
	}
	if q.Offset > 0 {
		sb.WriteString("\n\tOFFSET " + arg(q.Offset))
	}

	return sb.String(), args, nil
}

// Upsert создаёт или обновляет товар по id. Повторный upsert снимает пометку удаления.
func (p *ProductRepo) Upsert(ctx context.Context, req *usecase.UpsertProductReq) (*usecase.UpsertProductRes, error) {
	if req.ID == "" {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrStatusBadRequest)
	}

	// VALUES ($1..$11) id, name, price, original_price, category, images, rating, reviews_count, badge, badge_color, in_stock
	query := `
		INSERT INTO products (
			id, name, price, original_price, category, images,
			rating, reviews_count, badge, badge_color, in_stock
		)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id)
		DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			original_price = EXCLUDED.original_price,
			category = EXCLUDED.category,
			images = EXCLUDED.images,
			rating = EXCLUDED.rating,
			reviews_count = EXCLUDED.reviews_count,
			badge = EXCLUDED.badge,
			badge_color = EXCLUDED.badge_color,
			in_stock = EXCLUDED.in_stock,
			deleted_at = NULL,
			updated_at = NOW()
		RETURNING id::text, category, (xmax = 0) AS inserted;
	`

	var images []string
	if len(req.ImageURLs) > 0 {
		images = req.ImageURLs
	}

	var res usecase.UpsertProductRes
	err := p.db(ctx).QueryRow(ctx, query,
		req.ID, req.Name, req.Price, req.OriginalPrice, req.Category, images,
		req.Rating, req.ReviewsCount, req.Badge, req.BadgeColor, req.InStock,
	).Scan(&res.ID, &res.Category, &res.Inserted)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &res, nil
}

// SoftDelete помечает товары удалёнными и возвращает те, что были видимы до этого.
func (p *ProductRepo) SoftDelete(ctx context.Context, ids []string) ([]usecase.DeletedProduct, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		UPDATE products
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = ANY($1::uuid[]) AND deleted_at IS NULL
		RETURNING id::text, category;
	`

	rows, err := p.db(ctx).Query(ctx, query, ids)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	deleted, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (usecase.DeletedProduct, error) {
		var d usecase.DeletedProduct
		err := row.Scan(&d.ID, &d.Category)
		return d, err
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return deleted, nil
}
