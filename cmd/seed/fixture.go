package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/DRSN-tech/storefront-catalog/internal/domain"
	"github.com/DRSN-tech/storefront-catalog/internal/infrastructure"
	"github.com/DRSN-tech/storefront-catalog/internal/usecase"
	"github.com/DRSN-tech/storefront-catalog/pkg/e"
	"github.com/shopspring/decimal"
)

// fixture — файл с товарами для загрузки в коллекцию.
type fixture struct {
	Products   []fixtureProduct `json:"products"`
	RemovedIDs []string         `json:"removed_ids"`
}

type fixtureProduct struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price"`
	Category      string           `json:"category"`
	ImageURLs     []string         `json:"image_urls"`
	ImageFiles    []string         `json:"image_files"` // пути относительно файла фикстуры
	Rating        *float64         `json:"rating"`
	ReviewsCount  *int             `json:"reviews_count"`
	Badge         *string          `json:"badge"`
	BadgeColor    *string          `json:"badge_color"`
	InStock       *bool            `json:"in_stock"`
}

// loadFixture читает фикстуру и файлы изображений, на которые она ссылается.
func loadFixture(path string) (*usecase.SeedReq, error) {
	const op = "loadFixture"

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	var f fixture
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, e.Wrap(op, err)
	}

	dir := filepath.Dir(path)
	req := &usecase.SeedReq{RemovedIDs: f.RemovedIDs}
	for i, p := range f.Products {
		sp, err := p.toSeedProduct(dir)
		if err != nil {
			return nil, e.Wrap(fmt.Sprintf("%s: product #%d %q", op, i, p.Name), err)
		}
		req.Products = append(req.Products, *sp)
	}

	return req, nil
}

func (p fixtureProduct) toSeedProduct(dir string) (*usecase.SeedProduct, error) {
	if p.Name == "" || !p.Price.IsPositive() {
		return nil, e.ErrStatusBadRequest
	}
	if _, err := domain.ParseCategory(p.Category); err != nil || p.Category == domain.CategoryAll {
		return nil, e.ErrUnknownCategory
	}
	if len(p.ImageURLs) == 0 && len(p.ImageFiles) == 0 {
		return nil, e.Wrap("no images", e.ErrStatusBadRequest)
	}

	inStock := true
	if p.InStock != nil {
		inStock = *p.InStock
	}

	images := make([]usecase.ProductImage, 0, len(p.ImageFiles))
	for _, name := range p.ImageFiles {
		mime, err := infrastructure.GetMIMEFromExtension(filepath.Ext(name))
		if err != nil {
			return nil, e.Wrap(name, err)
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		images = append(images, usecase.ProductImage{Data: data, MimeType: mime, Name: filepath.Base(name)})
	}

	return &usecase.SeedProduct{
		Product: usecase.UpsertProductReq{
			ID:            p.ID,
			Name:          p.Name,
			Price:         p.Price,
			OriginalPrice: p.OriginalPrice,
			Category:      p.Category,
			ImageURLs:     p.ImageURLs,
			Rating:        p.Rating,
			ReviewsCount:  p.ReviewsCount,
			Badge:         p.Badge,
			BadgeColor:    p.BadgeColor,
			InStock:       inStock,
		},
		Images: images,
	}, nil
}
