package domain

import (
	"github.com/shopspring/decimal"
)

// Product описывает товар каталога в том виде, в котором его видит витрина.
type Product struct {
	ID            string
	Name          string
	Price         decimal.Decimal
	OriginalPrice *decimal.Decimal // nil — скидки нет
	Category      string
	Images        []string // нормализованные URL, не пустой список
	Rating        float64
	ReviewsCount  int
	Badge         string
	BadgeColor    string
	InStock       bool
}

// DefaultRating подставляется, когда у товара нет оценки.
const DefaultRating = 5.0

var hundred = decimal.NewFromInt(100)

// ImageURL возвращает основное изображение товара.
func (p Product) ImageURL() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// DiscountPercent возвращает скидку в процентах, округлённую до целого.
func (p Product) DiscountPercent() int {
	if p.OriginalPrice == nil || !p.OriginalPrice.IsPositive() || p.OriginalPrice.LessThanOrEqual(p.Price) {
		return 0
	}

	return int(p.OriginalPrice.Sub(p.Price).Div(*p.OriginalPrice).Mul(hundred).Round(0).IntPart())
}

// CanAddToCart — товар не в наличии нельзя положить в корзину.
func (p Product) CanAddToCart() bool {
	return p.InStock
}

// WithImageLimit возвращает копию товара не более чем с max изображениями.
func (p Product) WithImageLimit(max int) Product {
	if max > 0 && len(p.Images) > max {
		p.Images = append([]string(nil), p.Images[:max]...)
	}
	return p
}
