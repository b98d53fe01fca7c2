package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDiscountPercent(t *testing.T) {
	orig := decimal.RequireFromString("1299.99")
	p := Product{Price: decimal.RequireFromString("999.99"), OriginalPrice: &orig}
	assert.Equal(t, 23, p.DiscountPercent())

	p.OriginalPrice = nil
	assert.Equal(t, 0, p.DiscountPercent())

	lower := decimal.RequireFromString("10")
	p.OriginalPrice = &lower
	assert.Equal(t, 0, p.DiscountPercent())
}

func TestProductImageHelpers(t *testing.T) {
	p := Product{Images: []string{"a", "b", "c"}, InStock: false}

	assert.Equal(t, "a", p.ImageURL())
	assert.False(t, p.CanAddToCart())

	one := p.WithImageLimit(1)
	assert.Equal(t, []string{"a"}, one.Images)
	assert.Len(t, p.Images, 3)

	assert.Equal(t, "", Product{}.ImageURL())
}

func TestIsObjectKey(t *testing.T) {
	assert.True(t, IsObjectKey("products/abc/front.jpg"))
	assert.False(t, IsObjectKey("https://cdn.example/a.jpg"))
	assert.False(t, IsObjectKey("//cdn.example/a.jpg"))
	assert.False(t, IsObjectKey("/images/a.jpg"))
	assert.False(t, IsObjectKey("data:image/png;base64,AAAA"))
	assert.False(t, IsObjectKey(""))
}
