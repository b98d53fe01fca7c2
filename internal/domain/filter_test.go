package domain

import (
	"testing"

	"github.com/DRSN-tech/storefront-catalog/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("laptops", "price_low")
	require.NoError(t, err)
	assert.Equal(t, "laptops-price_low", f.Key())
	assert.False(t, f.AllCategories())

	f, err = ParseFilter("", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultFilter(), f)
	assert.Equal(t, "all-newest", f.Key())

	f, err = ParseFilter("refurbished phones", "relevance")
	require.NoError(t, err)
	assert.Equal(t, SortNewest, f.SortBy)
}

func TestParseFilterRejectsUnknown(t *testing.T) {
	_, err := ParseFilter("Laptops", "price_low")
	assert.ErrorIs(t, err, e.ErrUnknownCategory)

	_, err = ParseFilter("laptops", "cheapest")
	assert.ErrorIs(t, err, e.ErrUnknownSort)
}

func TestCategoriesReturnsCopy(t *testing.T) {
	c := Categories()
	require.Len(t, c, 9)
	c[0].Value = "changed"
	assert.Equal(t, "laptops", Categories()[0].Value)
}
