package domain

import (
	"strings"

	"github.com/DRSN-tech/storefront-catalog/pkg/e"
)

// CategoryAll — значение фильтра «все категории».
const CategoryAll = "all"

// Category описывает категорию витрины
type Category struct {
	Value string
	Label string
	Count int64 // кол-во товаров, видимых на витрине
}

var categories = []Category{
	{Value: "laptops", Label: "Laptops"},
	{Value: "desktops", Label: "Desktops"},
	{Value: "components", Label: "Components"},
	{Value: "peripherals", Label: "Peripherals"},
	{Value: "gaming", Label: "Gaming"},
	{Value: "audio", Label: "Audio"},
	{Value: "printers", Label: "Printers"},
	{Value: "phones", Label: "Phones"},
	{Value: "refurbished phones", Label: "Refurbished Phones"},
}

// Categories возвращает копию перечня категорий в порядке показа.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// ParseCategory проверяет значение фильтра. Пустая строка означает «все».
// Сравнение регистрозависимое.
func ParseCategory(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == CategoryAll {
		return CategoryAll, nil
	}

	for _, c := range categories {
		if c.Value == value {
			return value, nil
		}
	}

	return "", e.ErrUnknownCategory
}
