package converter

import (
	"github.com/DRSN-tech/storefront-catalog/internal/domain"
	"github.com/DRSN-tech/storefront-catalog/internal/usecase"
)

// ProductConverter преобразует строки products в сырые строки каталога.
type ProductConverter struct{}

func (ProductConverter) ToRow(model *ProductModel) usecase.ProductRow {
	return usecase.ProductRow{
		ID:            model.ID,
		Name:          model.Name,
		Price:         model.Price,
		OriginalPrice: model.OriginalPrice,
		Category:      model.Category,
		Images:        ImageField(model.Images, model.ImageURL),
		Rating:        model.Rating,
		ReviewsCount:  model.ReviewsCount,
		Badge:         model.Badge,
		BadgeColor:    model.BadgeColor,
		InStock:       model.InStock,
	}
}

func (c ProductConverter) ToRows(models []ProductModel) []usecase.ProductRow {
	rows := make([]usecase.ProductRow, 0, len(models))
	for i := range models {
		rows = append(rows, c.ToRow(&models[i]))
	}
	return rows
}

// ImageField выбирает источник изображений: массив, если он есть, иначе текстовая колонка.
func ImageField(images []string, imageURL *string) domain.ImageField {
	if images != nil {
		return domain.ImageFieldFromList(images)
	}
	if imageURL != nil {
		return domain.ImageFieldFromText(*imageURL)
	}
	return domain.NullImageField()
}
