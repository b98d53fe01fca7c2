package usecase

import "context"

// ImagesInfra превращает ссылки на изображения в URL для витрины.
type ImagesInfra interface {
	// ResolveImages возвращает URL для каждой ссылки, которую удалось разрешить.
	// Ссылки, которых нет в ответе, непригодны и отбрасываются.
	ResolveImages(ctx context.Context, refs []string) map[string]string
	UploadImages(ctx context.Context, req *UploadImagesReq) (*UploadImagesRes, error)
}

// MessageProducer публикует события изменения каталога.
type MessageProducer interface {
	PublishChanges(ctx context.Context, events []ProductChangeEvent) error
}
