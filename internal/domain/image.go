package domain

import "strings"

// Image описывает изображение, которое хранится в S3
type Image struct {
	ID          string
	Bucket      string
	ObjectKey   string
	Data        []byte
	ContentType string
}

func NewImage(id, bucket, objectKey string, data []byte, contentType string) *Image {
	return &Image{
		ID:          id,
		Bucket:      bucket,
		ObjectKey:   objectKey,
		Data:        data,
		ContentType: contentType,
	}
}

// IsObjectKey сообщает, что ссылка — ключ объекта в хранилище, а не готовый URL.
// Абсолютные URL, protocol-relative и корневые пути считаются готовыми.
func IsObjectKey(ref string) bool {
	switch {
	case ref == "":
		return false
	case strings.HasPrefix(ref, "/"):
		return false
	case strings.Contains(ref, "://"):
		return false
	case strings.HasPrefix(ref, "data:"):
		return false
	default:
		return true
	}
}
