package minio

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront-catalog/internal/cfg"
	"github.com/DRSN-tech/storefront-catalog/internal/domain"
	"github.com/DRSN-tech/storefront-catalog/internal/usecase"
	"github.com/DRSN-tech/storefront-catalog/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeImageRepo struct {
	mu        sync.Mutex
	presigned map[string]int
	uploaded  []string
	deleted   []string
	failKey   string
	failName  string
}

func (f *fakeImageRepo) Upload(_ context.Context, image *domain.Image) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failName != "" && strings.Contains(image.ObjectKey, f.failName) {
		return "", errors.New("put failed")
	}
	f.uploaded = append(f.uploaded, image.ObjectKey)
	return image.ObjectKey, nil
}

func (f *fakeImageRepo) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeImageRepo) PresignedURL(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if key == f.failKey {
		return "", errors.New("presign failed")
	}
	if f.presigned == nil {
		f.presigned = make(map[string]int)
	}
	f.presigned[key]++
	return "https://minio.local/bucket/" + key + "?sig=1", nil
}

func newTestInfra(repo usecase.ImageRepository) *MinioInfrastructure {
	return NewMinioInfrastructure(repo, &cfg.MinIOCfg{BucketName: "product-images", ResolveLimit: 2}, logger.Nop{}, context.Background())
}

func TestResolveImages(t *testing.T) {
	repo := &fakeImageRepo{failKey: "products/2/broken.jpg"}
	infra := newTestInfra(repo)

	resolved := infra.ResolveImages(context.Background(), []string{
		"products/1/a.jpg",
		"products/1/a.jpg",
		"https://cdn.example/b.jpg",
		"products/2/broken.jpg",
		"products/3/c.jpg",
	})

	assert.Equal(t, map[string]string{
		"products/1/a.jpg": "https://minio.local/bucket/products/1/a.jpg?sig=1",
		"products/3/c.jpg": "https://minio.local/bucket/products/3/c.jpg?sig=1",
	}, resolved)
	assert.Equal(t, 1, repo.presigned["products/1/a.jpg"])
}

func TestUploadImages_KeepsFileOrder(t *testing.T) {
	repo := &fakeImageRepo{}
	infra := newTestInfra(repo)

	res, err := infra.UploadImages(context.Background(), &usecase.UploadImagesReq{
		ProductID: "42",
		Images: []usecase.ProductImage{
			{Data: []byte{1}, MimeType: "image/jpeg", Name: "front.jpg"},
			{Data: []byte{2}, MimeType: "image/png", Name: "back.png"},
			{Data: []byte{3}, MimeType: "image/webp", Name: "side.webp"},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.ImagesKeys, 3)

	assert.True(t, strings.HasPrefix(res.ImagesKeys[0], "products/42/front-"))
	assert.True(t, strings.HasSuffix(res.ImagesKeys[0], ".jpg"))
	assert.True(t, strings.HasPrefix(res.ImagesKeys[1], "products/42/back-"))
	assert.True(t, strings.HasSuffix(res.ImagesKeys[1], ".png"))
	assert.True(t, strings.HasPrefix(res.ImagesKeys[2], "products/42/side-"))
}

func TestUploadImages_UnsupportedMIME(t *testing.T) {
	repo := &fakeImageRepo{}
	infra := newTestInfra(repo)

	_, err := infra.UploadImages(context.Background(), &usecase.UploadImagesReq{
		ProductID: "42",
		Images:    []usecase.ProductImage{{Data: []byte{1}, MimeType: "image/gif", Name: "anim.gif"}},
	})
	require.Error(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, infra.WaitForCleanup(ctx))
	assert.Empty(t, repo.deleted)
}
