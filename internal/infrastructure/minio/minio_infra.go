package minio

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/DRSN-tech/storefront-catalog/internal/cfg"
	"github.com/DRSN-tech/storefront-catalog/internal/domain"
	"github.com/DRSN-tech/storefront-catalog/internal/infrastructure"
	"github.com/DRSN-tech/storefront-catalog/internal/usecase"
	"github.com/DRSN-tech/storefront-catalog/pkg/e"
	"github.com/DRSN-tech/storefront-catalog/pkg/jitter"
	"github.com/DRSN-tech/storefront-catalog/pkg/logger"

	"github.com/google/uuid"
)

// MinioInfrastructure разрешает ключи объектов в presigned-ссылки и загружает
// изображения товаров в MinIO.
type MinioInfrastructure struct {
	minioRepo   usecase.ImageRepository
	cfg         *cfg.MinIOCfg
	logger      logger.Logger
	shutdownCtx context.Context
	wg          sync.WaitGroup
	limit       int
}

func NewMinioInfrastructure(minioRepo usecase.ImageRepository, cfg *cfg.MinIOCfg, logger logger.Logger, shutdownCtx context.Context) *MinioInfrastructure {
	limit := cfg.ResolveLimit
	if limit <= 0 {
		limit = 1
	}

	return &MinioInfrastructure{
		minioRepo:   minioRepo,
		cfg:         cfg,
		logger:      logger,
		shutdownCtx: shutdownCtx,
		limit:       limit,
	}
}

// ResolveImages подписывает каждую уникальную ссылку не более чем в limit потоков.
// Ссылки, которые не удалось подписать, в ответ не попадают.
func (m *MinioInfrastructure) ResolveImages(ctx context.Context, refs []string) map[string]string {
	const op = "MinioInfrastructure.ResolveImages"

	unique := make([]string, 0, len(refs))
	seen := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		if _, ok := seen[ref]; ok || !domain.IsObjectKey(ref) {
			continue
		}
		seen[ref] = struct{}{}
		unique = append(unique, ref)
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		resolved = make(map[string]string, len(unique))
		sem      = make(chan struct{}, m.limit)
	)

	for _, key := range unique {
		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			signed, err := m.minioRepo.PresignedURL(ctx, key)
			if err != nil {
				m.logger.Warnf("%s: key %s: %v", op, key, err)
				return
			}

			mu.Lock()
			resolved[key] = signed
			mu.Unlock()
		}()
	}
	wg.Wait()

	return resolved
}

// UploadImages загружает изображения продукта в MinIO параллельно с ограничением одновременных операций.
// В случае ошибки отменяет остальные загрузки и запускает очистку уже загруженных файлов.
func (m *MinioInfrastructure) UploadImages(ctx context.Context, req *usecase.UploadImagesReq) (*usecase.UploadImagesRes, error) {
	const op = "MinioInfrastructure.UploadImages"
	// Отмена остальных загрузок при первой ошибке
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type uploaded struct {
		idx int
		key string
	}

	keyCh := make(chan uploaded, len(req.Images))
	errCh := make(chan error, len(req.Images))
	sem := make(chan struct{}, m.limit)

	var uploadWg sync.WaitGroup
	for idx, image := range req.Images {
		uploadWg.Add(1)
		go func() {
			defer uploadWg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			imageID := uuid.NewString()
			ext, err := infrastructure.GetExtensionFromMIME(image.MimeType)
			if err != nil {
				errCh <- fmt.Errorf("invalid mime type %s for %s: %w", image.MimeType, image.Name, err)
				return
			}
			base := strings.TrimSuffix(path.Base(image.Name), path.Ext(image.Name))
			objKey := fmt.Sprintf("products/%s/%s-%s.%s", req.ProductID, base, imageID, ext)
			newImage := domain.NewImage(imageID, m.cfg.BucketName, objKey, image.Data, image.MimeType)

			key, err := m.minioRepo.Upload(ctx, newImage)
			if err != nil {
				errCh <- fmt.Errorf("upload %s failed: %w", image.Name, err)
				return
			}

			keyCh <- uploaded{idx: idx, key: key}
		}()
	}

	go func() {
		uploadWg.Wait()
		close(errCh)
		close(keyCh)
	}()

	// ключи возвращаются в порядке файлов: первый станет основным изображением
	keys := make([]string, len(req.Images))
	var done []string
	ok := false
	defer func() {
		if !ok && len(done) > 0 {
			m.CleanupImages(done)
		}
	}()

	for completed := 0; completed < len(req.Images); {
		select {
		case u, open := <-keyCh:
			if open {
				keys[u.idx] = u.key
				done = append(done, u.key)
				completed++
			}
		case err, open := <-errCh:
			if open {
				cancel()
				return nil, e.Wrap(op, err)
			}
		case <-ctx.Done():
			return nil, e.Wrap(op, ctx.Err())
		}
	}

	ok = true
	return usecase.NewUploadImagesRes(keys), nil
}

// CleanupImages запускает фоновую очистку указанных ключей MinIO
func (m *MinioInfrastructure) CleanupImages(keys []string) {
	if len(keys) == 0 {
		return
	}
	m.wg.Add(1)
	go m.cleanupUploadedKeys(keys)
}

// cleanupUploadedKeys удаляет указанные объекты из MinIO с экспоненциальной задержкой и jitter.
func (m *MinioInfrastructure) cleanupUploadedKeys(keys []string) {
	defer m.wg.Done()
	const (
		op          = "MinioInfrastructure.cleanupUploadedKeys"
		maxAttempts = 3
	)
	m.logger.Infof("%s: cleaning up %d uploaded keys", op, len(keys))

	ctx, cancel := context.WithTimeout(m.shutdownCtx, 30*time.Second)
	defer cancel()

	backoff := jitter.Backoff{Base: time.Second, Max: 8 * time.Second, Factor: 0.5}
	for _, key := range keys {
		for attempt := 0; attempt < maxAttempts; attempt++ {
			err := m.minioRepo.Delete(ctx, key)
			if err == nil {
				break
			}
			if attempt == maxAttempts-1 {
				m.logger.Errorf(err, "%s: giving up on key=%s", op, key)
				break
			}
			if !backoff.Sleep(ctx, attempt) {
				m.logger.Warnf("cleanup interrupted by shutdown, key=%v", key)
				return
			}
		}
	}
}

// WaitForCleanup ожидает завершения всех фоновых задач очистки с учётом таймаута завершения приложения.
func (m *MinioInfrastructure) WaitForCleanup(shutdownTimeoutCtx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-shutdownTimeoutCtx.Done():
		return fmt.Errorf("minio cleanup timeout during shutdown: %w", shutdownTimeoutCtx.Err())
	}
}
