package usecase

import (
	"context"
	"time"

	"github.com/DRSN-tech/storefront-catalog/internal/domain"
	"github.com/DRSN-tech/storefront-catalog/pkg/e"
	"github.com/DRSN-tech/storefront-catalog/pkg/logger"
	"github.com/DRSN-tech/storefront-catalog/pkg/tr"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SeedProduct — товар фикстуры вместе с локальными файлами изображений.
type SeedProduct struct {
	Product UpsertProductReq
	Images  []ProductImage
}

type SeedReq struct {
	Products   []SeedProduct
	RemovedIDs []string
}

type SeedRes struct {
	Inserted  int
	Updated   int
	Deleted   int
	Published int
}

// SeedUseCase загружает фикстуру в коллекцию одной транзакцией и публикует события изменений.
type SeedUseCase struct {
	productRepo ProductWriter
	dbPool      transaction.Transactional
	imagesInfra ImagesInfra // nil — загрузка файлов недоступна
	producer    MessageProducer // nil — события не публикуются
	logger      logger.Logger
	now         Clock
}

func NewSeedUC(
	productRepo ProductWriter,
	dbPool transaction.Transactional,
	imagesInfra ImagesInfra,
	producer MessageProducer,
	logger logger.Logger,
) *SeedUseCase {
	return &SeedUseCase{
		productRepo: productRepo,
		dbPool:      dbPool,
		imagesInfra: imagesInfra,
		producer:    producer,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *SeedUseCase) Apply(ctx context.Context, req *SeedReq) (*SeedRes, error) {
	const op = "SeedUseCase.Apply"

	// Файлы загружаются до транзакции: в БД попадают уже ключи объектов
	for i := range req.Products {
		sp := &req.Products[i]
		if sp.Product.ID == "" {
			sp.Product.ID = uuid.NewString()
		}
		if len(sp.Images) == 0 {
			continue
		}
		if s.imagesInfra == nil {
			return nil, e.Wrap(op, e.Wrap(sp.Product.ID, e.ErrStorageUnavailable))
		}
		uploaded, err := s.imagesInfra.UploadImages(ctx, &UploadImagesReq{ProductID: sp.Product.ID, Images: sp.Images})
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		sp.Product.ImageURLs = append(sp.Product.ImageURLs, uploaded.ImagesKeys...)
	}

	var (
		res    SeedRes
		events []ProductChangeEvent
		err    error
	)

	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, s.dbPool)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Warnf("%s: rollback failed: %v", op, rbErr)
			}
		}
	}()
	pgxTx, ok := tx.Transaction().(pgx.Tx)
	if !ok {
		err = e.ErrTransactionNotFound
		return nil, e.Wrap(op, err)
	}
	txCtx := tr.WithTx(ctx, pgxTx)

	for i := range req.Products {
		var upserted *UpsertProductRes
		upserted, err = s.productRepo.Upsert(txCtx, &req.Products[i].Product)
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		if upserted.Inserted {
			res.Inserted++
		} else {
			res.Updated++
		}
		events = append(events, s.newEvent(upserted.ID, upserted.Category, OperationUpsert))
	}

	if len(req.RemovedIDs) > 0 {
		var deleted []DeletedProduct
		deleted, err = s.productRepo.SoftDelete(txCtx, req.RemovedIDs)
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		res.Deleted = len(deleted)
		for _, d := range deleted {
			events = append(events, s.newEvent(d.ID, d.Category, OperationDelete))
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, e.Wrap(op, err)
	}

	// Данные уже закоммичены: ошибка публикации только логируется
	if s.producer != nil && len(events) > 0 {
		if pubErr := s.producer.PublishChanges(ctx, events); pubErr != nil {
			s.logger.Warnf("%s: failed to publish %d change events: %v", op, len(events), pubErr)
		} else {
			res.Published = len(events)
		}
	}

	return &res, nil
}

func (s *SeedUseCase) newEvent(productID, category string, operation ProductOperation) ProductChangeEvent {
	if category == "" {
		category = domain.CategoryAll
	}
	return ProductChangeEvent{
		EventID:    uuid.NewString(),
		ProductID:  productID,
		Category:   category,
		Operation:  operation,
		OccurredAt: s.now().UTC(),
	}
}
