package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/storefront-catalog/internal/cfg"
	v1Http "github.com/DRSN-tech/storefront-catalog/internal/delivery/v1/http"
	"github.com/DRSN-tech/storefront-catalog/internal/domain"
	"github.com/DRSN-tech/storefront-catalog/internal/infrastructure/kafka"
	minioInfra "github.com/DRSN-tech/storefront-catalog/internal/infrastructure/minio"
	s3Repo "github.com/DRSN-tech/storefront-catalog/internal/repository/minio"
	"github.com/DRSN-tech/storefront-catalog/internal/repository/pgdb"
	pgdbConv "github.com/DRSN-tech/storefront-catalog/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/storefront-catalog/internal/repository/redis"
	"github.com/DRSN-tech/storefront-catalog/internal/usecase"
	"github.com/DRSN-tech/storefront-catalog/pkg/clients"
	"github.com/DRSN-tech/storefront-catalog/pkg/closer"
	"github.com/DRSN-tech/storefront-catalog/pkg/e"
	"github.com/DRSN-tech/storefront-catalog/pkg/logger"
	"github.com/DRSN-tech/storefront-catalog/pkg/postgres"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

const (
	migrationsSource = "file://db/migrations"
	shutdownTimeout  = 10 * time.Second
)

// App — собранный сервис витрины: HTTP, фоновые сессии и consumer изменений.
type App struct {
	cfg     *config.Config
	logger  logger.Logger
	closer  *closer.Closer
	ctx     context.Context
	cancel  context.CancelFunc
	httpSrv *v1Http.Server

	sessions *usecase.SessionRegistry
	consumer *kafka.ChangeConsumer
}

func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		cfg:    cfg,
		logger: log,
		closer: closer.NewCloser(0),
		ctx:    ctx,
		cancel: cancel,
	}

	if err := a.init(); err != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if closeErr := a.closer.Close(shutdownCtx); closeErr != nil {
			log.Errorf(closeErr, "cleanup after failed init")
		}
		cancel()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return a, nil
}

func (a *App) init() error {
	db, err := initPGDB(a.ctx, a.logger, a.cfg)
	if err != nil {
		return err
	}
	a.closer.AddFunc("postgres", db.Close)

	productRepo := pgdb.NewProductRepo(db.Pool, pgdbConv.ProductConverter{})
	categoryRepo := pgdb.NewCategoryRepo(db.Pool)

	// Redis — только персистентный уровень кэша: без него сервис работает на памяти
	redisClient := clients.NewRedisClient(a.cfg.Redis)
	redisCtx, redisCancel := context.WithTimeout(a.ctx, 5*time.Second)
	if err := redisClient.Ping(redisCtx); err != nil {
		a.logger.Warnf("redis unavailable, persisted cache degraded: %v", err)
	}
	redisCancel()
	a.closer.Add("redis", func(context.Context) error { return redisClient.Close() })
	cacheRepo := redis.NewCacheRepo(redisClient, a.cfg.Catalog.PersistRetention)

	var images usecase.ImagesInfra
	if a.cfg.Minio.Enabled() {
		minioClient, err := clients.NewMinIOClient(a.cfg.Minio)
		if err != nil {
			a.logger.Errorf(err, "failed to initialize minio client")
			return err
		}
		imagesInfra := minioInfra.NewMinioInfrastructure(s3Repo.NewImageRepo(minioClient, a.cfg.Minio), a.cfg.Minio, a.logger, a.ctx)
		a.closer.Add("minio cleanup", imagesInfra.WaitForCleanup)
		images = imagesInfra
	} else {
		a.logger.Warnf("MINIO_ENDPOINT is empty, object-key images will be dropped")
	}

	catalogCfg := a.cfg.Catalog
	fetcher := usecase.NewCatalogFetcher(productRepo, images, catalogCfg.MaxImages, a.logger)

	gridCache := usecase.NewCacheStore(cacheRepo, a.logger, usecase.CacheStoreOpts{
		TTL:            catalogCfg.CacheTTL,
		MaxEntries:     catalogCfg.MaxEntries,
		StorageTimeout: catalogCfg.StorageTimeout,
		KeyPrefix:      usecase.DefaultCacheKeyPrefix + "grid:",
	})

	featured := a.newShowcase(fetcher, cacheRepo, "featured", domain.SortNewest, catalogCfg.FeaturedLimit)
	hero := a.newShowcase(fetcher, cacheRepo, "hero", domain.SortRating, catalogCfg.HeroLimit)

	a.sessions = usecase.NewSessionRegistry(func() *usecase.QueryController {
		return usecase.NewQueryController(fetcher, gridCache, a.logger, usecase.ControllerOpts{
			PageSize:       catalogCfg.PageSize,
			SoftTimeout:    catalogCfg.SoftTimeout,
			RequestTimeout: catalogCfg.RequestTimeout,
		})
	}, a.logger, usecase.SessionOpts{
		IdleTimeout: catalogCfg.SessionIdle,
		MaxSessions: catalogCfg.MaxSessions,
	})

	catalogUC := usecase.NewCatalogUC(a.sessions, gridCache, featured, hero, categoryRepo, a.logger)
	a.closer.AddFunc("catalog sessions", catalogUC.Close)

	if a.cfg.Kafka.Enabled() {
		a.consumer = kafka.NewChangeConsumer(a.cfg.Kafka, catalogUC, a.logger)
		a.closer.Add("kafka consumer", func(context.Context) error { return a.consumer.Stop() })
	} else {
		a.logger.Warnf("KAFKA_BROKERS is empty, cache invalidation by events disabled")
	}

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, a.logger)
	router.Init(catalogUC, catalogCfg.WaitTimeout)
	a.httpSrv = v1Http.NewServer(r, a.cfg.Http)

	return nil
}

func (a *App) newShowcase(fetcher usecase.Fetcher, kv usecase.KeyValueStore, name string, sortBy domain.SortBy, limit int) *usecase.Showcase {
	c := a.cfg.Catalog
	cache := usecase.NewCacheStore(kv, a.logger, usecase.CacheStoreOpts{
		TTL:            c.ShowcaseTTL,
		MaxEntries:     1,
		StorageTimeout: c.StorageTimeout,
		KeyPrefix:      usecase.DefaultCacheKeyPrefix + name + ":",
	})

	return usecase.NewShowcase(fetcher, cache, a.logger, usecase.ShowcaseOpts{
		Name:           name,
		Filter:         domain.FilterState{Category: domain.CategoryAll, SortBy: sortBy},
		Limit:          limit,
		MaxImages:      1,
		SoftTimeout:    c.SoftTimeout,
		RequestTimeout: c.RequestTimeout,
	})
}

// Run запускает фоновые задачи и HTTP-сервер и блокируется до сигнала или ошибки сервера.
func (a *App) Run() error {
	go a.sessions.Run(a.ctx)
	if a.consumer != nil {
		a.consumer.Start(a.ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Errorf(err, "HTTP server failed")
			errCh <- err
		}
	}()

	// === Ожидание сигнала или ошибки ===
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "HTTP server fatal error")
	case <-shutdown:
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	// === Graceful shutdown ===
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := a.httpSrv.Stop(shutdownCtx); err != nil {
		a.logger.Errorf(err, "HTTP server shutdown error")
	} else {
		a.logger.Infof("HTTP server stopped")
	}

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Errorf(err, "resources shutdown error")
	}
	a.cancel()

	a.logger.Infof("Application shutdown complete")
	return appErr
}

func initPGDB(ctx context.Context, logger logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(ctx, cfg.Db)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(migrationsSource, logger); err != nil {
		logger.Errorf(err, "failed to run migrations")
		db.Close()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
