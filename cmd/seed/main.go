package main

import (
	"context"
	"flag"
	"os"
	"time"

	config "github.com/DRSN-tech/storefront-catalog/internal/cfg"
	"github.com/DRSN-tech/storefront-catalog/internal/infrastructure/kafka"
	minioInfra "github.com/DRSN-tech/storefront-catalog/internal/infrastructure/minio"
	s3Repo "github.com/DRSN-tech/storefront-catalog/internal/repository/minio"
	"github.com/DRSN-tech/storefront-catalog/internal/repository/pgdb"
	pgdbConv "github.com/DRSN-tech/storefront-catalog/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/storefront-catalog/internal/usecase"
	"github.com/DRSN-tech/storefront-catalog/pkg/clients"
	"github.com/DRSN-tech/storefront-catalog/pkg/logger"
	"github.com/DRSN-tech/storefront-catalog/pkg/postgres"
	"github.com/joho/godotenv"
)

func main() {
	log := logger.NewSlogLogger()

	var (
		fixturePath string
		migrations  string
		timeout     time.Duration
	)
	flag.StringVar(&fixturePath, "fixture", "cmd/seed/testdata/products.json", "path to products fixture")
	flag.StringVar(&migrations, "migrations", "file://db/migrations", "migrations source URL")
	flag.DurationVar(&timeout, "timeout", 2*time.Minute, "overall seed timeout")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Debugf(".env not loaded: %v", err)
	}

	if err := run(log, fixturePath, migrations, timeout); err != nil {
		log.Errorf(err, "seed failed")
		os.Exit(1)
	}
}

func run(log logger.Logger, fixturePath, migrations string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, err := config.Load(log)
	if err != nil {
		return err
	}

	req, err := loadFixture(fixturePath)
	if err != nil {
		return err
	}

	db, err := postgres.Connect(ctx, cfg.Db)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.RunMigrations(migrations, log); err != nil {
		return err
	}

	var images usecase.ImagesInfra
	if cfg.Minio.Enabled() {
		minioClient, err := clients.NewMinIOClient(cfg.Minio)
		if err != nil {
			return err
		}
		if err := clients.EnsureBucket(ctx, minioClient, cfg.Minio.BucketName, cfg.Minio.Region); err != nil {
			return err
		}
		infra := minioInfra.NewMinioInfrastructure(s3Repo.NewImageRepo(minioClient, cfg.Minio), cfg.Minio, log, ctx)
		defer func() {
			if err := infra.WaitForCleanup(ctx); err != nil {
				log.Warnf("minio cleanup: %v", err)
			}
		}()
		images = infra
	}

	var producer usecase.MessageProducer
	if cfg.Kafka.Enabled() {
		p, err := kafka.NewProducer(log, cfg.Kafka)
		if err != nil {
			return err
		}
		defer p.Close()
		if err := p.EnsureTopic(10 * time.Second); err != nil {
			log.Warnf("kafka topic check failed: %v", err)
		}
		producer = p
	} else {
		log.Warnf("KAFKA_BROKERS is empty, change events will not be published")
	}

	seedUC := usecase.NewSeedUC(pgdb.NewProductRepo(db.Pool, pgdbConv.ProductConverter{}), db.Pool, images, producer, log)
	res, err := seedUC.Apply(ctx, req)
	if err != nil {
		return err
	}

	log.Infof("seed applied: inserted=%d updated=%d deleted=%d published=%d", res.Inserted, res.Updated, res.Deleted, res.Published)
	return nil
}
