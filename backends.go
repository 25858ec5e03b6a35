package main

import (
	"context"
	"fmt"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"

	"imagegallery/blobstore"
	"imagegallery/config"
	"imagegallery/database"
	"imagegallery/store"
)

// openMetadata returns the configured metadata repository and a function
// releasing its connection.
func openMetadata(ctx context.Context, cfg config.Config) (store.MetadataRepository, func(), error) {
	switch cfg.Storage.MetadataBackend {
	case "sqlite":
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath())
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("path", cfg.SQLitePath()).Msg("using sqlite metadata")
		return store.NewSQLiteRepository(db), func() { db.Close() }, nil

	case "mongo":
		client, err := database.ConnectMongo(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, nil, err
		}
		coll := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
		repo, err := store.NewMongoRepository(ctx, coll)
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Str("collection", cfg.Mongo.Collection).Msg("using mongo metadata")
		return repo, func() { _ = client.Disconnect(context.Background()) }, nil

	default:
		if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
		log.Info().Str("path", cfg.MetadataPath()).Msg("using file metadata")
		return store.NewFileRepository(cfg.MetadataPath()), func() {}, nil
	}
}

func openBlobs(ctx context.Context, cfg config.Config) (blobstore.Store, error) {
	switch cfg.Storage.BlobBackend {
	case "s3":
		var opts []func(*awsconfig.LoadOptions) error
		if cfg.S3.Region != "" {
			opts = append(opts, awsconfig.WithRegion(cfg.S3.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		log.Info().Str("bucket", cfg.S3.Bucket).Str("region", awsCfg.Region).Msg("using s3 payload store")
		return blobstore.NewS3Store(s3.NewFromConfig(awsCfg), cfg.S3.Bucket, cfg.Storage.BlobPrefix), nil

	case "minio":
		client, err := minio.New(cfg.Minio.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.Minio.AccessKey, cfg.Minio.SecretKey, ""),
			Secure: cfg.Minio.UseSSL,
			Region: cfg.S3.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		exists, err := client.BucketExists(ctx, cfg.S3.Bucket)
		if err != nil {
			return nil, fmt.Errorf("check bucket %s: %w", cfg.S3.Bucket, err)
		}
		if !exists {
			if err := client.MakeBucket(ctx, cfg.S3.Bucket, minio.MakeBucketOptions{Region: cfg.S3.Region}); err != nil {
				return nil, fmt.Errorf("create bucket %s: %w", cfg.S3.Bucket, err)
			}
		}
		log.Info().Str("endpoint", cfg.Minio.Endpoint).Str("bucket", cfg.S3.Bucket).Msg("using minio payload store")
		return blobstore.NewMinioStore(client, cfg.S3.Bucket, cfg.Storage.BlobPrefix), nil

	default:
		log.Info().Str("dir", cfg.ImagesDir()).Msg("using local payload store")
		return blobstore.NewLocalStore(cfg.ImagesDir())
	}
}
