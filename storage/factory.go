package storage

import (
	"context"
	"fmt"

	"github.com/memorybook/memorybook/config"
)

// LocalBlobRoute is where the local blob directory is served.
const LocalBlobRoute = "/photos"

// NewBlobStoreFromConfig creates the BlobStore selected by BLOB_BACKEND.
func NewBlobStoreFromConfig(ctx context.Context, cfg config.AppConfig) (BlobStore, error) {
	switch cfg.BlobBackend {
	case "local":
		return NewLocalBlobStore(cfg.LocalBlobDir, cfg.PublicBaseURL+LocalBlobRoute)
	case "s3":
		return NewS3BlobStore(ctx, S3Options{
			Bucket:          cfg.PhotoBucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PublicURL:       cfg.S3PublicURL,
			UsePathStyle:    cfg.S3UsePathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown blob backend: %s", cfg.BlobBackend)
	}
}
