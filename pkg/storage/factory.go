package storage

import (
	"context"
	"fmt"

	"happyshaa/internal/config"
)

func NewProvider(ctx context.Context, cfg *config.StorageConfig) (StorageProvider, error) {
	switch cfg.Provider {
	case "local", "":
		return NewLocalStorage(cfg.Local.BasePath, cfg.Local.BaseURL)
	case "s3", "aws":
		return NewAWSS3Storage(ctx, cfg.AWS.Region, cfg.AWS.Bucket, cfg.AWS.AccessKeyID, cfg.AWS.SecretAccessKey, cfg.AWS.CDNDomain)
	case "gcs", "gcp":
		return NewGCPStorage(ctx, cfg.GCP.Bucket, cfg.GCP.CredentialsFile, cfg.GCP.CDNDomain)
	case "minio":
		return NewMinIOStorage(cfg.MinIO.Endpoint, cfg.MinIO.AccessKeyID, cfg.MinIO.SecretAccessKey, cfg.MinIO.Bucket, cfg.MinIO.UseSSL, cfg.MinIO.PublicURL)
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", cfg.Provider)
	}
}
