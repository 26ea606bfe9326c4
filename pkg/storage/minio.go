package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinIOStorage struct {
	client    *minio.Client
	endpoint  string
	bucket    string
	useSSL    bool
	publicURL string

	bucketOnce sync.Once
	bucketErr  error
}

func NewMinIOStorage(endpoint, accessKey, secretKey, bucket string, useSSL bool, publicURL string) (*MinIOStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinIOStorage{
		client:    client,
		endpoint:  endpoint,
		bucket:    bucket,
		useSSL:    useSSL,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

func (m *MinIOStorage) ensureBucket(ctx context.Context) error {
	m.bucketOnce.Do(func() {
		exists, err := m.client.BucketExists(ctx, m.bucket)
		if err != nil {
			m.bucketErr = err
			return
		}
		if !exists {
			m.bucketErr = m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
		}
	})
	return m.bucketErr
}

func (m *MinIOStorage) Upload(ctx context.Context, request *UploadRequest) (*UploadResponse, error) {
	if err := m.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to prepare MinIO bucket: %w", err)
	}

	size := request.Size
	if size <= 0 {
		size = -1
	}

	info, err := m.client.PutObject(ctx, m.bucket, request.Key, request.Reader, size, minio.PutObjectOptions{
		ContentType:  request.ContentType,
		CacheControl: request.CacheControl,
		UserMetadata: request.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to MinIO: %w", err)
	}

	return &UploadResponse{
		Key:  request.Key,
		URL:  m.generateURL(request.Key),
		Size: info.Size,
		ETag: info.ETag,
	}, nil
}

func (m *MinIOStorage) Delete(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete from MinIO: %w", err)
	}
	return nil
}

func (m *MinIOStorage) FileExists(ctx context.Context, key string) (bool, error) {
	_, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (m *MinIOStorage) generateURL(key string) string {
	if m.publicURL != "" {
		return m.publicURL + "/" + key
	}
	scheme := "http://"
	if m.useSSL {
		scheme = "https://"
	}
	return scheme + m.endpoint + "/" + m.bucket + "/" + key
}
