package storage

import (
	"context"
	"io"
)

// StorageProvider stores evidence photos and returns a URL that emergency
// contacts can open.
type StorageProvider interface {
	Upload(ctx context.Context, request *UploadRequest) (*UploadResponse, error)
	Delete(ctx context.Context, key string) error
	FileExists(ctx context.Context, key string) (bool, error)
}

type UploadRequest struct {
	Key          string            `json:"key"`
	Reader       io.Reader         `json:"-"`
	ContentType  string            `json:"content_type"`
	Size         int64             `json:"size"`
	Metadata     map[string]string `json:"metadata"`
	ACL          string            `json:"acl"`
	CacheControl string            `json:"cache_control"`
	// Encrypt asks the backend for server-side encryption at rest where it
	// is not already the default.
	Encrypt bool `json:"encrypt"`
}

type UploadResponse struct {
	Key      string `json:"key"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
	ETag     string `json:"etag"`
	Location string `json:"location"`
}
