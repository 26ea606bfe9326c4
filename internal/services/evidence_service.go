package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"happyshaa/pkg/logger"
	"happyshaa/pkg/metrics"
	"happyshaa/pkg/storage"
)

type EvidenceService interface {
	// Upload stores an alert photo and returns its public URL.
	Upload(ctx context.Context, userID string, photo []byte, at time.Time) (string, error)
}

type evidenceService struct {
	storage storage.StorageProvider
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewEvidenceService(provider storage.StorageProvider, log *logger.Logger, m *metrics.Metrics) EvidenceService {
	return &evidenceService{
		storage: provider,
		logger:  log.WithField("component", "evidence"),
		metrics: m,
	}
}

func EvidenceKey(userID string, at time.Time) string {
	return fmt.Sprintf("emergency/%s/%d.jpg", userID, at.UnixMilli())
}

func (s *evidenceService) Upload(ctx context.Context, userID string, photo []byte, at time.Time) (string, error) {
	if len(photo) == 0 {
		return "", fmt.Errorf("%w: empty photo", ErrInvalidImage)
	}

	resp, err := s.storage.Upload(ctx, &storage.UploadRequest{
		Key:          EvidenceKey(userID, at),
		Reader:       bytes.NewReader(photo),
		ContentType:  "image/jpeg",
		Size:         int64(len(photo)),
		CacheControl: "private, max-age=86400",
		Encrypt:      true,
		Metadata: map[string]string{
			"user-id": userID,
		},
	})
	s.metrics.RecordEvidenceUpload(err == nil)
	if err != nil {
		return "", fmt.Errorf("upload evidence: %w", err)
	}

	s.logger.WithUserID(userID).WithField("key", resp.Key).Info("Evidence uploaded")
	return resp.URL, nil
}
