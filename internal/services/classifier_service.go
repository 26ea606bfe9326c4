package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"time"

	"happyshaa/internal/alert"
	"happyshaa/pkg/metrics"
	"happyshaa/pkg/vision"
)

// ClassifierService backs the classify relay endpoint: it accepts an
// encoded still, normalises it like a sampled frame and classifies it.
type ClassifierService interface {
	Classify(ctx context.Context, encoded string) (*vision.Verdict, error)
}

type classifierService struct {
	classifier   vision.Classifier
	metrics      *metrics.Metrics
	maxBytes     int64
	maxFrameSize uint
	quality      int
}

func NewClassifierService(classifier vision.Classifier, m *metrics.Metrics, maxBytes int64, maxFrameSize uint, quality int) ClassifierService {
	return &classifierService{
		classifier:   classifier,
		metrics:      m,
		maxBytes:     maxBytes,
		maxFrameSize: maxFrameSize,
		quality:      quality,
	}
}

func (s *classifierService) Classify(ctx context.Context, encoded string) (*vision.Verdict, error) {
	data, err := vision.DecodeImage(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", ErrInvalidImage, s.maxBytes)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	jpeg, err := alert.EncodeFrame(img, s.maxFrameSize, s.quality)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	start := time.Now()
	verdict, err := s.classifier.Classify(ctx, jpeg)
	if err != nil {
		s.metrics.RecordClassification("error", time.Since(start))
		return nil, fmt.Errorf("classify image: %w", err)
	}
	s.metrics.RecordClassification("ok", time.Since(start))
	return verdict, nil
}
