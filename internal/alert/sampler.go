package alert

import (
	"context"
	"errors"
	"sync"
	"time"

	"happyshaa/pkg/logger"
	"happyshaa/pkg/metrics"
	"happyshaa/pkg/vision"
)

type SamplerConfig struct {
	Interval     time.Duration
	MaxFrameSize uint
	JPEGQuality  int
	MaxInFlight  int
}

// Sampler periodically grabs a frame, classifies it and feeds the verdict
// to the arbiter. Classification runs off the ticker goroutine so a slow
// call overlaps the next tick; at most MaxInFlight run at once.
type Sampler struct {
	source     CaptureSource
	classifier vision.Classifier
	arbiter    *Arbiter
	config     SamplerConfig
	inFlight   chan struct{}
	wg         sync.WaitGroup
	logger     *logger.Logger
	metrics    *metrics.Metrics
}

func NewSampler(source CaptureSource, classifier vision.Classifier, arbiter *Arbiter, config SamplerConfig, log *logger.Logger, m *metrics.Metrics) *Sampler {
	if config.Interval <= 0 {
		config.Interval = 5 * time.Second
	}
	if config.MaxInFlight < 1 {
		config.MaxInFlight = 1
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Sampler{
		source:     source,
		classifier: classifier,
		arbiter:    arbiter,
		config:     config,
		inFlight:   make(chan struct{}, config.MaxInFlight),
		logger:     log,
		metrics:    m,
	}
}

// Run samples until ctx is done, then waits for in-flight classifications.
func (s *Sampler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()
	defer s.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sampler) tick(ctx context.Context) {
	select {
	case s.inFlight <- struct{}{}:
	default:
		s.metrics.RecordFrame("skipped_busy")
		s.logger.Debug("Classification still in flight, skipping sample")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() { <-s.inFlight }()
		_, _ = s.SampleOnce(ctx)
	}()
}

// SampleOnce runs one capture-classify-evaluate cycle. It returns the
// verdict, or nil when the cycle was skipped.
func (s *Sampler) SampleOnce(ctx context.Context) (*vision.Verdict, error) {
	if s.arbiter.State() != StateMonitoring {
		s.metrics.RecordFrame("skipped_state")
		return nil, nil
	}

	img, err := s.source.Capture(ctx)
	if err != nil {
		if errors.Is(err, ErrNoStream) {
			s.metrics.RecordFrame("no_stream")
			s.logger.Debug("No active video stream, skipping sample")
		} else {
			s.metrics.RecordFrame("capture_error")
			s.logger.WithError(err).Warn("Failed to capture frame")
		}
		return nil, err
	}

	photo, err := EncodeFrame(img, s.config.MaxFrameSize, s.config.JPEGQuality)
	if err != nil {
		s.metrics.RecordFrame("encode_error")
		s.logger.WithError(err).Warn("Failed to encode frame")
		return nil, err
	}

	// read before classifying so a verdict that outlives its session is dropped
	epoch := s.arbiter.Epoch()

	start := time.Now()
	verdict, err := s.classifier.Classify(ctx, photo)
	if err != nil {
		s.metrics.RecordClassification("error", time.Since(start))
		s.metrics.RecordFrame("classify_error")
		s.logger.WithError(err).Warn("Frame classification failed, retrying next tick")
		return nil, err
	}
	s.metrics.RecordClassification("ok", time.Since(start))
	s.metrics.RecordFrame("classified")

	s.logger.WithFields(map[string]interface{}{
		"emergency":  verdict.Emergency,
		"confidence": verdict.Confidence,
		"type":       verdict.Type,
	}).Debug("Frame classified")

	s.arbiter.Evaluate(ctx, verdict, photo, epoch)
	return verdict, nil
}
