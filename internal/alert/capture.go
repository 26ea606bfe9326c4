package alert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"sync"
	"time"

	"github.com/nfnt/resize"
)

var ErrNoStream = errors.New("no active video stream")

// CaptureSource yields the most recent still from the device camera.
type CaptureSource interface {
	Capture(ctx context.Context) (image.Image, error)
}

// FrameBuffer is a single-slot mailbox fed by the client. Each push
// overwrites the previous frame. A frame older than the staleness window
// counts as no stream.
type FrameBuffer struct {
	mu         sync.Mutex
	frame      image.Image
	receivedAt time.Time
	staleAfter time.Duration
	now        func() time.Time

	received uint64
	dropped  uint64
}

func NewFrameBuffer(staleAfter time.Duration) *FrameBuffer {
	return &FrameBuffer{
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// Push decodes an encoded still (JPEG or PNG) and stores it.
func (b *FrameBuffer) Push(data []byte) error {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode frame: %w", err)
	}
	b.PushImage(img)
	return nil
}

func (b *FrameBuffer) PushImage(img image.Image) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frame != nil {
		b.dropped++
	}
	b.frame = img
	b.receivedAt = b.now()
	b.received++
}

// Capture returns the latest frame without consuming it, so a sampling
// tick that finds no new frame reuses the last one while it is fresh.
func (b *FrameBuffer) Capture(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frame == nil || b.stale() {
		return nil, ErrNoStream
	}
	return b.frame, nil
}

// LastFrameAt is zero until the first frame arrives.
func (b *FrameBuffer) LastFrameAt() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.receivedAt
}

// Release drops the held frame. Called when monitoring stops.
func (b *FrameBuffer) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frame = nil
}

func (b *FrameBuffer) Stats() (received, overwritten uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.received, b.dropped
}

func (b *FrameBuffer) stale() bool {
	return b.staleAfter > 0 && b.now().Sub(b.receivedAt) > b.staleAfter
}

// EncodeFrame downscales img so neither side exceeds maxSize and encodes
// it as JPEG. maxSize 0 keeps the original dimensions.
func EncodeFrame(img image.Image, maxSize uint, quality int) ([]byte, error) {
	if img == nil {
		return nil, errors.New("nil frame")
	}

	bounds := img.Bounds()
	if maxSize > 0 && (uint(bounds.Dx()) > maxSize || uint(bounds.Dy()) > maxSize) {
		img = resize.Thumbnail(maxSize, maxSize, img, resize.Bilinear)
	}

	if quality <= 0 || quality > 100 {
		quality = 80
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return buf.Bytes(), nil
}
