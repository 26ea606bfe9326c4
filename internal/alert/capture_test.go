package alert

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFrameBufferEmpty(t *testing.T) {
	b := NewFrameBuffer(time.Second)
	_, err := b.Capture(context.Background())
	assert.ErrorIs(t, err, ErrNoStream)
	assert.True(t, b.LastFrameAt().IsZero())
}

func TestFrameBufferLatestWins(t *testing.T) {
	b := NewFrameBuffer(time.Minute)
	require.NoError(t, b.Push(pngBytes(t, solidImage(4, 4))))
	require.NoError(t, b.Push(pngBytes(t, solidImage(8, 2))))

	img, err := b.Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())

	received, overwritten := b.Stats()
	assert.Equal(t, uint64(2), received)
	assert.Equal(t, uint64(1), overwritten)
}

func TestFrameBufferStale(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := NewFrameBuffer(10 * time.Second)
	b.now = func() time.Time { return now }

	b.PushImage(solidImage(2, 2))
	_, err := b.Capture(context.Background())
	require.NoError(t, err)

	now = now.Add(11 * time.Second)
	_, err = b.Capture(context.Background())
	assert.ErrorIs(t, err, ErrNoStream)
}

func TestFrameBufferRelease(t *testing.T) {
	b := NewFrameBuffer(time.Minute)
	b.PushImage(solidImage(2, 2))
	b.Release()

	_, err := b.Capture(context.Background())
	assert.ErrorIs(t, err, ErrNoStream)
}

func TestFrameBufferRejectsGarbage(t *testing.T) {
	b := NewFrameBuffer(time.Minute)
	assert.Error(t, b.Push([]byte("definitely not an image")))
}

func TestEncodeFrameDownscales(t *testing.T) {
	out, err := EncodeFrame(solidImage(1280, 720), 640, 80)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 640, img.Bounds().Dx())
	assert.Equal(t, 360, img.Bounds().Dy())
}

func TestEncodeFrameKeepsSmallFrames(t *testing.T) {
	out, err := EncodeFrame(solidImage(320, 240), 640, 0)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
}

func TestEncodeFrameNil(t *testing.T) {
	_, err := EncodeFrame(nil, 640, 80)
	assert.Error(t, err)
}
