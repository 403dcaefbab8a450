package yuv

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromI420(t *testing.T) {
	frame := make([]byte, 4*2+2*1*2)
	for i := range frame {
		frame[i] = byte(i)
	}

	img, err := FromI420(frame, 4, 2)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 2), img.Rect)
	assert.Equal(t, frame[:8], img.Y)
	assert.Equal(t, frame[8:10], img.Cb)
	assert.Equal(t, frame[10:12], img.Cr)

	_, err = FromI420(frame[:5], 4, 2)
	assert.Error(t, err)
}

func TestFromNV12Deinterleaves(t *testing.T) {
	y := []byte{16, 16, 16, 16}
	uv := []byte{100, 200}

	img, err := FromNV12(y, uv, 2, 2, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{100}, img.Cb)
	assert.Equal(t, []byte{200}, img.Cr)

	_, err = FromNV12(y, uv[:1], 2, 2, 2, 2)
	assert.Error(t, err)
}

func TestFromPacked422(t *testing.T) {
	yuyv := []byte{10, 20, 11, 30}
	img, err := FromPacked422(yuyv, 4, 2, 1, false)
	require.NoError(t, err)
	assert.Equal(t, []byte{10, 11}, img.Y[:2])
	assert.Equal(t, byte(20), img.Cb[0])
	assert.Equal(t, byte(30), img.Cr[0])

	uyvy := []byte{20, 10, 30, 11}
	img, err = FromPacked422(uyvy, 4, 2, 1, true)
	require.NoError(t, err)
	assert.Equal(t, []byte{10, 11}, img.Y[:2])
	assert.Equal(t, byte(20), img.Cb[0])
	assert.Equal(t, byte(30), img.Cr[0])
}

func TestToI420KeepsI420(t *testing.T) {
	src := image.NewYCbCr(image.Rect(0, 0, 4, 4), image.YCbCrSubsampleRatio420)
	assert.Same(t, src, ToI420(src))

	rgba := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < 4; i++ {
		rgba.Set(i%2, i/2, color.White)
	}
	out := ToI420(rgba)
	assert.Equal(t, image.YCbCrSubsampleRatio420, out.SubsampleRatio)
	assert.Equal(t, byte(255), out.Y[0])
}
