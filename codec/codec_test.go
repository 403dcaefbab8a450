package codec

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/dialup-inc/camview/frame"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDecoderUnknownCodec(t *testing.T) {
	_, err := NewDecoder(Parameters{Codec: "h264", Width: 2, Height: 2})
	assert.True(t, errors.Is(err, ErrUnsupportedCodec))

	_, err = NewDecoder(Parameters{Codec: RawVideo, Width: 2, Height: 2})
	assert.True(t, errors.Is(err, ErrUnsupportedCodec))

	_, err = NewDecoder(Parameters{Codec: RawVideo, Width: 0, Height: 2, PixelFormat: frame.RGB24})
	assert.Error(t, err)
}

func TestRawVideoSendReceive(t *testing.T) {
	dec, err := NewDecoder(Parameters{Codec: RawVideo, Width: 2, Height: 1, PixelFormat: frame.BGR0})
	require.NoError(t, err)
	defer dec.Close()

	assert.Equal(t, frame.BGR0, dec.Format())
	assert.Equal(t, frame.Size{Width: 2, Height: 1}, dec.Size())

	_, err = dec.ReceiveFrame()
	assert.Equal(t, ErrAgain, err)

	pkt := []byte{1, 2, 3, 0, 4, 5, 6, 0}
	require.NoError(t, dec.SendPacket(pkt))
	f, err := dec.ReceiveFrame()
	require.NoError(t, err)
	assert.Equal(t, pkt, f.Plane(0))
	assert.Equal(t, 8, f.Stride(0))

	pkt[0] = 99
	assert.Equal(t, byte(1), f.Plane(0)[0], "frame must not alias the packet")

	_, err = dec.ReceiveFrame()
	assert.Equal(t, ErrAgain, err)
}

func TestRawVideoPlanar(t *testing.T) {
	dec, err := NewDecoder(Parameters{Codec: RawVideo, Width: 2, Height: 2, PixelFormat: frame.YUV420P})
	require.NoError(t, err)

	require.NoError(t, dec.SendPacket([]byte{1, 2, 3, 4, 5, 6}))
	f, err := dec.ReceiveFrame()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, f.Plane(0))
	assert.Equal(t, []byte{5}, f.Plane(1))
	assert.Equal(t, []byte{6}, f.Plane(2))
}

func TestRawVideoShortPacket(t *testing.T) {
	dec, err := NewDecoder(Parameters{Codec: RawVideo, Width: 2, Height: 2, PixelFormat: frame.RGB24})
	require.NoError(t, err)
	assert.Error(t, dec.SendPacket([]byte{1, 2, 3}))
}

func TestDrainAfterEOF(t *testing.T) {
	dec, err := NewDecoder(Parameters{Codec: RawVideo, Width: 1, Height: 1, PixelFormat: frame.Gray8})
	require.NoError(t, err)

	require.NoError(t, dec.SendPacket([]byte{7}))
	require.NoError(t, dec.SendPacket([]byte{8}))
	require.NoError(t, dec.SendEOF())

	assert.Error(t, dec.SendEOF())
	assert.Error(t, dec.SendPacket([]byte{9}))

	for _, want := range []byte{7, 8} {
		f, err := dec.ReceiveFrame()
		require.NoError(t, err)
		assert.Equal(t, want, f.Plane(0)[0])
	}
	for i := 0; i < 3; i++ {
		_, err = dec.ReceiveFrame()
		assert.Equal(t, ErrEOF, err)
	}
}

func TestMJPEGDecode(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 16, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			src.Set(x, y, color.RGBA{0xff, 0, 0, 0xff})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, src, &jpeg.Options{Quality: 90}))

	dec, err := NewDecoder(Parameters{Codec: MJPEG, Width: 16, Height: 8})
	require.NoError(t, err)
	require.NoError(t, dec.SendPacket(buf.Bytes()))

	f, err := dec.ReceiveFrame()
	require.NoError(t, err)
	assert.Equal(t, 16, f.Width)
	assert.Equal(t, 8, f.Height)
	assert.Contains(t, []frame.PixelFormat{frame.YUV420P, frame.YUV422P, frame.YUV444P}, f.Format)
	assert.NoError(t, f.Validate())

	assert.Error(t, dec.SendPacket([]byte("not a jpeg")))
}
