package device

import (
	"testing"

	"github.com/blackjack/webcam"
	"github.com/dialup-inc/camview/codec"
	"github.com/dialup-inc/camview/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFourcc(t *testing.T) {
	assert.Equal(t, webcam.PixelFormat(0x56595559), fourcc("YUYV"))
	assert.Equal(t, webcam.PixelFormat(0x47504a4d), fourcc("MJPG"))
}

func TestChooseWebcamFormat(t *testing.T) {
	supported := map[webcam.PixelFormat]string{
		fourcc("MJPG"): "Motion-JPEG",
		fourcc("YUYV"): "YUYV 4:2:2",
	}

	pf, f, err := chooseWebcamFormat(supported, "")
	require.NoError(t, err)
	assert.Equal(t, fourcc("YUYV"), pf)
	assert.Equal(t, frame.YUYV422, f.format)

	pf, f, err = chooseWebcamFormat(supported, "mjpeg")
	require.NoError(t, err)
	assert.Equal(t, fourcc("MJPG"), pf)
	assert.Equal(t, codec.MJPEG, f.codec)

	// unavailable formats fall back to the preferred one
	pf, _, err = chooseWebcamFormat(supported, "nv12")
	require.NoError(t, err)
	assert.Equal(t, fourcc("YUYV"), pf)

	_, _, err = chooseWebcamFormat(map[webcam.PixelFormat]string{fourcc("H264"): "H.264"}, "")
	assert.Error(t, err)
}
