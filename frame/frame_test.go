package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPackedPlaneLength(t *testing.T) {
	cases := []struct {
		format PixelFormat
		bpp    int
	}{
		{RGB24, 3},
		{RGBA, 4},
		{BGR0, 4},
		{ZeroRGB, 4},
		{Gray8, 1},
	}
	for _, c := range cases {
		f, err := New(c.format, 7, 5)
		require.NoError(t, err, c.format.String())
		assert.Len(t, f.Planes, 1)
		assert.Equal(t, 7*c.bpp, f.Stride(0))
		assert.GreaterOrEqual(t, len(f.Plane(0)), 7*5*c.bpp, c.format.String())
		assert.NoError(t, f.Validate())
	}
}

func TestNewPlanarGeometry(t *testing.T) {
	f, err := New(YUV420P, 5, 3)
	require.NoError(t, err)
	require.Len(t, f.Planes, 3)
	assert.Len(t, f.Plane(0), 15)
	assert.Len(t, f.Plane(1), 3*2)
	assert.Len(t, f.Plane(2), 3*2)
	assert.Equal(t, YUV420P.Size(5, 3), 15+6+6)

	nv, err := New(NV12, 4, 4)
	require.NoError(t, err)
	assert.Len(t, nv.Plane(1), 4*2)
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New(RGB24, 0, 10)
	assert.Error(t, err)
	_, err = New(None, 10, 10)
	assert.Error(t, err)
}

func TestPlaneOutOfRange(t *testing.T) {
	f, err := New(RGB24, 2, 2)
	require.NoError(t, err)
	assert.Nil(t, f.Plane(1))
	assert.Nil(t, f.Plane(-1))
	assert.Equal(t, 0, f.Stride(3))
}

func TestValidateShortPlane(t *testing.T) {
	f := &Frame{
		Width:   4,
		Height:  4,
		Format:  RGB24,
		Planes:  [][]byte{make([]byte, 4*4*3-1)},
		Strides: []int{12},
	}
	assert.Error(t, f.Validate())

	f.Planes[0] = make([]byte, 16*3+12)
	f.Strides[0] = 16
	assert.NoError(t, f.Validate())
}

func TestRowSkipsPadding(t *testing.T) {
	f := &Frame{
		Width:   2,
		Height:  2,
		Format:  Gray8,
		Planes:  [][]byte{{1, 2, 0, 0, 3, 4}},
		Strides: []int{4},
	}
	assert.Equal(t, []byte{1, 2}, f.Row(0, 0))
	assert.Equal(t, []byte{3, 4}, f.Row(0, 1))
}

func TestParsePixelFormat(t *testing.T) {
	for p, name := range formatNames {
		got, err := ParsePixelFormat(name)
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}

	got, err := ParsePixelFormat("yuvj420p")
	require.NoError(t, err)
	assert.Equal(t, YUV420P, got)

	got, err = ParsePixelFormat(" RGBA8 ")
	require.NoError(t, err)
	assert.Equal(t, RGBA, got)

	_, err = ParsePixelFormat("p010le")
	assert.Error(t, err)
}

func TestParseSize(t *testing.T) {
	s, err := ParseSize("320x240")
	require.NoError(t, err)
	assert.Equal(t, Size{320, 240}, s)
	assert.Equal(t, "320x240", s.String())

	for _, bad := range []string{"", "320", "0x240", "ax2", "3x-1"} {
		_, err := ParseSize(bad)
		assert.Error(t, err, bad)
	}
}
