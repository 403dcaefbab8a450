package main

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/dialup-inc/camview/camera"
	"github.com/dialup-inc/camview/device"
	"github.com/dialup-inc/camview/frame"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackendMissing(t *testing.T) {
	dir := t.TempDir()
	opts := camera.DefaultOptions()
	opts.Backend = "not-installed"

	var logs bytes.Buffer
	code := run(context.Background(), opts, dir, zerolog.New(&logs))
	assert.NotEqual(t, 0, code)
	assert.Contains(t, logs.String(), "capture backend missing")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLavfiCapture(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}
	device.Init()

	dir := t.TempDir()
	opts := camera.DefaultOptions()
	opts.Backend = "lavfi"
	opts.Device = "testsrc2=size=32x24:rate=30,trim=end_frame=3"
	opts.PixelFormat = frame.RGB24

	code := run(context.Background(), opts, dir, zerolog.Nop())
	assert.Equal(t, 0, code)

	header := []byte("P6\n32 24\n255\n")
	for i := 0; i < 3; i++ {
		data, err := os.ReadFile(filepath.Join(dir, "frame"+string(rune('0'+i))+".ppm"))
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, header))
		assert.Len(t, data, len(header)+32*24*3)
	}
}

func TestGrabExitCode(t *testing.T) {
	opts := camera.DefaultOptions()
	opts.Backend = "not-installed"

	dir := t.TempDir()
	assert.Equal(t, 1, grab(opts, dir, zerolog.Nop()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
