// Package extract writes every frame of a camera stream to disk.
package extract

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dialup-inc/camview/camera"
	"github.com/dialup-inc/camview/frame"
	"github.com/dialup-inc/camview/metrics"
	"github.com/dialup-inc/camview/ppm"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Source yields frames until it returns camera.ErrEndOfStream. Close must
// interrupt a pending PullFrame. *camera.Stream is a Source.
type Source interface {
	PullFrame() (*frame.Frame, error)
	Close() error
}

// Extractor writes frames as frame<N>.ppm into Dir, numbering from zero.
type Extractor struct {
	Dir    string
	Logger zerolog.Logger
}

// FileName is the name of the n-th extracted frame.
func FileName(n int) string {
	return fmt.Sprintf("frame%d.ppm", n)
}

// Run pulls frames from src until the stream ends or ctx is cancelled, and
// returns the number of frames written. Both endings return a nil error.
func (e *Extractor) Run(ctx context.Context, src Source) (int, error) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			src.Close()
		case <-done:
		}
	}()

	n := 0
	for {
		f, err := src.PullFrame()
		switch {
		case err == nil:
		case errors.Is(err, camera.ErrAgain):
			continue
		case errors.Is(err, camera.ErrEndOfStream):
			if ctx.Err() != nil {
				e.Logger.Info().Int("frames", n).Msg("interrupted")
			} else {
				e.Logger.Info().Int("frames", n).Msg("end of stream")
			}
			return n, nil
		default:
			return n, errors.Wrapf(err, "frame %d", n)
		}

		path := filepath.Join(e.Dir, FileName(n))
		if err := ppm.WriteFile(path, f); err != nil {
			return n, err
		}
		metrics.FramesWritten.Inc()
		e.Logger.Debug().Str("path", path).Uint64("seq", f.Seq).Msg("wrote frame")
		n++
	}
}
