// Command framegrab captures from the default camera until the stream ends
// and writes every frame to frame<N>.ppm in the working directory.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dialup-inc/camview/camera"
	"github.com/dialup-inc/camview/extract"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	os.Exit(grab(camera.DefaultOptions(), ".", log.Logger))
}

// grab runs a capture that stops on SIGINT or SIGTERM. Signal handling is
// reset before it returns.
func grab(opts camera.Options, dir string, logger zerolog.Logger) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, opts, dir, logger)
}

// run returns the process exit code. Failing before the first frame is fatal;
// once frames were written, an error just ends the capture.
func run(ctx context.Context, opts camera.Options, dir string, logger zerolog.Logger) int {
	stream, err := camera.Open(opts)
	if err != nil {
		logger.Error().Err(err).Msg("open camera")
		return 1
	}
	defer stream.Close()

	e := &extract.Extractor{Dir: dir, Logger: logger}
	n, err := e.Run(ctx, stream)
	if err != nil {
		logger.Error().Err(err).Int("frames", n).Msg("capture stopped")
		if n == 0 {
			return 1
		}
	}
	return 0
}
