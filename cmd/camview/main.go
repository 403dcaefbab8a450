// Command camview shows a live camera feed in the terminal.
//
// Press enter (or space) to start the stream and ctrl-c to quit.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dialup-inc/camview/bridge"
	"github.com/dialup-inc/camview/camera"
	"github.com/dialup-inc/camview/device"
	"github.com/dialup-inc/camview/frame"
	"github.com/dialup-inc/camview/metrics"
	"github.com/dialup-inc/camview/term"
	"github.com/dialup-inc/camview/ui"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	defaults := camera.DefaultOptions()
	var (
		backend     = flag.String("backend", "", "input format (avfoundation, v4l2, lavfi); empty for the platform camera")
		dev         = flag.String("device", defaults.Device, "device to open")
		framerate   = flag.Int("framerate", defaults.Framerate, "requested frames per second")
		size        = flag.String("size", "", "requested capture size, e.g. 640x480")
		inputFormat = flag.String("input-format", "", "requested capture pixel format, e.g. bgr0")
		logLevel    = flag.String("log-level", "info", "log level")
		metricsAddr = flag.String("metrics-addr", "", "serve prometheus metrics on this address")
		list        = flag.Bool("list", false, "list devices and exit")
	)
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	opts := camera.Options{
		Device:           *dev,
		Framerate:        *framerate,
		PixelFormat:      frame.RGBA,
		Backend:          *backend,
		InputPixelFormat: *inputFormat,
	}
	if *size != "" {
		if opts.VideoSize, err = frame.ParseSize(*size); err != nil {
			log.Fatal().Err(err).Msg("bad -size")
		}
	}

	if *list {
		if err := listDevices(os.Stdout, opts.Backend); err != nil {
			log.Fatal().Err(err).Msg("list devices")
		}
		return
	}

	if *metricsAddr != "" {
		metrics.NewServer("camview").ListenAndServe(*metricsAddr)
	}

	if err := run(opts); err != nil {
		log.Fatal().Err(err).Msg("camview")
	}
}

func listDevices(out io.Writer, backend string) error {
	device.Init()
	fmt.Fprintf(out, "input formats: %s\n", strings.Join(device.Formats(), ", "))

	if backend == "" {
		name, err := device.PlatformDefault()
		if err != nil {
			return err
		}
		backend = name
	}

	devices, err := device.List(backend)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s devices:\n", backend)
	for i, d := range devices {
		fmt.Fprintf(out, "[%d] %s\n", i, d)
	}
	return nil
}

func run(opts camera.Options) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	// runs last, after the workers stopped and the terminal was restored
	defer holdLogs(os.Stderr)()

	viewer := &bridge.Viewer{
		Open: func() (bridge.Source, error) {
			s, err := camera.Open(opts)
			if err != nil {
				return nil, err
			}
			return s, nil
		},
		Logger: log.Logger,
	}
	defer viewer.Close()

	renderer := ui.NewRenderer(viewer, os.Stdout)
	viewer.OnStatus = func(e ui.LogEvent) {
		renderer.Dispatch(e)
	}
	renderer.Dispatch(ui.LogEvent{Text: "Press Enter to start the camera, ctrl-c to quit"})

	restore, err := term.CaptureStdin(func(r rune) {
		renderer.Dispatch(ui.KeypressEvent(r))
	})
	if err != nil {
		return err
	}
	defer restore()

	winSize, err := term.GetWinSize()
	if err != nil {
		return err
	}
	renderer.Dispatch(ui.ResizeEvent(winSize))

	resize := make(chan os.Signal, 1)
	signal.Notify(resize, syscall.SIGWINCH)
	defer signal.Stop(resize)
	go func() {
		for range resize {
			if ws, err := term.GetWinSize(); err == nil {
				renderer.Dispatch(ui.ResizeEvent(ws))
			}
		}
	}()

	renderer.Run(ctx)
	return nil
}

// holdLogs buffers the global logger while the renderer owns the terminal.
// The returned func restores the logger and copies what was held to out.
func holdLogs(out io.Writer) func() {
	var held bytes.Buffer
	prev := log.Logger
	log.Logger = prev.Output(zerolog.ConsoleWriter{Out: zerolog.SyncWriter(&held), NoColor: true})

	return func() {
		log.Logger = prev
		out.Write(held.Bytes())
	}
}
