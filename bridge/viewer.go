package bridge

import (
	"image"
	"sync"

	"github.com/dialup-inc/camview/camera"
	"github.com/dialup-inc/camview/frame"
	"github.com/dialup-inc/camview/scale"
	"github.com/dialup-inc/camview/ui"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ButtonLabel is the label of the button that starts a stream.
const ButtonLabel = "get camera stream"

// Source is a blocking frame source. Close must unblock a pending PullFrame.
type Source interface {
	PullFrame() (*frame.Frame, error)
	Close() error
}

// OpenFunc opens a new source. It runs on the worker goroutine.
type OpenFunc func() (Source, error)

// Viewer is the live camera app. Update must only be called from the UI
// goroutine; the workers it starts run on their own.
type Viewer struct {
	Open   OpenFunc
	Logger zerolog.Logger

	// OnStatus, if set, is told when workers start and stop.
	OnStatus func(ui.LogEvent)

	mailbox *Mailbox
	latest  *Delivery

	wg sync.WaitGroup

	workersMu sync.Mutex
	workers   map[*worker]struct{}
}

// Update drains the mailbox, then lays out the button and the newest frame at
// a quarter of its size.
func (v *Viewer) Update(ctx *ui.Context, p *ui.Panel) {
	v.receive()

	if p.Button(ButtonLabel) {
		v.start(ctx)
	}

	if v.latest != nil {
		size := v.latest.Texture.Size()
		p.Image(v.latest.Texture, image.Pt(size.X/4, size.Y/4))
	}
}

// Latest reports the ordinal of the frame currently shown.
func (v *Viewer) Latest() (uint64, bool) {
	if v.latest == nil {
		return 0, false
	}
	return v.latest.Seq, true
}

// Running reports whether a worker mailbox is connected.
func (v *Viewer) Running() bool {
	return v.mailbox != nil
}

func (v *Viewer) receive() {
	if v.mailbox == nil {
		v.clear()
		return
	}

	for {
		d, status := v.mailbox.TryReceive()
		switch status {
		case Ready:
			if v.latest != nil {
				v.latest.Texture.Free()
			}
			v.latest = &d
			continue
		case Disconnected:
			v.clear()
			v.mailbox = nil
		}
		return
	}
}

func (v *Viewer) clear() {
	if v.latest != nil {
		v.latest.Texture.Free()
		v.latest = nil
	}
}

func (v *Viewer) start(ctx *ui.Context) {
	if v.mailbox != nil {
		v.mailbox.Drop()
	}
	v.clear()

	mb := NewMailbox()
	v.mailbox = mb

	w := &worker{
		open:    v.Open,
		ctx:     ctx,
		mailbox: mb,
		log:     v.Logger,
		status:  v.OnStatus,
		done:    make(chan struct{}),
	}

	// The old workers still hold the device. The new one stops them and
	// waits for them to exit before opening it again.
	v.workersMu.Lock()
	if v.workers == nil {
		v.workers = map[*worker]struct{}{}
	}
	for old := range v.workers {
		w.replaces = append(w.replaces, old)
	}
	v.workers[w] = struct{}{}
	v.workersMu.Unlock()

	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		defer close(w.done)
		defer func() {
			v.workersMu.Lock()
			delete(v.workers, w)
			v.workersMu.Unlock()
		}()
		w.run()
	}()
}

// Close stops every worker, waits for them and frees the shown frame.
func (v *Viewer) Close() {
	if v.mailbox != nil {
		v.mailbox.Drop()
		v.mailbox = nil
	}
	v.clear()

	v.workersMu.Lock()
	for w := range v.workers {
		w.stop()
	}
	v.workersMu.Unlock()

	v.wg.Wait()
}

// Wait blocks until every started worker has exited.
func (v *Viewer) Wait() {
	v.wg.Wait()
}

// worker owns one source and feeds its frames to a mailbox.
type worker struct {
	open    OpenFunc
	ctx     *ui.Context
	mailbox *Mailbox
	log     zerolog.Logger
	status  func(ui.LogEvent)

	// replaces are the workers this one takes the device over from.
	replaces []*worker
	done     chan struct{}

	mu      sync.Mutex
	src     Source
	stopped bool
}

func (w *worker) report(level ui.LogLevel, text string) {
	if w.status != nil {
		w.status(ui.LogEvent{Text: text, Level: level})
	}
}

func (w *worker) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.stopped = true
	if w.src != nil {
		w.src.Close()
	}
}

func (w *worker) run() {
	defer w.mailbox.Close()
	defer w.ctx.RequestRepaint()

	for _, old := range w.replaces {
		old.stop()
		<-old.done
	}
	w.replaces = nil

	w.mu.Lock()
	stopped := w.stopped
	w.mu.Unlock()
	if stopped {
		return
	}

	src, err := w.open()
	if err != nil {
		w.log.Error().Err(err).Msg("open camera")
		w.report(ui.LogLevelError, err.Error())
		return
	}

	w.mu.Lock()
	w.src = src
	if w.stopped {
		src.Close()
	}
	w.mu.Unlock()
	defer src.Close()

	w.report(ui.LogLevelInfo, "Streaming")

	conv := &rgbaConverter{}
	for {
		f, err := src.PullFrame()
		switch {
		case err == nil:
		case errors.Is(err, camera.ErrAgain):
			continue
		case errors.Is(err, camera.ErrEndOfStream):
			w.log.Info().Uint64("dropped", w.mailbox.Drops()).Msg("camera stream ended")
			w.report(ui.LogLevelInfo, "Stream ended")
			return
		default:
			w.log.Error().Err(err).Uint64("dropped", w.mailbox.Drops()).Msg("pull frame")
			w.report(ui.LogLevelError, err.Error())
			return
		}

		img, err := conv.toRGBA(f)
		if err != nil {
			w.log.Error().Err(err).Msg("convert frame")
			w.report(ui.LogLevelError, err.Error())
			return
		}

		tex := w.ctx.LoadTexture("camera_frame", img, ui.Nearest)
		if err := w.mailbox.Send(Delivery{Texture: tex, Seq: f.Seq}); err != nil {
			tex.Free()
			w.log.Info().Err(err).Msg("viewer stopped listening")
			return
		}
		w.ctx.RequestRepaint()
	}
}

// rgbaConverter turns frames into images the UI can load. Frames that are
// already RGBA are wrapped without copying.
type rgbaConverter struct {
	sc   *scale.Context
	size frame.Size
}

func (c *rgbaConverter) toRGBA(f *frame.Frame) (*image.RGBA, error) {
	if f.Format != frame.RGBA {
		var err error
		if c.sc == nil || c.size != f.Size() {
			c.sc, err = scale.NewContext(f.Format, f.Width, f.Height, frame.RGBA, f.Width, f.Height, scale.Bilinear)
			if err != nil {
				return nil, err
			}
			c.size = f.Size()
		}
		if f, err = c.sc.Run(f); err != nil {
			return nil, err
		}
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &image.RGBA{
		Pix:    f.Plane(0),
		Stride: f.Stride(0),
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}, nil
}
