package bridge

import (
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/dialup-inc/camview/camera"
	"github.com/dialup-inc/camview/frame"
	"github.com/dialup-inc/camview/ui"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texture(ctx *ui.Context) *ui.Texture {
	return ctx.LoadTexture("t", image.NewRGBA(image.Rect(0, 0, 4, 4)), ui.Nearest)
}

func TestMailboxLatestWins(t *testing.T) {
	ctx := ui.NewContext(nil)
	mb := NewMailbox()

	_, status := mb.TryReceive()
	assert.Equal(t, Empty, status)

	first := texture(ctx)
	require.NoError(t, mb.Send(Delivery{Texture: first, Seq: 1}))
	require.NoError(t, mb.Send(Delivery{Texture: texture(ctx), Seq: 2}))
	assert.Nil(t, first.Image(), "overwritten delivery is freed")
	assert.Equal(t, uint64(1), mb.Drops())
	assert.Equal(t, 1, ctx.LiveTextures())

	d, status := mb.TryReceive()
	assert.Equal(t, Ready, status)
	assert.Equal(t, uint64(2), d.Seq)

	_, status = mb.TryReceive()
	assert.Equal(t, Empty, status)
}

func TestMailboxClose(t *testing.T) {
	ctx := ui.NewContext(nil)
	mb := NewMailbox()

	require.NoError(t, mb.Send(Delivery{Texture: texture(ctx), Seq: 7}))
	mb.Close()

	d, status := mb.TryReceive()
	assert.Equal(t, Ready, status)
	assert.Equal(t, uint64(7), d.Seq)

	_, status = mb.TryReceive()
	assert.Equal(t, Disconnected, status)

	assert.Equal(t, ErrMailboxClosed, mb.Send(Delivery{Seq: 8}))
}

func TestMailboxDrop(t *testing.T) {
	ctx := ui.NewContext(nil)
	mb := NewMailbox()

	require.NoError(t, mb.Send(Delivery{Texture: texture(ctx)}))
	mb.Drop()
	assert.Equal(t, 0, ctx.LiveTextures())

	assert.Equal(t, ErrReceiverGone, mb.Send(Delivery{Texture: texture(ctx)}))
	_, status := mb.TryReceive()
	assert.Equal(t, Disconnected, status)
}

// fakeSource yields frames 0..n-1, then fails with err, or blocks until
// closed when err is nil.
type fakeSource struct {
	n       int
	err     error
	format  frame.PixelFormat
	next    int
	again   bool
	waiting chan struct{}

	mu      sync.Mutex
	closed  chan struct{}
	once    sync.Once
	onClose func()
}

func newFakeSource(n int, err error) *fakeSource {
	return &fakeSource{
		n:       n,
		err:     err,
		format:  frame.RGBA,
		waiting: make(chan struct{}),
		closed:  make(chan struct{}),
	}
}

func (s *fakeSource) PullFrame() (*frame.Frame, error) {
	if s.next < s.n {
		// every other pull reports that no frame is ready yet
		s.again = !s.again
		if s.again {
			return nil, camera.ErrAgain
		}
		f, _ := frame.New(s.format, 8, 4)
		f.Seq = uint64(s.next)
		s.next++
		return f, nil
	}
	if s.err != nil {
		return nil, s.err
	}

	s.once.Do(func() { close(s.waiting) })
	<-s.closed
	return nil, camera.ErrEndOfStream
}

func (s *fakeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.closed:
	default:
		close(s.closed)
		if s.onClose != nil {
			s.onClose()
		}
	}
	return nil
}

func opener(src Source) OpenFunc {
	return func() (Source, error) { return src, nil }
}

// tick runs one UI frame and returns the ordinal drawn, if any.
func tick(v *Viewer, ctx *ui.Context, click bool) (uint64, bool) {
	p := ui.NewPanel(click)
	v.Update(ctx, p)
	for _, w := range p.Widgets() {
		if img, ok := w.(ui.ImageWidget); ok {
			size := img.Texture.Size()
			if img.Size != image.Pt(size.X/4, size.Y/4) {
				panic("image not drawn at a quarter of its size")
			}
			return v.Latest()
		}
	}
	return 0, false
}

func TestViewerLatestWins(t *testing.T) {
	ctx := ui.NewContext(nil)
	src := newFakeSource(100, nil)
	v := &Viewer{Open: opener(src), Logger: zerolog.Nop()}
	defer v.Close()

	_, drawn := tick(v, ctx, true)
	assert.False(t, drawn)

	var rendered []uint64
	for i := 0; i < 8; i++ {
		time.Sleep(time.Millisecond)
		if seq, ok := tick(v, ctx, false); ok {
			if len(rendered) == 0 || rendered[len(rendered)-1] != seq {
				rendered = append(rendered, seq)
			}
		}
	}

	select {
	case <-src.waiting:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not consume the source")
	}

	seq, ok := tick(v, ctx, false)
	require.True(t, ok)
	if len(rendered) == 0 || rendered[len(rendered)-1] != seq {
		rendered = append(rendered, seq)
	}

	for i := 1; i < len(rendered); i++ {
		assert.True(t, rendered[i] > rendered[i-1], "ordinals %v", rendered)
	}
	assert.True(t, rendered[len(rendered)-1] >= 90)
	assert.True(t, ctx.LiveTextures() <= 2)
}

func TestViewerWorkerDies(t *testing.T) {
	ctx := ui.NewContext(nil)
	src := newFakeSource(4, errors.Wrap(camera.ErrIO, "device lost"))

	var statusMu sync.Mutex
	var statuses []ui.LogEvent
	v := &Viewer{
		Open:   opener(src),
		Logger: zerolog.Nop(),
		OnStatus: func(e ui.LogEvent) {
			statusMu.Lock()
			statuses = append(statuses, e)
			statusMu.Unlock()
		},
	}

	tick(v, ctx, true)
	assert.True(t, v.Running())

	v.Wait()

	_, drawn := tick(v, ctx, false)
	assert.False(t, drawn)
	assert.False(t, v.Running())
	_, ok := v.Latest()
	assert.False(t, ok)
	assert.Equal(t, 0, ctx.LiveTextures())

	statusMu.Lock()
	defer statusMu.Unlock()
	require.NotEmpty(t, statuses)
	assert.Equal(t, ui.LogLevelError, statuses[len(statuses)-1].Level)
}

func TestViewerOpenFails(t *testing.T) {
	ctx := ui.NewContext(nil)
	v := &Viewer{
		Open:   func() (Source, error) { return nil, camera.ErrBackendMissing },
		Logger: zerolog.Nop(),
	}

	tick(v, ctx, true)
	v.Wait()
	tick(v, ctx, false)
	assert.False(t, v.Running())
}

func TestViewerRestart(t *testing.T) {
	ctx := ui.NewContext(nil)
	first := newFakeSource(3, nil)
	second := newFakeSource(3, nil)

	sources := []*fakeSource{first, second}
	v := &Viewer{
		Open: func() (Source, error) {
			s := sources[0]
			sources = sources[1:]
			return s, nil
		},
		Logger: zerolog.Nop(),
	}

	tick(v, ctx, true)
	<-first.waiting
	seq, ok := tick(v, ctx, false)
	require.True(t, ok)
	assert.Equal(t, uint64(2), seq)

	// clicking again stops the first worker before the second opens
	tick(v, ctx, true)
	<-second.waiting
	select {
	case <-first.closed:
	default:
		t.Fatal("first source still open")
	}

	v.Close()
	assert.Equal(t, 0, ctx.LiveTextures())
}

func TestViewerConvertsFrames(t *testing.T) {
	ctx := ui.NewContext(nil)
	src := newFakeSource(1, nil)
	src.format = frame.RGB24
	v := &Viewer{Open: opener(src), Logger: zerolog.Nop()}
	defer v.Close()

	tick(v, ctx, true)
	<-src.waiting

	_, ok := tick(v, ctx, false)
	require.True(t, ok)
	img := v.latest.Texture.Image()
	assert.Equal(t, image.Rect(0, 0, 8, 4), img.Rect)
	assert.Equal(t, color.RGBA{0, 0, 0, 0xff}, img.RGBAAt(0, 0))
}

// exclusiveDevice refuses to open while a source it handed out is still open.
type exclusiveDevice struct {
	mu     sync.Mutex
	held   bool
	opened []*fakeSource
}

func (d *exclusiveDevice) open() (Source, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.held {
		return nil, errors.Wrap(camera.ErrDeviceOpenFailed, "device busy")
	}
	d.held = true

	src := newFakeSource(2, nil)
	src.onClose = func() {
		d.mu.Lock()
		d.held = false
		d.mu.Unlock()
	}
	d.opened = append(d.opened, src)
	return src, nil
}

func (d *exclusiveDevice) source(i int) *fakeSource {
	d.mu.Lock()
	defer d.mu.Unlock()

	if i >= len(d.opened) {
		return nil
	}
	return d.opened[i]
}

func TestViewerRestartExclusiveDevice(t *testing.T) {
	ctx := ui.NewContext(nil)
	dev := &exclusiveDevice{}
	v := &Viewer{Open: dev.open, Logger: zerolog.Nop()}
	defer v.Close()

	tick(v, ctx, true)
	require.Eventually(t, func() bool { return dev.source(0) != nil }, 5*time.Second, time.Millisecond)
	<-dev.source(0).waiting
	_, ok := tick(v, ctx, false)
	require.True(t, ok)

	tick(v, ctx, true)
	require.Eventually(t, func() bool { return dev.source(1) != nil }, 5*time.Second, time.Millisecond)
	<-dev.source(1).waiting

	seq, ok := tick(v, ctx, false)
	require.True(t, ok)
	assert.Equal(t, uint64(1), seq)
	assert.True(t, v.Running())
}
