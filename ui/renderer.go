// Package ui is a small immediate-mode toolkit drawn with ANSI escapes.
//
// An App describes each frame by calling Panel methods; the Renderer turns
// the panel into terminal output whenever a repaint is requested, and at
// least every 200ms.
package ui

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"io"
	"reflect"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dialup-inc/camview/term"
)

var defaultWinSize = term.WinSize{Rows: 24, Cols: 80}

func NewRenderer(app App, out io.Writer) *Renderer {
	r := &Renderer{
		requestFrame: make(chan struct{}, 1),
		quit:         make(chan struct{}),
		app:          app,
		out:          out,
	}
	r.ctx = NewContext(r.RequestFrame)
	return r
}

type Renderer struct {
	requestFrame chan struct{}

	quitOnce sync.Once
	quit     chan struct{}

	stateMu sync.Mutex
	state   State

	app App
	ctx *Context
	out io.Writer

	blit blitCache
}

// blitCache holds the cells of the last texture drawn. Textures are never
// modified after upload, so the same id at the same cell size draws the same.
type blitCache struct {
	id         int
	cols, rows int
	aspect     float64
	lines      [][]byte
}

func (r *Renderer) cells(t *Texture, img image.Image, cols, rows int, aspect float64) [][]byte {
	c := &r.blit
	if c.id == t.ID() && c.cols == cols && c.rows == rows && c.aspect == aspect {
		return c.lines
	}
	*c = blitCache{
		id:     t.ID(),
		cols:   cols,
		rows:   rows,
		aspect: aspect,
		lines:  Image2ANSI(img, cols, rows, aspect, t.Filter()),
	}
	return c.lines
}

// Context is the handle workers use to upload textures and request repaints.
func (r *Renderer) Context() *Context {
	return r.ctx
}

func (r *Renderer) GetState() State {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()

	return r.state
}

func (r *Renderer) Dispatch(e Event) {
	r.stateMu.Lock()
	newState := StateReducer(r.state, e)
	var changed bool
	if !reflect.DeepEqual(r.state, newState) {
		changed = true
	}
	r.state = newState
	r.stateMu.Unlock()

	if newState.Quit {
		r.quitOnce.Do(func() { close(r.quit) })
	}
	if changed {
		r.RequestFrame()
	}
}

func (r *Renderer) RequestFrame() {
	select {
	case r.requestFrame <- struct{}{}:
	default:
	}
}

// Frame runs the app once and returns the escape sequences that draw it.
func (r *Renderer) Frame() []byte {
	r.stateMu.Lock()
	s := r.state
	r.state = StateReducer(r.state, FrameDrawnEvent{})
	r.stateMu.Unlock()

	panel := NewPanel(s.Activated)
	r.app.Update(r.ctx, panel)

	buf := bytes.NewBuffer(nil)
	r.drawPanel(buf, panel, s)
	return buf.Bytes()
}

func (r *Renderer) drawPanel(buf *bytes.Buffer, p *Panel, s State) {
	a := term.ANSI{Writer: buf}

	win := s.WinSize
	if win.Rows == 0 || win.Cols == 0 {
		win = defaultWinSize
	}

	// Blank background
	a.Normal()
	a.Background(color.Black)
	a.CursorPosition(1, 1)
	buf.WriteString(strings.Repeat(" ", win.Cols*win.Rows))

	row := 2
	for _, w := range p.Widgets() {
		if row >= win.Rows {
			break
		}

		switch w := w.(type) {
		case ButtonWidget:
			line := "  " + w.Label + "  "
			col := (win.Cols-utf8.RuneCountInString(line))/2 + 1
			if col < 1 {
				col = 1
			}

			a.Bold()
			if w.Focused {
				a.Background(color.RGBA{0x11, 0x11, 0x11, 0xFF})
				a.Foreground(color.White)
			} else {
				a.Background(color.Black)
				a.Foreground(color.RGBA{0x99, 0x99, 0x99, 0xFF})
			}
			a.CursorPosition(row, col)
			buf.WriteString(line)
			a.Normal()
			a.Background(color.Black)
			row += 2

		case LabelWidget:
			a.Foreground(color.RGBA{0xAA, 0xAA, 0xAA, 0xFF})
			a.CursorPosition(row, 2)
			buf.WriteString(w.Text)
			row += 2

		case ImageWidget:
			img := w.Texture.Image()
			if img == nil {
				continue
			}
			cols, rows := imageCells(w.Size, win, win.Rows-row-1)
			for i, line := range r.cells(w.Texture, img, cols, rows, win.Aspect()) {
				a.CursorPosition(row+i, (win.Cols-cols)/2+1)
				buf.Write(line)
			}
			row += rows + 1
		}
	}

	if s.Status != "" {
		a.Background(color.RGBA{0x12, 0x12, 0x12, 0xFF})
		if s.StatusLevel == LogLevelError {
			a.Foreground(color.RGBA{0xFF, 0, 0, 0xFF})
		} else {
			a.Foreground(color.RGBA{0x00, 0xff, 0xff, 0xff})
		}
		a.CursorPosition(win.Rows, 1)
		status := " " + s.Status
		if n := utf8.RuneCountInString(status); n < win.Cols {
			status += strings.Repeat(" ", win.Cols-n)
		}
		buf.WriteString(status)
	}
	a.CursorPosition(1, 1)
}

// imageCells converts a size in pixels into character cells that fit the
// window, keeping at most maxRows rows.
func imageCells(size image.Point, win term.WinSize, maxRows int) (cols, rows int) {
	cellW := 8.0
	if win.Width > 0 && win.Cols > 0 {
		cellW = float64(win.Width) / float64(win.Cols)
	}
	cellH := cellW * win.Aspect()

	cols = int(float64(size.X)/cellW + 0.5)
	rows = int(float64(size.Y)/cellH + 0.5)
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	if cols > win.Cols {
		cols = win.Cols
	}
	if rows > maxRows {
		rows = maxRows
	}
	return cols, rows
}

func (r *Renderer) draw() {
	r.out.Write(r.Frame())
}

// Run draws frames until ctx is done or the user quits.
func (r *Renderer) Run(ctx context.Context) {
	r.Start()
	defer r.Stop()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		r.draw()

		select {
		case <-ctx.Done():
			return
		case <-r.quit:
			return
		case <-r.requestFrame:
		case <-ticker.C:
		}
	}
}

// Done is closed once the user asked to quit.
func (r *Renderer) Done() <-chan struct{} {
	return r.quit
}

func (r *Renderer) Start() {
	a := term.ANSI{Writer: r.out}
	a.Clear()
	a.HideCursor()
}

func (r *Renderer) Stop() {
	s := r.GetState()
	win := s.WinSize
	if win.Rows == 0 || win.Cols == 0 {
		win = defaultWinSize
	}

	buf := bytes.NewBuffer(nil)
	a := term.ANSI{Writer: buf}

	a.ShowCursor()
	a.Reset()
	a.BackgroundReset()
	a.ForegroundReset()
	a.Normal()
	a.CursorPosition(1, 1)
	buf.WriteString(strings.Repeat(" ", win.Cols*win.Rows))
	a.CursorPosition(1, 1)

	io.Copy(r.out, buf)
}
