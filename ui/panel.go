package ui

import (
	"image"
)

// A Widget is one element laid out by a Panel.
type Widget interface{}

// ButtonWidget is a clickable label. Only the first button of a panel has
// keyboard focus.
type ButtonWidget struct {
	Label   string
	Focused bool
}

// ImageWidget draws a texture at Size pixels.
type ImageWidget struct {
	Texture *Texture
	Size    image.Point
}

type LabelWidget struct {
	Text string
}

// Panel collects the widgets of one frame, top to bottom. A new panel is built
// for every repaint.
type Panel struct {
	activated bool
	focused   bool
	widgets   []Widget
}

// NewPanel starts a frame. activated reports whether the user pressed the
// focused button since the previous frame.
func NewPanel(activated bool) *Panel {
	return &Panel{activated: activated}
}

// Button adds a button and reports whether it was clicked.
func (p *Panel) Button(label string) bool {
	focused := !p.focused
	p.focused = true
	p.widgets = append(p.widgets, ButtonWidget{Label: label, Focused: focused})
	return focused && p.activated
}

// Image adds a texture drawn at size. Freed textures are skipped.
func (p *Panel) Image(t *Texture, size image.Point) {
	if t == nil || t.Image() == nil {
		return
	}
	p.widgets = append(p.widgets, ImageWidget{Texture: t, Size: size})
}

func (p *Panel) Label(text string) {
	p.widgets = append(p.widgets, LabelWidget{Text: text})
}

func (p *Panel) Widgets() []Widget {
	return p.widgets
}

// App builds the widgets of each frame. Update runs on the UI goroutine only.
type App interface {
	Update(ctx *Context, p *Panel)
}

// AppFunc adapts a function to App.
type AppFunc func(ctx *Context, p *Panel)

func (f AppFunc) Update(ctx *Context, p *Panel) { f(ctx, p) }
