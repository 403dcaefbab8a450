package ui

import (
	"image"
	"sync"
)

// Filter is the sampling used when a texture is drawn at another size.
type Filter int

const (
	Linear Filter = iota
	Nearest
)

// Context is shared between the UI goroutine and workers. All of its methods
// are safe for concurrent use.
type Context struct {
	mu     sync.Mutex
	nextID int
	live   int

	repaint func()
}

// NewContext returns a context whose RequestRepaint calls repaint.
func NewContext(repaint func()) *Context {
	if repaint == nil {
		repaint = func() {}
	}
	return &Context{repaint: repaint}
}

// LoadTexture takes ownership of img and returns a handle to it. The texture
// stays alive until Free is called.
func (c *Context) LoadTexture(name string, img *image.RGBA, filter Filter) *Texture {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	c.live++
	return &Texture{
		id:     c.nextID,
		name:   name,
		filter: filter,
		img:    img,
		ctx:    c,
	}
}

// RequestRepaint asks the UI to draw another frame soon.
func (c *Context) RequestRepaint() {
	c.repaint()
}

// LiveTextures counts textures that have been loaded and not freed.
func (c *Context) LiveTextures() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live
}

// Texture is an uploaded image.
type Texture struct {
	id     int
	name   string
	filter Filter
	ctx    *Context

	mu    sync.Mutex
	img   *image.RGBA
	freed bool
}

// ID is unique within the texture's context.
func (t *Texture) ID() int        { return t.id }
func (t *Texture) Filter() Filter { return t.filter }

// Size is the natural size of the texture in pixels.
func (t *Texture) Size() image.Point {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.img == nil {
		return image.Point{}
	}
	return t.img.Rect.Size()
}

// Image returns the pixels, or nil once the texture was freed.
func (t *Texture) Image() *image.RGBA {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.img
}

// Free releases the texture. Calling it again, or on nil, does nothing.
func (t *Texture) Free() {
	if t == nil {
		return
	}
	t.mu.Lock()
	freed := t.freed
	t.freed = true
	t.img = nil
	t.mu.Unlock()

	if freed {
		return
	}
	t.ctx.mu.Lock()
	t.ctx.live--
	t.ctx.mu.Unlock()
}
