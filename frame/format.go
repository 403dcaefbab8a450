package frame

import (
	"strings"

	"github.com/pkg/errors"
)

// PixelFormat identifies the memory layout of a Frame's planes.
type PixelFormat int

const (
	None PixelFormat = iota
	RGB24
	RGBA
	BGR0
	ZeroRGB
	BGRA
	Gray8
	YUYV422
	UYVY422
	NV12
	YUV420P
	YUV422P
	YUV444P
)

var formatNames = map[PixelFormat]string{
	RGB24:   "rgb24",
	RGBA:    "rgba",
	BGR0:    "bgr0",
	ZeroRGB: "0rgb",
	BGRA:    "bgra",
	Gray8:   "gray",
	YUYV422: "yuyv422",
	UYVY422: "uyvy422",
	NV12:    "nv12",
	YUV420P: "yuv420p",
	YUV422P: "yuv422p",
	YUV444P: "yuv444p",
}

// full-range jpeg variants share the layout of their limited-range twins
var formatAliases = map[string]PixelFormat{
	"rgba8":    RGBA,
	"gray8":    Gray8,
	"yuyv":     YUYV422,
	"uyvy":     UYVY422,
	"yuvj420p": YUV420P,
	"yuvj422p": YUV422P,
	"yuvj444p": YUV444P,
}

func (p PixelFormat) String() string {
	if name, ok := formatNames[p]; ok {
		return name
	}
	return "none"
}

// ParsePixelFormat accepts ffmpeg-style pixel format names.
func ParsePixelFormat(name string) (PixelFormat, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for p, n := range formatNames {
		if n == name {
			return p, nil
		}
	}
	if p, ok := formatAliases[name]; ok {
		return p, nil
	}
	return None, errors.Errorf("unknown pixel format %q", name)
}

// Packed reports whether all components live interleaved in a single plane.
func (p PixelFormat) Packed() bool {
	switch p {
	case RGB24, RGBA, BGR0, ZeroRGB, BGRA, Gray8, YUYV422, UYVY422:
		return true
	}
	return false
}

// BytesPerPixel is the average number of bytes one pixel occupies in a packed
// format. It is 0 for planar formats.
func (p PixelFormat) BytesPerPixel() int {
	switch p {
	case RGB24:
		return 3
	case RGBA, BGR0, ZeroRGB, BGRA:
		return 4
	case YUYV422, UYVY422:
		return 2
	case Gray8:
		return 1
	}
	return 0
}

// NumPlanes returns how many planes a frame of this format carries.
func (p PixelFormat) NumPlanes() int {
	switch {
	case p.Packed():
		return 1
	case p == NV12:
		return 2
	case p == YUV420P, p == YUV422P, p == YUV444P:
		return 3
	}
	return 0
}

// PlaneGeometry returns the tightly packed row length in bytes and the number
// of rows of plane i for a w x h image.
func (p PixelFormat) PlaneGeometry(i, w, h int) (rowBytes, rows int) {
	if i < 0 || i >= p.NumPlanes() {
		return 0, 0
	}
	cw, ch := (w+1)/2, (h+1)/2

	switch p {
	case YUYV422, UYVY422:
		return cw * 4, h
	case NV12:
		if i == 0 {
			return w, h
		}
		return cw * 2, ch
	case YUV420P:
		if i == 0 {
			return w, h
		}
		return cw, ch
	case YUV422P:
		if i == 0 {
			return w, h
		}
		return cw, h
	case YUV444P:
		return w, h
	}
	return w * p.BytesPerPixel(), h
}

// Size is the number of bytes a tightly packed w x h image occupies.
func (p PixelFormat) Size(w, h int) int {
	var n int
	for i := 0; i < p.NumPlanes(); i++ {
		row, rows := p.PlaneGeometry(i, w, h)
		n += row * rows
	}
	return n
}
