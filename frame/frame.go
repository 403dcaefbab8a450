// Package frame holds decoded video images as produced by the decoder and the
// pixel converter.
package frame

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Size is a frame resolution in pixels. The zero value means "unset".
type Size struct {
	Width  int
	Height int
}

func (s Size) IsZero() bool {
	return s.Width == 0 && s.Height == 0
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// ParseSize parses "WxH".
func ParseSize(s string) (Size, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "x")
	if len(parts) != 2 {
		return Size{}, errors.Errorf("invalid size %q, want WxH", s)
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil {
		return Size{}, errors.Wrapf(err, "invalid width in %q", s)
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil {
		return Size{}, errors.Wrapf(err, "invalid height in %q", s)
	}
	if w <= 0 || h <= 0 {
		return Size{}, errors.Errorf("invalid size %q, dimensions must be positive", s)
	}
	return Size{Width: w, Height: h}, nil
}

// Frame is one decoded image. A frame is handed to exactly one consumer and is
// not retained by whoever produced it.
type Frame struct {
	Width  int
	Height int
	Format PixelFormat

	Planes  [][]byte
	Strides []int

	// Seq is the ordinal of the frame within its stream.
	Seq uint64
	PTS time.Duration
}

// New allocates a frame with tightly packed planes.
func New(format PixelFormat, width, height int) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid frame size %dx%d", width, height)
	}
	n := format.NumPlanes()
	if n == 0 {
		return nil, errors.Errorf("cannot allocate frame of format %v", format)
	}

	f := &Frame{
		Width:   width,
		Height:  height,
		Format:  format,
		Planes:  make([][]byte, n),
		Strides: make([]int, n),
	}
	for i := 0; i < n; i++ {
		row, rows := format.PlaneGeometry(i, width, height)
		f.Planes[i] = make([]byte, row*rows)
		f.Strides[i] = row
	}
	return f, nil
}

// Plane returns the bytes of plane i, or nil if the frame has no such plane.
func (f *Frame) Plane(i int) []byte {
	if i < 0 || i >= len(f.Planes) {
		return nil
	}
	return f.Planes[i]
}

// Stride returns the distance in bytes between the starts of two rows of plane i.
func (f *Frame) Stride(i int) int {
	if i < 0 || i >= len(f.Strides) {
		return 0
	}
	return f.Strides[i]
}

func (f *Frame) Size() Size {
	return Size{Width: f.Width, Height: f.Height}
}

// Row returns the visible bytes of row y in plane i, excluding stride padding.
func (f *Frame) Row(i, y int) []byte {
	row, _ := f.Format.PlaneGeometry(i, f.Width, f.Height)
	off := y * f.Stride(i)
	return f.Plane(i)[off : off+row]
}

// Validate checks the plane layout against the frame's format and size.
func (f *Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return errors.Errorf("invalid frame size %dx%d", f.Width, f.Height)
	}
	n := f.Format.NumPlanes()
	if n == 0 {
		return errors.Errorf("unknown pixel format %v", f.Format)
	}
	if len(f.Planes) < n || len(f.Strides) < n {
		return errors.Errorf("%v frame needs %d planes, has %d", f.Format, n, len(f.Planes))
	}
	for i := 0; i < n; i++ {
		row, rows := f.Format.PlaneGeometry(i, f.Width, f.Height)
		if f.Strides[i] < row {
			return errors.Errorf("plane %d stride %d shorter than row of %d bytes", i, f.Strides[i], row)
		}
		if need := f.Strides[i]*(rows-1) + row; len(f.Planes[i]) < need {
			return errors.Errorf("plane %d has %d bytes, need %d", i, len(f.Planes[i]), need)
		}
	}
	return nil
}
