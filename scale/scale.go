// Package scale converts frames between pixel formats and resolutions.
package scale

import (
	"image"

	"github.com/dialup-inc/camview/frame"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// Flags select the interpolation used when source and destination sizes differ.
type Flags int

const (
	Bilinear Flags = iota
	NearestNeighbor
	Bicubic
	Lanczos3
)

func (f Flags) interpolation() resize.InterpolationFunction {
	switch f {
	case NearestNeighbor:
		return resize.NearestNeighbor
	case Bicubic:
		return resize.Bicubic
	case Lanczos3:
		return resize.Lanczos3
	default:
		return resize.Bilinear
	}
}

// ErrUnsupportedFormat is returned for conversions this package cannot do.
var ErrUnsupportedFormat = errors.New("scale: unsupported pixel format")

// Context converts frames of one geometry into another. The destination is
// fixed when the context is created; frames whose source format differs from
// the one given to NewContext are still accepted, which happens with codecs
// that pick their layout per packet.
type Context struct {
	srcFormat frame.PixelFormat
	src       frame.Size

	dstFormat frame.PixelFormat
	dst       frame.Size

	flags Flags
}

// NewContext validates a conversion from srcFormat at srcW x srcH to dstFormat
// at dstW x dstH.
func NewContext(srcFormat frame.PixelFormat, srcW, srcH int, dstFormat frame.PixelFormat, dstW, dstH int, flags Flags) (*Context, error) {
	if srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		return nil, errors.Errorf("scale: invalid sizes %dx%d -> %dx%d", srcW, srcH, dstW, dstH)
	}
	if srcFormat.NumPlanes() == 0 {
		return nil, errors.Wrapf(ErrUnsupportedFormat, "source %v", srcFormat)
	}
	if !Supported(dstFormat) {
		return nil, errors.Wrapf(ErrUnsupportedFormat, "destination %v", dstFormat)
	}

	return &Context{
		srcFormat: srcFormat,
		src:       frame.Size{Width: srcW, Height: srcH},
		dstFormat: dstFormat,
		dst:       frame.Size{Width: dstW, Height: dstH},
		flags:     flags,
	}, nil
}

// Supported reports whether format can be a conversion destination.
func Supported(format frame.PixelFormat) bool {
	switch format {
	case frame.RGB24, frame.RGBA, frame.BGR0, frame.ZeroRGB, frame.BGRA, frame.Gray8, frame.YUV420P:
		return true
	}
	return false
}

func (c *Context) Output() (frame.PixelFormat, frame.Size) {
	return c.dstFormat, c.dst
}

// Run converts src into a newly allocated frame.
func (c *Context) Run(src *frame.Frame) (*frame.Frame, error) {
	if err := src.Validate(); err != nil {
		return nil, errors.Wrap(err, "scale: bad source frame")
	}

	if src.Format == c.dstFormat && src.Size() == c.dst {
		return copyFrame(src)
	}

	img, err := toImage(src)
	if err != nil {
		return nil, err
	}

	if src.Size() != c.dst {
		img = resize.Resize(uint(c.dst.Width), uint(c.dst.Height), img, c.flags.interpolation())
	}

	out, err := fromImage(img, c.dstFormat)
	if err != nil {
		return nil, err
	}
	out.Seq = src.Seq
	out.PTS = src.PTS
	return out, nil
}

// copyFrame produces a tightly packed copy, dropping any stride padding.
func copyFrame(src *frame.Frame) (*frame.Frame, error) {
	out, err := frame.New(src.Format, src.Width, src.Height)
	if err != nil {
		return nil, err
	}
	for i := range out.Planes {
		_, rows := src.Format.PlaneGeometry(i, src.Width, src.Height)
		for y := 0; y < rows; y++ {
			copy(out.Row(i, y), src.Row(i, y))
		}
	}
	out.Seq = src.Seq
	out.PTS = src.PTS
	return out, nil
}

func bounds(f *frame.Frame) image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}
