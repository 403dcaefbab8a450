// Package ppm reads and writes binary portable pixmaps (P6, maxval 255).
package ppm

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/dialup-inc/camview/frame"
	"github.com/pkg/errors"
)

// ErrPixelFormat is returned when encoding a frame that is not RGB24.
var ErrPixelFormat = errors.New("ppm: frame is not rgb24")

// Encode writes f as a P6 image. Rows are taken from plane 0 using its
// stride, so padded frames are written without the padding.
func Encode(w io.Writer, f *frame.Frame) error {
	if f.Format != frame.RGB24 {
		return errors.Wrapf(ErrPixelFormat, "got %v", f.Format)
	}
	if err := f.Validate(); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "P6\n%d %d\n255\n", f.Width, f.Height)
	for y := 0; y < f.Height; y++ {
		if _, err := bw.Write(f.Row(0, y)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes f to path, replacing any existing file.
func WriteFile(path string, f *frame.Frame) error {
	if f.Format != frame.RGB24 {
		return errors.Wrapf(ErrPixelFormat, "got %v", f.Format)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(file, f); err != nil {
		file.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	return file.Close()
}

// MaxPixels bounds the images Decode accepts, 1<<30 bytes of RGB24 pixels.
const MaxPixels = 1 << 30 / 3

// Decode reads a P6 image into an RGB24 frame.
func Decode(r io.Reader) (*frame.Frame, error) {
	br := bufio.NewReader(r)

	magic := make([]byte, 2)
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, errors.Wrap(err, "ppm: read magic")
	}
	if string(magic) != "P6" {
		return nil, errors.Errorf("ppm: bad magic %q", magic)
	}

	var header [3]int
	for i := range header {
		n, err := readHeaderInt(br)
		if err != nil {
			return nil, err
		}
		header[i] = n
	}
	width, height, maxval := header[0], header[1], header[2]
	if maxval != 255 {
		return nil, errors.Errorf("ppm: unsupported maxval %d", maxval)
	}
	if width > 0 && height > 0 && width > MaxPixels/height {
		return nil, errors.Errorf("ppm: image %dx%d exceeds %d pixels", width, height, MaxPixels)
	}

	f, err := frame.New(frame.RGB24, width, height)
	if err != nil {
		return nil, errors.Wrap(err, "ppm")
	}
	if _, err := io.ReadFull(br, f.Plane(0)); err != nil {
		return nil, errors.Wrap(err, "ppm: read pixels")
	}
	return f, nil
}

// readHeaderInt skips whitespace and comments, reads a decimal number and
// consumes the single whitespace byte that ends it.
func readHeaderInt(br *bufio.Reader) (int, error) {
	var (
		n      int
		digits int
	)
	for {
		c, err := br.ReadByte()
		if err != nil {
			return 0, errors.Wrap(err, "ppm: read header")
		}

		switch {
		case c >= '0' && c <= '9':
			n = n*10 + int(c-'0')
			digits++
			if digits > 9 {
				return 0, errors.New("ppm: header value too large")
			}
		case isSpace(c):
			if digits > 0 {
				return n, nil
			}
		case c == '#' && digits == 0:
			if _, err := br.ReadString('\n'); err != nil {
				return 0, errors.Wrap(err, "ppm: read comment")
			}
		default:
			return 0, errors.Errorf("ppm: unexpected %q in header", c)
		}
	}
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
