package codec

import (
	"github.com/dialup-inc/camview/frame"
	"github.com/pkg/errors"
)

// rawDecoder copies tightly packed packets into freshly allocated frames.
func rawDecoder(format frame.PixelFormat, width, height int) decodeFunc {
	size := format.Size(width, height)

	return func(data []byte) (*frame.Frame, error) {
		if len(data) < size {
			return nil, errors.Errorf("rawvideo: packet of %d bytes, want %d for %v %dx%d", len(data), size, format, width, height)
		}

		f, err := frame.New(format, width, height)
		if err != nil {
			return nil, err
		}
		off := 0
		for i := range f.Planes {
			n := copy(f.Planes[i], data[off:])
			off += n
		}
		return f, nil
	}
}
