// Package codec turns demuxed packets into frames.
//
// Decoders follow a send/receive model: packets go in with SendPacket, frames
// come out with ReceiveFrame, and SendEOF flushes whatever is still buffered.
package codec

import (
	"fmt"

	"github.com/dialup-inc/camview/frame"
	"github.com/pkg/errors"
)

// ID names a codec the way capture backends report it.
type ID string

const (
	RawVideo ID = "rawvideo"
	MJPEG    ID = "mjpeg"
)

// Parameters describe a video stream as reported by the demuxer.
type Parameters struct {
	Codec       ID
	Width       int
	Height      int
	PixelFormat frame.PixelFormat
}

func (p Parameters) String() string {
	return fmt.Sprintf("%s %v %dx%d", p.Codec, p.PixelFormat, p.Width, p.Height)
}

var (
	// ErrAgain means the decoder needs more input before it can emit a frame.
	ErrAgain = errors.New("codec: output not available yet")
	// ErrEOF means the decoder has been flushed and has nothing left.
	ErrEOF = errors.New("codec: end of stream")
	// ErrUnsupportedCodec is returned by NewDecoder for unknown codecs.
	ErrUnsupportedCodec = errors.New("codec: unsupported codec")
)

// Decoder is a video decoder. It is not safe for concurrent use.
type Decoder interface {
	SendPacket(data []byte) error
	SendEOF() error
	ReceiveFrame() (*frame.Frame, error)

	// Format and Size report what ReceiveFrame will produce.
	Format() frame.PixelFormat
	Size() frame.Size

	Close() error
}

// NewDecoder builds a decoder from stream parameters.
func NewDecoder(params Parameters) (Decoder, error) {
	if params.Width <= 0 || params.Height <= 0 {
		return nil, errors.Errorf("codec: invalid stream size %dx%d", params.Width, params.Height)
	}

	var decode decodeFunc
	format := params.PixelFormat
	switch params.Codec {
	case RawVideo:
		if format.NumPlanes() == 0 {
			return nil, errors.Wrapf(ErrUnsupportedCodec, "rawvideo with pixel format %v", format)
		}
		decode = rawDecoder(format, params.Width, params.Height)
	case MJPEG:
		if format == frame.None {
			format = frame.YUV422P
		}
		decode = decodeJPEG
	default:
		return nil, errors.Wrapf(ErrUnsupportedCodec, "%q", params.Codec)
	}

	return &queueDecoder{
		decode: decode,
		format: format,
		size:   frame.Size{Width: params.Width, Height: params.Height},
	}, nil
}
