package camera

import (
	"fmt"
)

// ErrorKind classifies stream failures. Each kind is itself an error, so
// callers can test with errors.Is(err, camera.ErrIO).
type ErrorKind int

const (
	ErrBackendMissing ErrorKind = iota + 1
	ErrUnsupported
	ErrDeviceOpenFailed
	ErrNoVideoStream
	ErrUnsupportedCodec
	ErrConverterInitFailed
	ErrIO
	ErrDecode
	ErrConversion
	// ErrAgain means no frame is ready yet. It is only returned by
	// TryPullFrame; retrying is always safe.
	ErrAgain
	// ErrEndOfStream is terminal. Every later pull returns it too.
	ErrEndOfStream
)

func (k ErrorKind) Error() string {
	switch k {
	case ErrBackendMissing:
		return "capture backend missing"
	case ErrUnsupported:
		return "capture unsupported on this platform"
	case ErrDeviceOpenFailed:
		return "device open failed"
	case ErrNoVideoStream:
		return "no video stream"
	case ErrUnsupportedCodec:
		return "unsupported codec"
	case ErrConverterInitFailed:
		return "converter init failed"
	case ErrIO:
		return "i/o error"
	case ErrDecode:
		return "decode error"
	case ErrConversion:
		return "conversion error"
	case ErrAgain:
		return "try again"
	case ErrEndOfStream:
		return "end of stream"
	default:
		return fmt.Sprintf("camera error %d", int(k))
	}
}

// Label is a short metric-friendly name for the kind.
func (k ErrorKind) Label() string {
	switch k {
	case ErrBackendMissing:
		return "backend_missing"
	case ErrUnsupported:
		return "unsupported"
	case ErrDeviceOpenFailed:
		return "device_open_failed"
	case ErrNoVideoStream:
		return "no_video_stream"
	case ErrUnsupportedCodec:
		return "unsupported_codec"
	case ErrConverterInitFailed:
		return "converter_init_failed"
	case ErrIO:
		return "io"
	case ErrDecode:
		return "decode"
	case ErrConversion:
		return "conversion"
	case ErrAgain:
		return "again"
	case ErrEndOfStream:
		return "end_of_stream"
	default:
		return "unknown"
	}
}

// Error carries a kind together with the failure that caused it.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Kind
}

func newError(kind ErrorKind, err error) error {
	return &Error{Kind: kind, Err: err}
}

// KindOf reports the kind of err, or 0 when err did not come from a stream.
func KindOf(err error) ErrorKind {
	for err != nil {
		switch e := err.(type) {
		case ErrorKind:
			return e
		case *Error:
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return 0
		}
		err = u.Unwrap()
	}
	return 0
}
