// Package camera opens a capture device and returns its frames one at a time,
// decoded and converted to the pixel format the caller asked for.
package camera

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/dialup-inc/camview/codec"
	"github.com/dialup-inc/camview/device"
	"github.com/dialup-inc/camview/frame"
	"github.com/dialup-inc/camview/metrics"
	"github.com/dialup-inc/camview/scale"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type state int32

const (
	stateOpen state = iota
	stateDraining
	stateClosed
)

func (s state) String() string {
	switch s {
	case stateOpen:
		return "open"
	case stateDraining:
		return "draining"
	default:
		return "closed"
	}
}

// Stream is an open camera. It has a single consumer; only Close may be
// called from another goroutine, which interrupts a pending pull.
type Stream struct {
	log zerolog.Logger

	demuxer device.Demuxer
	video   device.Stream
	decoder codec.Decoder
	scaler  *scale.Context

	// pullMu is held for the duration of each pull.
	pullMu sync.Mutex
	state  int32

	closeOnce sync.Once
	seq       uint64
}

// Open starts capturing from the device described by opts.
func Open(opts Options) (*Stream, error) {
	device.Init()

	backend := opts.Backend
	if backend == "" {
		name, err := device.PlatformDefault()
		if err != nil {
			return nil, newError(ErrUnsupported, err)
		}
		backend = name
	}

	input, err := device.Find(backend)
	if err != nil {
		return nil, newError(ErrBackendMissing, err)
	}

	logger := log.With().Str("backend", backend).Str("device", opts.selector()).Logger()

	dict := opts.Dict()
	dmx, err := input.Open(opts.selector(), dict)
	if err != nil {
		switch {
		case errors.Is(err, device.ErrBackendMissing):
			return nil, newError(ErrBackendMissing, err)
		case errors.Is(err, device.ErrUnsupported):
			return nil, newError(ErrUnsupported, err)
		default:
			return nil, newError(ErrDeviceOpenFailed, err)
		}
	}

	s, err := newStream(dmx, opts, logger)
	if err != nil {
		dmx.Close()
		return nil, err
	}

	metrics.StreamsOpened.Inc()
	out, size := s.scaler.Output()
	logger.Info().
		Str("options", dict.String()).
		Stringer("input", s.video.Params).
		Stringer("output_format", out).
		Stringer("output_size", size).
		Msg("camera open")

	return s, nil
}

func newStream(dmx device.Demuxer, opts Options, logger zerolog.Logger) (*Stream, error) {
	video, ok := device.FirstVideo(dmx)
	if !ok {
		return nil, newError(ErrNoVideoStream, errors.Errorf("%d streams, none of them video", len(dmx.Streams())))
	}

	dec, err := codec.NewDecoder(video.Params)
	if err != nil {
		return nil, newError(ErrUnsupportedCodec, err)
	}

	in := dec.Size()
	out := opts.OutputSize
	if out.IsZero() {
		out = in
	}
	format := opts.PixelFormat
	if format == frame.None {
		format = frame.RGB24
	}

	sc, err := scale.NewContext(dec.Format(), in.Width, in.Height, format, out.Width, out.Height, opts.Scaling)
	if err != nil {
		dec.Close()
		return nil, newError(ErrConverterInitFailed, err)
	}

	return &Stream{
		log:     logger,
		demuxer: dmx,
		video:   video,
		decoder: dec,
		scaler:  sc,
	}, nil
}

// OutputFormat is the pixel format of every frame the stream returns.
func (s *Stream) OutputFormat() frame.PixelFormat {
	f, _ := s.scaler.Output()
	return f
}

// OutputSize is the size of every frame the stream returns.
func (s *Stream) OutputSize() frame.Size {
	_, size := s.scaler.Output()
	return size
}

// InputParams describe the video stream as the device delivers it.
func (s *Stream) InputParams() codec.Parameters {
	return s.video.Params
}

func (s *Stream) getState() state {
	return state(atomic.LoadInt32(&s.state))
}

func (s *Stream) setState(next state) {
	prev := state(atomic.SwapInt32(&s.state, int32(next)))
	if prev != next {
		s.log.Debug().Stringer("from", prev).Stringer("to", next).Msg("stream state")
	}
}

// PullFrame blocks until the next frame is available. It returns an error
// matching ErrEndOfStream once the stream is exhausted or closed.
func (s *Stream) PullFrame() (*frame.Frame, error) {
	for {
		f, err := s.TryPullFrame()
		if err == ErrAgain {
			continue
		}
		return f, err
	}
}

// TryPullFrame feeds at most one packet to the decoder and asks it for one
// frame. It returns ErrAgain when the decoder needs more input first.
func (s *Stream) TryPullFrame() (*frame.Frame, error) {
	f, err := s.tryPull()
	switch {
	case err == nil:
		metrics.FramesPulled.Inc()
	case err != ErrAgain && err != ErrEndOfStream:
		metrics.PullErrors.WithLabelValues(KindOf(err).Label()).Inc()
	}
	return f, err
}

func (s *Stream) tryPull() (*frame.Frame, error) {
	s.pullMu.Lock()
	defer s.pullMu.Unlock()

	if s.getState() == stateOpen {
		if err := s.feed(); err != nil {
			return nil, err
		}
	}
	if s.getState() == stateClosed {
		return nil, ErrEndOfStream
	}

	decoded, err := s.decoder.ReceiveFrame()
	switch {
	case err == nil:
	case err == codec.ErrAgain:
		return nil, ErrAgain
	case err == codec.ErrEOF:
		s.log.Debug().Uint64("frames", s.seq).Msg("decoder drained")
		s.release()
		return nil, ErrEndOfStream
	default:
		return nil, newError(ErrDecode, err)
	}

	out, err := s.scaler.Run(decoded)
	if err != nil {
		return nil, newError(ErrConversion, err)
	}
	out.Seq = s.seq
	s.seq++

	return out, nil
}

// feed submits the next packet of the video stream, or end of file once the
// demuxer has run out. Packets of other streams are skipped.
func (s *Stream) feed() error {
	for {
		pkt, err := s.demuxer.ReadPacket()
		if s.getState() == stateClosed {
			return nil
		}

		switch {
		case err == io.EOF:
			s.setState(stateDraining)
			if err := s.decoder.SendEOF(); err != nil {
				return newError(ErrDecode, err)
			}
			return nil
		case err != nil:
			return newError(ErrIO, err)
		}

		if pkt.StreamIndex != s.video.Index {
			continue
		}
		if err := s.decoder.SendPacket(pkt.Data); err != nil {
			return newError(ErrDecode, errors.Wrapf(err, "packet at %v", pkt.PTS))
		}
		return nil
	}
}

// release closes the device and moves to the closed state. The caller holds
// pullMu.
func (s *Stream) release() {
	s.setState(stateClosed)
	s.closeDemuxer()
	s.decoder.Close()
}

func (s *Stream) closeDemuxer() {
	s.closeOnce.Do(func() {
		if err := s.demuxer.Close(); err != nil {
			s.log.Warn().Err(err).Msg("closing device")
		}
	})
}

// Close releases the device. It is safe to call more than once and from a
// goroutine other than the consumer's; a blocked pull returns
// ErrEndOfStream.
func (s *Stream) Close() error {
	if s.getState() == stateClosed {
		s.closeDemuxer()
		return nil
	}

	s.setState(stateClosed)
	s.closeDemuxer()

	s.pullMu.Lock()
	s.decoder.Close()
	s.pullMu.Unlock()
	return nil
}
