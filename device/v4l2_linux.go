package device

import (
	"encoding/binary"
	"io"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blackjack/webcam"
	"github.com/dialup-inc/camview/codec"
	"github.com/dialup-inc/camview/frame"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Seconds to wait for a frame before checking whether the input was closed.
const webcamReadTimeout = 1

// fourcc packs a V4L2 four character code.
func fourcc(code string) webcam.PixelFormat {
	return webcam.PixelFormat(binary.LittleEndian.Uint32([]byte(code)))
}

type v4l2Format struct {
	codec  codec.ID
	format frame.PixelFormat
}

// v4l2Formats maps the device formats we can decode, in order of preference.
var v4l2Formats = []struct {
	fourcc string
	v4l2Format
}{
	{"YUYV", v4l2Format{codec.RawVideo, frame.YUYV422}},
	{"MJPG", v4l2Format{codec.MJPEG, frame.None}},
	{"UYVY", v4l2Format{codec.RawVideo, frame.UYVY422}},
	{"NV12", v4l2Format{codec.RawVideo, frame.NV12}},
	{"YU12", v4l2Format{codec.RawVideo, frame.YUV420P}},
	{"RGB3", v4l2Format{codec.RawVideo, frame.RGB24}},
}

// v4l2Input opens video4linux devices directly.
type v4l2Input struct{}

func (v4l2Input) Name() string {
	return "v4l2"
}

func (v4l2Input) Devices() ([]string, error) {
	return filepath.Glob("/dev/video*")
}

func (v4l2Input) Open(selector string, opts Dict) (Demuxer, error) {
	path := selector
	if path == "" || path == "default" {
		path = "/dev/video0"
	}

	cam, err := webcam.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}

	d, err := startWebcam(cam, opts)
	if err != nil {
		cam.Close()
		return nil, errors.Wrapf(err, "configure %s", path)
	}

	log.Debug().Str("device", path).Stringer("params", d.params).Msg("v4l2 streaming")
	return d, nil
}

func startWebcam(cam *webcam.Webcam, opts Dict) (*webcamDemuxer, error) {
	supported := cam.GetSupportedFormats()

	pf, chosen, err := chooseWebcamFormat(supported, opts["pixel_format"])
	if err != nil {
		return nil, err
	}

	var width, height uint32
	if s, ok := opts["video_size"]; ok {
		size, err := frame.ParseSize(s)
		if err != nil {
			return nil, err
		}
		width, height = uint32(size.Width), uint32(size.Height)
	} else {
		sizes := cam.GetSupportedFrameSizes(pf)
		if len(sizes) == 0 {
			return nil, errors.Errorf("no frame sizes for %s", supported[pf])
		}
		width, height = sizes[0].MaxWidth, sizes[0].MaxHeight
	}

	_, w, h, err := cam.SetImageFormat(pf, width, height)
	if err != nil {
		return nil, err
	}

	if r, ok := opts["framerate"]; ok {
		if fps, err := strconv.ParseFloat(r, 32); err == nil {
			if err := cam.SetFramerate(float32(fps)); err != nil {
				log.Warn().Err(err).Str("framerate", r).Msg("device ignored frame rate")
			}
		}
	}

	if err := cam.StartStreaming(); err != nil {
		return nil, err
	}

	return &webcamDemuxer{
		cam: cam,
		params: codec.Parameters{
			Codec:       chosen.codec,
			Width:       int(w),
			Height:      int(h),
			PixelFormat: chosen.format,
		},
		start: time.Now(),
	}, nil
}

// chooseWebcamFormat picks the requested pixel format when the device offers
// it, otherwise the most preferred format the device supports.
func chooseWebcamFormat(supported map[webcam.PixelFormat]string, requested string) (webcam.PixelFormat, v4l2Format, error) {
	if requested != "" {
		want, err := frame.ParsePixelFormat(requested)
		if err != nil && requested != "mjpeg" {
			return 0, v4l2Format{}, err
		}
		for _, f := range v4l2Formats {
			if _, ok := supported[fourcc(f.fourcc)]; !ok {
				continue
			}
			if (requested == "mjpeg" && f.codec == codec.MJPEG) || (f.format == want && want != frame.None) {
				return fourcc(f.fourcc), f.v4l2Format, nil
			}
		}
		log.Warn().Str("pixel_format", requested).Msg("device does not offer pixel format, choosing another")
	}

	for _, f := range v4l2Formats {
		if _, ok := supported[fourcc(f.fourcc)]; ok {
			return fourcc(f.fourcc), f.v4l2Format, nil
		}
	}
	return 0, v4l2Format{}, errors.Errorf("no decodable format among %v", supported)
}

type webcamDemuxer struct {
	cam    *webcam.Webcam
	params codec.Parameters
	start  time.Time

	// mu is held while the device is in use so Close waits for a blocked
	// read to time out before releasing it.
	mu     sync.Mutex
	closed int32
}

func (d *webcamDemuxer) Streams() []Stream {
	return []Stream{{Index: 0, Type: MediaVideo, Params: d.params}}
}

func (d *webcamDemuxer) ReadPacket() (*Packet, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for {
		if atomic.LoadInt32(&d.closed) == 1 {
			return nil, io.EOF
		}

		err := d.cam.WaitForFrame(webcamReadTimeout)
		switch err.(type) {
		case nil:
		case *webcam.Timeout:
			continue
		default:
			return nil, errors.Wrap(err, "wait for frame")
		}

		data, err := d.cam.ReadFrame()
		if err != nil {
			return nil, errors.Wrap(err, "read frame")
		}
		if len(data) == 0 {
			continue
		}

		buf := make([]byte, len(data))
		copy(buf, data)
		return &Packet{StreamIndex: 0, Data: buf, PTS: time.Since(d.start)}, nil
	}
}

func (d *webcamDemuxer) Close() error {
	if !atomic.CompareAndSwapInt32(&d.closed, 0, 1) {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.cam.StopStreaming()
	return d.cam.Close()
}
