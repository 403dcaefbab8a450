// Package device opens capture devices and exposes them as packet streams.
//
// Input formats register themselves by name ("avfoundation", "v4l2", "lavfi").
// Init must run before Find; it is safe to call it any number of times.
package device

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dialup-inc/camview/codec"
	"github.com/pkg/errors"
)

var (
	// ErrUnsupported is returned on platforms without any capture backend.
	ErrUnsupported = errors.New("device: capture is not supported on this platform")
	// ErrBackendMissing is returned when the requested input format is not
	// available on this host.
	ErrBackendMissing = errors.New("device: capture backend missing")
)

type MediaType int

const (
	MediaVideo MediaType = iota
	MediaAudio
	MediaData
)

func (m MediaType) String() string {
	switch m {
	case MediaVideo:
		return "video"
	case MediaAudio:
		return "audio"
	default:
		return "data"
	}
}

// Stream describes one elementary stream of an opened input.
type Stream struct {
	Index  int
	Type   MediaType
	Params codec.Parameters
}

// Packet is one unit of demuxed data. For video inputs it holds one frame.
type Packet struct {
	StreamIndex int
	Data        []byte
	PTS         time.Duration
}

// Demuxer reads packets from an opened input. ReadPacket returns io.EOF once
// the input has ended. A Demuxer is not safe for concurrent use, except that
// Close may be called to interrupt a blocked ReadPacket.
type Demuxer interface {
	Streams() []Stream
	ReadPacket() (*Packet, error)
	Close() error
}

// InputFormat opens devices of one kind.
type InputFormat interface {
	Name() string
	Open(selector string, opts Dict) (Demuxer, error)
}

// Lister is implemented by input formats that can enumerate their devices.
type Lister interface {
	Devices() ([]string, error)
}

// Dict carries open-time options, named like the ffmpeg device options they
// map to (framerate, video_size, pixel_format).
type Dict map[string]string

func (d Dict) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (d Dict) String() string {
	var parts []string
	for _, k := range d.Keys() {
		parts = append(parts, fmt.Sprintf("%s=%s", k, d[k]))
	}
	return strings.Join(parts, " ")
}

var (
	initOnce sync.Once

	formatsMu sync.RWMutex
	formats   = map[string]InputFormat{}
)

// Init registers the input formats available on this platform.
func Init() {
	initOnce.Do(func() {
		Register(newFFmpegFormat("lavfi"))
		registerPlatform()
	})
}

// Register makes an input format available under its name, replacing any
// format previously registered with the same name.
func Register(f InputFormat) {
	formatsMu.Lock()
	formats[f.Name()] = f
	formatsMu.Unlock()
}

// Find looks up a registered input format.
func Find(name string) (InputFormat, error) {
	formatsMu.RLock()
	f, ok := formats[name]
	formatsMu.RUnlock()

	if !ok {
		return nil, errors.Wrapf(ErrBackendMissing, "no input format %q", name)
	}
	return f, nil
}

// Formats lists the names of all registered input formats.
func Formats() []string {
	formatsMu.RLock()
	defer formatsMu.RUnlock()

	names := make([]string, 0, len(formats))
	for name := range formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns the device selectors the named input format can open.
func List(name string) ([]string, error) {
	f, err := Find(name)
	if err != nil {
		return nil, err
	}
	l, ok := f.(Lister)
	if !ok {
		return nil, errors.Errorf("device: %s cannot list devices", name)
	}
	return l.Devices()
}

// PlatformDefault names the camera input format of the running platform.
func PlatformDefault() (string, error) {
	if platformFormat == "" {
		return "", ErrUnsupported
	}
	return platformFormat, nil
}

// FirstVideo returns the first video stream of d.
func FirstVideo(d Demuxer) (Stream, bool) {
	for _, s := range d.Streams() {
		if s.Type == MediaVideo {
			return s, true
		}
	}
	return Stream{}, false
}
