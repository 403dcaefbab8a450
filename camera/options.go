package camera

import (
	"strconv"

	"github.com/dialup-inc/camview/device"
	"github.com/dialup-inc/camview/frame"
	"github.com/dialup-inc/camview/scale"
)

// Options configure Open. Zero values mean "let the device decide".
type Options struct {
	// Device selects the capture device. Its meaning depends on the backend:
	// an AVFoundation index or name, a /dev/video path, or a lavfi graph.
	Device string

	Framerate int
	VideoSize frame.Size

	// PixelFormat is the format of the frames returned by PullFrame.
	PixelFormat frame.PixelFormat

	// Backend names the input format. Empty selects the platform's camera
	// backend.
	Backend string

	// InputPixelFormat asks the device for a capture format, e.g. "bgr0".
	InputPixelFormat string

	// OutputSize scales frames when set. Zero keeps the decoded size.
	OutputSize frame.Size
	Scaling    scale.Flags
}

func DefaultOptions() Options {
	return Options{
		Device:      "default",
		Framerate:   30,
		PixelFormat: frame.RGB24,
	}
}

// Dict returns the backend options for o, holding only the keys that are set.
func (o Options) Dict() device.Dict {
	d := device.Dict{}
	if o.Framerate > 0 {
		d["framerate"] = strconv.Itoa(o.Framerate)
	}
	if !o.VideoSize.IsZero() {
		d["video_size"] = o.VideoSize.String()
	}
	if o.InputPixelFormat != "" {
		d["pixel_format"] = o.InputPixelFormat
	}
	return d
}

func (o Options) selector() string {
	if o.Device == "" {
		return "default"
	}
	return o.Device
}
