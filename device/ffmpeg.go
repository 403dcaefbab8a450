package device

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dialup-inc/camview/codec"
	"github.com/dialup-inc/camview/frame"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	ffmpegBinary = "ffmpeg"
	probeTimeout = 10 * time.Second
)

// ffmpegFormat captures through an ffmpeg child process. ffmpeg opens the
// device, decodes whatever the device delivers into raw video of the device's
// own pixel format and writes one frame after another to its stdout.
type ffmpegFormat struct {
	name   string
	binary string
}

func newFFmpegFormat(name string) *ffmpegFormat {
	return &ffmpegFormat{name: name, binary: ffmpegBinary}
}

func (f *ffmpegFormat) Name() string {
	return f.name
}

func (f *ffmpegFormat) Open(selector string, opts Dict) (Demuxer, error) {
	bin, err := exec.LookPath(f.binary)
	if err != nil {
		return nil, errors.Wrapf(ErrBackendMissing, "%s input needs %s: %v", f.name, f.binary, err)
	}

	args := ffmpegArgs(f.name, selector, opts)
	log.Debug().Str("format", f.name).Strs("args", args).Msg("starting ffmpeg")

	cmd := exec.Command(bin, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "ffmpeg stdout")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, errors.Wrap(err, "ffmpeg stderr")
	}
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "start ffmpeg")
	}

	d := &ffmpegDemuxer{
		cmd:     cmd,
		out:     bufio.NewReaderSize(stdout, 1<<20),
		start:   time.Now(),
		logDone: make(chan struct{}),
	}

	params, err := d.probe(stderr, probeTimeout)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.params = params
	d.frameSize = params.PixelFormat.Size(params.Width, params.Height)

	return d, nil
}

// ffmpegArgs builds the command line. Options go in front of -i so that they
// apply to the input device.
func ffmpegArgs(format, selector string, opts Dict) []string {
	args := []string{"-hide_banner", "-nostats", "-loglevel", "info", "-f", format}

	if format == "lavfi" {
		selector = lavfiSource(selector, opts)
	} else {
		for _, k := range opts.Keys() {
			args = append(args, "-"+k, opts[k])
		}
	}

	return append(args,
		"-i", selector,
		"-map", "0:v:0",
		"-c:v", "rawvideo",
		"-f", "rawvideo",
		"pipe:1",
	)
}

// lavfiSource turns the "default" selector into a test pattern honouring the
// open options. Any other selector is used as the filter graph verbatim.
func lavfiSource(selector string, opts Dict) string {
	if selector != "" && selector != "default" {
		return selector
	}

	size := "320x240"
	if s, ok := opts["video_size"]; ok {
		size = s
	}
	rate := "30"
	if r, ok := opts["framerate"]; ok {
		rate = r
	}
	src := fmt.Sprintf("testsrc2=size=%s:rate=%s", size, rate)
	if pf, ok := opts["pixel_format"]; ok {
		src += ",format=" + pf
	}
	return src
}

var streamLine = regexp.MustCompile(`Stream #\d+:\d+.*?: Video: (\w+)(?: \([^)]*\))*, (\w+)(?:\([^)]*\))?, (\d+)x(\d+)`)

// parseStreamLine extracts codec parameters from an ffmpeg stream description
// such as "Stream #0:0: Video: rawvideo (BGR0 / 0x30524742), bgr0, 1280x720".
func parseStreamLine(line string) (codec.Parameters, bool) {
	m := streamLine.FindStringSubmatch(line)
	if m == nil {
		return codec.Parameters{}, false
	}

	w, _ := strconv.Atoi(m[3])
	h, _ := strconv.Atoi(m[4])
	pf, err := frame.ParsePixelFormat(m[2])
	if err != nil {
		pf = frame.None
	}

	return codec.Parameters{
		Codec:       codec.ID(m[1]),
		Width:       w,
		Height:      h,
		PixelFormat: pf,
	}, true
}

type probeResult struct {
	params codec.Parameters
	err    error
}

type ffmpegDemuxer struct {
	cmd *exec.Cmd
	out *bufio.Reader

	params    codec.Parameters
	frameSize int
	start     time.Time

	closeOnce sync.Once
	closed    int32

	waitOnce sync.Once
	waitErr  error

	// logDone is closed once ffmpeg's stderr hit EOF.
	logDone  chan struct{}
	lastMu   sync.Mutex
	lastLine string
}

// probe reads ffmpeg's log until the output stream is described. The rest of
// the log keeps being drained in the background.
func (d *ffmpegDemuxer) probe(stderr io.Reader, timeout time.Duration) (codec.Parameters, error) {
	result := make(chan probeResult, 1)

	go func() {
		defer close(d.logDone)

		scanner := bufio.NewScanner(stderr)
		var (
			inOutput bool
			found    bool
		)
		for scanner.Scan() {
			line := scanner.Text()
			log.Debug().Str("source", "ffmpeg").Msg(line)
			d.setLastLine(line)

			if found {
				continue
			}
			if streamOutput.MatchString(line) {
				inOutput = true
				continue
			}
			if !inOutput {
				continue
			}
			if params, ok := parseStreamLine(line); ok {
				found = true
				result <- probeResult{params: params}
			}
		}
		if !found {
			result <- probeResult{err: errors.Errorf("ffmpeg exited before reporting a stream: %s", d.lastLogLine())}
		}
	}()

	select {
	case r := <-result:
		return r.params, r.err
	case <-time.After(timeout):
		return codec.Parameters{}, errors.Errorf("ffmpeg did not report a stream within %v", timeout)
	}
}

var streamOutput = regexp.MustCompile(`^Output #0`)

func (d *ffmpegDemuxer) setLastLine(line string) {
	d.lastMu.Lock()
	d.lastLine = line
	d.lastMu.Unlock()
}

func (d *ffmpegDemuxer) lastLogLine() string {
	d.lastMu.Lock()
	defer d.lastMu.Unlock()
	return d.lastLine
}

// wait reaps ffmpeg once its log is drained and remembers the exit status.
func (d *ffmpegDemuxer) wait() error {
	d.waitOnce.Do(func() {
		<-d.logDone
		d.waitErr = d.cmd.Wait()
	})
	return d.waitErr
}

func (d *ffmpegDemuxer) Streams() []Stream {
	return []Stream{{Index: 0, Type: MediaVideo, Params: d.params}}
}

func (d *ffmpegDemuxer) ReadPacket() (*Packet, error) {
	if d.frameSize == 0 {
		return nil, errors.Errorf("cannot size packets of %v", d.params)
	}

	if atomic.LoadInt32(&d.closed) == 1 {
		return nil, io.EOF
	}

	buf := make([]byte, d.frameSize)
	_, err := io.ReadFull(d.out, buf)
	switch {
	case err == nil:
	case atomic.LoadInt32(&d.closed) == 1:
		return nil, io.EOF
	case err == io.EOF, err == io.ErrUnexpectedEOF:
		// a finite graph ends with status 0; anything else means the device went away
		if werr := d.wait(); werr != nil && atomic.LoadInt32(&d.closed) == 0 {
			return nil, errors.Wrapf(werr, "ffmpeg stopped: %s", d.lastLogLine())
		}
		return nil, io.EOF
	default:
		return nil, errors.Wrap(err, "read ffmpeg output")
	}

	return &Packet{
		StreamIndex: 0,
		Data:        buf,
		PTS:         time.Since(d.start),
	}, nil
}

func (d *ffmpegDemuxer) Close() error {
	d.closeOnce.Do(func() {
		atomic.StoreInt32(&d.closed, 1)
		if d.cmd.Process != nil {
			d.cmd.Process.Kill()
		}
		// the process was killed, so its exit status carries no information
		d.wait()
	})
	return nil
}

// Devices lists what the format can open. Only avfoundation can enumerate
// hardware; lavfi offers its synthetic default source.
func (f *ffmpegFormat) Devices() ([]string, error) {
	if f.name != "avfoundation" {
		return []string{"default"}, nil
	}

	bin, err := exec.LookPath(f.binary)
	if err != nil {
		return nil, errors.Wrapf(ErrBackendMissing, "listing needs %s: %v", f.binary, err)
	}

	// ffmpeg exits non-zero after listing since no input was opened.
	out, _ := exec.Command(bin, "-hide_banner", "-f", "avfoundation", "-list_devices", "true", "-i", "").CombinedOutput()
	return parseAVFoundationDevices(string(out)), nil
}

var (
	avfDeviceLine  = regexp.MustCompile(`\] \[(\d+)\] (.+)$`)
	avfVideoHeader = regexp.MustCompile(`AVFoundation video devices`)
	avfAudioHeader = regexp.MustCompile(`AVFoundation audio devices`)
)

// parseAVFoundationDevices reads the output of
// "ffmpeg -f avfoundation -list_devices true -i ''" and returns the video
// devices in index order.
func parseAVFoundationDevices(output string) []string {
	var (
		devices []string
		inVideo bool
	)
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case avfVideoHeader.MatchString(line):
			inVideo = true
			continue
		case avfAudioHeader.MatchString(line):
			inVideo = false
			continue
		}
		if !inVideo {
			continue
		}
		if m := avfDeviceLine.FindStringSubmatch(line); m != nil {
			devices = append(devices, m[2])
		}
	}
	return devices
}
