// Package metrics counts what the capture pipeline does.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every collector of this package. It is separate from the
// default registry so tests can read it without process collectors.
var Registry = prometheus.NewRegistry()

var (
	FramesPulled = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "camview",
		Name:      "frames_pulled_total",
		Help:      "Frames returned by camera streams.",
	})

	PullErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "camview",
		Name:      "pull_errors_total",
		Help:      "Failed frame pulls, by error kind.",
	}, []string{"kind"})

	MailboxDrops = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "camview",
		Name:      "mailbox_drops_total",
		Help:      "Deliveries overwritten before the viewer received them.",
	})

	FramesWritten = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "camview",
		Name:      "frames_written_total",
		Help:      "Frames written to disk by the extractor.",
	})

	StreamsOpened = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "camview",
		Name:      "streams_opened_total",
		Help:      "Camera streams opened successfully.",
	})
)

func init() {
	Registry.MustRegister(FramesPulled, PullErrors, MailboxDrops, FramesWritten, StreamsOpened)
}
