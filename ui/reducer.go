package ui

import (
	"github.com/dialup-inc/camview/term"
)

func StateReducer(s State, event Event) State {
	s.Activated = activatedReducer(s.Activated, event)
	s.Quit = quitReducer(s.Quit, event)
	s.Status, s.StatusLevel = statusReducer(s.Status, s.StatusLevel, event)
	s.WinSize = winSizeReducer(s.WinSize, event)

	return s
}

func activatedReducer(s bool, event Event) bool {
	switch e := event.(type) {
	case ActivateEvent:
		return true
	case KeypressEvent:
		switch rune(e) {
		case '\r', '\n', ' ':
			return true
		}
		return s
	case FrameDrawnEvent:
		return false
	default:
		return s
	}
}

func quitReducer(s bool, event Event) bool {
	switch e := event.(type) {
	case QuitEvent:
		return true
	case KeypressEvent:
		// ctrl-c
		return s || rune(e) == 3
	default:
		return s
	}
}

func statusReducer(s string, level LogLevel, event Event) (string, LogLevel) {
	switch e := event.(type) {
	case LogEvent:
		return e.Text, e.Level
	default:
		return s, level
	}
}

func winSizeReducer(s term.WinSize, event Event) term.WinSize {
	switch e := event.(type) {
	case ResizeEvent:
		return term.WinSize(e)
	default:
		return s
	}
}
