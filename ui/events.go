package ui

import (
	"github.com/dialup-inc/camview/term"
)

// An Event represents a user action that cause changes in the UI state.
//
// They're processed by Renderer's Dispatch method.
type Event interface{}

// KeypressEvent is fired when the user presses the keyboard.
type KeypressEvent rune

// ActivateEvent presses the focused button.
type ActivateEvent struct{}

// ResizeEvent indicates that the terminal window's size has changed to the specified dimensions
type ResizeEvent term.WinSize

// QuitEvent asks the renderer to stop.
type QuitEvent struct{}

// FrameDrawnEvent is fired by the renderer after each frame; it consumes
// the pending activation.
type FrameDrawnEvent struct{}

// LogLevel indicates the severity of a LogEvent message
type LogLevel int

const (
	// LogLevelInfo is for non-urgent, informational logs
	LogLevelInfo LogLevel = iota
	// LogLevelError is for logs that indicate problems
	LogLevelError
)

// A LogEvent shows a message in the status line
type LogEvent struct {
	Text  string
	Level LogLevel
}
