package ui

import (
	"github.com/dialup-inc/camview/term"
)

type State struct {
	WinSize term.WinSize

	// Activated is set between a button press and the next frame.
	Activated bool
	Quit      bool

	Status      string
	StatusLevel LogLevel
}
