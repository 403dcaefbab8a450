package term

import (
	"fmt"
	"image/color"
	"io"
)

// ANSI writes escape sequences for xterm-compatible terminals.
type ANSI struct {
	io.Writer
}

func (a ANSI) csi(format string, args ...interface{}) {
	fmt.Fprintf(a.Writer, "\x1b["+format, args...)
}

// CursorPosition moves the cursor to a 1-based row and column.
func (a ANSI) CursorPosition(row, col int) {
	a.csi("%d;%dH", row, col)
}

func (a ANSI) Clear()           { a.csi("2J") }
func (a ANSI) ClearLine()       { a.csi("2K") }
func (a ANSI) HideCursor()      { a.csi("?25l") }
func (a ANSI) ShowCursor()      { a.csi("?25h") }
func (a ANSI) Reset()           { a.csi("0m") }
func (a ANSI) Bold()            { a.csi("1m") }
func (a ANSI) Normal()          { a.csi("22m") }
func (a ANSI) Blink()           { a.csi("5m") }
func (a ANSI) BlinkOff()        { a.csi("25m") }
func (a ANSI) Reverse()         { a.csi("7m") }
func (a ANSI) ReverseOff()      { a.csi("27m") }
func (a ANSI) ForegroundReset() { a.csi("39m") }
func (a ANSI) BackgroundReset() { a.csi("49m") }

// Foreground sets the text color to the closest palette entry.
func (a ANSI) Foreground(c color.Color) {
	a.csi("38;5;%dm", ANSIPalette.Index(c))
}

// Background sets the cell color to the closest palette entry.
func (a ANSI) Background(c color.Color) {
	a.csi("48;5;%dm", ANSIPalette.Index(c))
}

// ANSIPalette is the xterm 256 color palette: 16 system colors, a 6x6x6
// color cube and a 24 step gray ramp.
var ANSIPalette = func() color.Palette {
	p := color.Palette{
		color.RGBA{0x00, 0x00, 0x00, 0xff},
		color.RGBA{0x80, 0x00, 0x00, 0xff},
		color.RGBA{0x00, 0x80, 0x00, 0xff},
		color.RGBA{0x80, 0x80, 0x00, 0xff},
		color.RGBA{0x00, 0x00, 0x80, 0xff},
		color.RGBA{0x80, 0x00, 0x80, 0xff},
		color.RGBA{0x00, 0x80, 0x80, 0xff},
		color.RGBA{0xc0, 0xc0, 0xc0, 0xff},
		color.RGBA{0x80, 0x80, 0x80, 0xff},
		color.RGBA{0xff, 0x00, 0x00, 0xff},
		color.RGBA{0x00, 0xff, 0x00, 0xff},
		color.RGBA{0xff, 0xff, 0x00, 0xff},
		color.RGBA{0x00, 0x00, 0xff, 0xff},
		color.RGBA{0xff, 0x00, 0xff, 0xff},
		color.RGBA{0x00, 0xff, 0xff, 0xff},
		color.RGBA{0xff, 0xff, 0xff, 0xff},
	}

	levels := []uint8{0x00, 0x5f, 0x87, 0xaf, 0xd7, 0xff}
	for _, r := range levels {
		for _, g := range levels {
			for _, b := range levels {
				p = append(p, color.RGBA{r, g, b, 0xff})
			}
		}
	}

	for i := 0; i < 24; i++ {
		v := uint8(8 + i*10)
		p = append(p, color.RGBA{v, v, v, 0xff})
	}
	return p
}()
