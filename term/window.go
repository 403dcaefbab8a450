package term

import (
	"os"

	"golang.org/x/sys/unix"
)

// WinSize is the terminal size in character cells and, when the terminal
// reports it, in pixels.
type WinSize struct {
	Rows   int
	Cols   int
	Width  int
	Height int
}

func GetWinSize() (WinSize, error) {
	ws, err := unix.IoctlGetWinsize(int(os.Stdout.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return WinSize{}, os.NewSyscallError("GetWinsize", err)
	}
	return WinSize{
		Rows:   int(ws.Row),
		Cols:   int(ws.Col),
		Width:  int(ws.Xpixel),
		Height: int(ws.Ypixel),
	}, nil
}

// Aspect is the height of a character cell divided by its width. Terminals
// that do not report pixel sizes are assumed to use cells twice as tall as
// they are wide.
func (w WinSize) Aspect() float64 {
	if w.Width == 0 || w.Height == 0 || w.Rows == 0 || w.Cols == 0 {
		return 2.0
	}
	return float64(w.Height) * float64(w.Cols) / float64(w.Rows) / float64(w.Width)
}
