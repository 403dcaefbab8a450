// Package term drives the terminal: raw keyboard input, window size and ANSI
// output.
package term

import (
	"bufio"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// makeRaw puts fd into raw mode and returns the previous settings.
func makeRaw(fd int) (*unix.Termios, error) {
	termios, err := unix.IoctlGetTermios(fd, ioctlReadTermios)
	if err != nil {
		return nil, err
	}
	old := *termios

	// This attempts to replicate the behaviour documented for cfmakeraw in
	// the termios(3) manpage.
	termios.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	termios.Oflag &^= unix.OPOST
	termios.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	termios.Cflag &^= unix.CSIZE | unix.PARENB
	termios.Cflag |= unix.CS8
	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, ioctlWriteTermios, termios); err != nil {
		return nil, err
	}

	return &old, nil
}

// CaptureStdin switches stdin to raw mode and calls onRune for every rune
// typed. The returned function restores the terminal.
func CaptureStdin(onRune func(rune)) (restore func() error, err error) {
	fd := int(os.Stdin.Fd())
	old, err := makeRaw(fd)
	if err != nil {
		return nil, os.NewSyscallError("MakeRaw", err)
	}

	go ReadRunes(os.Stdin, onRune)

	return func() error {
		return unix.IoctlSetTermios(fd, ioctlWriteTermios, old)
	}, nil
}

// ReadRunes calls onRune for each rune read from r until r is exhausted.
func ReadRunes(r io.Reader, onRune func(rune)) {
	reader := bufio.NewReader(r)
	for {
		c, _, err := reader.ReadRune()
		if err == io.EOF {
			return
		}
		if err != nil {
			continue
		}
		onRune(c)
	}
}
