//go:build linux || darwin || freebsd

package terminal

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// makeRaw disables line buffering and echo and makes reads return
// immediately. The returned function restores the previous state.
func makeRaw(fd int) (func() error, error) {
	termios, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return nil, fmt.Errorf("reading terminal attributes: %w", err)
	}

	saved := *termios
	state := *termios

	state.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.INLCR | unix.ICRNL
	state.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.IEXTEN
	state.Cflag &^= unix.CSIZE | unix.PARENB
	state.Cflag |= unix.CS8

	state.Cc[unix.VMIN] = 0
	state.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, ioctlSetTermios, &state); err != nil {
		return nil, fmt.Errorf("setting terminal attributes: %w", err)
	}

	return func() error {
		return unix.IoctlSetTermios(fd, ioctlSetTermios, &saved)
	}, nil
}

func readInput(fd int, p []byte) (int, error) {
	n, err := unix.Read(fd, p)
	if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
		return 0, nil
	}
	return n, err
}
