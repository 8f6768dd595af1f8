//go:build !linux && !darwin && !freebsd

package terminal

import "errors"

var errUnsupported = errors.New("terminal frontend is not supported on this platform")

func makeRaw(int) (func() error, error) {
	return nil, errUnsupported
}

func readInput(int, []byte) (int, error) {
	return 0, errUnsupported
}
