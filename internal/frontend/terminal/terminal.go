// Package terminal implements a frontend rendering into a text terminal.
//
// The terminal is switched into raw mode with non-blocking reads. Terminals
// report no key releases, a key stays latched for a hold time that is
// refreshed by the key repeat of the terminal.
package terminal

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/retroenv/retrochip8/internal/bus"
	"github.com/retroenv/retrochip8/internal/display"
	"github.com/retroenv/retrochip8/internal/emulator"
	"github.com/retroenv/retrochip8/internal/frontend"
)

// KeyHold is the time a key stays pressed after its last input byte.
const KeyHold = 150 * time.Millisecond

const (
	escape = 0x1b

	clearScreen = "\x1b[2J"
	cursorHome  = "\x1b[H"
	hideCursor  = "\x1b[?25l"
	showCursor  = "\x1b[?25h"
	bell        = "\a"
)

// Frontend renders into a terminal and reads keys from its input.
type Frontend struct {
	out     io.Writer
	read    func([]byte) (int, error)
	restore func() error

	keys  *frontend.Keys
	input [64]byte
	frame bytes.Buffer
	now   func() time.Time
}

var _ emulator.Frontend = (*Frontend)(nil)

// New switches the input terminal into raw mode and prepares the output.
func New(in *os.File, out io.Writer) (*Frontend, error) {
	fd := int(in.Fd())
	restore, err := makeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("entering raw terminal mode: %w", err)
	}

	f := newFrontend(out, func(p []byte) (int, error) {
		return readInput(fd, p)
	})
	f.restore = restore

	if _, err := io.WriteString(out, clearScreen+hideCursor); err != nil {
		_ = restore()
		return nil, fmt.Errorf("preparing terminal: %w", err)
	}
	return f, nil
}

func newFrontend(out io.Writer, read func([]byte) (int, error)) *Frontend {
	return &Frontend{
		out:  out,
		read: read,
		keys: frontend.NewKeys(KeyHold),
		now:  time.Now,
	}
}

// Poll reads all pending input bytes.
func (f *Frontend) Poll() (emulator.Input, error) {
	now := f.now()
	quit := false

	for {
		n, err := f.read(f.input[:])
		if err != nil {
			return emulator.Input{}, fmt.Errorf("reading terminal input: %w", err)
		}
		if n == 0 {
			break
		}

		keys, q := parseInput(f.input[:n])
		for _, key := range keys {
			f.keys.Press(key, now)
		}
		quit = quit || q

		if n < len(f.input) {
			break
		}
	}

	return emulator.Input{
		Key:  f.keys.Current(now),
		Quit: quit,
	}, nil
}

// parseInput maps input bytes to machine keys. A lone escape byte requests
// to quit, escape sequences of special keys are skipped.
func parseInput(data []byte) ([]bus.Key, bool) {
	var keys []bus.Key
	quit := false

	for i := 0; i < len(data); i++ {
		b := data[i]
		if b == escape {
			if i+1 >= len(data) || data[i+1] == escape {
				quit = true
				continue
			}
			i = skipEscapeSequence(data, i)
			continue
		}

		if key, ok := bus.KeyFromRune(rune(b)); ok {
			keys = append(keys, key)
		}
	}
	return keys, quit
}

// skipEscapeSequence returns the index of the last byte of the escape
// sequence starting at i.
func skipEscapeSequence(data []byte, i int) int {
	i++ // introducer
	if data[i] != '[' && data[i] != 'O' {
		return i
	}
	for i++; i < len(data); i++ {
		if data[i] >= 0x40 && data[i] <= 0x7e {
			return i
		}
	}
	return len(data) - 1
}

// Render redraws the whole framebuffer at the top of the terminal.
func (f *Frontend) Render(fb *display.Framebuffer) error {
	f.frame.Reset()
	f.frame.WriteString(cursorHome)
	for _, row := range frontend.HalfBlocks(fb) {
		f.frame.WriteString(row)
		f.frame.WriteString("\r\n")
	}

	if _, err := f.out.Write(f.frame.Bytes()); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// Beep rings the terminal bell when the tone starts.
func (f *Frontend) Beep(on bool) {
	if on {
		_, _ = io.WriteString(f.out, bell)
	}
}

// Close restores the terminal state.
func (f *Frontend) Close() error {
	if _, err := io.WriteString(f.out, showCursor); err != nil {
		return fmt.Errorf("restoring cursor: %w", err)
	}
	if f.restore == nil {
		return nil
	}
	if err := f.restore(); err != nil {
		return fmt.Errorf("restoring terminal mode: %w", err)
	}
	return nil
}
