// Package bus connects the execution engine to the framebuffer and the
// input latch that the host updates.
package bus

import (
	"fmt"
	"unicode"

	"github.com/retroenv/retrochip8/internal/display"
)

// Key is a key code of the 16 key hexadecimal keypad.
type Key uint8

// NoKey marks an empty input latch.
const NoKey Key = 0xFF

// String returns the key as hex digit.
func (k Key) String() string {
	if k == NoKey {
		return "none"
	}
	return fmt.Sprintf("%X", uint8(k))
}

// keyMap maps host keyboard keys to the keypad layout:
//
//	1 2 3 4      1 2 3 C
//	q w e r  ->  4 5 6 D
//	a s d f      7 8 9 E
//	z x c v      A 0 B F
var keyMap = map[rune]Key{
	'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xC,
	'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xD,
	'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xE,
	'z': 0xA, 'x': 0x0, 'c': 0xB, 'v': 0xF,
}

// KeyFromRune maps a host keyboard character to a keypad key.
func KeyFromRune(r rune) (Key, bool) {
	k, ok := keyMap[unicode.ToLower(r)]
	return k, ok
}

// Bus owns the framebuffer and the input latch.
type Bus struct {
	display *display.Framebuffer
	key     Key
}

// New returns a new bus with a cleared framebuffer and an empty input latch.
func New() *Bus {
	return &Bus{
		display: display.New(),
		key:     NoKey,
	}
}

// Display returns the framebuffer.
func (b *Bus) Display() *display.Framebuffer {
	return b.display
}

// SetKey latches the most recently pressed key. Values outside of the
// keypad range clear the latch.
func (b *Bus) SetKey(k Key) {
	if k > 0xF {
		k = NoKey
	}
	b.key = k
}

// ClearKey empties the input latch.
func (b *Bus) ClearKey() {
	b.key = NoKey
}

// Key returns the latched key and whether the latch holds a key.
func (b *Bus) Key() (Key, bool) {
	return b.key, b.key != NoKey
}

// IsKeyPressed returns whether the given key is the latched key.
func (b *Bus) IsKeyPressed(k Key) bool {
	return b.key != NoKey && b.key == k
}
