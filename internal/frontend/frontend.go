// Package frontend contains the host independent parts of the frontends:
// key hold tracking and framebuffer conversion.
package frontend

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/retroenv/retrochip8/internal/bus"
	"github.com/retroenv/retrochip8/internal/display"
)

// Pixel colors in ARGB8888 format.
const (
	ColorOn  uint32 = 0xFF33FF66
	ColorOff uint32 = 0xFF000000
)

// Keys tracks the held machine keys. The most recently pressed key that is
// still held is reported. A key pressed and released between two Current
// calls is still reported once. With a non zero hold time a press expires
// unless it is repeated, for hosts that do not report key releases.
type Keys struct {
	hold    time.Duration
	held    []bus.Key
	pressed map[bus.Key]time.Time
	latest  bus.Key // last press since the previous Current call
}

// NewKeys returns a key tracker with the given hold time, 0 disables expiry.
func NewKeys(hold time.Duration) *Keys {
	return &Keys{
		hold:    hold,
		pressed: make(map[bus.Key]time.Time),
		latest:  bus.NoKey,
	}
}

// Press marks the key as held.
func (k *Keys) Press(key bus.Key, now time.Time) {
	k.Release(key)
	k.held = append(k.held, key)
	k.pressed[key] = now
	k.latest = key
}

// Release marks the key as no longer held.
func (k *Keys) Release(key bus.Key) {
	for i, held := range k.held {
		if held == key {
			k.held = append(k.held[:i], k.held[i+1:]...)
			break
		}
	}
	delete(k.pressed, key)
}

// Current returns the most recently pressed key or bus.NoKey. A key pressed
// since the previous call is returned even if it has been released.
func (k *Keys) Current(now time.Time) bus.Key {
	if latest := k.latest; latest != bus.NoKey {
		k.latest = bus.NoKey
		return latest
	}

	if k.hold > 0 {
		for i := 0; i < len(k.held); {
			key := k.held[i]
			if now.Sub(k.pressed[key]) < k.hold {
				i++
				continue
			}
			k.Release(key)
		}
	}

	if len(k.held) == 0 {
		return bus.NoKey
	}
	return k.held[len(k.held)-1]
}

// FillARGB writes the framebuffer as ARGB8888 pixels into dst, which has
// rows of pitch bytes.
func FillARGB(dst []byte, pitch int, fb *display.Framebuffer, on, off uint32) {
	for y := range display.Height {
		row := dst[y*pitch:]
		for x := range display.Width {
			color := off
			if fb.Pixel(x, y) {
				color = on
			}
			binary.LittleEndian.PutUint32(row[4*x:], color)
		}
	}
}

// HalfBlocks renders the framebuffer as text rows, each character covering
// two pixel rows.
func HalfBlocks(fb *display.Framebuffer) []string {
	rows := make([]string, 0, display.Height/2)
	var sb strings.Builder

	for y := 0; y < display.Height; y += 2 {
		sb.Reset()
		for x := range display.Width {
			upper := fb.Pixel(x, y)
			lower := fb.Pixel(x, y+1)
			switch {
			case upper && lower:
				sb.WriteRune('█')
			case upper:
				sb.WriteRune('▀')
			case lower:
				sb.WriteRune('▄')
			default:
				sb.WriteByte(' ')
			}
		}
		rows = append(rows, sb.String())
	}
	return rows
}
