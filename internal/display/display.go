// Package display implements the 64x32 monochrome framebuffer.
package display

import "strings"

const (
	// Width is the number of pixel columns.
	Width = 64
	// Height is the number of pixel rows.
	Height = 32
	// SpriteWidth is the fixed width of a sprite row in pixels.
	SpriteWidth = 8
)

// Framebuffer is a row-major grid of 1-bit pixels, addressed x + Width*y.
type Framebuffer struct {
	pixels [Width * Height]uint8
}

// New returns a cleared framebuffer.
func New() *Framebuffer {
	return &Framebuffer{}
}

// Clear turns all pixels off.
func (f *Framebuffer) Clear() {
	f.pixels = [Width * Height]uint8{}
}

// DrawSprite XOR-composites a sprite of 8 pixel wide rows at the given
// origin. Wraparound is applied to every pixel so that sprites straddling an
// edge continue on the opposite side. It returns whether any pixel was
// turned off by the operation.
func (f *Framebuffer) DrawSprite(x, y uint8, sprite []byte) bool {
	var collision bool

	for row, b := range sprite {
		py := (int(y) + row) % Height
		for col := 0; col < SpriteWidth; col++ {
			if b&(0x80>>col) == 0 {
				continue
			}

			px := (int(x) + col) % Width
			index := px + Width*py
			if f.pixels[index] == 1 {
				collision = true
			}
			f.pixels[index] ^= 1
		}
	}

	return collision
}

// Pixel returns whether the pixel at the given coordinates is set.
// Coordinates are wrapped into the framebuffer.
func (f *Framebuffer) Pixel(x, y int) bool {
	x = ((x % Width) + Width) % Width
	y = ((y % Height) + Height) % Height
	return f.pixels[x+Width*y] == 1
}

// Pixels returns the raw pixel data, one byte of value 0 or 1 per pixel.
// The returned slice must not be modified.
func (f *Framebuffer) Pixels() []uint8 {
	return f.pixels[:]
}

// String renders the framebuffer as text, '#' for set and '.' for unset pixels.
func (f *Framebuffer) String() string {
	var sb strings.Builder
	sb.Grow((Width + 1) * Height)

	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			if f.pixels[x+Width*y] == 1 {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
