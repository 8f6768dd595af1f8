// Package memory implements the CHIP-8 address space.
//
// CHIP-8 memory map (4KB total):
//
//	0x000-0x04F: built-in hexadecimal glyph table (16 glyphs, 5 bytes each)
//	0x050-0x1FF: reserved interpreter area, zero initialized
//	0x200-0xFFF: program image and working data
package memory

import (
	"errors"
	"fmt"
)

const (
	// Size is the size of the address space in bytes.
	Size = 4096

	// ProgramStart is the address where program images are loaded and where
	// execution begins.
	ProgramStart = 0x200

	// MaxProgramSize is the largest program image that fits into memory.
	MaxProgramSize = Size - ProgramStart

	// GlyphStride is the number of bytes per glyph of the glyph table.
	GlyphStride = 5
)

var (
	// ErrAddressOutOfRange is returned for accesses outside of the address space.
	ErrAddressOutOfRange = errors.New("address out of range")
	// ErrImageTooLarge is returned when a program image does not fit into memory.
	ErrImageTooLarge = errors.New("program image too large")
)

// glyphs is the bitmap data of the hexadecimal digits 0-F, one row per byte
// with the upper 4 bits significant.
var glyphs = [16 * GlyphStride]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Memory is the flat byte addressable store of the virtual machine.
type Memory struct {
	data [Size]byte
}

// New returns a new memory instance with the glyph table preloaded.
func New() *Memory {
	m := &Memory{}
	copy(m.data[:], glyphs[:])
	return m
}

// Load copies a program image into memory starting at ProgramStart.
func (m *Memory) Load(image []byte) error {
	if len(image) > MaxProgramSize {
		return fmt.Errorf("%w: %d bytes, maximum is %d", ErrImageTooLarge, len(image), MaxProgramSize)
	}
	copy(m.data[ProgramStart:], image)
	return nil
}

// Read returns the byte at the given address.
func (m *Memory) Read(address uint16) (uint8, error) {
	if int(address) >= Size {
		return 0, fmt.Errorf("reading address $%04X: %w", address, ErrAddressOutOfRange)
	}
	return m.data[address], nil
}

// Write sets the byte at the given address.
func (m *Memory) Write(address uint16, value uint8) error {
	if int(address) >= Size {
		return fmt.Errorf("writing address $%04X: %w", address, ErrAddressOutOfRange)
	}
	m.data[address] = value
	return nil
}

// ReadRange returns a copy of count bytes starting at the given address.
// The whole range has to be inside of the address space.
func (m *Memory) ReadRange(address uint16, count int) ([]byte, error) {
	end := int(address) + count
	if count < 0 || end > Size {
		return nil, fmt.Errorf("reading %d bytes at $%04X: %w", count, address, ErrAddressOutOfRange)
	}
	buf := make([]byte, count)
	copy(buf, m.data[address:end])
	return buf, nil
}

// ReadWord reads a big-endian 16-bit word at the given address.
func (m *Memory) ReadWord(address uint16) (uint16, error) {
	if int(address)+1 >= Size {
		return 0, fmt.Errorf("reading word at $%04X: %w", address, ErrAddressOutOfRange)
	}
	return uint16(m.data[address])<<8 | uint16(m.data[address+1]), nil
}

// GlyphAddress returns the address of the glyph for the low nibble of digit.
func GlyphAddress(digit uint8) uint16 {
	return uint16(digit&0x0F) * GlyphStride
}
