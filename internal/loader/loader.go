// Package loader handles program image loading operations.
package loader

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/retroenv/retrochip8/internal/memory"
)

// ErrEmptyImage is returned for program images without any data.
var ErrEmptyImage = errors.New("program image is empty")

// Loader handles loading program images from disk.
type Loader struct{}

// New creates a new program loader.
func New() *Loader {
	return &Loader{}
}

// Load reads and validates a raw program image file.
func (l *Loader) Load(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	// read one byte more than fits to detect oversized images
	data, err := io.ReadAll(io.LimitReader(file, memory.MaxProgramSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}

	return l.LoadFromBytes(data)
}

// LoadFromBytes validates a program image held in memory.
func (l *Loader) LoadFromBytes(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	if len(data) > memory.MaxProgramSize {
		return nil, fmt.Errorf("%w: maximum is %d bytes", memory.ErrImageTooLarge, memory.MaxProgramSize)
	}
	return data, nil
}
