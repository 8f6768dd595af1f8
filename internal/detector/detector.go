// Package detector handles operation mode detection.
package detector

import (
	"path/filepath"
	"strings"

	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrogolib/log"
)

// Detector handles operation mode detection from file extensions and options.
type Detector struct {
	logger *log.Logger
}

// New creates a new mode detector.
func New(logger *log.Logger) *Detector {
	return &Detector{
		logger: logger,
	}
}

// Detect determines the operation mode from options or file auto-detection.
// An explicitly specified mode is used as is, otherwise source files are
// assembled and program images are run, or disassembled if a verification
// of the listing was requested.
func (d *Detector) Detect(opts options.Program) string {
	if opts.Mode != "" {
		return opts.Mode
	}

	mode := d.detectFromFile(opts.Input)
	if mode == options.ModeRun && opts.AssembleTest {
		mode = options.ModeDisasm
	}

	d.logger.Debug("Auto-detected mode",
		log.String("mode", mode),
		log.String("file", opts.Input))
	return mode
}

// detectFromFile determines the mode based on file extension.
func (d *Detector) detectFromFile(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".asm", ".s", ".src", ".8o":
		return options.ModeAsm
	default:
		// program images have no common extension, .ch8, .c8 and .rom are widespread
		return options.ModeRun
	}
}
