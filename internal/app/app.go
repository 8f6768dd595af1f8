// Package app provides the main application helper for the emulator.
package app

import (
	"strings"

	"github.com/retroenv/retrochip8/internal/memory"
	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrogolib/log"
)

// PrintInfo prints the information about the input file and the program image.
func PrintInfo(logger *log.Logger, opts options.Program, image []byte) {
	if opts.Quiet {
		return
	}

	switch opts.Mode {
	case options.ModeRun:
		logger.Info("Running CHIP-8 program",
			log.String("file", opts.Input),
			log.Int("size", len(image)),
			log.String("frontend", opts.Frontend),
		)
		if quirks := quirkNames(opts); len(quirks) > 0 {
			logger.Info("Legacy instruction variants enabled",
				log.String("quirks", strings.Join(quirks, ", ")))
		}

	case options.ModeDisasm:
		logger.Info("Disassembling CHIP-8 program",
			log.String("file", opts.Input),
			log.Int("size", len(image)),
		)
	}

	if len(image)%2 != 0 {
		logger.Warn("Program image has an odd size, the last byte is treated as data",
			log.Hex("address", memory.ProgramStart+len(image)-1))
	}
}

func quirkNames(opts options.Program) []string {
	var names []string
	if opts.ShiftUsesVY {
		names = append(names, "shift-vy")
	}
	if opts.LoadStoreIncrementsI {
		names = append(names, "loadstore-inc")
	}
	return names
}
