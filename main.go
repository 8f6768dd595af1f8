// Package main implements the main entry point for a CHIP-8 emulator, disassembler and assembler
package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/retroenv/retrochip8/internal/cli"
	"github.com/retroenv/retrochip8/internal/config"
	"github.com/retroenv/retrochip8/internal/emulator"
	"github.com/retroenv/retrochip8/internal/fileprocessor"
	"github.com/retroenv/retrochip8/internal/frontend/sdl"
	"github.com/retroenv/retrochip8/internal/frontend/terminal"
	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/log"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

// SDL requires its calls to happen on the main thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	ctx := app.Context()

	opts, err := cli.ParseFlags()
	if err != nil {
		logger := config.CreateLogger(opts.Debug, opts.Quiet)
		var usageErr *cli.UsageError
		if errors.As(err, &usageErr) {
			fileprocessor.PrintBanner(logger, opts, version, commit, date)
			usageErr.ShowUsage()
		} else {
			logger.Fatal(err.Error())
		}
		os.Exit(1)
	}

	logger := config.CreateLogger(opts.Debug, opts.Quiet)
	fileprocessor.PrintBanner(logger, opts, version, commit, date)

	if err := fileprocessor.ProcessFile(ctx, logger, opts, createFrontend); err != nil {
		logger.Error("Processing failed", log.String("file", opts.Input), log.Err(err))
		os.Exit(1)
	}
}

// createFrontend creates the frontend selected by the options.
func createFrontend(logger *log.Logger, opts options.Program) (emulator.Frontend, error) {
	switch opts.Frontend {
	case options.FrontendSDL:
		fe, err := sdl.New(logger, opts.Scale)
		if err != nil {
			return nil, fmt.Errorf("creating sdl frontend: %w", err)
		}
		return fe, nil

	case options.FrontendTerminal:
		fe, err := terminal.New(os.Stdin, os.Stdout)
		if err != nil {
			return nil, fmt.Errorf("creating terminal frontend: %w", err)
		}
		return fe, nil

	default:
		return nil, fmt.Errorf("unsupported frontend '%s'", opts.Frontend)
	}
}
