// Package fileprocessor handles the file workflows of the operation modes
package fileprocessor

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/retroenv/retrochip8/internal/app"
	"github.com/retroenv/retrochip8/internal/asm"
	"github.com/retroenv/retrochip8/internal/config"
	"github.com/retroenv/retrochip8/internal/detector"
	"github.com/retroenv/retrochip8/internal/disasm"
	"github.com/retroenv/retrochip8/internal/emulator"
	"github.com/retroenv/retrochip8/internal/loader"
	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrochip8/internal/statsview"
	"github.com/retroenv/retrochip8/internal/verification"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
)

// FrontendConstructor creates the frontend of the run mode.
type FrontendConstructor func(logger *log.Logger, opts options.Program) (emulator.Frontend, error)

// ProcessFile handles the complete workflow of the selected or detected mode
func ProcessFile(ctx context.Context, logger *log.Logger, opts options.Program, newFrontend FrontendConstructor) error {
	opts.Mode = detector.New(logger).Detect(opts)

	switch opts.Mode {
	case options.ModeRun:
		return RunProgram(ctx, logger, opts, newFrontend)
	case options.ModeDisasm:
		return DisassembleFile(logger, opts)
	case options.ModeAsm:
		return AssembleFile(opts)
	default:
		return fmt.Errorf("unsupported mode '%s'", opts.Mode)
	}
}

// RunProgram executes the program with the frontend until it quits.
func RunProgram(ctx context.Context, logger *log.Logger, opts options.Program, newFrontend FrontendConstructor) error {
	image, err := loader.New().Load(opts.Input)
	if err != nil {
		return fmt.Errorf("loading program: %w", err)
	}
	app.PrintInfo(logger, opts, image)

	emuOptions := opts.Emulator()
	if opts.Wav != "" {
		rec, closer, err := config.CreateRecorder(opts.Wav)
		if err != nil {
			return err
		}
		defer func() {
			if err := closer.Close(); err != nil {
				logger.Error("Finalizing audio recording failed", log.Err(err))
			}
		}()
		emuOptions.Recorder = rec
	}

	emu, err := emulator.New(logger, image, emuOptions)
	if err != nil {
		return fmt.Errorf("creating emulator: %w", err)
	}

	if opts.StatsView {
		server := statsview.Launch(logger)
		defer server.Stop()
	}

	fe, err := newFrontend(logger, opts)
	if err != nil {
		return fmt.Errorf("creating frontend: %w", err)
	}

	runErr := emu.Run(ctx, fe)
	if err := fe.Close(); err != nil {
		logger.Error("Closing frontend failed", log.Err(err))
	}

	stats := emu.Stats()
	logger.Debug("Emulation stopped",
		log.Int("cycles", int(stats.Cycles)),
		log.Int("frames", int(stats.Frames)),
		log.Int("unrecognized", int(stats.Unrecognized)))

	if opts.MemViz != "" {
		if err := dumpState(emu, opts.MemViz); err != nil {
			logger.Error("Writing machine state failed", log.Err(err))
		}
	}

	if runErr != nil {
		return fmt.Errorf("running program: %w", runErr)
	}
	return nil
}

// DisassembleFile writes the listing of the program image.
func DisassembleFile(logger *log.Logger, opts options.Program) error {
	image, err := loader.New().Load(opts.Input)
	if err != nil {
		return fmt.Errorf("loading program: %w", err)
	}
	app.PrintInfo(logger, opts, image)

	writer, err := createWriter(opts)
	if err != nil {
		return fmt.Errorf("creating writer: %w", err)
	}

	lines := disasm.Disassemble(image)
	if err := disasm.Write(writer, lines, opts.Disassembler()); err != nil {
		_ = closeWriter(writer)
		return fmt.Errorf("writing listing: %w", err)
	}
	if err := closeWriter(writer); err != nil {
		return err
	}

	if opts.AssembleTest {
		if err := verification.VerifyOutput(logger, opts, image); err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}
		logger.Info("Verification successful")
	}
	return nil
}

// AssembleFile converts a listing into a program image.
func AssembleFile(opts options.Program) error {
	source, err := os.Open(opts.Input)
	if err != nil {
		return fmt.Errorf("opening file %s: %w", opts.Input, err)
	}
	defer func() { _ = source.Close() }()

	image, err := asm.Assemble(source)
	if err != nil {
		return fmt.Errorf("assembling %s: %w", opts.Input, err)
	}

	writer, err := createWriter(opts)
	if err != nil {
		return fmt.Errorf("creating writer: %w", err)
	}
	if _, err := writer.Write(image); err != nil {
		_ = closeWriter(writer)
		return fmt.Errorf("writing program image: %w", err)
	}
	return closeWriter(writer)
}

func createWriter(opts options.Program) (io.Writer, error) {
	if opts.Output == "" {
		return os.Stdout, nil
	}

	file, err := os.Create(opts.Output)
	if err != nil {
		return nil, fmt.Errorf("creating output file %s: %w", opts.Output, err)
	}
	return file, nil
}

func closeWriter(w io.Writer) error {
	if w == os.Stdout {
		return nil
	}
	if closer, ok := w.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("closing output file: %w", err)
		}
	}
	return nil
}

func dumpState(emu *emulator.Emulator, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	return emu.DumpState(file)
}

// PrintBanner prints application version information
func PrintBanner(logger *log.Logger, opts options.Program, version, commit, date string) {
	if opts.Quiet {
		return
	}

	logger.Info("retrochip8", log.String("version", buildinfo.Version(version, commit, date)))

	if date != "" && !strings.Contains(date, "unknown") {
		logger.Debug("Build", log.String("date", date))
	}
}
