// Package cli handles command line interface logic
package cli

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/retroenv/retrochip8/internal/emulator"
	"github.com/retroenv/retrochip8/internal/options"
	retrocli "github.com/retroenv/retrogolib/cli"
)

var (
	validModes     = []string{options.ModeRun, options.ModeDisasm, options.ModeAsm}
	validFrontends = []string{options.FrontendSDL, options.FrontendTerminal}
)

// ParseFlags parses command line flags and returns the program options
func ParseFlags() (options.Program, error) {
	var opts options.Program
	flags := newFlagSet(&opts)

	args, err := flags.Parse(os.Args[1:])
	if err != nil {
		// the flag set has already printed the usage
		if errors.Is(err, retrocli.ErrHelpRequested) {
			return opts, &UsageError{}
		}
		return opts, err
	}
	if len(args) == 0 && opts.Input == "" {
		return opts, &UsageError{flags: flags}
	}

	if err := validateArgs(args); err != nil {
		return opts, err
	}

	if err := normalizeOptions(&opts); err != nil {
		return opts, err
	}

	if opts.Input == "" {
		opts.Input = args[0]
	}
	return opts, nil
}

// newFlagSet registers the flags declared by the struct tags of the option groups.
func newFlagSet(opts *options.Program) *retrocli.FlagSet {
	flags := retrocli.NewFlagSet("retrochip8")
	flags.AddSection("Parameters", &opts.Parameters)
	flags.AddSection("Options", &opts.Flags)
	flags.AddSection("Quirks", &opts.QuirkFlags)
	flags.AddSection("Output", &opts.OutputFlags)
	return flags
}

// UsageError represents an error that should show usage information
type UsageError struct {
	flags *retrocli.FlagSet
	msg   string
}

func (e *UsageError) Error() string {
	return e.msg
}

func (e *UsageError) ShowUsage() {
	if e.flags != nil {
		e.flags.ShowUsage()
	}
}

// validateArgs checks if arguments are in correct order
func validateArgs(args []string) error {
	for i, arg := range args {
		if i > 0 && strings.HasPrefix(arg, "-") {
			return &UsageError{
				msg: fmt.Sprintf("Potential argument %s found after input file, please pass the input file as last argument", arg),
			}
		}
	}
	return nil
}

// normalizeOptions normalizes and validates option values
func normalizeOptions(opts *options.Program) error {
	opts.Mode = strings.ToLower(opts.Mode)
	if opts.Mode != "" && !slices.Contains(validModes, opts.Mode) {
		return fmt.Errorf("unsupported mode: %s. Valid options: %s",
			opts.Mode, strings.Join(validModes, ", "))
	}

	opts.Frontend = strings.ToLower(opts.Frontend)
	if !slices.Contains(validFrontends, opts.Frontend) {
		return fmt.Errorf("unsupported frontend: %s. Valid options: %s",
			opts.Frontend, strings.Join(validFrontends, ", "))
	}

	if opts.Scale <= 0 {
		return fmt.Errorf("invalid scale %d, must be positive", opts.Scale)
	}
	if opts.Clock < emulator.DefaultTimerHz {
		return fmt.Errorf("invalid clock %d, must be at least %d", opts.Clock, emulator.DefaultTimerHz)
	}

	if opts.AssembleTest && opts.Mode != "" && opts.Mode != options.ModeDisasm {
		return fmt.Errorf("verify is only supported in %s mode", options.ModeDisasm)
	}
	if opts.AssembleTest && opts.Output == "" {
		return fmt.Errorf("verify requires an output file")
	}
	return nil
}
