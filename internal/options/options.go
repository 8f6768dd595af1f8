// Package options contains the program options.
package options

import (
	"github.com/retroenv/retrochip8/internal/cpu"
	"github.com/retroenv/retrochip8/internal/disasm"
	"github.com/retroenv/retrochip8/internal/emulator"
)

// Operation modes.
const (
	ModeRun    = "run"
	ModeDisasm = "disasm"
	ModeAsm    = "asm"
)

// Frontends.
const (
	FrontendSDL      = "sdl"
	FrontendTerminal = "terminal"
)

// Parameters contains file path options.
type Parameters struct {
	Input  string `flag:"i" usage:"name of the input program or source file"`
	Output string `flag:"o" usage:"name of the output file of disasm and asm modes, printed on console if no name given"`
	Wav    string `flag:"wav" usage:"record the beeper output to the given .wav file"`
	MemViz string `flag:"memviz" usage:"write a graph of the machine state to the given .dot file on exit"`
}

// Flags contains behavior options.
type Flags struct {
	Mode     string `flag:"mode" usage:"operation mode (run/disasm/asm) - if not auto-detected from file extension"`
	Frontend string `flag:"frontend" usage:"frontend to run the program with (sdl/terminal)" default:"sdl"`
	Scale    int    `flag:"scale" usage:"window pixels per machine pixel of the sdl frontend" default:"10"`
	Clock    int    `flag:"clock" usage:"instructions executed per second" default:"600"`
	Seed     int64  `flag:"seed" usage:"seed of the random number generator, 0 seeds from the current time"`

	AssembleTest bool `flag:"verify" usage:"verify the generated disassembly by assembling it and check if it matches the input"`
	StatsView    bool `flag:"statsview" usage:"serve runtime statistics charts over HTTP"`
	Debug        bool `flag:"debug" usage:"enable debugging options for extended logging"`
	Quiet        bool `flag:"q" usage:"perform operations quietly"`
}

// QuirkFlags selects historical instruction variants.
type QuirkFlags struct {
	ShiftUsesVY          bool `flag:"shift-vy" usage:"legacy shift instructions that shift Vy into Vx"`
	LoadStoreIncrementsI bool `flag:"loadstore-inc" usage:"legacy register load and store instructions that increment I"`
}

// OutputFlags contains output formatting options.
type OutputFlags struct {
	NoHexComments bool `flag:"nohexcomments" usage:"do not output opcode bytes as hex values in comments"`
	NoOffsets     bool `flag:"nooffsets" usage:"do not output addresses in comments"`
}

// Program options.
type Program struct {
	Parameters
	Flags
	QuirkFlags
	OutputFlags
}

// Quirks returns the instruction variants selected by the flags.
func (p Program) Quirks() cpu.Quirks {
	return cpu.Quirks{
		ShiftUsesVY:          p.ShiftUsesVY,
		LoadStoreIncrementsI: p.LoadStoreIncrementsI,
	}
}

// Emulator returns the host loop options. The beep recorder is set up by
// the caller since it owns a file.
func (p Program) Emulator() emulator.Options {
	opts := emulator.DefaultOptions()
	if p.Clock > 0 {
		opts.ClockHz = p.Clock
	}
	opts.Quirks = p.Quirks()
	opts.Seed = p.Seed
	return opts
}

// Disassembler returns the listing options.
func (p Program) Disassembler() disasm.Options {
	opts := disasm.DefaultOptions()
	opts.HexComments = !p.NoHexComments
	opts.OffsetComments = !p.NoOffsets
	return opts
}
