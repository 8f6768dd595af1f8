// Package emulator implements the host loop that drives the execution
// engine at a fixed instruction rate, ticks the timers and connects the
// machine to a frontend.
package emulator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/retroenv/retrochip8/internal/bus"
	"github.com/retroenv/retrochip8/internal/cpu"
	"github.com/retroenv/retrochip8/internal/display"
	"github.com/retroenv/retrochip8/internal/memory"
	"github.com/retroenv/retrochip8/internal/random"
	"github.com/retroenv/retrogolib/log"
)

// Defaults of the host loop cadence.
const (
	DefaultClockHz = 600
	DefaultTimerHz = 60
)

// Input is the host input state sampled once per frame.
type Input struct {
	Key  bus.Key // bus.NoKey if no key is held
	Quit bool
}

// NoInput returns an input state without key and quit request.
func NoInput() Input {
	return Input{Key: bus.NoKey}
}

// Frontend presents the machine to the user.
type Frontend interface {
	// Poll returns the current input state.
	Poll() (Input, error)
	// Render outputs the framebuffer.
	Render(fb *display.Framebuffer) error
	// Beep switches the tone on or off.
	Beep(on bool)
	Close() error
}

// BeepRecorder receives the beeper state once per frame.
type BeepRecorder interface {
	Frame(beeping bool, frameRate int) error
}

// Options configures the emulator.
type Options struct {
	ClockHz int // instructions per second
	TimerHz int // timer decrements and frames per second

	Quirks cpu.Quirks
	Seed   int64         // seed of the random source, 0 seeds from the time
	Random random.Source // overrides Seed if set

	Recorder BeepRecorder // optional
}

// DefaultOptions returns the options for the common machine cadence.
func DefaultOptions() Options {
	return Options{
		ClockHz: DefaultClockHz,
		TimerHz: DefaultTimerHz,
	}
}

// Stats contains counters of the running machine.
type Stats struct {
	Cycles       uint64
	Frames       uint64
	Unrecognized uint64
	Waiting      bool // the last frame ended in a wait-for-key
}

// Emulator owns the machine state and runs the host loop.
type Emulator struct {
	logger *log.Logger
	opts   Options

	mem *memory.Memory
	bus *bus.Bus
	cpu *cpu.CPU

	stepsPerFrame int
	frames        uint64
	waiting       bool
	beeping       bool
}

// New loads the program image into a fresh machine.
func New(logger *log.Logger, image []byte, opts Options) (*Emulator, error) {
	if opts.ClockHz <= 0 {
		return nil, fmt.Errorf("invalid clock rate %d", opts.ClockHz)
	}
	if opts.TimerHz <= 0 {
		return nil, fmt.Errorf("invalid timer rate %d", opts.TimerHz)
	}

	mem := memory.New()
	if err := mem.Load(image); err != nil {
		return nil, fmt.Errorf("loading program: %w", err)
	}

	src := opts.Random
	switch {
	case src != nil:
	case opts.Seed != 0:
		src = random.NewSeeded(opts.Seed)
	default:
		src = random.New()
	}

	b := bus.New()
	e := &Emulator{
		logger:        logger,
		opts:          opts,
		mem:           mem,
		bus:           b,
		cpu:           cpu.New(logger, mem, b, cpu.WithRandom(src), cpu.WithQuirks(opts.Quirks)),
		stepsPerFrame: max(1, opts.ClockHz/opts.TimerHz),
	}
	return e, nil
}

// CPU returns the execution engine.
func (e *Emulator) CPU() *cpu.CPU {
	return e.cpu
}

// Bus returns the bus of the machine.
func (e *Emulator) Bus() *bus.Bus {
	return e.bus
}

// Memory returns the memory of the machine.
func (e *Emulator) Memory() *memory.Memory {
	return e.mem
}

// Stats returns the current counters.
func (e *Emulator) Stats() Stats {
	return Stats{
		Cycles:       e.cpu.Cycles(),
		Frames:       e.frames,
		Unrecognized: e.cpu.Unrecognized(),
		Waiting:      e.waiting,
	}
}

// RunFrame executes the instructions of one timer period and updates the
// timers once. A wait-for-key ends the instruction batch early since the
// input latch does not change within a frame.
func (e *Emulator) RunFrame() error {
	e.waiting = false

	for range e.stepsPerFrame {
		result, err := e.cpu.Step()
		if err != nil {
			return fmt.Errorf("executing instruction: %w", err)
		}
		if result == cpu.WaitingForKey {
			e.waiting = true
			break
		}
	}

	e.cpu.UpdateTimers()
	e.frames++

	if e.opts.Recorder != nil {
		if err := e.opts.Recorder.Frame(e.cpu.ShouldBeep(), e.opts.TimerHz); err != nil {
			return fmt.Errorf("recording audio: %w", err)
		}
	}
	return nil
}

// Run drives the machine at the configured cadence until the context is
// canceled, the frontend requests to quit or the engine faults. The
// frontend is not closed.
func (e *Emulator) Run(ctx context.Context, fe Frontend) error {
	ticker := time.NewTicker(time.Second / time.Duration(e.opts.TimerHz))
	defer ticker.Stop()

	if err := fe.Render(e.bus.Display()); err != nil {
		return fmt.Errorf("rendering display: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		quit, err := e.tick(fe)
		if err != nil {
			e.beep(fe, false)
			return err
		}
		if quit {
			e.logger.Debug("Quit requested by frontend")
			e.beep(fe, false)
			return nil
		}
	}
}

// tick performs a single frame of the host loop.
func (e *Emulator) tick(fe Frontend) (bool, error) {
	input, err := fe.Poll()
	if err != nil {
		return false, fmt.Errorf("polling input: %w", err)
	}
	if input.Quit {
		return true, nil
	}

	if input.Key == bus.NoKey {
		e.bus.ClearKey()
	} else {
		e.bus.SetKey(input.Key)
	}

	if err := e.RunFrame(); err != nil {
		var fault *cpu.FaultError
		if errors.As(err, &fault) {
			e.logger.Error("Machine fault",
				log.Hex("address", fault.Address),
				log.Hex("opcode", uint16(fault.Opcode)),
				log.Err(fault.Err))
		}
		return false, err
	}

	if e.cpu.ShouldRedraw() {
		if err := fe.Render(e.bus.Display()); err != nil {
			return false, fmt.Errorf("rendering display: %w", err)
		}
	}

	e.beep(fe, e.cpu.ShouldBeep())
	return false, nil
}

func (e *Emulator) beep(fe Frontend, on bool) {
	if on == e.beeping {
		return
	}
	e.beeping = on
	fe.Beep(on)
}
