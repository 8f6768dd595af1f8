package emulator

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/retroenv/retrochip8/internal/bus"
	"github.com/retroenv/retrochip8/internal/cpu"
	"github.com/retroenv/retrochip8/internal/display"
	"github.com/retroenv/retrochip8/internal/memory"
	"github.com/retroenv/retrochip8/internal/random"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

type fakeFrontend struct {
	inputs  []Input // consumed per poll, the last one repeats
	polls   int
	renders int
	beeps   []bool
	pollErr error

	lastFrame string
}

func (f *fakeFrontend) Poll() (Input, error) {
	if f.pollErr != nil {
		return Input{}, f.pollErr
	}
	f.polls++
	if len(f.inputs) == 0 {
		return NoInput(), nil
	}
	input := f.inputs[0]
	if len(f.inputs) > 1 {
		f.inputs = f.inputs[1:]
	}
	return input, nil
}

func (f *fakeFrontend) Render(fb *display.Framebuffer) error {
	f.renders++
	f.lastFrame = fb.String()
	return nil
}

func (f *fakeFrontend) Beep(on bool) {
	f.beeps = append(f.beeps, on)
}

func (f *fakeFrontend) Close() error {
	return nil
}

type fakeRecorder struct {
	frames []bool
}

func (r *fakeRecorder) Frame(beeping bool, frameRate int) error {
	r.frames = append(r.frames, beeping)
	return nil
}

func newTestEmulator(t *testing.T, program []byte, opts Options) *Emulator {
	t.Helper()
	if opts.ClockHz == 0 {
		opts.ClockHz = DefaultClockHz
	}
	if opts.TimerHz == 0 {
		opts.TimerHz = DefaultTimerHz
	}
	if opts.Random == nil {
		opts.Random = random.NewSequence(0)
	}

	e, err := New(log.NewTestLogger(t), program, opts)
	assert.NoError(t, err)
	return e
}

func TestNew_Errors(t *testing.T) {
	logger := log.NewTestLogger(t)

	_, err := New(logger, []byte{0x00, 0xE0}, Options{ClockHz: 0, TimerHz: 60})
	assert.Error(t, err)

	_, err = New(logger, []byte{0x00, 0xE0}, Options{ClockHz: 600, TimerHz: 0})
	assert.Error(t, err)

	_, err = New(logger, make([]byte, memory.MaxProgramSize+1), DefaultOptions())
	assert.True(t, errors.Is(err, memory.ErrImageTooLarge))
}

func TestRunFrame(t *testing.T) {
	// ADD V0, 1 followed by JP $200
	program := []byte{0x70, 0x01, 0x12, 0x00}
	e := newTestEmulator(t, program, Options{ClockHz: 600, TimerHz: 60})
	e.CPU().DelayTimer = 5

	assert.NoError(t, e.RunFrame())

	stats := e.Stats()
	assert.Equal(t, uint64(10), stats.Cycles)
	assert.Equal(t, uint64(1), stats.Frames)
	assert.False(t, stats.Waiting)
	assert.Equal(t, uint8(5), e.CPU().V[0])
	assert.Equal(t, uint8(4), e.CPU().DelayTimer)
}

func TestRunFrame_WaitForKey(t *testing.T) {
	// LD V1, K followed by JP $202
	program := []byte{0xF1, 0x0A, 0x12, 0x02}
	e := newTestEmulator(t, program, Options{})

	assert.NoError(t, e.RunFrame())
	stats := e.Stats()
	assert.True(t, stats.Waiting)
	assert.Equal(t, uint64(0), stats.Cycles)
	assert.Equal(t, uint16(0x200), e.CPU().PC)

	e.Bus().SetKey(0x7)
	assert.NoError(t, e.RunFrame())
	assert.False(t, e.Stats().Waiting)
	assert.Equal(t, uint8(7), e.CPU().V[1])
	assert.Equal(t, uint16(0x202), e.CPU().PC)
}

func TestRunFrame_Fault(t *testing.T) {
	// RET with an empty stack
	e := newTestEmulator(t, []byte{0x00, 0xEE}, Options{})

	err := e.RunFrame()
	assert.True(t, errors.Is(err, cpu.ErrStackUnderflow))

	var fault *cpu.FaultError
	assert.True(t, errors.As(err, &fault))
	assert.Equal(t, uint16(0x200), fault.Address)
}

func TestRunFrame_Recorder(t *testing.T) {
	// LD V0, 2; LD ST, V0; JP $204
	program := []byte{0x60, 0x02, 0xF0, 0x18, 0x12, 0x04}
	rec := &fakeRecorder{}
	e := newTestEmulator(t, program, Options{Recorder: rec})

	for range 3 {
		assert.NoError(t, e.RunFrame())
	}
	assert.Equal(t, []bool{true, false, false}, rec.frames)
}

func TestRunFrame_Seed(t *testing.T) {
	// RND V0, $FF; RND V1, $FF
	program := []byte{0xC0, 0xFF, 0xC1, 0xFF, 0x12, 0x04}

	run := func() [2]uint8 {
		e, err := New(log.NewTestLogger(t), program, Options{ClockHz: 60, TimerHz: 60, Seed: 42})
		assert.NoError(t, err)
		assert.NoError(t, e.RunFrame())
		assert.NoError(t, e.RunFrame())
		return [2]uint8{e.CPU().V[0], e.CPU().V[1]}
	}
	assert.Equal(t, run(), run())
}

func TestTick(t *testing.T) {
	program := []byte{
		0x60, 0x00, // LD V0, $00
		0xF0, 0x29, // LD F, V0
		0xD0, 0x05, // DRW V0, V0, $5
		0x61, 0x03, // LD V1, $03
		0xF1, 0x18, // LD ST, V1
		0x12, 0x0A, // JP $20A
	}
	e := newTestEmulator(t, program, Options{})
	fe := &fakeFrontend{inputs: []Input{{Key: 0xA}, NoInput()}}

	quit, err := e.tick(fe)
	assert.NoError(t, err)
	assert.False(t, quit)
	assert.Equal(t, 1, fe.renders)
	assert.Equal(t, []bool{true}, fe.beeps)
	assert.True(t, e.Bus().IsKeyPressed(0xA))
	assert.Contains(t, fe.lastFrame, "####")

	// no redraw without draw instructions, beeper off once the timer expires
	for range 3 {
		_, err = e.tick(fe)
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, fe.renders)
	assert.Equal(t, []bool{true, false}, fe.beeps)

	_, ok := e.Bus().Key()
	assert.False(t, ok)
}

func TestTick_Quit(t *testing.T) {
	e := newTestEmulator(t, []byte{0x12, 0x00}, Options{})
	fe := &fakeFrontend{inputs: []Input{{Key: bus.NoKey, Quit: true}}}

	quit, err := e.tick(fe)
	assert.NoError(t, err)
	assert.True(t, quit)
	assert.Equal(t, uint64(0), e.Stats().Frames)
}

func TestTick_PollError(t *testing.T) {
	errPoll := errors.New("poll failed")
	e := newTestEmulator(t, []byte{0x12, 0x00}, Options{})
	fe := &fakeFrontend{pollErr: errPoll}

	_, err := e.tick(fe)
	assert.True(t, errors.Is(err, errPoll))
}

func TestRun_Quit(t *testing.T) {
	e := newTestEmulator(t, []byte{0x12, 0x00}, Options{TimerHz: 1000, ClockHz: 1000})
	fe := &fakeFrontend{inputs: []Input{NoInput(), NoInput(), {Key: bus.NoKey, Quit: true}}}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assert.NoError(t, e.Run(ctx, fe))
	assert.Equal(t, 3, fe.polls)
	assert.Equal(t, uint64(2), e.Stats().Frames)
	// initial render
	assert.Equal(t, 1, fe.renders)
}

func TestRun_Canceled(t *testing.T) {
	e := newTestEmulator(t, []byte{0x12, 0x00}, Options{})
	fe := &fakeFrontend{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, e.Run(ctx, fe))
}

func TestRun_Fault(t *testing.T) {
	// faults are logged at error level, which fails tests using the test logger
	var output bytes.Buffer
	logger := log.NewWithConfig(log.Config{Output: &output, TimeFormat: "-"})

	e, err := New(logger, []byte{0x00, 0xEE}, Options{TimerHz: 1000, ClockHz: 1000, Random: random.NewSequence(0)})
	assert.NoError(t, err)
	fe := &fakeFrontend{}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = e.Run(ctx, fe)
	assert.True(t, errors.Is(err, cpu.ErrStackUnderflow))
	assert.Contains(t, output.String(), "Machine fault")
	assert.Contains(t, output.String(), "return stack underflow")
}

func TestDumpState(t *testing.T) {
	e := newTestEmulator(t, []byte{0x60, 0x2A, 0x12, 0x02}, Options{})
	assert.NoError(t, e.RunFrame())

	state := e.Snapshot()
	assert.Equal(t, uint8(0x2A), state.Registers.V[0])
	assert.Equal(t, "none", state.Key)

	var buf bytes.Buffer
	assert.NoError(t, e.DumpState(&buf))
	assert.Contains(t, buf.String(), "digraph")
}
