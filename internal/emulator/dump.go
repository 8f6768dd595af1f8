package emulator

import (
	"fmt"
	"io"

	"github.com/bradleyjkemp/memviz"
	"github.com/retroenv/retrochip8/internal/cpu"
)

// State is a snapshot of the machine for debugging output.
type State struct {
	Registers cpu.Registers
	Quirks    cpu.Quirks
	Stats     Stats
	Key       string
	Display   string
}

// Snapshot returns a copy of the current machine state.
func (e *Emulator) Snapshot() *State {
	key := "none"
	if k, ok := e.bus.Key(); ok {
		key = k.String()
	}

	return &State{
		Registers: e.cpu.Registers,
		Quirks:    e.cpu.Quirks(),
		Stats:     e.Stats(),
		Key:       key,
		Display:   e.bus.Display().String(),
	}
}

// DumpState writes the machine state as a Graphviz graph.
func (e *Emulator) DumpState(w io.Writer) error {
	if w == nil {
		return fmt.Errorf("dumping state: no writer")
	}
	memviz.Map(w, e.Snapshot())
	return nil
}
