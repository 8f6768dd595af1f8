// Package disasm converts CHIP-8 program images into the mnemonic text form.
//
// The image is swept linearly in instruction sized steps starting at the
// program start address. Words that do not decode to an operation and a
// trailing odd byte are emitted as .byte data, which keeps every listing
// reassemblable into the identical image.
package disasm

import (
	"fmt"
	"io"
	"strings"

	"github.com/retroenv/retrochip8/internal/memory"
	"github.com/retroenv/retrochip8/internal/opcode"
	"github.com/retroenv/retrogolib/set"
	"golang.org/x/exp/constraints"
)

// Reference describes how an address is referenced by other instructions.
type Reference int

// Reference kinds, combinable as bit flags.
const (
	JumpTarget Reference = 1 << iota
	CallTarget
	DataTarget
)

// Line is a single disassembled instruction or data line.
type Line struct {
	Address uint16
	Data    []byte
	Op      *opcode.Op // nil for data lines
	Text    string

	Referenced Reference
}

// Options controls the listing output.
type Options struct {
	HexComments    bool // output the instruction bytes as comment
	OffsetComments bool // output the address as comment
	TargetComments bool // output a comment line before referenced addresses
}

// DefaultOptions returns the options used if nothing else is requested.
func DefaultOptions() Options {
	return Options{
		HexComments:    true,
		OffsetComments: true,
		TargetComments: true,
	}
}

// Disassemble converts a program image into listing lines.
func Disassemble(image []byte) []Line {
	lines := make([]Line, 0, len(image)/2+1)
	jumps := set.New[uint16]()
	calls := set.New[uint16]()
	data := set.New[uint16]()

	for i := 0; i < len(image); i += 2 {
		address := uint16(memory.ProgramStart + i)

		if i+1 >= len(image) {
			lines = append(lines, dataLine(address, image[i:]))
			break
		}

		word := opcode.FromBytes(image[i], image[i+1])
		op, ok := opcode.Decode(word)
		if !ok || !op.Canonical(word) {
			lines = append(lines, dataLine(address, image[i:i+2]))
			continue
		}

		switch {
		case op.IsCall():
			calls.Add(word.NNN())
		case op.ID == opcode.Jp:
			jumps.Add(word.NNN())
		case op.ID == opcode.LdI:
			data.Add(word.NNN())
		}

		lines = append(lines, Line{
			Address: address,
			Data:    []byte{image[i], image[i+1]},
			Op:      op,
			Text:    Format(op, word),
		})
	}

	for i := range lines {
		line := &lines[i]
		if jumps.Contains(line.Address) {
			line.Referenced |= JumpTarget
		}
		if calls.Contains(line.Address) {
			line.Referenced |= CallTarget
		}
		if data.Contains(line.Address) {
			line.Referenced |= DataTarget
		}
	}
	return lines
}

func dataLine(address uint16, b []byte) Line {
	data := make([]byte, len(b))
	copy(data, b)
	return Line{
		Address: address,
		Data:    data,
		Text:    FormatData(data),
	}
}

// Format returns the canonical mnemonic text of an instruction.
func Format(op *opcode.Op, w opcode.Instruction) string {
	operands := make([]string, 0, len(op.Operands))
	for _, k := range op.Operands {
		if k == opcode.RegYOpt && w.Y() == 0 {
			continue
		}
		operands = append(operands, formatOperand(k, w))
	}

	if len(operands) == 0 {
		return op.Name()
	}
	return op.Name() + " " + strings.Join(operands, ", ")
}

func formatOperand(k opcode.Kind, w opcode.Instruction) string {
	switch k {
	case opcode.RegX:
		return register(w.X())
	case opcode.RegY, opcode.RegYOpt:
		return register(w.Y())
	case opcode.RegV0:
		return register(0)
	case opcode.Addr:
		return hexValue(w.NNN(), 3)
	case opcode.Byte:
		return hexValue(w.KK(), 2)
	case opcode.Nibble:
		return hexValue(w.N(), 1)
	case opcode.RegI:
		return "I"
	case opcode.DelayT:
		return "DT"
	case opcode.SoundT:
		return "ST"
	case opcode.KeyK:
		return "K"
	case opcode.GlyphF:
		return "F"
	case opcode.BCDB:
		return "B"
	case opcode.MemI:
		return "[I]"
	default:
		panic(fmt.Sprintf("unsupported operand kind %d", k))
	}
}

// FormatData returns a .byte directive for the given bytes.
func FormatData(data []byte) string {
	var sb strings.Builder
	sb.WriteString(".byte ")
	for i, b := range data {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(hexValue(b, 2))
	}
	return sb.String()
}

func register(index uint8) string {
	return fmt.Sprintf("V%X", index)
}

func hexValue[T constraints.Unsigned](value T, digits int) string {
	return fmt.Sprintf("$%0*X", digits, value)
}

// Write outputs the listing in assembler compatible form.
func Write(w io.Writer, lines []Line, options Options) error {
	if _, err := fmt.Fprintf(w, "; CHIP-8 program disassembly\n"); err != nil {
		return fmt.Errorf("writing header comment: %w", err)
	}
	if _, err := fmt.Fprintf(w, "; Program starts at $%03X in CHIP-8 memory space\n\n", memory.ProgramStart); err != nil {
		return fmt.Errorf("writing memory space comment: %w", err)
	}
	if _, err := fmt.Fprintf(w, ".org $%03X\n\n", memory.ProgramStart); err != nil {
		return fmt.Errorf("writing org directive: %w", err)
	}

	for _, line := range lines {
		if options.TargetComments && line.Referenced != 0 {
			if err := writeReferenceComment(w, line); err != nil {
				return err
			}
		}
		if err := writeLine(w, line, options); err != nil {
			return err
		}
	}
	return nil
}

func writeReferenceComment(w io.Writer, line Line) error {
	var kinds []string
	if line.Referenced&CallTarget != 0 {
		kinds = append(kinds, "subroutine")
	}
	if line.Referenced&JumpTarget != 0 {
		kinds = append(kinds, "jump target")
	}
	if line.Referenced&DataTarget != 0 {
		kinds = append(kinds, "data")
	}

	if _, err := fmt.Fprintf(w, "; %s $%03X\n", strings.Join(kinds, ", "), line.Address); err != nil {
		return fmt.Errorf("writing reference comment: %w", err)
	}
	return nil
}

func writeLine(w io.Writer, line Line, options Options) error {
	text := "    " + line.Text
	comment := lineComment(line, options)

	var err error
	if comment == "" {
		_, err = fmt.Fprintf(w, "%s\n", text)
	} else {
		_, err = fmt.Fprintf(w, "%-32s ; %s\n", text, comment)
	}
	if err != nil {
		return fmt.Errorf("writing line at $%04X: %w", line.Address, err)
	}
	return nil
}

func lineComment(line Line, options Options) string {
	var parts []string
	if options.OffsetComments {
		parts = append(parts, fmt.Sprintf("$%04X", line.Address))
	}
	if options.HexComments {
		parts = append(parts, fmt.Sprintf("%X", line.Data))
	}
	return strings.Join(parts, " ")
}
