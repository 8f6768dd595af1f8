// Package asm converts the CHIP-8 mnemonic text form into a binary program
// image.
//
// The accepted input is line based: one instruction per line, operands
// separated by commas or spaces, ';' comments, and the .org and .byte
// directives. Labels and expressions are not supported.
package asm

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/retroenv/retrochip8/internal/memory"
	"github.com/retroenv/retrochip8/internal/opcode"
)

// Error is an assembly error of a specific source line.
type Error struct {
	Line int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Assemble reads the mnemonic source and returns the program image.
func Assemble(r io.Reader) ([]byte, error) {
	var image []byte
	scanner := bufio.NewScanner(r)

	for lineNumber := 1; scanner.Scan(); lineNumber++ {
		line := scanner.Text()
		if i := strings.IndexByte(line, ';'); i >= 0 {
			line = line[:i]
		}
		fields := tokenize(line)
		if len(fields) == 0 {
			continue
		}

		b, err := assembleLine(fields)
		if err != nil {
			return nil, &Error{Line: lineNumber, Msg: err.Error()}
		}
		image = append(image, b...)

		if len(image) > memory.MaxProgramSize {
			return nil, &Error{Line: lineNumber, Msg: fmt.Sprintf("program exceeds %d bytes", memory.MaxProgramSize)}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading source: %w", err)
	}
	return image, nil
}

// tokenize splits a line at spaces, tabs and commas.
func tokenize(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ',' || r == '\r'
	})
}

func assembleLine(fields []string) ([]byte, error) {
	mnemonic := fields[0]
	operands := fields[1:]

	if strings.HasPrefix(mnemonic, ".") {
		return directive(strings.ToLower(mnemonic), operands)
	}

	candidates := opcode.ByName(mnemonic)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("unknown mnemonic '%s'", mnemonic)
	}

	for _, op := range candidates {
		f, ok := matchOperands(op, operands)
		if !ok {
			continue
		}
		b := op.Encode(f).Bytes()
		return b[:], nil
	}
	return nil, fmt.Errorf("invalid operands for %s: %s", strings.ToUpper(mnemonic), strings.Join(operands, ", "))
}

func directive(name string, operands []string) ([]byte, error) {
	switch name {
	case ".org":
		if len(operands) != 1 {
			return nil, fmt.Errorf(".org expects 1 operand")
		}
		address, err := parseNumber(operands[0], 0xFFF)
		if err != nil {
			return nil, err
		}
		if address != memory.ProgramStart {
			return nil, fmt.Errorf("unsupported origin $%03X, programs start at $%03X", address, memory.ProgramStart)
		}
		return nil, nil

	case ".byte":
		if len(operands) == 0 {
			return nil, fmt.Errorf(".byte expects at least 1 operand")
		}
		data := make([]byte, 0, len(operands))
		for _, s := range operands {
			b, err := parseNumber(s, 0xFF)
			if err != nil {
				return nil, err
			}
			data = append(data, byte(b))
		}
		return data, nil

	default:
		return nil, fmt.Errorf("unknown directive '%s'", name)
	}
}

// matchOperands parses the operand tokens according to the operand kinds of
// the operation. It returns false if the tokens do not fit.
func matchOperands(op *opcode.Op, tokens []string) (opcode.Fields, bool) {
	var f opcode.Fields
	kinds := op.Operands

	// an optional trailing register may be omitted
	if n := len(kinds); n > 0 && kinds[n-1] == opcode.RegYOpt && len(tokens) == n-1 {
		kinds = kinds[:n-1]
	}
	if len(tokens) != len(kinds) {
		return f, false
	}

	for i, k := range kinds {
		if !parseOperand(k, tokens[i], &f) {
			return f, false
		}
	}
	return f, true
}

func parseOperand(k opcode.Kind, token string, f *opcode.Fields) bool {
	upper := strings.ToUpper(token)

	switch k {
	case opcode.RegX:
		r, ok := parseRegister(upper)
		f.X = r
		return ok
	case opcode.RegY, opcode.RegYOpt:
		r, ok := parseRegister(upper)
		f.Y = r
		return ok
	case opcode.RegV0:
		r, ok := parseRegister(upper)
		return ok && r == 0
	case opcode.Addr:
		v, err := parseNumber(token, 0xFFF)
		f.NNN = uint16(v)
		return err == nil
	case opcode.Byte:
		v, err := parseNumber(token, 0xFF)
		f.KK = uint8(v)
		return err == nil
	case opcode.Nibble:
		v, err := parseNumber(token, 0xF)
		f.N = uint8(v)
		return err == nil
	case opcode.RegI:
		return upper == "I"
	case opcode.DelayT:
		return upper == "DT"
	case opcode.SoundT:
		return upper == "ST"
	case opcode.KeyK:
		return upper == "K"
	case opcode.GlyphF:
		return upper == "F"
	case opcode.BCDB:
		return upper == "B"
	case opcode.MemI:
		return upper == "[I]"
	default:
		return false
	}
}

// parseRegister parses V0 to VF, the index is a single hex digit.
func parseRegister(s string) (uint8, bool) {
	if len(s) != 2 || s[0] != 'V' {
		return 0, false
	}
	v, err := strconv.ParseUint(s[1:], 16, 8)
	if err != nil {
		return 0, false
	}
	return uint8(v), true
}

// parseNumber parses a decimal, $hex or 0xhex number and checks it against
// the maximum value.
func parseNumber(s string, maximum uint64) (uint64, error) {
	base := 10
	digits := s
	switch {
	case strings.HasPrefix(s, "$"):
		base, digits = 16, s[1:]
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		base, digits = 16, s[2:]
	}

	v, err := strconv.ParseUint(digits, base, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid number '%s'", s)
	}
	if v > maximum {
		return 0, fmt.Errorf("number '%s' exceeds maximum $%X", s, maximum)
	}
	return v, nil
}
