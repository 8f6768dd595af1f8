package cpu

import (
	"testing"

	"github.com/retroenv/retrochip8/internal/memory"
	"github.com/retroenv/retrochip8/internal/opcode"
	"github.com/retroenv/retrochip8/internal/random"
	"github.com/retroenv/retrogolib/assert"
)

// exec places the instruction word at the program start and executes it.
func exec(t *testing.T, c *CPU, mem *memory.Memory, word uint16) Result {
	t.Helper()

	c.PC = memory.ProgramStart
	assert.NoError(t, mem.Write(memory.ProgramStart, uint8(word>>8)))
	assert.NoError(t, mem.Write(memory.ProgramStart+1, uint8(word)))
	result, err := c.Step()
	assert.NoError(t, err)
	return result
}

func TestAddReg_AllValues(t *testing.T) {
	c, mem, _ := newTestCPU(t, nil)

	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			c.V[2] = uint8(a)
			c.V[5] = uint8(b)
			exec(t, c, mem, 0x8254)

			if c.V[2] != uint8((a+b)%256) || c.V[FlagRegister] != boolToFlag(a+b > 255) {
				t.Fatalf("ADD %d + %d: got V2=%d VF=%d", a, b, c.V[2], c.V[FlagRegister])
			}
		}
	}
}

func TestSub_AllValues(t *testing.T) {
	c, mem, _ := newTestCPU(t, nil)

	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			c.V[1] = uint8(a)
			c.V[2] = uint8(b)
			exec(t, c, mem, 0x8125)
			if c.V[1] != uint8(a-b) || c.V[FlagRegister] != boolToFlag(a >= b) {
				t.Fatalf("SUB %d - %d: got V1=%d VF=%d", a, b, c.V[1], c.V[FlagRegister])
			}

			c.V[1] = uint8(a)
			c.V[2] = uint8(b)
			exec(t, c, mem, 0x8127)
			if c.V[1] != uint8(b-a) || c.V[FlagRegister] != boolToFlag(b >= a) {
				t.Fatalf("SUBN %d - %d: got V1=%d VF=%d", b, a, c.V[1], c.V[FlagRegister])
			}
		}
	}
}

func TestShift_AllValues(t *testing.T) {
	c, mem, _ := newTestCPU(t, nil)

	for v := 0; v < 256; v++ {
		c.V[4] = uint8(v)
		c.V[7] = 0xAA
		exec(t, c, mem, 0x8476)
		assert.Equal(t, uint8(v>>1), c.V[4])
		assert.Equal(t, uint8(v&1), c.V[FlagRegister])

		c.V[4] = uint8(v)
		exec(t, c, mem, 0x847E)
		assert.Equal(t, uint8(v<<1), c.V[4])
		assert.Equal(t, uint8(v>>7), c.V[FlagRegister])
	}
}

func TestShift_UsesVYQuirk(t *testing.T) {
	c, mem, _ := newTestCPU(t, nil, WithQuirks(Quirks{ShiftUsesVY: true}))
	assert.True(t, c.Quirks().ShiftUsesVY)

	c.V[1] = 0x00
	c.V[2] = 0x81
	exec(t, c, mem, 0x8126)
	assert.Equal(t, uint8(0x40), c.V[1])
	assert.Equal(t, uint8(1), c.V[FlagRegister])

	c.V[1] = 0x00
	exec(t, c, mem, 0x812E)
	assert.Equal(t, uint8(0x02), c.V[1])
	assert.Equal(t, uint8(1), c.V[FlagRegister])
}

func TestFlagRegisterAsDestination(t *testing.T) {
	c, mem, _ := newTestCPU(t, nil)

	// 0xFF + 0x01 carries, flag wins over the sum
	c.V[FlagRegister] = 0xFF
	c.V[1] = 0x01
	exec(t, c, mem, 0x8F14)
	assert.Equal(t, uint8(1), c.V[FlagRegister])

	// self referential shift: flag is the bit shifted out
	c.V[FlagRegister] = 0x80
	exec(t, c, mem, 0x8FFE)
	assert.Equal(t, uint8(1), c.V[FlagRegister])

	c.V[FlagRegister] = 0x02
	exec(t, c, mem, 0x8FF6)
	assert.Equal(t, uint8(0), c.V[FlagRegister])
}

func TestAddByte_NoFlag(t *testing.T) {
	c, mem, _ := newTestCPU(t, nil)
	c.V[3] = 0xFF
	c.V[FlagRegister] = 0x42

	exec(t, c, mem, 0x7302)
	assert.Equal(t, uint8(0x01), c.V[3])
	assert.Equal(t, uint8(0x42), c.V[FlagRegister])
}

func TestBitwise(t *testing.T) {
	c, mem, _ := newTestCPU(t, nil)

	tests := []struct {
		word     uint16
		expected uint8
	}{
		{0x8120, 0b0101}, // LD
		{0x8121, 0b1101}, // OR
		{0x8122, 0b0100}, // AND
		{0x8123, 0b1001}, // XOR
	}

	for _, tt := range tests {
		c.V[1] = 0b1100
		c.V[2] = 0b0101
		exec(t, c, mem, tt.word)
		assert.Equal(t, tt.expected, c.V[1])
	}
}

func TestSkips(t *testing.T) {
	c, mem, b := newTestCPU(t, nil)
	c.V[1] = 0x10
	c.V[2] = 0x10
	c.V[3] = 0x0A

	tests := []struct {
		name     string
		word     uint16
		expected uint16
	}{
		{"SE byte taken", 0x3110, 0x204},
		{"SE byte not taken", 0x3111, 0x202},
		{"SNE byte taken", 0x4111, 0x204},
		{"SNE byte not taken", 0x4110, 0x202},
		{"SE reg taken", 0x5120, 0x204},
		{"SE reg not taken", 0x5130, 0x202},
		{"SNE reg taken", 0x9130, 0x204},
		{"SNE reg not taken", 0x9120, 0x202},
		{"SKP not pressed", 0xE39E, 0x202},
		{"SKNP not pressed", 0xE3A1, 0x204},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec(t, c, mem, tt.word)
			assert.Equal(t, tt.expected, c.PC)
		})
	}

	b.SetKey(0xA)
	exec(t, c, mem, 0xE39E)
	assert.Equal(t, uint16(0x204), c.PC)
	exec(t, c, mem, 0xE3A1)
	assert.Equal(t, uint16(0x202), c.PC)

	// only the low nibble of the register selects the key
	c.V[3] = 0xFA
	exec(t, c, mem, 0xE39E)
	assert.Equal(t, uint16(0x204), c.PC)
}

func TestJumps(t *testing.T) {
	c, mem, _ := newTestCPU(t, nil)

	exec(t, c, mem, 0x1ABC)
	assert.Equal(t, uint16(0xABC), c.PC)

	c.V[0] = 0x10
	exec(t, c, mem, 0xB300)
	assert.Equal(t, uint16(0x310), c.PC)
}

func TestLoadsAndTimers(t *testing.T) {
	c, mem, _ := newTestCPU(t, nil)

	exec(t, c, mem, 0x6A42)
	assert.Equal(t, uint8(0x42), c.V[0xA])

	exec(t, c, mem, 0xA123)
	assert.Equal(t, uint16(0x123), c.I)

	exec(t, c, mem, 0xFA15)
	assert.Equal(t, uint8(0x42), c.DelayTimer)

	exec(t, c, mem, 0xFA18)
	assert.Equal(t, uint8(0x42), c.SoundTimer)
	assert.True(t, c.ShouldBeep())

	c.UpdateTimers()
	exec(t, c, mem, 0xF207)
	assert.Equal(t, uint8(0x41), c.V[2])

	exec(t, c, mem, 0xFA1E)
	assert.Equal(t, uint16(0x123+0x42), c.I)
}

func TestRandom(t *testing.T) {
	c, mem, _ := newTestCPU(t, nil, WithRandom(random.NewSequence(0xAB, 0xFF)))

	exec(t, c, mem, 0xC10F)
	assert.Equal(t, uint8(0x0B), c.V[1])

	exec(t, c, mem, 0xC1F0)
	assert.Equal(t, uint8(0xF0), c.V[1])
}

func TestLoadGlyph(t *testing.T) {
	c, mem, _ := newTestCPU(t, nil)

	c.V[5] = 0xA
	exec(t, c, mem, 0xF529)
	assert.Equal(t, uint16(50), c.I)

	glyph, err := mem.ReadRange(c.I, memory.GlyphStride)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0xF0, 0x90, 0xF0, 0x90, 0x90}, glyph)
}

func TestStoreBCD(t *testing.T) {
	c, mem, _ := newTestCPU(t, nil)

	tests := []struct {
		value    uint8
		expected []byte
	}{
		{0, []byte{0, 0, 0}},
		{7, []byte{0, 0, 7}},
		{42, []byte{0, 4, 2}},
		{255, []byte{2, 5, 5}},
		{100, []byte{1, 0, 0}},
	}

	for _, tt := range tests {
		c.V[6] = tt.value
		c.I = 0x300
		exec(t, c, mem, 0xF633)

		digits, err := mem.ReadRange(0x300, 3)
		assert.NoError(t, err)
		assert.Equal(t, tt.expected, digits)
		assert.Equal(t, uint16(0x300), c.I)
	}
}

func TestBlockStoreLoad(t *testing.T) {
	c, mem, _ := newTestCPU(t, nil)

	for i := range c.V {
		c.V[i] = uint8(i + 1)
	}
	c.I = 0x400
	exec(t, c, mem, 0xF355)

	stored, err := mem.ReadRange(0x400, 5)
	assert.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 0}, stored)
	assert.Equal(t, uint16(0x400), c.I)

	c.V = [RegisterCount]uint8{}
	exec(t, c, mem, 0xF265)
	assert.Equal(t, uint8(1), c.V[0])
	assert.Equal(t, uint8(2), c.V[1])
	assert.Equal(t, uint8(3), c.V[2])
	assert.Equal(t, uint8(0), c.V[3])
}

func TestBlockStoreLoad_IncrementQuirk(t *testing.T) {
	c, mem, _ := newTestCPU(t, nil, WithQuirks(Quirks{LoadStoreIncrementsI: true}))

	c.I = 0x400
	exec(t, c, mem, 0xF355)
	assert.Equal(t, uint16(0x404), c.I)

	exec(t, c, mem, 0xF065)
	assert.Equal(t, uint16(0x405), c.I)
}

func TestBlockStore_OutOfRange(t *testing.T) {
	c, mem, _ := newTestCPU(t, nil)
	c.I = memory.Size - 1

	assert.NoError(t, mem.Write(memory.ProgramStart, 0xF1))
	assert.NoError(t, mem.Write(memory.ProgramStart+1, 0x55))
	_, err := c.Step()
	assert.Error(t, err)
}

func TestDraw(t *testing.T) {
	c, mem, b := newTestCPU(t, nil)

	c.V[0] = 0xF // glyph F
	exec(t, c, mem, 0xF029)
	c.V[1] = 10
	c.V[2] = 5

	exec(t, c, mem, 0xD125)
	assert.Equal(t, uint8(0), c.V[FlagRegister])
	assert.True(t, c.ShouldRedraw())
	assert.True(t, b.Display().Pixel(10, 5))
	assert.True(t, b.Display().Pixel(13, 5))
	assert.False(t, b.Display().Pixel(14, 5))
	assert.True(t, b.Display().Pixel(10, 9))
	assert.False(t, b.Display().Pixel(11, 9))

	exec(t, c, mem, 0xD125)
	assert.Equal(t, uint8(1), c.V[FlagRegister])
	for _, p := range b.Display().Pixels() {
		assert.Equal(t, uint8(0), p)
	}
}

func TestDraw_Wraparound(t *testing.T) {
	c, mem, b := newTestCPU(t, nil)

	assert.NoError(t, mem.Write(0x300, 0xFF))
	assert.NoError(t, mem.Write(0x301, 0xFF))
	c.I = 0x300
	c.V[3] = 63
	c.V[4] = 31

	exec(t, c, mem, 0xD342)
	fb := b.Display()
	assert.True(t, fb.Pixel(63, 31))
	assert.True(t, fb.Pixel(0, 31))
	assert.True(t, fb.Pixel(6, 31))
	assert.True(t, fb.Pixel(63, 0))
	assert.True(t, fb.Pixel(0, 0))
	assert.True(t, fb.Pixel(1, 0))
	assert.True(t, fb.Pixel(6, 0))
	assert.False(t, fb.Pixel(7, 0))
	assert.False(t, fb.Pixel(62, 0))
}

func TestClearDisplay(t *testing.T) {
	c, mem, b := newTestCPU(t, nil)
	b.Display().DrawSprite(0, 0, []byte{0xFF})

	exec(t, c, mem, 0x00E0)
	assert.False(t, b.Display().Pixel(0, 0))
	assert.True(t, c.ShouldRedraw())
}

func TestEveryOperationHasHandler(t *testing.T) {
	for _, op := range opcode.All() {
		assert.NotNil(t, handlers[op.ID], "operation %s", op)
	}
}
