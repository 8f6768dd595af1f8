// Package random provides the randomness source of the RND instruction.
//
// The engine only depends on the Source interface so that tests and
// recordings can replace it with a deterministic sequence.
package random

import (
	"math/rand"
	"time"
)

// Source returns random bytes.
type Source interface {
	Byte() uint8
}

// Random is a Source based on a seeded pseudo random generator.
type Random struct {
	rng *rand.Rand
}

// New returns a source seeded from the current time.
func New() *Random {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a source that produces the same sequence for the same seed.
func NewSeeded(seed int64) *Random {
	return &Random{
		rng: rand.New(rand.NewSource(seed)), //nolint:gosec // emulation randomness
	}
}

// Byte returns a random byte.
func (r *Random) Byte() uint8 {
	return uint8(r.rng.Intn(256))
}

// Sequence is a Source that replays fixed values in order and wraps around.
type Sequence struct {
	values []uint8
	pos    int
}

// NewSequence returns a source replaying the given values.
func NewSequence(values ...uint8) *Sequence {
	if len(values) == 0 {
		values = []uint8{0}
	}
	return &Sequence{values: values}
}

// Byte returns the next value of the sequence.
func (s *Sequence) Byte() uint8 {
	v := s.values[s.pos]
	s.pos = (s.pos + 1) % len(s.values)
	return v
}
