package restart

import (
	"math"

	"github.com/copyleftdev/KILN/internal/optimization"
)

// Luby produces the Luby restart sequence 1, 1, 2, 1, 1, 2, 4, 1, 1, 2, 1,
// 1, 2, 4, 8, ... scaled by a base run length. The sequence is the
// universal restart strategy of Luby, Sinclair, and Zuckerman.
type Luby struct {
	base int
	u    int
	v    int
}

// NewLuby creates a Luby schedule whose terms are multiples of base.
func NewLuby(base int) (*Luby, error) {
	if base < 1 {
		return nil, optimization.NewInvalidArgumentf("Luby", "base run length must be positive, got %d", base)
	}
	return &Luby{base: base, u: 1, v: 1}, nil
}

// Next returns the next term of the scaled Luby sequence.
func (l *Luby) Next() int {
	length := saturatingMul(l.base, l.v)

	// Knuth's reluctant-doubling recurrence for the Luby sequence.
	if l.u&-l.u == l.v {
		l.u++
		l.v = 1
	} else {
		l.v <<= 1
	}
	return length
}

// Split returns a copy restarted at the beginning of the sequence.
func (l *Luby) Split() RunLengths {
	return &Luby{base: l.base, u: 1, v: 1}
}

// saturatingMul multiplies two positive ints, saturating at math.MaxInt
// instead of overflowing.
func saturatingMul(a, b int) int {
	if a > math.MaxInt/b {
		return math.MaxInt
	}
	return a * b
}
