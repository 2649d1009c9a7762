// Package restart provides restart-length schedules: sequence generators
// for how many iterations each restart of a multistart search runs.
package restart

import (
	"github.com/copyleftdev/KILN/internal/optimization"
)

// RunLengths produces the iteration budget for each successive restart.
// Implementations hold a cursor and are not safe for concurrent use; hand
// each parallel worker its own copy via Split.
type RunLengths interface {
	// Next returns the run length for the next restart and advances the
	// internal cursor.
	Next() int

	// Split returns an independently mutable copy with a freshly reset
	// cursor, sharing only static configuration.
	Split() RunLengths
}

// Constant always returns the same run length.
type Constant struct {
	length int
}

// NewConstant creates a schedule that always returns length.
func NewConstant(length int) (*Constant, error) {
	if length < 1 {
		return nil, optimization.NewInvalidArgumentf("Constant", "run length must be positive, got %d", length)
	}
	return &Constant{length: length}, nil
}

// Next returns the fixed run length.
func (c *Constant) Next() int {
	return c.length
}

// Split returns a copy. A constant schedule has no cursor to reset.
func (c *Constant) Split() RunLengths {
	return &Constant{length: c.length}
}
