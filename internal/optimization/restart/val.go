package restart

import (
	"math"

	"github.com/copyleftdev/KILN/internal/optimization"
)

// VariableAnnealingLength produces run lengths that double on every
// restart: base, 2*base, 4*base, .... One long self-adaptive annealing run
// tends to beat many short ones, but a long run cut off early underperforms
// a run whose schedule was tuned to the shorter length, so the sequence
// starts short and grows. Lengths saturate at math.MaxInt.
type VariableAnnealingLength struct {
	base int
	next int
}

// DefaultVALBase is the first run length of the sequence when no explicit
// base is configured.
const DefaultVALBase = 1000

// NewVariableAnnealingLength creates a VAL schedule starting at base.
func NewVariableAnnealingLength(base int) (*VariableAnnealingLength, error) {
	if base < 1 {
		return nil, optimization.NewInvalidArgumentf("VariableAnnealingLength", "base run length must be positive, got %d", base)
	}
	return &VariableAnnealingLength{base: base, next: base}, nil
}

// Next returns the current run length and doubles the following one.
func (v *VariableAnnealingLength) Next() int {
	length := v.next
	if v.next > math.MaxInt/2 {
		v.next = math.MaxInt
	} else {
		v.next <<= 1
	}
	return length
}

// Split returns a copy restarted at the base length.
func (v *VariableAnnealingLength) Split() RunLengths {
	return &VariableAnnealingLength{base: v.base, next: v.base}
}

// pval is one worker's slice of the parallel Variable Annealing Length
// sequence: worker i of k produces base*2^(i + r*k) for restarts
// r = 0, 1, 2, ..., so the k workers collectively cover the same doubling
// progression base*2^0, base*2^1, ... that sequential VAL covers, each from
// a different phase offset.
type pval struct {
	base    int
	offset  int
	workers int
	next    int
}

// NewParallelVariableAnnealingLength creates one RunLengths per worker,
// partitioning the VAL doubling progression across workers workers by phase
// offset. The schedules are independent; give one to each parallel search.
func NewParallelVariableAnnealingLength(base, workers int) ([]RunLengths, error) {
	if base < 1 {
		return nil, optimization.NewInvalidArgumentf("ParallelVariableAnnealingLength", "base run length must be positive, got %d", base)
	}
	if workers < 1 {
		return nil, optimization.NewInvalidArgumentf("ParallelVariableAnnealingLength", "worker count must be positive, got %d", workers)
	}

	schedules := make([]RunLengths, workers)
	for i := 0; i < workers; i++ {
		schedules[i] = &pval{
			base:    base,
			offset:  i,
			workers: workers,
			next:    shiftedLength(base, i),
		}
	}
	return schedules, nil
}

// Next returns the current run length and advances by 2^workers.
func (p *pval) Next() int {
	length := p.next
	for i := 0; i < p.workers; i++ {
		if p.next > math.MaxInt/2 {
			p.next = math.MaxInt
			break
		}
		p.next <<= 1
	}
	return length
}

// Split returns a copy restarted at the worker's phase offset.
func (p *pval) Split() RunLengths {
	return &pval{base: p.base, offset: p.offset, workers: p.workers, next: shiftedLength(p.base, p.offset)}
}

// shiftedLength returns base*2^shift, saturating at math.MaxInt.
func shiftedLength(base, shift int) int {
	length := base
	for i := 0; i < shift; i++ {
		if length > math.MaxInt/2 {
			return math.MaxInt
		}
		length <<= 1
	}
	return length
}
