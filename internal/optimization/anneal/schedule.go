// Package anneal implements simulated annealing: a set of annealing
// schedules, from fixed cooling schedules to the self-adaptive Modified Lam
// and Self-Tuning Lam controllers, and the SimulatedAnnealer search loop
// that drives them.
package anneal

import (
	"math"
	"math/rand"
	"time"
)

// MinTemperature is the floor applied by the fixed cooling schedules to
// avoid zero-temperature division in the acceptance rule.
const MinTemperature = 0.001

// Schedule decides move acceptance and evolves temperature across one
// annealing run. Schedules hold per-run mutable state and are not safe for
// concurrent use; hand each parallel worker its own copy via Split.
type Schedule interface {
	// Init resets all dynamic state for a run planned to last runLength
	// accept/reject decisions.
	Init(runLength int)

	// Decide returns whether to accept a move from currentCost to
	// neighborCost, updating temperature and any acceptance-rate estimate
	// as a side effect.
	Decide(neighborCost, currentCost float64) bool

	// Temperature returns the current temperature.
	Temperature() float64

	// Split returns a fresh, independently mutable schedule sharing only
	// static configuration with the receiver.
	Split() Schedule
}

// metropolis applies the Metropolis acceptance criterion. Improving and
// equal-cost moves are always accepted. Worsening moves are accepted with
// probability exp(-delta/temperature). A non-finite delta-over-temperature
// ratio never accepts, so an infinite neighbor cost is always rejected.
func metropolis(neighborCost, currentCost, temperature float64, rng *rand.Rand) bool {
	delta := neighborCost - currentCost
	if delta <= 0 {
		return true
	}
	ratio := delta / temperature
	if math.IsNaN(ratio) || ratio <= 0 {
		return false
	}
	return rng.Float64() < math.Exp(-ratio)
}

// newRNG returns a freshly seeded random source. Each schedule owns its own
// source so that Split produces workers with uncorrelated streams.
func newRNG() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// ConstantTemperature is a fixed-rate schedule: the temperature never
// changes, so the probability of accepting a worsening move of a given
// magnitude is constant across the run.
type ConstantTemperature struct {
	temperature float64
	rng         *rand.Rand
}

// NewConstantTemperature creates a schedule holding temperature fixed at t.
func NewConstantTemperature(t float64) (*ConstantTemperature, error) {
	if t <= 0 {
		return nil, errNonPositiveTemperature("ConstantTemperature", t)
	}
	return &ConstantTemperature{temperature: t, rng: newRNG()}, nil
}

// Init is a no-op: a constant schedule has no dynamic state.
func (c *ConstantTemperature) Init(runLength int) {}

// Decide applies the Metropolis criterion at the fixed temperature.
func (c *ConstantTemperature) Decide(neighborCost, currentCost float64) bool {
	return metropolis(neighborCost, currentCost, c.temperature, c.rng)
}

// Temperature returns the fixed temperature.
func (c *ConstantTemperature) Temperature() float64 {
	return c.temperature
}

// Split returns an independent copy with its own random source.
func (c *ConstantTemperature) Split() Schedule {
	return &ConstantTemperature{temperature: c.temperature, rng: newRNG()}
}
