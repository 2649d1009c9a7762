package anneal

import (
	"math"
	"math/rand"

	"github.com/copyleftdev/KILN/internal/optimization"
)

func errNonPositiveTemperature(component string, t float64) *optimization.Error {
	return optimization.NewInvalidArgumentf(component, "temperature must be positive, got %v", t)
}

func errNonPositiveSteps(component string, steps int) *optimization.Error {
	return optimization.NewInvalidArgumentf(component, "steps per cooling event must be positive, got %d", steps)
}

// LinearCooling decrements the temperature by a fixed delta once every
// steps accept/reject decisions, floored at MinTemperature. The temperature
// sequence is fully deterministic given the configuration.
type LinearCooling struct {
	t0          float64
	delta       float64
	steps       int
	temperature float64
	decisions   int
	rng         *rand.Rand
}

// NewLinearCooling creates a linear schedule starting at t0 that subtracts
// delta from the temperature after every steps decisions.
func NewLinearCooling(t0, delta float64, steps int) (*LinearCooling, error) {
	if t0 <= 0 {
		return nil, errNonPositiveTemperature("LinearCooling", t0)
	}
	if delta <= 0 {
		return nil, optimization.NewInvalidArgumentf("LinearCooling", "delta must be positive, got %v", delta)
	}
	if steps < 1 {
		return nil, errNonPositiveSteps("LinearCooling", steps)
	}
	return &LinearCooling{t0: t0, delta: delta, steps: steps, temperature: t0, rng: newRNG()}, nil
}

// Init resets the temperature to t0. The planned run length does not affect
// a linear schedule.
func (l *LinearCooling) Init(runLength int) {
	l.temperature = l.t0
	l.decisions = 0
}

// Decide applies the Metropolis criterion at the current temperature, then
// cools if the configured number of decisions has elapsed.
func (l *LinearCooling) Decide(neighborCost, currentCost float64) bool {
	accept := metropolis(neighborCost, currentCost, l.temperature, l.rng)
	l.decisions++
	if l.decisions%l.steps == 0 {
		l.temperature = math.Max(l.temperature-l.delta, MinTemperature)
	}
	return accept
}

// Temperature returns the current temperature.
func (l *LinearCooling) Temperature() float64 {
	return l.temperature
}

// Split returns an independent copy reset to the initial temperature.
func (l *LinearCooling) Split() Schedule {
	return &LinearCooling{t0: l.t0, delta: l.delta, steps: l.steps, temperature: l.t0, rng: newRNG()}
}

// ExponentialCooling multiplies the temperature by a fixed rate in (0, 1)
// once every steps decisions, floored at MinTemperature.
type ExponentialCooling struct {
	t0          float64
	rate        float64
	steps       int
	temperature float64
	decisions   int
	rng         *rand.Rand
}

// NewExponentialCooling creates an exponential schedule starting at t0 that
// multiplies the temperature by rate after every steps decisions.
func NewExponentialCooling(t0, rate float64, steps int) (*ExponentialCooling, error) {
	if t0 <= 0 {
		return nil, errNonPositiveTemperature("ExponentialCooling", t0)
	}
	if rate <= 0 || rate >= 1 {
		return nil, optimization.NewInvalidArgumentf("ExponentialCooling", "rate must be in (0, 1), got %v", rate)
	}
	if steps < 1 {
		return nil, errNonPositiveSteps("ExponentialCooling", steps)
	}
	return &ExponentialCooling{t0: t0, rate: rate, steps: steps, temperature: t0, rng: newRNG()}, nil
}

// Init resets the temperature to t0.
func (e *ExponentialCooling) Init(runLength int) {
	e.temperature = e.t0
	e.decisions = 0
}

// Decide applies the Metropolis criterion, then cools on schedule.
func (e *ExponentialCooling) Decide(neighborCost, currentCost float64) bool {
	accept := metropolis(neighborCost, currentCost, e.temperature, e.rng)
	e.decisions++
	if e.decisions%e.steps == 0 {
		e.temperature = math.Max(e.temperature*e.rate, MinTemperature)
	}
	return accept
}

// Temperature returns the current temperature.
func (e *ExponentialCooling) Temperature() float64 {
	return e.temperature
}

// Split returns an independent copy reset to the initial temperature.
func (e *ExponentialCooling) Split() Schedule {
	return &ExponentialCooling{t0: e.t0, rate: e.rate, steps: e.steps, temperature: e.t0, rng: newRNG()}
}

// LogarithmicCooling sets the temperature to t0/ln(k+e) after k cooling
// events, one event every steps decisions, floored at MinTemperature. The
// ln(k+e) divisor keeps the first temperature exactly t0.
type LogarithmicCooling struct {
	t0          float64
	steps       int
	temperature float64
	decisions   int
	events      int
	rng         *rand.Rand
}

// NewLogarithmicCooling creates a logarithmic schedule starting at t0 that
// cools after every steps decisions.
func NewLogarithmicCooling(t0 float64, steps int) (*LogarithmicCooling, error) {
	if t0 <= 0 {
		return nil, errNonPositiveTemperature("LogarithmicCooling", t0)
	}
	if steps < 1 {
		return nil, errNonPositiveSteps("LogarithmicCooling", steps)
	}
	return &LogarithmicCooling{t0: t0, steps: steps, temperature: t0, rng: newRNG()}, nil
}

// Init resets the temperature to t0.
func (l *LogarithmicCooling) Init(runLength int) {
	l.temperature = l.t0
	l.decisions = 0
	l.events = 0
}

// Decide applies the Metropolis criterion, then cools on schedule.
func (l *LogarithmicCooling) Decide(neighborCost, currentCost float64) bool {
	accept := metropolis(neighborCost, currentCost, l.temperature, l.rng)
	l.decisions++
	if l.decisions%l.steps == 0 {
		l.events++
		l.temperature = math.Max(l.t0/math.Log(float64(l.events)+math.E), MinTemperature)
	}
	return accept
}

// Temperature returns the current temperature.
func (l *LogarithmicCooling) Temperature() float64 {
	return l.temperature
}

// Split returns an independent copy reset to the initial temperature.
func (l *LogarithmicCooling) Split() Schedule {
	return &LogarithmicCooling{t0: l.t0, steps: l.steps, temperature: l.t0, rng: newRNG()}
}
