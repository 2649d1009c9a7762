package anneal

import (
	"math"
	"math/rand"
)

// Constants of the Lam-family acceptance-rate controllers.
const (
	// lamDecay is the exponential decay factor of the observed
	// acceptance-rate estimate.
	lamDecay = 0.998

	// lamNudge is the multiplicative temperature adjustment applied after
	// each decision: multiply when accepting too often, divide when
	// accepting too rarely. A multiplicative nudge can never drive the
	// temperature to zero or negative.
	lamNudge = 0.999

	// lamInitialTemperature is the temperature before any adaptation.
	lamInitialTemperature = 0.5
)

// lamPhases returns the decision counts ending phases 1 and 2 of the
// Modified Lam target trajectory: the first 15% and 65% of the planned run.
func lamPhases(runLength int) (phase1, phase2 int) {
	phase1 = runLength * 15 / 100
	if phase1 < 1 {
		phase1 = 1
	}
	phase2 = runLength * 65 / 100
	if phase2 <= phase1 {
		phase2 = phase1 + 1
	}
	return phase1, phase2
}

// lamTarget computes the Modified Lam target acceptance rate after decision
// iter of a run planned for runLength decisions. The trajectory decays
// exponentially from 1.0 toward 0.44 across phase 1, holds 0.44 through
// phase 2, then decays to 0.001 by the end of the run.
func lamTarget(iter, runLength, phase1, phase2 int) float64 {
	switch {
	case iter <= phase1:
		return 0.44 + 0.56*math.Pow(560, -float64(iter)/float64(phase1))
	case iter <= phase2:
		return 0.44
	default:
		tail := runLength - phase2
		if tail < 1 {
			tail = 1
		}
		return 0.44 * math.Pow(440, -float64(iter-phase2)/float64(tail))
	}
}

// ModifiedLam is the self-adaptive annealing schedule of Boyan's Modified
// Lam variant: it tracks a phase-dependent target acceptance rate across the
// planned run and nudges the temperature after every decision to steer the
// observed acceptance rate toward the target.
type ModifiedLam struct {
	temperature float64
	acceptRate  float64
	targetRate  float64
	iter        int
	runLength   int
	phase1      int
	phase2      int
	rng         *rand.Rand
}

// NewModifiedLam creates a Modified Lam schedule. Init must be called with
// the planned run length before the first decision; the SimulatedAnnealer
// does this at the start of every run.
func NewModifiedLam() *ModifiedLam {
	m := &ModifiedLam{rng: newRNG()}
	m.Init(1)
	return m
}

// Init resets all dynamic state for a run of runLength decisions.
func (m *ModifiedLam) Init(runLength int) {
	if runLength < 1 {
		runLength = 1
	}
	m.runLength = runLength
	m.phase1, m.phase2 = lamPhases(runLength)
	m.temperature = lamInitialTemperature
	m.acceptRate = 0.5
	m.targetRate = 1.0
	m.iter = 0
}

// Decide applies the Metropolis criterion, then updates the acceptance-rate
// estimate, the target trajectory, and the temperature.
func (m *ModifiedLam) Decide(neighborCost, currentCost float64) bool {
	accept := metropolis(neighborCost, currentCost, m.temperature, m.rng)
	m.update(accept)
	return accept
}

func (m *ModifiedLam) update(accepted bool) {
	if accepted {
		m.acceptRate = lamDecay*m.acceptRate + (1 - lamDecay)
	} else {
		m.acceptRate = lamDecay * m.acceptRate
	}
	m.iter++
	m.targetRate = lamTarget(m.iter, m.runLength, m.phase1, m.phase2)
	if m.acceptRate < m.targetRate {
		m.temperature /= lamNudge
	} else {
		m.temperature *= lamNudge
	}
}

// Temperature returns the current temperature.
func (m *ModifiedLam) Temperature() float64 {
	return m.temperature
}

// TargetRate returns the target acceptance rate after the most recent
// decision.
func (m *ModifiedLam) TargetRate() float64 {
	return m.targetRate
}

// AcceptRate returns the exponentially weighted observed acceptance rate.
func (m *ModifiedLam) AcceptRate() float64 {
	return m.acceptRate
}

// Split returns an independent copy with freshly reset dynamic state.
func (m *ModifiedLam) Split() Schedule {
	s := &ModifiedLam{rng: newRNG()}
	s.Init(m.runLength)
	return s
}
