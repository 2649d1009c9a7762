package anneal

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"
)

// SelfTuningLam behaves like ModifiedLam after an initial tuning sub-phase.
// During the first max(10, 1% of the planned run) decisions it accepts every
// move and records the proposed cost deltas; it then solves in closed form
// for the temperature that would have produced, under the Metropolis rule,
// an average acceptance rate equal to the Modified Lam target at that point
// of the run. From there it runs the Modified Lam controller with the
// computed temperature.
type SelfTuningLam struct {
	temperature float64
	acceptRate  float64
	targetRate  float64
	iter        int
	runLength   int
	phase1      int
	phase2      int
	tuning      bool
	sampleSize  int
	deltas      []float64
	rng         *rand.Rand
}

// NewSelfTuningLam creates a Self-Tuning Lam schedule. Init must be called
// with the planned run length before the first decision.
func NewSelfTuningLam() *SelfTuningLam {
	s := &SelfTuningLam{rng: newRNG()}
	s.Init(1)
	return s
}

// Init resets all dynamic state, including the tuning sub-phase, for a run
// of runLength decisions.
func (s *SelfTuningLam) Init(runLength int) {
	if runLength < 1 {
		runLength = 1
	}
	s.runLength = runLength
	s.phase1, s.phase2 = lamPhases(runLength)
	s.sampleSize = runLength / 100
	if s.sampleSize < 10 {
		s.sampleSize = 10
	}
	s.tuning = true
	s.deltas = s.deltas[:0]
	s.temperature = lamInitialTemperature
	s.acceptRate = 0.5
	s.targetRate = 1.0
	s.iter = 0
}

// Decide accepts unconditionally while tuning, sampling the proposed cost
// delta; afterwards it applies the Metropolis criterion and the Modified
// Lam temperature update.
func (s *SelfTuningLam) Decide(neighborCost, currentCost float64) bool {
	if s.tuning {
		if delta := neighborCost - currentCost; !math.IsNaN(delta) && !math.IsInf(delta, 0) {
			s.deltas = append(s.deltas, delta)
		}
		s.iter++
		s.targetRate = lamTarget(s.iter, s.runLength, s.phase1, s.phase2)
		if s.iter >= s.sampleSize {
			s.finishTuning()
		}
		return true
	}

	accept := metropolis(neighborCost, currentCost, s.temperature, s.rng)
	if accept {
		s.acceptRate = lamDecay*s.acceptRate + (1 - lamDecay)
	} else {
		s.acceptRate = lamDecay * s.acceptRate
	}
	s.iter++
	s.targetRate = lamTarget(s.iter, s.runLength, s.phase1, s.phase2)
	if s.acceptRate < s.targetRate {
		s.temperature /= lamNudge
	} else {
		s.temperature *= lamNudge
	}
	return accept
}

// finishTuning computes the initial temperature from the sampled deltas and
// switches to the Modified Lam controller, seeding the observed rate with
// the target so the controller starts in equilibrium.
func (s *SelfTuningLam) finishTuning() {
	s.tuning = false
	target := lamTarget(s.iter, s.runLength, s.phase1, s.phase2)
	s.targetRate = target
	s.acceptRate = target
	s.temperature = s.estimateTemperature(target)
}

// estimateTemperature solves q + (1-q)*exp(-mean/T) = target for T, where q
// is the fraction of sampled moves that were improving (accepted
// unconditionally) and mean is the mean worsening delta. All-improving
// samples give no information about the landscape's uphill scale, so the
// temperature falls back to the minimum positive default.
func (s *SelfTuningLam) estimateTemperature(target float64) float64 {
	worsening := make([]float64, 0, len(s.deltas))
	for _, d := range s.deltas {
		if d > 0 {
			worsening = append(worsening, d)
		}
	}
	if len(worsening) == 0 || len(s.deltas) == 0 {
		return MinTemperature
	}

	autoAccept := float64(len(s.deltas)-len(worsening)) / float64(len(s.deltas))
	share := (target - autoAccept) / (1 - autoAccept)
	if share <= 0 {
		// Target already met by improving moves alone; stay as cold as
		// allowed.
		return MinTemperature
	}
	if share >= 1 {
		return MinTemperature
	}

	mean := stat.Mean(worsening, nil)
	t := -mean / math.Log(share)
	if math.IsNaN(t) || math.IsInf(t, 0) || t < MinTemperature {
		return MinTemperature
	}
	return t
}

// Temperature returns the current temperature.
func (s *SelfTuningLam) Temperature() float64 {
	return s.temperature
}

// TargetRate returns the target acceptance rate after the most recent
// decision.
func (s *SelfTuningLam) TargetRate() float64 {
	return s.targetRate
}

// AcceptRate returns the exponentially weighted observed acceptance rate.
func (s *SelfTuningLam) AcceptRate() float64 {
	return s.acceptRate
}

// Tuning reports whether the schedule is still in the tuning sub-phase.
func (s *SelfTuningLam) Tuning() bool {
	return s.tuning
}

// Split returns an independent copy with freshly reset dynamic state.
func (s *SelfTuningLam) Split() Schedule {
	c := &SelfTuningLam{rng: newRNG()}
	c.Init(s.runLength)
	return c
}
