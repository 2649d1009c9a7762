package server

import (
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/copyleftdev/KILN/internal/optimization"
)

// RealVector is a continuous candidate solution. Copy returns a deep copy.
type RealVector []float64

// Copy implements optimization.Candidate.
func (v RealVector) Copy() RealVector {
	out := make(RealVector, len(v))
	copy(out, v)
	return out
}

// SphereProblem is the sphere benchmark: f(x) = sum(x_i^2), minimum 0 at
// the origin.
type SphereProblem struct{}

// Cost implements optimization.Problem.
func (SphereProblem) Cost(candidate RealVector) float64 {
	return floats.Dot(candidate, candidate)
}

// MinCost implements optimization.BoundedProblem.
func (SphereProblem) MinCost() float64 { return 0 }

// IsMinCost implements optimization.BoundedProblem. The bound is treated as
// reached within a small tolerance since exact zeros are unreachable under
// continuous mutation.
func (SphereProblem) IsMinCost(cost float64) bool { return cost <= 1e-9 }

// RastriginProblem is the Rastrigin benchmark, a highly multimodal function
// with minimum 0 at the origin.
type RastriginProblem struct{}

// Cost implements optimization.Problem.
func (RastriginProblem) Cost(candidate RealVector) float64 {
	sum := 10.0 * float64(len(candidate))
	for _, x := range candidate {
		sum += x*x - 10.0*math.Cos(2.0*math.Pi*x)
	}
	return sum
}

// MinCost implements optimization.BoundedProblem.
func (RastriginProblem) MinCost() float64 { return 0 }

// IsMinCost implements optimization.BoundedProblem.
func (RastriginProblem) IsMinCost(cost float64) bool { return cost <= 1e-9 }

// GaussianMutator perturbs one randomly chosen element with Gaussian noise.
// The most recent perturbation can be reversed by Undo.
type GaussianMutator struct {
	sigma     float64
	rng       *rand.Rand
	lastIndex int
	lastValue float64
}

// NewGaussianMutator creates a mutator with the given noise scale.
func NewGaussianMutator(sigma float64) *GaussianMutator {
	return &GaussianMutator{
		sigma: sigma,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Mutate implements optimization.Mutator.
func (m *GaussianMutator) Mutate(candidate RealVector) {
	m.lastIndex = m.rng.Intn(len(candidate))
	m.lastValue = candidate[m.lastIndex]
	candidate[m.lastIndex] += m.rng.NormFloat64() * m.sigma
}

// Undo implements optimization.Mutator.
func (m *GaussianMutator) Undo(candidate RealVector) {
	candidate[m.lastIndex] = m.lastValue
}

// Split implements optimization.Mutator.
func (m *GaussianMutator) Split() optimization.Mutator[RealVector] {
	return NewGaussianMutator(m.sigma)
}

// UniformInitializer draws starting vectors uniformly from [min, max]^dim.
type UniformInitializer struct {
	dim      int
	min, max float64
	rng      *rand.Rand
}

// NewUniformInitializer creates an initializer for dim-dimensional vectors
// drawn from [min, max].
func NewUniformInitializer(dim int, min, max float64) *UniformInitializer {
	return &UniformInitializer{
		dim: dim,
		min: min,
		max: max,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateCandidate implements optimization.Initializer.
func (in *UniformInitializer) CreateCandidate() RealVector {
	v := make(RealVector, in.dim)
	for i := range v {
		v[i] = in.min + in.rng.Float64()*(in.max-in.min)
	}
	return v
}

// Split implements optimization.Initializer.
func (in *UniformInitializer) Split() optimization.Initializer[RealVector] {
	return NewUniformInitializer(in.dim, in.min, in.max)
}
