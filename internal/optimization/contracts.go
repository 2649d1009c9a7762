// Package optimization defines the contracts shared by the stochastic
// local-search engine: candidate solutions, optimization problems, mutation
// operators, initializers, and the progress tracker that cooperating
// searches report to.
package optimization

// Candidate is implemented by solution representations. Copy must return a
// deep copy sharing no mutable state with the receiver.
type Candidate[T any] interface {
	Copy() T
}

// Problem defines the cost function to minimize over a candidate type.
// Cost must be safe for concurrent use: parallel searches share a single
// Problem instance.
type Problem[T Candidate[T]] interface {
	Cost(candidate T) float64
}

// BoundedProblem is an optional Problem extension for problems with a known
// lower bound on cost. Searches use it to terminate early once the bound is
// reached.
type BoundedProblem[T Candidate[T]] interface {
	Problem[T]

	// MinCost returns a lower bound on the cost of any candidate.
	MinCost() float64

	// IsMinCost reports whether cost is known to be optimal.
	IsMinCost(cost float64) bool
}

// ValuedProblem is an optional Problem extension that reports the
// untransformed objective value of a candidate, for problems whose cost is a
// transformation of the actual objective.
type ValuedProblem[T Candidate[T]] interface {
	Problem[T]

	Value(candidate T) float64
}

// Initializer produces starting candidates for a search.
type Initializer[T Candidate[T]] interface {
	// CreateCandidate returns a new starting candidate.
	CreateCandidate() T

	// Split returns an independently mutable copy for use by a parallel
	// worker. The copy shares static configuration only.
	Split() Initializer[T]
}

// Mutator generates neighbors by mutating a candidate in place. A Mutate
// call must be reversible by a single Undo call on the same candidate so
// that the search can reject a move and restore the prior state.
type Mutator[T Candidate[T]] interface {
	Mutate(candidate T)

	// Undo reverses the most recent Mutate on candidate.
	Undo(candidate T)

	// Split returns an independently mutable copy for a parallel worker.
	Split() Mutator[T]
}

// HillClimber is an optional post-processor invoked on the end-of-run
// candidate of an annealing run. Its result supersedes the annealing result.
type HillClimber[T Candidate[T]] interface {
	// OptimizeFrom climbs from start and returns the local optimum reached.
	OptimizeFrom(start T) *ResultPair[T]

	// Split returns an independently mutable copy for a parallel worker.
	Split() HillClimber[T]
}
