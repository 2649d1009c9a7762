package optimization

// ResultPair is an immutable (candidate, cost) pair reported by a search.
// The pair owns a private copy of the candidate taken at construction.
type ResultPair[T Candidate[T]] struct {
	candidate T
	cost      float64
	optimal   bool
}

// NewResultPair creates a result pair holding a copy of candidate. Set
// optimal when cost is known to equal the problem's lower bound.
func NewResultPair[T Candidate[T]](candidate T, cost float64, optimal bool) *ResultPair[T] {
	return &ResultPair[T]{
		candidate: candidate.Copy(),
		cost:      cost,
		optimal:   optimal,
	}
}

// Candidate returns a copy of the stored candidate. Returning a copy keeps
// the pair immutable even if the caller mutates the returned value.
func (r *ResultPair[T]) Candidate() T {
	return r.candidate.Copy()
}

// Cost returns the cost of the stored candidate.
func (r *ResultPair[T]) Cost() float64 {
	return r.cost
}

// Optimal reports whether the stored cost is known to be optimal.
func (r *ResultPair[T]) Optimal() bool {
	return r.optimal
}
