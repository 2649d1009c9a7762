package optimization

import (
	"sync"
	"sync/atomic"
	"time"
)

// ProgressTracker is the shared best-result register for one logical
// optimization run. It is safe for concurrent use: any number of searches
// may share a single tracker by reference, offering candidates and checking
// the cooperative stop flag.
//
// Replacement is improvement-only: an offered candidate displaces the stored
// best only when its cost is strictly lower, or when no best exists yet.
// Ties keep the earlier result. Once a result tagged optimal is recorded, or
// a stop is requested, no further replacement occurs.
type ProgressTracker[T Candidate[T]] struct {
	mu      sync.Mutex
	best    *ResultPair[T]
	start   time.Time
	stopped atomic.Bool
	optimal atomic.Bool
}

// NewProgressTracker creates an empty tracker. The elapsed-time origin is
// the moment of creation.
func NewProgressTracker[T Candidate[T]]() *ProgressTracker[T] {
	return &ProgressTracker[T]{start: time.Now()}
}

// Offer proposes a candidate with the given cost. It reports whether the
// candidate replaced the stored best. Offers after a stop request or after
// an optimal result has been recorded are ignored.
func (t *ProgressTracker[T]) Offer(candidate T, cost float64, isOptimal bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped.Load() || t.optimal.Load() {
		return false
	}
	if t.best != nil && cost >= t.best.cost {
		return false
	}

	t.best = NewResultPair(candidate, cost, isOptimal)
	if isOptimal {
		t.optimal.Store(true)
	}
	return true
}

// Best returns the best result recorded so far, or nil if no candidate has
// been offered yet. The returned pair is immutable and safe to retain.
func (t *ProgressTracker[T]) Best() *ResultPair[T] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.best
}

// BestCost returns the cost of the best result recorded so far. The second
// return value is false if no candidate has been offered yet.
func (t *ProgressTracker[T]) BestCost() (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.best == nil {
		return 0, false
	}
	return t.best.cost, true
}

// Elapsed returns the time since the tracker was created.
func (t *ProgressTracker[T]) Elapsed() time.Duration {
	return time.Since(t.start)
}

// RequestStop raises the cooperative stop flag. Cooperating searches observe
// the flag at their next iteration boundary and terminate; in-flight
// iterations complete normally.
func (t *ProgressTracker[T]) RequestStop() {
	t.mu.Lock()
	t.stopped.Store(true)
	t.mu.Unlock()
}

// StopRequested reports whether a stop has been requested. It is lock-free
// and cheap enough for per-iteration polling.
func (t *ProgressTracker[T]) StopRequested() bool {
	return t.stopped.Load()
}

// FoundOptimal reports whether a result tagged optimal has been recorded.
// The condition is sticky: it never reverts.
func (t *ProgressTracker[T]) FoundOptimal() bool {
	return t.optimal.Load()
}
