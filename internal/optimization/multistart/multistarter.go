// Package multistart coordinates repeated restarts of a metaheuristic —
// sequentially or across a worker-thread pool — into a single best-known
// result held by one shared progress tracker.
package multistart

import (
	"github.com/copyleftdev/KILN/internal/optimization"
	"github.com/copyleftdev/KILN/internal/optimization/restart"
)

// Multistarter repeatedly runs a metaheuristic with run lengths drawn from a
// restart-length schedule. All restarts share the metaheuristic's progress
// tracker, so later restarts benefit from (and cannot regress) the best
// result of earlier ones.
type Multistarter[T optimization.Candidate[T]] struct {
	search   optimization.Metaheuristic[T]
	lengths  restart.RunLengths
	restarts int
}

// New creates a sequential multistart coordinator driving search with run
// lengths from lengths.
func New[T optimization.Candidate[T]](search optimization.Metaheuristic[T], lengths restart.RunLengths) (*Multistarter[T], error) {
	if search == nil {
		return nil, optimization.NewInvalidArgumentf("Multistarter", "search is required")
	}
	if lengths == nil {
		return nil, optimization.NewInvalidArgumentf("Multistarter", "restart-length schedule is required")
	}
	return &Multistarter[T]{search: search, lengths: lengths}, nil
}

// Optimize performs up to numRestarts restarts, each from a fresh starting
// point, and returns the best end-of-run result among them. It returns nil
// if the tracker reported a stop request or an optimal result before any
// restart could run an iteration.
func (m *Multistarter[T]) Optimize(numRestarts int) *optimization.ResultPair[T] {
	return m.run(numRestarts, m.search.Optimize)
}

// Reoptimize behaves like Optimize but resumes each restart from the
// tracker's current best rather than drawing fresh starts.
func (m *Multistarter[T]) Reoptimize(numRestarts int) *optimization.ResultPair[T] {
	return m.run(numRestarts, m.search.Reoptimize)
}

func (m *Multistarter[T]) run(numRestarts int, runOne func(int) *optimization.ResultPair[T]) *optimization.ResultPair[T] {
	tracker := m.search.Tracker()
	var best *optimization.ResultPair[T]
	for i := 0; i < numRestarts; i++ {
		if tracker.StopRequested() || tracker.FoundOptimal() {
			break
		}
		result := runOne(m.lengths.Next())
		if result == nil {
			break
		}
		m.restarts++
		if best == nil || result.Cost() < best.Cost() {
			best = result
		}
	}
	return best
}

// Tracker returns the shared progress tracker.
func (m *Multistarter[T]) Tracker() *optimization.ProgressTracker[T] {
	return m.search.Tracker()
}

// Restarts returns the number of restarts completed across all calls.
func (m *Multistarter[T]) Restarts() int {
	return m.restarts
}

// TotalRunLength returns the cumulative iterations completed across all
// restarts.
func (m *Multistarter[T]) TotalRunLength() int {
	return m.search.TotalRunLength()
}

// Split returns an independent coordinator for a parallel worker: the
// underlying search and restart schedule are split, the tracker is shared.
func (m *Multistarter[T]) Split() *Multistarter[T] {
	return &Multistarter[T]{search: m.search.Split(), lengths: m.lengths.Split()}
}
