package optimization

// Metaheuristic is the interface implemented by search algorithms that the
// multistart coordinators drive. A Metaheuristic owns its mutable state
// (schedule, operators, RNG) and reports improvements to a shared
// ProgressTracker.
type Metaheuristic[T Candidate[T]] interface {
	// Optimize runs a single search of up to runLength iterations from a
	// fresh starting point. It returns the end-of-run result, which is not
	// necessarily the best of the run, or nil if the search performed zero
	// iterations because the tracker already reported an optimal result or
	// a stop request.
	Optimize(runLength int) *ResultPair[T]

	// Reoptimize behaves like Optimize but resumes from the tracker's
	// current best candidate instead of drawing a fresh start.
	Reoptimize(runLength int) *ResultPair[T]

	// Tracker returns the progress tracker this search reports to.
	Tracker() *ProgressTracker[T]

	// TotalRunLength returns the cumulative number of iterations completed
	// across all Optimize and Reoptimize calls.
	TotalRunLength() int

	// Split returns an independent copy for a parallel worker. The copy
	// shares only the problem and the progress tracker; all other state is
	// freshly reset.
	Split() Metaheuristic[T]
}
