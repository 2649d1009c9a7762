package anneal

import (
	"github.com/copyleftdev/KILN/internal/optimization"
)

// Config contains configuration for a SimulatedAnnealer. Problem, Mutator,
// and Initializer are required.
type Config[T optimization.Candidate[T]] struct {
	// Problem is the cost function to minimize.
	Problem optimization.Problem[T]

	// Mutator generates neighbors by in-place mutation with undo.
	Mutator optimization.Mutator[T]

	// Initializer draws starting candidates.
	Initializer optimization.Initializer[T]

	// Schedule is the annealing schedule. Defaults to ModifiedLam.
	Schedule Schedule

	// HillClimber, if set, is run once on the end-of-run candidate of every
	// annealing run and its result supersedes the annealing result.
	HillClimber optimization.HillClimber[T]

	// Tracker is the shared progress tracker. Defaults to a fresh tracker.
	// Pass the same tracker to multiple searches to make them cooperate.
	Tracker *optimization.ProgressTracker[T]
}

// SimulatedAnnealer runs simulated annealing over an arbitrary candidate
// representation. It is strictly sequential; for parallel search, hand
// independent copies produced by Split to a multistart coordinator.
type SimulatedAnnealer[T optimization.Candidate[T]] struct {
	problem     optimization.Problem[T]
	bounded     optimization.BoundedProblem[T]
	mutator     optimization.Mutator[T]
	initializer optimization.Initializer[T]
	schedule    Schedule
	hillClimber optimization.HillClimber[T]
	tracker     *optimization.ProgressTracker[T]
	total       int
}

// New creates a SimulatedAnnealer from cfg, applying defaults for the
// schedule and tracker.
func New[T optimization.Candidate[T]](cfg Config[T]) (*SimulatedAnnealer[T], error) {
	if cfg.Problem == nil {
		return nil, optimization.NewInvalidArgumentf("SimulatedAnnealer", "problem is required")
	}
	if cfg.Mutator == nil {
		return nil, optimization.NewInvalidArgumentf("SimulatedAnnealer", "mutator is required")
	}
	if cfg.Initializer == nil {
		return nil, optimization.NewInvalidArgumentf("SimulatedAnnealer", "initializer is required")
	}

	schedule := cfg.Schedule
	if schedule == nil {
		schedule = NewModifiedLam()
	}
	tracker := cfg.Tracker
	if tracker == nil {
		tracker = optimization.NewProgressTracker[T]()
	}
	bounded, _ := cfg.Problem.(optimization.BoundedProblem[T])

	return &SimulatedAnnealer[T]{
		problem:     cfg.Problem,
		bounded:     bounded,
		mutator:     cfg.Mutator,
		initializer: cfg.Initializer,
		schedule:    schedule,
		hillClimber: cfg.HillClimber,
		tracker:     tracker,
	}, nil
}

// Optimize runs one annealing search of up to runLength iterations from a
// fresh starting candidate. It returns the end-of-run result, which can be
// worse than the tracker's best of the run since annealing may end on a
// worsening move, or nil if zero iterations were performed because the
// tracker already reported a stop or an optimal result.
func (sa *SimulatedAnnealer[T]) Optimize(runLength int) *optimization.ResultPair[T] {
	if sa.haltBeforeStart() {
		return nil
	}
	return sa.anneal(runLength, sa.initializer.CreateCandidate())
}

// OptimizeFrom behaves like Optimize but starts from a copy of start
// instead of drawing from the initializer.
func (sa *SimulatedAnnealer[T]) OptimizeFrom(runLength int, start T) *optimization.ResultPair[T] {
	if sa.haltBeforeStart() {
		return nil
	}
	return sa.anneal(runLength, start.Copy())
}

// Reoptimize behaves like Optimize but resumes from the tracker's current
// best candidate, falling back to the initializer when the tracker is
// still empty.
func (sa *SimulatedAnnealer[T]) Reoptimize(runLength int) *optimization.ResultPair[T] {
	if sa.haltBeforeStart() {
		return nil
	}
	if best := sa.tracker.Best(); best != nil {
		return sa.anneal(runLength, best.Candidate())
	}
	return sa.anneal(runLength, sa.initializer.CreateCandidate())
}

// Tracker returns the progress tracker this search reports to.
func (sa *SimulatedAnnealer[T]) Tracker() *optimization.ProgressTracker[T] {
	return sa.tracker
}

// TotalRunLength returns the cumulative number of iterations completed
// across all runs of this annealer.
func (sa *SimulatedAnnealer[T]) TotalRunLength() int {
	return sa.total
}

// Split returns an independent annealer for a parallel worker, sharing only
// the problem and the progress tracker.
func (sa *SimulatedAnnealer[T]) Split() optimization.Metaheuristic[T] {
	clone := &SimulatedAnnealer[T]{
		problem:     sa.problem,
		bounded:     sa.bounded,
		mutator:     sa.mutator.Split(),
		initializer: sa.initializer.Split(),
		schedule:    sa.schedule.Split(),
		tracker:     sa.tracker,
	}
	if sa.hillClimber != nil {
		clone.hillClimber = sa.hillClimber.Split()
	}
	return clone
}

func (sa *SimulatedAnnealer[T]) haltBeforeStart() bool {
	return sa.tracker.StopRequested() || sa.tracker.FoundOptimal()
}

func (sa *SimulatedAnnealer[T]) isMinCost(cost float64) bool {
	return sa.bounded != nil && sa.bounded.IsMinCost(cost)
}

// anneal is the core mutate/evaluate/decide/undo loop over current, which
// the annealer owns for the duration of the run.
func (sa *SimulatedAnnealer[T]) anneal(runLength int, current T) *optimization.ResultPair[T] {
	sa.schedule.Init(runLength)

	currentCost := sa.problem.Cost(current)
	bestOfRun := currentCost
	sa.tracker.Offer(current, currentCost, sa.isMinCost(currentCost))

	completed := 0
	for i := 0; i < runLength; i++ {
		if sa.tracker.StopRequested() || sa.tracker.FoundOptimal() {
			break
		}

		sa.mutator.Mutate(current)
		neighborCost := sa.problem.Cost(current)
		if sa.schedule.Decide(neighborCost, currentCost) {
			currentCost = neighborCost
			// The tracker is improvement-only, so offering is only useful
			// when this run's best improved; skipping the no-op offers
			// keeps the hot loop off the tracker's lock.
			if currentCost < bestOfRun {
				bestOfRun = currentCost
				sa.tracker.Offer(current, currentCost, sa.isMinCost(currentCost))
			}
		} else {
			sa.mutator.Undo(current)
		}

		completed++
		sa.total++
		if sa.isMinCost(currentCost) {
			break
		}
	}

	if completed == 0 {
		return nil
	}

	if sa.hillClimber != nil {
		if refined := sa.hillClimber.OptimizeFrom(current); refined != nil {
			cost := refined.Cost()
			sa.tracker.Offer(refined.Candidate(), cost, refined.Optimal() || sa.isMinCost(cost))
			return refined
		}
	}

	return optimization.NewResultPair(current, currentCost, sa.isMinCost(currentCost))
}
