package anneal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/KILN/internal/optimization"
)

// tally is a single-counter candidate for deterministic search tests.
type tally []int

func (v tally) Copy() tally {
	out := make(tally, len(v))
	copy(out, v)
	return out
}

// sawtoothProblem has cost 1000 - (n mod 601): strictly decreasing for the
// first 600 increments, then jumping back up. Minimum reachable cost is 400.
type sawtoothProblem struct{}

func (sawtoothProblem) Cost(v tally) float64 {
	return float64(1000 - v[0]%601)
}

// boundedSawtooth additionally declares the reachable minimum.
type boundedSawtooth struct{ sawtoothProblem }

func (boundedSawtooth) MinCost() float64            { return 400 }
func (boundedSawtooth) IsMinCost(cost float64) bool { return cost == 400 }

// incrementMutator adds one to the counter; Undo subtracts it back.
type incrementMutator struct{}

func (incrementMutator) Mutate(v tally)                     { v[0]++ }
func (incrementMutator) Undo(v tally)                       { v[0]-- }
func (incrementMutator) Split() optimization.Mutator[tally] { return incrementMutator{} }

// zeroInitializer always starts the counter at zero.
type zeroInitializer struct{}

func (zeroInitializer) CreateCandidate() tally                 { return tally{0} }
func (zeroInitializer) Split() optimization.Initializer[tally] { return zeroInitializer{} }

// acceptAll accepts every move, making the search fully deterministic.
type acceptAll struct{}

func (acceptAll) Init(runLength int)                            {}
func (acceptAll) Decide(neighborCost, currentCost float64) bool { return true }
func (acceptAll) Temperature() float64                          { return 1 }
func (acceptAll) Split() Schedule                               { return acceptAll{} }

func newDeterministicAnnealer(t *testing.T, problem optimization.Problem[tally]) *SimulatedAnnealer[tally] {
	t.Helper()
	sa, err := New(Config[tally]{
		Problem:     problem,
		Mutator:     incrementMutator{},
		Initializer: zeroInitializer{},
		Schedule:    acceptAll{},
	})
	require.NoError(t, err)
	return sa
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config[tally]{Mutator: incrementMutator{}, Initializer: zeroInitializer{}})
	assert.Error(t, err, "problem is required")

	_, err = New(Config[tally]{Problem: sawtoothProblem{}, Initializer: zeroInitializer{}})
	assert.Error(t, err, "mutator is required")

	_, err = New(Config[tally]{Problem: sawtoothProblem{}, Mutator: incrementMutator{}})
	assert.Error(t, err, "initializer is required")
}

func TestNewAppliesDefaults(t *testing.T) {
	sa, err := New(Config[tally]{
		Problem:     sawtoothProblem{},
		Mutator:     incrementMutator{},
		Initializer: zeroInitializer{},
	})
	require.NoError(t, err)
	assert.NotNil(t, sa.Tracker())
	_, ok := sa.schedule.(*ModifiedLam)
	assert.True(t, ok, "default schedule is Modified Lam")
}

func TestOptimizeRunsExactlyRunLengthIterations(t *testing.T) {
	sa := newDeterministicAnnealer(t, sawtoothProblem{})

	result := sa.Optimize(100)
	require.NotNil(t, result)
	assert.Equal(t, 900.0, result.Cost())
	assert.Equal(t, tally{100}, result.Candidate())
	assert.Equal(t, 100, sa.TotalRunLength())
}

func TestOptimizeFindsRunBest(t *testing.T) {
	sa := newDeterministicAnnealer(t, sawtoothProblem{})

	result := sa.Optimize(600)
	require.NotNil(t, result)
	assert.Equal(t, 400.0, result.Cost())
	assert.Equal(t, tally{600}, result.Candidate())

	cost, ok := sa.Tracker().BestCost()
	require.True(t, ok)
	assert.Equal(t, 400.0, cost)
}

func TestOptimizeEndOfRunCanBeWorseThanBest(t *testing.T) {
	sa := newDeterministicAnnealer(t, sawtoothProblem{})

	// 700 increments wrap the sawtooth: the run ends at n=700 with cost
	// 1000-99=901, while the best seen during the run was 400.
	result := sa.Optimize(700)
	require.NotNil(t, result)
	assert.Equal(t, 901.0, result.Cost())

	cost, ok := sa.Tracker().BestCost()
	require.True(t, ok)
	assert.Equal(t, 400.0, cost, "tracker keeps the best of the run")
}

func TestOptimizeStopsAtKnownMinimum(t *testing.T) {
	sa := newDeterministicAnnealer(t, boundedSawtooth{})

	result := sa.Optimize(1_000_000)
	require.NotNil(t, result)
	assert.Equal(t, 400.0, result.Cost())
	assert.True(t, result.Optimal())
	assert.True(t, sa.Tracker().FoundOptimal())
	assert.Equal(t, 600, sa.TotalRunLength(), "run ends the moment the bound is reached")
}

func TestReoptimizeResumesFromBest(t *testing.T) {
	sa := newDeterministicAnnealer(t, sawtoothProblem{})

	first := sa.Optimize(600)
	require.NotNil(t, first)
	require.Equal(t, 400.0, first.Cost())

	// Resuming from the tracker best (n=600), 50 more increments wrap to
	// n=650 with cost 1000-49=951. The tracker best is unchanged.
	second := sa.Reoptimize(50)
	require.NotNil(t, second)
	assert.Equal(t, 951.0, second.Cost())

	cost, ok := sa.Tracker().BestCost()
	require.True(t, ok)
	assert.Equal(t, 400.0, cost)
	assert.Equal(t, 650, sa.TotalRunLength())
}

func TestReoptimizeWithEmptyTrackerStartsFresh(t *testing.T) {
	sa := newDeterministicAnnealer(t, sawtoothProblem{})

	result := sa.Reoptimize(100)
	require.NotNil(t, result)
	assert.Equal(t, 900.0, result.Cost())
}

func TestOptimizeFromUsesGivenStart(t *testing.T) {
	sa := newDeterministicAnnealer(t, sawtoothProblem{})

	start := tally{500}
	result := sa.OptimizeFrom(100, start)
	require.NotNil(t, result)
	assert.Equal(t, 400.0, result.Cost())
	assert.Equal(t, tally{500}, start, "the caller's candidate must not be mutated")
}

func TestOptimizeHaltsBeforeStartOnStop(t *testing.T) {
	sa := newDeterministicAnnealer(t, sawtoothProblem{})

	sa.Tracker().RequestStop()
	assert.Nil(t, sa.Optimize(100))
	assert.Equal(t, 0, sa.TotalRunLength())
}

func TestOptimizeHaltsBeforeStartOnOptimal(t *testing.T) {
	sa := newDeterministicAnnealer(t, sawtoothProblem{})

	sa.Tracker().Offer(tally{600}, 400, true)
	assert.Nil(t, sa.Optimize(100))
}

// fixedClimber is a stub post-processor returning a constant result.
type fixedClimber struct{ result *optimization.ResultPair[tally] }

func (c fixedClimber) OptimizeFrom(start tally) *optimization.ResultPair[tally] {
	return c.result
}
func (c fixedClimber) Split() optimization.HillClimber[tally] { return c }

func TestHillClimberSupersedesRunResult(t *testing.T) {
	refined := optimization.NewResultPair(tally{600}, 400, false)
	sa, err := New(Config[tally]{
		Problem:     sawtoothProblem{},
		Mutator:     incrementMutator{},
		Initializer: zeroInitializer{},
		Schedule:    acceptAll{},
		HillClimber: fixedClimber{result: refined},
	})
	require.NoError(t, err)

	result := sa.Optimize(10)
	require.NotNil(t, result)
	assert.Equal(t, 400.0, result.Cost(), "the climber's result supersedes the run result")

	cost, ok := sa.Tracker().BestCost()
	require.True(t, ok)
	assert.Equal(t, 400.0, cost, "the climber's result is offered to the tracker")
}

func TestSplitSharesTrackerOnly(t *testing.T) {
	sa := newDeterministicAnnealer(t, sawtoothProblem{})

	clone, ok := sa.Split().(*SimulatedAnnealer[tally])
	require.True(t, ok)
	assert.Same(t, sa.Tracker(), clone.Tracker(), "split shares the tracker for cooperation")

	clone.Optimize(600)
	assert.Equal(t, 0, sa.TotalRunLength(), "split runs do not count against the parent")

	cost, bestOk := sa.Tracker().BestCost()
	require.True(t, bestOk)
	assert.Equal(t, 400.0, cost)
}

func TestSharedTrackerCooperation(t *testing.T) {
	tracker := optimization.NewProgressTracker[tally]()

	first, err := New(Config[tally]{
		Problem:     sawtoothProblem{},
		Mutator:     incrementMutator{},
		Initializer: zeroInitializer{},
		Schedule:    acceptAll{},
		Tracker:     tracker,
	})
	require.NoError(t, err)
	second, err := New(Config[tally]{
		Problem:     boundedSawtooth{},
		Mutator:     incrementMutator{},
		Initializer: zeroInitializer{},
		Schedule:    acceptAll{},
		Tracker:     tracker,
	})
	require.NoError(t, err)

	second.Optimize(600)
	require.True(t, tracker.FoundOptimal())

	// The optimal flag halts the sibling before it starts.
	assert.Nil(t, first.Optimize(100))
}
