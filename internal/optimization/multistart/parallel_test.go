package multistart

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/KILN/internal/metrics"
	"github.com/copyleftdev/KILN/internal/optimization"
)

func TestNewParallelValidation(t *testing.T) {
	lengths := constantLengths(t, 100)
	search := newScriptedSearch(newScript())

	_, err := NewParallel[point](nil, lengths, 2)
	assert.Error(t, err)

	_, err = NewParallel[point](search, nil, 2)
	assert.Error(t, err)

	_, err = NewParallel[point](search, lengths, 0)
	assert.Error(t, err)

	_, err = NewParallelWithSchedules[point](search, nil)
	assert.Error(t, err)
}

func TestParallelOptimizeFindsGlobalBest(t *testing.T) {
	script := newScript(9, 3, 7, 5, 8, 1)
	search := newScriptedSearch(script)

	p, err := NewParallel[point](search, constantLengths(t, 100), 3)
	require.NoError(t, err)
	defer p.Close()

	best, err := p.Optimize(2)
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, 1.0, best.Cost(), "the global minimum of the script must win")
	assert.Equal(t, 6, p.Restarts(), "3 workers times 2 restarts")
	assert.Equal(t, 6, p.TotalRunLength())
}

func TestParallelOptimizeValidatesRestartCount(t *testing.T) {
	p, err := NewParallel[point](newScriptedSearch(newScript()), constantLengths(t, 100), 2)
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Optimize(0)
	require.Error(t, err)
	searchErr, ok := optimization.IsSearchError(err)
	require.True(t, ok)
	assert.Equal(t, "ParallelMultistarter", searchErr.Component)
}

func TestParallelOptimizeHaltsWhenStopped(t *testing.T) {
	search := newScriptedSearch(newScript(5))
	p, err := NewParallel[point](search, constantLengths(t, 100), 2)
	require.NoError(t, err)
	defer p.Close()

	search.Tracker().RequestStop()
	best, err := p.Optimize(1)
	assert.NoError(t, err)
	assert.Nil(t, best)
}

func TestParallelCloseFailsFast(t *testing.T) {
	p, err := NewParallel[point](newScriptedSearch(newScript(5)), constantLengths(t, 100), 2)
	require.NoError(t, err)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close(), "Close is idempotent")

	_, err = p.Optimize(1)
	require.Error(t, err)
	searchErr, ok := optimization.IsSearchError(err)
	require.True(t, ok)
	assert.Equal(t, "ParallelMultistarter", searchErr.Component)
	assert.Contains(t, err.Error(), "closed")

	_, err = p.Reoptimize(1)
	assert.Error(t, err)
}

// panickySearch blows up on every run to exercise panic capture.
type panickySearch struct {
	tracker *optimization.ProgressTracker[point]
}

func (s *panickySearch) Optimize(runLength int) *optimization.ResultPair[point] {
	panic("synthetic worker failure")
}

func (s *panickySearch) Reoptimize(runLength int) *optimization.ResultPair[point] {
	panic("synthetic worker failure")
}

func (s *panickySearch) Tracker() *optimization.ProgressTracker[point] {
	return s.tracker
}

func (s *panickySearch) TotalRunLength() int { return 0 }

func (s *panickySearch) Split() optimization.Metaheuristic[point] {
	return &panickySearch{tracker: s.tracker}
}

func TestParallelSurfacesWorkerPanic(t *testing.T) {
	search := &panickySearch{tracker: optimization.NewProgressTracker[point]()}
	p, err := NewParallel[point](search, constantLengths(t, 100), 3)
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Optimize(1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worker")
	assert.Contains(t, err.Error(), "synthetic worker failure")
}

func TestParallelCoordinatorIsReusable(t *testing.T) {
	script := newScript(9, 7, 5, 3)
	p, err := NewParallel[point](newScriptedSearch(script), constantLengths(t, 100), 2)
	require.NoError(t, err)
	defer p.Close()

	first, err := p.Optimize(1)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := p.Reoptimize(1)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, 3.0, second.Cost(), "the second call sees the whole script's minimum")
	assert.Equal(t, 4, p.Restarts())
}

func TestParallelMatchesSequentialBest(t *testing.T) {
	costs := []float64{9, 3, 7, 5, 8, 2}

	seq, err := New[point](newScriptedSearch(newScript(costs...)), constantLengths(t, 100))
	require.NoError(t, err)
	seqBest := seq.Optimize(len(costs))
	require.NotNil(t, seqBest)

	par, err := NewParallel[point](newScriptedSearch(newScript(costs...)), constantLengths(t, 100), 3)
	require.NoError(t, err)
	defer par.Close()
	parBest, err := par.Optimize(len(costs) / 3)
	require.NoError(t, err)
	require.NotNil(t, parBest)

	assert.Equal(t, seqBest.Cost(), parBest.Cost())
	assert.Equal(t, seq.TotalRunLength(), par.TotalRunLength())
}

func TestParallelUpdatesMetrics(t *testing.T) {
	engine := metrics.NewEngine(prometheus.NewRegistry())
	script := newScript(9, 3, 7, 5, 8, 1)

	p, err := NewParallel[point](newScriptedSearch(script), constantLengths(t, 100), 3,
		WithMetrics[point](engine))
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Optimize(2)
	require.NoError(t, err)

	assert.Equal(t, 6.0, testutil.ToFloat64(engine.Restarts))
	assert.Equal(t, 6.0, testutil.ToFloat64(engine.Iterations))
	assert.Equal(t, 1.0, testutil.ToFloat64(engine.BestCost))
}

func TestWorkerPool(t *testing.T) {
	pool := newWorkerPool(2)

	done := make(chan struct{})
	require.NoError(t, pool.submit(func() { close(done) }))
	<-done

	pool.shutdown()
	pool.shutdown() // idempotent

	err := pool.submit(func() {})
	assert.Error(t, err, "submitting to a closed pool must fail")
}
