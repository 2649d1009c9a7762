package multistart

import (
	"sync"
	"sync/atomic"

	"github.com/copyleftdev/KILN/internal/errors"
	"github.com/copyleftdev/KILN/internal/logging"
	"github.com/copyleftdev/KILN/internal/metrics"
	"github.com/copyleftdev/KILN/internal/optimization"
	"github.com/copyleftdev/KILN/internal/optimization/restart"
)

// ParallelMultistarter runs k independent copies of a multistart search on a
// worker-thread pool, all sharing one progress tracker. The pool is owned
// exclusively by the coordinator and reused across optimize calls; Close
// must be called (typically deferred) when no further optimization will be
// requested, or the pool's goroutines leak.
type ParallelMultistarter[T optimization.Candidate[T]] struct {
	starters []*Multistarter[T]
	tracker  *optimization.ProgressTracker[T]
	pool     *workerPool
	logger   *logging.Logger
	engine   *metrics.Engine
	closed   atomic.Bool
}

// Option configures a parallel coordinator.
type Option[T optimization.Candidate[T]] func(*ParallelMultistarter[T])

// WithLogger attaches a logger; the coordinator reports worker lifecycle and
// results at debug and info level.
func WithLogger[T optimization.Candidate[T]](logger *logging.Logger) Option[T] {
	return func(p *ParallelMultistarter[T]) { p.logger = logger }
}

// WithMetrics attaches Prometheus collectors updated after every optimize
// call.
func WithMetrics[T optimization.Candidate[T]](engine *metrics.Engine) Option[T] {
	return func(p *ParallelMultistarter[T]) { p.engine = engine }
}

// NewParallel creates a parallel coordinator with workers independent copies
// of search, each driven by its own copy of lengths, all sharing search's
// progress tracker.
func NewParallel[T optimization.Candidate[T]](search optimization.Metaheuristic[T], lengths restart.RunLengths, workers int, opts ...Option[T]) (*ParallelMultistarter[T], error) {
	if lengths == nil {
		return nil, optimization.NewInvalidArgumentf("ParallelMultistarter", "restart-length schedule is required")
	}
	if workers < 1 {
		return nil, optimization.NewInvalidArgumentf("ParallelMultistarter", "worker count must be positive, got %d", workers)
	}
	perWorker := make([]restart.RunLengths, workers)
	for i := range perWorker {
		perWorker[i] = lengths.Split()
	}
	return NewParallelWithSchedules(search, perWorker, opts...)
}

// NewParallelWithSchedules creates a parallel coordinator with one worker
// per restart-length schedule in lengths. Use this with per-worker schedules
// such as P-VAL, whose phase offsets differ across workers.
func NewParallelWithSchedules[T optimization.Candidate[T]](search optimization.Metaheuristic[T], lengths []restart.RunLengths, opts ...Option[T]) (*ParallelMultistarter[T], error) {
	if search == nil {
		return nil, optimization.NewInvalidArgumentf("ParallelMultistarter", "search is required")
	}
	if len(lengths) == 0 {
		return nil, optimization.NewInvalidArgumentf("ParallelMultistarter", "at least one restart-length schedule is required")
	}

	p := &ParallelMultistarter[T]{
		tracker:  search.Tracker(),
		starters: make([]*Multistarter[T], len(lengths)),
	}
	for i, l := range lengths {
		if l == nil {
			return nil, optimization.NewInvalidArgumentf("ParallelMultistarter", "restart-length schedule %d is nil", i)
		}
		starter, err := New(search.Split(), l)
		if err != nil {
			return nil, err
		}
		p.starters[i] = starter
	}
	for _, opt := range opts {
		opt(p)
	}
	p.pool = newWorkerPool(len(lengths))
	return p, nil
}

// Optimize dispatches one task per worker, each running its multistart
// search for restartsPerWorker restarts, blocks until all workers complete,
// and returns the tracker's best result. It returns nil (with nil error) if
// the tracker already reported a stop request or an optimal result. Worker
// panics are surfaced as an error after all workers have been joined.
func (p *ParallelMultistarter[T]) Optimize(restartsPerWorker int) (*optimization.ResultPair[T], error) {
	return p.dispatch("optimize", restartsPerWorker, func(m *Multistarter[T]) {
		m.Optimize(restartsPerWorker)
	})
}

// Reoptimize behaves like Optimize but each worker resumes its restarts from
// the tracker's current best.
func (p *ParallelMultistarter[T]) Reoptimize(restartsPerWorker int) (*optimization.ResultPair[T], error) {
	return p.dispatch("reoptimize", restartsPerWorker, func(m *Multistarter[T]) {
		m.Reoptimize(restartsPerWorker)
	})
}

func (p *ParallelMultistarter[T]) dispatch(op string, restartsPerWorker int, runWorker func(*Multistarter[T])) (*optimization.ResultPair[T], error) {
	if p.closed.Load() {
		return nil, optimization.NewError("coordinator has been closed").
			WithComponent("ParallelMultistarter").
			WithOperation(op)
	}
	if restartsPerWorker < 1 {
		return nil, optimization.NewInvalidArgumentf("ParallelMultistarter", "restarts per worker must be positive, got %d", restartsPerWorker)
	}
	if p.tracker.StopRequested() || p.tracker.FoundOptimal() {
		return nil, nil
	}

	restartsBefore, iterationsBefore := p.totals()
	if p.logger != nil {
		p.logger.Debug("dispatching search workers", map[string]interface{}{
			"workers":  len(p.starters),
			"restarts": restartsPerWorker,
		})
	}

	var wg sync.WaitGroup
	failures := make([]error, len(p.starters))
	var submitErr error
	for i, m := range p.starters {
		i, m := i, m
		wg.Add(1)
		if err := p.pool.submit(func() {
			defer wg.Done()
			failures[i] = errors.CapturePanic(func() { runWorker(m) })
		}); err != nil {
			wg.Done()
			submitErr = err
			break
		}
	}

	// Join everything that was dispatched before reporting any failure, so
	// no worker is left running against a coordinator that already returned.
	wg.Wait()

	if submitErr != nil {
		return nil, submitErr
	}
	for i, err := range failures {
		if err != nil {
			if p.engine != nil {
				p.engine.WorkerFailures.Inc()
			}
			return nil, optimization.WrapErrorf(err, "worker %d failed", i).
				WithComponent("ParallelMultistarter").
				WithOperation(op)
		}
	}

	best := p.tracker.Best()
	restartsAfter, iterationsAfter := p.totals()
	if p.engine != nil {
		p.engine.Restarts.Add(float64(restartsAfter - restartsBefore))
		p.engine.Iterations.Add(float64(iterationsAfter - iterationsBefore))
		if best != nil {
			p.engine.BestCost.Set(best.Cost())
		}
	}
	if p.logger != nil {
		fields := map[string]interface{}{
			"restarts":   restartsAfter - restartsBefore,
			"iterations": iterationsAfter - iterationsBefore,
			"elapsed":    p.tracker.Elapsed().String(),
		}
		if best != nil {
			fields["best_cost"] = best.Cost()
		}
		p.logger.Info("search workers joined", fields)
	}
	return best, nil
}

// totals sums restart and iteration counts across workers. Only meaningful
// while no workers are running.
func (p *ParallelMultistarter[T]) totals() (restarts, iterations int) {
	for _, m := range p.starters {
		restarts += m.Restarts()
		iterations += m.TotalRunLength()
	}
	return restarts, iterations
}

// Restarts returns the cumulative number of restarts completed across all
// workers and all optimize calls. Call it only while no optimize call is in
// flight.
func (p *ParallelMultistarter[T]) Restarts() int {
	restarts, _ := p.totals()
	return restarts
}

// TotalRunLength returns the cumulative iterations completed across all
// workers and all optimize calls. Call it only while no optimize call is in
// flight.
func (p *ParallelMultistarter[T]) TotalRunLength() int {
	_, iterations := p.totals()
	return iterations
}

// Tracker returns the shared progress tracker.
func (p *ParallelMultistarter[T]) Tracker() *optimization.ProgressTracker[T] {
	return p.tracker
}

// Close releases the worker pool. Further optimize calls fail fast. Close
// is idempotent.
func (p *ParallelMultistarter[T]) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	p.pool.shutdown()
	if p.logger != nil {
		p.logger.Debug("parallel coordinator closed", map[string]interface{}{
			"workers": len(p.starters),
		})
	}
	return nil
}
