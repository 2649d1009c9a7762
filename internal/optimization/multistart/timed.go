package multistart

import (
	"math"
	"sync"
	"time"

	"github.com/copyleftdev/KILN/internal/errors"
	"github.com/copyleftdev/KILN/internal/optimization"
	"github.com/copyleftdev/KILN/internal/optimization/restart"
)

// DefaultTimeUnit is the snapshot interval of a timed search when none is
// configured.
const DefaultTimeUnit = time.Second

// TimedParallelMultistarter is a parallel multistart coordinator bounded by
// wall-clock time instead of a restart count. Workers run restarts until the
// time budget expires; after each elapsed time unit the coordinator records
// a snapshot of the tracker's best-so-far into an ordered history.
type TimedParallelMultistarter[T optimization.Candidate[T]] struct {
	*ParallelMultistarter[T]
	unit time.Duration

	historyMu sync.Mutex
	history   []*optimization.ResultPair[T]
}

// NewTimedParallel creates a timed parallel coordinator. unit is the
// snapshot interval; a non-positive unit selects DefaultTimeUnit. The other
// parameters are those of NewParallel.
func NewTimedParallel[T optimization.Candidate[T]](search optimization.Metaheuristic[T], lengths restart.RunLengths, workers int, unit time.Duration, opts ...Option[T]) (*TimedParallelMultistarter[T], error) {
	inner, err := NewParallel(search, lengths, workers, opts...)
	if err != nil {
		return nil, err
	}
	if unit <= 0 {
		unit = DefaultTimeUnit
	}
	return &TimedParallelMultistarter[T]{ParallelMultistarter: inner, unit: unit}, nil
}

// NewTimedParallelWithSchedules is the per-worker-schedule variant of
// NewTimedParallel, for P-VAL style schedule lists.
func NewTimedParallelWithSchedules[T optimization.Candidate[T]](search optimization.Metaheuristic[T], lengths []restart.RunLengths, unit time.Duration, opts ...Option[T]) (*TimedParallelMultistarter[T], error) {
	inner, err := NewParallelWithSchedules(search, lengths, opts...)
	if err != nil {
		return nil, err
	}
	if unit <= 0 {
		unit = DefaultTimeUnit
	}
	return &TimedParallelMultistarter[T]{ParallelMultistarter: inner, unit: unit}, nil
}

// Optimize runs the workers for timeUnits time units, snapshotting the
// tracker's best after each unit, then raises the tracker's stop flag and
// joins all workers. Cancellation is cooperative: an in-flight iteration
// completes before its worker observes the flag. Returns the tracker's best
// result, or nil (with nil error) if the tracker already reported a stop or
// an optimal result. Worker panics are surfaced as an error after joining.
func (t *TimedParallelMultistarter[T]) Optimize(timeUnits int) (*optimization.ResultPair[T], error) {
	return t.timed("optimize", timeUnits, func(m *Multistarter[T]) {
		m.Optimize(math.MaxInt)
	})
}

// Reoptimize behaves like Optimize but workers resume their restarts from
// the tracker's current best.
func (t *TimedParallelMultistarter[T]) Reoptimize(timeUnits int) (*optimization.ResultPair[T], error) {
	return t.timed("reoptimize", timeUnits, func(m *Multistarter[T]) {
		m.Reoptimize(math.MaxInt)
	})
}

func (t *TimedParallelMultistarter[T]) timed(op string, timeUnits int, runWorker func(*Multistarter[T])) (*optimization.ResultPair[T], error) {
	if t.closed.Load() {
		return nil, optimization.NewError("coordinator has been closed").
			WithComponent("TimedParallelMultistarter").
			WithOperation(op)
	}
	if timeUnits < 1 {
		return nil, optimization.NewInvalidArgumentf("TimedParallelMultistarter", "time units must be positive, got %d", timeUnits)
	}
	if t.tracker.StopRequested() || t.tracker.FoundOptimal() {
		return nil, nil
	}

	t.historyMu.Lock()
	t.history = t.history[:0]
	t.historyMu.Unlock()
	restartsBefore, iterationsBefore := t.totals()

	var wg sync.WaitGroup
	failures := make([]error, len(t.starters))
	var submitErr error
	for i, m := range t.starters {
		i, m := i, m
		wg.Add(1)
		if err := t.pool.submit(func() {
			defer wg.Done()
			failures[i] = errors.CapturePanic(func() { runWorker(m) })
		}); err != nil {
			wg.Done()
			submitErr = err
			break
		}
	}

	joined := make(chan struct{})
	go func() {
		wg.Wait()
		close(joined)
	}()

	if submitErr == nil {
		t.snapshotLoop(timeUnits, joined)
	}

	// Deadline reached (or dispatch failed): stop the workers cooperatively
	// and wait for every in-flight iteration to finish.
	t.tracker.RequestStop()
	<-joined

	if submitErr != nil {
		return nil, submitErr
	}
	for i, err := range failures {
		if err != nil {
			if t.engine != nil {
				t.engine.WorkerFailures.Inc()
			}
			return nil, optimization.WrapErrorf(err, "worker %d failed", i).
				WithComponent("TimedParallelMultistarter").
				WithOperation(op)
		}
	}

	best := t.tracker.Best()
	restartsAfter, iterationsAfter := t.totals()
	if t.engine != nil {
		t.engine.Restarts.Add(float64(restartsAfter - restartsBefore))
		t.engine.Iterations.Add(float64(iterationsAfter - iterationsBefore))
		if best != nil {
			t.engine.BestCost.Set(best.Cost())
		}
	}
	if t.logger != nil {
		fields := map[string]interface{}{
			"time_units": timeUnits,
			"snapshots":  len(t.history),
			"iterations": iterationsAfter - iterationsBefore,
		}
		if best != nil {
			fields["best_cost"] = best.Cost()
		}
		t.logger.Info("timed search complete", fields)
	}
	return best, nil
}

// snapshotLoop records one best-so-far snapshot per elapsed time unit until
// the budget is spent or all workers finish early (optimum found). The
// history then has one entry per elapsed unit, possibly fewer than
// timeUnits.
func (t *TimedParallelMultistarter[T]) snapshotLoop(timeUnits int, joined <-chan struct{}) {
	ticker := time.NewTicker(t.unit)
	defer ticker.Stop()

	for units := 0; units < timeUnits; {
		select {
		case <-ticker.C:
			units++
			t.historyMu.Lock()
			t.history = append(t.history, t.tracker.Best())
			t.historyMu.Unlock()
			if t.engine != nil {
				t.engine.Snapshots.Inc()
			}
		case <-joined:
			return
		}
	}
}

// SearchHistory returns the ordered best-so-far snapshots of the most
// recent optimize call, one per elapsed time unit. An entry is nil if no
// candidate had been offered by the end of that unit.
func (t *TimedParallelMultistarter[T]) SearchHistory() []*optimization.ResultPair[T] {
	t.historyMu.Lock()
	defer t.historyMu.Unlock()
	out := make([]*optimization.ResultPair[T], len(t.history))
	copy(out, t.history)
	return out
}

// TimeUnit returns the configured snapshot interval.
func (t *TimedParallelMultistarter[T]) TimeUnit() time.Duration {
	return t.unit
}
