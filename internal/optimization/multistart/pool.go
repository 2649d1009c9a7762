package multistart

import (
	"sync"

	"github.com/copyleftdev/KILN/internal/optimization"
)

// workerPool is a fixed-size pool of goroutines executing long-running
// search tasks. Each parallel coordinator exclusively owns one pool, reusing
// it across optimize calls, and releases it through shutdown.
type workerPool struct {
	tasks  chan func()
	joined sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

func newWorkerPool(size int) *workerPool {
	p := &workerPool{tasks: make(chan func())}
	p.joined.Add(size)
	for i := 0; i < size; i++ {
		go func() {
			defer p.joined.Done()
			for task := range p.tasks {
				task()
			}
		}()
	}
	return p
}

// submit hands task to an idle worker. It fails once the pool has been shut
// down. The coordinator never queues more tasks than the pool has workers,
// so the send does not block beyond worker pickup.
func (p *workerPool) submit(task func()) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return optimization.NewError("worker pool is closed").
			WithComponent("workerPool").
			WithOperation("submit")
	}
	p.mu.Unlock()

	p.tasks <- task
	return nil
}

// shutdown stops accepting tasks, lets in-flight tasks finish, and joins all
// workers. It is idempotent.
func (p *workerPool) shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.joined.Wait()
}
