package service

import (
	"sync"
)

const (
	// DefaultWorkers is the number of concurrent analysis workers.
	DefaultWorkers = 3
	// DefaultQueueSize bounds the buffered job queue; overflow falls back to
	// a handoff goroutine so Submit never blocks the caller.
	DefaultQueueSize = 100
)

// WorkerPool executes submitted jobs on a fixed number of workers. Jobs run
// to completion: the pool offers no cancellation of in-flight work. A
// panicking job is recovered and logged so the pool keeps running.
type WorkerPool struct {
	jobs     chan func()
	wg       sync.WaitGroup
	handoffs sync.WaitGroup
	mu       sync.Mutex
	stopped  bool
	logger   Logger
	stopOnce sync.Once
}

func NewWorkerPool(queueSize int, logger Logger) *WorkerPool {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &WorkerPool{
		jobs:   make(chan func(), queueSize),
		logger: logger,
	}
}

// Start begins the worker pool with the specified number of workers.
func (wp *WorkerPool) Start(workers int) {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	for i := 0; i < workers; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
	wp.logger.Infof("worker pool started with %d workers", workers)
}

// Stop stops accepting jobs and waits for queued and in-flight jobs to
// finish. Overflowed jobs still parked in handoff goroutines are waited for
// before the queue is closed, so every accepted job runs.
func (wp *WorkerPool) Stop() {
	wp.stopOnce.Do(func() {
		wp.mu.Lock()
		wp.stopped = true
		wp.mu.Unlock()
		wp.handoffs.Wait()
		close(wp.jobs)
		wp.wg.Wait()
	})
}

// Submit enqueues fn for execution and returns immediately. If the queue is
// full the handoff is moved to its own goroutine rather than blocking the
// submitter. Jobs submitted after Stop are rejected with a warning.
func (wp *WorkerPool) Submit(fn func()) {
	wp.mu.Lock()
	if wp.stopped {
		wp.mu.Unlock()
		wp.logger.Warnf("worker pool stopped, rejecting job")
		return
	}
	select {
	case wp.jobs <- fn:
		wp.mu.Unlock()
	default:
		wp.handoffs.Add(1)
		wp.mu.Unlock()
		wp.logger.Warnf("job queue full, handing off asynchronously")
		go func() {
			defer wp.handoffs.Done()
			wp.jobs <- fn
		}()
	}
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()
	for fn := range wp.jobs {
		wp.run(fn)
	}
}

func (wp *WorkerPool) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			wp.logger.Errorf("worker recovered from panic: %v", r)
		}
	}()
	fn()
}
