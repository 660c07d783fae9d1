package worker

import (
	"errors"
	"runtime"
	"sync"

	"go.uber.org/atomic"
)

var (
	ErrPoolClosed = errors.New("worker pool closed")
	ErrQueueFull  = errors.New("worker queue full")
)

// Stats is a snapshot of pool counters
type Stats struct {
	TotalJobs     int64
	CompletedJobs int64
	RejectedJobs  int64
	PanickedJobs  int64
	ActiveWorkers int64
}

// WorkerPool runs submitted jobs on a fixed set of goroutines
type WorkerPool struct {
	workers  int
	jobQueue chan func()
	wg       sync.WaitGroup
	once     sync.Once

	mu     sync.RWMutex
	closed bool

	totalJobs     atomic.Int64
	completedJobs atomic.Int64
	rejectedJobs  atomic.Int64
	panickedJobs  atomic.Int64
	activeWorkers atomic.Int64
}

// NewWorkerPool creates a pool; workers <= 0 means one per CPU
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &WorkerPool{
		workers:  workers,
		jobQueue: make(chan func(), workers*2),
	}
}

// Start launches the workers. Calling it more than once is a no-op.
func (wp *WorkerPool) Start() {
	wp.once.Do(func() {
		for i := 0; i < wp.workers; i++ {
			go wp.worker()
		}
	})
}

func (wp *WorkerPool) worker() {
	for job := range wp.jobQueue {
		wp.run(job)
	}
}

func (wp *WorkerPool) run(job func()) {
	wp.activeWorkers.Inc()
	defer func() {
		if r := recover(); r != nil {
			wp.panickedJobs.Inc()
		}
		wp.activeWorkers.Dec()
		wp.completedJobs.Inc()
		wp.wg.Done()
	}()
	job()
}

// Submit queues a job without waiting for queue space. It returns
// ErrQueueFull when every slot is taken and ErrPoolClosed after Close.
func (wp *WorkerPool) Submit(job func()) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		wp.rejectedJobs.Inc()
		return ErrPoolClosed
	}

	wp.wg.Add(1)
	wp.totalJobs.Inc()
	select {
	case wp.jobQueue <- job:
		return nil
	default:
		wp.totalJobs.Dec()
		wp.wg.Done()
		wp.rejectedJobs.Inc()
		return ErrQueueFull
	}
}

// Wait blocks until every accepted job has finished
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// Close stops accepting jobs; queued jobs still run
func (wp *WorkerPool) Close() {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.closed {
		return
	}
	wp.closed = true
	close(wp.jobQueue)
}

// GetStats returns the current counters
func (wp *WorkerPool) GetStats() Stats {
	return Stats{
		TotalJobs:     wp.totalJobs.Load(),
		CompletedJobs: wp.completedJobs.Load(),
		RejectedJobs:  wp.rejectedJobs.Load(),
		PanickedJobs:  wp.panickedJobs.Load(),
		ActiveWorkers: wp.activeWorkers.Load(),
	}
}
