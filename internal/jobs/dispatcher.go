package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pipelinekit/sgdesk/internal/constants"
	"github.com/pipelinekit/sgdesk/internal/logging"
)

// ErrDispatcherStopped is returned for submissions after Shutdown and delivered
// to jobs that were still queued when Shutdown was called.
var ErrDispatcherStopped = errors.New("job dispatcher stopped")

// Dispatcher runs submitted jobs on a fixed number of worker goroutines in FIFO
// order. Completion callbacks are handed to deliver, which in the GUI puts them
// on the UI goroutine.
type Dispatcher struct {
	workers int
	deliver func(func())
	logger  *logging.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []Runner
	active  int
	started bool
	stopped bool
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher. workers is clamped to [1, MaxJobWorkers];
// a nil deliver calls callbacks on the worker goroutine.
func NewDispatcher(workers int, deliver func(func()), logger *logging.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if workers > constants.MaxJobWorkers {
		workers = constants.MaxJobWorkers
	}
	if deliver == nil {
		deliver = func(f func()) { f() }
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	d := &Dispatcher{
		workers: workers,
		deliver: deliver,
		logger:  logger.Named("jobs"),
	}
	d.cond = sync.NewCond(&d.mu)
	return d
}

// Start launches the workers. Jobs submitted before Start wait in the queue.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.stopped {
		return
	}
	d.started = true

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	d.logger.Debug().Int("workers", d.workers).Msg("dispatcher started")
}

// Submit queues a job. It never blocks.
func (d *Dispatcher) Submit(r Runner) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return ErrDispatcherStopped
	}
	if !r.claim() {
		return ErrAlreadySubmitted
	}

	d.queue = append(d.queue, r)
	d.cond.Signal()
	d.logger.Debug().Str("job", r.Name()).Str("id", r.ID()).Int("queued", len(d.queue)).Msg("job submitted")
	return nil
}

// Pending returns the number of jobs waiting for a worker.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Active returns the number of jobs currently running.
func (d *Dispatcher) Active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Shutdown stops accepting jobs, fails every queued job with ErrDispatcherStopped
// and waits for running jobs until ctx is done. Running jobs are not interrupted.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	abandoned := d.queue
	d.queue = nil
	d.cond.Broadcast()
	d.mu.Unlock()

	for _, r := range abandoned {
		d.logger.Debug().Str("job", r.Name()).Msg("job abandoned at shutdown")
		d.deliver(r.abandon(ErrDispatcherStopped))
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		d.logger.Warn().Int("running", d.Active()).Msg("shutdown timed out waiting for jobs")
		return ctx.Err()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for {
		d.mu.Lock()
		for len(d.queue) == 0 && !d.stopped {
			d.cond.Wait()
		}
		if d.stopped {
			d.mu.Unlock()
			return
		}
		r := d.queue[0]
		d.queue[0] = nil
		d.queue = d.queue[1:]
		d.active++
		d.mu.Unlock()

		start := time.Now()
		callback := r.execute(context.Background())
		d.logger.Debug().Str("job", r.Name()).Str("id", r.ID()).Dur("took", time.Since(start)).Msg("job finished")

		d.mu.Lock()
		d.active--
		d.mu.Unlock()

		d.deliver(callback)
	}
}
