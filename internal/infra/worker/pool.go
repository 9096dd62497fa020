// File: internal/infra/worker/pool.go
package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"jdcrawler-dashboard/internal/infra/logging"
)

// ErrQueueFull is returned by Submit when every slot is taken.
var ErrQueueFull = errors.New("worker queue full")

var ErrStopped = errors.New("worker pool stopped")

type Task func(ctx context.Context) error

// Pool runs best-effort background tasks such as page prefetches.
// Submit never blocks: when saturated the task is dropped.
type Pool struct {
	name string
	n    int
	jobs chan Task

	mu      sync.Mutex
	started bool
	stopped bool
	quit    chan struct{}
	wg      sync.WaitGroup

	log *zerolog.Logger
}

func NewPool(name string, workers, queue int, logger *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if queue <= 0 {
		queue = workers * 4
	}
	if logger == nil {
		logger = logging.Nop()
	}
	l := logger.With().Str("component", "worker.Pool").Str("pool", name).Logger()
	return &Pool{name: name, n: workers, jobs: make(chan Task, queue), quit: make(chan struct{}), log: &l}
}

func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return
	}
	p.started = true
	for i := 0; i < p.n; i++ {
		p.wg.Add(1)
		go p.loop(ctx, i)
	}
}

func (p *Pool) loop(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.quit:
			return
		case task := <-p.jobs:
			p.run(ctx, id, task)
		}
	}
}

func (p *Pool) run(ctx context.Context, id int, task Task) {
	defer func() {
		if rec := recover(); rec != nil {
			p.log.Error().Int("worker", id).Interface("panic", rec).Msg("task panicked")
		}
	}()
	if err := task(ctx); err != nil && !errors.Is(err, context.Canceled) {
		p.log.Debug().Int("worker", id).Err(err).Msg("task error")
	}
}

// Stop signals the workers and waits for running tasks. Queued tasks are dropped.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.quit)
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pool) Submit(task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	p.mu.Lock()
	stopped := p.stopped
	p.mu.Unlock()
	if stopped {
		return ErrStopped
	}
	select {
	case p.jobs <- task:
		return nil
	default:
		p.log.Debug().Msg("queue full, task dropped")
		return ErrQueueFull
	}
}
