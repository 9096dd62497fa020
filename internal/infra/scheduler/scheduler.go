package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Task is one periodic unit of work. Every run gets its own bounded context.
type Task struct {
	Name     string
	Every    time.Duration
	Timeout  time.Duration // defaults to Every, capped at 30s
	RunFirst bool          // run once on Start without waiting for the first tick
	Run      func(ctx context.Context) error
}

// Scheduler runs Tasks on a robfig/cron instance.
type Scheduler struct {
	cron  *cron.Cron
	tasks []Task
	log   *zerolog.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(logger *zerolog.Logger) *Scheduler {
	compLog := logger.With().Str("component", "Scheduler").Logger()
	cl := cronLogger{log: &compLog}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log: &compLog,
	}
}

// Add registers a task; tasks must be added before Start.
func (s *Scheduler) Add(t Task) error {
	if t.Every <= 0 {
		return fmt.Errorf("task %s: interval must be positive", t.Name)
	}
	if t.Run == nil {
		return fmt.Errorf("task %s: nil run func", t.Name)
	}
	if t.Timeout <= 0 {
		t.Timeout = t.Every
		if t.Timeout > 30*time.Second {
			t.Timeout = 30 * time.Second
		}
	}
	task := t
	if _, err := s.cron.AddFunc("@every "+t.Every.String(), func() { s.run(task) }); err != nil {
		return fmt.Errorf("cron.AddFunc %s: %w", t.Name, err)
	}
	s.tasks = append(s.tasks, task)
	return nil
}

// Start begins scheduling; calling Start multiple times has no effect.
func (s *Scheduler) Start(parent context.Context) {
	s.mu.Lock()
	if s.ctx != nil {
		s.mu.Unlock()
		return
	}
	s.ctx, s.cancel = context.WithCancel(parent)
	s.mu.Unlock()

	s.cron.Start()
	for _, t := range s.tasks {
		if t.RunFirst {
			task := t
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.run(task)
			}()
		}
	}
	s.log.Info().Int("tasks", len(s.tasks)).Msg("scheduler started")
}

func (s *Scheduler) run(t Task) {
	s.mu.Lock()
	parent := s.ctx
	s.mu.Unlock()
	if parent == nil || parent.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(parent, t.Timeout)
	defer cancel()
	if err := t.Run(ctx); err != nil {
		s.log.Debug().Err(err).Str("task", t.Name).Msg("task run failed")
	}
}

// Stop cancels running tasks and waits for them. It is idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel == nil {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.ctx, s.cancel = nil, nil
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.log.Info().Msg("scheduler stopped")
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct{ log *zerolog.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Trace().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
