package services

import (
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/taskio/taskio-web/pkg/logger"
)

var ErrSchedulerStopped = errors.New("scheduler stopped")

// every is a constant-interval cron schedule. Unlike cron.Every it keeps
// sub-second intervals.
type every time.Duration

func (e every) Next(t time.Time) time.Time {
	return t.Add(time.Duration(e))
}

// Scheduler runs the repeating jobs that belong to one session.
// It is single use: once stopped it never runs a job again.
type Scheduler struct {
	cron     *cron.Cron
	mu       sync.Mutex
	entries  map[string]cron.EntryID
	started  bool
	stopped  bool
	stopOnce sync.Once
}

func NewScheduler() *Scheduler {
	l := logger.CronLogger()
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(l),
			cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
		),
		entries: make(map[string]cron.EntryID),
	}
}

// Every registers fn to run each d. Registering a name twice replaces the job.
func (s *Scheduler) Every(name string, d time.Duration, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrSchedulerStopped
	}
	if d <= 0 {
		return errors.New("interval must be positive")
	}
	if id, ok := s.entries[name]; ok {
		s.cron.Remove(id)
	}
	s.entries[name] = s.cron.Schedule(every(d), cron.FuncJob(fn))
	return nil
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.started {
		return
	}
	s.started = true
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs to return.
// It is safe to call more than once. It must not be called from inside a job.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()

		<-s.cron.Stop().Done()
	})
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started && !s.stopped
}

func (s *Scheduler) Jobs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
