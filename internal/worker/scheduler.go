package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// NamedJob pairs a job with a stable name for logging.
type NamedJob struct {
	Name string
	Run  Job
}

// Scheduler submits its jobs to a pool on a fixed interval. The clock is
// injected so tests can drive ticks deterministically.
type Scheduler struct {
	name     string
	interval time.Duration
	clock    clockwork.Clock
	pool     *Pool

	mu   sync.RWMutex
	jobs []NamedJob
}

func NewScheduler(name string, interval time.Duration, clock clockwork.Clock, pool *Pool) *Scheduler {
	return &Scheduler{
		name:     name,
		interval: interval,
		clock:    clock,
		pool:     pool,
	}
}

func (s *Scheduler) AddJob(job NamedJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
}

// Run ticks until the context is cancelled. Each tick submits every
// registered job; a full queue is logged and the job waits for the next tick
// rather than piling up.
func (s *Scheduler) Run(ctx context.Context) {
	slog.Info("Scheduler running", "scheduler", s.name, "interval", s.interval)
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			s.submitJobs(ctx)
		case <-ctx.Done():
			slog.Info("Scheduler shutting down", "scheduler", s.name)
			return
		}
	}
}

func (s *Scheduler) submitJobs(ctx context.Context) {
	s.mu.RLock()
	jobs := make([]NamedJob, len(s.jobs))
	copy(jobs, s.jobs)
	s.mu.RUnlock()

	for _, job := range jobs {
		if err := s.pool.Submit(ctx, job.Run); err != nil {
			slog.Error("failed to submit scheduled job",
				"scheduler", s.name, "job", job.Name, "error", err)
		}
	}
}
