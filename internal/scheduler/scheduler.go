// Package scheduler drives the daemon's periodic work through cron
// specs: scraping, the daily digest and storage cleanup.
package scheduler

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/locopon/locopon/internal/logger"
)

// Job is one schedulable unit of work. The context is cancelled when the
// scheduler shuts down; long jobs must honor it.
type Job func(ctx context.Context)

// Specs holds the cron expressions, standard five-field format.
type Specs struct {
	Scrape  string
	Digest  string
	Cleanup string
}

// Jobs holds the work bound to each spec. Nil entries are not scheduled.
type Jobs struct {
	Scrape  Job
	Digest  Job
	Cleanup Job
}

// Scheduler owns the cron runner and the shared job context.
type Scheduler struct {
	cron   *cron.Cron
	logger logger.Interface

	ctx    context.Context
	cancel context.CancelFunc
}

// New builds a scheduler from the specs. Invalid cron expressions fail
// here, not at run time.
func New(specs Specs, jobs Jobs, log logger.Interface) (*Scheduler, error) {
	s := &Scheduler{
		cron:   cron.New(),
		logger: log.WithComponent("scheduler"),
	}

	entries := []struct {
		name string
		spec string
		job  Job
	}{
		{"scrape", specs.Scrape, jobs.Scrape},
		{"digest", specs.Digest, jobs.Digest},
		{"cleanup", specs.Cleanup, jobs.Cleanup},
	}

	for _, entry := range entries {
		if entry.job == nil || entry.spec == "" {
			continue
		}
		if _, err := s.cron.AddFunc(entry.spec, s.wrap(entry.name, entry.job)); err != nil {
			return nil, fmt.Errorf("invalid %s schedule %q: %w", entry.name, entry.spec, err)
		}
		s.logger.Info("Job scheduled", "job", entry.name, "spec", entry.spec)
	}

	return s, nil
}

// wrap gives each invocation a run id and guards the shared context.
func (s *Scheduler) wrap(name string, job Job) func() {
	return func() {
		if s.ctx == nil || s.ctx.Err() != nil {
			return
		}

		runID := uuid.New().String()
		log := s.logger.With("job", name, "run_id", runID)

		log.Info("Job starting")
		job(s.ctx)
		log.Info("Job finished")
	}
}

// Run starts the cron loop and blocks until the context is cancelled,
// then waits for running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	defer s.cancel()

	s.cron.Start()
	s.logger.Info("Scheduler started", "jobs", len(s.cron.Entries()))

	<-ctx.Done()
	s.logger.Info("Scheduler stopping")

	s.cancel()
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("Scheduler stopped")
}
