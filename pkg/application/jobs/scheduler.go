// Package jobs runs the periodic maintenance checks on their configured
// intervals.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vsinha/printcenter/pkg/application/dto"
	"github.com/vsinha/printcenter/pkg/application/services"
	"github.com/vsinha/printcenter/pkg/infrastructure/config"
)

// Runner executes one named check
type Runner interface {
	Run(ctx context.Context, name string) (*dto.JobResult, error)
}

// Recorder receives the outcome of every run
type Recorder interface {
	RecordJob(job string, d time.Duration, err error)
}

// Job is a check and how often it runs
type Job struct {
	Name     string        `json:"name"`
	Interval time.Duration `json:"interval"`
}

// Jobs lists every check with its interval from cfg, sorted by name
func Jobs(cfg config.JobsConfig) []Job {
	jobs := []Job{
		{Name: services.JobConfirmationDeadlines, Interval: cfg.ConfirmationInterval},
		{Name: services.JobExpiredConfirmations, Interval: cfg.ConfirmationInterval},
		{Name: services.JobReadyForDelivery, Interval: cfg.DeliveryInterval},
		{Name: services.JobOverdueOrders, Interval: cfg.OverdueInterval},
		{Name: services.JobLowStock, Interval: cfg.LowStockInterval},
		{Name: services.JobOverdueBookings, Interval: cfg.BookingInterval},
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Name < jobs[j].Name })
	return jobs
}

type Scheduler struct {
	runner   Runner
	jobs     []Job
	recorder Recorder
	logger   zerolog.Logger
}

// NewScheduler builds a scheduler. recorder may be nil.
func NewScheduler(runner Runner, jobs []Job, recorder Recorder, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		jobs:     jobs,
		recorder: recorder,
		logger:   logger.With().Str("component", "jobs").Logger(),
	}
}

func (s *Scheduler) Jobs() []Job {
	return s.jobs
}

// Start runs every job with a positive interval on its own ticker until ctx
// is cancelled. Failed runs are logged and never stop the loop.
func (s *Scheduler) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, job := range s.jobs {
		if job.Interval <= 0 {
			s.logger.Warn().Str("job", job.Name).Msg("job disabled: interval is not positive")
			continue
		}
		job := job
		g.Go(func() error {
			return s.loop(ctx, job)
		})
	}
	s.logger.Info().Int("jobs", len(s.jobs)).Msg("scheduler started")
	err := g.Wait()
	s.logger.Info().Msg("scheduler stopped")
	return err
}

func (s *Scheduler) loop(ctx context.Context, job Job) error {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_, _ = s.run(ctx, job.Name)
		}
	}
}

func (s *Scheduler) run(ctx context.Context, name string) (*dto.JobResult, error) {
	start := time.Now()
	res, err := s.runner.Run(ctx, name)
	elapsed := time.Since(start)
	if s.recorder != nil {
		s.recorder.RecordJob(name, elapsed, err)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("job", name).Msg("job failed")
		return nil, err
	}
	s.logger.Info().
		Str("job", name).
		Int("processed", res.Processed).
		Int("notified", res.Notified).
		Dur("duration", elapsed).
		Msg("job completed")
	return res, nil
}

// RunOnce runs the named jobs, or all of them when names is empty, one after
// another. Every job runs even if an earlier one fails.
func (s *Scheduler) RunOnce(ctx context.Context, names ...string) ([]*dto.JobResult, error) {
	if len(names) == 0 {
		for _, job := range s.jobs {
			names = append(names, job.Name)
		}
	}
	var (
		results []*dto.JobResult
		errs    []error
	)
	for _, name := range names {
		res, err := s.run(ctx, name)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}
