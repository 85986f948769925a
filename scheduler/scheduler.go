package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job names a scheduled job.
type Job string

const (
	JobJourneyReminders Job = "journey-reminders"
	JobPromotions       Job = "promotions"
	JobMaintenance      Job = "maintenance"
	JobExpirySweep      Job = "expiry-sweep"
)

var ErrUnknownJob = errors.New("unknown job")

// Scheduler fires the notification jobs on their cron specs. Runs may overlap
// each other; a replicated deployment relies on the Locker to run each
// trigger once.
type Scheduler struct {
	cron     *cron.Cron
	jobs     map[Job]JobFunc
	locker   Locker
	lockTTL  time.Duration
	metrics  *Metrics
	location *time.Location
	logger   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	running bool
}

// New registers the jobs on a cron in cfg.Timezone. locker and metrics may be nil.
func New(cfg Config, jobs *Jobs, locker Locker, metrics *Metrics, logger zerolog.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("scheduler timezone: %w", err)
	}
	if locker == nil {
		locker = LocalLocker{}
	}
	logger = logger.With().Str("component", "scheduler").Logger()

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cronLogger{logger}),
			cron.WithChain(cron.Recover(cronLogger{logger})),
		),
		jobs: map[Job]JobFunc{
			JobJourneyReminders: jobs.JourneyReminders,
			JobPromotions:       jobs.Promotions,
			JobMaintenance:      jobs.Maintenance,
			JobExpirySweep:      jobs.ExpirySweep,
		},
		locker:   locker,
		lockTTL:  cfg.LockTTL,
		metrics:  metrics,
		location: loc,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}

	specs := map[Job]string{
		JobJourneyReminders: cfg.ReminderSpec,
		JobPromotions:       cfg.PromoSpec,
		JobMaintenance:      cfg.MaintenanceSpec,
		JobExpirySweep:      cfg.ExpirySpec,
	}
	for job, spec := range specs {
		if spec == "" {
			continue
		}
		job := job
		if _, err := s.cron.AddFunc(spec, func() { s.trigger(job) }); err != nil {
			cancel()
			return nil, fmt.Errorf("schedule %s %q: %w", job, spec, err)
		}
	}
	return s, nil
}

// Start begins firing jobs. Calling it twice is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.cron.Start()
	s.logger.Info().Str("timezone", s.location.String()).Int("entries", len(s.cron.Entries())).Msg("scheduler started")
}

// Stop prevents new triggers and waits for running jobs until ctx is done,
// then cancels the context handed to jobs.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		s.cancel()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	defer s.cancel()
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info().Msg("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn().Msg("scheduler stop timed out, cancelling running jobs")
		return ctx.Err()
	}
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Jobs lists the job names in a stable order.
func (s *Scheduler) Jobs() []Job {
	out := make([]Job, 0, len(s.jobs))
	for job := range s.jobs {
		out = append(out, job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RunNow runs job immediately and synchronously. Manual runs bypass the
// trigger lock.
func (s *Scheduler) RunNow(ctx context.Context, job Job) (RunStats, error) {
	fn, ok := s.jobs[job]
	if !ok {
		return RunStats{}, fmt.Errorf("%w: %s", ErrUnknownJob, job)
	}
	return s.run(ctx, job, fn, time.Now().In(s.location))
}

// trigger is the cron entry point.
func (s *Scheduler) trigger(job Job) {
	now := time.Now().In(s.location)
	acquired, err := s.locker.Acquire(s.ctx, lockKey(job, now), s.lockTTL)
	if err != nil {
		s.logger.Warn().Err(err).Str("job", string(job)).Msg("trigger lock unavailable, running anyway")
		acquired = true
	}
	if !acquired {
		s.logger.Debug().Str("job", string(job)).Msg("trigger already taken by another instance")
		s.metrics.skipped(job)
		return
	}
	_, _ = s.run(s.ctx, job, s.jobs[job], now)
}

func (s *Scheduler) run(ctx context.Context, job Job, fn JobFunc, now time.Time) (RunStats, error) {
	start := time.Now()
	stats, err := fn(ctx, now)
	elapsed := time.Since(start)

	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
		s.logger.Error().Err(err).Str("job", string(job)).Msg("job failed")
	case stats.Failed > 0:
		outcome = "partial"
	}
	s.metrics.observe(job, outcome, stats, elapsed)
	s.logger.Info().
		Str("job", string(job)).
		Str("outcome", outcome).
		Int("processed", stats.Processed).
		Int("created", stats.Created).
		Int("skipped", stats.Skipped).
		Int("failed", stats.Failed).
		Dur("elapsed", elapsed).
		Msg("job finished")
	return stats, err
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
