package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/busticket/busticket_backend/models"
	"github.com/busticket/busticket_backend/services"
)

// RunStats summarises one job run.
type RunStats struct {
	Processed int `json:"processed"`
	Created   int `json:"created"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

func (s *RunStats) add(o RunStats) {
	s.Processed += o.Processed
	s.Created += o.Created
	s.Skipped += o.Skipped
	s.Failed += o.Failed
}

// JobFunc is a job body. now is the trigger time.
type JobFunc func(ctx context.Context, now time.Time) (RunStats, error)

// Jobs holds the notification jobs. Every job is a plain function of the
// trigger time so it can be run by cron, by an admin or by a test.
type Jobs struct {
	notifications *services.NotificationService
	bookings      services.BookingStore
	users         services.UserDirectory
	location      *time.Location
	workers       int
	logger        zerolog.Logger
}

func NewJobs(notifications *services.NotificationService, bookings services.BookingStore, users services.UserDirectory, location *time.Location, workers int, logger zerolog.Logger) *Jobs {
	if workers < 1 {
		workers = 1
	}
	if location == nil {
		location = time.UTC
	}
	return &Jobs{
		notifications: notifications,
		bookings:      bookings,
		users:         users,
		location:      location,
		workers:       workers,
		logger:        logger,
	}
}

// JourneyReminders creates one reminder per confirmed booking whose journey is
// tomorrow, skipping bookings that already have one.
func (j *Jobs) JourneyReminders(ctx context.Context, now time.Time) (RunStats, error) {
	tomorrow := now.In(j.location).AddDate(0, 0, 1).Format(models.JourneyDateLayout)
	upcoming, err := j.bookings.ConfirmedForDate(ctx, tomorrow)
	if err != nil {
		return RunStats{}, fmt.Errorf("load bookings for %s: %w", tomorrow, err)
	}

	log := j.logger.With().Str("job", string(JobJourneyReminders)).Str("journeyDate", tomorrow).Logger()
	stats := j.each(ctx, len(upcoming), func(ctx context.Context, i int) RunStats {
		ub := upcoming[i]
		exists, err := j.notifications.ReminderExists(ctx, ub.UserID, ub.ID, ub.Bus.JourneyDate)
		if err != nil {
			log.Error().Err(err).Str("booking", ub.ID.Hex()).Msg("reminder lookup failed")
			return RunStats{Failed: 1}
		}
		if exists {
			return RunStats{Skipped: 1}
		}
		_, created, err := j.notifications.CreateJourneyReminder(ctx, ub, j.location)
		if err != nil {
			log.Error().Err(err).Str("booking", ub.ID.Hex()).Msg("failed to create journey reminder")
			return RunStats{Failed: 1}
		}
		if !created {
			// Another run got there between the lookup and the insert.
			return RunStats{Skipped: 1}
		}
		return RunStats{Created: 1}
	})
	log.Info().Int("bookings", len(upcoming)).Int("created", stats.Created).Msg("processed journey reminders")
	return stats, nil
}

// Promotions sends every user one promotional message. The message rotates
// with the day of year and the user's position so neighbours differ.
func (j *Jobs) Promotions(ctx context.Context, now time.Time) (RunStats, error) {
	ids, err := j.users.ListUserIDs(ctx)
	if err != nil {
		return RunStats{}, fmt.Errorf("list users: %w", err)
	}

	day := now.In(j.location).YearDay()
	log := j.logger.With().Str("job", string(JobPromotions)).Logger()
	stats := j.each(ctx, len(ids), func(ctx context.Context, i int) RunStats {
		promo := services.Promotions[(day+i)%len(services.Promotions)]
		if _, err := j.notifications.CreatePromo(ctx, ids[i], promo); err != nil {
			log.Error().Err(err).Str("user", ids[i].Hex()).Msg("failed to create promo notification")
			return RunStats{Failed: 1}
		}
		return RunStats{Created: 1}
	})
	log.Info().Int("users", len(ids)).Int("created", stats.Created).Msg("sent promotional notifications")
	return stats, nil
}

// Maintenance sends every user the weekly maintenance notice.
func (j *Jobs) Maintenance(ctx context.Context, _ time.Time) (RunStats, error) {
	ids, err := j.users.ListUserIDs(ctx)
	if err != nil {
		return RunStats{}, fmt.Errorf("list users: %w", err)
	}

	log := j.logger.With().Str("job", string(JobMaintenance)).Logger()
	stats := j.each(ctx, len(ids), func(ctx context.Context, i int) RunStats {
		return j.perUser(ctx, log, ids[i])
	})
	log.Info().Int("users", len(ids)).Int("created", stats.Created).Msg("sent maintenance notifications")
	return stats, nil
}

func (j *Jobs) perUser(ctx context.Context, log zerolog.Logger, userID primitive.ObjectID) RunStats {
	if _, err := j.notifications.CreateMaintenance(ctx, userID); err != nil {
		log.Error().Err(err).Str("user", userID.Hex()).Msg("failed to create maintenance notification")
		return RunStats{Failed: 1}
	}
	return RunStats{Created: 1}
}

// ExpirySweep deletes notifications whose expiresAt has passed.
func (j *Jobs) ExpirySweep(ctx context.Context, now time.Time) (RunStats, error) {
	deleted, err := j.notifications.DeleteExpired(ctx, now)
	if err != nil {
		return RunStats{}, err
	}
	if deleted > 0 {
		j.logger.Debug().Str("job", string(JobExpirySweep)).Int64("deleted", deleted).Msg("expired notifications removed")
	}
	return RunStats{Processed: int(deleted)}, nil
}

// each runs fn for every index on a bounded pool. fn reports its own outcome,
// so one failing item never stops the others.
func (j *Jobs) each(ctx context.Context, n int, fn func(ctx context.Context, i int) RunStats) RunStats {
	var (
		mu    sync.Mutex
		total RunStats
		g     errgroup.Group
	)
	g.SetLimit(j.workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			res := fn(ctx, i)
			res.Processed = 1
			mu.Lock()
			total.add(res)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return total
}
