package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/busticket/busticket_backend/models"
)

// Sender delivers a persisted notification over one external channel.
type Sender interface {
	Channel() models.Channel
	Send(ctx context.Context, user *models.User, n *models.Notification) error
}

// Dispatcher gates external delivery on the recipient's preferences. In-app
// records are already stored by the time it runs and are never affected.
type Dispatcher struct {
	prefs   PreferencesStore
	users   UserDirectory
	senders []Sender
	metrics *DispatchMetrics
	logger  zerolog.Logger
	now     func() time.Time
}

// NewDispatcher builds a dispatcher. metrics may be nil; nil senders are skipped.
func NewDispatcher(prefs PreferencesStore, users UserDirectory, metrics *DispatchMetrics, logger zerolog.Logger, senders ...Sender) *Dispatcher {
	d := &Dispatcher{
		prefs:   prefs,
		users:   users,
		metrics: metrics,
		logger:  logger.With().Str("component", "dispatcher").Logger(),
		now:     time.Now,
	}
	for _, s := range senders {
		if s != nil {
			d.senders = append(d.senders, s)
		}
	}
	return d
}

// Dispatch sends n on every channel the user allows right now and returns
// the channels it was delivered on. Errors are logged, not returned.
func (d *Dispatcher) Dispatch(ctx context.Context, n *models.Notification) []models.Channel {
	if len(d.senders) == 0 {
		return nil
	}
	log := d.logger.With().
		Str("user", n.UserID.Hex()).
		Str("notification", n.ID.Hex()).
		Logger()

	prefs, err := d.prefs.GetOrCreate(ctx, n.UserID)
	if err != nil {
		log.Error().Err(err).Msg("failed to load preferences")
		return nil
	}

	if prefs.Frequency != models.FrequencyImmediate {
		log.Debug().Str("frequency", string(prefs.Frequency)).Msg("non-immediate frequency, external delivery skipped")
		d.metrics.skipped("frequency")
		return nil
	}
	if n.Priority != models.PriorityHigh && prefs.QuietHours.Active(d.now().In(prefs.Location())) {
		log.Debug().Msg("quiet hours, external delivery skipped")
		d.metrics.skipped("quiet_hours")
		return nil
	}

	var user *models.User
	var delivered []models.Channel
	for _, s := range d.senders {
		ch := s.Channel()
		settings := prefs.Notifications.Channel(ch)
		if settings == nil || !settings.Allows(n.Type) {
			d.metrics.skipped("disabled")
			continue
		}
		if user == nil {
			if user, err = d.users.FindByID(ctx, n.UserID); err != nil {
				log.Error().Err(err).Msg("failed to load recipient")
				return delivered
			}
		}
		if err := s.Send(ctx, user, n); err != nil {
			log.Warn().Err(err).Str("channel", string(ch)).Msg("delivery failed")
			d.metrics.sent(ch, "error")
			continue
		}
		d.metrics.sent(ch, "ok")
		delivered = append(delivered, ch)
	}
	return delivered
}
