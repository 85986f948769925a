package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/busticket/busticket_backend/models"
)

func TestScheduler_Lifecycle(t *testing.T) {
	f := newFixture(t, nil)
	s, err := New(DefaultConfig(), f.jobs, nil, nil, zerolog.Nop())
	require.NoError(t, err)

	assert.False(t, s.IsRunning())
	s.Start()
	s.Start()
	assert.True(t, s.IsRunning())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.False(t, s.IsRunning())
	assert.Len(t, s.Jobs(), 4)
}

func TestScheduler_RejectsBadConfig(t *testing.T) {
	f := newFixture(t, nil)

	cfg := DefaultConfig()
	cfg.Timezone = "Nowhere/Special"
	_, err := New(cfg, f.jobs, nil, nil, zerolog.Nop())
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.PromoSpec = "every day"
	_, err = New(cfg, f.jobs, nil, nil, zerolog.Nop())
	assert.Error(t, err)
}

func TestScheduler_RunNow(t *testing.T) {
	f := newFixture(t, nil)
	f.users.Add(models.User{})
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	s, err := New(DefaultConfig(), f.jobs, nil, metrics, zerolog.Nop())
	require.NoError(t, err)

	stats, err := s.RunNow(context.Background(), JobMaintenance)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Created)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.runs.WithLabelValues("maintenance", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.items.WithLabelValues("maintenance", "created")))

	_, err = s.RunNow(context.Background(), Job("reindex"))
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestScheduler_TriggerRespectsLock(t *testing.T) {
	f := newFixture(t, nil)
	f.users.Add(models.User{})
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	metrics := NewMetrics(prometheus.NewRegistry())
	cfg := DefaultConfig()
	s, err := New(cfg, f.jobs, NewRedisLocker(client), metrics, zerolog.Nop())
	require.NoError(t, err)

	s.trigger(JobMaintenance)
	s.trigger(JobMaintenance)

	// Both calls land in the same minute unless the test straddles a boundary.
	created := len(f.notifications.All())
	assert.GreaterOrEqual(t, created, 1)
	if created == 1 {
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.runs.WithLabelValues("maintenance", "locked")))
	}
}

func TestRedisLocker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	locker := NewRedisLocker(client)
	ctx := context.Background()

	trigger := time.Date(2024, 3, 14, 9, 0, 30, 0, time.UTC)
	key := lockKey(JobPromotions, trigger)
	assert.Equal(t, "scheduler:promotions:202403140900", key)

	ok, err := locker.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = locker.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, err = locker.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocalLocker(t *testing.T) {
	ok, err := LocalLocker{}.Acquire(context.Background(), "k", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}
