package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"coop-ledger/internal/apperr"
	"coop-ledger/internal/infrastructure/lease"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScheduler(t *testing.T) (*Scheduler, *lease.Locker) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	locker := lease.NewLocker(rdb, time.Minute)
	log, _ := test.NewNullLogger()
	return New(locker, log), locker
}

type summary struct{ Posted int }

func TestTrigger_ReturnsSummary(t *testing.T) {
	s, _ := newScheduler(t)
	require.NoError(t, s.Register(JobPenalty, "0 2 * * *", func(context.Context) (any, error) {
		return &summary{Posted: 3}, nil
	}))

	out, err := s.Trigger(context.Background(), JobPenalty)
	require.NoError(t, err)
	assert.Equal(t, 3, out.(*summary).Posted)

	// lease is released so the next run goes through
	_, err = s.Trigger(context.Background(), JobPenalty)
	require.NoError(t, err)
}

func TestTrigger_UnknownAndDuplicate(t *testing.T) {
	s, _ := newScheduler(t)
	_, err := s.Trigger(context.Background(), "nope")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	fn := func(context.Context) (any, error) { return nil, nil }
	require.NoError(t, s.Register(JobInterest, "", fn))
	assert.Error(t, s.Register(JobInterest, "", fn))
	assert.Error(t, s.Register("bad-spec", "not a cron", fn))
	assert.Equal(t, []string{JobInterest}, s.Names())
}

func TestTrigger_SkipsOverlappingRun(t *testing.T) {
	s, _ := newScheduler(t)
	started := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, s.Register(JobInactivity, "", func(context.Context) (any, error) {
		close(started)
		<-release
		return "done", nil
	}))

	done := make(chan error, 1)
	go func() {
		_, err := s.Trigger(context.Background(), JobInactivity)
		done <- err
	}()
	<-started

	_, err := s.Trigger(context.Background(), JobInactivity)
	assert.Equal(t, apperr.KindInProgress, apperr.KindOf(err))

	close(release)
	require.NoError(t, <-done)
}

func TestTrigger_SkipsWhenLeaseHeldElsewhere(t *testing.T) {
	s, locker := newScheduler(t)
	ran := false
	require.NoError(t, s.Register(JobInterest, "", func(context.Context) (any, error) {
		ran = true
		return nil, nil
	}))

	other, err := locker.Acquire(context.Background(), JobInterest)
	require.NoError(t, err)

	_, err = s.Trigger(context.Background(), JobInterest)
	assert.Equal(t, apperr.KindInProgress, apperr.KindOf(err))
	assert.True(t, errors.Is(err, lease.ErrHeld))
	assert.False(t, ran)

	require.NoError(t, other.Release(context.Background()))
	_, err = s.Trigger(context.Background(), JobInterest)
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestTrigger_RunsWhenLeaseStoreIsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	log, hook := test.NewNullLogger()
	s := New(lease.NewLocker(rdb, time.Minute), log)

	runs := 0
	require.NoError(t, s.Register(JobInterest, "", func(context.Context) (any, error) {
		runs++
		return &summary{Posted: 1}, nil
	}))
	mr.Close()

	out, err := s.Trigger(context.Background(), JobInterest)
	require.NoError(t, err)
	assert.Equal(t, 1, out.(*summary).Posted)
	assert.Equal(t, 1, runs)

	warned := false
	for _, e := range hook.AllEntries() {
		if e.Message == "job lease unavailable, running on local guard only" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestTrigger_JobError(t *testing.T) {
	s, _ := newScheduler(t)
	require.NoError(t, s.Register(JobPenalty, "", func(context.Context) (any, error) {
		return nil, errors.New("db down")
	}))
	_, err := s.Trigger(context.Background(), JobPenalty)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}

func TestStartStop(t *testing.T) {
	s, _ := newScheduler(t)
	require.NoError(t, s.Register(JobPenalty, "@every 1h", func(context.Context) (any, error) { return nil, nil }))
	s.Start(context.Background())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
