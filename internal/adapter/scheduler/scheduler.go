package scheduler

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"coop-ledger/internal/apperr"
	"coop-ledger/internal/infrastructure/lease"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	JobInterest   = "interest-accrual"
	JobPenalty    = "penalty-accrual"
	JobInactivity = "inactivity-scan"
)

// JobFunc runs one batch and returns its summary.
type JobFunc func(ctx context.Context) (any, error)

type job struct {
	name    string
	spec    string
	run     JobFunc
	running atomic.Bool
}

// Scheduler fires registered batch jobs on their cron schedule or on demand.
// A job never overlaps itself: the in-process flag covers this instance and
// the Redis lease covers the others.
type Scheduler struct {
	cron   *cron.Cron
	locker *lease.Locker
	log    *logrus.Logger

	mu   sync.RWMutex
	jobs map[string]*job
	base context.Context
}

func New(locker *lease.Locker, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		locker: locker,
		log:    log,
		jobs:   map[string]*job{},
		base:   context.Background(),
	}
}

// Register adds a job. An empty spec makes it manual-only.
func (s *Scheduler) Register(name, spec string, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.jobs[name]; dup {
		return errors.New("job already registered: " + name)
	}
	j := &job{name: name, spec: spec, run: fn}
	if spec != "" {
		if _, err := s.cron.AddFunc(spec, func() { s.fire(j) }); err != nil {
			return err
		}
	}
	s.jobs[name] = j
	return nil
}

func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.base = ctx
	s.mu.Unlock()
	s.cron.Start()
	s.log.WithField("jobs", s.Names()).Info("scheduler started")
}

// Stop halts the timer and waits for running jobs, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out with jobs still running")
	}
}

func (s *Scheduler) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.jobs))
	for n := range s.jobs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (s *Scheduler) fire(j *job) {
	s.mu.RLock()
	ctx := s.base
	s.mu.RUnlock()
	if _, err := s.execute(ctx, j); err != nil && !apperr.Is(err, apperr.KindInProgress) {
		s.log.WithError(err).WithField("job", j.name).Error("scheduled job failed")
	}
}

// Trigger runs a job now and returns its summary.
func (s *Scheduler) Trigger(ctx context.Context, name string) (any, error) {
	s.mu.RLock()
	j, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "unknown job %s", name)
	}
	return s.execute(ctx, j)
}

func (s *Scheduler) execute(ctx context.Context, j *job) (any, error) {
	if !j.running.CompareAndSwap(false, true) {
		s.log.WithField("job", j.name).Warn("job still running, skipped")
		return nil, apperr.New(apperr.KindInProgress, "job %s is already running", j.name)
	}
	defer j.running.Store(false)

	l, err := s.locker.Acquire(ctx, j.name)
	if errors.Is(err, lease.ErrHeld) {
		s.log.WithField("job", j.name).Warn("job lease held by another instance, skipped")
		return nil, apperr.Wrap(apperr.KindInProgress, err, "job "+j.name+" is running elsewhere")
	}
	if err != nil {
		// lease store unreachable: the in-process flag still prevents overlap here
		s.log.WithError(err).WithField("job", j.name).Warn("job lease unavailable, running on local guard only")
	}
	if l != nil {
		defer func() {
			if err := l.Release(context.Background()); err != nil {
				s.log.WithError(err).WithField("job", j.name).Warn("release job lease")
			}
		}()
	}

	start := time.Now()
	summary, err := j.run(ctx)
	entry := s.log.WithFields(logrus.Fields{"job": j.name, "took": time.Since(start).String(), "summary": summary})
	if err != nil {
		entry.WithError(err).Error("job finished with error")
		return summary, apperr.Ensure(err, "job "+j.name)
	}
	entry.Info("job finished")
	return summary, nil
}
