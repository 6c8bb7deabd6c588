package scheduler

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Expirer drops conversations idle for longer than ttl and reports how many.
type Expirer interface {
	ExpireIdle(ttl time.Duration) int
}

// Scheduler runs the periodic idle-conversation sweep.
type Scheduler struct {
	cron    *cron.Cron
	expirer Expirer
	ttl     time.Duration
	spec    string
}

func New(expirer Expirer, ttl time.Duration, spec string) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		expirer: expirer,
		ttl:     ttl,
		spec:    spec,
	}
}

// Start registers the sweep. A non-positive ttl leaves the scheduler idle.
func (s *Scheduler) Start() error {
	if s.ttl <= 0 {
		return nil
	}

	if _, err := s.cron.AddFunc(s.spec, s.sweep); err != nil {
		return err
	}

	s.cron.Start()
	slog.Info("scheduler started", "spec", s.spec, "idle_ttl", s.ttl)
	return nil
}

func (s *Scheduler) sweep() {
	if n := s.expirer.ExpireIdle(s.ttl); n > 0 {
		slog.Info("expired idle conversations", "count", n)
	}
}

// Stop waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	slog.Info("scheduler stopped")
}

// IsRunning reports whether the sweep job is registered.
func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
