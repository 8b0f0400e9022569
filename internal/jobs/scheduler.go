package jobs

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Sweeper drops expired entries and reports how many went away. The resource
// caches and the in-memory client-state store both implement it.
type Sweeper interface {
	Sweep() int
}

type sweepTarget struct {
	name    string
	sweeper Sweeper
}

// Scheduler periodically evicts stale cached lists and abandoned client
// state so an idle gateway does not accumulate dead entries. Redis-backed
// state expires by TTL on its own; only in-process stores need sweeping.
type Scheduler struct {
	cron    *cron.Cron
	log     zerolog.Logger
	targets []sweepTarget
}

func NewScheduler(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		log:  log,
	}
}

func (s *Scheduler) Register(name string, sweeper Sweeper) {
	s.targets = append(s.targets, sweepTarget{name: name, sweeper: sweeper})
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 */10 * * * *", s.sweepAll); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the cron loop and waits for a running sweep to finish, up to
// five seconds.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("timed out waiting for running jobs to finish")
	}
}

func (s *Scheduler) sweepAll() {
	for _, target := range s.targets {
		if dropped := target.sweeper.Sweep(); dropped > 0 {
			s.log.Debug().Str("target", target.name).Int("dropped", dropped).Msg("swept stale entries")
		}
	}
}
