// Package sweep runs the periodic background jobs: due-reminder delivery
// and proactive follow-up nudges for stale deals.
package sweep

import (
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Scheduler is a thin wrapper over cron that logs registered jobs.
type Scheduler struct {
	cron *cron.Cron
}

func NewScheduler() *Scheduler {
	return &Scheduler{cron: cron.New()}
}

// Add registers a job under a standard five-field cron spec.
func (s *Scheduler) Add(spec string, job func()) error {
	if _, err := s.cron.AddFunc(spec, job); err != nil {
		return err
	}
	log.Info().Str("spec", spec).Msg("scheduled job registered")
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().Msg("scheduler started")
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Info().Msg("scheduler stopped")
}
