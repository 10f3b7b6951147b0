package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/efisher/tiktrends/internal/domain/model"
)

// Scheduler fires scheduled collection runs from a standard 5-field cron
// expression interpreted in UTC. Ticks missed while the process is down are
// skipped, not queued.
type Scheduler struct {
	schedule cron.Schedule
	spec     string
	svc      *CollectService
}

// NewScheduler parses the cron expression and returns a Scheduler driving the
// given service.
func NewScheduler(spec string, svc *CollectService) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}

	return &Scheduler{
		schedule: schedule,
		spec:     spec,
		svc:      svc,
	}, nil
}

// NextActivation returns the first activation strictly after from, in UTC.
func (s *Scheduler) NextActivation(from time.Time) time.Time {
	return s.schedule.Next(from.UTC())
}

// Start blocks until the context is canceled, triggering a run at each
// schedule activation. Triggers serialize through the collect loop, so a tick
// that fires while a run is still executing waits for it instead of starting
// a second run.
func (s *Scheduler) Start(ctx context.Context) {
	for {
		next := s.NextActivation(time.Now())
		slog.Info("next scheduled run", "schedule", s.spec, "at", next)

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			slog.Info("scheduler stopped")
			return
		case <-timer.C:
		}

		runID, err := s.svc.TriggerRun(ctx, model.TriggerScheduled)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("scheduled trigger failed", "error", err)
			continue
		}
		slog.Info("scheduled run triggered", "run_id", runID)
	}
}
