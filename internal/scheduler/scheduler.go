// Package scheduler refreshes event predictions on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/fantasy-grid/internal/config"
	"github.com/yourusername/fantasy-grid/internal/logger"
	"github.com/yourusername/fantasy-grid/internal/metrics"
	"github.com/yourusername/fantasy-grid/internal/models"
	"github.com/yourusername/fantasy-grid/internal/montecarlo"
	"github.com/yourusername/fantasy-grid/internal/service"
)

// Predictor runs a prediction batch
type Predictor interface {
	Predict(ctx context.Context, req service.PredictionRequest, opts ...montecarlo.Option) (*models.Prediction, error)
}

// Scheduler manages scheduled prediction refresh jobs
type Scheduler struct {
	cron       *cron.Cron
	predictor  Predictor
	logger     *logrus.Logger
	audit      *logger.AuditLogger
	mu         sync.RWMutex
	isRunning  bool
	jobs       map[string]cron.EntryID
	jobTimeout time.Duration
}

// NewScheduler creates a new scheduler. Overlapping runs of the same job are skipped.
func NewScheduler(predictor Predictor, log *logrus.Logger, jobTimeout time.Duration) *Scheduler {
	if jobTimeout <= 0 {
		jobTimeout = 10 * time.Minute
	}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(log))),
		),
		predictor:  predictor,
		logger:     log,
		audit:      logger.NewAuditLogger(log),
		jobs:       make(map[string]cron.EntryID),
		jobTimeout: jobTimeout,
	}
}

// ScheduleEvent registers a refresh job for an event with a schedule
func (s *Scheduler) ScheduleEvent(event config.EventConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}
	if event.Schedule == "" {
		return fmt.Errorf("event %q has no schedule", event.Name)
	}
	if _, exists := s.jobs[event.Name]; exists {
		return fmt.Errorf("event %q is already scheduled", event.Name)
	}

	req := service.RequestFromEvent(event)
	entryID, err := s.cron.AddFunc(event.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()
		_ = s.run(ctx, req, event.Schedule)
	})
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobs[event.Name] = entryID
	s.logger.WithFields(logrus.Fields{
		"event":    event.Name,
		"schedule": event.Schedule,
	}).Info("Scheduled prediction refresh")

	return nil
}

// ScheduleEvents registers every event that carries a schedule and returns
// how many were added.
func (s *Scheduler) ScheduleEvents(events []config.EventConfig) (int, error) {
	added := 0
	for _, e := range events {
		if e.Schedule == "" {
			continue
		}
		if err := s.ScheduleEvent(e); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

// RunEvent runs a configured event once, outside the schedule
func (s *Scheduler) RunEvent(ctx context.Context, event config.EventConfig) error {
	return s.run(ctx, service.RequestFromEvent(event), "manual")
}

func (s *Scheduler) run(ctx context.Context, req service.PredictionRequest, schedule string) error {
	start := time.Now()
	prediction, err := s.predictor.Predict(ctx, req)
	if err != nil {
		metrics.RecordScheduledRun(req.Event, metrics.StatusFailure)
		s.audit.LogScheduledRun(req.Event, schedule, false)
		s.logger.WithError(err).WithField("event", req.Event).Error("Scheduled prediction failed")
		return err
	}

	metrics.RecordScheduledRun(req.Event, metrics.StatusSuccess)
	s.audit.LogScheduledRun(req.Event, schedule, true)

	fields := logrus.Fields{
		"event":    req.Event,
		"duration": time.Since(start).String(),
	}
	if fav := prediction.Favourite(); fav != nil {
		fields["favourite"] = fav.Driver
		fields["win_probability"] = fav.WinProbability.String()
	}
	s.logger.WithFields(fields).Info("Scheduled prediction completed")
	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobs)).Info("Scheduler started")

	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	<-s.cron.Stop().Done()
	s.isRunning = false
	s.logger.Info("Scheduler stopped")
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, id := range s.jobs {
		entry := s.cron.Entry(id)
		if entry.Valid() && (nextRun.IsZero() || entry.Next.Before(nextRun)) {
			nextRun = entry.Next
		}
	}
	return nextRun
}

// Events returns the names of scheduled events
func (s *Scheduler) Events() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	return names
}

// RemoveEvent removes a scheduled event
func (s *Scheduler) RemoveEvent(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot remove job while scheduler is running")
	}
	id, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrUnknownEvent, name)
	}

	s.cron.Remove(id)
	delete(s.jobs, name)
	s.logger.WithField("event", name).Info("Removed scheduled event")
	return nil
}
