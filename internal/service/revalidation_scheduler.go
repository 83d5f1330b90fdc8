package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// SystemActor is recorded as the creator of scheduled jobs.
const SystemActor = "system"

// RevalidationScheduler enqueues a validation job per level on a cron schedule.
type RevalidationScheduler struct {
	cron      *cron.Cron
	requester revalidationRequester
	logger    *zap.Logger
	timeout   time.Duration
}

// NewRevalidationScheduler parses spec (standard five-field cron syntax) in loc.
func NewRevalidationScheduler(spec string, loc *time.Location, requester revalidationRequester, logger *zap.Logger) (*RevalidationScheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	s := &RevalidationScheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		requester: requester,
		logger:    logger,
		timeout:   time.Minute,
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("parse revalidation schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start runs the schedule in its own goroutine.
func (s *RevalidationScheduler) Start() {
	s.cron.Start()
	if entries := s.cron.Entries(); len(entries) > 0 {
		s.logger.Info("revalidation scheduler started", zap.Time("next_run", entries[0].Next))
	}
}

// Stop prevents new runs and returns a context done when running ones finish.
func (s *RevalidationScheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *RevalidationScheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.requester.EnqueueAll(ctx, models.TriggerSchedule, SystemActor); err != nil {
		s.logger.Error("scheduled revalidation failed", zap.Error(err))
	}
}
