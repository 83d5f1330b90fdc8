package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/repository"
	"github.com/noah-isme/sma-timetable/internal/timetable"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/jobs"
)

type rosterLoader interface {
	Load(ctx context.Context) (*repository.Roster, error)
}

type revalidationRequester interface {
	EnqueueAll(ctx context.Context, trigger models.JobTrigger, actorID string) error
}

type layoutInvalidator interface {
	InvalidateLayouts(ctx context.Context) error
}

// AttendanceService owns the process-wide attendance resolver. The roster is
// read lazily on first use and kept until Invalidate is called.
type AttendanceService struct {
	mu           sync.RWMutex
	resolver     *timetable.Resolver
	roster       rosterLoader
	layouts      layoutInvalidator
	revalidation revalidationRequester
	metrics      *MetricsService
	defaultLevel string
	logger       *zap.Logger
}

// NewAttendanceService constructs the service. layouts and revalidation may be nil.
func NewAttendanceService(roster rosterLoader, layouts layoutInvalidator, metrics *MetricsService, defaultLevel string, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		resolver:     timetable.NewResolver(),
		roster:       roster,
		layouts:      layouts,
		metrics:      metrics,
		defaultLevel: defaultLevel,
		logger:       logger,
	}
}

// SetRevalidation wires the job service notified after each invalidation.
// It is set after construction because the job service depends on this one.
func (s *AttendanceService) SetRevalidation(r revalidationRequester) {
	s.mu.Lock()
	s.revalidation = r
	s.mu.Unlock()
}

// Resolve converts attendance tokens to user ids of level.
func (s *AttendanceService) Resolve(ctx context.Context, tokens []string, addTeachers bool, level string) ([]string, error) {
	var ids []string
	err := s.withResolver(ctx, func(r *timetable.Resolver) error {
		var err error
		ids, err = r.Resolve(tokens, addTeachers, level)
		return err
	})
	if err != nil {
		return nil, translateAttendanceError(err)
	}
	return ids, nil
}

// Expand turns a stored attendance string into its attendee set, expanding
// "all" into the groups of level.
func (s *AttendanceService) Expand(ctx context.Context, raw, level string) (timetable.AttendeeSet, error) {
	var expanded string
	err := s.withResolver(ctx, func(r *timetable.Resolver) error {
		var err error
		expanded, err = r.AttendanceString(raw, level)
		return err
	})
	if err != nil {
		return nil, translateAttendanceError(err)
	}
	return timetable.ResolveAttendance(expanded), nil
}

// Format normalises an attendance string into its compact form.
func (s *AttendanceService) Format(ctx context.Context, raw, level string) (*dto.FormatAttendanceResponse, error) {
	set, err := s.Expand(ctx, raw, level)
	if err != nil {
		return nil, err
	}
	return &dto.FormatAttendanceResponse{
		Attendance: timetable.FormatAttendance(set),
		Groups:     set.Groups(),
		Names:      set.Names(),
	}, nil
}

// Invalidate drops the cached roster index after a membership change, clears
// cached layouts and asks for the timetable to be checked again.
func (s *AttendanceService) Invalidate(ctx context.Context, actorID string) error {
	s.mu.Lock()
	s.resolver.Invalidate()
	revalidation := s.revalidation
	s.mu.Unlock()
	s.logger.Info("attendance roster invalidated", zap.String("actor", actorID))

	if s.layouts != nil {
		if err := s.layouts.InvalidateLayouts(ctx); err != nil {
			s.logger.Warn("failed to drop cached layouts", zap.Error(err))
		}
	}
	if revalidation != nil {
		err := revalidation.EnqueueAll(ctx, models.TriggerRoster, actorID)
		if errors.Is(err, jobs.ErrQueueFull) {
			s.logger.Warn("revalidation skipped, queue full", zap.String("actor", actorID))
			return nil
		}
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule revalidation")
		}
	}
	return nil
}

func (s *AttendanceService) withResolver(ctx context.Context, fn func(r *timetable.Resolver) error) error {
	s.mu.RLock()
	if s.resolver.Loaded() {
		defer s.mu.RUnlock()
		return fn(s.resolver)
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.resolver.Loaded() {
		if err := s.load(ctx); err != nil {
			return err
		}
	}
	return fn(s.resolver)
}

func (s *AttendanceService) load(ctx context.Context) error {
	roster, err := s.roster.Load(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance roster")
	}
	snapshot := timetable.Roster{DefaultLevel: s.defaultLevel}
	for _, m := range roster.Members {
		snapshot.Members = append(snapshot.Members, timetable.Member{UserID: m.UserID, Level: m.Level, Group: m.GroupNumber})
	}
	for _, t := range roster.Teachers {
		snapshot.Teachers = append(snapshot.Teachers, timetable.Teacher{UserID: t.UserID, DisplayName: t.DisplayName})
	}
	for _, g := range roster.Groups {
		snapshot.Groups = append(snapshot.Groups, timetable.GroupRef{Level: g.Level, Number: g.Number})
	}
	s.resolver.Load(snapshot)
	s.metrics.RecordResolverReload()
	s.logger.Debug("attendance roster loaded",
		zap.Int("members", len(snapshot.Members)),
		zap.Int("teachers", len(snapshot.Teachers)),
		zap.Int("groups", len(snapshot.Groups)))
	return nil
}

func translateAttendanceError(err error) error {
	var unknown *timetable.UnknownAttendeeError
	if errors.As(err, &unknown) {
		return appErrors.Wrap(err, appErrors.ErrUnknownAttendee.Code, appErrors.ErrUnknownAttendee.Status, unknown.Error())
	}
	return err
}
