package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/timetable"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

type eventSource interface {
	ListPeriodic(ctx context.Context, level string) ([]models.PeriodicEvent, error)
	ListPeriodicForWeek(ctx context.Context, level string, week int) ([]models.PeriodicEvent, error)
	ListBase(ctx context.Context, level string) ([]models.BaseEvent, error)
	ListBaseBetween(ctx context.Context, level string, from, to time.Time) ([]models.BaseEvent, error)
}

type colleSource interface {
	ListByLevel(ctx context.Context, level string) ([]models.CollePlanning, error)
	ListForWeek(ctx context.Context, level string, week int) ([]models.CollePlanning, error)
}

type weekSource interface {
	List(ctx context.Context) ([]models.Week, error)
	FindByNumber(ctx context.Context, number int) (*models.Week, error)
}

type attendanceExpander interface {
	Expand(ctx context.Context, raw, level string) (timetable.AttendeeSet, error)
}

// TimetableConfig tunes the timetable service.
type TimetableConfig struct {
	DefaultLevel string
	DisplayDays  int
	CacheTTL     time.Duration
	Location     *time.Location
}

// TimetableService loads stored entities, validates them and builds layouts.
type TimetableService struct {
	events     eventSource
	colles     colleSource
	weeks      weekSource
	attendance attendanceExpander
	cache      *CacheService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        TimetableConfig
	now        func() time.Time
}

// NewTimetableService constructs the service.
func NewTimetableService(events eventSource, colles colleSource, weeks weekSource, attendance attendanceExpander, cache *CacheService, metrics *MetricsService, cfg TimetableConfig, logger *zap.Logger) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.DisplayDays <= 0 || cfg.DisplayDays > timetable.DaysPerWeek {
		cfg.DisplayDays = 6
	}
	return &TimetableService{
		events:     events,
		colles:     colles,
		weeks:      weeks,
		attendance: attendance,
		cache:      cache,
		metrics:    metrics,
		validator:  validator.New(),
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

type entitySet struct {
	recurring   []*timetable.Recurring
	occurrences []*timetable.WeeklyOccurrence
	punctuals   []*timetable.Punctual
}

func (s *TimetableService) loadAll(ctx context.Context, level string) (*entitySet, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveDBQuery("load_entities", time.Since(start)) }()

	weeks, err := s.weeks.List(ctx)
	if err != nil {
		return nil, internal(err, "failed to load weeks")
	}
	periodic, err := s.events.ListPeriodic(ctx, level)
	if err != nil {
		return nil, internal(err, "failed to load periodic events")
	}
	plannings, err := s.colles.ListByLevel(ctx, level)
	if err != nil {
		return nil, internal(err, "failed to load colle plannings")
	}
	base, err := s.events.ListBase(ctx, level)
	if err != nil {
		return nil, internal(err, "failed to load events")
	}

	set := &entitySet{}
	if set.recurring, err = s.recurringOf(ctx, level, periodic); err != nil {
		return nil, err
	}
	for _, p := range plannings {
		set.occurrences = append(set.occurrences, toOccurrence(p, s.cfg.Location))
	}
	index := newWeekIndex(weeks, s.cfg.Location)
	for _, ev := range base {
		att, err := s.attendance.Expand(ctx, ev.Attendance, level)
		if err != nil {
			return nil, err
		}
		set.punctuals = append(set.punctuals, toPunctual(ev, att, index.forEvent(ev, s.cfg.Location), s.cfg.Location))
	}
	return set, nil
}

func (s *TimetableService) recurringOf(ctx context.Context, level string, events []models.PeriodicEvent) ([]*timetable.Recurring, error) {
	out := make([]*timetable.Recurring, 0, len(events))
	for _, ev := range events {
		att, err := s.attendance.Expand(ctx, ev.Attendance, level)
		if err != nil {
			return nil, err
		}
		out = append(out, toRecurring(ev, att))
	}
	return out, nil
}

// Validate checks every stored entity of level for double bookings.
func (s *TimetableService) Validate(ctx context.Context, level string) (*dto.ValidationReport, error) {
	level = levelOrDefault(level, s.cfg.DefaultLevel)
	start := time.Now()
	set, err := s.loadAll(ctx, level)
	if err != nil {
		return nil, err
	}

	report := timetable.Validate(set.recurring, set.occurrences, set.punctuals)
	s.metrics.RecordValidation(level, len(report.Conflicts), time.Since(start))
	s.logger.Info("timetable validated",
		zap.String("level", level),
		zap.Bool("consistent", report.Consistent),
		zap.Int("conflicts", len(report.Conflicts)),
		zap.Int("entities", len(set.recurring)+len(set.occurrences)+len(set.punctuals)))

	return &dto.ValidationReport{
		ID:          uuid.NewString(),
		Level:       level,
		Consistent:  report.Consistent,
		Conflicts:   toConflicts(report.Conflicts),
		GeneratedAt: s.now().UTC(),
	}, nil
}

// Check tests a candidate recurring event against every stored entity and
// reports all conflicts, not only the first one.
func (s *TimetableService) Check(ctx context.Context, req dto.CheckRequest) (*dto.CheckResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid check payload")
	}
	slot, err := parseSlot(req.Day, req.Begin, req.End)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	level := levelOrDefault(req.Level, s.cfg.DefaultLevel)
	att, err := s.attendance.Expand(ctx, req.Attendance, level)
	if err != nil {
		return nil, err
	}
	candidate := &timetable.Recurring{
		ID:          req.ID,
		Day:         slot.Day,
		Begin:       slot.Begin,
		End:         slot.End,
		BegWeek:     req.BegWeek,
		EndWeek:     req.EndWeek,
		Periodicity: req.Periodicity,
		Label:       req.Label,
		Subject:     req.Subject,
		Attendees:   att,
	}

	set, err := s.loadAll(ctx, level)
	if err != nil {
		return nil, err
	}
	return s.against(set, candidate, nil), nil
}

// CheckAttendance tests a new attendance for the stored recurring event id
// without modifying it.
func (s *TimetableService) CheckAttendance(ctx context.Context, level string, id int64, attendance string) (*dto.CheckResponse, error) {
	level = levelOrDefault(level, s.cfg.DefaultLevel)
	att, err := s.attendance.Expand(ctx, attendance, level)
	if err != nil {
		return nil, err
	}
	set, err := s.loadAll(ctx, level)
	if err != nil {
		return nil, err
	}
	for _, r := range set.recurring {
		if r.ID == id {
			return s.against(set, r, att), nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "recurring event not found")
}

func (s *TimetableService) against(set *entitySet, candidate *timetable.Recurring, att timetable.AttendeeSet) *dto.CheckResponse {
	var found []timetable.Compatibility
	collect := func(stored timetable.Entity) {
		if c := timetable.CheckWith(stored, candidate, att); !c.Compatible {
			found = append(found, c)
		}
	}
	for _, r := range set.recurring {
		collect(r)
	}
	for _, o := range set.occurrences {
		collect(o)
	}
	for _, p := range set.punctuals {
		collect(p)
	}
	return &dto.CheckResponse{Compatible: len(found) == 0, Conflicts: toConflicts(found)}
}

// Week renders the numbered week of level. The bool reports a cache hit.
func (s *TimetableService) Week(ctx context.Context, level string, number int) (*dto.WeekTimetable, bool, error) {
	level = levelOrDefault(level, s.cfg.DefaultLevel)
	key := WeekKey(level, number)

	var cached dto.WeekTimetable
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		cached.CurrentDay = s.currentDay(cached.Week, cached.Begin, cached.End)
		return &cached, true, nil
	}

	row, err := s.weeks.FindByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "week not found")
		}
		return nil, false, internal(err, "failed to load week")
	}
	week := toWeek(*row, s.cfg.Location)

	periodic, err := s.events.ListPeriodicForWeek(ctx, level, number)
	if err != nil {
		return nil, false, internal(err, "failed to load periodic events")
	}
	plannings, err := s.colles.ListForWeek(ctx, level, number)
	if err != nil {
		return nil, false, internal(err, "failed to load colle plannings")
	}
	base, err := s.events.ListBaseBetween(ctx, level, week.Begin, week.End.AddDate(0, 0, 1))
	if err != nil {
		return nil, false, internal(err, "failed to load events")
	}

	recurring, err := s.recurringOf(ctx, level, periodic)
	if err != nil {
		return nil, false, err
	}
	layout := timetable.NewDisplayTimetable()
	for _, r := range recurring {
		if err := layout.AddRecurring(r); err != nil {
			return nil, false, internal(err, "invalid periodic event")
		}
	}
	for _, p := range plannings {
		if err := layout.AddOccurrence(toOccurrence(p, s.cfg.Location)); err != nil {
			return nil, false, internal(err, "invalid colle planning")
		}
	}
	for _, ev := range base {
		att, err := s.attendance.Expand(ctx, ev.Attendance, level)
		if err != nil {
			return nil, false, err
		}
		if err := layout.AddPunctual(toPunctual(ev, att, &week, s.cfg.Location)); err != nil {
			return nil, false, internal(err, "invalid event")
		}
	}
	s.metrics.RecordLayoutBuild("week")

	out := &dto.WeekTimetable{
		Level: level,
		Week:  week.Number,
		Label: week.Label,
		Begin: week.Begin,
		End:   week.End,
		Hours: hourLabels(),
	}
	for _, day := range layout.Days()[:s.cfg.DisplayDays] {
		out.Days = append(out.Days, dto.DayColumn{
			Day:   int(day.Day),
			Name:  day.Day.String(),
			Date:  week.DayDate(day.Day),
			Spans: day.Spans(),
		})
	}
	_ = s.cache.Set(ctx, key, out, s.cfg.CacheTTL)

	out.CurrentDay = s.currentDay(out.Week, out.Begin, out.End)
	return out, false, nil
}

func (s *TimetableService) currentDay(number int, begin, end time.Time) int {
	week := timetable.Week{Number: number, Begin: begin.In(s.cfg.Location), End: end.In(s.cfg.Location)}
	return timetable.CurrentDay(s.now().In(s.cfg.Location), week)
}

// PeriodicGrid merges every recurring event of level into grid blocks.
func (s *TimetableService) PeriodicGrid(ctx context.Context, level string) (*dto.PeriodicGrid, bool, error) {
	level = levelOrDefault(level, s.cfg.DefaultLevel)
	key := PeriodicKey(level)

	var cached dto.PeriodicGrid
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	periodic, err := s.events.ListPeriodic(ctx, level)
	if err != nil {
		return nil, false, internal(err, "failed to load periodic events")
	}
	recurring, err := s.recurringOf(ctx, level, periodic)
	if err != nil {
		return nil, false, err
	}
	construction := timetable.NewPeriodicConstruction()
	for _, r := range recurring {
		if err := construction.AddRecurring(r); err != nil {
			return nil, false, internal(err, "invalid periodic event")
		}
	}
	construction.UpdateOverlaps()
	s.metrics.RecordLayoutBuild("periodic")

	grid := &dto.PeriodicGrid{Level: level, Hours: hourLabels()}
	for _, day := range construction.Days()[:s.cfg.DisplayDays] {
		column := dto.PeriodicDay{Day: int(day.Day), Name: day.Day.String()}
		for _, span := range day.Spans() {
			column.Blocks = append(column.Blocks, dto.PeriodicBlock{MergeableSpan: *span, Rotations: span.Attendances()})
		}
		grid.Days = append(grid.Days, column)
	}
	_ = s.cache.Set(ctx, key, grid, s.cfg.CacheTTL)
	return grid, false, nil
}

func internal(err error, msg string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, msg)
}
