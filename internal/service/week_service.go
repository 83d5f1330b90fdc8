package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/timetable"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

type weekStore interface {
	List(ctx context.Context) ([]models.Week, error)
	FindByNumber(ctx context.Context, number int) (*models.Week, error)
	FindByDate(ctx context.Context, date time.Time) (*models.Week, error)
	ReplaceAll(ctx context.Context, weeks []models.Week) error
}

// WeekConfig locates the default holiday calendar.
type WeekConfig struct {
	HolidaysICS string
	Location    *time.Location
}

// WeekService generates the academic-year calendar.
type WeekService struct {
	weeks     weekStore
	layouts   layoutInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	cfg       WeekConfig
	now       func() time.Time
	readFile  func(string) ([]byte, error)
}

// NewWeekService constructs the service.
func NewWeekService(weeks weekStore, layouts layoutInvalidator, cfg WeekConfig, logger *zap.Logger) *WeekService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &WeekService{
		weeks:     weeks,
		layouts:   layouts,
		validator: validator.New(),
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
		readFile:  os.ReadFile,
	}
}

type holiday struct {
	label string
	first time.Time
	last  time.Time
}

func labelFor(holidays []holiday, day time.Time) (string, bool) {
	for _, h := range holidays {
		if !day.Before(h.first) && !day.After(h.last) {
			return h.label, true
		}
	}
	return "", false
}

// Generate replaces the calendar with Monday-to-Sunday weeks from the Monday
// on or before start up to end. Weeks whose Monday falls in a holiday carry
// the holiday summary and no number; the others are numbered from 1.
func (s *WeekService) Generate(ctx context.Context, req dto.GenerateWeeksRequest) ([]dto.WeekSummary, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid week range")
	}
	start, _ := time.ParseInLocation("2006-01-02", req.Start, s.cfg.Location)
	end, _ := time.ParseInLocation("2006-01-02", req.End, s.cfg.Location)
	if !end.After(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end must be after start")
	}

	holidays, err := s.holidays(req.HolidaysICS)
	if err != nil {
		return nil, err
	}

	monday := start.AddDate(0, 0, -int(timetable.WeekdayOf(start)))
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   monday,
		Until:     end.AddDate(0, 0, -1),
		Byweekday: []rrule.Weekday{rrule.MO},
	})
	if err != nil {
		return nil, internal(err, "failed to enumerate weeks")
	}

	var weeks []models.Week
	number := 0
	for _, begin := range rule.All() {
		week := models.Week{BeginDate: begin, EndDate: begin.AddDate(0, 0, 6)}
		if label, ok := labelFor(holidays, begin); ok {
			week.Label, week.Holiday = label, true
		} else {
			number++
			week.Number = number
		}
		weeks = append(weeks, week)
	}

	if err := s.weeks.ReplaceAll(ctx, weeks); err != nil {
		return nil, internal(err, "failed to store weeks")
	}
	if s.layouts != nil {
		if err := s.layouts.InvalidateLayouts(ctx); err != nil {
			s.logger.Warn("failed to invalidate layouts", zap.Error(err))
		}
	}
	s.logger.Info("weeks generated",
		zap.String("start", req.Start),
		zap.String("end", req.End),
		zap.Int("weeks", len(weeks)),
		zap.Int("numbered", number))

	out := make([]dto.WeekSummary, 0, len(weeks))
	for _, w := range weeks {
		out = append(out, dto.WeekSummary{Number: w.Number, Label: w.Label, Begin: w.BeginDate, End: w.EndDate, Holiday: w.Holiday})
	}
	return out, nil
}

func (s *WeekService) holidays(inline string) ([]holiday, error) {
	body := []byte(inline)
	if strings.TrimSpace(inline) == "" {
		if s.cfg.HolidaysICS == "" {
			return nil, nil
		}
		data, err := s.readFile(s.cfg.HolidaysICS)
		if err != nil {
			s.logger.Warn("holiday calendar unavailable", zap.String("path", s.cfg.HolidaysICS), zap.Error(err))
			return nil, nil
		}
		body = data
	}
	holidays, err := parseHolidays(body, s.cfg.Location)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid holiday calendar")
	}
	return holidays, nil
}

// parseHolidays reads every VEVENT with both bounds as an inclusive date
// range. DTEND is exclusive in iCalendar, so the last day is the day before.
func parseHolidays(body []byte, loc *time.Location) ([]holiday, error) {
	cal, err := ical.ParseCalendar(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parse ics: %w", err)
	}
	var out []holiday
	for _, ev := range cal.Events() {
		begin, err := eventBound(ev.GetStartAt, ev.GetAllDayStartAt)
		if err != nil {
			continue
		}
		end, err := eventBound(ev.GetEndAt, ev.GetAllDayEndAt)
		if err != nil {
			continue
		}
		label := ""
		if p := ev.GetProperty(ical.ComponentPropertySummary); p != nil {
			label = p.Value
		}
		out = append(out, holiday{
			label: label,
			first: dateIn(begin, loc),
			last:  dateIn(end, loc).AddDate(0, 0, -1),
		})
	}
	return out, nil
}

func eventBound(timed, allDay func() (time.Time, error)) (time.Time, error) {
	if t, err := allDay(); err == nil {
		return t, nil
	}
	return timed()
}

// CurrentDay returns the column to highlight for the numbered week today.
func (s *WeekService) CurrentDay(ctx context.Context, number int) (*dto.CurrentDayResponse, error) {
	row, err := s.weeks.FindByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "week not found")
		}
		return nil, internal(err, "failed to load week")
	}
	week := toWeek(*row, s.cfg.Location)
	return &dto.CurrentDayResponse{
		Week:       week.Number,
		CurrentDay: timetable.CurrentDay(s.now().In(s.cfg.Location), week),
	}, nil
}

// Current returns the week containing today. Holiday weeks are returned
// too so clients can show the holiday label instead of a timetable.
func (s *WeekService) Current(ctx context.Context) (*dto.CurrentWeekResponse, error) {
	today := dateIn(s.now().In(s.cfg.Location), s.cfg.Location)
	row, err := s.weeks.FindByDate(ctx, today)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "today is outside the academic year")
		}
		return nil, internal(err, "failed to load current week")
	}
	week := toWeek(*row, s.cfg.Location)
	out := &dto.CurrentWeekResponse{
		WeekSummary: dto.WeekSummary{Number: row.Number, Label: row.Label, Begin: row.BeginDate, End: row.EndDate, Holiday: row.Holiday},
	}
	if !row.Holiday {
		out.CurrentDay = timetable.CurrentDay(s.now().In(s.cfg.Location), week)
	}
	return out, nil
}

// List returns the stored calendar.
func (s *WeekService) List(ctx context.Context) ([]dto.WeekSummary, error) {
	rows, err := s.weeks.List(ctx)
	if err != nil {
		return nil, internal(err, "failed to list weeks")
	}
	out := make([]dto.WeekSummary, 0, len(rows))
	for _, w := range rows {
		out = append(out, dto.WeekSummary{Number: w.Number, Label: w.Label, Begin: w.BeginDate, End: w.EndDate, Holiday: w.Holiday})
	}
	return out, nil
}
