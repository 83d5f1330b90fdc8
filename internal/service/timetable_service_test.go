package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/timetable"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

type eventSourceStub struct {
	periodic []models.PeriodicEvent
	base     []models.BaseEvent
	err      error
	calls    int
}

func (s *eventSourceStub) ListPeriodic(ctx context.Context, level string) ([]models.PeriodicEvent, error) {
	s.calls++
	return s.periodic, s.err
}

func (s *eventSourceStub) ListPeriodicForWeek(ctx context.Context, level string, week int) ([]models.PeriodicEvent, error) {
	s.calls++
	return s.periodic, s.err
}

func (s *eventSourceStub) ListBase(ctx context.Context, level string) ([]models.BaseEvent, error) {
	return s.base, s.err
}

func (s *eventSourceStub) ListBaseBetween(ctx context.Context, level string, from, to time.Time) ([]models.BaseEvent, error) {
	var out []models.BaseEvent
	for _, ev := range s.base {
		if ev.BeginsAt.Before(to) && ev.EndsAt.After(from) {
			out = append(out, ev)
		}
	}
	return out, s.err
}

type colleSourceStub struct {
	plannings []models.CollePlanning
}

func (s *colleSourceStub) ListByLevel(ctx context.Context, level string) ([]models.CollePlanning, error) {
	return s.plannings, nil
}

func (s *colleSourceStub) ListForWeek(ctx context.Context, level string, week int) ([]models.CollePlanning, error) {
	var out []models.CollePlanning
	for _, p := range s.plannings {
		if p.WeekNumber == week {
			out = append(out, p)
		}
	}
	return out, nil
}

func day(month time.Month, d int) time.Time {
	return time.Date(2024, month, d, 0, 0, 0, 0, time.UTC)
}

func timetableFixture() (*eventSourceStub, *colleSourceStub, *weekStoreStub) {
	events := &eventSourceStub{
		periodic: []models.PeriodicEvent{
			{ID: 1, Level: "MP2I", Day: 0, BeginTime: timetable.NewClock(8, 0), EndTime: timetable.NewClock(10, 0),
				BegWeek: 1, EndWeek: 30, Periodicity: 1, Label: "Cours", Subject: "Maths", Attendance: "1-2"},
			{ID: 2, Level: "MP2I", Day: 0, BeginTime: timetable.NewClock(9, 0), EndTime: timetable.NewClock(11, 0),
				BegWeek: 1, EndWeek: 30, Periodicity: 1, Label: "TP", Subject: "Physique", Attendance: "2,Curie"},
		},
		base: []models.BaseEvent{
			{ID: 20, Level: "MP2I", BeginsAt: day(9, 3).Add(17*time.Hour + 30*time.Minute), EndsAt: day(9, 3).Add(18*time.Hour + 30*time.Minute),
				Label: "Conseil", Attendance: "Curie"},
		},
	}
	colles := &colleSourceStub{plannings: []models.CollePlanning{
		{ID: 10, SlotID: 3, Level: "MP2I", Day: 1, BeginTime: timetable.NewClock(17, 0), EndTime: timetable.NewClock(18, 0),
			Teacher: "Curie", Subject: "Maths", GroupNumber: 1, GroupSize: 3, WeekNumber: 1, WeekBegin: day(9, 2), WeekEnd: day(9, 8)},
	}}
	weeks := &weekStoreStub{weeks: []models.Week{
		{ID: 1, Number: 1, BeginDate: day(9, 2), EndDate: day(9, 8)},
		{ID: 2, Number: 2, BeginDate: day(9, 9), EndDate: day(9, 15)},
	}}
	return events, colles, weeks
}

func newTimetableServiceForTest(t *testing.T) (*TimetableService, *eventSourceStub, *memoryCache) {
	t.Helper()
	events, colles, weeks := timetableFixture()
	attendance := NewAttendanceService(&rosterStub{roster: sampleRoster()}, nil, nil, "MP2I", nil)
	repo := newMemoryCache()
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	svc := NewTimetableService(events, colles, weeks, attendance, cache, NewMetricsService(), TimetableConfig{DefaultLevel: "MP2I", Location: time.UTC}, nil)
	svc.now = func() time.Time { return time.Date(2024, 9, 4, 10, 0, 0, 0, time.UTC) }
	return svc, events, repo
}

func TestTimetableServiceValidate(t *testing.T) {
	svc, _, _ := newTimetableServiceForTest(t)

	report, err := svc.Validate(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "MP2I", report.Level)
	assert.False(t, report.Consistent)
	require.Len(t, report.Conflicts, 2)

	first := report.Conflicts[0]
	assert.Equal(t, int64(1), first.First.ID)
	assert.Equal(t, int64(2), first.Second.ID)
	assert.Equal(t, "2", first.Attendee)
	require.NotNil(t, first.Locator)
	assert.Equal(t, "monday", first.Locator.Day)
	assert.Equal(t, "09:00", first.Locator.At)
	require.NotNil(t, first.Locator.Week)
	assert.Equal(t, 1, *first.Locator.Week)

	second := report.Conflicts[1]
	assert.Equal(t, "punctual", second.First.Kind)
	assert.Equal(t, "weekly_occurrence", second.Second.Kind)
	assert.Equal(t, "Curie", second.Attendee)
}

func TestTimetableServiceValidateLoadFailure(t *testing.T) {
	svc, events, _ := newTimetableServiceForTest(t)
	events.err = errors.New("db down")

	_, err := svc.Validate(context.Background(), "MP2I")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
}

func checkRequest(attendance string) dto.CheckRequest {
	return dto.CheckRequest{Day: 0, Begin: "09:30", End: "10:30", BegWeek: 1, EndWeek: 10, Periodicity: 1, Label: "Soutien", Attendance: attendance}
}

func TestTimetableServiceCheckReportsEveryConflict(t *testing.T) {
	svc, _, _ := newTimetableServiceForTest(t)
	ctx := context.Background()

	resp, err := svc.Check(ctx, checkRequest("2"))
	require.NoError(t, err)
	assert.False(t, resp.Compatible)
	require.Len(t, resp.Conflicts, 2)
	assert.Equal(t, int64(1), resp.Conflicts[0].First.ID)
	assert.Equal(t, int64(2), resp.Conflicts[1].First.ID)

	editing := checkRequest("2")
	editing.ID = 1
	resp, err = svc.Check(ctx, editing)
	require.NoError(t, err)
	require.Len(t, resp.Conflicts, 1)
	assert.Equal(t, int64(2), resp.Conflicts[0].First.ID)

	resp, err = svc.Check(ctx, checkRequest("3"))
	require.NoError(t, err)
	assert.True(t, resp.Compatible)
	assert.Empty(t, resp.Conflicts)
}

func TestTimetableServiceCheckValidation(t *testing.T) {
	svc, _, _ := newTimetableServiceForTest(t)
	ctx := context.Background()
	var appErr *appErrors.Error

	bad := checkRequest("2")
	bad.Begin, bad.End = "10:00", "09:00"
	_, err := svc.Check(ctx, bad)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	bad = checkRequest("2")
	bad.Periodicity = 0
	_, err = svc.Check(ctx, bad)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	_, err = svc.Check(ctx, checkRequest("Nobody"))
	require.NoError(t, err)
}

func TestTimetableServiceCheckAttendance(t *testing.T) {
	svc, _, _ := newTimetableServiceForTest(t)
	ctx := context.Background()

	resp, err := svc.CheckAttendance(ctx, "", 2, "1")
	require.NoError(t, err)
	assert.False(t, resp.Compatible)
	require.Len(t, resp.Conflicts, 1)
	assert.Equal(t, "1", resp.Conflicts[0].Attendee)

	resp, err = svc.CheckAttendance(ctx, "", 2, "3")
	require.NoError(t, err)
	assert.True(t, resp.Compatible)

	_, err = svc.CheckAttendance(ctx, "", 99, "1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestTimetableServiceWeek(t *testing.T) {
	svc, events, repo := newTimetableServiceForTest(t)
	ctx := context.Background()

	week, hit, err := svc.Week(ctx, "", 1)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, week.Week)
	assert.Equal(t, 2, week.CurrentDay)
	require.Len(t, week.Days, 6)

	monday := week.Days[0].Spans
	require.Len(t, monday, 2)
	assert.Equal(t, timetable.NewClock(9, 0), monday[0].End)
	assert.Equal(t, "TP - Physique", monday[1].Label)

	tuesday := week.Days[1]
	assert.Equal(t, day(9, 3), tuesday.Date)
	require.Len(t, tuesday.Spans, 2)
	assert.Equal(t, timetable.SpanColle, tuesday.Spans[0].Type)
	assert.Equal(t, timetable.NewClock(17, 30), tuesday.Spans[0].End)
	assert.Equal(t, "Conseil", tuesday.Spans[1].Label)
	assert.True(t, repo.has(WeekKey("MP2I", 1)))

	calls := events.calls
	svc.now = func() time.Time { return time.Date(2024, 9, 20, 10, 0, 0, 0, time.UTC) }
	cached, hit, err := svc.Week(ctx, "MP2I", 1)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, calls, events.calls)
	assert.Equal(t, int(timetable.Friday), cached.CurrentDay)
	require.Len(t, cached.Days[0].Spans, 2)

	_, _, err = svc.Week(ctx, "MP2I", 12)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestTimetableServicePeriodicGrid(t *testing.T) {
	svc, _, repo := newTimetableServiceForTest(t)
	ctx := context.Background()

	grid, hit, err := svc.PeriodicGrid(ctx, "MP2I")
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, grid.Days, 6)
	blocks := grid.Days[0].Blocks
	require.Len(t, blocks, 2)
	assert.Equal(t, 0, blocks[0].Position)
	assert.Equal(t, 1, blocks[1].Position)
	assert.Equal(t, 2, blocks[0].OverlapCount)
	assert.True(t, repo.has(PeriodicKey("MP2I")))

	_, hit, err = svc.PeriodicGrid(ctx, "MP2I")
	require.NoError(t, err)
	assert.True(t, hit)
}
