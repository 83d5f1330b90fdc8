package timetable

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func span(label string, begin, end Clock) *TimeSpan {
	return &TimeSpan{Day: Tuesday, Begin: begin, End: end, Label: label}
}

func bounds(spans []*TimeSpan) [][2]Clock {
	out := make([][2]Clock, 0, len(spans))
	for _, s := range spans {
		out = append(out, [2]Clock{s.Begin, s.End})
	}
	return out
}

func TestAddSpanTruncatesPredecessor(t *testing.T) {
	tt := NewDisplayTimetable()
	require.NoError(t, tt.AddSpan(span("a", NewClock(8, 0), NewClock(10, 0))))
	require.NoError(t, tt.AddSpan(span("b", NewClock(9, 0), NewClock(9, 30))))
	require.NoError(t, tt.AddSpan(span("c", NewClock(9, 15), NewClock(11, 0))))

	assert.Equal(t, [][2]Clock{
		{NewClock(8, 0), NewClock(9, 0)},
		{NewClock(9, 0), NewClock(9, 15)},
		{NewClock(9, 15), NewClock(11, 0)},
	}, bounds(tt.Day(Tuesday).Spans()))
}

func TestAddSpanDeletesCoveredSuccessors(t *testing.T) {
	tt := NewDisplayTimetable()
	require.NoError(t, tt.AddSpan(span("a", NewClock(8, 0), NewClock(10, 0))))
	require.NoError(t, tt.AddSpan(span("b", NewClock(9, 0), NewClock(9, 30))))
	require.NoError(t, tt.AddSpan(span("d", NewClock(8, 30), NewClock(11, 0))))

	day := tt.Day(Tuesday)
	require.Equal(t, 2, day.Len())
	assert.Equal(t, "a", day.At(0).Label)
	assert.Equal(t, "d", day.At(1).Label)
	assert.Equal(t, [][2]Clock{
		{NewClock(8, 0), NewClock(8, 30)},
		{NewClock(8, 30), NewClock(11, 0)},
	}, bounds(day.Spans()))
}

func TestAddSpanTruncatesSuccessorBegin(t *testing.T) {
	tt := NewDisplayTimetable()
	require.NoError(t, tt.AddSpan(span("a", NewClock(10, 0), NewClock(12, 0))))
	require.NoError(t, tt.AddSpan(span("b", NewClock(12, 0), NewClock(14, 0))))
	require.NoError(t, tt.AddSpan(span("c", NewClock(9, 0), NewClock(12, 30))))

	assert.Equal(t, [][2]Clock{
		{NewClock(9, 0), NewClock(12, 30)},
		{NewClock(12, 30), NewClock(14, 0)},
	}, bounds(tt.Day(Tuesday).Spans()))
}

func TestAddSpanSameBeginReplaces(t *testing.T) {
	tt := NewDisplayTimetable()
	require.NoError(t, tt.AddSpan(span("old", NewClock(9, 0), NewClock(10, 0))))
	require.NoError(t, tt.AddSpan(span("new", NewClock(9, 0), NewClock(10, 0))))

	spans := tt.Day(Tuesday).Spans()
	require.Len(t, spans, 1)
	assert.Equal(t, "new", spans[0].Label)
}

func TestSpansSkipsZeroLength(t *testing.T) {
	tt := NewDisplayTimetable()
	require.NoError(t, tt.AddSpan(span("empty", NewClock(12, 0), NewClock(12, 0))))
	require.NoError(t, tt.AddSpan(span("full", NewClock(13, 0), NewClock(14, 0))))

	day := tt.Day(Tuesday)
	assert.Equal(t, 2, day.Len())
	require.Len(t, day.Spans(), 1)
	assert.Equal(t, "full", day.Spans()[0].Label)
}

func TestAddSpanInvalidDay(t *testing.T) {
	err := NewDisplayTimetable().AddSpan(&TimeSpan{Day: 9})
	assert.True(t, errors.Is(err, ErrInvalidDay))
}

func TestAddEntitiesLatestWins(t *testing.T) {
	week := testWeek(3)
	tt := NewDisplayTimetable()
	r := recurring(1, 1, 10, 1, "1-2,Dupont")
	require.NoError(t, tt.AddRecurring(r))

	o := &WeeklyOccurrence{ID: 2, Week: week, Group: 4, Teacher: "Martin", Day: Monday, Begin: NewClock(11, 0), End: NewClock(12, 0), Subject: "Physique"}
	require.NoError(t, tt.AddOccurrence(o))

	p := &Punctual{ID: 3, Begin: at(week, Monday, 9, 0), End: at(week, Monday, 10, 30), Week: &week, Override: true, Label: "Réunion"}
	require.NoError(t, tt.AddPunctual(p))

	spans := tt.Day(Monday).Spans()
	require.Len(t, spans, 3)
	assert.Equal(t, SpanBase, spans[0].Type)
	assert.Equal(t, "reunion", spans[0].Subject)
	assert.Equal(t, SpanPeriodic, spans[1].Type)
	assert.Equal(t, [2]Clock{NewClock(10, 30), NewClock(11, 0)}, [2]Clock{spans[1].Begin, spans[1].End})
	assert.Equal(t, "1-2", spans[1].Groups)
	assert.Equal(t, []string{"Dupont"}, spans[1].Teachers)
	assert.Equal(t, SpanColle, spans[2].Type)
	assert.Equal(t, "Colle - Physique", spans[2].Label)
}

func TestCurrentDay(t *testing.T) {
	week := testWeek(3)
	assert.Equal(t, 2, CurrentDay(week.DayDate(Wednesday).Add(15*time.Hour), week))
	assert.Equal(t, 4, CurrentDay(week.DayDate(Saturday), week))
	assert.Equal(t, 0, CurrentDay(week.Begin.AddDate(0, 0, -3), week))
	assert.Equal(t, 4, CurrentDay(week.End.AddDate(0, 0, 2), week))
}

func TestAgendaDaySortErrors(t *testing.T) {
	day := NewAgendaDay[*TimeSpan](Monday)
	require.NoError(t, day.Append(span("a", NewClock(8, 0), NewClock(9, 0))))
	require.NoError(t, day.Append(span("b", NewClock(10, 0), NewClock(11, 0))))

	var sortErr *SortError
	assert.True(t, errors.As(day.Append(span("c", NewClock(9, 0), NewClock(9, 30))), &sortErr))
	assert.True(t, errors.As(day.InsertAt(0, span("d", NewClock(9, 0), NewClock(9, 30))), &sortErr))
	assert.True(t, errors.As(day.Reverse(), &sortErr))

	require.NoError(t, day.InsertAt(1, span("e", NewClock(9, 0), NewClock(9, 30))))
	assert.Equal(t, "e", day.At(1).Label)

	tail := NewAgendaDay[*TimeSpan](Monday)
	require.NoError(t, tail.Append(span("f", NewClock(7, 0), NewClock(8, 0))))
	assert.True(t, errors.As(day.Extend(tail), &sortErr))

	tail = NewAgendaDay[*TimeSpan](Monday)
	require.NoError(t, tail.Append(span("g", NewClock(12, 0), NewClock(13, 0))))
	require.NoError(t, day.Extend(tail))
	assert.Equal(t, 4, day.Len())
}
