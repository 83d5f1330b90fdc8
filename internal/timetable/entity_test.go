package timetable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecurringOccursIn(t *testing.T) {
	r := recurring(1, 2, 8, 3, "1")
	assert.True(t, r.OccursIn(testWeek(2)))
	assert.False(t, r.OccursIn(testWeek(3)))
	assert.True(t, r.OccursIn(testWeek(5)))
	assert.True(t, r.OccursIn(testWeek(8)))
	assert.False(t, r.OccursIn(testWeek(11)))

	holiday := testWeek(5)
	holiday.Holiday = true
	assert.False(t, r.OccursIn(holiday))

	begin, end, ok := r.OccurrenceIn(testWeek(5))
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, time.September, 30, 10, 0, 0, 0, time.UTC), begin)
	assert.Equal(t, time.Date(2024, time.September, 30, 12, 0, 0, 0, time.UTC), end)
}

func TestPunctualToSpansSingleDay(t *testing.T) {
	week := testWeek(1)
	p := &Punctual{ID: 1, Begin: at(week, Thursday, 14, 0), End: at(week, Thursday, 16, 0), Label: "Conseil de classe", Attendees: ResolveAttendance("2,Dupont")}

	spans := p.ToSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, Thursday, spans[0].Day)
	assert.Equal(t, "2", spans[0].Groups)
	assert.Equal(t, "conseil de classe", spans[0].Subject)
	assert.Equal(t, SpanBase, spans[0].Type)
}

func TestPunctualToSpansSeveralDays(t *testing.T) {
	week := testWeek(1)
	p := &Punctual{ID: 1, Begin: at(week, Wednesday, 14, 0), End: at(week, Friday, 10, 0), Label: "Voyage"}

	spans := p.ToSpans()
	require.Len(t, spans, 3)
	assert.Equal(t, [3]interface{}{Wednesday, NewClock(14, 0), MaxHour}, [3]interface{}{spans[0].Day, spans[0].Begin, spans[0].End})
	assert.Equal(t, [3]interface{}{Thursday, MinHour, MaxHour}, [3]interface{}{spans[1].Day, spans[1].Begin, spans[1].End})
	assert.Equal(t, [3]interface{}{Friday, MinHour, NewClock(10, 0)}, [3]interface{}{spans[2].Day, spans[2].Begin, spans[2].End})

	p.End = at(week, Friday, 8, 0)
	assert.Len(t, p.ToSpans(), 2)
}

func TestPunctualToSpansStopsAtSunday(t *testing.T) {
	week := testWeek(1)
	p := &Punctual{ID: 1, Begin: at(week, Saturday, 10, 0), End: at(week, Sunday, 12, 0).AddDate(0, 0, 2)}

	spans := p.ToSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, Saturday, spans[0].Day)
	assert.Equal(t, Sunday, spans[1].Day)
	assert.Equal(t, MaxHour, spans[1].End)
}

func TestPunctualInscriptionSpan(t *testing.T) {
	week := testWeek(1)
	p := &Punctual{ID: 1, Begin: at(week, Monday, 12, 0), End: at(week, Monday, 13, 0), Inscription: true, Label: "Colles"}

	assert.True(t, p.Overrides())
	spans := p.ToSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, SpanInscription, spans[0].Type)
	assert.Equal(t, "inscription", spans[0].Subject)
}

func TestOccurrenceEmptyGroupLabel(t *testing.T) {
	o := &WeeklyOccurrence{ID: 1, Week: testWeek(1), Group: 3, GroupEmpty: true, Day: Friday, Begin: NewClock(16, 0), End: NewClock(17, 0), Subject: "Maths"}
	assert.Equal(t, "Empty group!", o.ToSpan().Label)
	assert.Equal(t, NewAttendeeSet(GroupAttendee(3)), o.Attendance())
}

func TestFullLabel(t *testing.T) {
	assert.Equal(t, "TD - Maths", FullLabel("TD", "Maths"))
	assert.Equal(t, "Cours de maths", FullLabel("Cours de maths", "Maths"))
	assert.Equal(t, "Maths", FullLabel("", "Maths"))
	assert.Equal(t, "TD", FullLabel("TD", ""))
}

func TestFoldLabel(t *testing.T) {
	assert.Equal(t, "reunion parents-professeurs", foldLabel(" Réunion Parents-Professeurs "))
	assert.Equal(t, "eleve", foldLabel("Élève"))
}

func TestClock(t *testing.T) {
	c, err := ParseClock("08:30:00")
	require.NoError(t, err)
	assert.Equal(t, NewClock(8, 30), c)
	assert.Equal(t, "08:30", c.String())

	_, err = ParseClock("25:00")
	assert.Error(t, err)

	var scanned Clock
	require.NoError(t, scanned.Scan([]byte("17:45:00")))
	assert.Equal(t, NewClock(17, 45), scanned)

	hours := Hours()
	require.Len(t, hours, 23)
	assert.Equal(t, MinHour, hours[0])
	assert.Equal(t, NewClock(19, 0), hours[len(hours)-1])
}
