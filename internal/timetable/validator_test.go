package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConsistent(t *testing.T) {
	a := recurring(1, 1, 10, 1, "1")
	b := recurring(2, 1, 10, 1, "2")
	report := Validate([]*Recurring{a, b}, nil, nil)
	assert.True(t, report.Consistent)
	assert.Empty(t, report.Conflicts)
}

func TestValidateRecordsFirstConflictOnly(t *testing.T) {
	a := recurring(1, 1, 10, 1, "1")
	b := recurring(2, 1, 10, 1, "2")
	c := recurring(3, 1, 10, 1, "1-2")

	report := Validate([]*Recurring{a, b, c}, nil, nil)
	require.False(t, report.Consistent)
	require.Len(t, report.Conflicts, 1)
	assert.Same(t, a, report.Conflicts[0].First)
	assert.Same(t, c, report.Conflicts[0].Second)
}

func TestValidateRejectedEntityIsNotCompared(t *testing.T) {
	a := recurring(1, 1, 10, 1, "1")
	rejected := recurring(2, 1, 10, 1, "1,Dupont")
	later := recurring(3, 1, 10, 1, "Dupont")

	report := Validate([]*Recurring{a, rejected, later}, nil, nil)
	require.Len(t, report.Conflicts, 1)
	assert.Same(t, rejected, report.Conflicts[0].Second)
}

func TestValidateSundayConflicts(t *testing.T) {
	a := recurring(1, 1, 10, 1, "1")
	a.Day = Sunday
	b := recurring(2, 1, 10, 1, "1")
	b.Day = Sunday
	monday := recurring(3, 1, 10, 1, "1")

	report := Validate([]*Recurring{a, b, monday}, nil, nil)
	require.Len(t, report.Conflicts, 1)
	assert.Same(t, a, report.Conflicts[0].First)
	assert.Same(t, b, report.Conflicts[0].Second)
}

func TestValidateOccurrencePhase(t *testing.T) {
	week := testWeek(2)
	r := recurring(1, 1, 10, 1, "3")
	ok := &WeeklyOccurrence{ID: 1, Week: week, Group: 1, Teacher: "Martin", Day: Monday, Begin: NewClock(10, 0), End: NewClock(11, 0)}
	clash := &WeeklyOccurrence{ID: 2, Week: week, Group: 3, Teacher: "Petit", Day: Monday, Begin: NewClock(11, 0), End: NewClock(12, 0)}
	sameTutor := &WeeklyOccurrence{ID: 3, Week: week, Group: 2, Teacher: "Martin", Day: Monday, Begin: NewClock(10, 30), End: NewClock(11, 30)}

	report := Validate([]*Recurring{r}, []*WeeklyOccurrence{ok, clash, sameTutor}, nil)
	require.Len(t, report.Conflicts, 2)
	assert.Same(t, clash, report.Conflicts[0].First)
	assert.Same(t, r, report.Conflicts[0].Second)
	assert.Same(t, sameTutor, report.Conflicts[1].First)
	assert.Same(t, ok, report.Conflicts[1].Second)
}

func TestValidateOverridePunctualNeverConflicts(t *testing.T) {
	week := testWeek(3)
	r := recurring(1, 1, 10, 1, "1,Dupont")
	override := &Punctual{ID: 1, Begin: at(week, Monday, 10, 0), End: at(week, Monday, 12, 0), Week: &week, Override: true, Attendees: ResolveAttendance("1")}
	clash := &Punctual{ID: 2, Begin: at(week, Monday, 11, 0), End: at(week, Monday, 11, 30), Week: &week, Attendees: ResolveAttendance("Dupont")}
	later := &Punctual{ID: 3, Begin: at(week, Tuesday, 14, 0), End: at(week, Tuesday, 16, 0), Week: &week, Attendees: ResolveAttendance("2")}
	twin := &Punctual{ID: 4, Begin: at(week, Tuesday, 15, 0), End: at(week, Tuesday, 17, 0), Week: &week, Attendees: ResolveAttendance("2")}

	report := Validate([]*Recurring{r}, nil, []*Punctual{override, clash, later, twin})
	require.Len(t, report.Conflicts, 2)
	for _, c := range report.Conflicts {
		assert.NotSame(t, override, c.First)
		assert.NotSame(t, override, c.Second)
	}
	assert.Same(t, clash, report.Conflicts[0].First)
	assert.Same(t, r, report.Conflicts[0].Second)
	assert.Same(t, twin, report.Conflicts[1].First)
	assert.Same(t, later, report.Conflicts[1].Second)
}

func TestValidatorIncremental(t *testing.T) {
	v := NewValidator()
	assert.True(t, v.AddRecurring(recurring(1, 1, 10, 1, "1")).Compatible)
	c := v.AddRecurring(recurring(2, 1, 10, 1, "1"))
	assert.False(t, c.Compatible)

	report := v.Report()
	assert.False(t, report.Consistent)
	assert.Len(t, report.Conflicts, 1)
}
