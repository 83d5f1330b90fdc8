package timetable

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDay is returned for spans placed outside Monday..Sunday.
var ErrInvalidDay = errors.New("weekday out of range")

// DisplayTimetable lays spans out per weekday. Each added span is inserted in
// override mode: it truncates or removes whatever it covers, so the latest
// insertion wins. Spans belong to one timetable and are mutated in place.
type DisplayTimetable struct {
	days [DaysPerWeek]*AgendaDay[*TimeSpan]
}

// NewDisplayTimetable returns an empty timetable.
func NewDisplayTimetable() *DisplayTimetable {
	t := &DisplayTimetable{}
	for d := range t.days {
		t.days[d] = NewAgendaDay[*TimeSpan](Weekday(d))
	}
	return t
}

// Days returns the weekday columns from Monday to Sunday.
func (t *DisplayTimetable) Days() []*AgendaDay[*TimeSpan] {
	return t.days[:]
}

// Day returns one column.
func (t *DisplayTimetable) Day(d Weekday) *AgendaDay[*TimeSpan] {
	return t.days[d]
}

// AddSpan inserts span, shrinking the preceding span and shrinking or
// deleting the following ones it covers.
func (t *DisplayTimetable) AddSpan(span *TimeSpan) error {
	if !span.Day.Valid() {
		return fmt.Errorf("span %q on day %d: %w", span.Label, int(span.Day), ErrInvalidDay)
	}
	day := t.days[span.Day]
	i := day.Insert(span)
	if i > 0 {
		if prev := day.At(i - 1); prev.End > span.Begin {
			prev.End = span.Begin
		}
	}
	for i+1 < day.Len() {
		next := day.At(i + 1)
		if next.Begin >= span.End {
			break
		}
		if next.End <= span.End {
			day.Delete(i + 1)
			continue
		}
		next.Begin = span.End
		break
	}
	return nil
}

// AddRecurring renders a recurring event.
func (t *DisplayTimetable) AddRecurring(r *Recurring) error {
	return t.AddSpan(r.ToSpan())
}

// AddOccurrence renders a tutoring session.
func (t *DisplayTimetable) AddOccurrence(o *WeeklyOccurrence) error {
	return t.AddSpan(o.ToSpan())
}

// AddPunctual renders each day of a one-off event.
func (t *DisplayTimetable) AddPunctual(p *Punctual) error {
	for _, span := range p.ToSpans() {
		if err := t.AddSpan(span); err != nil {
			return err
		}
	}
	return nil
}

// CurrentDay returns the column to highlight for date in week: 0 before the
// week, otherwise the weekday capped at Friday.
func CurrentDay(date time.Time, week Week) int {
	if week.Contains(date) {
		return min(int(WeekdayOf(date)), int(Friday))
	}
	if dateOf(date).Before(dateOf(week.Begin)) {
		return int(Monday)
	}
	return int(Friday)
}
