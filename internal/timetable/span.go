package timetable

import (
	"fmt"
	"time"
)

// Weekday numbers days from Monday (0) to Sunday (6).
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// DaysPerWeek is the number of day columns kept by layouts and validators.
const DaysPerWeek = 7

var weekdayLabels = [DaysPerWeek]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// WeekdayOf converts a calendar date into a Monday-based Weekday.
func WeekdayOf(t time.Time) Weekday {
	return Weekday((int(t.Weekday()) + 6) % 7)
}

// Valid reports whether d is within Monday..Sunday.
func (d Weekday) Valid() bool { return d >= Monday && d <= Sunday }

func (d Weekday) String() string {
	if !d.Valid() {
		return fmt.Sprintf("day(%d)", int(d))
	}
	return weekdayLabels[d]
}

// Week is one numbered (or holiday) week of the academic year, Monday to Sunday.
type Week struct {
	Number  int
	Begin   time.Time
	End     time.Time
	Label   string
	Holiday bool
}

// Contains reports whether the calendar date of t falls within the week.
func (w Week) Contains(t time.Time) bool {
	day := dateOf(t)
	return !day.Before(dateOf(w.Begin)) && !day.After(dateOf(w.End))
}

// DayDate returns the date of the given weekday inside the week.
func (w Week) DayDate(day Weekday) time.Time {
	return dateOf(w.Begin).AddDate(0, 0, int(day))
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Slot is a weekday with a half-open [Begin, End) time-of-day range.
type Slot struct {
	Day   Weekday
	Begin Clock
	End   Clock
}

// Less orders slots by day, then begin time.
func (s Slot) Less(o Slot) bool {
	return s.Day < o.Day || (s.Day == o.Day && s.Begin < o.Begin)
}

// Overlaps reports whether either slot starts inside the other on the same day.
func (s Slot) Overlaps(o Slot) bool {
	return s.Day == o.Day && hoursOverlap(s.Begin, s.End, o.Begin, o.End)
}

// Length returns the slot duration in minutes.
func (s Slot) Length() int { return int(s.End - s.Begin) }

func hoursOverlap(b1, e1, b2, e2 Clock) bool {
	return (b1 <= b2 && b2 < e1) || (b2 <= b1 && b1 < e2)
}

func instantsOverlap(b1, e1, b2, e2 time.Time) bool {
	return (!b2.Before(b1) && b2.Before(e1)) || (!b1.Before(b2) && b1.Before(e2))
}

// SpanType tags the origin of a rendered span.
type SpanType string

const (
	SpanPeriodic    SpanType = "periodic"
	SpanColle       SpanType = "colle"
	SpanBase        SpanType = "base"
	SpanInscription SpanType = "inscription"
)

// TimeSpan is a render-only block of a display timetable. Instances belong to
// a single layout pass and are mutated in place by override insertion.
type TimeSpan struct {
	Day       Weekday  `json:"day"`
	Begin     Clock    `json:"begin"`
	End       Clock    `json:"end"`
	Subject   string   `json:"subject"`
	Label     string   `json:"label"`
	Type      SpanType `json:"type"`
	Classroom string   `json:"classroom"`
	Groups    string   `json:"groups"`
	Teachers  []string `json:"teachers"`
	NoteCount int      `json:"note_count"`
	ID        int64    `json:"id"`
}

// Bounds returns the begin and end clocks.
func (s *TimeSpan) Bounds() (Clock, Clock) { return s.Begin, s.End }

// Length returns the duration in minutes.
func (s *TimeSpan) Length() int { return int(s.End - s.Begin) }

func newSpan(day Weekday, begin, end Clock, att AttendeeSet) *TimeSpan {
	return &TimeSpan{
		Day:      day,
		Begin:    begin,
		End:      end,
		Groups:   Minify(att.Groups()),
		Teachers: att.Names(),
	}
}
