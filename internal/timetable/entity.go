package timetable

import (
	"fmt"
	"strings"
	"time"
)

// Kind enumerates the three schedulable entity variants.
type Kind int

const (
	KindRecurring Kind = iota + 1
	KindOccurrence
	KindPunctual
)

func (k Kind) String() string {
	switch k {
	case KindRecurring:
		return "recurring"
	case KindOccurrence:
		return "weekly_occurrence"
	case KindPunctual:
		return "punctual"
	default:
		return "unknown"
	}
}

// Entity is the closed union of Recurring, WeeklyOccurrence and Punctual.
// The unexported against* methods form a double dispatch: every variant must
// answer for every other variant, so a missing pair fails to compile.
type Entity interface {
	Kind() Kind
	Key() int64
	Attendance() AttendeeSet
	String() string

	timeAgainst(other Entity) timeCheck
	againstRecurring(r *Recurring) timeCheck
	againstOccurrence(o *WeeklyOccurrence) timeCheck
	againstPunctual(p *Punctual) timeCheck
}

// Recurring happens every Periodicity weeks from BegWeek to EndWeek inclusive.
type Recurring struct {
	ID          int64
	Day         Weekday
	Begin       Clock
	End         Clock
	BegWeek     int
	EndWeek     int
	Periodicity int
	Label       string
	Subject     string
	Classroom   string
	NoteCount   int
	Attendees   AttendeeSet
}

func (r *Recurring) Kind() Kind              { return KindRecurring }
func (r *Recurring) Key() int64              { return r.ID }
func (r *Recurring) Attendance() AttendeeSet { return r.Attendees }
func (r *Recurring) Slot() Slot              { return Slot{Day: r.Day, Begin: r.Begin, End: r.End} }
func (r *Recurring) FullLabel() string       { return FullLabel(r.Label, r.Subject) }
func (r *Recurring) period() int             { return max(r.Periodicity, 1) }
func (r *Recurring) String() string {
	return fmt.Sprintf("%s %s %s-%s", r.FullLabel(), r.Day, r.Begin, r.End)
}

// OccursIn reports whether the event takes place during week.
func (r *Recurring) OccursIn(week Week) bool {
	if week.Holiday || week.Number < r.BegWeek || week.Number > r.EndWeek {
		return false
	}
	return mod(week.Number-r.BegWeek, r.period()) == 0
}

// OccurrenceIn returns the concrete instants of the event in week.
func (r *Recurring) OccurrenceIn(week Week) (time.Time, time.Time, bool) {
	if !r.OccursIn(week) {
		return time.Time{}, time.Time{}, false
	}
	date := week.DayDate(r.Day)
	return r.Begin.On(date), r.End.On(date), true
}

// ToSpan renders the event for a display timetable.
func (r *Recurring) ToSpan() *TimeSpan {
	span := newSpan(r.Day, r.Begin, r.End, r.Attendees)
	span.Subject = strings.ToLower(r.Subject)
	span.Label = r.FullLabel()
	span.Classroom = r.Classroom
	span.Type = SpanPeriodic
	span.NoteCount = r.NoteCount
	span.ID = r.ID
	return span
}

// WeeklyOccurrence is one week's tutoring session of a weekly slot for one group.
type WeeklyOccurrence struct {
	ID         int64
	SlotID     int64
	Week       Week
	Group      int
	GroupEmpty bool
	Teacher    string
	Day        Weekday
	Begin      Clock
	End        Clock
	Subject    string
	Classroom  string
}

func (o *WeeklyOccurrence) Kind() Kind { return KindOccurrence }
func (o *WeeklyOccurrence) Key() int64 { return o.ID }
func (o *WeeklyOccurrence) Slot() Slot { return Slot{Day: o.Day, Begin: o.Begin, End: o.End} }

// Attendance is the group and its tutor.
func (o *WeeklyOccurrence) Attendance() AttendeeSet {
	set := NewAttendeeSet(GroupAttendee(o.Group))
	if o.Teacher != "" {
		set.Add(NamedAttendee(o.Teacher))
	}
	return set
}

func (o *WeeklyOccurrence) String() string {
	return fmt.Sprintf("group %d, week %d, %s %s %s-%s", o.Group, o.Week.Number, o.Teacher, o.Day, o.Begin, o.End)
}

// OccurrenceIn returns the instants of the session when week is its own week.
func (o *WeeklyOccurrence) OccurrenceIn(week Week) (time.Time, time.Time, bool) {
	if !sameWeek(o.Week, week) {
		return time.Time{}, time.Time{}, false
	}
	date := o.Week.DayDate(o.Day)
	return o.Begin.On(date), o.End.On(date), true
}

// ToSpan renders the session for a display timetable.
func (o *WeeklyOccurrence) ToSpan() *TimeSpan {
	span := newSpan(o.Day, o.Begin, o.End, o.Attendance())
	span.Subject = strings.ToLower(o.Subject)
	span.Label = FullLabel("Colle", o.Subject)
	if o.GroupEmpty {
		span.Label = "Empty group!"
	}
	span.Classroom = o.Classroom
	span.Type = SpanColle
	span.ID = o.ID
	return span
}

// Punctual is a one-off event. Override events are never reported as
// conflicting and win visually over everything else.
type Punctual struct {
	ID          int64
	Begin       time.Time
	End         time.Time
	Week        *Week
	Override    bool
	Inscription bool
	Label       string
	Classroom   string
	Attendees   AttendeeSet
}

func (p *Punctual) Kind() Kind              { return KindPunctual }
func (p *Punctual) Key() int64              { return p.ID }
func (p *Punctual) Attendance() AttendeeSet { return p.Attendees }

// Overrides reports whether conflict checks are suppressed for the event.
func (p *Punctual) Overrides() bool { return p.Override || p.Inscription }

func (p *Punctual) String() string {
	layout := "2006-01-02 15:04"
	if p.Label != "" {
		return fmt.Sprintf("%s : %s - %s", p.Label, p.Begin.Format(layout), p.End.Format(layout))
	}
	return p.Begin.Format(layout) + " " + p.End.Format(layout)
}

// ToSpans renders the event as one span per day it covers, limited to the
// week containing its beginning.
func (p *Punctual) ToSpans() []*TimeSpan {
	begDay := WeekdayOf(p.Begin)
	if p.Inscription {
		span := p.span(begDay, ClockOf(p.Begin), ClockOf(p.End))
		span.Subject = "inscription"
		span.Type = SpanInscription
		return []*TimeSpan{span}
	}

	extra := int(dateOf(p.End).Sub(dateOf(p.Begin)).Hours()/24 + 0.5)
	if extra <= 0 {
		return []*TimeSpan{p.span(begDay, ClockOf(p.Begin), ClockOf(p.End))}
	}
	endDay, last := begDay+Weekday(extra), ClockOf(p.End)
	if endDay > Sunday {
		endDay, last = Sunday, MaxHour
	}
	if endDay == begDay {
		return []*TimeSpan{p.span(begDay, ClockOf(p.Begin), MaxHour)}
	}

	spans := []*TimeSpan{p.span(begDay, ClockOf(p.Begin), MaxHour)}
	for d := begDay + 1; d < endDay; d++ {
		spans = append(spans, p.span(d, MinHour, MaxHour))
	}
	if last > MinHour {
		spans = append(spans, p.span(endDay, MinHour, last))
	}
	return spans
}

func (p *Punctual) span(day Weekday, begin, end Clock) *TimeSpan {
	span := newSpan(day, begin, end, p.Attendees)
	span.Subject = foldLabel(p.Label)
	span.Label = p.Label
	span.Classroom = p.Classroom
	span.Type = SpanBase
	span.ID = p.ID
	return span
}

// FullLabel appends the subject to label unless label already ends with it.
func FullLabel(label, subject string) string {
	switch {
	case subject == "":
		return label
	case label == "":
		return subject
	case strings.HasSuffix(strings.ToLower(label), strings.ToLower(subject)):
		return label
	default:
		return label + " - " + subject
	}
}

func sameWeek(a, b Week) bool {
	if a.Holiday || b.Holiday {
		return a.Holiday == b.Holiday && dateOf(a.Begin).Equal(dateOf(b.Begin))
	}
	return a.Number == b.Number
}

func mod(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	return a
}
