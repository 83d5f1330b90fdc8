package timetable

import (
	"fmt"
	"time"
)

// Locator pins a conflict to a weekday, a time of day and, when known, a week.
type Locator struct {
	Day     Weekday
	At      Clock
	Week    int
	HasWeek bool
}

func (l Locator) String() string {
	if l.HasWeek {
		return fmt.Sprintf("%s %s, week %d", l.Day, l.At, l.Week)
	}
	return fmt.Sprintf("%s %s", l.Day, l.At)
}

// Compatibility is the outcome of comparing two entities. When Compatible is
// false, First and Second are the entities and Attendee is one person or
// group attending both.
type Compatibility struct {
	Compatible bool
	First      Entity
	Second     Entity
	Attendee   Attendee
	At         *Locator
}

// Compatible is the shared positive result.
var Compatible = Compatibility{Compatible: true}

func (c Compatibility) String() string {
	if c.Compatible {
		return "compatible"
	}
	msg := fmt.Sprintf("%s attends %s and %s", c.Attendee, c.First, c.Second)
	if c.At != nil {
		msg += " on " + c.At.String()
	}
	return msg
}

type timeCheck struct {
	conflict bool
	at       *Locator
}

var noConflict = timeCheck{}

// Check compares a and b for a double booking of a shared attendee.
func Check(a, b Entity) Compatibility {
	return CheckWith(a, b, nil)
}

// CheckWith is Check with b's attendance replaced by att when att is not nil,
// to test a hypothetical attendance without touching b.
func CheckWith(a, b Entity, att AttendeeSet) Compatibility {
	if a.Kind() == b.Kind() && a.Key() != 0 && a.Key() == b.Key() {
		return Compatible
	}
	tc := a.timeAgainst(b)
	if !tc.conflict {
		return Compatible
	}
	if att == nil {
		att = b.Attendance()
	}
	shared, ok := a.Attendance().Common(att)
	if !ok {
		return Compatible
	}
	return Compatibility{First: a, Second: b, Attendee: shared, At: tc.at}
}

func (r *Recurring) timeAgainst(other Entity) timeCheck { return other.againstRecurring(r) }

func (r *Recurring) againstRecurring(o *Recurring) timeCheck { return recurringPair(o, r) }

func (r *Recurring) againstOccurrence(o *WeeklyOccurrence) timeCheck {
	return occurrenceVsRecurring(o, r)
}

func (r *Recurring) againstPunctual(p *Punctual) timeCheck { return punctualVsRecurring(p, r) }

func (o *WeeklyOccurrence) timeAgainst(other Entity) timeCheck { return other.againstOccurrence(o) }

func (o *WeeklyOccurrence) againstRecurring(r *Recurring) timeCheck {
	return occurrenceVsRecurring(o, r)
}

func (o *WeeklyOccurrence) againstOccurrence(other *WeeklyOccurrence) timeCheck {
	return occurrencePair(other, o)
}

func (o *WeeklyOccurrence) againstPunctual(p *Punctual) timeCheck {
	return punctualVsOccurrence(p, o)
}

func (p *Punctual) timeAgainst(other Entity) timeCheck { return other.againstPunctual(p) }

func (p *Punctual) againstRecurring(r *Recurring) timeCheck { return punctualVsRecurring(p, r) }

func (p *Punctual) againstOccurrence(o *WeeklyOccurrence) timeCheck {
	return punctualVsOccurrence(p, o)
}

func (p *Punctual) againstPunctual(other *Punctual) timeCheck { return punctualPair(other, p) }

func recurringPair(a, b *Recurring) timeCheck {
	if !a.Slot().Overlaps(b.Slot()) {
		return noConflict
	}
	week, ok := commonWeek(a, b)
	if !ok {
		return noConflict
	}
	return timeCheck{conflict: true, at: &Locator{Day: a.Day, At: max(a.Begin, b.Begin), Week: week, HasWeek: true}}
}

// commonWeek finds the first week in which both events take place. Weeks of a
// are begweek_a + k*p_a; a common week exists only if gcd(p_a, p_b) divides
// begweek_a - begweek_b.
func commonWeek(a, b *Recurring) (int, bool) {
	pa, pb := a.period(), b.period()
	if mod(a.BegWeek-b.BegWeek, gcd(pa, pb)) != 0 {
		return 0, false
	}
	last := min(a.EndWeek, b.EndWeek)
	w := a.BegWeek
	if w < b.BegWeek {
		w += (b.BegWeek - w + pa - 1) / pa * pa
	}
	for ; w <= last; w += pa {
		if mod(w-b.BegWeek, pb) == 0 {
			return w, true
		}
	}
	return 0, false
}

func punctualPair(a, b *Punctual) timeCheck {
	if a.Overrides() || b.Overrides() {
		return noConflict
	}
	if !instantsOverlap(a.Begin, a.End, b.Begin, b.End) {
		return noConflict
	}
	start := laterOf(a.Begin, b.Begin)
	at := &Locator{Day: WeekdayOf(start), At: ClockOf(start)}
	if a.Week != nil {
		at.Week, at.HasWeek = a.Week.Number, !a.Week.Holiday
	}
	return timeCheck{conflict: true, at: at}
}

func punctualVsRecurring(p *Punctual, r *Recurring) timeCheck {
	if p.Overrides() || p.Week == nil {
		return noConflict
	}
	begin, end, ok := r.OccurrenceIn(*p.Week)
	if !ok || !instantsOverlap(p.Begin, p.End, begin, end) {
		return noConflict
	}
	return timeCheck{conflict: true, at: &Locator{Day: r.Day, At: r.Begin, Week: p.Week.Number, HasWeek: true}}
}

func punctualVsOccurrence(p *Punctual, o *WeeklyOccurrence) timeCheck {
	if p.Overrides() || p.Week == nil {
		return noConflict
	}
	begin, end, ok := o.OccurrenceIn(*p.Week)
	if !ok || !instantsOverlap(p.Begin, p.End, begin, end) {
		return noConflict
	}
	return timeCheck{conflict: true, at: &Locator{Day: o.Day, At: o.Begin, Week: o.Week.Number, HasWeek: !o.Week.Holiday}}
}

func occurrenceVsRecurring(o *WeeklyOccurrence, r *Recurring) timeCheck {
	if !r.OccursIn(o.Week) || !o.Slot().Overlaps(r.Slot()) {
		return noConflict
	}
	return timeCheck{conflict: true, at: &Locator{Day: o.Day, At: max(o.Begin, r.Begin), Week: o.Week.Number, HasWeek: true}}
}

func occurrencePair(a, b *WeeklyOccurrence) timeCheck {
	if !sameWeek(a.Week, b.Week) || !a.Slot().Overlaps(b.Slot()) {
		return noConflict
	}
	return timeCheck{conflict: true, at: &Locator{Day: a.Day, At: max(a.Begin, b.Begin), Week: a.Week.Number, HasWeek: !a.Week.Holiday}}
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
