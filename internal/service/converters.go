package service

import (
	"fmt"
	"time"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/timetable"
)

func dateIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func toWeek(w models.Week, loc *time.Location) timetable.Week {
	return timetable.Week{
		Number:  w.Number,
		Begin:   dateIn(w.BeginDate, loc),
		End:     dateIn(w.EndDate, loc),
		Label:   w.Label,
		Holiday: w.Holiday,
	}
}

func toRecurring(ev models.PeriodicEvent, att timetable.AttendeeSet) *timetable.Recurring {
	return &timetable.Recurring{
		ID:          ev.ID,
		Day:         timetable.Weekday(ev.Day),
		Begin:       ev.BeginTime,
		End:         ev.EndTime,
		BegWeek:     ev.BegWeek,
		EndWeek:     ev.EndWeek,
		Periodicity: ev.Periodicity,
		Label:       ev.Label,
		Subject:     ev.Subject,
		Classroom:   ev.Classroom,
		NoteCount:   ev.NoteCount,
		Attendees:   att,
	}
}

func toOccurrence(p models.CollePlanning, loc *time.Location) *timetable.WeeklyOccurrence {
	return &timetable.WeeklyOccurrence{
		ID:     p.ID,
		SlotID: p.SlotID,
		Week: timetable.Week{
			Number:  p.WeekNumber,
			Begin:   dateIn(p.WeekBegin, loc),
			End:     dateIn(p.WeekEnd, loc),
			Holiday: p.Holiday,
		},
		Group:      p.GroupNumber,
		GroupEmpty: p.GroupSize == 0,
		Teacher:    p.Teacher,
		Day:        timetable.Weekday(p.Day),
		Begin:      p.BeginTime,
		End:        p.EndTime,
		Subject:    p.Subject,
		Classroom:  p.Classroom,
	}
}

func toPunctual(ev models.BaseEvent, att timetable.AttendeeSet, week *timetable.Week, loc *time.Location) *timetable.Punctual {
	return &timetable.Punctual{
		ID:          ev.ID,
		Begin:       ev.BeginsAt.In(loc),
		End:         ev.EndsAt.In(loc),
		Week:        week,
		Override:    ev.Override,
		Inscription: ev.Inscription,
		Label:       ev.Label,
		Classroom:   ev.Classroom,
		Attendees:   att,
	}
}

// weekIndex finds the calendar week of an event, numbered weeks first.
type weekIndex struct {
	byNumber map[int]*timetable.Week
	all      []*timetable.Week
}

func newWeekIndex(weeks []models.Week, loc *time.Location) *weekIndex {
	idx := &weekIndex{byNumber: make(map[int]*timetable.Week, len(weeks))}
	for _, w := range weeks {
		week := toWeek(w, loc)
		idx.all = append(idx.all, &week)
		if !week.Holiday {
			idx.byNumber[week.Number] = &week
		}
	}
	return idx
}

func (idx *weekIndex) forEvent(ev models.BaseEvent, loc *time.Location) *timetable.Week {
	if ev.WeekNumber != nil {
		if w, ok := idx.byNumber[*ev.WeekNumber]; ok {
			return w
		}
	}
	begin := ev.BeginsAt.In(loc)
	for _, w := range idx.all {
		if w.Contains(begin) {
			return w
		}
	}
	return nil
}

func entityRef(e timetable.Entity) dto.EntityRef {
	return dto.EntityRef{Kind: e.Kind().String(), ID: e.Key(), Label: e.String()}
}

func toConflict(c timetable.Compatibility) dto.Conflict {
	out := dto.Conflict{
		First:    entityRef(c.First),
		Second:   entityRef(c.Second),
		Attendee: c.Attendee.String(),
		Message:  c.String(),
	}
	if c.At != nil {
		loc := &dto.ConflictLocator{Day: c.At.Day.String(), At: c.At.At.String()}
		if c.At.HasWeek {
			week := c.At.Week
			loc.Week = &week
		}
		out.Locator = loc
	}
	return out
}

func toConflicts(list []timetable.Compatibility) []dto.Conflict {
	out := make([]dto.Conflict, 0, len(list))
	for _, c := range list {
		out = append(out, toConflict(c))
	}
	return out
}

func hourLabels() []string {
	hours := timetable.Hours()
	out := make([]string, len(hours))
	for i, h := range hours {
		out[i] = h.String()
	}
	return out
}

func levelOrDefault(level, fallback string) string {
	if level != "" {
		return level
	}
	return fallback
}

func parseSlot(day int, begin, end string) (timetable.Slot, error) {
	b, err := timetable.ParseClock(begin)
	if err != nil {
		return timetable.Slot{}, err
	}
	e, err := timetable.ParseClock(end)
	if err != nil {
		return timetable.Slot{}, err
	}
	if e <= b {
		return timetable.Slot{}, fmt.Errorf("end %s must be after begin %s", e, b)
	}
	slot := timetable.Slot{Day: timetable.Weekday(day), Begin: b, End: e}
	if !slot.Day.Valid() {
		return timetable.Slot{}, timetable.ErrInvalidDay
	}
	return slot, nil
}
