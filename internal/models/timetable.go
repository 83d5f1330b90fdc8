package models

import (
	"time"

	"github.com/noah-isme/sma-timetable/internal/timetable"
)

// Week is one row of the academic calendar. Holiday weeks carry number 0.
type Week struct {
	ID        int64     `db:"id" json:"id"`
	Number    int       `db:"number" json:"number"`
	BeginDate time.Time `db:"begin_date" json:"begin_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	Label     string    `db:"label" json:"label"`
	Holiday   bool      `db:"holiday" json:"holiday"`
}

// PeriodicEvent is a class slot repeating every Periodicity weeks.
type PeriodicEvent struct {
	ID          int64           `db:"id" json:"id"`
	Level       string          `db:"level" json:"level"`
	Day         int             `db:"day" json:"day"`
	BeginTime   timetable.Clock `db:"begin_time" json:"begin_time"`
	EndTime     timetable.Clock `db:"end_time" json:"end_time"`
	BegWeek     int             `db:"begweek" json:"begweek"`
	EndWeek     int             `db:"endweek" json:"endweek"`
	Periodicity int             `db:"periodicity" json:"periodicity"`
	Label       string          `db:"label" json:"label"`
	Subject     string          `db:"subject" json:"subject"`
	Classroom   string          `db:"classroom" json:"classroom"`
	Attendance  string          `db:"attendance" json:"attendance"`
	NoteCount   int             `db:"note_count" json:"note_count"`
}

// BaseEvent is a one-off event. WeekNumber is nil when the event falls in a
// holiday week or outside the calendar.
type BaseEvent struct {
	ID          int64     `db:"id" json:"id"`
	Level       string    `db:"level" json:"level"`
	BeginsAt    time.Time `db:"begins_at" json:"begins_at"`
	EndsAt      time.Time `db:"ends_at" json:"ends_at"`
	WeekNumber  *int      `db:"week_number" json:"week_number,omitempty"`
	Override    bool      `db:"override" json:"override"`
	Inscription bool      `db:"inscription" json:"inscription"`
	Label       string    `db:"label" json:"label"`
	Classroom   string    `db:"classroom" json:"classroom"`
	Attendance  string    `db:"attendance" json:"attendance"`
}

// CollePlanning is one tutoring session: a weekly slot joined with the group
// planned for one week.
type CollePlanning struct {
	ID          int64           `db:"id" json:"id"`
	SlotID      int64           `db:"slot_id" json:"slot_id"`
	Level       string          `db:"level" json:"level"`
	Day         int             `db:"day" json:"day"`
	BeginTime   timetable.Clock `db:"begin_time" json:"begin_time"`
	EndTime     timetable.Clock `db:"end_time" json:"end_time"`
	Teacher     string          `db:"teacher" json:"teacher"`
	Subject     string          `db:"subject" json:"subject"`
	Classroom   string          `db:"classroom" json:"classroom"`
	GroupNumber int             `db:"group_number" json:"group_number"`
	GroupSize   int             `db:"group_size" json:"group_size"`
	WeekNumber  int             `db:"week_number" json:"week_number"`
	WeekBegin   time.Time       `db:"week_begin" json:"week_begin"`
	WeekEnd     time.Time       `db:"week_end" json:"week_end"`
	Holiday     bool            `db:"holiday" json:"holiday"`
}

// GroupMember places a student in a numbered tutoring group of a level.
type GroupMember struct {
	UserID      string `db:"user_id"`
	Level       string `db:"level"`
	GroupNumber int    `db:"group_number"`
}

// TeacherName maps a teacher's display name used in attendance strings.
type TeacherName struct {
	UserID      string `db:"user_id"`
	DisplayName string `db:"display_name"`
}

// TutoringGroup declares a group of a level, possibly without members.
type TutoringGroup struct {
	Level  string `db:"level"`
	Number int    `db:"number"`
}
