package dto

import (
	"time"

	"github.com/noah-isme/sma-timetable/internal/timetable"
)

// ConflictLocator pins a conflict in the week grid.
type ConflictLocator struct {
	Day  string `json:"day"`
	At   string `json:"at"`
	Week *int   `json:"week,omitempty"`
}

// EntityRef identifies one side of a conflict.
type EntityRef struct {
	Kind  string `json:"kind"`
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// Conflict is one double booking found during validation.
type Conflict struct {
	First    EntityRef        `json:"first"`
	Second   EntityRef        `json:"second"`
	Attendee string           `json:"attendee"`
	Locator  *ConflictLocator `json:"locator,omitempty"`
	Message  string           `json:"message"`
}

// ValidateRequest captures POST /timetable/validate.
type ValidateRequest struct {
	Level string `json:"level" validate:"omitempty,max=32"`
}

// ValidationReport is the outcome of a full consistency check of one level.
type ValidationReport struct {
	ID          string     `json:"id"`
	Level       string     `json:"level"`
	Consistent  bool       `json:"consistent"`
	Conflicts   []Conflict `json:"conflicts"`
	GeneratedAt time.Time  `json:"generatedAt"`
}

// CheckRequest describes a hypothetical recurring event to test against the
// stored timetable. ID excludes the stored event being edited, if any.
type CheckRequest struct {
	Level       string `json:"level" validate:"omitempty,max=32"`
	ID          int64  `json:"id" validate:"omitempty,min=1"`
	Day         int    `json:"day" validate:"min=0,max=6"`
	Begin       string `json:"begin" validate:"required"`
	End         string `json:"end" validate:"required"`
	BegWeek     int    `json:"begweek" validate:"min=0"`
	EndWeek     int    `json:"endweek" validate:"gtefield=BegWeek"`
	Periodicity int    `json:"periodicity" validate:"required,min=1"`
	Label       string `json:"label" validate:"max=128"`
	Subject     string `json:"subject" validate:"max=128"`
	Attendance  string `json:"attendance" validate:"required"`
}

// CheckAttendanceRequest captures POST /timetable/events/:id/check-attendance.
type CheckAttendanceRequest struct {
	Attendance string `json:"attendance" validate:"required"`
	Level      string `json:"level" validate:"omitempty,max=32"`
}

// CheckResponse lists every stored entity the candidate conflicts with.
type CheckResponse struct {
	Compatible bool       `json:"compatible"`
	Conflicts  []Conflict `json:"conflicts"`
}

// DayColumn is one weekday of a rendered week.
type DayColumn struct {
	Day   int                   `json:"day"`
	Name  string                `json:"name"`
	Date  time.Time             `json:"date"`
	Spans []*timetable.TimeSpan `json:"spans"`
}

// WeekTimetable is the display layout of one numbered week.
type WeekTimetable struct {
	Level      string      `json:"level"`
	Week       int         `json:"week"`
	Label      string      `json:"label"`
	Begin      time.Time   `json:"begin"`
	End        time.Time   `json:"end"`
	CurrentDay int         `json:"currentDay"`
	Hours      []string    `json:"hours"`
	Days       []DayColumn `json:"days"`
}

// PeriodicBlock is a merged grid block with its rotation breakdown.
type PeriodicBlock struct {
	timetable.MergeableSpan
	Rotations []string `json:"rotations"`
}

// PeriodicDay is one weekday of the periodic grid.
type PeriodicDay struct {
	Day    int             `json:"day"`
	Name   string          `json:"name"`
	Blocks []PeriodicBlock `json:"blocks"`
}

// PeriodicGrid is the merged layout of every recurring event of a level.
type PeriodicGrid struct {
	Level string        `json:"level"`
	Hours []string      `json:"hours"`
	Days  []PeriodicDay `json:"days"`
}

// ResolveAttendanceRequest captures POST /attendance/resolve.
type ResolveAttendanceRequest struct {
	Tokens      []string `json:"tokens" validate:"required,min=1"`
	AddTeachers bool     `json:"addTeachers"`
	Level       string   `json:"level" validate:"omitempty,max=32"`
}

// ResolveAttendanceResponse lists resolved user ids in token order.
type ResolveAttendanceResponse struct {
	UserIDs []string `json:"userIds"`
}

// FormatAttendanceRequest captures POST /attendance/format.
type FormatAttendanceRequest struct {
	Attendance string `json:"attendance" validate:"required"`
	Level      string `json:"level" validate:"omitempty,max=32"`
}

// FormatAttendanceResponse is the normalised compact form of an attendance.
type FormatAttendanceResponse struct {
	Attendance string   `json:"attendance"`
	Groups     []int    `json:"groups"`
	Names      []string `json:"names"`
}

// GenerateWeeksRequest captures POST /weeks/generate. Dates use YYYY-MM-DD.
type GenerateWeeksRequest struct {
	Start       string `json:"start" validate:"required,datetime=2006-01-02"`
	End         string `json:"end" validate:"required,datetime=2006-01-02"`
	HolidaysICS string `json:"holidaysIcs"`
}

// WeekSummary is one generated calendar week.
type WeekSummary struct {
	Number  int       `json:"number"`
	Label   string    `json:"label"`
	Begin   time.Time `json:"begin"`
	End     time.Time `json:"end"`
	Holiday bool      `json:"holiday"`
}

// CurrentDayResponse answers GET /weeks/:number/current-day.
type CurrentDayResponse struct {
	Week       int `json:"week"`
	CurrentDay int `json:"currentDay"`
}

// CurrentWeekResponse answers GET /weeks/current.
type CurrentWeekResponse struct {
	WeekSummary
	CurrentDay int `json:"currentDay"`
}
