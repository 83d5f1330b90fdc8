package timetable

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Rotation labels indexed by begweek mod periodicity. Week 1 maps to "A".
var (
	parityLabels = []string{"even", "odd"}
	threeLabels  = []string{"C", "A", "B"}
	fourLabels   = []string{"D", "A", "B", "C"}
)

// Occurrence is the week pattern and groups of one recurring event folded
// into a MergeableSpan.
type Occurrence struct {
	BegWeek     int    `json:"begweek"`
	EndWeek     int    `json:"endweek"`
	Groups      string `json:"groups"`
	Periodicity int    `json:"periodicity"`
	ID          int64  `json:"id"`
}

func (o Occurrence) String() string {
	if o.Periodicity == 1 {
		return o.Groups
	}
	return parityLabels[mod(o.BegWeek, 2)] + " " + o.Groups
}

// MergeableSpan is a periodic grid block. Rotations of the same class slot
// (same hours, periodicity, label and teachers) share one block and differ
// only by their occurrences.
type MergeableSpan struct {
	Day          Weekday      `json:"day"`
	Begin        Clock        `json:"begin"`
	End          Clock        `json:"end"`
	Periodicity  int          `json:"periodicity"`
	Occurrences  []Occurrence `json:"occurrences"`
	Teachers     []string     `json:"teachers"`
	Label        string       `json:"label"`
	Subject      string       `json:"subject"`
	Classroom    string       `json:"classroom"`
	Position     int          `json:"position"`
	OverlapCount int          `json:"overlap_count"`
}

// NewMergeableSpan wraps a single recurring event.
func NewMergeableSpan(r *Recurring) *MergeableSpan {
	return &MergeableSpan{
		Day:         r.Day,
		Begin:       r.Begin,
		End:         r.End,
		Periodicity: r.Periodicity,
		Occurrences: []Occurrence{{
			BegWeek:     r.BegWeek,
			EndWeek:     r.EndWeek,
			Groups:      Minify(r.Attendees.Groups()),
			Periodicity: r.Periodicity,
			ID:          r.ID,
		}},
		Teachers:     r.Attendees.Names(),
		Label:        r.FullLabel(),
		Subject:      strings.ToLower(r.Subject),
		Classroom:    r.Classroom,
		OverlapCount: 1,
	}
}

// Bounds returns the begin and end clocks.
func (m *MergeableSpan) Bounds() (Clock, Clock) { return m.Begin, m.End }

// IsSimilar reports whether m and o are the same class slot.
func (m *MergeableSpan) IsSimilar(o *MergeableSpan) bool {
	return m.Begin == o.Begin &&
		m.End == o.End &&
		m.Periodicity == o.Periodicity &&
		m.Label == o.Label &&
		slices.Equal(m.Teachers, o.Teachers)
}

// Merge appends the occurrences of o. Similarity is not checked.
func (m *MergeableSpan) Merge(o *MergeableSpan) {
	m.Occurrences = append(m.Occurrences, o.Occurrences...)
}

// Attendances returns one "labels: groups" line per distinct group string,
// sorted. Rotations deeper than four weeks yield no lines.
func (m *MergeableSpan) Attendances() []string {
	var labels []string
	switch {
	case m.Periodicity <= 1 || m.Periodicity > 4 || len(m.Occurrences) > 4:
		return nil
	case m.Periodicity == 2:
		labels = parityLabels
	case m.Periodicity == 4:
		labels = fourLabels
	default:
		labels = threeLabels
	}

	grouped := make(map[string][]string, len(m.Occurrences))
	for _, occ := range m.Occurrences {
		grouped[occ.Groups] = append(grouped[occ.Groups], labels[mod(occ.BegWeek, m.Periodicity)])
	}
	lines := make([]string, 0, len(grouped))
	for groups, tags := range grouped {
		sort.Strings(tags)
		lines = append(lines, fmt.Sprintf("%s: %s", strings.Join(tags, ", "), groups))
	}
	sort.Strings(lines)
	return lines
}

// PeriodicConstruction builds the merged periodic grid.
type PeriodicConstruction struct {
	days [DaysPerWeek]*AgendaDay[*MergeableSpan]
}

// NewPeriodicConstruction returns an empty grid.
func NewPeriodicConstruction() *PeriodicConstruction {
	pc := &PeriodicConstruction{}
	for d := range pc.days {
		pc.days[d] = NewAgendaDay[*MergeableSpan](Weekday(d))
	}
	return pc
}

// Days returns the weekday columns from Monday to Sunday.
func (pc *PeriodicConstruction) Days() []*AgendaDay[*MergeableSpan] {
	return pc.days[:]
}

// AddRecurring merges r into a similar block starting at the same time, or
// inserts a new block after the ones starting at the same time.
func (pc *PeriodicConstruction) AddRecurring(r *Recurring) error {
	if !r.Day.Valid() {
		return fmt.Errorf("recurring %d on day %d: %w", r.ID, int(r.Day), ErrInvalidDay)
	}
	ms := NewMergeableSpan(r)
	day := pc.days[r.Day]
	index := day.UpperIndex(ms)
	for i := index - 1; i >= 0 && day.At(i).Begin == ms.Begin; i-- {
		if day.At(i).IsSimilar(ms) {
			day.At(i).Merge(ms)
			return nil
		}
	}
	return day.InsertAt(index, ms)
}

// UpdateOverlaps assigns Position and OverlapCount to every block. Blocks are
// swept in begin order; each one takes the leftmost column freed before it
// starts, or opens a new one. A run ends at the first block starting at or
// after the latest end seen, and every block of the run gets the run's
// column count.
func (pc *PeriodicConstruction) UpdateOverlaps() {
	for _, day := range pc.days {
		spans := day.Items()
		n := len(spans)
		for i := 0; i < n; {
			spans[i].Position = 0
			ends := []Clock{spans[i].End}
			maxEnd := spans[i].End
			j := i + 1
			for ; j < n && spans[j].Begin < maxEnd; j++ {
				k := 0
				for k < len(ends) && spans[j].Begin < ends[k] {
					k++
				}
				if k == len(ends) {
					ends = append(ends, spans[j].End)
				} else {
					ends[k] = spans[j].End
				}
				maxEnd = max(maxEnd, spans[j].End)
				spans[j].Position = k
			}
			for k := i; k < j; k++ {
				spans[k].OverlapCount = len(ends)
			}
			i = j
		}
	}
}
