package timetable

import (
	"fmt"
	"sort"
)

// Spanned is anything placed on a day column by its begin and end clocks.
type Spanned interface {
	Bounds() (Clock, Clock)
}

// SortError reports an operation that would break the ascending order of an
// AgendaDay. It signals caller misuse, never bad input data.
type SortError struct {
	Op    string
	Index int
}

func (e *SortError) Error() string {
	return fmt.Sprintf("agenda day: %s at %d breaks begin-time order", e.Op, e.Index)
}

// AgendaDay keeps the items of one weekday sorted by begin clock.
type AgendaDay[T Spanned] struct {
	Day   Weekday
	items []T
}

// NewAgendaDay returns an empty column for day.
func NewAgendaDay[T Spanned](day Weekday) *AgendaDay[T] {
	return &AgendaDay[T]{Day: day}
}

func begin[T Spanned](item T) Clock {
	b, _ := item.Bounds()
	return b
}

// Len returns the number of stored items, empty ones included.
func (d *AgendaDay[T]) Len() int { return len(d.items) }

// At returns the i-th stored item.
func (d *AgendaDay[T]) At(i int) T { return d.items[i] }

// Items returns the stored items, empty ones included. The slice must not be
// reordered by the caller.
func (d *AgendaDay[T]) Items() []T { return d.items }

// Spans returns the items with a non-zero length, in order.
func (d *AgendaDay[T]) Spans() []T {
	out := make([]T, 0, len(d.items))
	for _, item := range d.items {
		b, e := item.Bounds()
		if e == b {
			continue
		}
		out = append(out, item)
	}
	return out
}

// InsertIndex returns the first position whose item does not begin before o.
func (d *AgendaDay[T]) InsertIndex(o T) int {
	key := begin(o)
	return sort.Search(len(d.items), func(i int) bool { return begin(d.items[i]) >= key })
}

// UpperIndex returns the first position whose item begins after o.
func (d *AgendaDay[T]) UpperIndex(o T) int {
	key := begin(o)
	return sort.Search(len(d.items), func(i int) bool { return begin(d.items[i]) > key })
}

// Insert places o before any item with the same begin and returns its index.
func (d *AgendaDay[T]) Insert(o T) int {
	i := d.InsertIndex(o)
	d.insert(i, o)
	return i
}

// InsertAt places o at index i if that keeps the column sorted.
func (d *AgendaDay[T]) InsertAt(i int, o T) error {
	if i < 0 || i > len(d.items) {
		return &SortError{Op: "insert", Index: i}
	}
	key := begin(o)
	if (i > 0 && begin(d.items[i-1]) > key) || (i < len(d.items) && begin(d.items[i]) < key) {
		return &SortError{Op: "insert", Index: i}
	}
	d.insert(i, o)
	return nil
}

// Append adds o at the end if it does not begin before the last item.
func (d *AgendaDay[T]) Append(o T) error {
	if n := len(d.items); n > 0 && begin(o) < begin(d.items[n-1]) {
		return &SortError{Op: "append", Index: n}
	}
	d.items = append(d.items, o)
	return nil
}

// Extend appends every item of other when other starts at or after the last item.
func (d *AgendaDay[T]) Extend(other *AgendaDay[T]) error {
	if other == nil || len(other.items) == 0 {
		return nil
	}
	if n := len(d.items); n > 0 && begin(other.items[0]) < begin(d.items[n-1]) {
		return &SortError{Op: "extend", Index: n}
	}
	d.items = append(d.items, other.items...)
	return nil
}

// Reverse is never allowed on a sorted column.
func (d *AgendaDay[T]) Reverse() error {
	return &SortError{Op: "reverse", Index: 0}
}

// Delete removes the item at index i.
func (d *AgendaDay[T]) Delete(i int) {
	d.items = append(d.items[:i], d.items[i+1:]...)
}

func (d *AgendaDay[T]) insert(i int, o T) {
	var zero T
	d.items = append(d.items, zero)
	copy(d.items[i+1:], d.items[i:])
	d.items[i] = o
}
