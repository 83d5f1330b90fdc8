package timetable

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// AllToken expands to every student of a level.
const AllToken = "all"

var rangeRe = regexp.MustCompile(`^([1-9][0-9]*)-([1-9][0-9]*)$`)

// ErrRosterNotLoaded is returned by a Resolver that was invalidated and not rebuilt.
var ErrRosterNotLoaded = errors.New("attendance roster not loaded")

// UnknownAttendeeError reports a non-numeric token matching no person or keyword.
type UnknownAttendeeError struct {
	Token string
}

func (e *UnknownAttendeeError) Error() string {
	return fmt.Sprintf("unknown attendee or group: %q", e.Token)
}

// Attendee is either a tutoring group (by number) or a named individual.
type Attendee struct {
	Name  string
	Group int
}

// GroupAttendee returns the attendee for group number n.
func GroupAttendee(n int) Attendee { return Attendee{Group: n} }

// NamedAttendee returns the attendee for a display name.
func NamedAttendee(name string) Attendee { return Attendee{Name: name} }

// IsGroup reports whether the attendee designates a group.
func (a Attendee) IsGroup() bool { return a.Name == "" }

func (a Attendee) String() string {
	if a.IsGroup() {
		return strconv.Itoa(a.Group)
	}
	return a.Name
}

func (a Attendee) less(o Attendee) bool {
	if a.IsGroup() != o.IsGroup() {
		return a.IsGroup()
	}
	if a.IsGroup() {
		return a.Group < o.Group
	}
	return a.Name < o.Name
}

// AttendeeSet is an unordered set of attendees.
type AttendeeSet map[Attendee]struct{}

// NewAttendeeSet builds a set from the given attendees.
func NewAttendeeSet(attendees ...Attendee) AttendeeSet {
	set := make(AttendeeSet, len(attendees))
	for _, a := range attendees {
		set[a] = struct{}{}
	}
	return set
}

// Add inserts a into the set.
func (s AttendeeSet) Add(a Attendee) { s[a] = struct{}{} }

// Has reports membership.
func (s AttendeeSet) Has(a Attendee) bool {
	_, ok := s[a]
	return ok
}

// Sorted lists groups in ascending order, then names alphabetically.
func (s AttendeeSet) Sorted() []Attendee {
	out := make([]Attendee, 0, len(s))
	for a := range s {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].less(out[j]) })
	return out
}

// Groups returns the sorted group numbers of the set.
func (s AttendeeSet) Groups() []int {
	groups := make([]int, 0, len(s))
	for a := range s {
		if a.IsGroup() {
			groups = append(groups, a.Group)
		}
	}
	sort.Ints(groups)
	return groups
}

// Names returns the sorted individual names of the set.
func (s AttendeeSet) Names() []string {
	names := make([]string, 0, len(s))
	for a := range s {
		if !a.IsGroup() {
			names = append(names, a.Name)
		}
	}
	sort.Strings(names)
	return names
}

// Common returns one attendee present in both sets. The smallest shared
// attendee is chosen so results are reproducible.
func (s AttendeeSet) Common(o AttendeeSet) (Attendee, bool) {
	small, large := s, o
	if len(o) < len(s) {
		small, large = o, s
	}
	found := false
	var best Attendee
	for a := range small {
		if !large.Has(a) {
			continue
		}
		if !found || a.less(best) {
			best, found = a, true
		}
	}
	return best, found
}

// Minify collapses a sorted list of unique integers into comma separated
// ranges, e.g. [1 2 3 5 7 8 9] becomes "1-3,5,7-9".
func Minify(groups []int) string {
	n := len(groups)
	if n == 0 {
		return ""
	}
	parts := make([]string, 0, n)
	for i := 0; i < n; {
		beg, end := groups[i], groups[i]
		i++
		for i < n && groups[i] == end+1 {
			end = groups[i]
			i++
		}
		if beg == end {
			parts = append(parts, strconv.Itoa(beg))
		} else {
			parts = append(parts, strconv.Itoa(beg)+"-"+strconv.Itoa(end))
		}
	}
	return strings.Join(parts, ",")
}

// Explode expands one compact token: "a-b" yields groups a..b inclusive, an
// integer yields that group, anything else is a name literal.
func Explode(token string) []Attendee {
	token = strings.TrimSpace(token)
	if m := rangeRe.FindStringSubmatch(token); m != nil {
		beg, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		out := make([]Attendee, 0, max(end-beg+1, 0))
		for g := beg; g <= end; g++ {
			out = append(out, GroupAttendee(g))
		}
		return out
	}
	if n, err := strconv.Atoi(token); err == nil {
		return []Attendee{GroupAttendee(n)}
	}
	return []Attendee{NamedAttendee(token)}
}

// ParseAttendance explodes every comma separated token of an attendance string.
func ParseAttendance(raw string) []Attendee {
	var out []Attendee
	for _, token := range strings.Split(raw, ",") {
		if strings.TrimSpace(token) == "" {
			continue
		}
		out = append(out, Explode(token)...)
	}
	return out
}

// ResolveAttendance turns a stored attendance string into its attendee set.
func ResolveAttendance(raw string) AttendeeSet {
	return NewAttendeeSet(ParseAttendance(raw)...)
}

// FormatAttendance renders a set back into its compact string form: group
// ranges first, then names.
func FormatAttendance(set AttendeeSet) string {
	parts := make([]string, 0, 2)
	if groups := Minify(set.Groups()); groups != "" {
		parts = append(parts, groups)
	}
	parts = append(parts, set.Names()...)
	return strings.Join(parts, ",")
}

// Member places one student in a numbered group of a level.
type Member struct {
	UserID string
	Level  string
	Group  int
}

// Teacher is a person addressable by display name in attendance strings.
type Teacher struct {
	UserID      string
	DisplayName string
}

// GroupRef declares an existing group, even if it has no member yet.
type GroupRef struct {
	Level  string
	Number int
}

// Roster is the membership snapshot a Resolver indexes.
type Roster struct {
	DefaultLevel string
	Members      []Member
	Teachers     []Teacher
	Groups       []GroupRef
}

type levelIndex struct {
	groups   map[int][]string
	students []string
	compact  string
}

type rosterIndex struct {
	defaultLevel string
	teachers     map[string][]string
	teacherNames []string
	levels       map[string]*levelIndex
}

// Resolver maps attendance tokens to user ids per level. The index is built
// from an explicit Roster and stays valid until Invalidate is called. A
// Resolver is not safe for concurrent mutation.
type Resolver struct {
	index *rosterIndex
}

// NewResolver returns an empty, not yet loaded Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Loaded reports whether Resolve can be served from the cached index.
func (r *Resolver) Loaded() bool { return r.index != nil }

// Invalidate drops the cached index. Callers must Load again before resolving.
func (r *Resolver) Invalidate() { r.index = nil }

// Load (re)builds the index from roster.
func (r *Resolver) Load(roster Roster) {
	idx := &rosterIndex{
		defaultLevel: roster.DefaultLevel,
		teachers:     make(map[string][]string, len(roster.Teachers)),
		levels:       make(map[string]*levelIndex),
	}
	for _, t := range roster.Teachers {
		if _, ok := idx.teachers[t.DisplayName]; !ok {
			idx.teacherNames = append(idx.teacherNames, t.DisplayName)
		}
		idx.teachers[t.DisplayName] = append(idx.teachers[t.DisplayName], t.UserID)
	}
	sort.Strings(idx.teacherNames)

	for _, m := range roster.Members {
		lvl := idx.level(m.Level)
		lvl.groups[m.Group] = append(lvl.groups[m.Group], m.UserID)
		lvl.students = append(lvl.students, m.UserID)
	}

	numbers := make(map[string][]int)
	for _, g := range roster.Groups {
		idx.level(g.Level)
		numbers[g.Level] = append(numbers[g.Level], g.Number)
	}
	for level, nbs := range numbers {
		sort.Ints(nbs)
		idx.levels[level].compact = Minify(dedupInts(nbs))
	}
	r.index = idx
}

func (idx *rosterIndex) level(name string) *levelIndex {
	lvl, ok := idx.levels[name]
	if !ok {
		lvl = &levelIndex{groups: make(map[int][]string)}
		idx.levels[name] = lvl
	}
	return lvl
}

// Resolve converts attendance tokens into the user ids they designate for
// level (empty level means the roster default). Unknown names fail with
// *UnknownAttendeeError; unknown group numbers contribute nobody.
func (r *Resolver) Resolve(tokens []string, addTeachers bool, level string) ([]string, error) {
	if r.index == nil {
		return nil, ErrRosterNotLoaded
	}
	if len(tokens) == 1 && tokens[0] == "" {
		return []string{}, nil
	}
	if level == "" {
		level = r.index.defaultLevel
	}
	if addTeachers {
		tokens = append(append([]string(nil), tokens...), r.index.teacherNames...)
	}
	lvl := r.index.levels[level]

	seenTokens := make(map[string]struct{}, len(tokens))
	seenUsers := make(map[string]struct{})
	out := []string{}
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if _, dup := seenTokens[token]; dup {
			continue
		}
		seenTokens[token] = struct{}{}
		for _, att := range Explode(token) {
			users, err := r.index.lookup(lvl, att)
			if err != nil {
				return nil, err
			}
			for _, u := range users {
				if _, dup := seenUsers[u]; dup {
					continue
				}
				seenUsers[u] = struct{}{}
				out = append(out, u)
			}
		}
	}
	return out, nil
}

func (idx *rosterIndex) lookup(lvl *levelIndex, att Attendee) ([]string, error) {
	if att.IsGroup() {
		if lvl == nil {
			return nil, nil
		}
		return lvl.groups[att.Group], nil
	}
	if att.Name == AllToken {
		if lvl == nil {
			return nil, nil
		}
		return lvl.students, nil
	}
	if users, ok := idx.teachers[att.Name]; ok {
		return users, nil
	}
	return nil, &UnknownAttendeeError{Token: att.Name}
}

// AttendanceString replaces the "all" token of raw with the minified list of
// the level's groups.
func (r *Resolver) AttendanceString(raw, level string) (string, error) {
	if r.index == nil {
		return "", ErrRosterNotLoaded
	}
	if level == "" {
		level = r.index.defaultLevel
	}
	tokens := strings.Split(raw, ",")
	replaced := false
	for i, token := range tokens {
		if strings.TrimSpace(token) != AllToken {
			continue
		}
		compact := ""
		if lvl := r.index.levels[level]; lvl != nil {
			compact = lvl.compact
		}
		tokens[i] = compact
		replaced = true
	}
	if !replaced {
		return raw, nil
	}
	kept := tokens[:0]
	for _, token := range tokens {
		if token != "" {
			kept = append(kept, token)
		}
	}
	return strings.Join(kept, ","), nil
}

func dedupInts(sorted []int) []int {
	out := sorted[:0]
	for i, n := range sorted {
		if i == 0 || n != sorted[i-1] {
			out = append(out, n)
		}
	}
	return out
}
