package timetable

// Report is the outcome of a validation pass.
type Report struct {
	Consistent bool
	Conflicts  []Compatibility
}

// Validator accepts entities one by one and records the first conflict each
// rejected entity causes. Entities must be added in phase order: every
// Recurring first, then every WeeklyOccurrence, then every Punctual.
// Sunday has its own bucket like the display grid, so weekend entities are
// checked for double bookings instead of being dropped.
type Validator struct {
	days      [DaysPerWeek][]Entity
	punctuals []*Punctual
	conflicts []Compatibility
}

// NewValidator returns an empty Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// AddRecurring compares r with the entities accepted on its weekday.
func (v *Validator) AddRecurring(r *Recurring) Compatibility {
	bucket, ok := v.bucket(r.Day)
	if !ok {
		return Compatible
	}
	for _, existing := range bucket {
		if c := Check(existing, r); !c.Compatible {
			return v.reject(c)
		}
	}
	v.days[r.Day] = append(bucket, r)
	return Compatible
}

// AddOccurrence compares o with the entities accepted on its weekday.
func (v *Validator) AddOccurrence(o *WeeklyOccurrence) Compatibility {
	bucket, ok := v.bucket(o.Day)
	if !ok {
		return Compatible
	}
	for _, existing := range bucket {
		if c := Check(o, existing); !c.Compatible {
			return v.reject(c)
		}
	}
	v.days[o.Day] = append(bucket, o)
	return Compatible
}

// AddPunctual accepts override events unconditionally; other events are
// compared with every accepted entity.
func (v *Validator) AddPunctual(p *Punctual) Compatibility {
	if p.Overrides() {
		v.punctuals = append(v.punctuals, p)
		return Compatible
	}
	for _, bucket := range v.days {
		for _, existing := range bucket {
			if c := Check(p, existing); !c.Compatible {
				return v.reject(c)
			}
		}
	}
	for _, existing := range v.punctuals {
		if c := Check(p, existing); !c.Compatible {
			return v.reject(c)
		}
	}
	v.punctuals = append(v.punctuals, p)
	return Compatible
}

// Report returns the conflicts recorded so far.
func (v *Validator) Report() Report {
	conflicts := append([]Compatibility(nil), v.conflicts...)
	return Report{Consistent: len(conflicts) == 0, Conflicts: conflicts}
}

func (v *Validator) bucket(day Weekday) ([]Entity, bool) {
	if !day.Valid() {
		return nil, false
	}
	return v.days[day], true
}

func (v *Validator) reject(c Compatibility) Compatibility {
	v.conflicts = append(v.conflicts, c)
	return c
}

// Validate runs the three phases over a full batch.
func Validate(recurring []*Recurring, occurrences []*WeeklyOccurrence, punctuals []*Punctual) Report {
	v := NewValidator()
	for _, r := range recurring {
		v.AddRecurring(r)
	}
	for _, o := range occurrences {
		v.AddOccurrence(o)
	}
	for _, p := range punctuals {
		v.AddPunctual(p)
	}
	return v.Report()
}
