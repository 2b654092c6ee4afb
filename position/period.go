package position

// =============================================================================
// PERIOD - Inclusive date range [Start, End]
// =============================================================================

// Period is an inclusive date range. Requests and assignments are both
// expressed as periods; a requested period is always bounded.
type Period struct {
	Start Date
	End   Date
}

// NewPeriod validates and builds a period.
func NewPeriod(start, end Date) (Period, error) {
	p := Period{Start: start, End: end}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// Validate rejects periods whose end is before their start.
func (p Period) Validate() error {
	if p.End.Before(p.Start) {
		return ErrInvalidPeriod
	}
	return nil
}

// Contains returns true if d is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Days returns the day count between Start and End, end exclusive.
// A single-day period therefore has zero days.
func (p Period) Days() int64 {
	return p.Start.DaysUntil(p.End)
}

// Overlap returns the intersection with other and whether it is non-empty.
func (p Period) Overlap(other Period) (Period, bool) {
	start := Later(p.Start, other.Start)
	end := Earlier(p.End, other.End)
	if start.After(end) {
		return Period{}, false
	}
	return Period{Start: start, End: end}, true
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
