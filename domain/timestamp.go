package domain

import "time"

// TimePrecision tags a resolved timestamp with its tolerance window.
// Relative timestamps ("3 hours ago") get less precise the larger the
// unit; range comparisons must account for that instead of trusting
// false second-level precision.
type TimePrecision int

const (
	PrecisionExact TimePrecision = iota
	PrecisionHour
	PrecisionDay
	PrecisionMonth
	PrecisionYear
)

// Tolerance returns the implicit error window for the precision level.
func (p TimePrecision) Tolerance() time.Duration {
	switch p {
	case PrecisionExact:
		return 0
	case PrecisionHour:
		return time.Hour
	case PrecisionDay:
		return 24 * time.Hour
	case PrecisionMonth:
		return 31 * 24 * time.Hour
	case PrecisionYear:
		return 366 * 24 * time.Hour
	default:
		return 366 * 24 * time.Hour
	}
}

func (p TimePrecision) String() string {
	switch p {
	case PrecisionExact:
		return "exact"
	case PrecisionHour:
		return "hour"
	case PrecisionDay:
		return "day"
	case PrecisionMonth:
		return "month"
	case PrecisionYear:
		return "year"
	default:
		return "unknown"
	}
}

// ResolvedTime is a normalized point in time plus its precision tag.
type ResolvedTime struct {
	Time      time.Time
	Precision TimePrecision
}

// InRange reports whether the resolved time could fall inside [start, end].
// Either bound may be nil (unbounded). The tolerance window is applied on
// both sides, so a coarse value near a boundary counts as in range.
func (r ResolvedTime) InRange(start, end *time.Time) bool {
	tol := r.Precision.Tolerance()

	if start != nil && r.Time.Add(tol).Before(*start) {
		return false
	}

	if end != nil && r.Time.Add(-tol).After(*end) {
		return false
	}

	return true
}

// DefinitelyBefore reports whether the resolved time is before t even at
// the optimistic edge of its tolerance window.
func (r ResolvedTime) DefinitelyBefore(t time.Time) bool {
	return r.Time.Add(r.Precision.Tolerance()).Before(t)
}
