package service

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"reddit-listener/domain"

	"github.com/araddon/dateparse"
)

// TimeResolver converts heterogeneous timestamp text into a normalized
// time with a precision tag. Relative forms ("3 hr. ago") are computed
// against the reference time, which should be the fetch time of the page
// the text came from.
type TimeResolver struct {
	logger *slog.Logger
}

func NewTimeResolver(logger *slog.Logger) *TimeResolver {
	return &TimeResolver{logger: logger}
}

var relativePattern = regexp.MustCompile(`^(\d+)\s*(min(?:ute)?|hr|hour|day|week|wk|mo(?:nth)?|yr|year)s?\.?\s+ago$`)

// Resolve parses raw timestamp text. Unrecognized text yields
// domain.ErrUnresolvedTimestamp; the caller decides the inclusion policy.
func (r *TimeResolver) Resolve(raw string, reference time.Time) (domain.ResolvedTime, error) {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return domain.ResolvedTime{}, fmt.Errorf("%w: empty text", domain.ErrUnresolvedTimestamp)
	}

	switch text {
	case "just now", "now":
		return domain.ResolvedTime{Time: reference, Precision: domain.PrecisionExact}, nil
	case "yesterday":
		return domain.ResolvedTime{Time: reference.AddDate(0, 0, -1), Precision: domain.PrecisionDay}, nil
	}

	if m := relativePattern.FindStringSubmatch(text); m != nil {
		return resolveRelative(m, reference)
	}

	// Absolute forms: RFC3339 first (shreddit's created-timestamp
	// attribute), then the permissive parser for everything else.
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return domain.ResolvedTime{Time: t, Precision: domain.PrecisionExact}, nil
	}

	if t, err := dateparse.ParseAny(raw); err == nil {
		return domain.ResolvedTime{Time: t, Precision: domain.PrecisionExact}, nil
	}

	return domain.ResolvedTime{}, fmt.Errorf("%w: %q", domain.ErrUnresolvedTimestamp, raw)
}

func resolveRelative(m []string, reference time.Time) (domain.ResolvedTime, error) {
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return domain.ResolvedTime{}, fmt.Errorf("%w: %q", domain.ErrUnresolvedTimestamp, m[0])
	}

	switch unit := m[2]; {
	case strings.HasPrefix(unit, "min"):
		return domain.ResolvedTime{
			Time:      reference.Add(-time.Duration(n) * time.Minute),
			Precision: domain.PrecisionExact,
		}, nil
	case unit == "hr" || unit == "hour":
		return domain.ResolvedTime{
			Time:      reference.Add(-time.Duration(n) * time.Hour),
			Precision: domain.PrecisionHour,
		}, nil
	case unit == "day":
		return domain.ResolvedTime{
			Time:      reference.AddDate(0, 0, -n),
			Precision: domain.PrecisionDay,
		}, nil
	case unit == "week" || unit == "wk":
		return domain.ResolvedTime{
			Time:      reference.AddDate(0, 0, -7*n),
			Precision: domain.PrecisionDay,
		}, nil
	case strings.HasPrefix(unit, "mo"):
		return domain.ResolvedTime{
			Time:      reference.AddDate(0, -n, 0),
			Precision: domain.PrecisionMonth,
		}, nil
	case unit == "yr" || unit == "year":
		return domain.ResolvedTime{
			Time:      reference.AddDate(-n, 0, 0),
			Precision: domain.PrecisionYear,
		}, nil
	default:
		return domain.ResolvedTime{}, fmt.Errorf("%w: unit %q", domain.ErrUnresolvedTimestamp, unit)
	}
}
