// Package daterange parses and validates the search period entered by the user.
package daterange

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DashedLayout is the YYYY-MM-DD form used by the portal's date inputs.
	DashedLayout = "2006-01-02"
	// CompactLayout is the YYYYMMDD form accepted by older portal builds.
	CompactLayout = "20060102"
	// DefaultMaxSpanDays is the longest period the portal allows in one search.
	DefaultMaxSpanDays = 60
)

var (
	ErrInvalidFormat = errors.New("date must be in YYYY-MM-DD or YYYYMMDD format")
	ErrStartAfterEnd = errors.New("start date is after end date")
	ErrSpanTooLong   = errors.New("date range exceeds the maximum span")
)

// Range is a validated, inclusive search period.
type Range struct {
	Start time.Time
	End   time.Time
}

// Parse reads both dates, accepting either supported layout, and checks that
// start is not after end and that the span does not exceed maxSpanDays.
// A maxSpanDays of zero or less disables the span check.
func Parse(start, end string, maxSpanDays int) (Range, error) {
	startDate, err := parseDate(start)
	if err != nil {
		return Range{}, fmt.Errorf("start date %q: %w", start, err)
	}

	endDate, err := parseDate(end)
	if err != nil {
		return Range{}, fmt.Errorf("end date %q: %w", end, err)
	}

	rng := Range{Start: startDate, End: endDate}
	if err = rng.Validate(maxSpanDays); err != nil {
		return Range{}, err
	}

	return rng, nil
}

// MonthToDate returns the range from the first day of now's month through now.
func MonthToDate(now time.Time) Range {
	day := truncate(now)

	return Range{
		Start: time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location()),
		End:   day,
	}
}

// Validate checks ordering and span.
func (r Range) Validate(maxSpanDays int) error {
	if r.Start.After(r.End) {
		return ErrStartAfterEnd
	}

	if diff := r.SpanDays(); maxSpanDays > 0 && diff > maxSpanDays {
		return fmt.Errorf("%w: %d days, limit is %d", ErrSpanTooLong, diff, maxSpanDays)
	}

	return nil
}

// SpanDays is the number of days between start and end.
func (r Range) SpanDays() int {
	const day = 24 * time.Hour

	return int(truncate(r.End).Sub(truncate(r.Start)) / day)
}

// Format renders both ends in the given layout.
func (r Range) Format(layout string) (string, string) {
	return r.Start.Format(layout), r.End.Format(layout)
}

// String echoes the range back the way the CLI confirms it, e.g.
// "2025-11-01 ~ 2025-11-05 (5 days)".
func (r Range) String() string {
	start, end := r.Format(DashedLayout)

	return fmt.Sprintf("%s ~ %s (%d days)", start, end, r.SpanDays()+1)
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{DashedLayout, CompactLayout} {
		if parsed, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return parsed, nil
		}
	}

	return time.Time{}, ErrInvalidFormat
}

func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
