package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mikey/rfq-workflow/internal/extraction"
)

var dateLayouts = []string{"2006-01-02", "02/01/2006", "02-01-2006"}

// ParseDate parses a command line date. Day-first layouts are tried before
// the lenient parser so 03/04/2024 is the 3rd of April.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	t, err := dateparse.ParseIn(s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q: %w", s, err)
	}
	return t, nil
}

// NewDateRange builds the inclusive filter window from command line values.
// The end date covers its whole day.
func NewDateRange(start, end string, loc *time.Location) (extraction.DateRange, error) {
	var rng extraction.DateRange
	if start != "" {
		t, err := ParseDate(start, loc)
		if err != nil {
			return rng, err
		}
		rng.Start = t
	}
	if end != "" {
		t, err := ParseDate(end, loc)
		if err != nil {
			return rng, err
		}
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		rng.End = t
	}
	if !rng.Start.IsZero() && !rng.End.IsZero() && rng.Start.After(rng.End) {
		return rng, fmt.Errorf("start date %s is after end date %s", start, end)
	}
	return rng, nil
}
