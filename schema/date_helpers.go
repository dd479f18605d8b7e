package schema

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates, in extracts, in the
// JSON the chart consumes and in the x values its click payloads carry.
const DateLayout = "2006-01-02"

// athenaTimestampLayout is the engine's varchar rendering of a timestamp
// when it is not RFC3339 ("2021-02-19 20:05:52.091").
const athenaTimestampLayout = "2006-01-02 15:04:05.999"

// DisplayDate converts a UTC instant to the calendar date observed in the
// display time zone, returned as midnight UTC so dates compare with Equal
// and sort naturally.
//
// Every date bucket in the repository must come from this function: the
// daily series and the per-user log only join correctly when both are
// truncated by the exact same rule.
func DisplayDate(utc time.Time, loc *time.Location) time.Time {
	local := utc.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a date produced by DisplayDate.
func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// ParseDate is the strict inverse of FormatDate. A datetime string, or
// anything else that is not a plain date, is rejected.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// ParseTimestamp parses an event timestamp as delivered by the query
// engine, RFC3339 first and the engine's plain rendering as fallback.
func ParseTimestamp(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts.UTC(), nil
	}
	ts, err := time.Parse(athenaTimestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return ts.UTC(), nil
}
