package schema

import "time"

// DailyPoint is one bucket of the gap-filled sign-up trend. RollingAvg is
// nil for the buckets before the first full trailing window.
type DailyPoint struct {
	Date       time.Time
	Count      int
	RollingAvg *float64
}

// DailySeries is a contiguous, strictly increasing sequence of daily
// buckets covering every calendar date between the first and the last
// observed event, zero counts included.
type DailySeries []DailyPoint

// MaxDate returns the most recent date of the series. ok is false for an
// empty series, there is no maximum date to default to.
func (s DailySeries) MaxDate() (time.Time, bool) {
	if len(s) == 0 {
		return time.Time{}, false
	}
	return s[len(s)-1].Date, true
}

// UserDayRow is one sign-up event of the per-user log. Date carries the
// DisplayDate bucket of the event and LocalTime its instant in the display
// time zone.
type UserDayRow struct {
	UserID    string
	Username  string
	LocalTime time.Time
	Date      time.Time
}

// LocationPoint is one aggregated coordinate of the activity map.
// Frequency counts distinct users ever observed at the coordinate.
type LocationPoint struct {
	Latitude  float64
	Longitude float64
	City      string
	Frequency int
}

// ClickEvent is the chart interaction payload: at least one point whose x
// value is the clicked date.
type ClickEvent struct {
	Points []ClickPoint `json:"points"`
}

// ClickPoint is a single clicked chart point.
type ClickPoint struct {
	X string `json:"x"`
}
