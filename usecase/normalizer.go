package usecase

import (
	"log"
	"strconv"
	"time"

	"github.com/charityquest/quest-admin/schema"
)

// Normalizer reshapes raw events into the canonical derived series the
// dashboard consumes. All date bucketing goes through schema.DisplayDate so
// the daily series and the per-user log can never diverge on truncation.
type Normalizer struct {
	logger   *log.Logger
	location *time.Location
	window   int
	excluded map[string]struct{}
}

func NewNormalizer(logger *log.Logger, location *time.Location, window int, excludedUsers []string) Normalizer {
	if window < 1 {
		window = 1
	}
	excluded := make(map[string]struct{}, len(excludedUsers))
	for _, id := range excludedUsers {
		excluded[id] = struct{}{}
	}
	return Normalizer{
		logger:   logger,
		location: location,
		window:   window,
		excluded: excluded,
	}
}

// Normalize builds the gap-filled daily sign-up series and the per-user
// day log from sign-up events. Both are derived in the same pass from the
// same date buckets.
func (n Normalizer) Normalize(events []schema.RawEvent) (schema.DailySeries, []schema.UserDayRow) {
	rows := make([]schema.UserDayRow, 0, len(events))
	counts := make(map[time.Time]int, len(events))
	var minDate, maxDate time.Time
	for _, ev := range events {
		date := schema.DisplayDate(ev.Timestamp, n.location)
		rows = append(rows, schema.UserDayRow{
			UserID:    ev.UserID,
			Username:  ev.Username,
			LocalTime: ev.Timestamp.In(n.location),
			Date:      date,
		})
		counts[date]++
		if minDate.IsZero() || date.Before(minDate) {
			minDate = date
		}
		if date.After(maxDate) {
			maxDate = date
		}
	}
	if len(counts) == 0 {
		return schema.DailySeries{}, rows
	}

	// Gap-fill: one bucket per calendar date from min to max, zero counts
	// for dates without events.
	days := int(maxDate.Sub(minDate).Hours()/24) + 1
	series := make(schema.DailySeries, 0, days)
	for d := minDate; !d.After(maxDate); d = d.AddDate(0, 0, 1) {
		series = append(series, schema.DailyPoint{Date: d, Count: counts[d]})
	}

	// Trailing rolling average over the contiguous domain. The first
	// window-1 buckets have no defined value.
	sum := 0
	for i := range series {
		sum += series[i].Count
		if i >= n.window {
			sum -= series[i-n.window].Count
		}
		if i >= n.window-1 {
			avg := float64(sum) / float64(n.window)
			series[i].RollingAvg = &avg
		}
	}
	return series, rows
}

// AggregateLocations turns login events into map points: rows without a
// city are dropped, excluded accounts are dropped, repeat visits by the
// same user to the same coordinate count once, and frequency is the number
// of distinct users ever observed at the coordinate. Rows with malformed
// coordinates are skipped and counted, they never abort the batch.
func (n Normalizer) AggregateLocations(events []schema.RawEvent) ([]schema.LocationPoint, int) {
	type coordinate struct {
		lat, lon float64
	}
	type userCoordinate struct {
		userID string
		coord  coordinate
	}
	type cityCoordinate struct {
		coord coordinate
		city  string
	}

	skipped := 0
	seen := make(map[userCoordinate]struct{})
	frequencies := make(map[cityCoordinate]int)
	order := make([]cityCoordinate, 0)
	for _, ev := range events {
		// Location rows without a city usually carry junk coordinates.
		if ev.City == "" {
			continue
		}
		if _, drop := n.excluded[ev.UserID]; drop {
			continue
		}
		lat, err := strconv.ParseFloat(ev.Latitude, 64)
		if err != nil {
			skipped++
			continue
		}
		lon, err := strconv.ParseFloat(ev.Longitude, 64)
		if err != nil {
			skipped++
			continue
		}
		visit := userCoordinate{userID: ev.UserID, coord: coordinate{lat, lon}}
		if _, dup := seen[visit]; dup {
			continue
		}
		seen[visit] = struct{}{}
		key := cityCoordinate{coord: visit.coord, city: ev.City}
		if frequencies[key] == 0 {
			order = append(order, key)
		}
		frequencies[key]++
	}
	if skipped > 0 && n.logger != nil {
		n.logger.Printf("location aggregation skipped %d rows with malformed coordinates", skipped)
	}

	points := make([]schema.LocationPoint, 0, len(order))
	for _, key := range order {
		points = append(points, schema.LocationPoint{
			Latitude:  key.coord.lat,
			Longitude: key.coord.lon,
			City:      key.city,
			Frequency: frequencies[key],
		})
	}
	return points, skipped
}
