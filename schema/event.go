package schema

import (
	"fmt"
	"time"
)

// RawEvent is one row fetched from the query engine: a quest sign-up or a
// login-with-location event. Coordinates are kept as the raw varchar values
// returned by the engine, they are only parsed when the map aggregation
// needs them so a bad coordinate can fail that row alone.
type RawEvent struct {
	UserID      string
	Username    string
	Timestamp   time.Time
	CountryCode string
	City        string
	Latitude    string
	Longitude   string
}

// Column layouts of the two published extracts. They must match the
// select lists of the extraction queries, header included.
var (
	SignupColumns = []string{"username", "entityid", "timestamp"}
	LoginColumns  = []string{"platformusername", "entityid", "countrycode", "city", "latitude", "longitude", "timestamp"}
)

// SignupFromRecord builds a sign-up event from one extract record.
func SignupFromRecord(record []string) (RawEvent, error) {
	if len(record) != len(SignupColumns) {
		return RawEvent{}, fmt.Errorf("signup record has %d fields, want %d", len(record), len(SignupColumns))
	}
	ts, err := ParseTimestamp(record[2])
	if err != nil {
		return RawEvent{}, err
	}
	return RawEvent{
		Username:  record[0],
		UserID:    record[1],
		Timestamp: ts,
	}, nil
}

// LoginFromRecord builds a login-with-location event from one extract record.
func LoginFromRecord(record []string) (RawEvent, error) {
	if len(record) != len(LoginColumns) {
		return RawEvent{}, fmt.Errorf("login record has %d fields, want %d", len(record), len(LoginColumns))
	}
	ts, err := ParseTimestamp(record[6])
	if err != nil {
		return RawEvent{}, err
	}
	return RawEvent{
		Username:    record[0],
		UserID:      record[1],
		CountryCode: record[2],
		City:        record[3],
		Latitude:    record[4],
		Longitude:   record[5],
		Timestamp:   ts,
	}, nil
}
