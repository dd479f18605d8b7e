package schema

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// DailyColumns is the column layout of the published daily series extract.
var DailyColumns = []string{"date", "signup_count", "rolling_avg"}

func headerMatches(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// SignupsFromRecords converts raw query engine records, header row first,
// into sign-up events. Records that fail to parse are skipped and counted,
// one bad row never aborts the batch.
func SignupsFromRecords(records [][]string) ([]RawEvent, int, error) {
	return eventsFromRecords(records, SignupColumns, SignupFromRecord)
}

// LoginsFromRecords converts raw query engine records, header row first,
// into login-with-location events.
func LoginsFromRecords(records [][]string) ([]RawEvent, int, error) {
	return eventsFromRecords(records, LoginColumns, LoginFromRecord)
}

func eventsFromRecords(records [][]string, columns []string, fromRecord func([]string) (RawEvent, error)) ([]RawEvent, int, error) {
	if len(records) == 0 {
		return nil, 0, fmt.Errorf("result set is empty, expected a header row")
	}
	if !headerMatches(records[0], columns) {
		return nil, 0, fmt.Errorf("unexpected header %v, want %v", records[0], columns)
	}
	events := make([]RawEvent, 0, len(records)-1)
	skipped := 0
	for _, record := range records[1:] {
		ev, err := fromRecord(record)
		if err != nil {
			skipped++
			continue
		}
		events = append(events, ev)
	}
	return events, skipped, nil
}

// ReadSignupEvents parses the sign-ups extract.
func ReadSignupEvents(r io.Reader) ([]RawEvent, int, error) {
	return readEvents(r, SignupColumns, SignupFromRecord)
}

// ReadLoginEvents parses the login/location extract.
func ReadLoginEvents(r io.Reader) ([]RawEvent, int, error) {
	return readEvents(r, LoginColumns, LoginFromRecord)
}

func readEvents(r io.Reader, columns []string, fromRecord func([]string) (RawEvent, error)) ([]RawEvent, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(columns)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("reading extract: %w", err)
	}
	return eventsFromRecords(records, columns, fromRecord)
}

// WriteSignupEvents renders the sign-ups extract.
func WriteSignupEvents(events []RawEvent) (*bytes.Buffer, error) {
	return writeCsv(SignupColumns, len(events), func(w *csv.Writer) error {
		for _, ev := range events {
			if err := w.Write([]string{ev.Username, ev.UserID, ev.Timestamp.Format(time.RFC3339Nano)}); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteLoginEvents renders the login/location extract.
func WriteLoginEvents(events []RawEvent) (*bytes.Buffer, error) {
	return writeCsv(LoginColumns, len(events), func(w *csv.Writer) error {
		for _, ev := range events {
			record := []string{ev.Username, ev.UserID, ev.CountryCode, ev.City, ev.Latitude, ev.Longitude, ev.Timestamp.Format(time.RFC3339Nano)}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteDailySeries renders the derived daily series extract. A nil rolling
// average is written as an empty field, not as zero.
func WriteDailySeries(series DailySeries) (*bytes.Buffer, error) {
	return writeCsv(DailyColumns, len(series), func(w *csv.Writer) error {
		for _, point := range series {
			avg := ""
			if point.RollingAvg != nil {
				avg = strconv.FormatFloat(*point.RollingAvg, 'g', -1, 64)
			}
			if err := w.Write([]string{FormatDate(point.Date), strconv.Itoa(point.Count), avg}); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReadDailySeries is the strict inverse of WriteDailySeries.
func ReadDailySeries(r io.Reader) (DailySeries, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(DailyColumns)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading daily series: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("daily series extract is empty, expected a header row")
	}
	if !headerMatches(records[0], DailyColumns) {
		return nil, fmt.Errorf("unexpected header %v, want %v", records[0], DailyColumns)
	}
	series := make(DailySeries, 0, len(records)-1)
	for _, record := range records[1:] {
		date, err := ParseDate(record[0])
		if err != nil {
			return nil, err
		}
		count, err := strconv.Atoi(record[1])
		if err != nil {
			return nil, fmt.Errorf("invalid count %q for %s: %w", record[1], record[0], err)
		}
		point := DailyPoint{Date: date, Count: count}
		if record[2] != "" {
			avg, err := strconv.ParseFloat(record[2], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid rolling average %q for %s: %w", record[2], record[0], err)
			}
			point.RollingAvg = &avg
		}
		series = append(series, point)
	}
	return series, nil
}

func writeCsv(columns []string, rows int, writeRows func(*csv.Writer) error) (*bytes.Buffer, error) {
	buffer := &bytes.Buffer{}
	buffer.Grow((rows + 1) * 64)
	writer := csv.NewWriter(buffer)
	if err := writer.Write(columns); err != nil {
		return nil, err
	}
	if err := writeRows(writer); err != nil {
		return nil, err
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buffer, nil
}
