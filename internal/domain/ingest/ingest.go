// Package ingest reads raw PokerNow log records and produces the
// chronologically ordered entry sequence every downstream stage
// consumes.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/tablelog/pokerstats/internal/domain/model"
)

// Record is one raw row of the log export before timestamp parsing.
type Record struct {
	Entry     string
	Timestamp string
	Order     int
}

// permissive ISO-8601 layouts tried in order; PokerNow exports carry a
// trailing 'Z' and optional fractional seconds but no zone offset.
var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

// ReadCSV reads log records from r. The first row is treated as a
// header and skipped; rows with fewer than three fields are dropped.
// An input with no usable rows is a structural failure.
func ReadCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		if i == 0 || len(row) < 3 {
			continue
		}
		order, err := strconv.Atoi(strings.TrimSpace(row[2]))
		if err != nil {
			order = i
		}
		records = append(records, Record{
			Entry:     row[0],
			Timestamp: row[1],
			Order:     order,
		})
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	return records, nil
}

// ReadFile reads log records from the CSV file at path.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ParseTimestamp parses a log timestamp permissively. A trailing 'Z' is
// stripped first. Malformed values yield the zero time so the row sorts
// first instead of aborting the whole parse.
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSuffix(strings.TrimSpace(s), "Z")
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// Order parses each record's timestamp and returns entries sorted
// ascending by (timestamp, original order index). This ordering is the
// foundation every later stage builds on.
func Order(records []Record) []model.LogEntry {
	entries := make([]model.LogEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, model.LogEntry{
			Entry: rec.Entry,
			TS:    ParseTimestamp(rec.Timestamp),
			Order: rec.Order,
		})
	}
	slices.SortStableFunc(entries, func(a, b model.LogEntry) int {
		if c := a.TS.Compare(b.TS); c != 0 {
			return c
		}
		return a.Order - b.Order
	})
	return entries
}

// Period returns the first and last entry timestamps of an ordered
// sequence.
func Period(entries []model.LogEntry) model.Period {
	if len(entries) == 0 {
		return model.Period{}
	}
	return model.Period{
		Start: entries[0].TS,
		End:   entries[len(entries)-1].TS,
	}
}
