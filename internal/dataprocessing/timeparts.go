package dataprocessing

import (
	"strings"
	"time"

	"orderpulse/internal/config"
	"orderpulse/internal/table"
)

// timestampLayouts are tried in order. Layouts without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05Z0700",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

// ParseTimestamp parses text into a UTC instant
func ParseTimestamp(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, text, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ParseDatetime replaces a text column with a UTC timestamp column.
// Unparseable values become null; their count is returned.
func ParseDatetime(frame *table.Frame, column string) (*table.Frame, int, error) {
	col, ok := frame.Column(column)
	if !ok {
		return frame, 0, nil
	}
	if _, already := col.(*table.Series[time.Time]); already {
		return frame, 0, nil
	}

	failed := 0
	parsed := table.Map(AsText(col), column, func(v string) (time.Time, bool) {
		t, ok := ParseTimestamp(v)
		if !ok {
			failed++
		}
		return t, ok
	})

	out, err := frame.With(parsed)
	if err != nil {
		return nil, 0, err
	}
	return out, failed, nil
}

// MondayWeekday maps time.Weekday to Monday=0 ... Sunday=6
func MondayWeekday(t time.Time) int64 {
	return int64((t.Weekday() + 6) % 7)
}

// AddTimeParts derives year, month, day, hour, weekday (Monday=0) and
// date_only from a timestamp column. Null timestamps give null parts.
func AddTimeParts(frame *table.Frame, column string) (*table.Frame, error) {
	ts, err := table.Get[time.Time](frame, column)
	if err != nil {
		return nil, err
	}

	part := func(name string, fn func(time.Time) int64) table.Column {
		return table.Map(ts, name, func(t time.Time) (int64, bool) { return fn(t), true })
	}

	return frame.MustWith(
		part(config.ColYear, func(t time.Time) int64 { return int64(t.Year()) }),
		part(config.ColMonth, func(t time.Time) int64 { return int64(t.Month()) }),
		part(config.ColDay, func(t time.Time) int64 { return int64(t.Day()) }),
		part(config.ColHour, func(t time.Time) int64 { return int64(t.Hour()) }),
		part(config.ColWeekday, MondayWeekday),
		table.Map(ts, config.ColDateOnly, func(t time.Time) (string, bool) {
			return t.Format("2006-01-02"), true
		}),
	), nil
}
