package feed

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Layouts carrying a zone. Lower-case "z" and "+0000" style offsets show up
// in the wild.
var offsetISOLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05.999999999z",
	"2006-01-02T15:04:05.999999999-0700",
}

// Offset-less layouts; values are read as UTC.
var localISOLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp reads a post timestamp attribute. It accepts ISO-8601 /
// RFC 3339 strings (a trailing "Z" is UTC) and integer milliseconds since the
// Unix epoch. The result is always in UTC.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	if isInteger(value) {
		ms, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid epoch milliseconds %q: %w", value, err)
		}
		return inRange(time.UnixMilli(ms).UTC())
	}

	for _, layout := range offsetISOLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return inRange(t.UTC())
		}
	}

	for _, layout := range localISOLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return inRange(t)
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// inRange rejects times RSS dates cannot express.
func inRange(t time.Time) (time.Time, error) {
	if year := t.Year(); year < 1 || year > 9999 {
		return time.Time{}, fmt.Errorf("timestamp year %d out of range", year)
	}
	return t, nil
}

func isInteger(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
