package model

import (
	"strings"
	"time"
)

// timeLayouts are the accepted shapes for date-like feed values and
// persisted watermarks, tried in order.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
	"2006/01/02",
}

// ParseTime parses a date-like value into UTC. Naive timestamps are
// assumed UTC. The second return is false for values no layout accepts.
func ParseTime(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// FormatTime renders a watermark timestamp in its canonical
// ISO-8601/RFC 3339 UTC form.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
