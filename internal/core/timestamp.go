package core

import (
	"fmt"
	"time"
)

// TimestampLayout is the fixed-width, zero-padded UTC form every stored date and
// every range bound uses. Range queries compare these strings lexicographically.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a stored date. Rows written by other tools may carry any
// RFC 3339 form, so that is accepted as a fallback.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(TimestampLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
