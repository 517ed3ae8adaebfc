package core

import (
	"errors"
	"strings"
	"time"
)

// Period is a symbolic reporting window.
type Period string

const (
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
	PeriodAll   Period = "all"
)

var ErrInvalidPeriod = errors.New("invalid period")

// Periods lists the accepted periods in the order the report picker shows them.
var Periods = []Period{PeriodToday, PeriodWeek, PeriodMonth, PeriodYear, PeriodAll}

// Range is an inclusive interval of occurrence dates.
type Range struct {
	Start time.Time
	End   time.Time
}

// ParsePeriod maps a user supplied name to a Period. The empty string means all.
func ParsePeriod(s string) (Period, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PeriodAll, nil
	}
	for _, p := range Periods {
		if string(p) == s {
			return p, nil
		}
	}
	return "", ErrInvalidPeriod
}

func (p Period) String() string {
	return string(p)
}

// Resolve turns p into concrete bounds in now's location. bounded is false for
// PeriodAll (and any unknown period): callers must list everything instead of
// querying a range.
//
// Month and year ends stop at hh:mm:59 with no millisecond component while today
// and week end at .999. The asymmetry is long-standing observed behavior.
func Resolve(p Period, now time.Time) (r Range, bounded bool) {
	loc := now.Location()
	y, m, d := now.Date()

	switch p {
	case PeriodToday:
		return Range{
			Start: time.Date(y, m, d, 0, 0, 0, 0, loc),
			End:   time.Date(y, m, d, 23, 59, 59, 999*int(time.Millisecond), loc),
		}, true

	case PeriodWeek:
		// Monday starts the week; Sunday closes it.
		offset := (int(now.Weekday()) + 6) % 7
		return Range{
			Start: time.Date(y, m, d-offset, 0, 0, 0, 0, loc),
			End:   time.Date(y, m, d-offset+6, 23, 59, 59, 999*int(time.Millisecond), loc),
		}, true

	case PeriodMonth:
		return Range{
			Start: time.Date(y, m, 1, 0, 0, 0, 0, loc),
			End:   time.Date(y, m+1, 0, 23, 59, 59, 0, loc),
		}, true

	case PeriodYear:
		return Range{
			Start: time.Date(y, time.January, 1, 0, 0, 0, 0, loc),
			End:   time.Date(y, time.December, 31, 23, 59, 59, 0, loc),
		}, true
	}

	return Range{}, false
}
