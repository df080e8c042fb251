package utils

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/yukikurage/workforce-api/internal/constants"
)

var ErrInvalidDate = errors.New("invalid date")

// ParseDate accepts YYYY-MM-DD or RFC 3339 and reports whether only a date was given.
func ParseDate(value string) (time.Time, bool, error) {
	value = strings.TrimSpace(value)
	if t, err := time.ParseInLocation(constants.DateLayout, value, time.UTC); err == nil {
		return t, true, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, false, nil
	}
	return time.Time{}, false, ErrInvalidDate
}

// ParseDateRange parses an inclusive range. A date-only end covers the whole day.
func ParseDateRange(start, end string) (time.Time, time.Time, error) {
	from, _, err := ParseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, dateOnly, err := ParseDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if dateOnly {
		to = EndOfDay(to)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, ErrInvalidDate
	}
	return from, to, nil
}

// StartOfDay truncates t to midnight in its location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last nanosecond of t's day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).Add(24*time.Hour - time.Nanosecond)
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ParseUint64 parses a decimal identifier, returning false for anything else.
func ParseUint64(value string) (uint64, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
