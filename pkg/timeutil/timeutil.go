// Package timeutil provides calendar-date helpers.
// Tournament and challenge dates are plain calendar dates with no time zone,
// so they are normalised to midnight UTC everywhere.
package timeutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04"
	// FormatDottedDate is the DD.MM.YYYY format.
	FormatDottedDate = "02.01.2006"
	// FormatHumanDate is a human-readable format.
	FormatHumanDate = "2 January 2006"
)

// acceptedLayouts are tried in order by ParseDate.
var acceptedLayouts = []string{
	FormatDate,
	time.RFC3339,
	FormatDateTime,
	FormatDottedDate,
}

// ErrEmptyDate is returned for blank input.
var ErrEmptyDate = errors.New("date is empty")

// Date creates a calendar date at midnight UTC.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// StartOfDay drops the clock part, keeping the calendar date as written.
func StartOfDay(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a calendar date. Accepted inputs are YYYY-MM-DD,
// RFC 3339, "YYYY-MM-DD HH:MM" and DD.MM.YYYY; any clock part is dropped.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrEmptyDate
	}

	for _, layout := range acceptedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return StartOfDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q: expected YYYY-MM-DD", value)
}

// FormatDateStr formats a time as YYYY-MM-DD.
func FormatDateStr(t time.Time) string {
	return t.UTC().Format(FormatDate)
}
