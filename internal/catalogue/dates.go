package catalogue

import (
	"strings"
	"time"
)

// DateLayout is the calendar date format used for datePublished and range bounds.
const DateLayout = "2006-01-02"

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp and returns the
// calendar date at midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func parseBound(name, value string) (time.Time, error) {
	t, err := ParseDate(value)
	if err != nil {
		return time.Time{}, &dateFormatError{bound: name, value: value}
	}
	return t, nil
}

type dateFormatError struct {
	bound string
	value string
}

func (e *dateFormatError) Error() string {
	return "invalid " + e.bound + " date " + `"` + e.value + `"` + ": use YYYY-MM-DD format"
}

func (e *dateFormatError) Is(target error) bool {
	return target == ErrInvalidDateFormat
}
