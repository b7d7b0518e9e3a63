package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	errZeroDate   = errors.New("date is missing or unparseable")
	errEmptyValue = errors.New("empty value")
	errOverflow   = errors.New("value out of range")
)

// ParseError reports a value that could not be converted at the boundary.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("parse %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("parse %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Layouts with an explicit offset are parsed as-is; the rest are read in the
// reference location.
var (
	zonedLayouts = []string{time.RFC3339Nano, time.RFC3339}
	localLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
)

// ParseDate parses a calendar date or timestamp. Values without an offset
// are interpreted in loc (UTC when nil).
func ParseDate(field, value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := strings.TrimSpace(value)
	if s == "" {
		return time.Time{}, &ParseError{Field: field, Value: value, Err: errEmptyValue}
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	var lastErr error
	for _, layout := range localLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, &ParseError{Field: field, Value: value, Err: lastErr}
}

// FormatDate renders a stored timestamp in a lossless, sortable form.
func FormatDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
