package aggregate

import (
	"errors"
	"time"

	"fintrack/internal/core"
)

var errMissingBound = errors.New("date is missing or unparseable")

// Interval is an inclusive window of instants normalized to day boundaries.
type Interval struct {
	Start time.Time
	End   time.Time
}

// StartOfDay returns 00:00:00 of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// EndOfDay returns the last representable instant of t's calendar day in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 23, 59, 59, 999_999_999, loc)
}

// NewInterval normalizes start and end to day boundaries. A zero bound means
// the stored value could not be parsed and yields a *core.ParseError.
func NewInterval(start, end time.Time, loc *time.Location) (Interval, error) {
	if start.IsZero() {
		return Interval{}, &core.ParseError{Field: "startDate", Err: errMissingBound}
	}
	if end.IsZero() {
		return Interval{}, &core.ParseError{Field: "endDate", Err: errMissingBound}
	}
	return Interval{Start: StartOfDay(start, loc), End: EndOfDay(end, loc)}, nil
}

// Empty reports whether the window contains no instant.
func (iv Interval) Empty() bool {
	return iv.Start.After(iv.End)
}

// Contains reports whether t lies in the window, both ends inclusive.
func (iv Interval) Contains(t time.Time) bool {
	if iv.Empty() || t.IsZero() {
		return false
	}
	return !t.Before(iv.Start) && !t.After(iv.End)
}

// InInterval reports whether t falls within [StartOfDay(start), EndOfDay(end)].
func InInterval(t, start, end time.Time, loc *time.Location) bool {
	iv, err := NewInterval(start, end, loc)
	if err != nil {
		return false
	}
	return iv.Contains(t)
}

// ParseInstant parses a raw date string in the reference location.
func ParseInstant(field, value string, loc *time.Location) (time.Time, error) {
	return core.ParseDate(field, value, loc)
}
