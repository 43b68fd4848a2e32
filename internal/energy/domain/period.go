package domain

import (
	"strings"
	"time"
)

// PeriodKind selects the window and the bucket granularity of an aggregate.
type PeriodKind string

const (
	PeriodDay   PeriodKind = "day"
	PeriodMonth PeriodKind = "month"
	PeriodYear  PeriodKind = "year"
)

const DateLayout = "2006-01-02"

// ParsePeriod accepts day, month and year. An empty value means day.
func ParsePeriod(value string) (PeriodKind, error) {
	switch PeriodKind(strings.ToLower(strings.TrimSpace(value))) {
	case "", PeriodDay:
		return PeriodDay, nil
	case PeriodMonth:
		return PeriodMonth, nil
	case PeriodYear:
		return PeriodYear, nil
	default:
		return "", ErrInvalidPeriod
	}
}

// ParseDate reads an optional YYYY-MM-DD reference date in loc.
func ParseDate(value string, loc *time.Location) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return nil, ErrInvalidDate
	}
	return &t, nil
}

// Window is the half-open interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// CurrentWindow returns the calendar window of kind that contains ref,
// evaluated in ref's location.
func CurrentWindow(kind PeriodKind, ref time.Time) Window {
	loc := ref.Location()
	y, m, d := ref.Date()
	switch kind {
	case PeriodMonth:
		start := time.Date(y, m, 1, 0, 0, 0, 0, loc)
		return Window{Start: start, End: start.AddDate(0, 1, 0)}
	case PeriodYear:
		start := time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
		return Window{Start: start, End: start.AddDate(1, 0, 0)}
	default:
		start := time.Date(y, m, d, 0, 0, 0, 0, loc)
		return Window{Start: start, End: start.AddDate(0, 0, 1)}
	}
}

// PreviousWindow returns the window of the same kind immediately before w.
func PreviousWindow(kind PeriodKind, w Window) Window {
	switch kind {
	case PeriodMonth:
		return Window{Start: w.Start.AddDate(0, -1, 0), End: w.Start}
	case PeriodYear:
		return Window{Start: w.Start.AddDate(-1, 0, 0), End: w.Start}
	default:
		return Window{Start: w.Start.AddDate(0, 0, -1), End: w.Start}
	}
}

// BucketCount is 24 for a day, the number of days for a month and 12 for a
// year.
func BucketCount(kind PeriodKind, w Window) int {
	switch kind {
	case PeriodMonth:
		return w.End.AddDate(0, 0, -1).Day()
	case PeriodYear:
		return 12
	default:
		return 24
	}
}

// FirstBucket is 0 for hours and 1 for days and months.
func FirstBucket(kind PeriodKind) int {
	if kind == PeriodDay {
		return 0
	}
	return 1
}

// BucketOf maps t, already in the window's location, to its bucket index.
func BucketOf(kind PeriodKind, t time.Time) int {
	switch kind {
	case PeriodMonth:
		return t.Day()
	case PeriodYear:
		return int(t.Month())
	default:
		return t.Hour()
	}
}
