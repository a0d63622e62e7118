package checkout

import (
	"fmt"
	"time"
)

// DateLayout is the ISO calendar date format used for every booking date.
const DateLayout = "2006-01-02"

// TimeLayout is the delivery and pickup time format.
const TimeLayout = "15:04"

// Annual plan spacing, in months after the previous date.
const (
	MinMonthsApart = 10
	MaxMonthsApart = 14
)

// ParseDate parses an ISO date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// ValidDate reports whether s is an ISO date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// ValidTime reports whether s is an HH:MM time.
func ValidTime(s string) bool {
	_, err := time.Parse(TimeLayout, s)
	return err == nil
}

// DateOf returns the calendar date of t in loc.
func DateOf(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}

// Today returns the current calendar date in loc.
func Today(loc *time.Location) string {
	return DateOf(time.Now(), loc)
}

// AddMonths moves t by n calendar months, clamping to the last day of the
// target month (Jan 31 + 1 month is Feb 28 or 29).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, t.Location())
}

// Window is the inclusive range of dates allowed for the next annual date.
type Window struct {
	Earliest string `json:"earliest"`
	Latest   string `json:"latest"`
}

// Contains reports whether date falls inside the window.
func (w Window) Contains(date string) bool {
	return date >= w.Earliest && date <= w.Latest
}

// AnnualWindow returns the range the date after prev must fall in.
func AnnualWindow(prev string) (Window, error) {
	t, err := ParseDate(prev)
	if err != nil {
		return Window{}, err
	}
	return Window{
		Earliest: AddMonths(t, MinMonthsApart).Format(DateLayout),
		Latest:   AddMonths(t, MaxMonthsApart).Format(DateLayout),
	}, nil
}
