// Package dates implements the calendar-day handling of the climate API:
// strict YYYY-MM-DD parsing, formatting and trailing windows.
package dates

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Layout is the only date shape accepted on the wire and stored in the
// measurement table.
const Layout = "2006-01-02"

var ErrInvalidDateFormat = errors.New("invalid date format")

// time.Parse alone tolerates signed years, so the shape is checked first.
var dateShapeRe = regexp.MustCompile(`^[0-9]{4}-[0-9]{2}-[0-9]{2}$`)

// InvalidDateFormatError reports a caller-supplied date that is not a valid
// YYYY-MM-DD calendar date. Field names the offending parameter.
type InvalidDateFormatError struct {
	Field string
	Value string
}

func (e *InvalidDateFormatError) Error() string {
	return fmt.Sprintf("invalid %s date format %q: expected YYYY-MM-DD", e.Field, e.Value)
}

func (e *InvalidDateFormatError) Unwrap() error {
	return ErrInvalidDateFormat
}

// Parse returns the UTC midnight of the calendar day s denotes.
func Parse(field, s string) (time.Time, error) {
	if !dateShapeRe.MatchString(s) {
		return time.Time{}, &InvalidDateFormatError{Field: field, Value: s}
	}
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, &InvalidDateFormatError{Field: field, Value: s}
	}
	return t, nil
}

func Format(t time.Time) string {
	return t.Format(Layout)
}

// TrailingWindow returns the inclusive range [anchor - days, anchor].
func TrailingWindow(anchor time.Time, days int) (start, end time.Time) {
	return anchor.AddDate(0, 0, -days), anchor
}

// Today truncates now to its UTC calendar day.
func Today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
