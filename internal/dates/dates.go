// Package dates resolves the offset dates used as date answer bounds.
package dates

import (
	"fmt"
	"regexp"
	"time"
)

// Now is the literal that stands for the current date.
const Now = "now"

var fullDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// Parse accepts YYYY-MM-DD (with optional trailing content) or YYYY-MM.
func Parse(s string) (time.Time, error) {
	if fullDate.MatchString(s) {
		t, err := time.Parse("2006-01-02", s[:10])
		if err != nil {
			return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
		}
		return t, nil
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// AddRelative shifts t by years and months, clamping the day to the end of
// the target month (Jan 31 + 1 month is Feb 28/29), and then by days.
func AddRelative(t time.Time, years, months, days int) time.Time {
	total := int(t.Month()) - 1 + months + 12*years
	year := t.Year() + floorDiv(total, 12)
	month := time.Month(floorMod(total, 12) + 1)
	day := min(t.Day(), daysIn(year, month))
	shifted := time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	return shifted.AddDate(0, 0, days)
}

// Resolve parses value ("now" or a literal date) and applies the offset.
// now supplies the current time for the "now" literal.
func Resolve(value string, years, months, days int, now func() time.Time) (time.Time, error) {
	var base time.Time
	if value == Now {
		n := now().UTC()
		base = time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
	} else {
		t, err := Parse(value)
		if err != nil {
			return time.Time{}, err
		}
		base = t
	}
	return AddRelative(base, years, months, days), nil
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}
