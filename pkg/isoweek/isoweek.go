// Package isoweek maps instants to ISO-8601 week keys of the form YYYY-Www.
package isoweek

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidWeek = errors.New("invalid iso week")

const dateLabelLayout = "Jan 02"

// Key returns the week key for t, evaluated in UTC.
func Key(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return Format(year, week)
}

func Format(year, week int) string {
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// Parse splits a week key into its ISO year and week.
func Parse(key string) (int, int, error) {
	parts := strings.SplitN(key, "-W", 2)
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidWeek, key)
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidWeek, key)
	}
	week, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidWeek, key)
	}

	if week < 1 || week > WeeksInYear(year) {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidWeek, key)
	}
	return year, week, nil
}

// WeeksInYear returns 52 or 53. Dec 28 always falls in the last ISO week.
func WeeksInYear(year int) int {
	_, week := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return week
}

// Bounds returns Monday 00:00:00 and Sunday 23:59:59 UTC of the given week.
func Bounds(year, week int) (time.Time, time.Time, error) {
	if week < 1 || week > 53 || week > WeeksInYear(year) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %d-W%02d", ErrInvalidWeek, year, week)
	}

	// Jan 4 is always in week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	week1Monday := jan4.AddDate(0, 0, -offset)

	start := week1Monday.AddDate(0, 0, (week-1)*7)
	end := start.AddDate(0, 0, 7).Add(-time.Second)
	return start, end, nil
}

// BoundsOf is Bounds keyed by a week key.
func BoundsOf(key string) (time.Time, time.Time, error) {
	year, week, err := Parse(key)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return Bounds(year, week)
}

// Next returns the key of the following ISO week.
func Next(key string) (string, error) {
	start, _, err := BoundsOf(key)
	if err != nil {
		return "", err
	}
	return Key(start.AddDate(0, 0, 7)), nil
}

// Prev returns the key of the preceding ISO week.
func Prev(key string) (string, error) {
	start, _, err := BoundsOf(key)
	if err != nil {
		return "", err
	}
	return Key(start.AddDate(0, 0, -7)), nil
}

// Adjacent reports whether b is the ISO week immediately after a.
func Adjacent(a, b string) bool {
	next, err := Next(a)
	if err != nil {
		return false
	}
	return next == b
}

// DateRange renders a week key as "Jan 02 - Jan 08".
func DateRange(key string) (start, end, label string, err error) {
	s, e, err := BoundsOf(key)
	if err != nil {
		return "", "", "", err
	}
	start = s.Format(dateLabelLayout)
	end = e.Format(dateLabelLayout)
	return start, end, start + " - " + end, nil
}
