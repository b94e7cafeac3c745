package reminder

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrParse reports a token that is not a number.
	ErrParse = errors.New("not a number")

	// ErrEmptyResult reports an input whose values were all filtered out.
	ErrEmptyResult = errors.New("no valid values")
)

// ParseDays resolves raw day-of-month input into a list of ints in [1,31].
//
// Accepted shapes: a single integer ("25"), a comma-separated list
// ("13,17,21"), or a dash-separated inclusive range ("1-5"). The dash form
// is checked first and must split into exactly two numeric halves.
// Out-of-domain values are dropped silently; the parse fails only when a
// token is not numeric (ErrParse) or nothing survives filtering
// (ErrEmptyResult). A range with start > end produces an empty set and is
// reported as ErrEmptyResult.
func ParseDays(input string) ([]int, error) {
	s := strings.TrimSpace(input)

	var days []int
	switch {
	case strings.Contains(s, "-"):
		parts := strings.Split(s, "-")
		if len(parts) != 2 {
			return nil, fmt.Errorf("range %q: %w", s, ErrParse)
		}
		start, err := parseInt(parts[0])
		if err != nil {
			return nil, err
		}
		end, err := parseInt(parts[1])
		if err != nil {
			return nil, err
		}
		for d := start; d <= end; d++ {
			days = append(days, d)
		}
	case strings.Contains(s, ","):
		for _, tok := range strings.Split(s, ",") {
			d, err := parseInt(tok)
			if err != nil {
				return nil, err
			}
			days = append(days, d)
		}
	default:
		d, err := parseInt(s)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}

	days = keepInRange(days, 1, 31)
	if len(days) == 0 {
		return nil, fmt.Errorf("days %q: %w", s, ErrEmptyResult)
	}
	return days, nil
}

// ParseHours resolves raw hour input (comma-separated 24h values) into a
// list of ints in [0,23]. Error semantics match ParseDays.
func ParseHours(input string) ([]int, error) {
	s := strings.TrimSpace(input)

	var hours []int
	for _, tok := range strings.Split(s, ",") {
		h, err := parseInt(tok)
		if err != nil {
			return nil, err
		}
		hours = append(hours, h)
	}

	hours = keepInRange(hours, 0, 23)
	if len(hours) == 0 {
		return nil, fmt.Errorf("hours %q: %w", s, ErrEmptyResult)
	}
	return hours, nil
}

func parseInt(tok string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(tok))
	if err != nil {
		return 0, fmt.Errorf("token %q: %w", strings.TrimSpace(tok), ErrParse)
	}
	return n, nil
}

func keepInRange(vals []int, lo, hi int) []int {
	n := 0
	for _, v := range vals {
		if v >= lo && v <= hi {
			vals[n] = v
			n++
		}
	}
	return vals[:n]
}

// Occurrence resolves (day, hour) to the next absolute fire time in loc.
//
// The candidate is built in the current month; if it is not strictly after
// now, it rolls forward exactly one calendar month (December wraps to
// January of the next year). A day that does not exist in the target month
// is a construction error for that pair; there is no clamping or skipping
// to a neighbouring day.
func Occurrence(day, hour int, now time.Time, loc *time.Location) (time.Time, error) {
	year, month := now.Year(), now.Month()

	t, err := makeDate(year, month, day, hour, loc)
	if err != nil {
		return time.Time{}, err
	}
	if !t.After(now) {
		if month == time.December {
			month = time.January
			year++
		} else {
			month++
		}
		t, err = makeDate(year, month, day, hour, loc)
		if err != nil {
			return time.Time{}, err
		}
	}
	return t, nil
}

// makeDate builds the timestamp and rejects day values that time.Date would
// silently normalize into the next month (e.g. April 31 -> May 1).
func makeDate(year int, month time.Month, day, hour int, loc *time.Location) (time.Time, error) {
	t := time.Date(year, month, day, hour, 0, 0, 0, loc)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("day %d does not exist in %s %d", day, month, year)
	}
	return t, nil
}
