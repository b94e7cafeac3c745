package reminder

import (
	"errors"
	"testing"
	"time"
)

func TestParseDaysVariants(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		raw   string
		want  []int
		extra error
	}{
		{name: "single", raw: "25", want: []int{25}},
		{name: "list", raw: "13,17,21", want: []int{13, 17, 21}},
		{name: "list with spaces", raw: " 1 , 2 ", want: []int{1, 2}},
		{name: "range", raw: "1-5", want: []int{1, 2, 3, 4, 5}},
		{name: "filtered partial", raw: "0,15,99", want: []int{15}},
		{name: "non numeric", raw: "abc", extra: ErrParse},
		{name: "bad range token", raw: "1-x", extra: ErrParse},
		{name: "triple dash", raw: "1-2-3", extra: ErrParse},
		{name: "reversed range", raw: "9-3", extra: ErrEmptyResult},
		{name: "all filtered", raw: "0,32", extra: ErrEmptyResult},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDays(tt.raw)
			if tt.extra != nil {
				if !errors.Is(err, tt.extra) {
					t.Fatalf("ParseDays(%q) error = %v, want %v", tt.raw, err, tt.extra)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDays(%q) error: %v", tt.raw, err)
			}
			if !equalInts(got, tt.want) {
				t.Fatalf("ParseDays(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseHoursVariants(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		raw   string
		want  []int
		extra error
	}{
		{name: "single", raw: "9", want: []int{9}},
		{name: "midnight kept", raw: "0", want: []int{0}},
		{name: "list", raw: "9,14,18", want: []int{9, 14, 18}},
		{name: "filtered partial", raw: "9,24", want: []int{9}},
		{name: "non numeric", raw: "noon", extra: ErrParse},
		{name: "all filtered", raw: "24,25", extra: ErrEmptyResult},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHours(tt.raw)
			if tt.extra != nil {
				if !errors.Is(err, tt.extra) {
					t.Fatalf("ParseHours(%q) error = %v, want %v", tt.raw, err, tt.extra)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHours(%q) error: %v", tt.raw, err)
			}
			if !equalInts(got, tt.want) {
				t.Fatalf("ParseHours(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestOccurrenceRollsForward(t *testing.T) {
	t.Parallel()
	loc := time.FixedZone("TST", 5*3600+1800)
	now := time.Date(2024, time.March, 15, 10, 0, 0, 0, loc)

	tests := []struct {
		name string
		day  int
		hour int
		want time.Time
	}{
		{name: "future this month", day: 20, hour: 6, want: time.Date(2024, time.March, 20, 6, 0, 0, 0, loc)},
		{name: "later today", day: 15, hour: 18, want: time.Date(2024, time.March, 15, 18, 0, 0, 0, loc)},
		{name: "earlier today rolls", day: 15, hour: 6, want: time.Date(2024, time.April, 15, 6, 0, 0, 0, loc)},
		{name: "past day rolls", day: 1, hour: 6, want: time.Date(2024, time.April, 1, 6, 0, 0, 0, loc)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := Occurrence(tt.day, tt.hour, now, loc)
			if err != nil {
				t.Fatalf("Occurrence(%d, %d) error: %v", tt.day, tt.hour, err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("Occurrence(%d, %d) = %v, want %v", tt.day, tt.hour, got, tt.want)
			}
		})
	}
}

func TestOccurrenceExactNowRolls(t *testing.T) {
	t.Parallel()
	loc := time.UTC
	now := time.Date(2024, time.March, 15, 10, 0, 0, 0, loc)

	got, err := Occurrence(15, 10, now, loc)
	if err != nil {
		t.Fatalf("Occurrence error: %v", err)
	}
	want := time.Date(2024, time.April, 15, 10, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("Occurrence at now = %v, want next month %v", got, want)
	}
}

func TestOccurrenceDecemberWraps(t *testing.T) {
	t.Parallel()
	loc := time.UTC
	now := time.Date(2024, time.December, 20, 12, 0, 0, 0, loc)

	got, err := Occurrence(5, 9, now, loc)
	if err != nil {
		t.Fatalf("Occurrence error: %v", err)
	}
	want := time.Date(2025, time.January, 5, 9, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("Occurrence = %v, want %v", got, want)
	}
}

func TestOccurrenceInvalidCalendarDay(t *testing.T) {
	t.Parallel()
	loc := time.UTC
	// March 31 at 10:00 has passed, so day 31 targets April, which has 30 days.
	now := time.Date(2024, time.March, 31, 12, 0, 0, 0, loc)

	if _, err := Occurrence(31, 10, now, loc); err == nil {
		t.Fatal("expected error for day 31 in April")
	}

	// February never has day 30.
	now = time.Date(2024, time.February, 1, 0, 0, 0, 0, loc)
	if _, err := Occurrence(30, 10, now, loc); err == nil {
		t.Fatal("expected error for day 30 in February")
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
