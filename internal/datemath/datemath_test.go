package datemath

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDaysInMonth(t *testing.T) {
	cases := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2021, time.January, 31},
		{2021, time.February, 28},
		{2020, time.February, 29},
		{2000, time.February, 29},
		{1900, time.February, 28},
		{2021, time.April, 30},
		{2021, time.December, 31},
	}
	for _, c := range cases {
		if got := DaysInMonth(c.year, c.month); got != c.want {
			t.Errorf("DaysInMonth(%d, %v) = %d, want %d", c.year, c.month, got, c.want)
		}
	}
}

func TestWeekday(t *testing.T) {
	cases := []struct {
		year  int
		month time.Month
		day   int
		want  time.Weekday
	}{
		{1970, time.January, 1, time.Thursday},
		{2000, time.January, 1, time.Saturday},
		{2021, time.March, 28, time.Sunday},
		{2024, time.March, 31, time.Sunday},
		{2024, time.February, 29, time.Thursday},
		{1900, time.February, 28, time.Wednesday},
	}
	for _, c := range cases {
		if got := Weekday(c.year, c.month, c.day); got != c.want {
			t.Errorf("Weekday(%d, %v, %d) = %v, want %v", c.year, c.month, c.day, got, c.want)
		}
	}
}

func TestDaysFromCivilRoundTrip(t *testing.T) {
	cases := []struct {
		year  int
		month time.Month
		day   int
		want  int64
	}{
		{1970, time.January, 1, 0},
		{1970, time.January, 2, 1},
		{1969, time.December, 31, -1},
		{2000, time.March, 1, 11017},
		{2024, time.March, 31, 19813},
		{1600, time.January, 1, -135140},
	}
	for _, c := range cases {
		if got := DaysFromCivil(c.year, c.month, c.day); got != c.want {
			t.Errorf("DaysFromCivil(%d, %v, %d) = %d, want %d", c.year, c.month, c.day, got, c.want)
		}
		y, m, d := CivilFromDays(c.want)
		got := [3]int{y, int(m), d}
		want := [3]int{c.year, int(c.month), c.day}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("CivilFromDays(%d) mismatch (-want +got):\n%s", c.want, diff)
		}
	}
}

func TestNextOrSame(t *testing.T) {
	type date struct {
		Year  int
		Month time.Month
		Day   int
	}
	cases := []struct {
		in     date
		target time.Weekday
		want   date
	}{
		// Already on the target weekday.
		{date{2021, time.March, 28}, time.Sunday, date{2021, time.March, 28}},
		// Later in the same month.
		{date{2021, time.March, 15}, time.Sunday, date{2021, time.March, 21}},
		// Rolls into the next month.
		{date{2021, time.March, 30}, time.Sunday, date{2021, time.April, 4}},
		// Rolls into the next year.
		{date{2021, time.December, 30}, time.Sunday, date{2022, time.January, 2}},
	}
	for _, c := range cases {
		y, m, d := NextOrSame(c.in.Year, c.in.Month, c.in.Day, c.target)
		if diff := cmp.Diff(c.want, date{y, m, d}); diff != "" {
			t.Errorf("NextOrSame(%+v, %v) mismatch (-want +got):\n%s", c.in, c.target, diff)
		}
	}
}

func TestPreviousOrSame(t *testing.T) {
	type date struct {
		Year  int
		Month time.Month
		Day   int
	}
	cases := []struct {
		in     date
		target time.Weekday
		want   date
	}{
		{date{2021, time.March, 28}, time.Sunday, date{2021, time.March, 28}},
		{date{2021, time.March, 15}, time.Sunday, date{2021, time.March, 14}},
		// Rolls into the previous month.
		{date{2021, time.March, 5}, time.Sunday, date{2021, time.February, 28}},
		// Rolls into the previous year.
		{date{2021, time.January, 2}, time.Sunday, date{2020, time.December, 27}},
	}
	for _, c := range cases {
		y, m, d := PreviousOrSame(c.in.Year, c.in.Month, c.in.Day, c.target)
		if diff := cmp.Diff(c.want, date{y, m, d}); diff != "" {
			t.Errorf("PreviousOrSame(%+v, %v) mismatch (-want +got):\n%s", c.in, c.target, diff)
		}
	}
}
