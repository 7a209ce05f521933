// Package civil provides naive calendar date and wall-clock time values
// with second precision. A civil value carries no zone or offset: it is
// the reading of some local clock. The rule engine uses civil values for
// its local-time queries and for transition boundaries, pairing them with
// an explicit offset whenever an instant is needed.
package civil

import (
	"fmt"
	"time"

	"github.com/javierg1975/chronos-sub004/internal/datemath"
)

const secondsPerDay = 86400

// Date is a proleptic Gregorian calendar date.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the given date after validating it.
func DateOf(year int, month time.Month, day int) (Date, error) {
	if month < time.January || month > time.December {
		return Date{}, fmt.Errorf("invalid month: %d", int(month))
	}
	if day < 1 || day > datemath.DaysInMonth(year, month) {
		return Date{}, fmt.Errorf("invalid day of month: %d", day)
	}
	return Date{Year: year, Month: month, Day: day}, nil
}

// Weekday returns the day of the week.
func (d Date) Weekday() time.Weekday {
	return datemath.Weekday(d.Year, d.Month, d.Day)
}

// EpochDays returns the number of days since 1970-01-01.
func (d Date) EpochDays() int64 {
	return datemath.DaysFromCivil(d.Year, d.Month, d.Day)
}

// DateFromEpochDays is the inverse of EpochDays.
func DateFromEpochDays(days int64) Date {
	y, m, day := datemath.CivilFromDays(days)
	return Date{Year: y, Month: m, Day: day}
}

// AddDays returns the date n days later. Negative n moves backwards.
func (d Date) AddDays(n int) Date {
	return DateFromEpochDays(d.EpochDays() + int64(n))
}

// Compare returns -1, 0 or 1 depending on whether d is before, equal to
// or after other.
func (d Date) Compare(other Date) int {
	a, b := d.EpochDays(), other.EpochDays()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// DateTime is a date with a wall-clock time of day.
type DateTime struct {
	Date
	Hour   int
	Minute int
	Second int
}

// DateTimeOf returns the given date-time after validating it.
func DateTimeOf(year int, month time.Month, day, hour, minute, second int) (DateTime, error) {
	date, err := DateOf(year, month, day)
	if err != nil {
		return DateTime{}, err
	}
	if hour < 0 || hour > 23 {
		return DateTime{}, fmt.Errorf("invalid hour: %d", hour)
	}
	if minute < 0 || minute > 59 {
		return DateTime{}, fmt.Errorf("invalid minute: %d", minute)
	}
	if second < 0 || second > 59 {
		return DateTime{}, fmt.Errorf("invalid second: %d", second)
	}
	return DateTime{Date: date, Hour: hour, Minute: minute, Second: second}, nil
}

// Unix returns the seconds since 1970-01-01T00:00:00 treating dt as a UTC
// reading. It ignores leap seconds but respects leap years, like the Go
// standard library.
func (dt DateTime) Unix() int64 {
	return dt.EpochDays()*secondsPerDay + int64(dt.Hour)*3600 + int64(dt.Minute)*60 + int64(dt.Second)
}

// DateTimeFromUnix is the inverse of Unix.
func DateTimeFromUnix(sec int64) DateTime {
	days := floorDiv(sec, secondsPerDay)
	rem := int(sec - days*secondsPerDay)
	return DateTime{
		Date:   DateFromEpochDays(days),
		Hour:   rem / 3600,
		Minute: rem / 60 % 60,
		Second: rem % 60,
	}
}

// AddSeconds returns the date-time n seconds later. Negative n moves
// backwards.
func (dt DateTime) AddSeconds(n int64) DateTime {
	if n == 0 {
		return dt
	}
	return DateTimeFromUnix(dt.Unix() + n)
}

// Compare returns -1, 0 or 1 depending on whether dt is before, equal to
// or after other.
func (dt DateTime) Compare(other DateTime) int {
	a, b := dt.Unix(), other.Unix()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Before reports whether dt is before other.
func (dt DateTime) Before(other DateTime) bool { return dt.Compare(other) < 0 }

// After reports whether dt is after other.
func (dt DateTime) After(other DateTime) bool { return dt.Compare(other) > 0 }

func (dt DateTime) String() string {
	return fmt.Sprintf("%sT%02d:%02d:%02d", dt.Date, dt.Hour, dt.Minute, dt.Second)
}

// floorDiv divides rounding towards negative infinity.
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b < 0 {
		q--
	}
	return q
}
