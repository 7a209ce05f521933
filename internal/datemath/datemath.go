// Package datemath implements proleptic Gregorian calendar arithmetic
// without depending on time.Location. The rule engine needs to resolve
// rule dates like "last Sunday in October" for arbitrary years, including
// years far outside the range covered by loaded zone data.
package datemath

import "time"

// IsLeapYear determines if the year is a leap year.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns the number of days in a given month for a specific year.
func DaysInMonth(year int, month time.Month) int {
	switch month {
	case time.February:
		if IsLeapYear(year) {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	}
	return 31
}

// Weekday calculates the day of the week for a given date using Zeller's
// Congruence, adjusted so that Sunday=0 matches time.Weekday.
func Weekday(year int, month time.Month, day int) time.Weekday {
	m := int(month)
	if m < 3 {
		m += 12
		year--
	}
	k := year % 100
	j := year / 100
	h := (day + ((13 * (m + 1)) / 5) + k + (k / 4) + (j / 4) + (5 * j)) % 7
	return time.Weekday((h + 6) % 7)
}

// daysBeforeMonth[m] is the number of days in a non-leap year before the
// start of month m.
var daysBeforeMonth = [13]int{0, 0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}

// DaysFromCivil returns the number of days from 1970-01-01 to the given
// date. Dates before the epoch yield negative values.
func DaysFromCivil(year int, month time.Month, day int) int64 {
	// Shift to a March-based year so leap days land at the end.
	y := int64(year)
	m := int64(month)
	if m <= 2 {
		y--
	}
	var era int64
	if y >= 0 {
		era = y / 400
	} else {
		era = (y - 399) / 400
	}
	yoe := y - era*400 // [0, 399]
	var doy int64
	if m > 2 {
		doy = (153*(m-3)+2)/5 + int64(day) - 1
	} else {
		doy = (153*(m+9)+2)/5 + int64(day) - 1
	}
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return era*146097 + doe - 719468
}

// CivilFromDays is the inverse of DaysFromCivil.
func CivilFromDays(days int64) (year int, month time.Month, day int) {
	z := days + 719468
	var era int64
	if z >= 0 {
		era = z / 146097
	} else {
		era = (z - 146096) / 146097
	}
	doe := z - era*146097                                  // [0, 146096]
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365 // [0, 399]
	y := yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100) // [0, 365]
	mp := (5*doy + 2) / 153                  // [0, 11]
	d := doy - (153*mp+2)/5 + 1              // [1, 31]
	m := mp + 3
	if m > 12 {
		m -= 12
		y++
	}
	return int(y), time.Month(m), int(d)
}

// NextOrSame returns the first date with the target weekday that is on or
// after the given date, possibly in a following month or year.
func NextOrSame(year int, month time.Month, day int, target time.Weekday) (int, time.Month, int) {
	diff := int(target) - int(Weekday(year, month, day))
	if diff < 0 {
		diff += 7
	}
	return normalize(year, month, day+diff)
}

// PreviousOrSame returns the last date with the target weekday that is on
// or before the given date, possibly in a preceding month or year.
func PreviousOrSame(year int, month time.Month, day int, target time.Weekday) (int, time.Month, int) {
	diff := int(Weekday(year, month, day)) - int(target)
	if diff < 0 {
		diff += 7
	}
	return normalize(year, month, day-diff)
}

// normalize rolls a possibly out-of-range day of month into the adjacent
// month or year. The day is at most a week outside the month, so a single
// step in either direction is enough.
func normalize(year int, month time.Month, day int) (int, time.Month, int) {
	if day < 1 {
		month--
		if month < time.January {
			month = time.December
			year--
		}
		day += DaysInMonth(year, month)
	} else if n := DaysInMonth(year, month); day > n {
		day -= n
		month++
		if month > time.December {
			month = time.January
			year++
		}
	}
	return year, month, day
}
