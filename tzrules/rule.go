package tzrules

import (
	"fmt"
	"time"

	"github.com/javierg1975/chronos-sub004/civil"
	"github.com/javierg1975/chronos-sub004/internal/datemath"
)

// TimeMode states how a rule's cutover time of day is to be interpreted
// when converting it into an instant.
type TimeMode uint8

const (
	// TimeUTC interprets the cutover time as universal time.
	TimeUTC TimeMode = iota
	// TimeWall interprets the cutover time as local wall-clock time under
	// the offset in force before the transition.
	TimeWall
	// TimeStandard interprets the cutover time as local standard time,
	// ignoring any daylight saving in force.
	TimeStandard
)

func (m TimeMode) String() string {
	switch m {
	case TimeUTC:
		return "utc"
	case TimeWall:
		return "wall"
	case TimeStandard:
		return "standard"
	}
	return fmt.Sprintf("<undefined time mode (%d)>", uint8(m))
}

// NoWeekday marks a rule without a day-of-week constraint.
const NoWeekday time.Weekday = -1

// Rule is a yearly recurrence that produces one offset transition per
// year, like "last Sunday in October at 02:00 wall time, +02:00 to
// +01:00". Rules extend a zone's recorded transition history indefinitely
// into the future.
//
// The day of month indicator selects the candidate date within the month:
// a positive value n means day n, a negative value counts back from the
// end of the month (-1 is the last day). If a weekday is set, the
// candidate date is adjusted forward (positive indicator) or backward
// (negative indicator) to the nearest matching weekday.
type Rule struct {
	month    time.Month
	dom      int8
	dow      time.Weekday // NoWeekday if unconstrained
	secOfDay int32        // cutover time of day in seconds
	endOfDay bool         // 24:00 convention, secOfDay is 0
	mode     TimeMode
	std      Offset // standard offset in force at the cutover
	before   Offset
	after    Offset
}

// NewRule returns a validated recurrence rule.
//
// dayOfMonth must be in [-28, 31] and not zero. weekday is NoWeekday or a
// time.Weekday. secOfDay is the cutover time of day in seconds; endOfDay
// selects the 24:00 form and requires secOfDay to be zero.
func NewRule(month time.Month, dayOfMonth int, weekday time.Weekday, secOfDay int, endOfDay bool, mode TimeMode, std, before, after Offset) (Rule, error) {
	if month < time.January || month > time.December {
		return Rule{}, fmt.Errorf("rule: invalid month: %d", int(month))
	}
	if dayOfMonth == 0 || dayOfMonth < -28 || dayOfMonth > 31 {
		return Rule{}, fmt.Errorf("rule: day of month indicator out of range: %d", dayOfMonth)
	}
	if weekday != NoWeekday && (weekday < time.Sunday || weekday > time.Saturday) {
		return Rule{}, fmt.Errorf("rule: invalid weekday: %d", int(weekday))
	}
	if secOfDay < 0 || secOfDay >= 86400 {
		return Rule{}, fmt.Errorf("rule: time of day out of range: %d seconds", secOfDay)
	}
	if endOfDay && secOfDay != 0 {
		return Rule{}, fmt.Errorf("rule: end of day requires midnight time of day, got %d seconds", secOfDay)
	}
	if mode > TimeStandard {
		return Rule{}, fmt.Errorf("rule: invalid time mode: %d", uint8(mode))
	}
	return Rule{
		month:    month,
		dom:      int8(dayOfMonth),
		dow:      weekday,
		secOfDay: int32(secOfDay),
		endOfDay: endOfDay,
		mode:     mode,
		std:      std,
		before:   before,
		after:    after,
	}, nil
}

// Month returns the month the transition occurs in.
func (r Rule) Month() time.Month { return r.month }

// DayOfMonth returns the day of month indicator.
func (r Rule) DayOfMonth() int { return int(r.dom) }

// Weekday returns the day-of-week constraint, or NoWeekday.
func (r Rule) Weekday() time.Weekday { return r.dow }

// SecondOfDay returns the cutover time of day in seconds.
func (r Rule) SecondOfDay() int { return int(r.secOfDay) }

// IsEndOfDay reports whether the cutover uses the 24:00 convention.
func (r Rule) IsEndOfDay() bool { return r.endOfDay }

// Mode returns the interpretation of the cutover time.
func (r Rule) Mode() TimeMode { return r.mode }

// StandardOffset returns the standard offset in force at the cutover.
func (r Rule) StandardOffset() Offset { return r.std }

// OffsetBefore returns the offset in force before the transition.
func (r Rule) OffsetBefore() Offset { return r.before }

// OffsetAfter returns the offset in force after the transition.
func (r Rule) OffsetAfter() Offset { return r.after }

// Transition computes the concrete transition this rule produces in the
// given year. The computation is deterministic: calling it twice with the
// same year yields equal transitions.
func (r Rule) Transition(year int) Transition {
	var date civil.Date
	if r.dom < 0 {
		// Count back from the actual end of the month. In February of a
		// non-leap year -1 resolves to the 28th, and a backward weekday
		// search starts from there.
		day := datemath.DaysInMonth(year, r.month) + 1 + int(r.dom)
		date = civil.Date{Year: year, Month: r.month, Day: day}
		if r.dow != NoWeekday {
			y, m, d := datemath.PreviousOrSame(year, r.month, day, r.dow)
			date = civil.Date{Year: y, Month: m, Day: d}
		}
	} else {
		date = civil.Date{Year: year, Month: r.month, Day: int(r.dom)}
		if r.dow != NoWeekday {
			y, m, d := datemath.NextOrSame(year, r.month, int(r.dom), r.dow)
			date = civil.Date{Year: y, Month: m, Day: d}
		}
	}
	if r.endOfDay {
		date = date.AddDays(1)
	}
	dt := civil.DateTime{
		Date:   date,
		Hour:   int(r.secOfDay) / 3600,
		Minute: int(r.secOfDay) / 60 % 60,
		Second: int(r.secOfDay) % 60,
	}
	// Shift the naive reading into the wall domain of the before offset.
	switch r.mode {
	case TimeUTC:
		dt = dt.AddSeconds(int64(r.before))
	case TimeStandard:
		dt = dt.AddSeconds(int64(r.before) - int64(r.std))
	}
	return Transition{local: dt, before: r.before, after: r.after}
}

func (r Rule) String() string {
	var day string
	switch {
	case r.dow == NoWeekday:
		day = fmt.Sprintf("%d", r.dom)
	case r.dom < 0:
		day = fmt.Sprintf("%v<=%d (from end)", r.dow, -r.dom)
	default:
		day = fmt.Sprintf("%v>=%d", r.dow, r.dom)
	}
	tod := fmt.Sprintf("%02d:%02d:%02d", r.secOfDay/3600, r.secOfDay/60%60, r.secOfDay%60)
	if r.endOfDay {
		tod = "24:00:00"
	}
	return fmt.Sprintf("rule[%v %s %s %v from %v to %v]", r.month, day, tod, r.mode, r.before, r.after)
}
