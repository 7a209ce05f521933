package tzrules

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/javierg1975/chronos-sub004/civil"
)

func mustRule(t *testing.T, month time.Month, dom int, dow time.Weekday, secOfDay int, endOfDay bool, mode TimeMode, std, before, after Offset) Rule {
	t.Helper()
	r, err := NewRule(month, dom, dow, secOfDay, endOfDay, mode, std, before, after)
	if err != nil {
		t.Fatalf("NewRule: %v", err)
	}
	return r
}

func TestNewRuleValidation(t *testing.T) {
	cases := []struct {
		name     string
		month    time.Month
		dom      int
		dow      time.Weekday
		secOfDay int
		endOfDay bool
		mode     TimeMode
		ok       bool
	}{
		{"valid positive dom", time.March, 25, time.Sunday, 3600, false, TimeUTC, true},
		{"valid negative dom", time.October, -1, time.Sunday, 3600, false, TimeUTC, true},
		{"valid no weekday", time.July, 15, NoWeekday, 0, false, TimeWall, true},
		{"valid end of day", time.September, 30, NoWeekday, 0, true, TimeWall, true},
		{"zero dom", time.March, 0, NoWeekday, 0, false, TimeUTC, false},
		{"dom too large", time.March, 32, NoWeekday, 0, false, TimeUTC, false},
		{"dom too negative", time.March, -29, NoWeekday, 0, false, TimeUTC, false},
		{"end of day with time", time.March, 1, NoWeekday, 3600, true, TimeUTC, false},
		{"bad month", time.Month(13), 1, NoWeekday, 0, false, TimeUTC, false},
		{"bad mode", time.March, 1, NoWeekday, 0, false, TimeMode(3), false},
		{"bad time of day", time.March, 1, NoWeekday, 86400, false, TimeUTC, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := NewRule(c.month, c.dom, c.dow, c.secOfDay, c.endOfDay, c.mode, 0, 0, MustOffset(3600))
			if (err == nil) != c.ok {
				t.Errorf("NewRule error = %v, want ok = %v", err, c.ok)
			}
		})
	}
}

func TestRuleTransitionLastSundayOfMarch(t *testing.T) {
	// Last Sunday in March at 01:00 UTC, like the EU spring rule.
	r := mustRule(t, time.March, -1, time.Sunday, 3600, false, TimeUTC, 0, 0, MustOffset(3600))

	cases := []struct {
		year int
		want civil.DateTime
	}{
		{1981, dt(t, 1981, time.March, 29, 1, 0, 0)},
		{1982, dt(t, 1982, time.March, 28, 1, 0, 0)},
		{1983, dt(t, 1983, time.March, 27, 1, 0, 0)},
		{2021, dt(t, 2021, time.March, 28, 1, 0, 0)},
		{2024, dt(t, 2024, time.March, 31, 1, 0, 0)},
	}
	for _, c := range cases {
		tr := r.Transition(c.year)
		if got := tr.Local(); got != c.want {
			t.Errorf("Transition(%d).Local() = %v, want %v", c.year, got, c.want)
		}
		if got, want := tr.OffsetBefore(), MustOffset(0); got != want {
			t.Errorf("Transition(%d).OffsetBefore() = %v, want %v", c.year, got, want)
		}
	}

	// Spec scenario: the 2024 spring transition instant.
	if got, want := r.Transition(2024).Unix(), int64(1711846800); got != want {
		t.Errorf("Transition(2024).Unix() = %d, want %d", got, want)
	}
}

func TestRuleTransitionFebruaryFromEnd(t *testing.T) {
	// A -1 indicator in February must resolve to the actual last day.
	r := mustRule(t, time.February, -1, NoWeekday, 0, false, TimeWall, 0, 0, MustOffset(1800))
	if got, want := r.Transition(2021).Local().Date, (civil.Date{Year: 2021, Month: time.February, Day: 28}); got != want {
		t.Errorf("non-leap year: %v, want %v", got, want)
	}
	if got, want := r.Transition(2020).Local().Date, (civil.Date{Year: 2020, Month: time.February, Day: 29}); got != want {
		t.Errorf("leap year: %v, want %v", got, want)
	}

	// With a weekday constraint the backward search starts from the
	// actual last day.
	r = mustRule(t, time.February, -1, time.Sunday, 0, false, TimeWall, 0, 0, MustOffset(1800))
	if got, want := r.Transition(2022).Local().Date, (civil.Date{Year: 2022, Month: time.February, Day: 27}); got != want {
		t.Errorf("2022 last Sunday: %v, want %v", got, want)
	}
	if got, want := r.Transition(2021).Local().Date, (civil.Date{Year: 2021, Month: time.February, Day: 28}); got != want {
		t.Errorf("2021 last Sunday: %v, want %v", got, want)
	}
}

func TestRuleTransitionEndOfDay(t *testing.T) {
	// 24:00 on September 30 is the same instant as October 1 00:00.
	r := mustRule(t, time.September, 30, NoWeekday, 0, true, TimeWall, 0, MustOffset(3600), MustOffset(0))
	got := r.Transition(2024).Local()
	want := dt(t, 2024, time.October, 1, 0, 0, 0)
	if got != want {
		t.Errorf("Local() = %v, want %v", got, want)
	}
}

func TestRuleTransitionTimeModes(t *testing.T) {
	std := MustOffset(3600)
	before := MustOffset(7200)
	after := MustOffset(3600)

	// The rule reads 03:00 on October 1; how that converts to the wall
	// domain of the before offset depends on the mode.
	cases := []struct {
		mode TimeMode
		want civil.DateTime
	}{
		// UTC reading: wall clock is 2h ahead.
		{TimeUTC, dt(t, 2024, time.October, 1, 5, 0, 0)},
		// Wall reading: used as is.
		{TimeWall, dt(t, 2024, time.October, 1, 3, 0, 0)},
		// Standard reading: wall clock is 1h ahead of standard.
		{TimeStandard, dt(t, 2024, time.October, 1, 4, 0, 0)},
	}
	for _, c := range cases {
		r := mustRule(t, time.October, 1, NoWeekday, 3*3600, false, c.mode, std, before, after)
		if got := r.Transition(2024).Local(); got != c.want {
			t.Errorf("mode %v: Local() = %v, want %v", c.mode, got, c.want)
		}
	}
}

func TestRuleTransitionDeterministic(t *testing.T) {
	r := mustRule(t, time.October, -1, time.Sunday, 3600, false, TimeUTC, 0, MustOffset(3600), MustOffset(0))
	a := r.Transition(2024)
	b := r.Transition(2024)
	if !a.Equal(b) {
		t.Errorf("Transition(2024) not deterministic: %v vs %v", a, b)
	}
	if got, want := a.Local(), dt(t, 2024, time.October, 27, 2, 0, 0); got != want {
		t.Errorf("Local() = %v, want %v", got, want)
	}
}

func TestRuleAccessors(t *testing.T) {
	r := mustRule(t, time.March, -1, time.Sunday, 3600, false, TimeUTC, 0, 0, MustOffset(3600))
	got := []any{r.Month(), r.DayOfMonth(), r.Weekday(), r.SecondOfDay(), r.IsEndOfDay(), r.Mode(), r.StandardOffset(), r.OffsetBefore(), r.OffsetAfter()}
	want := []any{time.March, -1, time.Sunday, 3600, false, TimeUTC, MustOffset(0), MustOffset(0), MustOffset(3600)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("accessors mismatch (-want +got):\n%s", diff)
	}
}
