// Package tzrules implements the offset resolution engine for a single
// time zone: a history of standard-offset changes and daylight-saving
// transitions plus recurring rules for years beyond the recorded history.
// A Rules value answers which UTC offset applies at a given instant and
// which offset or offsets apply at a given wall-clock reading, including
// the gap and overlap cases created by clocks jumping forward or back.
package tzrules

import (
	"fmt"
)

// Offset is a fixed offset from UTC in seconds east. Positive values are
// east of Greenwich. The range is limited to +/-18 hours, which covers
// every offset ever used by a time zone with room to spare.
type Offset int32

// MaxOffsetSeconds bounds the magnitude of an Offset.
const MaxOffsetSeconds = 18 * 3600

// UTC is the zero offset.
const UTC Offset = 0

// NewOffset returns the offset for the given number of seconds east of
// UTC. It fails if the magnitude exceeds 18 hours.
func NewOffset(seconds int) (Offset, error) {
	if seconds < -MaxOffsetSeconds || seconds > MaxOffsetSeconds {
		return 0, fmt.Errorf("offset out of range: %d seconds", seconds)
	}
	return Offset(seconds), nil
}

// MustOffset is like NewOffset but panics on error. It is intended for
// constants and tests.
func MustOffset(seconds int) Offset {
	o, err := NewOffset(seconds)
	if err != nil {
		panic(err)
	}
	return o
}

// Seconds returns the offset as seconds east of UTC.
func (o Offset) Seconds() int { return int(o) }

// Compare returns -1, 0 or 1 ordering offsets by total seconds.
func (o Offset) Compare(other Offset) int {
	switch {
	case o < other:
		return -1
	case o > other:
		return 1
	}
	return 0
}

// String formats the offset as Z, +hh:mm or +hh:mm:ss.
func (o Offset) String() string {
	if o == 0 {
		return "Z"
	}
	s := int(o)
	sign := "+"
	if s < 0 {
		sign = "-"
		s = -s
	}
	if s%60 == 0 {
		return fmt.Sprintf("%s%02d:%02d", sign, s/3600, s/60%60)
	}
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, s/3600, s/60%60, s%60)
}

// ParseOffset parses the forms produced by String, e.g. "Z", "+01:00",
// "-03:30:30", as well as bare "+hh".
func ParseOffset(s string) (Offset, error) {
	if s == "Z" || s == "z" {
		return 0, nil
	}
	if len(s) < 3 || (s[0] != '+' && s[0] != '-') {
		return 0, fmt.Errorf("invalid offset %q", s)
	}
	sign := 1
	if s[0] == '-' {
		sign = -1
	}
	var h, m, sec int
	switch len(s) {
	case 3:
		if _, err := fmt.Sscanf(s[1:], "%2d", &h); err != nil {
			return 0, fmt.Errorf("invalid offset %q", s)
		}
	case 6:
		if _, err := fmt.Sscanf(s[1:], "%2d:%2d", &h, &m); err != nil {
			return 0, fmt.Errorf("invalid offset %q", s)
		}
	case 9:
		if _, err := fmt.Sscanf(s[1:], "%2d:%2d:%2d", &h, &m, &sec); err != nil {
			return 0, fmt.Errorf("invalid offset %q", s)
		}
	default:
		return 0, fmt.Errorf("invalid offset %q", s)
	}
	if m > 59 || sec > 59 {
		return 0, fmt.Errorf("invalid offset %q", s)
	}
	return NewOffset(sign * (h*3600 + m*60 + sec))
}
