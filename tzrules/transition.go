package tzrules

import (
	"fmt"

	"github.com/javierg1975/chronos-sub004/civil"
)

// Transition describes a discontinuity in the local time line of a zone:
// the instant at which the applicable offset changes from one fixed value
// to another. The transition point is stored canonically as the wall-clock
// reading under the offset in force just before the change.
//
// A transition where the offset increases is a gap: the local clock jumps
// forward and the skipped wall-clock readings never occur. A transition
// where the offset decreases is an overlap: the local clock is set back
// and the repeated readings occur twice, once under each offset.
type Transition struct {
	local  civil.DateTime
	before Offset
	after  Offset
}

// NewTransition returns a transition at the given wall-clock reading,
// expressed using the offset in force before the change. It fails if the
// two offsets are equal, since that would be no transition at all.
func NewTransition(local civil.DateTime, before, after Offset) (Transition, error) {
	if before == after {
		return Transition{}, fmt.Errorf("transition at %v: offsets must differ, both are %v", local, before)
	}
	return Transition{local: local, before: before, after: after}, nil
}

// transitionAt builds a transition from an instant and its surrounding
// offsets, projecting the instant into the wall domain of the before
// offset.
func transitionAt(unix int64, before, after Offset) Transition {
	return Transition{
		local:  civil.DateTimeFromUnix(unix + int64(before)),
		before: before,
		after:  after,
	}
}

// Unix returns the transition instant as seconds since the Unix epoch.
func (t Transition) Unix() int64 {
	return t.local.Unix() - int64(t.before)
}

// Local returns the wall-clock reading just before the transition,
// expressed using OffsetBefore.
func (t Transition) Local() civil.DateTime { return t.local }

// LocalAfter returns the wall-clock reading at the transition instant
// expressed using OffsetAfter. It denotes the same instant as Local.
func (t Transition) LocalAfter() civil.DateTime {
	return t.local.AddSeconds(int64(t.after) - int64(t.before))
}

// OffsetBefore returns the offset in force before the transition.
func (t Transition) OffsetBefore() Offset { return t.before }

// OffsetAfter returns the offset in force at and after the transition.
func (t Transition) OffsetAfter() Offset { return t.after }

// Duration returns the size of the discontinuity in seconds. It is
// positive for a gap and negative for an overlap.
func (t Transition) Duration() int {
	return int(t.after) - int(t.before)
}

// IsGap reports whether the local clock skips forward at this transition.
func (t Transition) IsGap() bool { return t.after > t.before }

// IsOverlap reports whether the local clock repeats at this transition.
func (t Transition) IsOverlap() bool { return t.after < t.before }

// IsValidOffset reports whether the given offset is a valid interpretation
// of wall-clock readings inside the discontinuity. No offset is valid
// inside a gap; exactly the two boundary offsets are valid inside an
// overlap.
func (t Transition) IsValidOffset(o Offset) bool {
	if t.IsGap() {
		return false
	}
	return o == t.before || o == t.after
}

// ValidOffsets returns the offsets valid inside the discontinuity: empty
// for a gap, the before and after offsets for an overlap.
func (t Transition) ValidOffsets() []Offset {
	if t.IsGap() {
		return nil
	}
	return []Offset{t.before, t.after}
}

// Compare orders transitions by instant only. Two transitions at the same
// instant with different offset pairs compare equal; use Equal to compare
// full values.
func (t Transition) Compare(other Transition) int {
	a, b := t.Unix(), other.Unix()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Equal reports whether both transitions have the same instant and the
// same offset pair.
func (t Transition) Equal(other Transition) bool {
	return t.local == other.local && t.before == other.before && t.after == other.after
}

func (t Transition) String() string {
	kind := "overlap"
	if t.IsGap() {
		kind = "gap"
	}
	return fmt.Sprintf("transition[%s at %v from %v to %v]", kind, t.local, t.before, t.after)
}
