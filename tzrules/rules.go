package tzrules

import (
	"fmt"
	"sort"
	"sync"

	"github.com/javierg1975/chronos-sub004/civil"
)

// maxRules bounds the number of recurrence rules a zone may carry. The
// wire format stores the count in a single byte and no real zone has ever
// needed more than two.
const maxRules = 16

// lastCachedYear caps the per-year transition cache to bound memory.
// Transitions for later years are recomputed on every query.
const lastCachedYear = 2100

// Rules is the complete set of offset rules for a single time zone: a
// sorted history of standard-offset changes, a sorted history of actual
// offset transitions, and up to 16 recurrence rules that extend the
// history beyond its last recorded transition.
//
// A Rules value is immutable and safe for concurrent use. The only
// mutable state is a cache of rule-generated transitions per year, whose
// population is deterministic and idempotent.
type Rules struct {
	// standardTransitions holds the instants at which the standard offset
	// changed. standardOffsets has one more entry than transitions:
	// standardOffsets[i+1] applies at and after standardTransitions[i].
	standardTransitions []int64
	standardOffsets     []Offset

	// savingsInstants holds the instants of all recorded transitions,
	// with the same one-longer indexing convention for wallOffsets.
	savingsInstants []int64
	wallOffsets     []Offset

	// savingsLocal pairs the wall-clock boundaries of each recorded
	// transition, ordered ascending to support binary search: (before,
	// after) for a gap, (after, before) for an overlap.
	savingsLocal []civil.DateTime

	// lastRules generate transitions for years beyond the recorded
	// history, in chronological order within a year.
	lastRules []Rule

	mu        sync.Mutex
	yearCache map[int][]Transition
}

// FixedRules returns the rules for a zone that always uses the same
// offset.
func FixedRules(offset Offset) *Rules {
	return &Rules{
		standardOffsets: []Offset{offset},
		wallOffsets:     []Offset{offset},
	}
}

// NewRules builds the rules for a zone from its base offsets, its
// recorded standard-offset and wall-offset transition histories, and its
// recurrence rules.
//
// Both transition lists must be chronological and internally consistent:
// each transition's before offset must equal the previous transition's
// after offset (or the base offset for the first). At most 16 rules are
// accepted. Violations are rejected here rather than surfacing as wrong
// answers from later binary searches.
func NewRules(baseStandard, baseWall Offset, standard, transitions []Transition, rules []Rule) (*Rules, error) {
	if len(rules) > maxRules {
		return nil, fmt.Errorf("too many transition rules: %d, limit is %d", len(rules), maxRules)
	}

	r := &Rules{
		standardTransitions: make([]int64, len(standard)),
		standardOffsets:     make([]Offset, len(standard)+1),
		savingsInstants:     make([]int64, len(transitions)),
		wallOffsets:         make([]Offset, len(transitions)+1),
		savingsLocal:        make([]civil.DateTime, 0, 2*len(transitions)),
		lastRules:           append([]Rule(nil), rules...),
	}

	r.standardOffsets[0] = baseStandard
	for i, t := range standard {
		if t.OffsetBefore() != r.standardOffsets[i] {
			return nil, fmt.Errorf("standard transition %d: before offset %v does not continue %v", i, t.OffsetBefore(), r.standardOffsets[i])
		}
		if i > 0 && t.Unix() <= r.standardTransitions[i-1] {
			return nil, fmt.Errorf("standard transition %d: instants not strictly ascending", i)
		}
		r.standardTransitions[i] = t.Unix()
		r.standardOffsets[i+1] = t.OffsetAfter()
	}

	r.wallOffsets[0] = baseWall
	for i, t := range transitions {
		if t.OffsetBefore() != r.wallOffsets[i] {
			return nil, fmt.Errorf("transition %d: before offset %v does not continue %v", i, t.OffsetBefore(), r.wallOffsets[i])
		}
		if i > 0 && t.Unix() <= r.savingsInstants[i-1] {
			return nil, fmt.Errorf("transition %d: instants not strictly ascending", i)
		}
		if t.IsGap() {
			r.savingsLocal = append(r.savingsLocal, t.Local(), t.LocalAfter())
		} else {
			r.savingsLocal = append(r.savingsLocal, t.LocalAfter(), t.Local())
		}
		r.savingsInstants[i] = t.Unix()
		r.wallOffsets[i+1] = t.OffsetAfter()
	}

	return r, nil
}

// IsFixed reports whether the zone always uses the same offset. A fixed
// zone has no recorded transitions and never consults rules.
func (r *Rules) IsFixed() bool {
	return len(r.savingsInstants) == 0
}

// OffsetAt returns the offset in force at the given instant, expressed as
// seconds since the Unix epoch. The instant of a transition itself
// belongs to the after side.
func (r *Rules) OffsetAt(unix int64) Offset {
	if len(r.savingsInstants) == 0 {
		return r.wallOffsets[0]
	}
	last := r.savingsInstants[len(r.savingsInstants)-1]
	if len(r.lastRules) > 0 && unix > last {
		wall := r.wallOffsets[len(r.wallOffsets)-1]
		trans := r.transitionsInYear(yearOf(unix, wall))
		var t Transition
		for _, t = range trans {
			if unix < t.Unix() {
				return t.OffsetBefore()
			}
		}
		return t.OffsetAfter()
	}
	return r.wallOffsets[searchInstants(r.savingsInstants, unix)+1]
}

// StandardOffsetAt returns the standard offset in force at the given
// instant, ignoring daylight saving.
func (r *Rules) StandardOffsetAt(unix int64) Offset {
	if len(r.standardTransitions) == 0 {
		return r.standardOffsets[0]
	}
	return r.standardOffsets[searchInstants(r.standardTransitions, unix)+1]
}

// DaylightSavingAt returns the daylight saving in force at the given
// instant, in seconds. It is zero when standard time applies.
func (r *Rules) DaylightSavingAt(unix int64) int {
	return r.OffsetAt(unix).Seconds() - r.StandardOffsetAt(unix).Seconds()
}

// IsDaylightSavingAt reports whether the offset in force at the given
// instant differs from the standard offset.
func (r *Rules) IsDaylightSavingAt(unix int64) bool {
	return r.OffsetAt(unix) != r.StandardOffsetAt(unix)
}

// OffsetFor returns the best single offset for a wall-clock reading. In
// the normal case it is the one valid offset. Inside a gap or overlap it
// is the offset in force before the transition, which is a usable default
// but not the only defensible choice; use ValidOffsets or TransitionAt to
// handle those cases explicitly.
func (r *Rules) OffsetFor(dt civil.DateTime) Offset {
	o, t, ok := r.offsetInfo(dt)
	if ok {
		return t.OffsetBefore()
	}
	return o
}

// ValidOffsets returns the offsets valid for a wall-clock reading: one
// offset in the normal case, none inside a gap, and the two boundary
// offsets in ascending order inside an overlap.
func (r *Rules) ValidOffsets(dt civil.DateTime) []Offset {
	o, t, ok := r.offsetInfo(dt)
	if !ok {
		return []Offset{o}
	}
	if t.IsGap() {
		return nil
	}
	// An overlap's after offset is always the smaller of the two.
	return []Offset{t.OffsetAfter(), t.OffsetBefore()}
}

// TransitionAt returns the transition bracketing a wall-clock reading that
// falls inside a gap or overlap. It reports false for readings with
// exactly one valid offset.
func (r *Rules) TransitionAt(dt civil.DateTime) (Transition, bool) {
	_, t, ok := r.offsetInfo(dt)
	return t, ok
}

// offsetInfo classifies a wall-clock reading: either a single unambiguous
// offset, or the gap/overlap transition containing it.
func (r *Rules) offsetInfo(dt civil.DateTime) (Offset, Transition, bool) {
	if len(r.savingsInstants) == 0 {
		return r.wallOffsets[0], Transition{}, false
	}

	// Beyond the last recorded local boundary the rules take over.
	if len(r.lastRules) > 0 && dt.After(r.savingsLocal[len(r.savingsLocal)-1]) {
		trans := r.transitionsInYear(dt.Year)
		var (
			o     Offset
			t     Transition
			inDst bool
		)
		for _, tr := range trans {
			o, t, inDst = classify(dt, tr)
			if inDst || o == tr.OffsetBefore() {
				return o, t, inDst
			}
		}
		return o, t, inDst
	}

	idx := sort.Search(len(r.savingsLocal), func(i int) bool {
		return dt.Compare(r.savingsLocal[i]) <= 0
	})
	switch {
	case idx == len(r.savingsLocal) || dt.Before(r.savingsLocal[idx]):
		// Strictly between boundaries (or past the end): step back to the
		// boundary at or before dt.
		idx--
	case idx < len(r.savingsLocal)-1 && r.savingsLocal[idx] == r.savingsLocal[idx+1]:
		// An overlap starting exactly where a gap ended produces two equal
		// boundaries; the reading belongs to the later pair.
		idx++
	}
	if idx < 0 {
		// Before the first recorded boundary.
		return r.wallOffsets[0], Transition{}, false
	}
	if idx&1 == 0 {
		// Between an even boundary and the next odd one: inside the
		// discontinuity itself.
		before := r.wallOffsets[idx/2]
		after := r.wallOffsets[idx/2+1]
		if after > before {
			// Gap: the even boundary is the local-before reading.
			return 0, Transition{local: r.savingsLocal[idx], before: before, after: after}, true
		}
		// Overlap: the odd boundary is the local-before reading.
		return 0, Transition{local: r.savingsLocal[idx+1], before: before, after: after}, true
	}
	return r.wallOffsets[idx/2+1], Transition{}, false
}

// classify resolves a wall-clock reading against a single transition,
// reporting either the applicable offset or that the reading falls inside
// the transition's gap or overlap.
func classify(dt civil.DateTime, t Transition) (Offset, Transition, bool) {
	if t.IsGap() {
		if dt.Before(t.Local()) {
			return t.OffsetBefore(), Transition{}, false
		}
		if dt.Before(t.LocalAfter()) {
			return 0, t, true
		}
		return t.OffsetAfter(), Transition{}, false
	}
	if !dt.Before(t.Local()) {
		return t.OffsetAfter(), Transition{}, false
	}
	if dt.Before(t.LocalAfter()) {
		return t.OffsetBefore(), Transition{}, false
	}
	return 0, t, true
}

// NextTransition returns the first transition strictly after the given
// instant. It reports false only when no transition follows, which for a
// zone with rules never happens.
func (r *Rules) NextTransition(unix int64) (Transition, bool) {
	if len(r.savingsInstants) == 0 {
		return Transition{}, false
	}
	last := r.savingsInstants[len(r.savingsInstants)-1]
	if unix >= last {
		if len(r.lastRules) == 0 {
			return Transition{}, false
		}
		wall := r.wallOffsets[len(r.wallOffsets)-1]
		year := yearOf(unix, wall)
		for _, t := range r.transitionsInYear(year) {
			if unix < t.Unix() {
				return t, true
			}
		}
		return r.transitionsInYear(year + 1)[0], true
	}
	idx := sort.Search(len(r.savingsInstants), func(i int) bool {
		return r.savingsInstants[i] > unix
	})
	return transitionAt(r.savingsInstants[idx], r.wallOffsets[idx], r.wallOffsets[idx+1]), true
}

// PreviousTransition returns the latest transition whose instant is
// strictly before the given instant. It reports false when the instant
// does not follow any recorded transition.
func (r *Rules) PreviousTransition(unix int64) (Transition, bool) {
	if len(r.savingsInstants) == 0 {
		return Transition{}, false
	}
	last := r.savingsInstants[len(r.savingsInstants)-1]
	if len(r.lastRules) > 0 && unix > last {
		wall := r.wallOffsets[len(r.wallOffsets)-1]
		year := yearOf(unix, wall)
		trans := r.transitionsInYear(year)
		for i := len(trans) - 1; i >= 0; i-- {
			if unix > trans[i].Unix() {
				return trans[i], true
			}
		}
		if year-1 > yearOf(last, wall) {
			trans = r.transitionsInYear(year - 1)
			return trans[len(trans)-1], true
		}
		// Fall through to the recorded history.
	}
	idx := sort.Search(len(r.savingsInstants), func(i int) bool {
		return r.savingsInstants[i] >= unix
	})
	if idx == 0 {
		return Transition{}, false
	}
	return transitionAt(r.savingsInstants[idx-1], r.wallOffsets[idx-1], r.wallOffsets[idx]), true
}

// Transitions returns the recorded transitions in chronological order.
// Rule-generated future transitions are not included.
func (r *Rules) Transitions() []Transition {
	out := make([]Transition, len(r.savingsInstants))
	for i, unix := range r.savingsInstants {
		out[i] = transitionAt(unix, r.wallOffsets[i], r.wallOffsets[i+1])
	}
	return out
}

// StandardTransitions returns the recorded changes to the standard
// offset in chronological order.
func (r *Rules) StandardTransitions() []Transition {
	out := make([]Transition, len(r.standardTransitions))
	for i, unix := range r.standardTransitions {
		out[i] = transitionAt(unix, r.standardOffsets[i], r.standardOffsets[i+1])
	}
	return out
}

// TransitionRules returns the recurrence rules in chronological order
// within a year.
func (r *Rules) TransitionRules() []Rule {
	return append([]Rule(nil), r.lastRules...)
}

// Equal reports whether two rule sets hold the same data.
func (r *Rules) Equal(other *Rules) bool {
	if r == other {
		return true
	}
	if other == nil {
		return false
	}
	return slicesEqual(r.standardTransitions, other.standardTransitions) &&
		slicesEqual(r.standardOffsets, other.standardOffsets) &&
		slicesEqual(r.savingsInstants, other.savingsInstants) &&
		slicesEqual(r.wallOffsets, other.wallOffsets) &&
		slicesEqual(r.lastRules, other.lastRules)
}

func slicesEqual[T comparable](a, b []T) bool {
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

// transitionsInYear returns the transitions the rules generate for one
// year, cached for years below the cache horizon. Racing populations
// compute identical arrays, so the cache needs no more than a mutex.
func (r *Rules) transitionsInYear(year int) []Transition {
	r.mu.Lock()
	if trans, ok := r.yearCache[year]; ok {
		r.mu.Unlock()
		return trans
	}
	r.mu.Unlock()

	trans := make([]Transition, len(r.lastRules))
	for i, rule := range r.lastRules {
		trans[i] = rule.Transition(year)
	}

	if year < lastCachedYear {
		r.mu.Lock()
		if r.yearCache == nil {
			r.yearCache = make(map[int][]Transition)
		}
		if cached, ok := r.yearCache[year]; ok {
			trans = cached
		} else {
			r.yearCache[year] = trans
		}
		r.mu.Unlock()
	}
	return trans
}

// yearOf returns the civil year of an instant under the given offset.
func yearOf(unix int64, offset Offset) int {
	return civil.DateTimeFromUnix(unix + int64(offset)).Year
}

// searchInstants returns the index of the last transition at or before
// unix, or -1 when unix precedes every transition. The offset stored
// after that transition is the one in force.
func searchInstants(instants []int64, unix int64) int {
	return sort.Search(len(instants), func(i int) bool {
		return instants[i] > unix
	}) - 1
}
