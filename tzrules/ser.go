package tzrules

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// Serialized form. Each serialized value starts with a one-byte type tag
// followed by the payload for that type. The payload encodings are
// compact: offsets and instants that fall on quarter-hour boundaries use
// short forms, everything else escapes to a full-width integer. The
// layout is a wire-compatibility contract; bit positions and escape
// sentinels must not change.
const (
	tagRules      byte = 1
	tagTransition byte = 2
	tagRule       byte = 3
)

// NOTE: All multi-octet integer values are stored big-endian with two's
// complement for signed values.
var order = binary.BigEndian

// Bounds of the 3-byte compact instant window. Only instants in
// [epochSecBase, epochSecMax) that are multiples of 900 seconds use the
// compact form; the window keeps the first stored byte below the 0xFF
// escape sentinel.
const (
	epochSecBase = -4575744000
	epochSecMax  = 10413792000
)

// Encode writes v to w as a tagged serialized value. v must be a *Rules,
// a Transition or a Rule.
func Encode(w io.Writer, v any) error {
	switch x := v.(type) {
	case *Rules:
		if err := writeByte(w, tagRules); err != nil {
			return err
		}
		return writeRules(w, x)
	case Transition:
		if err := writeByte(w, tagTransition); err != nil {
			return err
		}
		return writeTransition(w, x)
	case Rule:
		if err := writeByte(w, tagRule); err != nil {
			return err
		}
		return writeRule(w, x)
	}
	return fmt.Errorf("encode: unsupported type %T", v)
}

// Decode reads one tagged serialized value from r. The result is a
// *Rules, a Transition or a Rule depending on the type tag.
func Decode(r io.Reader) (any, error) {
	tag, err := readByte(r)
	if err != nil {
		return nil, fmt.Errorf("decode: reading type tag: %w", err)
	}
	switch tag {
	case tagRules:
		return readRules(r)
	case tagTransition:
		return readTransition(r)
	case tagRule:
		return readRule(r)
	}
	return nil, fmt.Errorf("decode: invalid type tag: %d", tag)
}

// Write writes the rule set to w in its tagged serialized form.
func (r *Rules) Write(w io.Writer) error {
	return Encode(w, r)
}

// ReadRules reads a tagged serialized rule set from r. It fails if the
// stream holds a different type.
func ReadRules(r io.Reader) (*Rules, error) {
	v, err := Decode(r)
	if err != nil {
		return nil, err
	}
	rules, ok := v.(*Rules)
	if !ok {
		return nil, fmt.Errorf("decode: expected rule set, got %T", v)
	}
	return rules, nil
}

// Rule set payload: each transition table as a count plus compact
// instants, each offset table with one more entry than its transition
// table, then a one-byte rule count and the packed rules.
func writeRules(w io.Writer, r *Rules) error {
	if err := binary.Write(w, order, int32(len(r.standardTransitions))); err != nil {
		return err
	}
	for _, sec := range r.standardTransitions {
		if err := writeEpochSec(w, sec); err != nil {
			return err
		}
	}
	for _, o := range r.standardOffsets {
		if err := writeOffset(w, o); err != nil {
			return err
		}
	}
	if err := binary.Write(w, order, int32(len(r.savingsInstants))); err != nil {
		return err
	}
	for _, sec := range r.savingsInstants {
		if err := writeEpochSec(w, sec); err != nil {
			return err
		}
	}
	for _, o := range r.wallOffsets {
		if err := writeOffset(w, o); err != nil {
			return err
		}
	}
	if err := writeByte(w, byte(len(r.lastRules))); err != nil {
		return err
	}
	for _, rule := range r.lastRules {
		if err := writeRule(w, rule); err != nil {
			return err
		}
	}
	return nil
}

func readRules(r io.Reader) (*Rules, error) {
	var stdCount int32
	if err := binary.Read(r, order, &stdCount); err != nil {
		return nil, fmt.Errorf("reading standard transition count: %w", err)
	}
	if stdCount < 0 {
		return nil, fmt.Errorf("invalid standard transition count: %d", stdCount)
	}
	stdTrans := make([]int64, stdCount)
	for i := range stdTrans {
		sec, err := readEpochSec(r)
		if err != nil {
			return nil, fmt.Errorf("reading standard transition %d: %w", i, err)
		}
		stdTrans[i] = sec
	}
	stdOffsets := make([]Offset, stdCount+1)
	for i := range stdOffsets {
		o, err := readOffset(r)
		if err != nil {
			return nil, fmt.Errorf("reading standard offset %d: %w", i, err)
		}
		stdOffsets[i] = o
	}
	var savCount int32
	if err := binary.Read(r, order, &savCount); err != nil {
		return nil, fmt.Errorf("reading transition count: %w", err)
	}
	if savCount < 0 {
		return nil, fmt.Errorf("invalid transition count: %d", savCount)
	}
	savings := make([]int64, savCount)
	for i := range savings {
		sec, err := readEpochSec(r)
		if err != nil {
			return nil, fmt.Errorf("reading transition %d: %w", i, err)
		}
		savings[i] = sec
	}
	wallOffsets := make([]Offset, savCount+1)
	for i := range wallOffsets {
		o, err := readOffset(r)
		if err != nil {
			return nil, fmt.Errorf("reading wall offset %d: %w", i, err)
		}
		wallOffsets[i] = o
	}
	ruleCount, err := readByte(r)
	if err != nil {
		return nil, fmt.Errorf("reading rule count: %w", err)
	}
	if ruleCount > maxRules {
		return nil, fmt.Errorf("too many transition rules: %d, limit is %d", ruleCount, maxRules)
	}
	rules := make([]Rule, ruleCount)
	for i := range rules {
		rule, err := readRule(r)
		if err != nil {
			return nil, fmt.Errorf("reading rule %d: %w", i, err)
		}
		rules[i] = rule
	}
	return newRulesFromTables(stdTrans, stdOffsets, savings, wallOffsets, rules)
}

// newRulesFromTables rebuilds a rule set from its raw tables, rederiving
// the paired local boundaries and validating the invariants the lookup
// algorithms depend on. A stream that decodes into inconsistent tables
// fails here rather than producing a rule set that answers wrongly.
func newRulesFromTables(stdTrans []int64, stdOffsets []Offset, savings []int64, wallOffsets []Offset, rules []Rule) (*Rules, error) {
	for i := 1; i < len(stdTrans); i++ {
		if stdTrans[i] <= stdTrans[i-1] {
			return nil, fmt.Errorf("standard transitions not strictly ascending at %d", i)
		}
	}
	r := &Rules{
		standardTransitions: stdTrans,
		standardOffsets:     stdOffsets,
		savingsInstants:     savings,
		wallOffsets:         wallOffsets,
		lastRules:           rules,
	}
	for i, sec := range savings {
		if i > 0 && sec <= savings[i-1] {
			return nil, fmt.Errorf("transitions not strictly ascending at %d", i)
		}
		if wallOffsets[i] == wallOffsets[i+1] {
			return nil, fmt.Errorf("transition %d: equal offsets %v on both sides", i, wallOffsets[i])
		}
		t := transitionAt(sec, wallOffsets[i], wallOffsets[i+1])
		if t.IsGap() {
			r.savingsLocal = append(r.savingsLocal, t.Local(), t.LocalAfter())
		} else {
			r.savingsLocal = append(r.savingsLocal, t.LocalAfter(), t.Local())
		}
	}
	return r, nil
}

// Transition payload: the instant, then the offsets on both sides.
func writeTransition(w io.Writer, t Transition) error {
	if err := writeEpochSec(w, t.Unix()); err != nil {
		return err
	}
	if err := writeOffset(w, t.before); err != nil {
		return err
	}
	return writeOffset(w, t.after)
}

func readTransition(r io.Reader) (Transition, error) {
	sec, err := readEpochSec(r)
	if err != nil {
		return Transition{}, fmt.Errorf("reading transition instant: %w", err)
	}
	before, err := readOffset(r)
	if err != nil {
		return Transition{}, fmt.Errorf("reading before offset: %w", err)
	}
	after, err := readOffset(r)
	if err != nil {
		return Transition{}, fmt.Errorf("reading after offset: %w", err)
	}
	if before == after {
		return Transition{}, fmt.Errorf("invalid transition: equal offsets %v", before)
	}
	return transitionAt(sec, before, after), nil
}

// Rule payload: one bit-packed big-endian 32-bit word
//
//	+------+--------+-----+-------+----+----------+----+----+
//	|month | dom+32 | dow | time  |mode| stdOffset| bd | ad |
//	| (4)  |  (6)   | (3) |  (5)  |(2) |   (8)    |(2) |(2) |
//	+------+--------+-----+-------+----+----------+----+----+
//
// followed by escaped full-width fields in fixed order: time of day
// (time code 31), standard offset (code 255), before offset (diff code
// 3), after offset (diff code 3). The weekday is stored ISO-numbered,
// Monday=1 through Sunday=7, with 0 meaning no constraint.
func writeRule(w io.Writer, r Rule) error {
	timeSecs := int32(r.secOfDay)
	if r.endOfDay {
		timeSecs = 86400
	}
	std := int32(r.std)
	beforeDiff := int32(r.before) - std
	afterDiff := int32(r.after) - std

	timeCode := uint32(31)
	if timeSecs%3600 == 0 {
		if r.endOfDay {
			timeCode = 24
		} else {
			timeCode = uint32(timeSecs / 3600)
		}
	}
	stdCode := uint32(255)
	if std%900 == 0 {
		stdCode = uint32(std/900 + 128)
	}
	beforeCode := uint32(3)
	if beforeDiff == 0 || beforeDiff == 1800 || beforeDiff == 3600 {
		beforeCode = uint32(beforeDiff / 1800)
	}
	afterCode := uint32(3)
	if afterDiff == 0 || afterDiff == 1800 || afterDiff == 3600 {
		afterCode = uint32(afterDiff / 1800)
	}
	dowCode := uint32(0)
	if r.dow != NoWeekday {
		dowCode = isoWeekday(r.dow)
	}

	packed := uint32(r.month)<<28 |
		uint32(int32(r.dom)+32)<<22 |
		dowCode<<19 |
		timeCode<<14 |
		uint32(r.mode)<<12 |
		stdCode<<4 |
		beforeCode<<2 |
		afterCode
	if err := binary.Write(w, order, packed); err != nil {
		return err
	}
	if timeCode == 31 {
		if err := binary.Write(w, order, timeSecs); err != nil {
			return err
		}
	}
	if stdCode == 255 {
		if err := binary.Write(w, order, std); err != nil {
			return err
		}
	}
	if beforeCode == 3 {
		if err := binary.Write(w, order, int32(r.before)); err != nil {
			return err
		}
	}
	if afterCode == 3 {
		if err := binary.Write(w, order, int32(r.after)); err != nil {
			return err
		}
	}
	return nil
}

func readRule(r io.Reader) (Rule, error) {
	var packed uint32
	if err := binary.Read(r, order, &packed); err != nil {
		return Rule{}, fmt.Errorf("reading packed rule: %w", err)
	}
	var (
		month      = time.Month(packed >> 28)
		dom        = int(packed>>22&0x3f) - 32
		dowCode    = packed >> 19 & 0x7
		timeCode   = packed >> 14 & 0x1f
		mode       = TimeMode(packed >> 12 & 0x3)
		stdCode    = packed >> 4 & 0xff
		beforeCode = packed >> 2 & 0x3
		afterCode  = packed & 0x3
	)
	var (
		timeSecs int32
		endOfDay bool
	)
	switch timeCode {
	case 31:
		if err := binary.Read(r, order, &timeSecs); err != nil {
			return Rule{}, fmt.Errorf("reading time of day: %w", err)
		}
		if timeSecs < 0 || timeSecs >= 86400 {
			return Rule{}, fmt.Errorf("invalid time of day: %d seconds", timeSecs)
		}
	case 24:
		endOfDay = true
	default:
		if timeCode > 24 {
			return Rule{}, fmt.Errorf("invalid time code: %d", timeCode)
		}
		timeSecs = int32(timeCode) * 3600
	}
	var std int32
	if stdCode == 255 {
		if err := binary.Read(r, order, &std); err != nil {
			return Rule{}, fmt.Errorf("reading standard offset: %w", err)
		}
	} else {
		std = (int32(stdCode) - 128) * 900
	}
	var before int32
	if beforeCode == 3 {
		if err := binary.Read(r, order, &before); err != nil {
			return Rule{}, fmt.Errorf("reading before offset: %w", err)
		}
	} else {
		before = std + int32(beforeCode)*1800
	}
	var after int32
	if afterCode == 3 {
		if err := binary.Read(r, order, &after); err != nil {
			return Rule{}, fmt.Errorf("reading after offset: %w", err)
		}
	} else {
		after = std + int32(afterCode)*1800
	}
	dow := NoWeekday
	if dowCode != 0 {
		dow = time.Weekday(dowCode % 7)
	}
	stdOffset, err := NewOffset(int(std))
	if err != nil {
		return Rule{}, fmt.Errorf("invalid standard offset: %w", err)
	}
	beforeOffset, err := NewOffset(int(before))
	if err != nil {
		return Rule{}, fmt.Errorf("invalid before offset: %w", err)
	}
	afterOffset, err := NewOffset(int(after))
	if err != nil {
		return Rule{}, fmt.Errorf("invalid after offset: %w", err)
	}
	rule, err := NewRule(month, dom, dow, int(timeSecs), endOfDay, mode, stdOffset, beforeOffset, afterOffset)
	if err != nil {
		return Rule{}, fmt.Errorf("invalid rule: %w", err)
	}
	return rule, nil
}

// isoWeekday maps time.Weekday (Sunday=0) to ISO numbering (Monday=1,
// Sunday=7) for the wire format.
func isoWeekday(d time.Weekday) uint32 {
	if d == time.Sunday {
		return 7
	}
	return uint32(d)
}

// Offset compact encoding: a single signed byte holding offset/900 for
// quarter-hour multiples, sentinel 127 followed by the raw seconds
// otherwise.
func writeOffset(w io.Writer, o Offset) error {
	secs := int32(o)
	code := int8(127)
	if secs%900 == 0 {
		code = int8(secs / 900)
	}
	if err := binary.Write(w, order, code); err != nil {
		return err
	}
	if code == 127 {
		return binary.Write(w, order, secs)
	}
	return nil
}

func readOffset(r io.Reader) (Offset, error) {
	var code int8
	if err := binary.Read(r, order, &code); err != nil {
		return 0, err
	}
	var secs int32
	if code == 127 {
		if err := binary.Read(r, order, &secs); err != nil {
			return 0, err
		}
	} else {
		secs = int32(code) * 900
	}
	o, err := NewOffset(int(secs))
	if err != nil {
		return 0, err
	}
	return o, nil
}

// Epoch second compact encoding: instants in the fixed window around the
// epoch that fall on quarter-hour boundaries are stored in three bytes as
// an unsigned multiple of 900 seconds from the window base. Anything else
// escapes: a first byte of 0xFF followed by the raw 64-bit seconds.
func writeEpochSec(w io.Writer, sec int64) error {
	if sec >= epochSecBase && sec < epochSecMax && sec%900 == 0 {
		store := uint32((sec - epochSecBase) / 900)
		buf := []byte{byte(store >> 16), byte(store >> 8), byte(store)}
		_, err := w.Write(buf)
		return err
	}
	if err := writeByte(w, 0xFF); err != nil {
		return err
	}
	return binary.Write(w, order, sec)
}

func readEpochSec(r io.Reader) (int64, error) {
	b0, err := readByte(r)
	if err != nil {
		return 0, err
	}
	if b0 == 0xFF {
		var sec int64
		if err := binary.Read(r, order, &sec); err != nil {
			return 0, err
		}
		return sec, nil
	}
	b1, err := readByte(r)
	if err != nil {
		return 0, err
	}
	b2, err := readByte(r)
	if err != nil {
		return 0, err
	}
	store := int64(b0)<<16 | int64(b1)<<8 | int64(b2)
	return store*900 + epochSecBase, nil
}

func writeByte(w io.Writer, b byte) error {
	_, err := w.Write([]byte{b})
	return err
}

func readByte(r io.Reader) (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}
