package tzregistry

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/javierg1975/chronos-sub004/tzrules"
)

// Pack file layout: the 4-byte magic, a format version byte, the
// database version string, a zone count, then per zone its identifier
// followed by the rule set in its tagged serialized form. Strings are
// a big-endian 16-bit length plus raw bytes. Zones are written in
// ascending identifier order so equal packs serialize identically.
const (
	packMagic         = "TZRP"
	packFormatVersion = 1
)

var packOrder = binary.BigEndian

// Pack is a set of zone rule sets from one database release, as
// shipped in a pack file.
type Pack struct {
	// Version is the database release the rules were built from,
	// such as "2024b".
	Version Version
	// Zones maps zone identifiers to their rules.
	Zones map[string]*tzrules.Rules
}

func (p *Pack) zoneIDs() []string {
	ids := make([]string, 0, len(p.Zones))
	for id := range p.Zones {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// WritePack writes the pack to w in the pack file format.
func WritePack(w io.Writer, p *Pack) error {
	if p.Version == "" {
		return fmt.Errorf("write pack: empty version")
	}
	if _, err := w.Write([]byte(packMagic)); err != nil {
		return err
	}
	if _, err := w.Write([]byte{packFormatVersion}); err != nil {
		return err
	}
	if err := writeString(w, string(p.Version)); err != nil {
		return fmt.Errorf("write pack version: %w", err)
	}
	ids := p.zoneIDs()
	if err := binary.Write(w, packOrder, int32(len(ids))); err != nil {
		return err
	}
	for _, id := range ids {
		if err := writeString(w, id); err != nil {
			return fmt.Errorf("write zone id %q: %w", id, err)
		}
		if err := p.Zones[id].Write(w); err != nil {
			return fmt.Errorf("write zone %q: %w", id, err)
		}
	}
	return nil
}

// ReadPack reads a pack from r. It fails on unknown magic or format
// versions and on malformed zone data; a truncated stream never yields
// a partial pack.
func ReadPack(r io.Reader) (*Pack, error) {
	magic := make([]byte, len(packMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("read pack magic: %w", err)
	}
	if string(magic) != packMagic {
		return nil, fmt.Errorf("read pack: bad magic %q", magic)
	}
	var format [1]byte
	if _, err := io.ReadFull(r, format[:]); err != nil {
		return nil, fmt.Errorf("read pack format version: %w", err)
	}
	if format[0] != packFormatVersion {
		return nil, fmt.Errorf("read pack: unsupported format version %d", format[0])
	}
	version, err := readString(r)
	if err != nil {
		return nil, fmt.Errorf("read pack version: %w", err)
	}
	if version == "" {
		return nil, fmt.Errorf("read pack: empty version")
	}
	var count int32
	if err := binary.Read(r, packOrder, &count); err != nil {
		return nil, fmt.Errorf("read zone count: %w", err)
	}
	if count < 0 {
		return nil, fmt.Errorf("read pack: invalid zone count %d", count)
	}
	p := &Pack{
		Version: Version(version),
		Zones:   make(map[string]*tzrules.Rules, count),
	}
	for i := int32(0); i < count; i++ {
		id, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("read zone id %d: %w", i, err)
		}
		if id == "" {
			return nil, fmt.Errorf("read pack: empty zone id at %d", i)
		}
		if _, ok := p.Zones[id]; ok {
			return nil, fmt.Errorf("read pack: duplicate zone id %q", id)
		}
		rules, err := tzrules.ReadRules(r)
		if err != nil {
			return nil, fmt.Errorf("read zone %q: %w", id, err)
		}
		p.Zones[id] = rules
	}
	return p, nil
}

func writeString(w io.Writer, s string) error {
	if len(s) > 0xFFFF {
		return fmt.Errorf("string too long: %d bytes", len(s))
	}
	if err := binary.Write(w, packOrder, uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, packOrder, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
