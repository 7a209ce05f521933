package tzregistry

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/javierg1975/chronos-sub004/tzrules"
)

func testPack(t *testing.T) *Pack {
	t.Helper()
	return &Pack{
		Version: "2024b",
		Zones: map[string]*tzrules.Rules{
			"Europe/Berlin": testZone(t),
			"Etc/UTC":       tzrules.FixedRules(0),
			"Asia/Kolkata":  tzrules.FixedRules(tzrules.MustOffset(19800)),
		},
	}
}

func TestPackRoundTrip(t *testing.T) {
	p := testPack(t)
	var buf bytes.Buffer
	if err := WritePack(&buf, p); err != nil {
		t.Fatal(err)
	}
	got, err := ReadPack(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if got.Version != p.Version {
		t.Errorf("Version = %q, want %q", got.Version, p.Version)
	}
	if len(got.Zones) != len(p.Zones) {
		t.Fatalf("decoded %d zones, want %d", len(got.Zones), len(p.Zones))
	}
	for id, want := range p.Zones {
		if !got.Zones[id].Equal(want) {
			t.Errorf("zone %q differs after round trip", id)
		}
	}
}

func TestPackDeterministicOutput(t *testing.T) {
	p := testPack(t)
	var a, b bytes.Buffer
	if err := WritePack(&a, p); err != nil {
		t.Fatal(err)
	}
	if err := WritePack(&b, p); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(a.Bytes(), b.Bytes()); diff != "" {
		t.Errorf("repeated serialization differs:\n%s", diff)
	}
}

func TestPackHeaderBytes(t *testing.T) {
	p := &Pack{Version: "2024b", Zones: map[string]*tzrules.Rules{}}
	var buf bytes.Buffer
	if err := WritePack(&buf, p); err != nil {
		t.Fatal(err)
	}
	want := []byte{
		'T', 'Z', 'R', 'P',
		1,                        // format version
		0, 5, '2', '0', '2', '4', 'b', // database version string
		0, 0, 0, 0, // zone count
	}
	if diff := cmp.Diff(want, buf.Bytes()); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
}

func TestWritePackRejectsEmptyVersion(t *testing.T) {
	p := &Pack{Zones: map[string]*tzrules.Rules{}}
	if err := WritePack(&bytes.Buffer{}, p); err == nil {
		t.Error("expected error")
	}
}

func TestReadPackCorruptData(t *testing.T) {
	valid := func() []byte {
		var buf bytes.Buffer
		if err := WritePack(&buf, testPack(t)); err != nil {
			t.Fatal(err)
		}
		return buf.Bytes()
	}()

	cases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", []byte("TZIF" + string(valid[4:]))},
		{"unsupported format version", append([]byte("TZRP\x09"), valid[5:]...)},
		{"truncated header", valid[:6]},
		{"truncated zone data", valid[:len(valid)-4]},
		{"negative zone count", []byte("TZRP\x01\x00\x012\xFF\xFF\xFF\xFF")},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := ReadPack(bytes.NewReader(c.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
