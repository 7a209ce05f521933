// Package tzregistry maps zone identifiers to their offset resolution
// rules.
//
// A Registry holds rule sets for multiple zone identifiers, each under
// one or more database release versions. Registration is explicit and
// insert-only: once the registry has answered its first lookup it is
// sealed and further registrations fail. This makes the visible zone
// table stable for the life of the process without locking on the read
// path of every caller.
//
// Registries are typically populated from a pack file (see WritePack
// and ReadPack) fetched with a Client.
package tzregistry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/javierg1975/chronos-sub004/tzrules"
)

// Version identifies a time zone database release, such as "2024b".
// Versions order lexically.
type Version string

var (
	// ErrUnknownZone is returned when a zone identifier has no
	// registered rules.
	ErrUnknownZone = errors.New("tzregistry: unknown zone")
	// ErrSealed is returned by Register after the registry has
	// answered its first lookup.
	ErrSealed = errors.New("tzregistry: registry is sealed")
	// ErrDuplicate is returned by Register when the zone and version
	// are already registered.
	ErrDuplicate = errors.New("tzregistry: duplicate registration")
)

// Registry maps zone identifiers to rule sets by database version.
// The zero value is ready to use. A Registry is safe for concurrent
// use.
type Registry struct {
	mu     sync.Mutex
	sealed bool
	zones  map[string]map[Version]*tzrules.Rules
}

// NewRegistry returns an empty, unsealed registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds rules for a zone identifier under a database version.
// It fails once the registry is sealed, and for a (zone, version) pair
// that is already registered.
func (g *Registry) Register(zoneID string, version Version, r *tzrules.Rules) error {
	if zoneID == "" {
		return errors.New("tzregistry: empty zone identifier")
	}
	if version == "" {
		return errors.New("tzregistry: empty version")
	}
	if r == nil {
		return errors.New("tzregistry: nil rules")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sealed {
		return fmt.Errorf("registering %q: %w", zoneID, ErrSealed)
	}
	if g.zones == nil {
		g.zones = make(map[string]map[Version]*tzrules.Rules)
	}
	versions := g.zones[zoneID]
	if versions == nil {
		versions = make(map[Version]*tzrules.Rules)
		g.zones[zoneID] = versions
	}
	if _, ok := versions[version]; ok {
		return fmt.Errorf("registering %q version %q: %w", zoneID, version, ErrDuplicate)
	}
	versions[version] = r
	return nil
}

// RegisterPack registers every zone in the pack under the pack's
// database version.
func (g *Registry) RegisterPack(p *Pack) error {
	for _, id := range p.zoneIDs() {
		if err := g.Register(id, p.Version, p.Zones[id]); err != nil {
			return err
		}
	}
	return nil
}

// RulesFor returns the rules for a zone identifier under the latest
// registered version. The first call seals the registry.
func (g *Registry) RulesFor(zoneID string) (*tzrules.Rules, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sealed = true
	versions := g.zones[zoneID]
	if len(versions) == 0 {
		return nil, fmt.Errorf("looking up %q: %w", zoneID, ErrUnknownZone)
	}
	var latest Version
	for v := range versions {
		if v > latest {
			latest = v
		}
	}
	return versions[latest], nil
}

// RulesForVersion returns the rules for a zone identifier under a
// specific database version. The first call seals the registry.
func (g *Registry) RulesForVersion(zoneID string, version Version) (*tzrules.Rules, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sealed = true
	r, ok := g.zones[zoneID][version]
	if !ok {
		return nil, fmt.Errorf("looking up %q version %q: %w", zoneID, version, ErrUnknownZone)
	}
	return r, nil
}

// VersionsFor returns the registered versions for a zone identifier in
// ascending order. The first call seals the registry.
func (g *Registry) VersionsFor(zoneID string) ([]Version, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sealed = true
	versions := g.zones[zoneID]
	if len(versions) == 0 {
		return nil, fmt.Errorf("looking up %q: %w", zoneID, ErrUnknownZone)
	}
	out := make([]Version, 0, len(versions))
	for v := range versions {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// ZoneIDs returns all registered zone identifiers in ascending order.
// The first call seals the registry.
func (g *Registry) ZoneIDs() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sealed = true
	out := make([]string, 0, len(g.zones))
	for id := range g.zones {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
