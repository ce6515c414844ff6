// Package restrict implements region restriction for simulation objects.
// An object may be restricted along two independent axes (boundary and
// block); each axis gets one Scope, resolved once at construction from the
// configured region names and immutable afterwards.
package restrict

import (
	"github.com/emberfem/ember/internal/region"
)

// Resolver is the domain-metadata collaborator: region name resolution and
// the full valid-ID set per axis. Satisfied by *mesh.Mesh.
type Resolver interface {
	RegionID(axis region.Axis, name string) (region.ID, bool)
	ValidIDs(axis region.Axis) region.Set
	AnyName() string
}

// Config is the immutable configuration snapshot a Scope is built from.
type Config struct {
	// Object names the owning simulation object in diagnostics.
	Object string

	// Axis is the restriction dimension this scope lives on.
	Axis region.Axis

	// Names are the configured region names. Empty means unrestricted. The
	// reserved "any" literal anywhere in the list overrides every other
	// entry.
	Names []string

	// Other is the ID set already established on the opposite axis of the
	// same object. Universal there means "not restricted on that axis".
	Other region.Set

	// DualRestrictable permits concrete restriction on both axes at once.
	DualRestrictable bool
}

// Scope answers whether the owning object applies at a region. Read-only
// after New; safe for unsynchronized concurrent reads.
type Scope struct {
	axis     region.Axis
	set      region.Set
	names    []string
	resolver Resolver
}

// New resolves cfg.Names into a validated ID set. It fails with a
// *ConfigError if restriction conflicts with the other axis, or if any name
// does not resolve to a region of the mesh; in the latter case the error
// lists every offending name, not just the first.
func New(cfg Config, resolver Resolver) (*Scope, error) {
	s := &Scope{axis: cfg.Axis, resolver: resolver}

	restricted := false
	var unknown []string
	set := region.Of()

	if len(cfg.Names) > 0 {
		any := false
		for _, name := range cfg.Names {
			if name == resolver.AnyName() {
				any = true
				break
			}
		}
		if any {
			set = region.Universal()
		} else {
			restricted = true
			valid := resolver.ValidIDs(cfg.Axis)
			for _, name := range cfg.Names {
				id, ok := resolver.RegionID(cfg.Axis, name)
				if !ok || !valid.Contains(id) {
					unknown = append(unknown, name)
					continue
				}
				set = set.Union(region.Of(id))
			}
		}
	}

	// A restriction here on top of a concrete restriction on the other axis
	// needs the explicit dual flag.
	if restricted && !cfg.Other.IsUniversal() && !cfg.Other.IsEmpty() && !cfg.DualRestrictable {
		return nil, newConflictError(cfg.Object, cfg.Axis)
	}

	if len(unknown) > 0 {
		return nil, newUnknownNamesError(cfg.Object, cfg.Axis, unknown)
	}

	// No names, only the "any" literal, or a resolution that produced
	// nothing all collapse to the unrestricted scope.
	if set.IsEmpty() {
		set = region.Universal()
	}

	s.set = set
	if s.set.IsUniversal() {
		s.names = []string{resolver.AnyName()}
	} else {
		s.names = append([]string(nil), cfg.Names...)
	}
	return s, nil
}

// Restricted reports whether the scope is limited to concrete regions.
func (s *Scope) Restricted() bool { return !s.set.IsUniversal() }

// IDSet returns the resolved scope set: Universal, or concrete non-empty.
func (s *Scope) IDSet() region.Set { return s.set }

// Names returns the configured region names ("any" when unrestricted).
func (s *Scope) Names() []string { return s.names }

// NumIDs returns the number of concrete IDs in the scope (0 if unrestricted).
func (s *Scope) NumIDs() int { return s.set.Len() }

// HasRegion reports whether the object applies at the given region.
func (s *Scope) HasRegion(id region.ID) bool {
	return s.set.Contains(id)
}

// HasRegionName resolves name through the mesh and tests membership. The
// "any" literal and unrestricted scopes always match; an unknown name never
// does (unless the scope is unrestricted).
func (s *Scope) HasRegionName(name string) bool {
	if name == s.resolver.AnyName() || s.set.IsUniversal() {
		return true
	}
	id, ok := s.resolver.RegionID(s.axis, name)
	if !ok {
		return false
	}
	return s.set.Contains(id)
}

// HasAll reports whether every ID in ids is inside the scope. An empty or
// Universal input is equivalent to "anywhere" and matches unconditionally.
func (s *Scope) HasAll(ids region.Set) bool {
	if ids.IsEmpty() || ids.IsUniversal() {
		return true
	}
	return s.set.ContainsAll(ids)
}

// HasAny reports whether at least one ID in ids is inside the scope. An
// empty or Universal input matches unconditionally.
func (s *Scope) HasAny(ids region.Set) bool {
	if ids.IsEmpty() || ids.IsUniversal() {
		return true
	}
	return s.set.ContainsAny(ids)
}

// IsSubsetOf reports whether the scope fits entirely inside candidate. An
// unrestricted scope is a subset only of a candidate covering the whole
// domain; empty and Universal candidates count as covering everything.
func (s *Scope) IsSubsetOf(candidate region.Set) bool {
	if candidate.IsEmpty() || candidate.IsUniversal() {
		return true
	}
	if s.set.IsUniversal() {
		return s.resolver.ValidIDs(s.axis).SubsetOf(candidate)
	}
	return s.set.SubsetOf(candidate)
}
