// Package mesh holds the domain metadata the core needs from the mesh:
// region name tables per restriction axis. It answers name resolution and
// valid-ID queries; geometry, partitioning, and element data live elsewhere.
package mesh

import (
	"fmt"
	"os"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/emberfem/ember/internal/region"
)

// AnyName is the reserved region name meaning "every region on this axis".
// It is matched by name only; no ID value is reserved for it.
const AnyName = "any"

// regionEntry is one named region in a mesh metadata file.
type regionEntry struct {
	Name string `yaml:"name"`
	ID   int64  `yaml:"id"`
}

// metaFile is the on-disk metadata layout.
type metaFile struct {
	Boundaries []regionEntry `yaml:"boundaries"`
	Blocks     []regionEntry `yaml:"blocks"`
}

// Mesh provides region name→ID resolution and the full valid-ID set per
// axis. Immutable after Load/New; safe for concurrent reads.
type Mesh struct {
	byName map[region.Axis]map[string]region.ID
	names  map[region.Axis]map[region.ID]string
	valid  map[region.Axis]region.Set
}

// Load reads a mesh metadata file. Region names are NFC-normalized so that
// configuration files and mesh files agree on composed form.
func Load(path string) (*Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mesh metadata %s: %w", path, err)
	}
	var mf metaFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("parse mesh metadata %s: %w", path, err)
	}

	m := newEmpty()
	if err := m.addAxis(region.Boundary, mf.Boundaries); err != nil {
		return nil, fmt.Errorf("mesh metadata %s: %w", path, err)
	}
	if err := m.addAxis(region.Block, mf.Blocks); err != nil {
		return nil, fmt.Errorf("mesh metadata %s: %w", path, err)
	}
	return m, nil
}

// New builds a mesh from in-memory name tables. Used by tests and embedding
// frameworks that construct meshes programmatically.
func New(boundaries, blocks map[string]region.ID) *Mesh {
	m := newEmpty()
	for name, id := range boundaries {
		m.put(region.Boundary, name, id)
	}
	for name, id := range blocks {
		m.put(region.Block, name, id)
	}
	m.rebuildValid()
	return m
}

func newEmpty() *Mesh {
	return &Mesh{
		byName: map[region.Axis]map[string]region.ID{
			region.Boundary: {},
			region.Block:    {},
		},
		names: map[region.Axis]map[region.ID]string{
			region.Boundary: {},
			region.Block:    {},
		},
		valid: map[region.Axis]region.Set{},
	}
}

func (m *Mesh) addAxis(axis region.Axis, entries []regionEntry) error {
	for _, e := range entries {
		name := norm.NFC.String(e.Name)
		if name == "" {
			return fmt.Errorf("%s region with id %d has an empty name", axis, e.ID)
		}
		if name == AnyName {
			return fmt.Errorf("%s region id %d uses the reserved name %q", axis, e.ID, AnyName)
		}
		if prev, ok := m.byName[axis][name]; ok && prev != region.ID(e.ID) {
			return fmt.Errorf("%s region %q declared twice with ids %d and %d", axis, name, prev, e.ID)
		}
		m.put(axis, name, region.ID(e.ID))
	}
	m.rebuildValid()
	return nil
}

func (m *Mesh) put(axis region.Axis, name string, id region.ID) {
	name = norm.NFC.String(name)
	m.byName[axis][name] = id
	m.names[axis][id] = name
}

func (m *Mesh) rebuildValid() {
	for axis, table := range m.byName {
		ids := make([]region.ID, 0, len(table))
		for _, id := range table {
			ids = append(ids, id)
		}
		m.valid[axis] = region.Of(ids...)
	}
}

// AnyName returns the reserved "match everything" literal.
func (m *Mesh) AnyName() string { return AnyName }

// RegionID resolves one name on the given axis. The reserved literal is not
// resolved here; callers handle it before asking for an ID.
func (m *Mesh) RegionID(axis region.Axis, name string) (region.ID, bool) {
	id, ok := m.byName[axis][norm.NFC.String(name)]
	return id, ok
}

// RegionName returns the name for a resolved ID, for diagnostics.
func (m *Mesh) RegionName(axis region.Axis, id region.ID) (string, bool) {
	name, ok := m.names[axis][id]
	return name, ok
}

// ValidIDs returns the full valid-ID set for the axis. An axis with no named
// regions yields the empty set, so any concrete restriction on it fails
// validation.
func (m *Mesh) ValidIDs(axis region.Axis) region.Set {
	return m.valid[axis]
}

// NumRegions returns the number of named regions on the axis.
func (m *Mesh) NumRegions(axis region.Axis) int {
	return len(m.byName[axis])
}
