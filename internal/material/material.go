// Package material implements the simulation object that owns property
// stores and restriction scopes. A material declares named per-point
// properties (optionally with two steps of history), is resized when its
// region's evaluation point count changes, rotates history once per step,
// and answers scope queries for the driver.
package material

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/emberfem/ember/internal/property"
	"github.com/emberfem/ember/internal/region"
	"github.com/emberfem/ember/internal/restrict"
	"github.com/emberfem/ember/internal/scripting"
)

// PropertySpec declares one named property of a material.
type PropertySpec struct {
	Name     string
	Type     string  // element tag registered with the property registry
	Stateful bool    // carry old/older history slots
	Script   string  // Lua function name; empty means constant Value
	Value    float64 // constant for scalar float64 properties
}

// Spec is the configuration snapshot a material is built from.
type Spec struct {
	Name             string
	Boundary         []string // boundary region names; empty = everywhere
	Block            []string // block region names; empty = everywhere
	DualRestrictable bool
	Properties       []PropertySpec
}

// slot tracks one declared property across the three history collections.
// Non-stateful properties live only in the current collection, so the
// history index is tracked separately (-1 when absent).
type slot struct {
	spec    PropertySpec
	idx     int // index in the current collection
	histIdx int // index in the old/older collections, -1 if not stateful
}

// Material owns one Collection per history slot plus a scope per axis.
// Exclusively owned by its driver; no internal locking.
type Material struct {
	name     string
	boundary *restrict.Scope
	block    *restrict.Scope

	props      *property.Collection // current values
	propsOld   *property.Collection // previous step (stateful only)
	propsOlder *property.Collection // two steps back (stateful only)

	slots  []*slot
	byName map[string]*slot
	points int
	engine *scripting.Engine
	log    *zap.Logger
}

// New builds a material from its spec. The block scope is established first;
// the boundary scope then sees the block IDs for the dual-restriction check,
// so an object restricted on both axes fails here unless the spec permits
// it. Property declarations allocate zero-length stores; call SetPointCount
// before evaluating.
func New(spec Spec, resolver restrict.Resolver, reg *property.Registry, engine *scripting.Engine, log *zap.Logger) (*Material, error) {
	block, err := restrict.New(restrict.Config{
		Object:           spec.Name,
		Axis:             region.Block,
		Names:            spec.Block,
		Other:            region.Universal(),
		DualRestrictable: spec.DualRestrictable,
	}, resolver)
	if err != nil {
		return nil, err
	}

	boundary, err := restrict.New(restrict.Config{
		Object:           spec.Name,
		Axis:             region.Boundary,
		Names:            spec.Boundary,
		Other:            block.IDSet(),
		DualRestrictable: spec.DualRestrictable,
	}, resolver)
	if err != nil {
		return nil, err
	}

	m := &Material{
		name:       spec.Name,
		boundary:   boundary,
		block:      block,
		props:      property.NewCollection(),
		propsOld:   property.NewCollection(),
		propsOlder: property.NewCollection(),
		byName:     make(map[string]*slot, len(spec.Properties)),
		engine:     engine,
		log:        log,
	}

	for _, ps := range spec.Properties {
		if err := m.declare(ps, reg); err != nil {
			return nil, err
		}
	}
	log.Debug("material built",
		zap.String("material", spec.Name),
		zap.Int("properties", len(spec.Properties)),
		zap.Strings("boundary", boundary.Names()),
		zap.Strings("block", block.Names()))
	return m, nil
}

func (m *Material) declare(ps PropertySpec, reg *property.Registry) error {
	if _, dup := m.byName[ps.Name]; dup {
		return fmt.Errorf("material %q: property %q declared twice", m.name, ps.Name)
	}
	if ps.Script != "" && m.engine != nil && !m.engine.HasFunc(ps.Script) {
		return fmt.Errorf("material %q: property %q: lua function %q not loaded", m.name, ps.Name, ps.Script)
	}

	slots := 1
	if ps.Stateful {
		slots = 3
	}
	values, err := reg.NewHistory(ps.Type, 0, slots)
	if err != nil {
		return fmt.Errorf("material %q: property %q: %w", m.name, ps.Name, err)
	}

	sl := &slot{spec: ps, idx: m.props.Add(values[0]), histIdx: -1}
	if ps.Stateful {
		sl.histIdx = m.propsOld.Add(values[1])
		m.propsOlder.Add(values[2])
	}
	m.slots = append(m.slots, sl)
	m.byName[ps.Name] = sl
	return nil
}

// Name returns the material's configured name.
func (m *Material) Name() string { return m.name }

// BoundaryScope returns the boundary-axis restriction.
func (m *Material) BoundaryScope() *restrict.Scope { return m.boundary }

// BlockScope returns the block-axis restriction.
func (m *Material) BlockScope() *restrict.Scope { return m.block }

// ActiveAt reports whether this material contributes at the given boundary
// region.
func (m *Material) ActiveAt(id region.ID) bool {
	return m.boundary.HasRegion(id)
}

// PointCount returns the current evaluation point count.
func (m *Material) PointCount() int { return m.points }

// SetPointCount resizes every property store to n points, e.g. after
// adaptive refinement changes the quadrature rule. Existing values at
// matching indices survive; growth is zero-filled.
func (m *Material) SetPointCount(n int) {
	m.points = n
	m.props.Resize(n)
	m.propsOld.Resize(n)
	m.propsOlder.Resize(n)
}

// Props returns the current-slot collection, in declaration order.
func (m *Material) Props() *property.Collection { return m.props }

// PropsOld returns the previous-step collection (stateful properties only).
func (m *Material) PropsOld() *property.Collection { return m.propsOld }

// PropsOlder returns the two-steps-back collection.
func (m *Material) PropsOlder() *property.Collection { return m.propsOlder }

// Current returns the type-erased current store for a declared property.
func (m *Material) Current(name string) (property.Value, bool) {
	sl, ok := m.byName[name]
	if !ok {
		return nil, false
	}
	return m.props.At(sl.idx), true
}

// Old returns the previous-step store for a stateful property.
func (m *Material) Old(name string) (property.Value, bool) {
	sl, ok := m.byName[name]
	if !ok || sl.histIdx < 0 {
		return nil, false
	}
	return m.propsOld.At(sl.histIdx), true
}

// Older returns the two-steps-back store for a stateful property.
func (m *Material) Older(name string) (property.Value, bool) {
	sl, ok := m.byName[name]
	if !ok || sl.histIdx < 0 {
		return nil, false
	}
	return m.propsOlder.At(sl.histIdx), true
}

// InitStateful seeds stateful properties at step zero: evaluates the current
// slot once, hands that storage to the old and older slots, and replaces
// current with a fresh store. The first step's writes therefore never reach
// back into the seeded history.
func (m *Material) InitStateful(regionID region.ID) error {
	if err := m.Evaluate(0, regionID); err != nil {
		return err
	}
	for _, sl := range m.slots {
		if sl.histIdx < 0 {
			continue
		}
		cur := m.props.At(sl.idx)
		if err := m.propsOld.At(sl.histIdx).ShallowCopyFrom(cur); err != nil {
			return err
		}
		if err := m.propsOlder.At(sl.histIdx).ShallowCopyFrom(cur); err != nil {
			return err
		}
		m.props.Replace(sl.idx, cur.Init(m.points))
	}
	return nil
}

// Evaluate fills the current slot of every scalar float64 property, either
// through its Lua function or its constant. Properties of other element
// types are left to framework code that fills them through typed access.
func (m *Material) Evaluate(step int64, regionID region.ID) error {
	for _, sl := range m.slots {
		if sl.spec.Type != "float64" {
			continue
		}
		cur, ok := m.props.At(sl.idx).(*property.Store[float64])
		if !ok {
			return &property.TypeMismatchError{Want: "float64", Got: m.props.At(sl.idx).TypeTag()}
		}

		if sl.spec.Script == "" || m.engine == nil {
			data := cur.Data()
			for i := range data {
				data[i] = sl.spec.Value
			}
			continue
		}

		var old *property.Store[float64]
		if sl.histIdx >= 0 {
			old = m.propsOld.At(sl.histIdx).(*property.Store[float64])
		}
		data := cur.Data()
		for i := range data {
			ctx := scripting.PointContext{Step: step, Point: i, Region: int64(regionID)}
			if old != nil && i < old.Size() {
				ctx.Old = old.At(i)
			}
			v, err := m.engine.EvalScalar(sl.spec.Script, ctx)
			if err != nil {
				return fmt.Errorf("material %q: property %q: %w", m.name, sl.spec.Name, err)
			}
			data[i] = v
		}
	}
	return nil
}

// AdvanceStep rotates history buffers: older takes old's storage, old takes
// current's, and a fresh current store is allocated for the next evaluation.
// All rotation is O(1) shallow copying; nothing is deep-copied.
func (m *Material) AdvanceStep() error {
	for _, sl := range m.slots {
		if sl.histIdx < 0 {
			continue
		}
		cur := m.props.At(sl.idx)
		if err := m.propsOlder.At(sl.histIdx).ShallowCopyFrom(m.propsOld.At(sl.histIdx)); err != nil {
			return fmt.Errorf("material %q: rotate %q: %w", m.name, sl.spec.Name, err)
		}
		if err := m.propsOld.At(sl.histIdx).ShallowCopyFrom(cur); err != nil {
			return fmt.Errorf("material %q: rotate %q: %w", m.name, sl.spec.Name, err)
		}
		m.props.Replace(sl.idx, cur.Init(m.points))
	}
	return nil
}

// Close releases every property store. Safe to defer; idempotent.
func (m *Material) Close() error {
	m.props.Close()
	m.propsOld.Close()
	m.propsOlder.Close()
	return nil
}

// GetCurrent returns typed access to a property's current store.
func GetCurrent[T any](m *Material, name string) (*property.Store[T], bool) {
	v, ok := m.Current(name)
	if !ok {
		return nil, false
	}
	s, ok := v.(*property.Store[T])
	return s, ok
}

// GetOld returns typed access to a stateful property's previous-step store.
func GetOld[T any](m *Material, name string) (*property.Store[T], bool) {
	v, ok := m.Old(name)
	if !ok {
		return nil, false
	}
	s, ok := v.(*property.Store[T])
	return s, ok
}
