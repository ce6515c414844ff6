package property

import (
	"fmt"
	"sort"
)

// Registry is the store factory, keyed by element type tag. Each tag maps to
// a zero-size prototype; allocation goes through the prototype's Init so the
// concrete type never surfaces at the allocation site.
type Registry struct {
	protos map[string]Value
}

func NewRegistry() *Registry {
	return &Registry{protos: make(map[string]Value, 8)}
}

// Register makes the given element kind allocatable through r by its tag.
// Registering the same tag twice replaces the prototype.
func Register[T any](r *Registry, kind Kind[T]) {
	r.protos[kind.Tag()] = NewStore[T](kind, 0)
}

// DefaultRegistry returns a registry with the built-in element kinds.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	Register(r, Float64())
	Register(r, Float32())
	Register(r, Int64())
	Register(r, Int32())
	Register(r, Vector3())
	Register(r, Tensor3())
	Register(r, SequenceOf(Float64()))
	Register(r, SequenceOf(Int64()))
	return r
}

// New allocates a store for n points by tag.
func (r *Registry) New(tag string, n int) (Value, error) {
	proto, ok := r.protos[tag]
	if !ok {
		return nil, fmt.Errorf("property: unknown element tag %q", tag)
	}
	return proto.Init(n), nil
}

// NewHistory allocates slots stores of the same tag, all sized for n points:
// index 0 is the current slot, 1 the previous, 2 the one before that.
func (r *Registry) NewHistory(tag string, n, slots int) ([]Value, error) {
	proto, ok := r.protos[tag]
	if !ok {
		return nil, fmt.Errorf("property: unknown element tag %q", tag)
	}
	out := make([]Value, slots)
	for i := range out {
		out[i] = proto.Init(n)
	}
	return out, nil
}

// Tags returns all registered tags in sorted order.
func (r *Registry) Tags() []string {
	out := make([]string, 0, len(r.protos))
	for tag := range r.protos {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}
