package property

import (
	"github.com/emberfem/ember/internal/binio"
)

// Collection is an ordered, owning set of property stores. Insertion order
// is declaration order and is the order used for iteration and checkpoint
// I/O. The collection owns its handles: Close releases every one exactly
// once, and the usual pattern is `defer coll.Close()` right after creation.
// Releasing never reaches through shallow-copy aliases into other
// collections' storage.
type Collection struct {
	values []Value
	closed bool
}

func NewCollection() *Collection {
	return &Collection{values: make([]Value, 0, 8)}
}

// Add appends a handle and returns its index.
func (c *Collection) Add(v Value) int {
	c.values = append(c.values, v)
	return len(c.values) - 1
}

// Len returns the number of stored handles.
func (c *Collection) Len() int { return len(c.values) }

// At returns the handle at declaration index i.
func (c *Collection) At(i int) Value { return c.values[i] }

// Replace swaps the handle at index i, returning the old one. Used by
// history rotation, where the outgoing current store's data lives on through
// the previous slot's alias.
func (c *Collection) Replace(i int, v Value) Value {
	old := c.values[i]
	c.values[i] = v
	return old
}

// Each visits every handle in declaration order.
func (c *Collection) Each(fn func(i int, v Value)) {
	for i, v := range c.values {
		fn(i, v)
	}
}

// Resize sets every store's outer array length to n. Called whenever the
// owning object's evaluation point count changes.
func (c *Collection) Resize(n int) {
	for _, v := range c.values {
		v.Resize(n)
	}
}

// Store serializes every handle in declaration order.
func (c *Collection) Store(w *binio.Writer) error {
	for _, v := range c.values {
		if err := v.Store(w); err != nil {
			return err
		}
	}
	return nil
}

// Load deserializes every handle in declaration order. Each store must
// already hold its expected length.
func (c *Collection) Load(r *binio.Reader) error {
	for _, v := range c.values {
		if err := v.Load(r); err != nil {
			return err
		}
	}
	return nil
}

// Close releases every handle's backing storage. Idempotent; the second and
// later calls are no-ops, so it is always safe to defer.
func (c *Collection) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	for _, v := range c.values {
		v.release()
	}
	return nil
}
