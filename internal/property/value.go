// Package property implements the per-point property storage used by
// materials: one resizable array per named property, addressed by evaluation
// point index, behind a type-erased lifecycle interface so collections,
// history rotation, and checkpointing never inspect element types.
package property

import (
	"fmt"

	"github.com/emberfem/ember/internal/binio"
)

// Value is the type-erased handle over one property store. Every call site
// that manages stores generically (collections, rotation, checkpoint I/O)
// works through this interface; only the evaluator that fills values touches
// the concrete Store[T].
type Value interface {
	// TypeTag returns the stable identifier of the concrete element type.
	TypeTag() string

	// Size returns the current outer array length in evaluation points.
	Size() int

	// Init allocates a new store of the same concrete type sized for n
	// points. Plain elements are immediately well-formed; sequence elements
	// start empty and are sized lazily by the evaluator.
	Init(n int) Value

	// Resize sets the outer array length to exactly n, preserving elements
	// at matching indices. It always reallocates, so a store aliased by an
	// earlier ShallowCopyFrom is never disturbed.
	Resize(n int)

	// ShallowCopyFrom makes this store's data an alias of other's backing
	// array in O(1). Both handles observe the same storage until either is
	// resized. Returns *TypeMismatchError when the concrete element types
	// differ; the receiver is left unchanged in that case.
	ShallowCopyFrom(other Value) error

	// Store writes every element to w in index order with no outer framing.
	Store(w *binio.Writer) error

	// Load reads Size() elements from r in index order. The caller must have
	// resized the store to the expected length first.
	Load(r *binio.Reader) error

	// release drops the backing array. Called exactly once per handle by the
	// owning Collection's Close.
	release()
}

// TypeMismatchError reports a cross-store operation between different
// concrete element types. This is a programming-contract violation, not a
// recoverable condition.
type TypeMismatchError struct {
	Want string // tag of the receiving store
	Got  string // tag of the store passed in
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("property: type mismatch: store holds %q, other holds %q", e.Want, e.Got)
}
