package property

import (
	"fmt"

	"github.com/emberfem/ember/internal/binio"
)

// Store is the one concrete Value implementation: a resizable array of T,
// one element per evaluation point. The outer array length always equals the
// most recently requested point count; index access is unchecked because the
// caller owns point-count tracking.
type Store[T any] struct {
	kind Kind[T]
	data []T
}

// NewStore allocates a store for n points with the given element kind.
func NewStore[T any](kind Kind[T], n int) *Store[T] {
	return &Store[T]{kind: kind, data: make([]T, n)}
}

// TypeTag returns the element kind's stable tag.
func (s *Store[T]) TypeTag() string { return s.kind.Tag() }

// Kind returns the element strategy this store was created with.
func (s *Store[T]) Kind() Kind[T] { return s.kind }

// Size returns the outer array length.
func (s *Store[T]) Size() int { return len(s.data) }

// Init allocates a fresh store of the same concrete type for n points.
func (s *Store[T]) Init(n int) Value {
	return &Store[T]{kind: s.kind, data: make([]T, n)}
}

// Resize sets the outer array length to exactly n. Elements at matching
// indices are preserved; new trailing elements are zero values (empty inner
// sequences for sequence kinds). The backing array is always reallocated, so
// a peer that shares storage through an earlier shallow copy keeps its own
// data intact.
func (s *Store[T]) Resize(n int) {
	next := make([]T, n)
	copy(next, s.data)
	s.data = next
}

// ShallowCopyFrom aliases other's backing array into this store. O(1); both
// handles see the same elements until either side resizes. Valid only
// between stores of the same element type.
func (s *Store[T]) ShallowCopyFrom(other Value) error {
	o, ok := other.(*Store[T])
	if !ok || o.kind.Tag() != s.kind.Tag() {
		return &TypeMismatchError{Want: s.kind.Tag(), Got: other.TypeTag()}
	}
	s.data = o.data
	return nil
}

// At returns element i.
func (s *Store[T]) At(i int) T { return s.data[i] }

// Ref returns a pointer to element i for in-place mutation.
func (s *Store[T]) Ref(i int) *T { return &s.data[i] }

// SetAt overwrites element i.
func (s *Store[T]) SetAt(i int, v T) { s.data[i] = v }

// Data exposes the backing slice for tight evaluation loops.
func (s *Store[T]) Data() []T { return s.data }

// Store writes all elements to w in index order. No length or type tag is
// emitted; the stream is meaningful only to a reader that knows the layout.
func (s *Store[T]) Store(w *binio.Writer) error {
	for i := range s.data {
		s.kind.Encode(w, s.data[i])
	}
	if err := w.Err(); err != nil {
		return fmt.Errorf("property: store %s[%d]: %w", s.kind.Tag(), len(s.data), err)
	}
	return nil
}

// Load reads Size() elements from r in index order, overwriting the current
// contents. Resize to the expected length before calling.
func (s *Store[T]) Load(r *binio.Reader) error {
	for i := range s.data {
		s.data[i] = s.kind.Decode(r)
	}
	if err := r.Err(); err != nil {
		return fmt.Errorf("property: load %s[%d]: %w", s.kind.Tag(), len(s.data), err)
	}
	return nil
}

func (s *Store[T]) release() { s.data = nil }
