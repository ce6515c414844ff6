package property

import (
	"fmt"

	"github.com/emberfem/ember/internal/binio"
)

// Class separates the two element families. The distinction is decided where
// the store is created, never branched on inside Store[T]: plain elements are
// fixed-width and well-formed the moment the outer array exists, sequence
// elements hold a variable-length inner collection whose size only the
// evaluator knows.
type Class int

const (
	Plain    Class = iota // fixed-width scalar or small aggregate
	Sequence              // variable-length inner collection per point
)

// Kind bundles everything Store[T] needs to know about its element type:
// a stable tag, the element class, and the binary codec. One Kind value is
// chosen at store-construction time and shared by every store of that type.
type Kind[T any] interface {
	Tag() string
	Class() Class
	Encode(w *binio.Writer, v T)
	Decode(r *binio.Reader) T
}

// ---- Plain numeric kinds ----

type f64Kind struct{}

// Float64 is the element kind for scalar float64 properties.
func Float64() Kind[float64] { return f64Kind{} }

func (f64Kind) Tag() string                       { return "float64" }
func (f64Kind) Class() Class                      { return Plain }
func (f64Kind) Encode(w *binio.Writer, v float64) { w.WriteF64(v) }
func (f64Kind) Decode(r *binio.Reader) float64    { return r.ReadF64() }

type f32Kind struct{}

// Float32 is the element kind for scalar float32 properties.
func Float32() Kind[float32] { return f32Kind{} }

func (f32Kind) Tag() string                       { return "float32" }
func (f32Kind) Class() Class                      { return Plain }
func (f32Kind) Encode(w *binio.Writer, v float32) { w.WriteF32(v) }
func (f32Kind) Decode(r *binio.Reader) float32    { return r.ReadF32() }

type i64Kind struct{}

// Int64 is the element kind for scalar int64 properties.
func Int64() Kind[int64] { return i64Kind{} }

func (i64Kind) Tag() string                     { return "int64" }
func (i64Kind) Class() Class                    { return Plain }
func (i64Kind) Encode(w *binio.Writer, v int64) { w.WriteI64(v) }
func (i64Kind) Decode(r *binio.Reader) int64    { return r.ReadI64() }

type i32Kind struct{}

// Int32 is the element kind for scalar int32 properties.
func Int32() Kind[int32] { return i32Kind{} }

func (i32Kind) Tag() string                     { return "int32" }
func (i32Kind) Class() Class                    { return Plain }
func (i32Kind) Encode(w *binio.Writer, v int32) { w.WriteI32(v) }
func (i32Kind) Decode(r *binio.Reader) int32    { return r.ReadI32() }

// ---- Small numeric aggregates ----

// Vec3 is a small fixed-size aggregate element (e.g. a gradient or a flux).
type Vec3 [3]float64

type vec3Kind struct{}

// Vector3 is the element kind for Vec3 properties.
func Vector3() Kind[Vec3] { return vec3Kind{} }

func (vec3Kind) Tag() string  { return "vec3" }
func (vec3Kind) Class() Class { return Plain }

func (vec3Kind) Encode(w *binio.Writer, v Vec3) {
	for i := 0; i < 3; i++ {
		w.WriteF64(v[i])
	}
}

func (vec3Kind) Decode(r *binio.Reader) Vec3 {
	var v Vec3
	for i := 0; i < 3; i++ {
		v[i] = r.ReadF64()
	}
	return v
}

// Mat3 is a 3x3 aggregate element (e.g. a stress or conductivity tensor),
// row-major.
type Mat3 [9]float64

type mat3Kind struct{}

// Tensor3 is the element kind for Mat3 properties.
func Tensor3() Kind[Mat3] { return mat3Kind{} }

func (mat3Kind) Tag() string  { return "mat3" }
func (mat3Kind) Class() Class { return Plain }

func (mat3Kind) Encode(w *binio.Writer, v Mat3) {
	for i := 0; i < 9; i++ {
		w.WriteF64(v[i])
	}
}

func (mat3Kind) Decode(r *binio.Reader) Mat3 {
	var v Mat3
	for i := 0; i < 9; i++ {
		v[i] = r.ReadF64()
	}
	return v
}

// ---- Sequence kinds ----

// Inner sequences are capped at this length on both sides of the wire: on
// encode so a store never emits a stream it cannot read back, on decode
// because a longer length indicates a corrupt or misaligned stream.
const maxInnerLen = 1 << 24

type seqKind[T any] struct {
	inner Kind[T]
}

// SequenceOf builds the element kind for per-point variable-length sequences
// of the inner kind. Unlike plain elements, each point's sequence starts
// empty after Init/Resize; the evaluator sizes and fills it lazily. The wire
// layout carries a u32 inner length per element because that length is not
// recoverable any other way.
func SequenceOf[T any](inner Kind[T]) Kind[[]T] {
	return seqKind[T]{inner: inner}
}

func (k seqKind[T]) Tag() string  { return "[]" + k.inner.Tag() }
func (k seqKind[T]) Class() Class { return Sequence }

func (k seqKind[T]) Encode(w *binio.Writer, v []T) {
	if len(v) > maxInnerLen {
		w.Fail(fmt.Errorf("property: inner sequence length %d exceeds limit", len(v)))
		return
	}
	w.WriteU32(uint32(len(v)))
	for i := range v {
		k.inner.Encode(w, v[i])
	}
}

func (k seqKind[T]) Decode(r *binio.Reader) []T {
	n := r.ReadU32()
	if r.Err() != nil {
		return nil
	}
	if n > maxInnerLen {
		r.Fail(fmt.Errorf("property: inner sequence length %d exceeds limit", n))
		return nil
	}
	out := make([]T, n)
	for i := range out {
		out[i] = k.inner.Decode(r)
	}
	return out
}
