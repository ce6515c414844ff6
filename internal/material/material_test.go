package material

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/emberfem/ember/internal/mesh"
	"github.com/emberfem/ember/internal/property"
	"github.com/emberfem/ember/internal/region"
	"github.com/emberfem/ember/internal/restrict"
)

func testMesh() *mesh.Mesh {
	return mesh.New(
		map[string]region.ID{"left": 1, "right": 2},
		map[string]region.ID{"body": 10},
	)
}

func newMaterial(t *testing.T, spec Spec) *Material {
	t.Helper()
	m, err := New(spec, testMesh(), property.DefaultRegistry(), nil, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestDeclareAndAccess(t *testing.T) {
	m := newMaterial(t, Spec{
		Name: "steel",
		Properties: []PropertySpec{
			{Name: "conductivity", Type: "float64", Value: 42.5},
			{Name: "stress", Type: "mat3"},
		},
	})

	m.SetPointCount(4)
	assert.Equal(t, 4, m.PointCount())

	cur, ok := m.Current("conductivity")
	require.True(t, ok)
	assert.Equal(t, 4, cur.Size())

	s, ok := GetCurrent[property.Mat3](m, "stress")
	require.True(t, ok)
	assert.Equal(t, 4, s.Size())

	_, ok = m.Current("missing")
	assert.False(t, ok)
}

func TestDuplicatePropertyRejected(t *testing.T) {
	_, err := New(Spec{
		Name: "dup",
		Properties: []PropertySpec{
			{Name: "k", Type: "float64"},
			{Name: "k", Type: "float64"},
		},
	}, testMesh(), property.DefaultRegistry(), nil, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"k"`)
}

func TestUnknownElementTypeRejected(t *testing.T) {
	_, err := New(Spec{
		Name:       "bad",
		Properties: []PropertySpec{{Name: "k", Type: "spinor"}},
	}, testMesh(), property.DefaultRegistry(), nil, zap.NewNop())
	require.Error(t, err)
}

func TestConstantEvaluation(t *testing.T) {
	m := newMaterial(t, Spec{
		Name:       "steel",
		Properties: []PropertySpec{{Name: "k", Type: "float64", Value: 2.5}},
	})
	m.SetPointCount(3)

	require.NoError(t, m.Evaluate(1, 0))
	cur, _ := GetCurrent[float64](m, "k")
	assert.Equal(t, []float64{2.5, 2.5, 2.5}, cur.Data())
}

func TestStatefulHistoryOnlyForStatefulProps(t *testing.T) {
	m := newMaterial(t, Spec{
		Name: "steel",
		Properties: []PropertySpec{
			{Name: "k", Type: "float64", Stateful: true, Value: 1},
			{Name: "rho", Type: "float64", Value: 2},
		},
	})

	_, ok := m.Old("k")
	assert.True(t, ok)
	_, ok = m.Older("k")
	assert.True(t, ok)
	_, ok = m.Old("rho")
	assert.False(t, ok)
}

func TestStatefulAfterNonStateful(t *testing.T) {
	// History collections are denser than the current one; indices must not
	// be assumed equal across them.
	m := newMaterial(t, Spec{
		Name: "mixed",
		Properties: []PropertySpec{
			{Name: "rho", Type: "float64", Value: 2},
			{Name: "k", Type: "float64", Stateful: true, Value: 7},
		},
	})
	m.SetPointCount(2)
	require.NoError(t, m.InitStateful(0))

	old, ok := GetOld[float64](m, "k")
	require.True(t, ok)
	assert.Equal(t, []float64{7, 7}, old.Data())
	assert.Equal(t, 1, m.PropsOld().Len())
	assert.Equal(t, 2, m.Props().Len())
}

func TestInitStatefulSeedsHistory(t *testing.T) {
	m := newMaterial(t, Spec{
		Name:       "steel",
		Properties: []PropertySpec{{Name: "k", Type: "float64", Stateful: true, Value: 7}},
	})
	m.SetPointCount(2)
	require.NoError(t, m.InitStateful(0))

	old, _ := GetOld[float64](m, "k")
	assert.Equal(t, []float64{7, 7}, old.Data())
}

func TestSeededHistoryUnchangedByCurrentWrite(t *testing.T) {
	m := newMaterial(t, Spec{
		Name:       "steel",
		Properties: []PropertySpec{{Name: "k", Type: "float64", Stateful: true, Value: 7}},
	})
	m.SetPointCount(2)
	require.NoError(t, m.InitStateful(0))

	// The first step's writes must not reach back into the seeded slots.
	cur, _ := GetCurrent[float64](m, "k")
	cur.SetAt(0, 99)

	old, _ := GetOld[float64](m, "k")
	assert.Equal(t, []float64{7, 7}, old.Data())
	older, ok := m.Older("k")
	require.True(t, ok)
	assert.Equal(t, 7.0, older.(*property.Store[float64]).At(0))
}

func TestOlderHoldsInitialAfterOneRotation(t *testing.T) {
	m := newMaterial(t, Spec{
		Name:       "steel",
		Properties: []PropertySpec{{Name: "k", Type: "float64", Stateful: true, Value: 7}},
	})
	m.SetPointCount(1)
	require.NoError(t, m.InitStateful(0))

	cur, _ := GetCurrent[float64](m, "k")
	cur.SetAt(0, 42)
	require.NoError(t, m.AdvanceStep())

	old, _ := GetOld[float64](m, "k")
	assert.Equal(t, 42.0, old.At(0))
	older, ok := m.Older("k")
	require.True(t, ok)
	assert.Equal(t, 7.0, older.(*property.Store[float64]).At(0))
}

func TestAdvanceStepRotatesHistory(t *testing.T) {
	m := newMaterial(t, Spec{
		Name:       "steel",
		Properties: []PropertySpec{{Name: "k", Type: "float64", Stateful: true, Value: 1}},
	})
	m.SetPointCount(3)
	require.NoError(t, m.InitStateful(0))

	// Evaluate this step, overwrite one point, then rotate.
	require.NoError(t, m.Evaluate(1, 0))
	cur, _ := GetCurrent[float64](m, "k")
	cur.SetAt(0, 99)

	require.NoError(t, m.AdvanceStep())

	// Old now aliases last step's data; current is fresh and zeroed.
	old, _ := GetOld[float64](m, "k")
	assert.Equal(t, []float64{99, 1, 1}, old.Data())

	cur, _ = GetCurrent[float64](m, "k")
	assert.Equal(t, 3, cur.Size())
	assert.Equal(t, []float64{0, 0, 0}, cur.Data())
}

func TestTwoRotationsReachOlder(t *testing.T) {
	m := newMaterial(t, Spec{
		Name:       "steel",
		Properties: []PropertySpec{{Name: "k", Type: "float64", Stateful: true, Value: 1}},
	})
	m.SetPointCount(1)
	require.NoError(t, m.InitStateful(0))

	cur, _ := GetCurrent[float64](m, "k")
	cur.SetAt(0, 10)
	require.NoError(t, m.AdvanceStep())

	cur, _ = GetCurrent[float64](m, "k")
	cur.SetAt(0, 20)
	require.NoError(t, m.AdvanceStep())

	older, ok := m.Older("k")
	require.True(t, ok)
	assert.Equal(t, 10.0, older.(*property.Store[float64]).At(0))
	old, _ := GetOld[float64](m, "k")
	assert.Equal(t, 20.0, old.At(0))
}

func TestSetPointCountResizesAllSlots(t *testing.T) {
	m := newMaterial(t, Spec{
		Name:       "steel",
		Properties: []PropertySpec{{Name: "k", Type: "float64", Stateful: true}},
	})
	m.SetPointCount(2)
	m.SetPointCount(5)

	cur, _ := m.Current("k")
	old, _ := m.Old("k")
	older, _ := m.Older("k")
	assert.Equal(t, 5, cur.Size())
	assert.Equal(t, 5, old.Size())
	assert.Equal(t, 5, older.Size())
}

func TestScopesFromSpec(t *testing.T) {
	m := newMaterial(t, Spec{
		Name:     "surface_flux",
		Boundary: []string{"left"},
	})

	assert.True(t, m.ActiveAt(1))
	assert.False(t, m.ActiveAt(2))
	assert.False(t, m.BlockScope().Restricted())
}

func TestDualRestrictionNeedsFlag(t *testing.T) {
	_, err := New(Spec{
		Name:     "both",
		Boundary: []string{"left"},
		Block:    []string{"body"},
	}, testMesh(), property.DefaultRegistry(), nil, zap.NewNop())
	require.Error(t, err)

	var cfgErr *restrict.ConfigError
	require.True(t, errors.As(err, &cfgErr))

	m := newMaterial(t, Spec{
		Name:             "both_ok",
		Boundary:         []string{"left"},
		Block:            []string{"body"},
		DualRestrictable: true,
	})
	assert.True(t, m.BoundaryScope().Restricted())
	assert.True(t, m.BlockScope().Restricted())
}
