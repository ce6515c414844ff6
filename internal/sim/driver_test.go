package sim

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/emberfem/ember/internal/material"
	"github.com/emberfem/ember/internal/mesh"
	"github.com/emberfem/ember/internal/property"
	"github.com/emberfem/ember/internal/region"
)

func testMesh() *mesh.Mesh {
	return mesh.New(
		map[string]region.ID{"left": 1, "right": 2},
		map[string]region.ID{"body": 10},
	)
}

func buildMaterial(t *testing.T, spec material.Spec) *material.Material {
	t.Helper()
	m, err := material.New(spec, testMesh(), property.DefaultRegistry(), nil, zap.NewNop())
	require.NoError(t, err)
	return m
}

func TestRunStepsAndCheckpoints(t *testing.T) {
	dir := t.TempDir()
	mat := buildMaterial(t, material.Spec{
		Name:       "steel",
		Properties: []material.PropertySpec{{Name: "k", Type: "float64", Stateful: true, Value: 3}},
	})

	d := NewDriver(testMesh(), []*material.Material{mat}, nil, Options{
		RunID:         "test",
		Steps:         4,
		PointsPerStep: 2,
		CheckpointDir: dir,
		Interval:      2,
	}, zap.NewNop())
	defer d.Close()

	require.NoError(t, d.Setup())
	require.NoError(t, d.Run(context.Background()))
	assert.Equal(t, int64(4), d.Step())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2) // steps 2 and 4

	// History carries last step's values after the final rotation.
	old, ok := material.GetOld[float64](mat, "k")
	require.True(t, ok)
	assert.Equal(t, []float64{3, 3}, old.Data())
}

func TestScopedMaterialSkipsInactiveRegions(t *testing.T) {
	left := buildMaterial(t, material.Spec{
		Name:       "left_only",
		Boundary:   []string{"left"},
		Properties: []material.PropertySpec{{Name: "k", Type: "float64", Value: 1}},
	})

	d := NewDriver(testMesh(), []*material.Material{left}, nil, Options{
		RunID:         "test",
		Steps:         1,
		PointsPerStep: 2,
	}, zap.NewNop())
	defer d.Close()

	assert.True(t, left.ActiveAt(1))
	assert.False(t, left.ActiveAt(2))

	require.NoError(t, d.Setup())
	require.NoError(t, d.Run(context.Background()))
}

func TestBlockRestrictionDoesNotGateStepLoop(t *testing.T) {
	// The block scope is a declaration-time constraint; only the boundary
	// scope drives evaluation.
	mat := buildMaterial(t, material.Spec{
		Name:       "body_only",
		Block:      []string{"body"},
		Properties: []material.PropertySpec{{Name: "k", Type: "float64", Value: 4}},
	})

	d := NewDriver(testMesh(), []*material.Material{mat}, nil, Options{
		RunID: "test", Steps: 1, PointsPerStep: 2,
	}, zap.NewNop())
	defer d.Close()

	assert.True(t, mat.BlockScope().Restricted())
	assert.True(t, mat.ActiveAt(1))
	assert.True(t, mat.ActiveAt(2))

	require.NoError(t, d.Setup())
	require.NoError(t, d.Run(context.Background()))

	cur, ok := material.GetCurrent[float64](mat, "k")
	require.True(t, ok)
	assert.Equal(t, []float64{4, 4}, cur.Data())
}

func TestCheckpointRestore(t *testing.T) {
	dir := t.TempDir()
	spec := material.Spec{
		Name:       "steel",
		Properties: []material.PropertySpec{{Name: "k", Type: "float64", Stateful: true, Value: 5}},
	}
	opts := Options{RunID: "run1", Steps: 3, PointsPerStep: 2, CheckpointDir: dir, Interval: 3}

	src := buildMaterial(t, spec)
	d1 := NewDriver(testMesh(), []*material.Material{src}, nil, opts, zap.NewNop())
	defer d1.Close()
	require.NoError(t, d1.Setup())
	require.NoError(t, d1.Run(context.Background()))

	path := filepath.Join(dir, "run1_000003.ckpt")
	_, err := os.Stat(path)
	require.NoError(t, err)

	// A fresh driver with identical declarations restores the recorded step.
	dst := buildMaterial(t, spec)
	d2 := NewDriver(testMesh(), []*material.Material{dst}, nil, opts, zap.NewNop())
	defer d2.Close()
	require.NoError(t, d2.Setup())
	require.NoError(t, d2.Restore(path))

	assert.Equal(t, int64(3), d2.Step())
	cur, ok := material.GetCurrent[float64](dst, "k")
	require.True(t, ok)
	assert.Equal(t, []float64{5, 5}, cur.Data()) // checkpoint precedes rotation
}

func TestRunHonorsContextCancellation(t *testing.T) {
	mat := buildMaterial(t, material.Spec{
		Name:       "steel",
		Properties: []material.PropertySpec{{Name: "k", Type: "float64", Value: 1}},
	})
	d := NewDriver(testMesh(), []*material.Material{mat}, nil, Options{
		RunID: "test", Steps: 1000, PointsPerStep: 1,
	}, zap.NewNop())
	defer d.Close()
	require.NoError(t, d.Setup())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := d.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
