// Package sim drives the step loop: evaluate materials per region, rotate
// history buffers, persist checkpoints. Each step runs the phases in order
// on the driver's goroutine; stores are never touched concurrently.
//
// Evaluation iterates boundary regions only. The block scope is a
// declaration-time constraint (dual-restriction check, subset queries); it
// never gates the step loop, so a block-restricted material with an
// unrestricted boundary scope is evaluated at every boundary region.
package sim

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/emberfem/ember/internal/checkpoint"
	"github.com/emberfem/ember/internal/material"
	"github.com/emberfem/ember/internal/mesh"
	"github.com/emberfem/ember/internal/property"
	"github.com/emberfem/ember/internal/region"
)

// Phase defines execution ordering within a single step.
type Phase int

const (
	PhaseEvaluate Phase = iota // fill current property values per region
	PhasePersist               // checkpoint if due, capturing current values
	PhaseRotate                // shift current → old → older for the next step
)

// Options configures a Driver.
type Options struct {
	RunID         string
	Steps         int64
	PointsPerStep int // evaluation points per region
	CheckpointDir string
	Interval      int64 // checkpoint every N steps; 0 disables
}

// Driver owns the materials for the duration of a run.
type Driver struct {
	mesh    *mesh.Mesh
	mats    []*material.Material
	catalog *checkpoint.CatalogRepo // nil when the catalog is disabled
	log     *zap.Logger
	opts    Options
	step    int64
}

func NewDriver(m *mesh.Mesh, mats []*material.Material, catalog *checkpoint.CatalogRepo, opts Options, log *zap.Logger) *Driver {
	return &Driver{mesh: m, mats: mats, catalog: catalog, opts: opts, log: log}
}

// Step returns the last completed step.
func (d *Driver) Step() int64 { return d.step }

// Setup sizes every material's stores and seeds stateful history.
func (d *Driver) Setup() error {
	for _, mat := range d.mats {
		mat.SetPointCount(d.opts.PointsPerStep)
		if err := mat.InitStateful(d.firstActiveRegion(mat)); err != nil {
			return fmt.Errorf("setup material %q: %w", mat.Name(), err)
		}
	}
	return nil
}

// firstActiveRegion picks a region ID for stateful seeding: the lowest
// boundary ID the material is active at, or 0 for unrestricted materials.
func (d *Driver) firstActiveRegion(mat *material.Material) region.ID {
	ids := mat.BoundaryScope().IDSet().IDs()
	if len(ids) > 0 {
		return ids[0]
	}
	return 0
}

// Run executes the configured number of steps.
func (d *Driver) Run(ctx context.Context) error {
	for s := d.step + 1; s <= d.opts.Steps; s++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.runStep(ctx, s); err != nil {
			return fmt.Errorf("step %d: %w", s, err)
		}
		d.step = s
	}
	return nil
}

func (d *Driver) runStep(ctx context.Context, step int64) error {
	// Evaluate: visit every boundary region; only materials whose boundary
	// scope covers the region contribute there.
	for _, id := range d.mesh.ValidIDs(region.Boundary).IDs() {
		for _, mat := range d.mats {
			if !mat.ActiveAt(id) {
				continue
			}
			if err := mat.Evaluate(step, id); err != nil {
				return err
			}
		}
	}

	// Persist before rotating so the file carries this step's values.
	if d.opts.Interval > 0 && step%d.opts.Interval == 0 {
		if err := d.Checkpoint(ctx, step); err != nil {
			return err
		}
	}

	// Rotate: one history shift per material per step.
	for _, mat := range d.mats {
		if err := mat.AdvanceStep(); err != nil {
			return err
		}
	}
	return nil
}

// collections returns every material's history collections in a stable
// order; checkpoint files are written and read in exactly this order.
func (d *Driver) collections() []*property.Collection {
	var out []*property.Collection
	for _, mat := range d.mats {
		out = append(out, mat.Props(), mat.PropsOld(), mat.PropsOlder())
	}
	return out
}

// Checkpoint writes all property stores to a step-numbered file and records
// it in the catalog when one is configured.
func (d *Driver) Checkpoint(ctx context.Context, step int64) error {
	if err := os.MkdirAll(d.opts.CheckpointDir, 0o755); err != nil {
		return fmt.Errorf("checkpoint dir: %w", err)
	}
	path := filepath.Join(d.opts.CheckpointDir, fmt.Sprintf("%s_%06d.ckpt", d.opts.RunID, step))

	digest, err := checkpoint.Write(path, step, d.collections())
	if err != nil {
		return err
	}
	d.log.Info("checkpoint written",
		zap.Int64("step", step),
		zap.String("path", path),
		zap.String("digest", digest[:12]))

	if d.catalog != nil {
		rec := checkpoint.Record{RunID: d.opts.RunID, Step: step, Path: path, Digest: digest}
		if err := d.catalog.Add(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// Restore loads a checkpoint file written by a driver with the same
// material declarations and point count. Call after Setup. Every store is
// re-resized first: that both pins the expected stream lengths and breaks
// the aliasing Setup created between history slots, so each slot loads into
// its own storage.
func (d *Driver) Restore(path string) error {
	colls := d.collections()
	for _, c := range colls {
		c.Resize(d.opts.PointsPerStep)
	}
	hdr, err := checkpoint.Read(path, colls)
	if err != nil {
		return err
	}
	d.step = hdr.Step
	d.log.Info("checkpoint restored", zap.Int64("step", hdr.Step), zap.String("path", path))
	return nil
}

// Close releases every material's stores.
func (d *Driver) Close() error {
	for _, mat := range d.mats {
		mat.Close()
	}
	return nil
}
