package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/emberfem/ember/internal/checkpoint"
	"github.com/emberfem/ember/internal/config"
	"github.com/emberfem/ember/internal/material"
	"github.com/emberfem/ember/internal/mesh"
	"github.com/emberfem/ember/internal/property"
	"github.com/emberfem/ember/internal/region"
	"github.com/emberfem/ember/internal/scripting"
	"github.com/emberfem/ember/internal/sim"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config
	cfgPath := "config/ember.toml"
	if p := os.Getenv("EMBER_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 3. Load mesh metadata
	m, err := mesh.Load(cfg.Mesh.MetadataPath)
	if err != nil {
		return fmt.Errorf("load mesh: %w", err)
	}
	log.Info("mesh metadata loaded",
		zap.String("path", cfg.Mesh.MetadataPath),
		zap.Int("boundaries", m.NumRegions(region.Boundary)),
		zap.Int("blocks", m.NumRegions(region.Block)))

	// 4. Load property scripts
	engine, err := scripting.NewEngine(cfg.Simulation.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("load scripts: %w", err)
	}
	defer engine.Close()

	// 5. Build materials
	reg := property.DefaultRegistry()
	mats := make([]*material.Material, 0, len(cfg.Materials))
	for _, mc := range cfg.Materials {
		spec := materialSpec(mc)
		mat, err := material.New(spec, m, reg, engine, log)
		if err != nil {
			return fmt.Errorf("build material: %w", err)
		}
		defer mat.Close()
		mats = append(mats, mat)
		log.Info("material ready",
			zap.String("name", mat.Name()),
			zap.Bool("boundary_restricted", mat.BoundaryScope().Restricted()),
			zap.Bool("block_restricted", mat.BlockScope().Restricted()),
			zap.Int("properties", mat.Props().Len()))
	}

	// 6. Optional checkpoint catalog
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var catalog *checkpoint.CatalogRepo
	if cfg.Checkpoint.Enabled && cfg.Checkpoint.Catalog {
		db, err := checkpoint.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("connect catalog db: %w", err)
		}
		defer db.Close()
		if err := checkpoint.RunMigrations(ctx, db.Pool); err != nil {
			return fmt.Errorf("migrate catalog: %w", err)
		}
		catalog = checkpoint.NewCatalogRepo(db)
	}

	// 7. Run
	interval := cfg.Checkpoint.Interval
	if !cfg.Checkpoint.Enabled {
		interval = 0
	}
	driver := sim.NewDriver(m, mats, catalog, sim.Options{
		RunID:         cfg.Simulation.RunID,
		Steps:         cfg.Simulation.Steps,
		PointsPerStep: cfg.Simulation.PointsPerRegion,
		CheckpointDir: cfg.Checkpoint.Dir,
		Interval:      interval,
	}, log)
	defer driver.Close()

	if err := driver.Setup(); err != nil {
		return err
	}
	log.Info("run starting",
		zap.String("run_id", cfg.Simulation.RunID),
		zap.Int64("steps", cfg.Simulation.Steps),
		zap.Int("points_per_region", cfg.Simulation.PointsPerRegion))

	if err := driver.Run(ctx); err != nil {
		return err
	}
	log.Info("run complete", zap.Int64("final_step", driver.Step()))
	return nil
}

func materialSpec(mc config.MaterialConfig) material.Spec {
	spec := material.Spec{
		Name:             mc.Name,
		Boundary:         mc.Boundary,
		Block:            mc.Block,
		DualRestrictable: mc.DualRestrictable,
	}
	for _, pc := range mc.Properties {
		spec.Properties = append(spec.Properties, material.PropertySpec{
			Name:     pc.Name,
			Type:     pc.Type,
			Stateful: pc.Stateful,
			Script:   pc.Script,
			Value:    pc.Value,
		})
	}
	return spec
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}

	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
