// Package game holds the simulation context: the sample grid, the charge set,
// the field evaluator and the state the frontend edits between passes.
// It has no raylib dependency so headless runs and tests stay pure Go.
package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/efield/camera"
	"github.com/pthm-cable/efield/components"
	"github.com/pthm-cable/efield/config"
	"github.com/pthm-cable/efield/systems"
	"github.com/pthm-cable/efield/telemetry"
)

// Options configures a Game beyond what the YAML config holds.
type Options struct {
	LogStats       bool    // Emit window stats via slog
	StatsWindowSec float64 // Stats window in seconds (0 = use config)
	OutputDir      string  // Directory for CSV output (empty = disabled)
	Headless       bool
}

// Game holds the complete visualizer state.
type Game struct {
	cfg *config.Config

	// Kernel
	grid      *systems.Grid
	charges   *systems.ChargeSet
	evaluator *systems.FieldEvaluator
	snapshot  []systems.ChargeSample

	// View
	camera *camera.Camera

	// Selection
	selected    components.ChargeID
	hasSelected bool
	pickCenters []components.Vec3

	// Telemetry
	perfCollector *telemetry.PerfCollector
	collector     *telemetry.Collector
	outputManager *telemetry.OutputManager
	statsCallback func(telemetry.WindowStats)
	logStats      bool

	// State
	tick      int32
	headless  bool
	lastPass  systems.PassResult
	lastStats telemetry.WindowStats
}

// NewGameWithOptions builds the grid, evaluator and initial charges from cfg.
func NewGameWithOptions(cfg *config.Config, opts Options) (*Game, error) {
	grid, err := systems.NewGrid(cfg.Derived.DomainSize32, cfg.Field.Subdivisions)
	if err != nil {
		return nil, fmt.Errorf("building grid: %w", err)
	}

	evaluator, err := systems.NewFieldEvaluator(
		grid,
		systems.FieldParamsFromConfig(cfg.Field),
		systems.SegmentColorsFromConfig(cfg.Colors),
	)
	if err != nil {
		return nil, fmt.Errorf("building evaluator: %w", err)
	}

	statsWindow := cfg.Telemetry.StatsWindow
	if opts.StatsWindowSec > 0 {
		statsWindow = opts.StatsWindowSec
	}

	outputManager, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := outputManager.WriteConfig(cfg); err != nil {
		outputManager.Close()
		return nil, err
	}

	g := &Game{
		cfg:       cfg,
		grid:      grid,
		charges:   systems.NewChargeSet(),
		evaluator: evaluator,
		camera: camera.New(
			float32(cfg.Camera.Yaw),
			float32(cfg.Camera.Pitch),
			cfg.Derived.CameraDist32,
			float32(cfg.Camera.MinDistance),
			float32(cfg.Camera.MaxDistance),
			float32(cfg.Camera.Fovy),
		),
		perfCollector: telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		collector:     telemetry.NewCollector(statsWindow),
		outputManager: outputManager,
		logStats:      opts.LogStats,
		headless:      opts.Headless,
	}

	for _, c := range cfg.Charges {
		g.charges.AddCharge(
			components.Vec3{X: float32(c.X), Y: float32(c.Y), Z: float32(c.Z)},
			float32(c.Magnitude),
		)
	}

	slog.Info("field initialized",
		"domain_size", cfg.Field.DomainSize,
		"subdivisions", cfg.Field.Subdivisions,
		"samples", grid.Len(),
		"charges", g.charges.Len(),
		"workers", evaluator.Params().Workers,
		"headless", opts.Headless,
		"output_dir", opts.OutputDir,
	)

	return g, nil
}

// SetStatsCallback registers fn to receive every flushed stats window.
func (g *Game) SetStatsCallback(fn func(telemetry.WindowStats)) {
	g.statsCallback = fn
}

// Config returns the configuration the game was built from.
func (g *Game) Config() *config.Config { return g.cfg }

// Grid returns the immutable sample grid.
func (g *Game) Grid() *systems.Grid { return g.grid }

// Charges returns the live charge set.
func (g *Game) Charges() *systems.ChargeSet { return g.charges }

// Buffers returns the output buffers of the last pass, read-only.
func (g *Game) Buffers() *systems.FieldBuffers { return g.evaluator.Buffers() }

// Snapshot returns the charges as seen by the last pass.
func (g *Game) Snapshot() []systems.ChargeSample { return g.snapshot }

// Camera returns the orbit camera.
func (g *Game) Camera() *camera.Camera { return g.camera }

// LastPass returns the result of the most recent evaluation pass.
func (g *Game) LastPass() systems.PassResult { return g.lastPass }

// LastStats returns the most recently flushed stats window.
func (g *Game) LastStats() telemetry.WindowStats { return g.lastStats }

// PerfStats returns timing statistics over the perf window.
func (g *Game) PerfStats() telemetry.PerfStats { return g.perfCollector.Stats() }

// RecordFrame marks a rendered frame for FPS tracking.
func (g *Game) RecordFrame() { g.perfCollector.RecordFrame() }

// Tick returns the number of completed passes.
func (g *Game) Tick() int32 { return g.tick }

// Unload releases output files.
func (g *Game) Unload() {
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}
