package main

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/efield/components"
	"github.com/pthm-cable/efield/config"
	"github.com/pthm-cable/efield/systems"
	"github.com/pthm-cable/efield/telemetry"
)

// FitnessEvaluator runs one field pass per candidate and scores how far the
// mean opacity lands from the target.
type FitnessEvaluator struct {
	params  *ParamVector
	base    *config.Config
	target  float64
	grid    *systems.Grid
	charges []systems.ChargeSample
	alphas  []float64

	lastStats telemetry.OpacityStats
}

// NewFitnessEvaluator builds the grid and charge list once from cfg.
func NewFitnessEvaluator(params *ParamVector, cfg *config.Config, target float64) (*FitnessEvaluator, error) {
	grid, err := systems.NewGrid(cfg.Derived.DomainSize32, cfg.Field.Subdivisions)
	if err != nil {
		return nil, err
	}
	if len(cfg.Charges) == 0 {
		return nil, fmt.Errorf("config has no charges to tune against")
	}

	charges := make([]systems.ChargeSample, len(cfg.Charges))
	for i, c := range cfg.Charges {
		charges[i] = systems.ChargeSample{
			ID:        components.ChargeID(i),
			Pos:       components.Vec3{X: float32(c.X), Y: float32(c.Y), Z: float32(c.Z)},
			Magnitude: float32(c.Magnitude),
		}
	}

	return &FitnessEvaluator{
		params:  params,
		base:    cfg,
		target:  target,
		grid:    grid,
		charges: charges,
		alphas:  make([]float64, grid.Len()),
	}, nil
}

// Evaluate returns the squared distance between the mean opacity for x and
// the target (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	stats, err := fe.Stats(x)
	if err != nil {
		return math.Inf(1)
	}
	d := stats.Mean - fe.target
	return d * d
}

// Stats runs one pass for x and returns the opacity distribution.
func (fe *FitnessEvaluator) Stats(x []float64) (telemetry.OpacityStats, error) {
	cfg := *fe.base
	fe.params.ApplyToConfig(&cfg, x)

	params := systems.FieldParamsFromConfig(cfg.Field)
	ev, err := systems.NewFieldEvaluator(fe.grid, params, systems.SegmentColorsFromConfig(cfg.Colors))
	if err != nil {
		return telemetry.OpacityStats{}, err
	}
	ev.EvaluateSnapshot(fe.charges)

	buf := ev.Buffers()
	for i := range fe.alphas {
		fe.alphas[i] = float64(buf.Alpha(i))
	}
	fe.lastStats = telemetry.ComputeOpacityStats(fe.alphas, float64(params.OpacityMin), float64(params.OpacityMax))
	return fe.lastStats, nil
}

// LastStats returns the opacity stats of the most recent evaluation.
func (fe *FitnessEvaluator) LastStats() telemetry.OpacityStats {
	return fe.lastStats
}

// evalRecord is one row of the evaluation log.
type evalRecord struct {
	Eval        int     `csv:"eval"`
	Fitness     float64 `csv:"fitness"`
	LineLength  float64 `csv:"line_length"`
	OpacityMean float64 `csv:"opacity_mean"`
	OpacityP50  float64 `csv:"opacity_p50"`
}

// tuneResult is the best candidate found.
type tuneResult struct {
	X       []float64
	Fitness float64
	Stats   telemetry.OpacityStats
	Evals   []evalRecord
}

// tune runs Nelder-Mead from the config's current values.
func tune(fe *FitnessEvaluator, maxEvals int) (tuneResult, error) {
	best := tuneResult{Fitness: math.Inf(1)}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			clamped := fe.params.Clamp(x)
			fitness := fe.Evaluate(clamped)
			stats := fe.LastStats()

			best.Evals = append(best.Evals, evalRecord{
				Eval:        len(best.Evals) + 1,
				Fitness:     fitness,
				LineLength:  fe.params.Values(clamped)[0],
				OpacityMean: stats.Mean,
				OpacityP50:  stats.P50,
			})

			if fitness < best.Fitness {
				best.Fitness = fitness
				best.X = clamped
				best.Stats = stats
			}
			return fitness
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: maxEvals,
	}
	method := &optimize.NelderMead{SimplexSize: 0.5}

	_, err := optimize.Minimize(problem, fe.params.DefaultVector(), settings, method)
	if best.X == nil {
		return best, fmt.Errorf("no evaluations completed: %w", err)
	}
	return best, err
}
