package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/efield/config"
)

func newTestEvaluator(t *testing.T, target float64) *FitnessEvaluator {
	t.Helper()
	cfg := config.Defaults()
	fe, err := NewFitnessEvaluator(NewParamVector(cfg), cfg, target)
	require.NoError(t, err)
	return fe
}

func TestParamVectorLogScale(t *testing.T) {
	cfg := config.Defaults()
	pv := NewParamVector(cfg)

	require.Equal(t, 1, pv.Dim())
	assert.InDelta(t, 7, pv.DefaultVector()[0], 1e-9)
	assert.InDelta(t, 1e7, pv.Values(pv.DefaultVector())[0], 1e-3)

	assert.Equal(t, []float64{12}, pv.Clamp([]float64{40}))
	assert.Equal(t, []float64{2}, pv.Clamp([]float64{-3}))

	pv.ApplyToConfig(cfg, []float64{5})
	assert.InDelta(t, 1e5, cfg.Field.LineLength, 1e-6)
}

func TestShorterDivisorRaisesOpacity(t *testing.T) {
	fe := newTestEvaluator(t, 0.35)

	long, err := fe.Stats([]float64{9})
	require.NoError(t, err)
	short, err := fe.Stats([]float64{5})
	require.NoError(t, err)

	assert.Greater(t, short.Mean, long.Mean)
	assert.GreaterOrEqual(t, long.Mean, 0.1)
	assert.LessOrEqual(t, short.Mean, 1.0)
}

func TestEvaluateIsSquaredError(t *testing.T) {
	fe := newTestEvaluator(t, 0.35)
	fitness := fe.Evaluate([]float64{7})
	mean := fe.LastStats().Mean
	assert.InDelta(t, (mean-0.35)*(mean-0.35), fitness, 1e-12)
}

func TestTuneReachesTarget(t *testing.T) {
	fe := newTestEvaluator(t, 0.35)

	res, err := tune(fe, 300)
	if err != nil {
		t.Logf("optimizer status: %v", err)
	}
	require.NotNil(t, res.X)

	assert.InDelta(t, 0.35, res.Stats.Mean, 0.02)
	assert.False(t, math.IsInf(res.Fitness, 0))
	assert.NotEmpty(t, res.Evals)
	assert.Equal(t, 1, res.Evals[0].Eval)
}

func TestNoChargesRejected(t *testing.T) {
	cfg := config.Defaults()
	cfg.Charges = nil
	_, err := NewFitnessEvaluator(NewParamVector(cfg), cfg, 0.35)
	assert.Error(t, err)
}
