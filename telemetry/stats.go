package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated field statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	WallTimeSec     float64 `csv:"wall_time"`

	// Charge configuration at window end
	Charges   int     `csv:"charges"`
	NetCharge float64 `csv:"net_charge"`
	AbsCharge float64 `csv:"abs_charge"`

	// Passes during window
	Passes     int `csv:"passes"`
	Samples    int `csv:"samples"`
	Degenerate int `csv:"degenerate"` // samples clamped over the whole window

	// Opacity distribution (sampled at window end)
	OpacityMean float64 `csv:"opacity_mean"`
	OpacityStd  float64 `csv:"opacity_std"`
	OpacityP10  float64 `csv:"opacity_p10"`
	OpacityP50  float64 `csv:"opacity_p50"`
	OpacityP90  float64 `csv:"opacity_p90"`

	// Fraction of samples pinned at the clamp bounds
	SaturatedFrac float64 `csv:"saturated_frac"`
	FloorFrac     float64 `csv:"floor_frac"`

	// Largest unclamped magnitude cue seen during the window
	MaxMagnitude float64 `csv:"max_magnitude"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// OpacityStats summarizes one frame's alpha values.
type OpacityStats struct {
	Mean, Std     float64
	P10, P50, P90 float64
	SaturatedFrac float64
	FloorFrac     float64
}

// ComputeOpacityStats calculates the distribution of alpha values against
// the clamp bounds. Values within 1e-6 of a bound count as pinned to it.
func ComputeOpacityStats(values []float64, floor, ceiling float64) OpacityStats {
	n := len(values)
	if n == 0 {
		return OpacityStats{}
	}

	var s OpacityStats
	s.Mean, s.Std = stat.PopMeanStdDev(values, nil)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	s.P10 = Percentile(sorted, 0.10)
	s.P50 = Percentile(sorted, 0.50)
	s.P90 = Percentile(sorted, 0.90)

	const eps = 1e-6
	var sat, flo int
	for _, v := range sorted {
		if v >= ceiling-eps {
			sat++
		}
		if v <= floor+eps {
			flo++
		}
	}
	s.SaturatedFrac = float64(sat) / float64(n)
	s.FloorFrac = float64(flo) / float64(n)

	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("wall_time", s.WallTimeSec),
		slog.Int("charges", s.Charges),
		slog.Float64("net_charge", s.NetCharge),
		slog.Float64("abs_charge", s.AbsCharge),
		slog.Int("passes", s.Passes),
		slog.Int("samples", s.Samples),
		slog.Int("degenerate", s.Degenerate),
		slog.Float64("opacity_mean", s.OpacityMean),
		slog.Float64("opacity_std", s.OpacityStd),
		slog.Float64("opacity_p10", s.OpacityP10),
		slog.Float64("opacity_p50", s.OpacityP50),
		slog.Float64("opacity_p90", s.OpacityP90),
		slog.Float64("saturated_frac", s.SaturatedFrac),
		slog.Float64("floor_frac", s.FloorFrac),
		slog.Float64("max_magnitude", s.MaxMagnitude),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"passes", s.Passes,
		"charges", s.Charges,
		"net_charge", s.NetCharge,
		"degenerate", s.Degenerate,
		"opacity_mean", s.OpacityMean,
		"opacity_p50", s.OpacityP50,
		"saturated_frac", s.SaturatedFrac,
		"floor_frac", s.FloorFrac,
		"max_magnitude", s.MaxMagnitude,
	)
}
