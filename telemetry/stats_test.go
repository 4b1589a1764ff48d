package telemetry

import (
	"math"
	"testing"
	"time"

	"github.com/pthm-cable/efield/components"
	"github.com/pthm-cable/efield/systems"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeOpacityStats(t *testing.T) {
	values := []float64{0.1, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.8, 1.0, 1.0}
	s := ComputeOpacityStats(values, 0.1, 1.0)

	if math.Abs(s.Mean-0.5) > 1e-9 {
		t.Errorf("mean = %v, want 0.5", s.Mean)
	}
	// Population standard deviation
	var sq float64
	for _, v := range values {
		sq += (v - 0.5) * (v - 0.5)
	}
	wantStd := math.Sqrt(sq / float64(len(values)))
	if math.Abs(s.Std-wantStd) > 1e-9 {
		t.Errorf("std = %v, want %v", s.Std, wantStd)
	}
	if math.Abs(s.P50-0.45) > 1e-9 {
		t.Errorf("p50 = %v, want 0.45", s.P50)
	}
	if s.SaturatedFrac != 0.2 {
		t.Errorf("saturated = %v, want 0.2", s.SaturatedFrac)
	}
	if s.FloorFrac != 0.2 {
		t.Errorf("floor = %v, want 0.2", s.FloorFrac)
	}
}

func TestComputeOpacityStatsEmpty(t *testing.T) {
	s := ComputeOpacityStats(nil, 0.1, 1)
	if s != (OpacityStats{}) {
		t.Errorf("expected zero stats for empty input, got %+v", s)
	}
}

func TestCollectorFlush(t *testing.T) {
	clock := time.Unix(0, 0)
	now := func() time.Time { return clock }
	c := newCollectorWithClock(5, now)

	g, err := systems.NewGrid(100, 4)
	if err != nil {
		t.Fatal(err)
	}
	fe, err := systems.NewFieldEvaluator(g, systems.DefaultFieldParams(), systems.SegmentColors{})
	if err != nil {
		t.Fatal(err)
	}
	cs := systems.NewChargeSet()
	cs.AddCharge(components.Vec3{}, 1)
	cs.AddCharge(components.Vec3{X: 30}, -0.5)

	for i := 0; i < 3; i++ {
		c.RecordPass(fe.Evaluate(cs))
	}

	if c.ShouldFlush() {
		t.Error("should not flush before the window elapses")
	}
	clock = clock.Add(6 * time.Second)
	if !c.ShouldFlush() {
		t.Error("should flush once the window elapses")
	}

	stats := c.Flush(3, fe.Buffers(), cs.Snapshot(nil), fe.Params())
	if stats.Passes != 3 || stats.Samples != 3*64 {
		t.Errorf("expected 3 passes / 192 samples, got %d / %d", stats.Passes, stats.Samples)
	}
	if stats.Charges != 2 || stats.NetCharge != 0.5 || stats.AbsCharge != 1.5 {
		t.Errorf("unexpected charge totals: %+v", stats)
	}
	if stats.OpacityMean < 0.1 || stats.OpacityMean > 1 {
		t.Errorf("opacity mean out of bounds: %v", stats.OpacityMean)
	}
	if stats.WallTimeSec != 6 {
		t.Errorf("expected wall time 6s, got %v", stats.WallTimeSec)
	}

	// Counters reset after flush
	if c.ShouldFlush() {
		t.Error("window should restart after flush")
	}
	next := c.Flush(4, fe.Buffers(), nil, fe.Params())
	if next.Passes != 0 || next.WindowStartTick != 3 {
		t.Errorf("expected reset window starting at 3, got %+v", next)
	}
}
