package systems

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/efield/components"
)

var testColors = SegmentColors{
	{R: 0, G: 0.5, B: 1, A: 1},
	{R: 0, G: 0.5, B: 1, A: 1},
	{R: 1, G: 1, B: 1, A: 1},
}

func newTestEvaluator(t testing.TB, size float32, n int, params FieldParams) *FieldEvaluator {
	t.Helper()
	g, err := NewGrid(size, n)
	require.NoError(t, err)
	fe, err := NewFieldEvaluator(g, params, testColors)
	require.NoError(t, err)
	return fe
}

// exactHalfField is the float64 reference for one evaluator contribution.
func exactHalfField(p FieldParams, pos components.Vec3, charges []ChargeSample) r3.Vec {
	var e r3.Vec
	s := r3.Vec{X: float64(pos.X), Y: float64(pos.Y), Z: float64(pos.Z)}
	for _, c := range charges {
		d := r3.Sub(s, r3.Vec{X: float64(c.Pos.X), Y: float64(c.Pos.Y), Z: float64(c.Pos.Z)})
		r := r3.Norm(d)
		scale := float64(p.K) * float64(c.Magnitude) / (r * r * r) / float64(p.LineLength) / 2
		e = r3.Add(e, r3.Scale(scale, d))
	}
	return e
}

func toR3(v components.Vec3) r3.Vec {
	return r3.Vec{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)}
}

func TestInitialBuffers(t *testing.T) {
	fe := newTestEvaluator(t, 100, 10, DefaultFieldParams())
	b := fe.Buffers()

	require.Equal(t, 1000, b.Len())
	require.Len(t, b.Points, 3000)
	require.Len(t, b.Colors, 3000)

	seg := b.Segment(0)
	pos := fe.Grid().Point(0).Pos
	assert.Equal(t, pos, seg[1])
	assert.Equal(t, pos.Sub(components.Vec3{X: 1, Y: 1, Z: 1}), seg[0])
	assert.Equal(t, pos.Add(components.Vec3{X: 1, Y: 1, Z: 1}), seg[2])
	assert.Equal(t, float32(1), b.Alpha(0))
	assert.Equal(t, testColors[2], b.SegmentColors(0)[2])
}

func TestZeroChargeBaseline(t *testing.T) {
	fe := newTestEvaluator(t, 100, 10, DefaultFieldParams())
	res := fe.Evaluate(NewChargeSet())

	assert.Equal(t, 1000, res.Samples)
	assert.Equal(t, 0, res.Charges)
	assert.Equal(t, 0, res.Degenerate)

	b := fe.Buffers()
	for i, sp := range fe.Grid().Points() {
		seg := b.Segment(i)
		for _, p := range seg {
			require.Equal(t, sp.Pos, p, "segment %d should collapse to its sample", i)
		}
		for _, c := range b.SegmentColors(i) {
			require.Equal(t, float32(0.1), c.A, "segment %d alpha", i)
		}
	}
}

func TestSuperposition(t *testing.T) {
	fe := newTestEvaluator(t, 100, 10, DefaultFieldParams())

	a := ChargeSample{ID: 0, Pos: components.Vec3{X: 10, Y: 0, Z: 0}, Magnitude: 1}
	b := ChargeSample{ID: 1, Pos: components.Vec3{X: -20, Y: 5, Z: 3}, Magnitude: -1.5}

	for _, sp := range fe.Grid().Points() {
		ea := toR3(fe.FieldAt(sp.Pos, []ChargeSample{a}))
		eb := toR3(fe.FieldAt(sp.Pos, []ChargeSample{b}))
		eab := toR3(fe.FieldAt(sp.Pos, []ChargeSample{a, b}))

		diff := r3.Norm(r3.Sub(eab, r3.Add(ea, eb)))
		tol := 1e-4*(r3.Norm(ea)+r3.Norm(eb)) + 1e-12
		require.LessOrEqual(t, diff, tol, "superposition failed at %+v", sp.Pos)
	}
}

func TestFieldMatchesExactReference(t *testing.T) {
	params := DefaultFieldParams()
	fe := newTestEvaluator(t, 100, 10, params)

	charges := []ChargeSample{
		{Pos: components.Vec3{X: 3, Y: -7, Z: 12}, Magnitude: 2},
		{Pos: components.Vec3{X: -30, Y: 20, Z: -1}, Magnitude: 0.7},
	}

	for _, sp := range fe.Grid().Points() {
		got := toR3(fe.FieldAt(sp.Pos, charges))
		want := exactHalfField(params, sp.Pos, charges)

		// Each contribution carries its own inverse sqrt error, so bound by
		// the sum of contribution norms rather than the (possibly cancelled) total.
		var bound float64
		for _, c := range charges {
			bound += r3.Norm(exactHalfField(params, sp.Pos, []ChargeSample{c}))
		}
		diff := r3.Norm(r3.Sub(got, want))
		require.LessOrEqual(t, diff, 0.003*bound, "field at %+v", sp.Pos)
	}
}

func TestEndToEndSingleCharge(t *testing.T) {
	fe := newTestEvaluator(t, 100, 10, DefaultFieldParams())
	cs := NewChargeSet()
	cs.AddCharge(components.Vec3{}, 1)

	res := fe.Evaluate(cs)
	assert.Equal(t, 1000, res.Samples)
	assert.Equal(t, 1, res.Charges)
	assert.Equal(t, 0, res.Degenerate)
	assert.Greater(t, res.MaxMagnitude, float32(1))

	g := fe.Grid()
	b := fe.Buffers()

	near := g.Nearest(components.Vec3{})
	assert.InDelta(t, 1.0, b.Alpha(near), 1e-6, "near-origin sample should saturate")

	far := g.Index(9, 9, 9)
	assert.InDelta(t, 0.1, b.Alpha(far), 1e-6, "far corner should sit at the floor")

	// The near segment points radially outward from the positive charge
	seg := b.Segment(near)
	pos := g.Point(near).Pos
	dir := toR3(seg[2].Sub(seg[0]))
	radial := toR3(pos)
	assert.Equal(t, pos, seg[1])
	assert.Greater(t, r3.Dot(dir, radial), 0.0)
	cosAngle := r3.Dot(dir, radial) / (r3.Norm(dir) * r3.Norm(radial))
	assert.InDelta(t, 1.0, cosAngle, 1e-4)
}

func TestNegativeChargePointsInward(t *testing.T) {
	fe := newTestEvaluator(t, 100, 10, DefaultFieldParams())
	cs := NewChargeSet()
	cs.AddCharge(components.Vec3{}, -1)
	fe.Evaluate(cs)

	idx := fe.Grid().Index(7, 5, 5)
	seg := fe.Buffers().Segment(idx)
	dir := seg[2].Sub(seg[0])
	pos := fe.Grid().Point(idx).Pos
	assert.Less(t, dir.Dot(pos), float32(0))
}

func TestOpacityBounds(t *testing.T) {
	magnitudes := []float32{
		0, 1e-30, -1e-30, 1e-3, 1, -2, 1e6, -1e6, 1e20, 1e30, -1e30, math.MaxFloat32, -math.MaxFloat32,
	}

	for _, m := range magnitudes {
		fe := newTestEvaluator(t, 100, 6, DefaultFieldParams())
		cs := NewChargeSet()
		cs.AddCharge(components.Vec3{X: 1, Y: 2, Z: 3}, m)
		cs.AddCharge(components.Vec3{X: -11, Y: 4, Z: 0}, -m/3)
		fe.Evaluate(cs)

		b := fe.Buffers()
		for i := range b.Colors {
			a := b.Colors[i].A
			require.True(t, a >= 0.1 && a <= 1.0, "magnitude %g: alpha %g out of bounds", m, a)
		}
		for i, p := range b.Points {
			require.True(t, isFinite32(p.X) && isFinite32(p.Y) && isFinite32(p.Z),
				"magnitude %g: point %d not finite: %+v", m, i, p)
		}
	}
}

func TestHugeMagnitudeSaturatesOnAlignedAxis(t *testing.T) {
	magnitudes := []float32{1e35, 1e36, -1e36, 1e38, math.MaxFloat32, -math.MaxFloat32}

	for _, m := range magnitudes {
		fe := newTestEvaluator(t, 100, 10, DefaultFieldParams())
		idx := fe.Grid().Index(5, 5, 5)
		pos := fe.Grid().Point(idx).Pos
		require.Equal(t, components.Vec3{X: 5, Y: 5, Z: 5}, pos)

		// Shares the sample's X coordinate, so the field has no X component
		fe.EvaluateSnapshot([]ChargeSample{{Pos: components.Vec3{X: 5}, Magnitude: m}})

		assert.Equal(t, float32(1), fe.Buffers().Alpha(idx), "magnitude %g", m)
		seg := fe.Buffers().Segment(idx)
		for _, p := range seg {
			require.True(t, isFinite32(p.X) && isFinite32(p.Y) && isFinite32(p.Z),
				"magnitude %g: point not finite: %+v", m, p)
		}
		assert.Equal(t, float32(5), seg[0].X, "magnitude %g", m)
		assert.Equal(t, float32(5), seg[2].X, "magnitude %g", m)
		if m > 0 {
			assert.Greater(t, seg[2].Y, pos.Y, "magnitude %g", m)
		} else {
			assert.Less(t, seg[2].Y, pos.Y, "magnitude %g", m)
		}
	}
}

func TestOpacityDirect(t *testing.T) {
	fe := newTestEvaluator(t, 10, 1, DefaultFieldParams())

	tests := []struct {
		name string
		e    components.Vec3
		want float32
	}{
		{"zero", components.Vec3{}, 0.1},
		{"small", components.Vec3{X: 0.01}, 0.1},
		{"mid", components.Vec3{X: 0.3, Y: 0.4}, 0.5},
		{"large", components.Vec3{Z: 50}, 1},
		{"overflow", components.Vec3{X: float32(math.Inf(1))}, 1},
		{"nan", components.Vec3{X: float32(math.NaN())}, 0.1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, fe.Opacity(tc.e), 0.002)
		})
	}
}

func TestDegenerateSample(t *testing.T) {
	fe := newTestEvaluator(t, 100, 10, DefaultFieldParams())
	g := fe.Grid()
	target := g.Index(2, 3, 4)
	onSample := g.Point(target).Pos

	other := ChargeSample{ID: 1, Pos: components.Vec3{X: 20, Y: 20, Z: 20}, Magnitude: 1}
	charges := []ChargeSample{
		{ID: 0, Pos: onSample, Magnitude: 1},
		other,
	}

	res := fe.EvaluateSnapshot(charges)
	assert.Equal(t, 1, res.Degenerate)

	// The coincident charge contributes nothing; the rest of the field survives
	seg := fe.Buffers().Segment(target)
	want := fe.FieldAt(onSample, []ChargeSample{other})
	got := seg[2].Sub(onSample)
	assert.InDelta(t, want.X, got.X, 1e-4)
	assert.InDelta(t, want.Y, got.Y, 1e-4)
	assert.InDelta(t, want.Z, got.Z, 1e-4)

	// Neighbors are computed normally
	neighbor := g.Index(3, 3, 4)
	nseg := fe.Buffers().Segment(neighbor)
	for _, p := range nseg {
		assert.True(t, isFinite32(p.X) && isFinite32(p.Y) && isFinite32(p.Z))
	}
	assert.Equal(t, float32(1), fe.Buffers().Alpha(neighbor))
}

func TestNearlyCoincidentChargeStaysFinite(t *testing.T) {
	fe := newTestEvaluator(t, 100, 10, DefaultFieldParams())
	pos := fe.Grid().Point(0).Pos
	charges := []ChargeSample{{Pos: pos.Add(components.Vec3{X: 1e-4}), Magnitude: 2}}

	res := fe.EvaluateSnapshot(charges)
	assert.Equal(t, 1, res.Degenerate)
	for _, p := range fe.Buffers().Segment(0) {
		assert.True(t, isFinite32(p.X) && isFinite32(p.Y) && isFinite32(p.Z))
	}
	assert.Equal(t, float32(1), fe.Buffers().Alpha(0))
}

func TestParallelMatchesSerial(t *testing.T) {
	serial := DefaultFieldParams()
	parallel := DefaultFieldParams()
	parallel.Workers = 4

	fs := newTestEvaluator(t, 100, 10, serial)
	fp := newTestEvaluator(t, 100, 10, parallel)

	cs := NewChargeSet()
	cs.AddCharge(components.Vec3{X: 3, Y: 1, Z: -4}, 1)
	cs.AddCharge(components.Vec3{X: -25, Y: 10, Z: 8}, -2)
	cs.AddCharge(components.Vec3{X: 40, Y: -40, Z: 0}, 0.5)

	rs := fs.Evaluate(cs)
	rp := fp.Evaluate(cs)

	assert.Equal(t, rs, rp)
	assert.Equal(t, fs.Buffers().Points, fp.Buffers().Points)
	assert.Equal(t, fs.Buffers().Colors, fp.Buffers().Colors)
}

func TestEvaluateOverwritesPreviousPass(t *testing.T) {
	fe := newTestEvaluator(t, 100, 10, DefaultFieldParams())
	cs := NewChargeSet()
	id := cs.AddCharge(components.Vec3{}, 1)
	fe.Evaluate(cs)

	require.NoError(t, cs.SetMagnitude(id, 0))
	fe.Evaluate(cs)

	for i := 0; i < fe.Buffers().Len(); i++ {
		require.Equal(t, float32(0.1), fe.Buffers().Alpha(i))
	}
}

func TestNewFieldEvaluatorInvalid(t *testing.T) {
	g, err := NewGrid(10, 2)
	require.NoError(t, err)

	p := DefaultFieldParams()
	p.LineLength = 0
	_, err = NewFieldEvaluator(g, p, testColors)
	assert.ErrorIs(t, err, ErrInvalidParams)

	p = DefaultFieldParams()
	p.OpacityMin = 2
	_, err = NewFieldEvaluator(g, p, testColors)
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = NewFieldEvaluator(nil, DefaultFieldParams(), testColors)
	assert.ErrorIs(t, err, ErrInvalidGrid)
}

func BenchmarkEvaluate(b *testing.B) {
	for _, workers := range []int{1, 4} {
		p := DefaultFieldParams()
		p.Workers = workers
		fe := newTestEvaluator(b, 100, 20, p)
		cs := NewChargeSet()
		for i := 0; i < 8; i++ {
			cs.AddCharge(components.Vec3{X: float32(i * 7), Y: float32(-i * 3), Z: float32(i)}, float32(i%3)-1)
		}

		name := "serial"
		if workers > 1 {
			name = "parallel"
		}
		b.Run(name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				fe.Evaluate(cs)
			}
		})
	}
}
