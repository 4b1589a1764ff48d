package systems

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/efield/components"
	"github.com/pthm-cable/efield/config"
)

// ErrInvalidParams is returned when field parameters are unusable.
var ErrInvalidParams = errors.New("invalid field params")

// DefaultCoulombK is Coulomb's constant scaled x10 for visual effect.
const DefaultCoulombK = 8.987742438e9

// FieldParams are the evaluator constants. They are fixed once the evaluator
// is built.
type FieldParams struct {
	K             float32 // field constant
	LineLength    float32 // every contribution is divided by this
	InitialLength float32 // segment length before the first pass
	OpacityMin    float32
	OpacityMax    float32
	MinDistanceSq float32 // r² floor for samples on top of a charge
	Workers       int     // goroutines per pass; <= 1 runs inline
}

// DefaultFieldParams returns the reference constants.
func DefaultFieldParams() FieldParams {
	return FieldParams{
		K:             DefaultCoulombK,
		LineLength:    1e7,
		InitialLength: 2,
		OpacityMin:    0.1,
		OpacityMax:    1.0,
		MinDistanceSq: 1e-6,
		Workers:       1,
	}
}

// FieldParamsFromConfig converts the field section of the config.
func FieldParamsFromConfig(f config.FieldConfig) FieldParams {
	return FieldParams{
		K:             float32(f.CoulombK),
		LineLength:    float32(f.LineLength),
		InitialLength: float32(f.InitialLineLength),
		OpacityMin:    float32(f.OpacityMin),
		OpacityMax:    float32(f.OpacityMax),
		MinDistanceSq: float32(f.MinDistanceSq),
		Workers:       f.Workers,
	}
}

// SegmentColorsFromConfig converts the configured start/middle/end RGB.
func SegmentColorsFromConfig(c config.ColorsConfig) SegmentColors {
	conv := func(rgb config.RGB) RGBA {
		return RGBA{R: float32(rgb.R), G: float32(rgb.G), B: float32(rgb.B), A: 1}
	}
	return SegmentColors{conv(c.Start), conv(c.Middle), conv(c.End)}
}

// Validate checks the params.
func (p FieldParams) Validate() error {
	switch {
	case p.LineLength == 0 || !isFinite32(p.LineLength):
		return fmt.Errorf("%w: line length must be non-zero and finite, got %v", ErrInvalidParams, p.LineLength)
	case !isFinite32(p.K):
		return fmt.Errorf("%w: field constant must be finite, got %v", ErrInvalidParams, p.K)
	case p.OpacityMin > p.OpacityMax:
		return fmt.Errorf("%w: opacity min %v exceeds max %v", ErrInvalidParams, p.OpacityMin, p.OpacityMax)
	case !(p.MinDistanceSq > 0):
		return fmt.Errorf("%w: min distance squared must be positive, got %v", ErrInvalidParams, p.MinDistanceSq)
	}
	return nil
}

// PassResult summarizes one evaluation pass.
type PassResult struct {
	Samples      int     // samples written
	Charges      int     // charges in the snapshot
	Degenerate   int     // samples closer than MinDistance to some charge
	MaxMagnitude float32 // largest finite magnitude cue before clamping
}

// FieldEvaluator computes the superposed field at every grid sample and
// writes line segments and opacities into its buffers.
type FieldEvaluator struct {
	grid    *Grid
	params  FieldParams
	buffers *FieldBuffers

	// gain folds K, 1/LineLength and the centering halving into one factor.
	gain float32

	snapshot []ChargeSample
	slabs    []slabResult
}

type slabResult struct {
	degenerate int
	maxMag     float32
}

// NewFieldEvaluator allocates the output buffers for grid.
func NewFieldEvaluator(grid *Grid, params FieldParams, colors SegmentColors) (*FieldEvaluator, error) {
	if grid == nil {
		return nil, fmt.Errorf("%w: nil grid", ErrInvalidGrid)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if params.Workers < 1 {
		params.Workers = 1
	}
	if params.Workers > grid.Subdivisions() {
		params.Workers = grid.Subdivisions()
	}

	return &FieldEvaluator{
		grid:    grid,
		params:  params,
		buffers: newFieldBuffers(grid, colors, params.InitialLength),
		gain:    params.K / params.LineLength / 2,
		slabs:   make([]slabResult, params.Workers),
	}, nil
}

// Grid returns the sampled lattice.
func (fe *FieldEvaluator) Grid() *Grid { return fe.grid }

// Params returns the evaluator constants.
func (fe *FieldEvaluator) Params() FieldParams { return fe.params }

// Buffers returns the output buffers. They change on every pass.
func (fe *FieldEvaluator) Buffers() *FieldBuffers { return fe.buffers }

// Evaluate runs one full pass against a snapshot of charges taken up front.
func (fe *FieldEvaluator) Evaluate(charges *ChargeSet) PassResult {
	fe.snapshot = charges.Snapshot(fe.snapshot)
	return fe.EvaluateSnapshot(fe.snapshot)
}

// EvaluateSnapshot runs one full pass against the given charges. The call
// returns only once every sample has been written.
func (fe *FieldEvaluator) EvaluateSnapshot(charges []ChargeSample) PassResult {
	n := fe.grid.Subdivisions()
	workers := len(fe.slabs)

	if workers == 1 {
		fe.slabs[0] = fe.evaluateSlab(0, n, charges)
	} else {
		var g errgroup.Group
		per := (n + workers - 1) / workers
		for w := 0; w < workers; w++ {
			y0 := w * per
			y1 := min(y0+per, n)
			if y0 >= y1 {
				fe.slabs[w] = slabResult{}
				continue
			}
			g.Go(func() error {
				fe.slabs[w] = fe.evaluateSlab(y0, y1, charges)
				return nil
			})
		}
		_ = g.Wait()
	}

	res := PassResult{Samples: fe.grid.Len(), Charges: len(charges)}
	for _, s := range fe.slabs {
		res.Degenerate += s.degenerate
		if s.maxMag > res.MaxMagnitude {
			res.MaxMagnitude = s.maxMag
		}
	}
	if res.Degenerate > 0 {
		slog.Debug("degenerate samples clamped", "count", res.Degenerate, "min_distance_sq", fe.params.MinDistanceSq)
	}
	return res
}

// evaluateSlab handles the y layers [y0, y1).
func (fe *FieldEvaluator) evaluateSlab(y0, y1 int, charges []ChargeSample) slabResult {
	var res slabResult
	n := fe.grid.Subdivisions()
	points := fe.grid.Points()

	for i := y0 * n * n; i < y1*n*n; i++ {
		pos := points[i].Pos
		e, degenerate := fe.fieldAt(pos, charges)
		if degenerate {
			res.degenerate++
		}
		alpha, mag := fe.opacity(e)
		if mag > res.maxMag {
			res.maxMag = mag
		}
		fe.buffers.write(i, pos, saturate(e), alpha)
	}
	return res
}

// FieldAt returns the scaled half field vector at pos: the offset from pos to
// the end point of a segment drawn there.
func (fe *FieldEvaluator) FieldAt(pos components.Vec3, charges []ChargeSample) components.Vec3 {
	e, _ := fe.fieldAt(pos, charges)
	return e
}

// fieldAt sums every charge's contribution; no charge is skipped for distance.
// The sum runs in float64 so a finite magnitude never overflows into 0*Inf.
func (fe *FieldEvaluator) fieldAt(pos components.Vec3, charges []ChargeSample) (components.Vec3, bool) {
	var ex, ey, ez float64
	degenerate := false
	for i := range charges {
		c := &charges[i]
		d := pos.Sub(c.Pos)
		r2 := d.LenSq()
		if r2 < fe.params.MinDistanceSq {
			r2 = fe.params.MinDistanceSq
			degenerate = true
		}
		rInv := FastInvSqrt(r2)
		s := float64(fe.gain) * float64(c.Magnitude) * float64(rInv) / float64(r2)
		ex += float64(d.X) * s
		ey += float64(d.Y) * s
		ez += float64(d.Z) * s
	}
	return components.Vec3{X: narrow(ex), Y: narrow(ey), Z: narrow(ez)}, degenerate
}

// narrow converts to float32, clamping to the finite float32 range.
func narrow(v float64) float32 {
	switch {
	case v != v:
		return 0
	case v > math.MaxFloat32:
		return math.MaxFloat32
	case v < -math.MaxFloat32:
		return -math.MaxFloat32
	}
	return float32(v)
}

// Opacity maps a scaled field vector to its alpha cue.
func (fe *FieldEvaluator) Opacity(e components.Vec3) float32 {
	a, _ := fe.opacity(e)
	return a
}

// opacity returns the clamped alpha and the unclamped finite magnitude.
// Overflowed fields saturate at OpacityMax; NaN falls to OpacityMin.
func (fe *FieldEvaluator) opacity(e components.Vec3) (float32, float32) {
	r2 := e.LenSq()
	if math.IsNaN(float64(r2)) {
		return fe.params.OpacityMin, 0
	}
	if math.IsInf(float64(r2), 1) {
		return fe.params.OpacityMax, 0
	}
	mag := FastNorm(e)
	if !isFinite32(mag) {
		return fe.params.OpacityMax, 0
	}
	return clampFloat(mag, fe.params.OpacityMin, fe.params.OpacityMax), mag
}

// saturate keeps overflowed components inside float32 range so the buffers
// never hold Inf or NaN.
func saturate(v components.Vec3) components.Vec3 {
	return components.Vec3{X: saturate1(v.X), Y: saturate1(v.Y), Z: saturate1(v.Z)}
}

func saturate1(v float32) float32 {
	switch {
	case v != v:
		return 0
	case v > math.MaxFloat32:
		return math.MaxFloat32
	case v < -math.MaxFloat32:
		return -math.MaxFloat32
	}
	return v
}
