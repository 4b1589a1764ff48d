package systems

import (
	"errors"
	"fmt"
	"math"

	"github.com/pthm-cable/efield/components"
)

// ErrInvalidGrid is returned when a grid cannot be built from its parameters.
var ErrInvalidGrid = errors.New("invalid grid")

// SamplePoint is one lattice position. Index is y*N*N + z*N + x.
type SamplePoint struct {
	Index int
	Pos   components.Vec3
}

// Grid is the fixed N³ lattice of sample points covering a cubic domain
// centered on the origin. It never changes after construction.
type Grid struct {
	size   float32
	n      int
	cell   float32
	points []SamplePoint
}

// NewGrid builds the lattice for a domain of the given edge length with n
// samples per axis. Each sample sits at the center of its cell.
func NewGrid(domainSize float32, n int) (*Grid, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: subdivisions must be >= 1, got %d", ErrInvalidGrid, n)
	}
	if !(domainSize > 0) || math.IsInf(float64(domainSize), 0) {
		return nil, fmt.Errorf("%w: domain size must be positive and finite, got %v", ErrInvalidGrid, domainSize)
	}

	g := &Grid{
		size:   domainSize,
		n:      n,
		cell:   domainSize / float32(n),
		points: make([]SamplePoint, n*n*n),
	}

	// y outer, z middle, x inner: buffers downstream rely on this order.
	for y := 0; y < n; y++ {
		py := g.Coordinate(y)
		for z := 0; z < n; z++ {
			pz := g.Coordinate(z)
			for x := 0; x < n; x++ {
				idx := g.Index(x, y, z)
				g.points[idx] = SamplePoint{
					Index: idx,
					Pos:   components.Vec3{X: g.Coordinate(x), Y: py, Z: pz},
				}
			}
		}
	}

	return g, nil
}

// Coordinate maps an axis position p in [0, N) to its world coordinate.
func (g *Grid) Coordinate(p int) float32 {
	return float32(p)*g.cell + g.cell/2 - g.size/2
}

// Index returns the flat index of lattice cell (x, y, z).
func (g *Grid) Index(x, y, z int) int {
	return y*g.n*g.n + z*g.n + x
}

// Cell returns the lattice coordinates of a flat index.
func (g *Grid) Cell(idx int) (x, y, z int) {
	nn := g.n * g.n
	y = idx / nn
	rem := idx - y*nn
	z = rem / g.n
	x = rem - z*g.n
	return x, y, z
}

// Len returns the number of samples (N³).
func (g *Grid) Len() int { return len(g.points) }

// Points returns the samples in index order. Callers must not modify them.
func (g *Grid) Points() []SamplePoint { return g.points }

// Point returns the sample at idx.
func (g *Grid) Point(idx int) SamplePoint { return g.points[idx] }

// DomainSize returns the domain edge length.
func (g *Grid) DomainSize() float32 { return g.size }

// Subdivisions returns N.
func (g *Grid) Subdivisions() int { return g.n }

// CellSize returns the spacing between neighboring samples.
func (g *Grid) CellSize() float32 { return g.cell }

// Nearest returns the index of the sample closest to pos. Positions outside
// the domain snap to the boundary samples.
func (g *Grid) Nearest(pos components.Vec3) int {
	return g.Index(g.axisCell(pos.X), g.axisCell(pos.Y), g.axisCell(pos.Z))
}

func (g *Grid) axisCell(v float32) int {
	p := int(math.Floor(float64((v + g.size/2) / g.cell)))
	if p < 0 {
		return 0
	}
	if p >= g.n {
		return g.n - 1
	}
	return p
}
