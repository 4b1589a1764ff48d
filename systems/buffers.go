package systems

import "github.com/pthm-cable/efield/components"

// VerticesPerSegment is the number of control points per field line:
// start, sample position, end.
const VerticesPerSegment = 3

// RGBA is a normalized vertex color.
type RGBA struct {
	R, G, B, A float32
}

// SegmentColors holds the fixed RGB of each vertex in a segment.
type SegmentColors [VerticesPerSegment]RGBA

// FieldBuffers are the index-aligned outputs of a pass: for sample i the
// segment occupies Points[3i:3i+3] and Colors[3i:3i+3]. They are allocated
// once and overwritten in place every pass. Readers must treat them as
// read-only.
type FieldBuffers struct {
	Points []components.Vec3
	Colors []RGBA
}

// newFieldBuffers lays out the initial segments: each runs diagonally from
// s-h(1,1,1) to s+h(1,1,1) with h = initialLength/2 and full alpha.
func newFieldBuffers(grid *Grid, colors SegmentColors, initialLength float32) *FieldBuffers {
	n := grid.Len()
	b := &FieldBuffers{
		Points: make([]components.Vec3, n*VerticesPerSegment),
		Colors: make([]RGBA, n*VerticesPerSegment),
	}

	h := initialLength / 2
	offset := components.Vec3{X: h, Y: h, Z: h}
	for _, sp := range grid.Points() {
		base := sp.Index * VerticesPerSegment
		b.Points[base] = sp.Pos.Sub(offset)
		b.Points[base+1] = sp.Pos
		b.Points[base+2] = sp.Pos.Add(offset)
		for v := 0; v < VerticesPerSegment; v++ {
			c := colors[v]
			c.A = 1
			b.Colors[base+v] = c
		}
	}
	return b
}

// Len returns the number of segments.
func (b *FieldBuffers) Len() int {
	return len(b.Points) / VerticesPerSegment
}

// Segment returns the control points of segment i.
func (b *FieldBuffers) Segment(i int) []components.Vec3 {
	base := i * VerticesPerSegment
	return b.Points[base : base+VerticesPerSegment : base+VerticesPerSegment]
}

// SegmentColors returns the vertex colors of segment i.
func (b *FieldBuffers) SegmentColors(i int) []RGBA {
	base := i * VerticesPerSegment
	return b.Colors[base : base+VerticesPerSegment : base+VerticesPerSegment]
}

// Alpha returns the opacity of segment i.
func (b *FieldBuffers) Alpha(i int) float32 {
	return b.Colors[i*VerticesPerSegment].A
}

// write stores one sample's segment and opacity.
func (b *FieldBuffers) write(i int, pos, e components.Vec3, alpha float32) {
	base := i * VerticesPerSegment
	b.Points[base] = pos.Sub(e)
	b.Points[base+1] = pos
	b.Points[base+2] = pos.Add(e)
	b.Colors[base].A = alpha
	b.Colors[base+1].A = alpha
	b.Colors[base+2].A = alpha
}
