// Package renderer draws the field buffers and scene decorations with raylib.
// It only reads plain arrays; nothing here feeds back into the field pass.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/efield/components"
	"github.com/pthm-cable/efield/systems"
)

// FieldLines draws every segment of a FieldBuffers as colored 3D lines.
type FieldLines struct {
	// Split controls how many pieces the mid-to-end half is drawn in, so the
	// color gradient toward the end vertex stays visible.
	Split int
}

// NewFieldLines creates a field line drawer.
func NewFieldLines() *FieldLines {
	return &FieldLines{Split: 2}
}

// Draw renders all segments. Must be called inside BeginMode3D.
func (f *FieldLines) Draw(buffers *systems.FieldBuffers) {
	split := f.Split
	if split < 1 {
		split = 1
	}
	for i := 0; i < buffers.Len(); i++ {
		pts := buffers.Segment(i)
		cols := buffers.SegmentColors(i)

		// Start and middle share the start color in the default palette
		rl.DrawLine3D(toVec(pts[0]), toVec(pts[1]), toColor(lerpRGBA(cols[0], cols[1], 0.5)))

		prev := pts[1]
		for s := 1; s <= split; s++ {
			t := float32(s) / float32(split)
			next := pts[1].Add(pts[2].Sub(pts[1]).Scale(t))
			mid := (float32(s) - 0.5) / float32(split)
			rl.DrawLine3D(toVec(prev), toVec(next), toColor(lerpRGBA(cols[1], cols[2], mid)))
			prev = next
		}
	}
}

func lerpRGBA(a, b systems.RGBA, t float32) systems.RGBA {
	return systems.RGBA{
		R: a.R + (b.R-a.R)*t,
		G: a.G + (b.G-a.G)*t,
		B: a.B + (b.B-a.B)*t,
		A: a.A + (b.A-a.A)*t,
	}
}

func toVec(v components.Vec3) rl.Vector3 {
	return rl.Vector3{X: v.X, Y: v.Y, Z: v.Z}
}

func toColor(c systems.RGBA) rl.Color {
	return rl.ColorFromNormalized(rl.Vector4{X: c.R, Y: c.G, Z: c.B, W: c.A})
}
