package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/efield/camera"
	"github.com/pthm-cable/efield/components"
	"github.com/pthm-cable/efield/systems"
)

// Scene colors
var (
	ColorBounds   = rl.Color{R: 128, G: 128, B: 128, A: 255}
	ColorCharge   = rl.White
	ColorSelected = rl.Color{R: 255, G: 200, B: 100, A: 255}
)

const (
	axisSize   = 10
	axisOffset = 2
)

// Camera3D converts the orbit camera to a raylib camera.
func Camera3D(c *camera.Camera) rl.Camera3D {
	_, _, up := c.Basis()
	return rl.Camera3D{
		Position:   toVec(c.Eye()),
		Target:     toVec(c.Target),
		Up:         toVec(up),
		Fovy:       c.Fovy,
		Projection: rl.CameraPerspective,
	}
}

// DrawBounds draws the domain cube wireframe centered at the origin.
func DrawBounds(size float32) {
	rl.DrawCubeWires(rl.Vector3{}, size, size, size, ColorBounds)
}

// DrawAxes draws red, green and blue axis arrows just outside the
// negative corner of the domain.
func DrawAxes(size float32) {
	o := -size/2 - axisOffset
	origin := rl.Vector3{X: o, Y: o, Z: o}
	head := float32(axisSize) * 0.95
	wing := float32(axisSize) * 0.05

	drawArrow(origin, rl.Vector3{X: axisSize}, rl.Vector3{X: head, Y: wing}, rl.Vector3{X: head, Y: -wing}, rl.Red)
	drawArrow(origin, rl.Vector3{Y: axisSize}, rl.Vector3{X: -wing, Y: head}, rl.Vector3{X: wing, Y: head}, rl.Green)
	drawArrow(origin, rl.Vector3{Z: axisSize}, rl.Vector3{Y: -wing, Z: head}, rl.Vector3{Y: wing, Z: head}, rl.Blue)
}

func drawArrow(origin, tip, wingA, wingB rl.Vector3, color rl.Color) {
	t := rl.Vector3Add(origin, tip)
	rl.DrawLine3D(origin, t, color)
	rl.DrawLine3D(t, rl.Vector3Add(origin, wingA), color)
	rl.DrawLine3D(t, rl.Vector3Add(origin, wingB), color)
}

// DrawCharges draws each charge as a sphere, highlighting the selected one.
func DrawCharges(charges []systems.ChargeSample, radius float32, selected components.ChargeID, hasSelected bool) {
	for _, c := range charges {
		pos := toVec(c.Pos)
		rl.DrawSphere(pos, radius, ColorCharge)
		if hasSelected && c.ID == selected {
			rl.DrawSphereWires(pos, radius*1.6, 8, 8, ColorSelected)
		}
	}
}
