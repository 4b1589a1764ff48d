// Package camera provides an orbit camera and picking math for the 3D view.
// It has no raylib dependency; the game converts to rl.Camera3D each frame.
package camera

import (
	"math"

	"github.com/pthm-cable/efield/components"
)

// maxPitch keeps the eye just short of the poles so the up vector stays valid.
const maxPitch = math.Pi/2 - 0.01

// Camera orbits a target point at a given distance.
type Camera struct {
	// Target is the orbit center in world coordinates
	Target components.Vec3

	// Yaw rotates around the world Y axis, Pitch lifts above the XZ plane (radians)
	Yaw, Pitch float32

	// Distance from the eye to Target
	Distance float32

	// Zoom constraints
	MinDistance, MaxDistance float32

	// Fovy is the vertical field of view in degrees
	Fovy float32

	home homeState
}

// homeState is what Reset returns to.
type homeState struct {
	yaw, pitch, distance float32
}

// New creates a camera looking at the origin from the given angles and distance.
func New(yaw, pitch, distance, minDist, maxDist, fovy float32) *Camera {
	if minDist > maxDist {
		minDist, maxDist = maxDist, minDist
	}
	c := &Camera{
		MinDistance: minDist,
		MaxDistance: maxDist,
		Fovy:        fovy,
	}
	c.home = homeState{
		yaw:      yaw,
		pitch:    clamp(pitch, -maxPitch, maxPitch),
		distance: clamp(distance, minDist, maxDist),
	}
	c.Reset()
	return c
}

// Eye returns the camera position in world coordinates.
func (c *Camera) Eye() components.Vec3 {
	return c.Target.Add(c.offset())
}

func (c *Camera) offset() components.Vec3 {
	cp := float32(math.Cos(float64(c.Pitch)))
	return components.Vec3{
		X: c.Distance * cp * float32(math.Cos(float64(c.Yaw))),
		Y: c.Distance * float32(math.Sin(float64(c.Pitch))),
		Z: c.Distance * cp * float32(math.Sin(float64(c.Yaw))),
	}
}

// Basis returns the unit forward, right and up vectors of the view.
func (c *Camera) Basis() (forward, right, up components.Vec3) {
	forward = normalize(c.offset().Scale(-1))
	right = normalize(cross(forward, components.Vec3{Y: 1}))
	up = cross(right, forward)
	return forward, right, up
}

// Rotate orbits by the given yaw and pitch deltas (radians).
func (c *Camera) Rotate(dYaw, dPitch float32) {
	c.Yaw = wrapAngle(c.Yaw + dYaw)
	c.Pitch = clamp(c.Pitch+dPitch, -maxPitch, maxPitch)
}

// SetDistance sets the orbit distance, clamped to min/max.
func (c *Camera) SetDistance(d float32) {
	c.Distance = clamp(d, c.MinDistance, c.MaxDistance)
}

// ZoomBy multiplies the orbit distance by factor (< 1 moves closer).
func (c *Camera) ZoomBy(factor float32) {
	c.SetDistance(c.Distance * factor)
}

// Pan moves the target within the view plane by (dx, dy) world units.
func (c *Camera) Pan(dx, dy float32) {
	_, right, up := c.Basis()
	c.Target = c.Target.Add(right.Scale(dx)).Add(up.Scale(dy))
}

// Reset returns the camera to its initial orbit around the origin.
func (c *Camera) Reset() {
	c.Target = components.Vec3{}
	c.Yaw = c.home.yaw
	c.Pitch = c.home.pitch
	c.Distance = c.home.distance
}

// RaySphere intersects a ray with a sphere. dir must be normalized.
// Returns the distance along the ray to the nearest hit in front of origin.
func RaySphere(origin, dir, center components.Vec3, radius float32) (float32, bool) {
	oc := origin.Sub(center)
	b := oc.Dot(dir)
	c := oc.LenSq() - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	sq := float32(math.Sqrt(float64(disc)))
	t := -b - sq
	if t < 0 {
		// Origin inside the sphere
		t = -b + sq
	}
	if t < 0 {
		return 0, false
	}
	return t, true
}

// Pick returns the index of the nearest sphere hit by the ray, or -1.
func Pick(origin, dir components.Vec3, centers []components.Vec3, radius float32) int {
	best := -1
	var bestT float32
	for i, center := range centers {
		t, ok := RaySphere(origin, dir, center, radius)
		if ok && (best < 0 || t < bestT) {
			best = i
			bestT = t
		}
	}
	return best
}

func normalize(v components.Vec3) components.Vec3 {
	l2 := v.LenSq()
	if l2 == 0 {
		return components.Vec3{}
	}
	return v.Scale(1 / float32(math.Sqrt(float64(l2))))
}

func cross(a, b components.Vec3) components.Vec3 {
	return components.Vec3{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

// wrapAngle wraps an angle to [-Pi, Pi].
func wrapAngle(a float32) float32 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

func clamp(v, minVal, maxVal float32) float32 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}
