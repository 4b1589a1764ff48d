package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/efield/components"
	"github.com/pthm-cable/efield/game"
	"github.com/pthm-cable/efield/inspector"
	"github.com/pthm-cable/efield/renderer"
	"github.com/pthm-cable/efield/systems"
	"github.com/pthm-cable/efield/telemetry"
)

// Input tuning
const (
	orbitSensitivity = 0.005 // radians per pixel
	zoomStep         = 0.1   // distance fraction per wheel notch
)

// Frontend reads raylib input into game intents and draws the game.
// Panel clicks happen while drawing, so they are queued for the next Input.
type Frontend struct {
	hud       *HUD
	panel     *ChargePanel
	controls  *ControlsPanel
	overlays  *OverlayRegistry
	fieldPane *StatsPanel
	perfPane  *StatsPanel
	inspector *inspector.Inspector
	lines     *renderer.FieldLines

	screenW, screenH int32

	// Queued from the last Draw
	pendingAdd       bool
	pendingMagnitude *float32
}

// NewFrontend creates the UI for a window of the given size.
func NewFrontend(g *game.Game, screenW, screenH int32) *Frontend {
	f := &Frontend{
		hud:       NewHUD(),
		panel:     NewChargePanel(g.Config().UI),
		controls:  NewControlsPanel(10, 0, 240),
		overlays:  NewOverlayRegistry(),
		fieldPane: NewFieldStatsPanel(240),
		perfPane:  NewPerfPanel(240),
		inspector: inspector.NewInspector(screenW),
		lines:     renderer.NewFieldLines(),
	}
	f.layout(screenW, screenH)
	return f
}

// layout positions panels for the current screen size.
func (f *Frontend) layout(w, h int32) {
	f.screenW, f.screenH = w, h
	f.panel.SetPosition(10, 100)
	f.controls.SetPosition(10, 220)
	f.inspector.Resize(w)
	f.fieldPane.SetPosition(w-250, f.inspector.Height()+20)
}

// Input gathers this frame's intents.
func (f *Frontend) Input(g *game.Game) game.Input {
	if rl.IsWindowResized() {
		f.layout(int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight()))
	}
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}
	if rl.IsKeyPressed(rl.KeyH) {
		f.controls.Toggle()
	}
	f.overlays.HandleKeys()

	in := game.Input{
		DT:           rl.GetFrameTime(),
		AddCharge:    f.pendingAdd || rl.IsKeyPressed(rl.KeyN),
		CycleSelect:  rl.IsKeyPressed(rl.KeyTab),
		Deselect:     rl.IsKeyPressed(rl.KeyEscape),
		SetMagnitude: f.pendingMagnitude,
		ResetCamera:  rl.IsKeyPressed(rl.KeyHome),
	}
	f.pendingAdd = false
	f.pendingMagnitude = nil

	mouse := rl.GetMousePosition()
	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) && !f.overUI(g, mouse) {
		ray := rl.GetScreenToWorldRay(mouse, renderer.Camera3D(g.Camera()))
		in.Pick = &game.Ray{
			Origin: vec3(ray.Position),
			Dir:    vec3(ray.Direction),
		}
	}

	in.Move.X = axis(rl.KeyD, rl.KeyA)
	in.Move.Y = axis(rl.KeyE, rl.KeyQ)
	in.Move.Z = axis(rl.KeyW, rl.KeyS)

	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		in.OrbitYaw = d.X * orbitSensitivity
		in.OrbitPitch = d.Y * orbitSensitivity
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		in.Zoom = 1 - wheel*zoomStep
	}

	return in
}

// overUI reports whether a click at mouse should go to a panel.
func (f *Frontend) overUI(g *game.Game, mouse rl.Vector2) bool {
	_, hasSelected := g.Selected()
	if rl.CheckCollisionPointRec(mouse, f.panel.Bounds(hasSelected)) {
		return true
	}
	return hasSelected && f.inspector.Contains(mouse.X, mouse.Y, f.inspector.Height())
}

// Draw renders the scene and the UI.
func (f *Frontend) Draw(g *game.Game) {
	g.RecordFrame()

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	selected, hasSelected := g.Selected()
	size := g.Grid().DomainSize()

	rl.BeginMode3D(renderer.Camera3D(g.Camera()))
	if f.overlays.IsEnabled(OverlayBounds) {
		renderer.DrawBounds(size)
	}
	if f.overlays.IsEnabled(OverlayAxes) {
		renderer.DrawAxes(size)
	}
	if f.overlays.IsEnabled(OverlayFieldLines) {
		f.lines.Draw(g.Buffers())
	}
	if f.overlays.IsEnabled(OverlayCharges) {
		renderer.DrawCharges(g.Snapshot(), float32(g.Config().UI.ChargeRadius), selected.ID, hasSelected)
	}
	rl.EndMode3D()

	perf := g.PerfStats()
	f.hud.Draw(HUDData{
		Title:      "Electric Field",
		Tick:       g.Tick(),
		FPS:        rl.GetFPS(),
		Charges:    g.LastPass().Charges,
		Samples:    g.LastPass().Samples,
		Degenerate: g.LastPass().Degenerate,
		PassTime:   perf.Phase(telemetry.PhaseField).Avg,
	})

	var sel *systems.ChargeSample
	if hasSelected {
		sel = &selected
		idx := g.Grid().Nearest(selected.Pos)
		f.inspector.Draw(inspector.Data{
			Charge:      selected,
			SampleIndex: idx,
			SampleAlpha: g.Buffers().Alpha(idx),
		})
	}

	res := f.panel.Draw(sel)
	f.pendingAdd = res.AddCharge
	f.pendingMagnitude = res.Magnitude

	f.controls.Draw(f.overlays)

	y := f.inspector.Height() + 20
	if f.overlays.IsEnabled(OverlayFieldStats) {
		f.fieldPane.SetPosition(f.screenW-250, y)
		y = f.fieldPane.Draw(g.LastStats()) + 10
	}
	if f.overlays.IsEnabled(OverlayPerf) {
		f.perfPane.SetPosition(f.screenW-250, y)
		f.perfPane.Draw(perf)
	}

	rl.EndDrawing()
}

func axis(pos, neg int32) float32 {
	var v float32
	if rl.IsKeyDown(pos) {
		v++
	}
	if rl.IsKeyDown(neg) {
		v--
	}
	return v
}

func vec3(v rl.Vector3) components.Vec3 {
	return components.Vec3{X: v.X, Y: v.Y, Z: v.Z}
}
