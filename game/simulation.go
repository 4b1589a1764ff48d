package game

import (
	"errors"
	"log/slog"

	"github.com/pthm-cable/efield/components"
	"github.com/pthm-cable/efield/telemetry"
)

// Ray is a pointer ray in world space. Dir must be normalized.
type Ray struct {
	Origin, Dir components.Vec3
}

// Input holds the intents gathered by the frontend for one frame.
type Input struct {
	DT float32 // Seconds since the previous frame

	AddCharge   bool
	CycleSelect bool
	Deselect    bool
	Pick        *Ray // Select the charge under this ray, if any

	// Move is camera-relative: X right, Y up, Z forward, each in [-1, 1].
	Move components.Vec3

	// SetMagnitude is the slider value for the selected charge, nil when untouched.
	SetMagnitude *float32

	OrbitYaw, OrbitPitch float32 // Radians
	Zoom                 float32 // Distance factor, 0 = unchanged
	ResetCamera          bool
}

// logEditError reports a failed charge edit. ErrNoSelection is not logged.
func logEditError(op string, err error) {
	if errors.Is(err, ErrNoSelection) {
		return
	}
	slog.Debug("charge edit failed", "op", op, "error", err)
}

// UpdateHeadless runs one evaluation pass without any input.
func (g *Game) UpdateHeadless() {
	g.step(Input{})
}

// Update applies the frame's input, then runs one evaluation pass.
func (g *Game) Update(in Input) {
	g.step(in)
}

// step is one tick: input, field pass, telemetry.
func (g *Game) step(in Input) {
	g.perfCollector.StartTick()

	g.perfCollector.StartPhase(telemetry.PhaseInput)
	g.applyInput(in)

	g.perfCollector.StartPhase(telemetry.PhaseField)
	g.snapshot = g.charges.Snapshot(g.snapshot)
	g.lastPass = g.evaluator.EvaluateSnapshot(g.snapshot)

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.collector.RecordPass(g.lastPass)
	g.flushTelemetry()

	g.perfCollector.EndTick()
	g.tick++
}

// applyInput mutates the charge set and camera. Mutations land before the
// snapshot so the pass sees them.
func (g *Game) applyInput(in Input) {
	if in.AddCharge {
		g.AddCharge()
	}
	if in.Deselect {
		g.Deselect()
	}
	if in.CycleSelect {
		g.CycleSelection()
	}
	if in.Pick != nil {
		g.PickCharge(*in.Pick)
	}
	if in.SetMagnitude != nil {
		if _, err := g.SetSelectedMagnitude(*in.SetMagnitude); err != nil {
			logEditError("set magnitude", err)
		}
	}

	if in.Move != (components.Vec3{}) && in.DT > 0 {
		forward, right, up := g.camera.Basis()
		speed := float32(g.cfg.UI.MoveSpeed) * in.DT
		delta := right.Scale(in.Move.X).
			Add(up.Scale(in.Move.Y)).
			Add(forward.Scale(in.Move.Z)).
			Scale(speed)
		if err := g.MoveSelected(delta); err != nil {
			logEditError("move", err)
		}
	}

	if in.ResetCamera {
		g.camera.Reset()
	}
	if in.OrbitYaw != 0 || in.OrbitPitch != 0 {
		g.camera.Rotate(in.OrbitYaw, in.OrbitPitch)
	}
	if in.Zoom > 0 {
		g.camera.ZoomBy(in.Zoom)
	}
}
