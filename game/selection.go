package game

import (
	"errors"
	"log/slog"
	"math"

	"github.com/pthm-cable/efield/camera"
	"github.com/pthm-cable/efield/components"
	"github.com/pthm-cable/efield/systems"
)

// ErrNoSelection is returned when an edit needs a selected charge.
var ErrNoSelection = errors.New("no charge selected")

// AddCharge places a new charge at the origin with the configured magnitude.
// The new charge is not selected.
func (g *Game) AddCharge() components.ChargeID {
	mag := float32(g.cfg.UI.NewChargeMagnitude)
	id := g.charges.AddCharge(components.Vec3{}, mag)
	slog.Debug("charge added", "id", id, "magnitude", mag, "charges", g.charges.Len())
	return id
}

// Select makes id the charge edited by the panel and movement keys.
func (g *Game) Select(id components.ChargeID) error {
	if _, err := g.charges.Get(id); err != nil {
		return err
	}
	g.selected = id
	g.hasSelected = true
	return nil
}

// Deselect clears the selection.
func (g *Game) Deselect() {
	g.hasSelected = false
}

// Selected returns the selected charge, if any.
func (g *Game) Selected() (systems.ChargeSample, bool) {
	if !g.hasSelected {
		return systems.ChargeSample{}, false
	}
	c, err := g.charges.Get(g.selected)
	if err != nil {
		return systems.ChargeSample{}, false
	}
	return c, true
}

// CycleSelection selects the charge after the current one, wrapping around.
func (g *Game) CycleSelection() {
	ids := g.charges.IDs()
	if len(ids) == 0 {
		return
	}
	next := ids[0]
	if g.hasSelected {
		for i, id := range ids {
			if id == g.selected {
				next = ids[(i+1)%len(ids)]
				break
			}
		}
	}
	g.selected = next
	g.hasSelected = true
}

// PickCharge selects the nearest charge hit by the ray. A miss keeps the
// current selection.
func (g *Game) PickCharge(ray Ray) bool {
	g.snapshot = g.charges.Snapshot(g.snapshot)

	g.pickCenters = g.pickCenters[:0]
	for _, s := range g.snapshot {
		g.pickCenters = append(g.pickCenters, s.Pos)
	}

	idx := camera.Pick(ray.Origin, ray.Dir, g.pickCenters, float32(g.cfg.UI.ChargeRadius))
	if idx < 0 {
		return false
	}
	g.selected = g.snapshot[idx].ID
	g.hasSelected = true
	return true
}

// MoveSelected translates the selected charge by delta, keeping it inside the
// domain cube.
func (g *Game) MoveSelected(delta components.Vec3) error {
	c, ok := g.Selected()
	if !ok {
		return ErrNoSelection
	}
	half := g.grid.DomainSize() / 2
	pos := c.Pos.Add(delta)
	pos = components.Vec3{
		X: clampAxis(pos.X, half),
		Y: clampAxis(pos.Y, half),
		Z: clampAxis(pos.Z, half),
	}
	return g.charges.SetPosition(c.ID, pos)
}

// SetSelectedMagnitude snaps v to the slider step, clamps it to the slider
// range and applies it to the selected charge. Returns the applied value.
func (g *Game) SetSelectedMagnitude(v float32) (float32, error) {
	if !g.hasSelected {
		return 0, ErrNoSelection
	}
	mag := snapMagnitude(v, g.cfg.UI.MagnitudeMin, g.cfg.UI.MagnitudeMax, g.cfg.UI.MagnitudeStep)
	if err := g.charges.SetMagnitude(g.selected, mag); err != nil {
		return 0, err
	}
	return mag, nil
}

func snapMagnitude(v float32, minVal, maxVal, step float64) float32 {
	x := float64(v)
	if step > 0 {
		x = math.Round(x/step) * step
	}
	x = math.Max(minVal, math.Min(maxVal, x))
	// Trim float noise from the step multiplication (0.30000000000000004)
	return float32(math.Round(x*1e6) / 1e6)
}

func clampAxis(v, half float32) float32 {
	if v < -half {
		return -half
	}
	if v > half {
		return half
	}
	return v
}
