package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/efield/config"
	"github.com/pthm-cable/efield/systems"
)

// ChargePanelResult holds what the user did with the panel this frame.
type ChargePanelResult struct {
	AddCharge bool
	Magnitude *float32 // Set when the slider moved
}

// ChargePanel is the "New Particle" button plus the magnitude slider of the
// selected charge.
type ChargePanel struct {
	renderer *Renderer
	x, y     float32
	width    float32

	minMag, maxMag float32
}

// NewChargePanel creates a panel using the slider range from cfg.
func NewChargePanel(cfg config.UIConfig) *ChargePanel {
	return &ChargePanel{
		renderer: NewRenderer(),
		width:    220,
		minMag:   float32(cfg.MagnitudeMin),
		maxMag:   float32(cfg.MagnitudeMax),
	}
}

// SetPosition moves the panel's top-left corner.
func (p *ChargePanel) SetPosition(x, y float32) {
	p.x = x
	p.y = y
}

// Bounds returns the screen area the panel covers.
func (p *ChargePanel) Bounds(hasSelected bool) rl.Rectangle {
	h := float32(50)
	if hasSelected {
		h = 110
	}
	return rl.Rectangle{X: p.x, Y: p.y, Width: p.width, Height: h}
}

// Draw renders the panel. selected is nil when no charge is selected.
func (p *ChargePanel) Draw(selected *systems.ChargeSample) ChargePanelResult {
	var res ChargePanelResult
	b := p.Bounds(selected != nil)
	p.renderer.DrawPanel(int32(b.X), int32(b.Y), int32(b.Width), int32(b.Height))

	pad := float32(p.renderer.Theme.Padding)
	x := p.x + pad
	y := p.y + pad

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: p.width - pad*2, Height: 30}, "New Particle") {
		res.AddCharge = true
	}
	if selected == nil {
		return res
	}
	y += 40

	rl.DrawText(fmt.Sprintf("Charge: %.1f C", selected.Magnitude), int32(x), int32(y), 16, rl.White)
	y += 22

	lo := fmt.Sprintf("%.0f", p.minMag)
	hi := fmt.Sprintf("%.0f", p.maxMag)
	v := gui.SliderBar(
		rl.Rectangle{X: x + 20, Y: y, Width: p.width - pad*2 - 40, Height: 20},
		lo, hi,
		selected.Magnitude, p.minMag, p.maxMag,
	)
	if v != selected.Magnitude {
		res.Magnitude = &v
	}
	return res
}
