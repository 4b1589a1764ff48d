// Package inspector draws a reflection-driven panel for the selected charge.
package inspector

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/efield/components"
	"github.com/pthm-cable/efield/systems"
)

// Panel dimensions
const (
	PanelWidth   = 260
	PanelPadding = 10
	HeaderHeight = 30
)

// Panel colors
var (
	ColorPanelBg     = rl.Color{R: 30, G: 30, B: 35, A: 240}
	ColorPanelHeader = rl.Color{R: 45, G: 45, B: 55, A: 255}
	ColorPanelBorder = rl.Color{R: 70, G: 70, B: 80, A: 255}
	ColorHeaderText  = rl.Color{R: 255, G: 255, B: 255, A: 255}
)

// Data is everything the panel shows for one charge.
type Data struct {
	Charge systems.ChargeSample

	// Field readout at the nearest sample
	SampleIndex int
	SampleAlpha float32
}

// Inspector renders the selected charge's components.
type Inspector struct {
	panelX, panelY int32
}

// NewInspector creates an inspector anchored to the top right of the screen.
func NewInspector(screenWidth int32) *Inspector {
	ins := &Inspector{}
	ins.Resize(screenWidth)
	return ins
}

// Resize re-anchors the panel.
func (ins *Inspector) Resize(screenWidth int32) {
	ins.panelX = screenWidth - PanelWidth - 10
	ins.panelY = 10
}

// Contains reports whether a screen point lies inside the panel.
func (ins *Inspector) Contains(x, y float32, height int32) bool {
	return int32(x) >= ins.panelX && int32(x) <= ins.panelX+PanelWidth &&
		int32(y) >= ins.panelY && int32(y) <= ins.panelY+height
}

// Height returns the panel height for the current layout.
func (ins *Inspector) Height() int32 {
	return HeaderHeight + PanelPadding*2 + 20 + 18 + 20*3 + 8 + 20*2
}

// Draw renders the panel.
func (ins *Inspector) Draw(d Data) {
	height := ins.Height()

	rl.DrawRectangle(ins.panelX, ins.panelY, PanelWidth, height, ColorPanelBg)
	rl.DrawRectangleLinesEx(
		rl.Rectangle{X: float32(ins.panelX), Y: float32(ins.panelY), Width: PanelWidth, Height: float32(height)},
		1,
		ColorPanelBorder,
	)
	rl.DrawRectangle(ins.panelX, ins.panelY, PanelWidth, HeaderHeight, ColorPanelHeader)
	rl.DrawText("CHARGE", ins.panelX+PanelPadding, ins.panelY+7, 16, ColorHeaderText)

	x := ins.panelX + PanelPadding
	y := ins.panelY + HeaderHeight + PanelPadding

	charge := components.Charge{ID: d.Charge.ID, Magnitude: d.Charge.Magnitude}
	for _, f := range ExtractFields(charge) {
		y += DrawField(x, y, f)
	}

	pos := components.Position(d.Charge.Pos)
	for _, f := range ExtractFields(pos) {
		f.Tag.Format = "%.1f"
		y += DrawField(x, y, f)
	}

	rl.DrawLine(x, y+2, ins.panelX+PanelWidth-PanelPadding, y+2, ColorPanelBorder)
	y += 8

	y += DrawLabel(x, y, "Sample", fmt.Sprint(d.SampleIndex))
	DrawLabel(x, y, "Opacity", fmt.Sprintf("%.2f", d.SampleAlpha))
}
