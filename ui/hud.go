package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/efield/telemetry"
)

// HUDData holds the per-frame numbers shown in the top-left corner.
type HUDData struct {
	Title      string
	Tick       int32
	FPS        int32
	Charges    int
	Samples    int
	Degenerate int
	PassTime   time.Duration
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer()}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)
	rl.DrawText(
		fmt.Sprintf("Charges: %d | Samples: %d | Pass: %s", data.Charges, data.Samples, data.PassTime.Round(time.Microsecond)),
		10, 35, 16, rl.LightGray,
	)
	rl.DrawText(fmt.Sprintf("Tick: %d | FPS: %d", data.Tick, data.FPS), 10, 55, 16, rl.LightGray)
	if data.Degenerate > 0 {
		rl.DrawText(fmt.Sprintf("%d samples on a charge", data.Degenerate), 10, 75, 16, rl.Yellow)
	}
}

// fieldStatsSection describes the opacity distribution panel.
var fieldStatsSection = SectionDescriptor{
	ID:    "field_stats",
	Title: "Field (last window)",
	Fields: []FieldDescriptor{
		{ID: "net", Label: "Net charge", Widget: WidgetCenteredBar, Range: FieldRange{Min: -4, Max: 4},
			Getter: func(d any) float32 { return float32(d.(telemetry.WindowStats).NetCharge) }},
		{ID: "mean", Label: "Opacity mean", Widget: WidgetBar, Range: DefaultRange(),
			Getter: func(d any) float32 { return float32(d.(telemetry.WindowStats).OpacityMean) }},
		{ID: "p50", Label: "Opacity p50", Widget: WidgetBar, Range: DefaultRange(),
			Getter: func(d any) float32 { return float32(d.(telemetry.WindowStats).OpacityP50) }},
		{ID: "sat", Label: "Saturated", Widget: WidgetBar, Range: DefaultRange(),
			Getter: func(d any) float32 { return float32(d.(telemetry.WindowStats).SaturatedFrac) }},
		{ID: "floor", Label: "At floor", Widget: WidgetBar, Range: DefaultRange(),
			Getter: func(d any) float32 { return float32(d.(telemetry.WindowStats).FloorFrac) }},
		{ID: "maxmag", Label: "Max |E|", Widget: WidgetText, Format: "%.3g",
			Getter: func(d any) float32 { return float32(d.(telemetry.WindowStats).MaxMagnitude) }},
	},
}

// perfSection describes the tick timing panel.
var perfSection = SectionDescriptor{
	ID:    "perf",
	Title: "Performance",
	Fields: []FieldDescriptor{
		{ID: "pass", Label: "Avg pass", Widget: WidgetText,
			TextGetter: func(d any) string { return d.(telemetry.PerfStats).AvgPass.Round(time.Microsecond).String() }},
		{ID: "p95", Label: "P95 pass", Widget: WidgetText,
			TextGetter: func(d any) string { return d.(telemetry.PerfStats).P95Pass.Round(time.Microsecond).String() }},
		{ID: "pps", Label: "Passes/s", Widget: WidgetText, Format: "%.0f",
			Getter: func(d any) float32 { return float32(d.(telemetry.PerfStats).PassesPerSecond) }},
		{ID: "field", Label: "Field %", Widget: WidgetBar, Range: FieldRange{Min: 0, Max: 100},
			Getter: func(d any) float32 { return float32(d.(telemetry.PerfStats).Phase(telemetry.PhaseField).Pct) }},
		{ID: "telemetry", Label: "Telemetry %", Widget: WidgetBar, Range: FieldRange{Min: 0, Max: 100},
			Getter: func(d any) float32 { return float32(d.(telemetry.PerfStats).Phase(telemetry.PhaseTelemetry).Pct) }},
	},
}

// StatsPanel renders one descriptor section in its own panel.
type StatsPanel struct {
	renderer *Renderer
	section  SectionDescriptor
	x, y     int32
	width    int32
}

// NewFieldStatsPanel creates the opacity distribution panel.
func NewFieldStatsPanel(width int32) *StatsPanel {
	return &StatsPanel{renderer: NewRenderer(), section: fieldStatsSection, width: width}
}

// NewPerfPanel creates the tick timing panel.
func NewPerfPanel(width int32) *StatsPanel {
	return &StatsPanel{renderer: NewRenderer(), section: perfSection, width: width}
}

// SetPosition updates the panel position.
func (p *StatsPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the panel and returns the y below it.
func (p *StatsPanel) Draw(data any) int32 {
	r := p.renderer
	pad := r.Theme.Padding
	h := r.SectionHeight(p.section) + pad*2
	r.DrawPanel(p.x, p.y, p.width, h)
	r.DrawSection(p.x+pad, p.y+pad, p.section, data, p.width-pad*2)
	return p.y + h
}
