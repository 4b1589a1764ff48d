package inspector

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Widget colors
var (
	ColorBarBg       = rl.Color{R: 40, G: 40, B: 40, A: 255}
	ColorBarPositive = rl.Color{R: 200, G: 100, B: 100, A: 255}
	ColorBarNegative = rl.Color{R: 100, G: 150, B: 220, A: 255}
	ColorBarZero     = rl.Color{R: 90, G: 90, B: 90, A: 255}
	ColorText        = rl.Color{R: 220, G: 220, B: 220, A: 255}
	ColorTextDim     = rl.Color{R: 150, G: 150, B: 150, A: 255}
)

// DrawLabel renders "name: text".
func DrawLabel(x, y int32, name, text string) int32 {
	rl.DrawText(fmt.Sprintf("%s: %s", name, text), x, y, 16, ColorText)
	return 20
}

// DrawBar renders a horizontal bar filled from the zero point of its range,
// so signed values grow left or right.
func DrawBar(x, y int32, name string, value, minVal, maxVal float32) int32 {
	span := maxVal - minVal
	if span <= 0 {
		span = 1
	}

	barWidth := int32(120)
	barHeight := int32(14)

	rl.DrawText(name, x, y, 14, ColorTextDim)

	barX := x + 80
	rl.DrawRectangle(barX, y, barWidth, barHeight, ColorBarBg)

	zero := clampRatio((0 - minVal) / span)
	ratio := clampRatio((value - minVal) / span)
	zeroX := barX + int32(float32(barWidth)*zero)
	fillX := barX + int32(float32(barWidth)*ratio)

	fillColor := ColorBarPositive
	if fillX < zeroX {
		fillColor = ColorBarNegative
		zeroX, fillX = fillX, zeroX
	}
	rl.DrawRectangle(zeroX, y, fillX-zeroX, barHeight, fillColor)
	if minVal < 0 && maxVal > 0 {
		cx := barX + int32(float32(barWidth)*zero)
		rl.DrawLine(cx, y, cx, y+barHeight, ColorBarZero)
	}

	rl.DrawText(fmt.Sprintf("%+.2f", value), barX+barWidth+5, y, 14, ColorTextDim)

	return 18
}

// DrawField renders a field using its widget type.
func DrawField(x, y int32, field Field) int32 {
	if field.Tag.Widget == WidgetBar {
		if v, ok := field.Float(); ok {
			return DrawBar(x, y, field.Name, v, field.Tag.Min, field.Tag.Max)
		}
	}
	return DrawLabel(x, y, field.Name, field.Text())
}

func clampRatio(r float32) float32 {
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}
