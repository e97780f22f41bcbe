package entity

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/opd-ai/go-bouncyballs/pkg/physics"
)

// HueColor returns a fully saturated, mid-lightness colour for hue in
// degrees. Any hue is accepted and wrapped into [0, 360).
func HueColor(hue float64) colorful.Color {
	h := math.Mod(hue, 360)
	if h < 0 {
		h += 360
	}
	return colorful.Hsl(h, 1, 0.5)
}

// PositionColor maps a point to a hue of (x+y)/2 degrees
func PositionColor(p physics.Vector2D) colorful.Color {
	return HueColor((p.X + p.Y) / 2)
}
