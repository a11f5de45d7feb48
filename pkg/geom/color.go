package geom

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl64"
)

// Color is a linear RGBA color with components in [0, 1].
type Color struct {
	R float64 `json:"r" yaml:"r"`
	G float64 `json:"g" yaml:"g"`
	B float64 `json:"b" yaml:"b"`
	A float64 `json:"a" yaml:"a"`
}

// Common colors.
var (
	Green = Color{0, 1, 0, 1}
	Red   = Color{1, 0, 0, 1}
	White = Color{1, 1, 1, 1}
)

// Lerp interpolates each channel toward to.
func (c Color) Lerp(to Color, t float64) Color {
	return Color{
		R: Lerp(c.R, to.R, t),
		G: Lerp(c.G, to.G, t),
		B: Lerp(c.B, to.B, t),
		A: Lerp(c.A, to.A, t),
	}
}

// Vec4 packs the color for shader-style parameter arrays.
func (c Color) Vec4() mgl64.Vec4 {
	return mgl64.Vec4{c.R, c.G, c.B, c.A}
}

// RGBA implements color.Color (alpha-premultiplied, 16 bit).
func (c Color) RGBA() (r, g, b, a uint32) {
	a = channel(c.A)
	r = channel(c.R) * a / 0xffff
	g = channel(c.G) * a / 0xffff
	b = channel(c.B) * a / 0xffff
	return r, g, b, a
}

func channel(v float64) uint32 {
	return uint32(Clamp01(v)*0xffff + 0.5)
}

var _ color.Color = Color{}
