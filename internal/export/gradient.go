package export

import (
	"image"
	"image/color"

	"github.com/atinyakov/valentine/internal/card"
)

// gradient is a diagonal three-stop gradient over a rectangle, top-left to
// bottom-right.
type gradient struct {
	stops  [3]color.NRGBA
	bounds image.Rectangle
}

func newGradient(hex [3]string, bounds image.Rectangle) *gradient {
	g := &gradient{bounds: bounds}
	for i, h := range hex {
		g.stops[i] = card.ParseHex(h)
	}
	return g
}

func (g *gradient) ColorModel() color.Model { return color.NRGBAModel }

func (g *gradient) Bounds() image.Rectangle { return g.bounds }

func (g *gradient) At(x, y int) color.Color {
	span := g.bounds.Dx() + g.bounds.Dy() - 2
	if span <= 0 {
		return g.stops[0]
	}
	t := float64(x-g.bounds.Min.X+y-g.bounds.Min.Y) / float64(span)
	switch {
	case t <= 0:
		return g.stops[0]
	case t >= 1:
		return g.stops[2]
	case t < 0.5:
		return lerp(g.stops[0], g.stops[1], t*2)
	default:
		return lerp(g.stops[1], g.stops[2], (t-0.5)*2)
	}
}

func lerp(a, b color.NRGBA, t float64) color.NRGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5)
	}
	return color.NRGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}
