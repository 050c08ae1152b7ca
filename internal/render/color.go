package render

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

const (
	colorWhite  = "#ffffff"
	colorBlack  = "#000000"
	colorGray   = "#808080"
	colorMuted  = "#d3d3d3"
	lineOpacity = 0.6
)

func parseColor(hex string) colorful.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{R: 0, G: 0, B: 0}
	}
	return c
}

// colorScale maps values onto a color ramp. Values outside the domain are
// clamped to its ends.
type colorScale struct {
	position func(v float64) float64
	from, to colorful.Color
	hcl      bool
}

func (s colorScale) At(v float64) string {
	t := s.position(v)
	if math.IsNaN(t) {
		t = 0
	}
	t = min(max(t, 0), 1)
	if s.hcl {
		return s.from.BlendHcl(s.to, t).Clamped().Hex()
	}
	return s.from.BlendRgb(s.to, t).Hex()
}

// linearColors ramps from -> to over [0, max]
func linearColors(max float64, from, to string) colorScale {
	dom := newLinear(0, max, 0, 1, false)
	return colorScale{position: dom.At, from: parseColor(from), to: parseColor(to)}
}

// powColors ramps from -> to over [0, max] after raising values to exponent
func powColors(exponent, max float64, from, to string) colorScale {
	dom := newPow(exponent, 0, max, 0, 1, false)
	return colorScale{position: dom.At, from: parseColor(from), to: parseColor(to)}
}

// grayColors ramps white -> gray in HCL space over [0, max]
func grayColors(max float64) colorScale {
	s := linearColors(max, colorWhite, colorGray)
	s.hcl = true
	return s
}

// contrastText returns black on light backgrounds and white on dark ones
func contrastText(background string) string {
	_, _, l := parseColor(background).Hsl()
	if l > 0.5 {
		return colorBlack
	}
	return colorWhite
}

func colorAt(colors []string, i int) string {
	if i < len(colors) {
		return colors[i]
	}
	return colorBlack
}
