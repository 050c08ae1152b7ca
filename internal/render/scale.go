package render

import (
	"math"
	"strconv"

	"github.com/samber/lo"
)

// scale maps a domain value to pixel space
type scale interface {
	At(v float64) float64
	Domain() (float64, float64)
}

// linearScale maps [d0,d1] onto [r0,r1]. A degenerate domain maps everything
// to r0.
type linearScale struct {
	d0, d1 float64
	r0, r1 float64
	round  bool
}

func newLinear(d0, d1, r0, r1 float64, round bool) linearScale {
	return linearScale{d0: d0, d1: d1, r0: r0, r1: r1, round: round}
}

func (s linearScale) normalize(v float64) float64 {
	if s.d1 == s.d0 {
		return 0
	}
	return (v - s.d0) / (s.d1 - s.d0)
}

func (s linearScale) At(v float64) float64 {
	out := s.r0 + s.normalize(v)*(s.r1-s.r0)
	if s.round {
		return math.Round(out)
	}
	return out
}

func (s linearScale) Domain() (float64, float64) { return s.d0, s.d1 }

// powScale applies v^exponent before mapping linearly
type powScale struct {
	linearScale
	exponent float64
}

func newPow(exponent, d0, d1, r0, r1 float64, round bool) powScale {
	return powScale{linearScale: newLinear(d0, d1, r0, r1, round), exponent: exponent}
}

func (s powScale) pow(v float64) float64 {
	if v < 0 {
		return -math.Pow(-v, s.exponent)
	}
	return math.Pow(v, s.exponent)
}

func (s powScale) At(v float64) float64 {
	p0, p1 := s.pow(s.d0), s.pow(s.d1)
	t := 0.0
	if p1 != p0 {
		t = (s.pow(v) - p0) / (p1 - p0)
	}
	out := s.r0 + t*(s.r1-s.r0)
	if s.round {
		return math.Round(out)
	}
	return out
}

// yScale returns the vertical scale shared by line charts and their axes:
// linear over [0, wf*max] or a power scale with exponent wf over [0, max].
func yScale(linear bool, weightFactor, max, height float64) scale {
	if linear {
		return newLinear(0, weightFactor*max, height, 0, true)
	}
	return newPow(weightFactor, 0, max, height, 0, true)
}

// bandScale lays out n equal bands with padding between them, rounding
// positions to whole pixels.
type bandScale struct {
	positions []float64
	bandwidth float64
}

func newBand(n int, start, stop, padding float64) bandScale {
	if n <= 0 {
		return bandScale{}
	}
	step := math.Floor((stop - start) / (float64(n) - padding + 2*padding))
	rest := stop - start - (float64(n)-padding)*step
	first := start + math.Round(rest/2)
	return bandScale{
		positions: lo.Times(n, func(i int) float64 { return first + step*float64(i) }),
		bandwidth: math.Round(step * (1 - padding)),
	}
}

func (b bandScale) At(i int) float64 {
	if i < 0 || i >= len(b.positions) {
		return 0
	}
	return b.positions[i]
}

// pointPositions spreads n points evenly over [start, stop]. A single point
// sits in the middle.
func pointPositions(n int, start, stop float64) []float64 {
	switch n {
	case 0:
		return nil
	case 1:
		return []float64{(start + stop) / 2}
	}
	step := (stop - start) / float64(n-1)
	return lo.Times(n, func(i int) float64 { return start + step*float64(i) })
}

// ticks returns roughly count round values covering [d0, d1]
func ticks(d0, d1 float64, count int) []float64 {
	if d1 < d0 {
		d0, d1 = d1, d0
	}
	if d1 == d0 || count <= 0 {
		return []float64{d0}
	}
	step := tickStep(d0, d1, count)
	start := math.Ceil(d0/step) * step
	n := int(math.Floor((d1-start)/step+1e-9)) + 1
	return lo.Times(n, func(i int) float64 {
		v := start + float64(i)*step
		return math.Round(v/step) * step
	})
}

func tickStep(d0, d1 float64, count int) float64 {
	raw := (d1 - d0) / float64(count)
	power := math.Pow(10, math.Floor(math.Log10(raw)))
	switch errRatio := raw / power; {
	case errRatio >= math.Sqrt(50):
		return power * 10
	case errRatio >= math.Sqrt(10):
		return power * 5
	case errRatio >= math.Sqrt(2):
		return power * 2
	}
	return power
}

// formatTick prints the shortest float32 form so accumulated step error
// does not leak into labels
func formatTick(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 32)
}

// axisTicks returns tick positions and labels of a vertical scale
func axisTicks(s scale, count int) ([]float64, []string) {
	d0, d1 := s.Domain()
	values := ticks(d0, d1, count)
	positions := lo.Map(values, func(v float64, _ int) float64 { return s.At(v) })
	labels := lo.Map(values, func(v float64, _ int) string { return formatTick(v) })
	return positions, labels
}
