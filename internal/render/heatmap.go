package render

import (
	"confusionflow/domain/cell"
	"confusionflow/ports"
)

// heatmapMultiEpoch draws one band per run whose color walks the epoch range
// as hard gradient stops. Bands stack vertically and run left to right, or
// sit side by side and run top to bottom when transposed.
type heatmapMultiEpoch struct {
	hooks
	env        Env
	transposed bool
	cell       *cell.Cell
	surf       ports.Surface
}

func newHeatmapMultiEpoch(env Env, transposed bool) *heatmapMultiEpoch {
	r := &heatmapMultiEpoch{env: env, transposed: transposed}
	r.hooks = hooks{bus: env.bus(), update: r.draw}
	return r
}

func (r *heatmapMultiEpoch) Kind() Kind { return KindHeatmapMultiEpoch }

func (r *heatmapMultiEpoch) Render(c *cell.Cell, s ports.Surface) {
	r.cell, r.surf = c, s
	r.rendered = true
	r.draw()
}

func (r *heatmapMultiEpoch) colorScale(l cell.Line) colorScale {
	state := r.env.State
	wf := state.WeightFactor()
	top := 1.0
	if state.Absolute() {
		top = l.Max
	}
	if state.YScalingIsLinear() {
		return linearColors(wf*top, colorWhite, l.Color)
	}
	return powColors(wf, top, colorWhite, l.Color)
}

func (r *heatmapMultiEpoch) draw() {
	c, s := r.cell, r.surf
	s.Clear(ports.LayerBackground)

	lines := c.Data.Flatten()
	if len(lines) == 0 {
		return
	}
	absolute := r.env.State.Absolute()
	for k, l := range lines {
		values := l.Series(absolute)
		if len(values) == 0 {
			continue
		}
		scale := r.colorScale(l)
		width := 1 / float64(len(values))
		stops := make([]ports.GradientStop, 0, 2*len(values))
		for i, v := range values {
			color := scale.At(v)
			stops = append(stops,
				ports.GradientStop{Offset: float64(i) * width, Color: color},
				ports.GradientStop{Offset: float64(i+1) * width, Color: color},
			)
		}
		g := ports.Gradient{Direction: ports.ToRight, Stops: stops}
		if r.transposed {
			g.Direction = ports.ToBottom
			g.Width = c.Width / float64(len(lines))
			g.X = float64(k) * g.Width
			g.Height = c.Height
		} else {
			g.Width = c.Width
			g.Height = c.Height / float64(len(lines))
			g.Y = float64(k) * g.Height
		}
		s.Draw(ports.LayerBackground, g)
	}
}

// heatmapSingleEpoch draws one sub cell per run colored by its count
type heatmapSingleEpoch struct {
	noHooks
	showNumber bool
	grayscale  bool
}

func newHeatmapSingleEpoch(showNumber, grayscale bool) heatmapSingleEpoch {
	return heatmapSingleEpoch{showNumber: showNumber, grayscale: grayscale}
}

func (r heatmapSingleEpoch) Kind() Kind { return KindHeatmapSingleEpoch }

func (r heatmapSingleEpoch) Render(c *cell.Cell, s ports.Surface) {
	s.Clear(ports.LayerBackground)
	heat := c.Data.Heat
	if heat.IsEmpty() {
		return
	}

	width := c.Width / float64(len(heat.Counts))
	for i, count := range heat.Counts {
		var scale colorScale
		if r.grayscale {
			scale = grayColors(heat.MaxVal)
		} else {
			scale = linearColors(heat.MaxVal, colorWhite, colorAt(heat.ColorValues, i))
		}
		fill := scale.At(count)
		x := float64(i) * width
		s.Draw(ports.LayerBackground, ports.Rect{X: x, Width: width, Height: c.Height, Fill: fill, Class: "heat-cell"})
		if r.showNumber {
			s.Draw(ports.LayerBackground, ports.Text{
				At:     ports.Point{X: x + width/2, Y: c.Height / 2},
				Value:  formatTick(count),
				Color:  contrastText(fill),
				Anchor: "middle",
			})
		}
	}
}

// singleEpochMarker draws a small black stripe over a multi epoch heatmap at
// the position of the single epoch.
type singleEpochMarker struct {
	hooks
	transposed bool
	cell       *cell.Cell
	surf       ports.Surface
}

const (
	markerBorder  = 2
	markerMinSize = 1
	markerDepth   = 2
)

func newSingleEpochMarker(env Env, transposed bool) *singleEpochMarker {
	r := &singleEpochMarker{transposed: transposed}
	r.hooks = hooks{bus: env.bus(), update: r.draw}
	return r
}

func (r *singleEpochMarker) Kind() Kind { return KindSingleEpochMarker }

func (r *singleEpochMarker) Render(c *cell.Cell, s ports.Surface) {
	r.cell, r.surf = c, s
	r.rendered = true
	r.draw()
}

func (r *singleEpochMarker) draw() {
	c, s := r.cell, r.surf
	s.Clear(ports.LayerOverlay)

	idx, ok := c.Data.Heat.SingleEpochIndex()
	if !ok || idx < 0 {
		return
	}
	largestLine, ok := cell.LargestLine(c.Data.Flatten())
	if !ok || len(largestLine.Values) == 0 {
		return
	}
	largest := float64(len(largestLine.Values))

	length := c.Width
	if r.transposed {
		length = c.Height
	}
	res := (length - markerBorder) / largest
	var pos float64
	// a sub-pixel marker on the last epoch is shifted back inside the cell
	if res < markerMinSize && int(largest)-markerMinSize == idx {
		pos = res*largest - markerMinSize
	} else {
		pos = res * float64(idx)
	}
	res = max(res, markerMinSize)

	rect := ports.Rect{X: pos, Width: res, Height: markerDepth, Fill: colorBlack, Class: "single-epoch-marker"}
	if r.transposed {
		rect = ports.Rect{Y: pos, Width: markerDepth, Height: res, Fill: colorBlack, Class: "single-epoch-marker"}
	}
	s.Draw(ports.LayerOverlay, rect)
}
