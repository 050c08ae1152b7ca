package render

import (
	"strconv"

	"github.com/montanaflynn/stats"
	"github.com/samber/lo"

	"confusionflow/domain/cell"
	"confusionflow/ports"
)

const (
	barPadding   = 0.2
	axisDistance = 100
)

func maxCount(counts []float64) float64 {
	m, err := stats.Max(counts)
	if err != nil {
		return 0
	}
	return m
}

// barChart draws one bar per run, centered in the cell and sized so that a
// full comparison fills it.
type barChart struct {
	hooks
	env  Env
	cell *cell.Cell
	surf ports.Surface
}

func newBarChart(env Env) *barChart {
	r := &barChart{env: env}
	r.hooks = hooks{bus: env.bus(), update: r.draw}
	return r
}

func (r *barChart) Kind() Kind { return KindBarChart }

func (r *barChart) Render(c *cell.Cell, s ports.Surface) {
	r.cell, r.surf = c, s
	r.rendered = true
	r.draw()
}

func (r *barChart) draw() {
	c, s := r.cell, r.surf
	s.Clear(ports.LayerContent)
	heat := c.Data.Heat
	if heat.IsEmpty() {
		return
	}

	slots := max(r.env.MaxRunCount, len(heat.Counts))
	half := c.Width / 2
	spread := float64(len(heat.Counts)) * (half / float64(slots))
	x := newBand(len(heat.Counts), half-spread, half+spread, barPadding)
	y := newLinear(0, maxCount(heat.Counts), c.Height, 0, true)

	for i, v := range heat.Counts {
		top := y.At(v)
		s.Draw(ports.LayerContent, ports.Rect{
			X:      x.At(i),
			Y:      top,
			Width:  x.bandwidth,
			Height: c.Height - top,
			Fill:   colorAt(heat.ColorValues, i),
			Class:  "bar",
		})
	}
}

// barAxis labels a bar chart: runs along x, counts along y
type barAxis struct {
	noHooks
	env Env
}

func newBarAxis(env Env) barAxis { return barAxis{env: env} }

func (r barAxis) Kind() Kind { return KindBarAxis }

func (r barAxis) Render(c *cell.Cell, s ports.Surface) {
	s.Clear(ports.LayerAxis)
	heat := c.Data.Heat
	if heat.IsEmpty() {
		return
	}

	x := newBand(len(heat.Counts), 0, c.Width, barPadding)
	s.Draw(ports.LayerAxis, ports.Axis{
		Orientation: ports.AxisBottom,
		Positions:   lo.Map(x.positions, func(p float64, _ int) float64 { return p + x.bandwidth/2 }),
		Labels:      lo.Times(len(heat.Counts), strconv.Itoa),
		Length:      c.Width,
	})

	y := newLinear(0, maxCount(heat.Counts), c.Height, 0, true)
	positions, labels := axisTicks(y, 10)
	s.Draw(ports.LayerAxis, ports.Axis{Orientation: ports.AxisLeft, Positions: positions, Labels: labels, Length: c.Height})

	state := r.env.State
	s.Draw(ports.LayerAxis, ports.Text{
		At:     ports.Point{X: -axisDistance / 2, Y: c.Height / 2},
		Value:  cell.YLabel(state.SelectedCell(), state.Absolute()),
		Anchor: "middle",
		Rotate: -90,
	})
	s.Draw(ports.LayerAxis, ports.Text{
		At:     ports.Point{X: c.Width / 2, Y: c.Height + axisDistance/3.0},
		Value:  cell.TextRuns,
		Anchor: "middle",
	})
}
