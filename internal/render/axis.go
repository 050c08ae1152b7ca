package render

import (
	"math"

	"confusionflow/domain/cell"
	"confusionflow/ports"
)

// tickLabelWidth is the horizontal room one epoch label needs
const tickLabelWidth = 25

// axis draws the epoch axis and a y axis mirroring the paired line chart.
// Weight factor and scale changes only redraw the axes.
type axis struct {
	hooks
	env  Env
	cell *cell.Cell
	surf ports.Surface
}

func newAxis(env Env) *axis {
	r := &axis{env: env}
	r.hooks = hooks{bus: env.bus(), update: r.draw}
	return r
}

func (r *axis) Kind() Kind { return KindAxis }

func (r *axis) Render(c *cell.Cell, s ports.Surface) {
	r.cell, r.surf = c, s
	r.rendered = true
	r.draw()
}

func (r *axis) draw() {
	c, s := r.cell, r.surf
	state := r.env.State
	s.Clear(ports.LayerAxis)

	epochs := r.env.epochLabels()
	positions := pointPositions(len(epochs), 0, c.Width)
	freq := tickFrequency(len(epochs), c.Width)
	xAxis := ports.Axis{Orientation: ports.AxisBottom, Length: c.Width}
	for i, label := range epochs {
		if i%freq == 0 {
			xAxis.Positions = append(xAxis.Positions, positions[i])
			xAxis.Labels = append(xAxis.Labels, label)
		}
	}
	s.Draw(ports.LayerAxis, xAxis)

	lines := c.Data.Flatten()
	y := yScale(state.YScalingIsLinear(), c.WeightFactor(state.WeightFactor()), yMax(c, lines, state.Absolute()), c.Height)
	yPositions, yLabels := axisTicks(y, 10)
	s.Draw(ports.LayerAxis, ports.Axis{Orientation: ports.AxisLeft, Positions: yPositions, Labels: yLabels, Length: c.Height})

	s.Draw(ports.LayerAxis, ports.Text{
		At:     ports.Point{X: -axisDistance / 2, Y: c.Height / 2},
		Value:  cell.YLabel(state.SelectedCell(), state.Absolute()),
		Anchor: "middle",
		Rotate: -90,
	})
	s.Draw(ports.LayerAxis, ports.Text{
		At:     ports.Point{X: c.Width / 2, Y: c.Height + axisDistance/2},
		Value:  cell.TextEpoch,
		Anchor: "middle",
	})
}

// tickFrequency keeps every n-th epoch label so labels do not overlap
func tickFrequency(n int, width float64) int {
	room := width / tickLabelWidth
	if n == 0 || room <= 0 {
		return 1
	}
	return max(int(math.Ceil(float64(n)/room)), 1)
}

// labelCell writes the class label of a diagonal cell
type labelCell struct {
	noHooks
}

func (labelCell) Kind() Kind { return KindLabelCell }

func (labelCell) Render(c *cell.Cell, s ports.Surface) {
	s.Clear(ports.LayerLabel)
	s.Draw(ports.LayerLabel, ports.Text{
		At:     ports.Point{X: c.Width / 2, Y: c.Height / 2},
		Value:  c.Label,
		Color:  colorBlack,
		Anchor: "middle",
	})
}
