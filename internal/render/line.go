package render

import (
	"github.com/samber/lo"

	"confusionflow/domain/cell"
	"confusionflow/ports"
)

// dashedStrokeWidth is the stroke of the single epoch line. It is shifted by
// half its width at the cell borders so it stays visible.
const dashedStrokeWidth = 2

// yMax returns the top of the y domain. Detail charts of bounded rates always
// end at 1; otherwise absolute mode uses the largest line's max.
func yMax(c *cell.Cell, lines []cell.Line, absolute bool) float64 {
	if c.Kind == cell.KindDetailChart && c.IsRate() {
		return 1
	}
	if !absolute {
		return 1
	}
	largest, ok := cell.LargestLine(lines)
	if !ok {
		return 1
	}
	return largest.Max
}

// xScale spans the longest series across the cell width
func xScale(lines []cell.Line, width float64) linearScale {
	largest, _ := cell.LargestLine(lines)
	return newLinear(0, float64(len(largest.Values)-1), 0, width, true)
}

// lineChart draws one path per run. With frame set it also draws the cell
// frame, which is how matrix cells show line content.
type lineChart struct {
	hooks
	env   Env
	frame bool
	cell  *cell.Cell
	surf  ports.Surface
}

func newLineChart(env Env, frame bool) *lineChart {
	r := &lineChart{env: env, frame: frame}
	r.hooks = hooks{bus: env.bus(), update: r.draw}
	return r
}

func (r *lineChart) Kind() Kind {
	if r.frame {
		return KindMatrixLineCell
	}
	return KindLineChart
}

func (r *lineChart) Render(c *cell.Cell, s ports.Surface) {
	lines := c.Data.Flatten()
	if !r.frame && (len(lines) == 0 || c.Data.IsSingleEmptyLine()) {
		return
	}
	r.cell, r.surf = c, s
	r.rendered = true
	r.draw()
}

func (r *lineChart) draw() {
	c, s := r.cell, r.surf
	state := r.env.State
	s.Clear(ports.LayerContent)
	if r.frame {
		s.Draw(ports.LayerContent, ports.Rect{Width: c.Width, Height: c.Height, Fill: "none", Class: "linechart"})
	}

	lines := c.Data.Flatten()
	if len(lines) == 0 || c.Data.IsSingleEmptyLine() {
		return
	}

	absolute := state.Absolute()
	x := xScale(lines, c.Width)
	y := yScale(state.YScalingIsLinear(), c.WeightFactor(state.WeightFactor()), yMax(c, lines, absolute), c.Height)
	highlighted := state.IsHighlighted()

	for _, l := range lines {
		series := l.Series(absolute)
		if len(series) == 0 {
			continue
		}
		stroke := l.Color
		if highlighted && !state.CheckCellHighlight(l.GroundTruthLabel, l.PredictedLabel) {
			stroke = colorMuted
		}
		s.Draw(ports.LayerContent, ports.Path{
			Points: lo.Map(series, func(v float64, i int) ports.Point {
				return ports.Point{X: x.At(float64(i)), Y: y.At(v)}
			}),
			Stroke:  stroke,
			Opacity: lineOpacity,
			Title:   l.PredictedLabel,
		})
	}
}

// verticalLine marks the single epoch inside the epoch range with a dashed
// line across the cell.
type verticalLine struct {
	hooks
	cell *cell.Cell
	surf ports.Surface
}

func newVerticalLine(env Env) *verticalLine {
	r := &verticalLine{}
	r.hooks = hooks{bus: env.bus(), update: r.draw}
	return r
}

func (r *verticalLine) Kind() Kind { return KindVerticalLine }

func (r *verticalLine) Render(c *cell.Cell, s ports.Surface) {
	r.cell, r.surf = c, s
	r.rendered = true
	r.draw()
}

func (r *verticalLine) draw() {
	c, s := r.cell, r.surf
	s.Clear(ports.LayerOverlay)

	idx, ok := c.Data.Heat.SingleEpochIndex()
	if !ok || idx < 0 {
		return
	}
	lines := c.Data.Flatten()
	if len(lines) == 0 || c.Data.IsSingleEmptyLine() {
		return
	}

	pos := xScale(lines, c.Width).At(float64(idx))
	pos += borderOffset(pos, c.Width)
	s.Draw(ports.LayerOverlay, ports.Segment{
		From:   ports.Point{X: pos, Y: 0},
		To:     ports.Point{X: pos, Y: c.Height},
		Stroke: colorBlack,
		Width:  dashedStrokeWidth,
		Dashed: true,
	})
}

func borderOffset(pos, width float64) float64 {
	half := float64(dashedStrokeWidth) / 2
	switch pos {
	case 0:
		return half
	case width:
		return -half
	}
	return 0
}
