// Package svg draws placed cells into a single SVG document
package svg

import (
	"fmt"
	"html"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/samber/lo"

	"confusionflow/ports"
)

const (
	margin = 20.0
	gap    = 2.0
	// spacing between areas
	gutter = 24.0
)

// Canvas keeps every placed surface in memory until it is written out
type Canvas struct {
	mu    sync.Mutex
	areas map[ports.Area][]*Surface
}

var _ ports.Canvas = (*Canvas)(nil)

// NewCanvas creates an empty canvas
func NewCanvas() *Canvas {
	return &Canvas{areas: make(map[ports.Area][]*Surface)}
}

func (c *Canvas) Place(p ports.Placement) ports.Surface {
	s := &Surface{placement: p, layers: make(map[ports.Layer][]ports.Shape)}
	c.mu.Lock()
	c.areas[p.Area] = append(c.areas[p.Area], s)
	c.mu.Unlock()
	return s
}

func (c *Canvas) ClearArea(area ports.Area) {
	c.mu.Lock()
	delete(c.areas, area)
	c.mu.Unlock()
}

// Count returns the number of surfaces placed in area
func (c *Canvas) Count(area ports.Area) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.areas[area])
}

// Surface records the shapes of one cell per layer
type Surface struct {
	placement ports.Placement

	mu     sync.Mutex
	layers map[ports.Layer][]ports.Shape
}

func (s *Surface) Clear(layer ports.Layer) {
	s.mu.Lock()
	delete(s.layers, layer)
	s.mu.Unlock()
}

func (s *Surface) Draw(layer ports.Layer, shape ports.Shape) {
	s.mu.Lock()
	s.layers[layer] = append(s.layers[layer], shape)
	s.mu.Unlock()
}

func (s *Surface) shapes(layer ports.Layer) []ports.Shape {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.Shape(nil), s.layers[layer]...)
}

// grid is the pixel layout of one area. Column widths and row heights are
// the largest of the cells placed in them.
type grid struct {
	colX, rowY    []float64
	width, height float64
}

func newGrid(surfaces []*Surface) grid {
	var widths, heights []float64
	for _, s := range surfaces {
		p := s.placement
		widths = grow(widths, p.Col)
		heights = grow(heights, p.Row)
		widths[p.Col] = max(widths[p.Col], p.Width)
		heights[p.Row] = max(heights[p.Row], p.Height)
	}
	g := grid{colX: offsets(widths), rowY: offsets(heights)}
	if len(widths) > 0 {
		g.width = g.colX[len(widths)-1] + widths[len(widths)-1]
	}
	if len(heights) > 0 {
		g.height = g.rowY[len(heights)-1] + heights[len(heights)-1]
	}
	return g
}

func grow(s []float64, i int) []float64 {
	for len(s) <= i {
		s = append(s, 0)
	}
	return s
}

func offsets(sizes []float64) []float64 {
	out := make([]float64, len(sizes))
	for i := 1; i < len(sizes); i++ {
		out[i] = out[i-1] + sizes[i-1] + gap
	}
	return out
}

type origin struct{ x, y float64 }

// layout positions the areas around the matrix: FN to its right, FP below,
// accuracy in the corner, the measures table further right and the detail
// chart underneath everything.
func layout(grids map[ports.Area]grid) (map[ports.Area]origin, float64, float64) {
	m := grids[ports.AreaMatrix]
	fn, fp, acc := grids[ports.AreaFN], grids[ports.AreaFP], grids[ports.AreaAccuracy]

	side := margin + m.width + gutter
	below := margin + m.height + gutter
	right := side + max(fn.width, acc.width) + gutter
	pos := map[ports.Area]origin{
		ports.AreaMatrix:   {margin, margin},
		ports.AreaFN:       {side, margin},
		ports.AreaFP:       {margin, below},
		ports.AreaAccuracy: {side, below},
		ports.AreaMeasures: {right, margin},
	}
	bottom := max(below+max(fp.height, acc.height), margin+grids[ports.AreaMeasures].height) + gutter
	pos[ports.AreaDetail] = origin{margin, bottom}

	width := max(right+grids[ports.AreaMeasures].width, margin+grids[ports.AreaDetail].width) + margin
	height := bottom + grids[ports.AreaDetail].height + margin
	return pos, width, height
}

// Render returns the canvas as an SVG document
func (c *Canvas) Render() string {
	c.mu.Lock()
	areas := make(map[ports.Area][]*Surface, len(c.areas))
	for a, ss := range c.areas {
		areas[a] = append([]*Surface(nil), ss...)
	}
	c.mu.Unlock()

	grids := lo.MapValues(areas, func(ss []*Surface, _ ports.Area) grid { return newGrid(ss) })
	pos, width, height := layout(grids)

	w := &writer{}
	w.printf(`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s" font-family="sans-serif" font-size="10">`,
		num(width), num(height), num(width), num(height))
	for _, area := range ports.Areas {
		ss := areas[area]
		if len(ss) == 0 {
			continue
		}
		sort.SliceStable(ss, func(i, j int) bool {
			a, b := ss[i].placement, ss[j].placement
			if a.Row != b.Row {
				return a.Row < b.Row
			}
			return a.Col < b.Col
		})
		o, g := pos[area], grids[area]
		w.printf(`<g class="area-%s">`, area)
		for _, s := range ss {
			p := s.placement
			w.cell(s, o.x+g.colX[p.Col], o.y+g.rowY[p.Row])
		}
		w.printf(`</g>`)
	}
	w.printf(`</svg>`)
	return w.String()
}

// WriteTo writes the SVG document to out
func (c *Canvas) WriteTo(out io.Writer) (int64, error) {
	n, err := io.WriteString(out, c.Render())
	return int64(n), err
}

type writer struct {
	strings.Builder
	gradients int
}

func (w *writer) printf(format string, args ...interface{}) {
	fmt.Fprintf(w, format, args...)
	w.WriteByte('\n')
}

func (w *writer) cell(s *Surface, x, y float64) {
	p := s.placement
	w.printf(`<g transform="translate(%s,%s)" data-cell="%s">`, num(x), num(y), esc(p.CellID))
	if p.Title != "" {
		w.printf(`<text x="0" y="-4" font-weight="bold">%s</text>`, esc(p.Title))
	}
	w.printf(`<rect width="%s" height="%s" fill="none" stroke="#ddd"/>`, num(p.Width), num(p.Height))
	for _, layer := range ports.Layers {
		for _, shape := range s.shapes(layer) {
			w.shape(shape)
		}
	}
	w.printf(`</g>`)
}

func (w *writer) shape(shape ports.Shape) {
	switch v := shape.(type) {
	case ports.Path:
		pts := lo.Map(v.Points, func(p ports.Point, _ int) string { return num(p.X) + "," + num(p.Y) })
		w.printf(`<polyline points="%s" fill="none" stroke="%s" stroke-opacity="%s">%s</polyline>`,
			strings.Join(pts, " "), esc(v.Stroke), num(v.Opacity), title(v.Title))
	case ports.Rect:
		w.printf(`<rect x="%s" y="%s" width="%s" height="%s" fill="%s"%s/>`,
			num(v.X), num(v.Y), num(v.Width), num(v.Height), esc(v.Fill), class(v.Class))
	case ports.Gradient:
		w.gradient(v)
	case ports.Segment:
		dash := ""
		if v.Dashed {
			dash = ` stroke-dasharray="3,3"`
		}
		w.printf(`<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="%s"%s/>`,
			num(v.From.X), num(v.From.Y), num(v.To.X), num(v.To.Y), esc(v.Stroke), num(lo.Ternary(v.Width > 0, v.Width, 1)), dash)
	case ports.Text:
		w.text(v)
	case ports.Axis:
		w.axis(v)
	}
}

func (w *writer) gradient(g ports.Gradient) {
	w.gradients++
	id := fmt.Sprintf("grad%d", w.gradients)
	x2, y2 := "100%", "0%"
	if g.Direction == ports.ToBottom {
		x2, y2 = "0%", "100%"
	}
	w.printf(`<defs><linearGradient id="%s" x1="0%%" y1="0%%" x2="%s" y2="%s">`, id, x2, y2)
	for _, s := range g.Stops {
		w.printf(`<stop offset="%s" stop-color="%s"/>`, num(s.Offset), esc(s.Color))
	}
	w.printf(`</linearGradient></defs>`)
	w.printf(`<rect x="%s" y="%s" width="%s" height="%s" fill="url(#%s)"/>`,
		num(g.X), num(g.Y), num(g.Width), num(g.Height), id)
}

func (w *writer) text(t ports.Text) {
	anchor := lo.Ternary(t.Anchor == "", "start", t.Anchor)
	fill := lo.Ternary(t.Color == "", "#000", t.Color)
	rotate := ""
	if t.Rotate != 0 {
		rotate = fmt.Sprintf(` transform="rotate(%s %s %s)"`, num(t.Rotate), num(t.At.X), num(t.At.Y))
	}
	w.printf(`<text x="%s" y="%s" text-anchor="%s" fill="%s"%s>%s</text>`,
		num(t.At.X), num(t.At.Y), esc(anchor), esc(fill), rotate, esc(t.Value))
}

func (w *writer) axis(a ports.Axis) {
	w.printf(`<g class="axis-%s" stroke="#000">`, a.Orientation)
	vertical := a.Orientation == ports.AxisLeft
	if vertical {
		w.printf(`<line x1="0" y1="0" x2="0" y2="%s"/>`, num(a.Length))
	} else {
		w.printf(`<line x1="0" y1="0" x2="%s" y2="0"/>`, num(a.Length))
	}
	for i, p := range a.Positions {
		label := ""
		if i < len(a.Labels) {
			label = a.Labels[i]
		}
		if vertical {
			w.printf(`<line x1="-4" y1="%s" x2="0" y2="%s"/><text x="-6" y="%s" text-anchor="end" stroke="none">%s</text>`,
				num(p), num(p), num(p+3), esc(label))
		} else {
			w.printf(`<line x1="%s" y1="0" x2="%s" y2="4"/><text x="%s" y="14" text-anchor="middle" stroke="none">%s</text>`,
				num(p), num(p), num(p), esc(label))
		}
	}
	w.printf(`</g>`)
}

func title(s string) string {
	if s == "" {
		return ""
	}
	return "<title>" + esc(s) + "</title>"
}

func class(s string) string {
	if s == "" {
		return ""
	}
	return ` class="` + esc(s) + `"`
}

func esc(s string) string {
	return html.EscapeString(s)
}

// num formats a coordinate with at most two decimals
func num(f float64) string {
	r := math.Round(f*100) / 100
	if r == 0 {
		r = 0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
