package app

import (
	"log"
	"sync"

	"confusionflow/domain/cell"
	"confusionflow/domain/run"
	"confusionflow/internal/events"
	"confusionflow/internal/render"
	"confusionflow/internal/viewstate"
	"confusionflow/ports"
)

// BundleSource exposes the content of the latest matrix render pass
type BundleSource interface {
	Bundle() *RenderConfigBundle
}

// DetailChart draws the selected matrix or panel cell as a large line chart
// with axes, or as a bar chart for class sizes
type DetailChart struct {
	state       *viewstate.State
	source      BundleSource
	width       float64
	height      float64
	maxRunCount int

	mu     sync.Mutex
	stage  *stage
	cell   *cell.Cell
	header string
	subs   []*events.Subscription
}

// NewDetailChart creates a detail chart of the given plot size
func NewDetailChart(state *viewstate.State, source BundleSource, canvas ports.Canvas, width, height float64, maxRunCount int) *DetailChart {
	return &DetailChart{
		state:       state,
		source:      source,
		width:       width,
		height:      height,
		maxRunCount: maxRunCount,
		stage:       &stage{canvas: canvas, area: ports.AreaDetail},
	}
}

// Attach redraws on selection, hover and absolute toggles
func (d *DetailChart) Attach() {
	bus := d.state.Bus()
	redraw := func(events.Event) { d.Render() }
	d.subs = append(d.subs,
		bus.Subscribe(events.CellSelected, redraw),
		bus.Subscribe(events.AbsoluteSwitched, redraw),
		bus.Subscribe(events.CellHovered, redraw),
		bus.Subscribe(events.ClearDetailChart, func(events.Event) { d.Clear() }),
	)
}

// Detach removes the chart's subscriptions and chains
func (d *DetailChart) Detach() {
	for _, s := range d.subs {
		s.Unsubscribe()
	}
	d.subs = nil
	d.Clear()
}

// Clear removes the chart and its listeners
func (d *DetailChart) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clearLocked()
}

func (d *DetailChart) clearLocked() {
	d.stage.clear()
	d.cell = nil
	d.header = ""
}

// Render rebuilds the chart for the selected cell. Label cells and single
// mode show nothing.
func (d *DetailChart) Render() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clearLocked()

	selected := d.state.SelectedCell()
	if selected == nil || !selected.Selectable() || d.state.RenderMode() == run.RenderSingle {
		return
	}

	bp := detailBlueprint(selected)
	c := cell.NewDetailChartCell(selected)
	c.SetSize(d.width, d.height)
	env := render.Env{State: d.state, MaxRunCount: d.maxRunCount}
	if b := d.source.Bundle(); b != nil {
		env.EpochLabels = b.EpochLabels
	}

	d.header = cell.Header(selected, d.state.Absolute())
	if err := d.stage.mount(bp, c, bp.Diagonal, env, ports.Placement{Title: d.header}); err != nil {
		log.Printf("[Detail] Failed to render %s: %v", selected.ID, err)
		return
	}
	d.cell = c
}

// detailBlueprint picks bars for class sizes and a line chart with axes for
// everything else. Rates are bounded, so they ignore the scaling controls.
func detailBlueprint(selected *cell.Cell) render.Blueprint {
	if selected.HasType(cell.PanelClassSize) {
		return render.Blueprint{Diagonal: []render.Step{{Kind: render.KindBarChart}, {Kind: render.KindBarAxis}}}
	}
	functors := render.Listeners
	if selected.IsRate() {
		functors = nil
	}
	return render.Blueprint{
		Diagonal: []render.Step{{Kind: render.KindLineChart}, {Kind: render.KindAxis}, {Kind: render.KindVerticalLine}},
		Functors: functors,
	}
}

// Header returns the title of the current chart
func (d *DetailChart) Header() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.header
}

// Cell returns the detail cell currently drawn, or nil
func (d *DetailChart) Cell() *cell.Cell {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cell
}

// MeasuresView draws the per class metrics table whenever the matrix view
// finishes a render pass
type MeasuresView struct {
	state       *viewstate.State
	width       float64
	height      float64
	maxRunCount int

	mu    sync.Mutex
	stage *stage
	table *MeasuresTable
	subs  []*events.Subscription
}

// NewMeasuresView creates a table view of the given size
func NewMeasuresView(state *viewstate.State, canvas ports.Canvas, width, height float64, maxRunCount int) *MeasuresView {
	return &MeasuresView{
		state:       state,
		width:       width,
		height:      height,
		maxRunCount: maxRunCount,
		stage:       &stage{canvas: canvas, area: ports.AreaMeasures},
	}
}

// Attach listens for finished matrix renders and clear requests
func (m *MeasuresView) Attach() {
	bus := m.state.Bus()
	m.subs = append(m.subs,
		bus.Subscribe(events.RenderConfMeasure, func(e events.Event) {
			b, ok := e.Payload.(*RenderConfigBundle)
			if !ok {
				return
			}
			if err := m.Render(b); err != nil {
				log.Printf("[Measures] Render failed: %v", err)
			}
		}),
		bus.Subscribe(events.ClearConfMeasuresView, func(events.Event) { m.Clear() }),
	)
}

// Detach removes the view's subscriptions and chains
func (m *MeasuresView) Detach() {
	for _, s := range m.subs {
		s.Unsubscribe()
	}
	m.subs = nil
	m.Clear()
}

// Clear empties the table
func (m *MeasuresView) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stage.clear()
	m.table = nil
}

// Render builds the table for b. Single mode shows no table.
func (m *MeasuresView) Render(b *RenderConfigBundle) error {
	m.mu.Lock()
	m.stage.clear()
	m.table = nil
	if b.Mode == run.RenderSingle || len(b.Runs) == 0 {
		m.mu.Unlock()
		return nil
	}

	t, err := NewMeasuresTable(b)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	env := render.Env{State: m.state, MaxRunCount: m.maxRunCount, EpochLabels: b.EpochLabels}
	rowHeight := m.height / float64(max(len(t.Rows), 1))
	for r, row := range t.Rows {
		for col, c := range row {
			c.SetSize(m.width*t.Widths[col], rowHeight)
			bp := t.Blueprints[col]
			if err := m.stage.mount(bp, c, bp.Diagonal, env, ports.Placement{Row: r, Col: col}); err != nil {
				m.mu.Unlock()
				return err
			}
		}
	}
	m.table = t
	m.mu.Unlock()

	m.updateSelectedCell(t)
	return nil
}

// updateSelectedCell rebinds a selected metrics cell to its rebuilt twin
func (m *MeasuresView) updateSelectedCell(t *MeasuresTable) {
	selected := m.state.SelectedCell()
	if selected == nil || selected.Kind != cell.KindMetricsPanel {
		return
	}
	if next := t.Cell(selected.PanelRow, selected.PanelColumn); next != nil {
		m.state.SelectCell(next)
	}
}

// Table returns the table of the last render, or nil
func (m *MeasuresView) Table() *MeasuresTable {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.table
}

// Select selects the metrics cell at row, col
func (m *MeasuresView) Select(row, col int) bool {
	m.mu.Lock()
	var c *cell.Cell
	if m.table != nil {
		c = m.table.Cell(row, col)
	}
	m.mu.Unlock()
	if c == nil || !c.Selectable() {
		return false
	}
	m.state.SelectCell(c)
	return true
}
