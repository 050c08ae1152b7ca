package app

import (
	"context"
	"log"
	"sync"

	"confusionflow/domain/cell"
	"confusionflow/domain/run"
	"confusionflow/internal/content"
	"confusionflow/internal/errors"
	"confusionflow/internal/events"
	"confusionflow/internal/render"
	"confusionflow/internal/viewstate"
	"confusionflow/ports"
)

// stage tracks the renderer chains mounted on one canvas area so they can be
// torn down together
type stage struct {
	canvas ports.Canvas
	area   ports.Area
	chains []*render.Chain
}

func (s *stage) mount(bp render.Blueprint, c *cell.Cell, steps []render.Step, env render.Env, p ports.Placement) error {
	p.Area = s.area
	p.CellID = c.ID.String()
	p.Width, p.Height = c.Width, c.Height
	ch, err := render.Mount(bp, c, steps, env, s.canvas.Place(p))
	if err != nil {
		return err
	}
	s.chains = append(s.chains, ch)
	return nil
}

func (s *stage) clear() {
	for _, ch := range s.chains {
		ch.Teardown()
	}
	s.chains = nil
	s.canvas.ClearArea(s.area)
}

// MatrixView renders the confusion matrix, its FP and FN columns and the
// overall accuracy cell onto a canvas. It reloads the selected runs on redraw
// requests and rebuilds every chain when the class subset or the matrix
// cell renderer changes.
type MatrixView struct {
	state       *viewstate.State
	loader      ports.RunLoader
	width       float64
	maxRunCount int

	mu       sync.Mutex
	loaded   []run.LoadedRun
	bundle   *RenderConfigBundle
	cells    []*cell.Cell
	fp       []*cell.Cell
	fn       []*cell.Cell
	accuracy *cell.Cell
	matrix   *stage
	fpStage  *stage
	fnStage  *stage
	accStage *stage
	subs     []*events.Subscription
}

// NewMatrixView creates a view that lays the matrix out over width pixels
func NewMatrixView(state *viewstate.State, loader ports.RunLoader, canvas ports.Canvas, width float64, maxRunCount int) *MatrixView {
	return &MatrixView{
		state:       state,
		loader:      loader,
		width:       width,
		maxRunCount: maxRunCount,
		matrix:      &stage{canvas: canvas, area: ports.AreaMatrix},
		fpStage:     &stage{canvas: canvas, area: ports.AreaFP},
		fnStage:     &stage{canvas: canvas, area: ports.AreaFN},
		accStage:    &stage{canvas: canvas, area: ports.AreaAccuracy},
	}
}

// Attach subscribes the view to the notifications that trigger a reload or
// a rebuild
func (v *MatrixView) Attach() {
	bus := v.state.Bus()
	rebuild := func(events.Event) {
		if err := v.Render(); err != nil {
			log.Printf("[Matrix] Render failed: %v", err)
		}
	}
	v.subs = append(v.subs,
		bus.Subscribe(events.Redraw, func(events.Event) {
			if err := v.Refresh(context.Background()); err != nil {
				log.Printf("[Matrix] Refresh failed: %v", err)
			}
		}),
		bus.Subscribe(events.ClassIndicesChanged, rebuild),
		bus.Subscribe(events.CellRendererTransposed, rebuild),
		bus.Subscribe(events.CellRendererChanged, rebuild),
	)
}

// Detach removes the view's subscriptions and tears down its chains
func (v *MatrixView) Detach() {
	for _, s := range v.subs {
		s.Unsubscribe()
	}
	v.subs = nil
	v.mu.Lock()
	v.clearLocked()
	v.mu.Unlock()
}

// Refresh loads the selected runs and renders them. With no class subset
// chosen yet it selects every class of the first run; the resulting
// notification triggers the render.
func (v *MatrixView) Refresh(ctx context.Context) error {
	runs, err := v.loader.LoadRuns(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to load runs")
	}

	v.mu.Lock()
	v.loaded = runs
	v.mu.Unlock()

	if len(runs) == 0 {
		v.Clear()
		return nil
	}
	if len(v.state.ClassIndices()) == 0 {
		v.state.SetClassIndices(runs[0].LabelIDs)
		return nil
	}
	return v.Render()
}

// Render filters the loaded runs to the selected classes, recomputes the
// content and rebuilds every chain
func (v *MatrixView) Render() error {
	v.mu.Lock()
	pass, err := v.renderLocked()
	v.mu.Unlock()
	if err != nil {
		return err
	}
	v.state.SetRenderMode(pass.mode)
	if pass.bundle == nil {
		return nil
	}
	bundle := pass.bundle
	v.state.SetCellSize(pass.cellSize, pass.cellSize)

	v.updateSelectedCell()
	v.state.Bus().Fire(events.RenderConfMeasure, bundle)
	return nil
}

// renderPass is the outcome of a rebuild. The view applies it to the state
// after releasing its lock.
type renderPass struct {
	bundle   *RenderConfigBundle
	mode     run.RenderMode
	cellSize float64
}

func (v *MatrixView) renderLocked() (renderPass, error) {
	v.clearLocked()
	if len(v.loaded) == 0 {
		return renderPass{mode: run.RenderClear}, nil
	}

	runs, err := filterRuns(v.loaded, v.state.ClassIndices())
	if err != nil {
		return renderPass{}, err
	}
	mode := run.ChooseRenderMode(runs)
	if mode == run.RenderClear {
		return renderPass{mode: mode}, nil
	}

	bundle, err := CreateCellRendererConfig(mode, v.state, runs, render.Listeners)
	if err != nil {
		return renderPass{}, err
	}
	n := bundle.Order()
	if n == 0 {
		return renderPass{mode: mode}, nil
	}
	size := max(v.width/float64(n)-2, 1)

	env := render.Env{State: v.state, MaxRunCount: v.maxRunCount, EpochLabels: bundle.EpochLabels}

	v.cells = MatrixCells(bundle)
	bp := bundle.Blueprints.ConfMatrix
	for pos, c := range v.cells {
		c.SetSize(size, size)
		steps := bp.StepsFor(content.IsDiagonal(pos, n))
		if err := v.matrix.mount(bp, c, steps, env, ports.Placement{Row: pos / n, Col: pos % n}); err != nil {
			return renderPass{}, err
		}
	}

	v.fp, v.fn = FPCells(bundle), FNCells(bundle)
	panel := bundle.Blueprints.FPFN
	for i := range v.fp {
		v.fp[i].SetSize(size, size)
		if err := v.fpStage.mount(panel, v.fp[i], panel.Diagonal, env, ports.Placement{Row: 0, Col: i}); err != nil {
			return renderPass{}, err
		}
		v.fn[i].SetSize(size, size)
		if err := v.fnStage.mount(panel, v.fn[i], panel.Diagonal, env, ports.Placement{Row: i, Col: 0}); err != nil {
			return renderPass{}, err
		}
	}

	v.accuracy = OverallAccuracyCell(bundle)
	v.accuracy.SetSize(size, size)
	acc := bundle.Blueprints.OverallAccuracy
	if err := v.accStage.mount(acc, v.accuracy, acc.Diagonal, env, ports.Placement{}); err != nil {
		return renderPass{}, err
	}

	v.bundle = bundle
	return renderPass{bundle: bundle, mode: mode, cellSize: size}, nil
}

func filterRuns(runs []run.LoadedRun, classIndices []int) ([]run.LoadedRun, error) {
	if len(classIndices) == 0 {
		return runs, nil
	}
	out := make([]run.LoadedRun, 0, len(runs))
	for _, r := range runs {
		fr, err := run.FilterRun(r, classIndices)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to filter run %s", r.Name)
		}
		out = append(out, fr)
	}
	return out, nil
}

// Clear tears the view down and asks the detail views to clear as well
func (v *MatrixView) Clear() {
	v.mu.Lock()
	v.clearLocked()
	v.mu.Unlock()
	v.state.Deselect()
	bus := v.state.Bus()
	bus.Fire(events.ClearConfMeasuresView, nil)
	bus.Fire(events.ClearDetailChart, nil)
}

func (v *MatrixView) clearLocked() {
	v.matrix.clear()
	v.fpStage.clear()
	v.fnStage.clear()
	v.accStage.clear()
	v.bundle = nil
	v.cells, v.fp, v.fn, v.accuracy = nil, nil, nil, nil
}

// updateSelectedCell rebinds the selection to the cell rebuilt at the same
// place, falling back to the overall accuracy cell
func (v *MatrixView) updateSelectedCell() {
	v.mu.Lock()
	selected := v.state.SelectedCell()
	next := v.accuracy
	if selected != nil {
		next = v.counterpart(selected)
	}
	v.mu.Unlock()

	if selected != nil && selected.Kind == cell.KindMetricsPanel {
		// the measures view rebinds its own cells
		return
	}
	if next != nil {
		v.state.SelectCell(next)
	}
}

func (v *MatrixView) counterpart(selected *cell.Cell) *cell.Cell {
	n := len(v.fp)
	switch {
	case selected.Kind == cell.KindMatrix:
		pos := selected.GroundTruthIndex*n + selected.PredictedIndex
		if selected.GroundTruthIndex < n && selected.PredictedIndex < n && pos < len(v.cells) {
			return v.cells[pos]
		}
	case selected.HasType(cell.PanelFP):
		if selected.PanelColumn < n {
			return v.fp[selected.PanelColumn]
		}
	case selected.HasType(cell.PanelFN):
		if selected.PanelColumn < n {
			return v.fn[selected.PanelColumn]
		}
	}
	return v.accuracy
}

// Bundle returns the content of the last render pass, or nil
func (v *MatrixView) Bundle() *RenderConfigBundle {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.bundle
}

// Select selects the matrix, panel or accuracy cell with the given id
func (v *MatrixView) Select(id string) error {
	c := v.find(id)
	if c == nil || !c.Selectable() {
		return errors.NotFound("cell " + id)
	}
	v.state.SelectCell(c)
	return nil
}

// Hover highlights the class pair of the matrix cell with the given id when
// it belongs to the selected FP or FN panel
func (v *MatrixView) Hover(id string) {
	c := v.find(id)
	if c == nil || !c.TriggersHighlight(v.state.SelectedCell()) {
		return
	}
	v.state.SetCellHighlight(c.GroundTruthLabel, c.PredictedLabel)
}

// Leave removes the hover highlight
func (v *MatrixView) Leave() {
	v.state.ClearCellHighlight()
}

func (v *MatrixView) find(id string) *cell.Cell {
	v.mu.Lock()
	defer v.mu.Unlock()
	all := append(append(append([]*cell.Cell{}, v.cells...), v.fp...), v.fn...)
	if v.accuracy != nil {
		all = append(all, v.accuracy)
	}
	for _, c := range all {
		if c.ID.String() == id {
			return c
		}
	}
	return nil
}
