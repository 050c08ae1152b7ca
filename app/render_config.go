package app

import (
	"fmt"

	"github.com/samber/lo"

	"confusionflow/domain/cell"
	"confusionflow/domain/measures"
	"confusionflow/domain/run"
	"confusionflow/internal/content"
	"confusionflow/internal/errors"
	"confusionflow/internal/render"
	"confusionflow/internal/viewstate"
)

// Blueprints groups the renderer blueprints of every view area
type Blueprints struct {
	FPFN            render.Blueprint
	ConfMatrix      render.Blueprint
	OverallAccuracy render.Blueprint
	Label           render.Blueprint
	ClassSize       render.Blueprint
}

// RenderConfigBundle is the fully computed content of one render pass plus the
// blueprints the views compose their chains from. Content is never computed
// lazily: a bundle is complete before any chain is built against it.
type RenderConfigBundle struct {
	Mode run.RenderMode
	Runs []run.LoadedRun

	// Heat is indexed by flattened position; nil in multi mode
	Heat []*cell.HeatContent
	// Lines is indexed by flattened position, then run; nil in single mode
	Lines [][]cell.Line
	// OverallAccuracy holds the accuracy series of every run
	OverallAccuracy [][]float64
	// SingleEpochIndex is the position of each run's single epoch inside its
	// range; nil unless both are shown
	SingleEpochIndex []int

	Blueprints Blueprints
}

// CreateCellRendererConfig computes the content for mode and picks the
// renderer blueprints. functors are installed on the renderers of the views
// whose charts follow the global scaling controls.
func CreateCellRendererConfig(mode run.RenderMode, state *viewstate.State, runs []run.LoadedRun, functors []render.Functor) (*RenderConfigBundle, error) {
	b := &RenderConfigBundle{Mode: mode, Runs: runs}

	var err error
	switch mode {
	case run.RenderCombined:
		err = b.configureCombined(state, functors)
	case run.RenderSingle:
		err = b.configureSingle(functors)
	case run.RenderMulti:
		err = b.configureMulti(state, functors)
	default:
		return nil, errors.InvalidConfiguration(fmt.Sprintf("unknown render mode %s", mode))
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to configure %s rendering", mode)
	}

	b.Blueprints.Label = render.Blueprint{Diagonal: []render.Step{{Kind: render.KindLabelCell}}}
	b.Blueprints.ClassSize = render.Blueprint{Diagonal: []render.Step{{Kind: render.KindBarChart}}}
	return b, nil
}

func (b *RenderConfigBundle) configureCombined(state *viewstate.State, functors []render.Functor) error {
	heat, err := content.NewSingleEpochCalculator().Calculate(b.Runs)
	if err != nil {
		return err
	}
	lines, err := content.NewMultiEpochCalculator().Calculate(b.Runs)
	if err != nil {
		return err
	}
	b.Heat, b.Lines = heat, lines

	b.OverallAccuracy = accuracySeries(b.Runs)
	if first, ok := lo.Find(heat, func(h *cell.HeatContent) bool { return !h.IsEmpty() }); ok {
		b.SingleEpochIndex = first.IndexInMultiSelection
	}

	transposed := state.Transposed()
	var offDiagonal []render.Step
	switch state.CellRenderer() {
	case viewstate.CellRendererLine:
		offDiagonal = []render.Step{
			{Kind: render.KindMatrixLineCell},
			{Kind: render.KindHeatmapSingleEpoch, Params: render.Params{ShowNumber: false, Grayscale: true}},
			{Kind: render.KindVerticalLine},
		}
	case viewstate.CellRendererHeatmap:
		offDiagonal = []render.Step{
			{Kind: render.KindHeatmapMultiEpoch, Params: render.Params{Transposed: transposed}},
			{Kind: render.KindSingleEpochMarker, Params: render.Params{Transposed: transposed}},
		}
	default:
		return unknownCellRenderer(state.CellRenderer())
	}

	b.Blueprints.FPFN = render.Blueprint{
		Diagonal: []render.Step{{Kind: render.KindMatrixLineCell}, {Kind: render.KindVerticalLine}},
		Functors: functors,
	}
	b.Blueprints.ConfMatrix = render.Blueprint{
		Diagonal:    []render.Step{{Kind: render.KindLabelCell}},
		OffDiagonal: offDiagonal,
		Functors:    functors,
	}
	b.Blueprints.OverallAccuracy = render.Blueprint{
		Diagonal: []render.Step{{Kind: render.KindMatrixLineCell}, {Kind: render.KindVerticalLine}},
	}
	return nil
}

func (b *RenderConfigBundle) configureSingle(functors []render.Functor) error {
	heat, err := content.NewSingleEpochCalculator().Calculate(b.Runs)
	if err != nil {
		return err
	}
	b.Heat = heat
	b.OverallAccuracy = [][]float64{}

	b.Blueprints.FPFN = render.Blueprint{
		Diagonal: []render.Step{{Kind: render.KindBarChart}},
		Functors: functors,
	}
	b.Blueprints.ConfMatrix = render.Blueprint{
		Diagonal: []render.Step{{Kind: render.KindLabelCell}},
		OffDiagonal: []render.Step{
			{Kind: render.KindHeatmapSingleEpoch, Params: render.Params{ShowNumber: false, Grayscale: false}},
		},
		Functors: functors,
	}
	b.Blueprints.OverallAccuracy = render.Blueprint{
		Diagonal: []render.Step{{Kind: render.KindBarChart}},
		Functors: functors,
	}
	return nil
}

func (b *RenderConfigBundle) configureMulti(state *viewstate.State, functors []render.Functor) error {
	lines, err := content.NewMultiEpochCalculator().Calculate(b.Runs)
	if err != nil {
		return err
	}
	b.Lines = lines
	b.OverallAccuracy = accuracySeries(b.Runs)

	var offDiagonal []render.Step
	switch state.CellRenderer() {
	case viewstate.CellRendererLine:
		offDiagonal = []render.Step{{Kind: render.KindMatrixLineCell}}
	case viewstate.CellRendererHeatmap:
		offDiagonal = []render.Step{
			{Kind: render.KindHeatmapMultiEpoch, Params: render.Params{Transposed: state.Transposed()}},
		}
	default:
		return unknownCellRenderer(state.CellRenderer())
	}

	b.Blueprints.FPFN = render.Blueprint{
		Diagonal: []render.Step{{Kind: render.KindMatrixLineCell}},
		Functors: functors,
	}
	b.Blueprints.ConfMatrix = render.Blueprint{
		Diagonal:    []render.Step{{Kind: render.KindLabelCell}},
		OffDiagonal: offDiagonal,
		Functors:    functors,
	}
	b.Blueprints.OverallAccuracy = render.Blueprint{
		Diagonal: []render.Step{{Kind: render.KindMatrixLineCell}},
	}
	return nil
}

func unknownCellRenderer(r viewstate.CellRenderer) error {
	return errors.InvalidConfiguration(fmt.Sprintf("unknown cell renderer %q", r))
}

func accuracySeries(runs []run.LoadedRun) [][]float64 {
	return lo.Map(runs, func(r run.LoadedRun, _ int) []float64 {
		return measures.CalcOverallAccuracy(r.MultiMatrices())
	})
}

// Order returns the class count of the bundle's matrices
func (b *RenderConfigBundle) Order() int {
	return content.Order(b.Runs)
}

// Labels returns the class labels of the first run
func (b *RenderConfigBundle) Labels() []string {
	if len(b.Runs) == 0 {
		return nil
	}
	return b.Runs[0].Labels
}

// Colors returns the run colors in slot order
func (b *RenderConfigBundle) Colors() []string {
	return lo.Map(b.Runs, func(r run.LoadedRun, _ int) string { return r.Color })
}

// PositionData returns the cell payload of flattened position pos with each
// run's line wrapped in its own series slot
func (b *RenderConfigBundle) PositionData(pos int) cell.Data {
	var p cell.Position
	if pos >= 0 && pos < len(b.Heat) {
		p.Heat = b.Heat[pos]
	}
	if pos >= 0 && pos < len(b.Lines) {
		p.Lines = b.Lines[pos]
	}
	return cell.FromPosition(p)
}

// EpochLabels returns the epoch ids of the largest selected range. Axes use
// them as x tick labels.
func (b *RenderConfigBundle) EpochLabels() []string {
	var longest []run.EpochRecord
	for _, r := range b.Runs {
		if len(r.MultiEpochRange) > len(longest) {
			longest = r.MultiEpochRange
		}
	}
	return lo.Map(longest, func(e run.EpochRecord, _ int) string { return fmt.Sprint(e.ID) })
}
