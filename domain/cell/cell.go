package cell

import (
	"fmt"

	"github.com/samber/lo"

	"confusionflow/domain/core"
)

// Kind discriminates the cell variants
type Kind int

const (
	KindMatrix Kind = iota
	KindPanel
	KindMetricsPanel
	KindDetailChart
	KindLabel
)

func (k Kind) String() string {
	switch k {
	case KindMatrix:
		return "matrix"
	case KindPanel:
		return "panel"
	case KindMetricsPanel:
		return "metrics-panel"
	case KindDetailChart:
		return "detail-chart"
	case KindLabel:
		return "label"
	}
	return "unknown"
}

// PanelType names what a panel cell aggregates
type PanelType string

const (
	PanelFP              PanelType = "cellFP"
	PanelFN              PanelType = "cellFN"
	PanelPrecision       PanelType = "cellPrecision"
	PanelRecall          PanelType = "cellRecall"
	PanelF1              PanelType = "cellF1Score"
	PanelOverallAccuracy PanelType = "overallAccuracyScore"
	PanelClassSize       PanelType = "cellClassSize"
)

// Cell is one drawable unit of a view. Fields beyond Kind, Data and the size
// are only meaningful for the variants noted on them.
type Cell struct {
	ID     core.CellID
	Kind   Kind
	Data   Data
	Width  float64
	Height float64

	// label cells
	Label string

	// matrix cells
	PredictedLabel   string
	GroundTruthLabel string
	PredictedIndex   int
	GroundTruthIndex int

	// panel and metrics panel cells
	PanelType   PanelType
	PanelColumn int
	PanelRow    int

	// detail chart cells
	Child *Cell
}

// NewMatrixCell creates the off-diagonal matrix cell at (groundTruth, predicted)
func NewMatrixCell(data Data, predictedLabel, groundTruthLabel string, predicted, groundTruth int) *Cell {
	return &Cell{
		ID:               core.MatrixCellID(groundTruth, predicted),
		Kind:             KindMatrix,
		Data:             data,
		PredictedLabel:   predictedLabel,
		GroundTruthLabel: groundTruthLabel,
		PredictedIndex:   predicted,
		GroundTruthIndex: groundTruth,
	}
}

// NewLabelCell creates a text only cell
func NewLabelCell(label string) *Cell {
	return &Cell{ID: core.CellID("label-" + label), Kind: KindLabel, Label: label}
}

// NewPanelCell creates a cell of the FP/FN columns or the overall accuracy cell
func NewPanelCell(data Data, panelType PanelType, column, row int) *Cell {
	return &Cell{
		ID:          core.PanelCellID(string(panelType), column, row),
		Kind:        KindPanel,
		Data:        data,
		PanelType:   panelType,
		PanelColumn: column,
		PanelRow:    row,
	}
}

// NewMetricsPanelCell creates a cell of the metrics table
func NewMetricsPanelCell(data Data, panelType PanelType, column, row int) *Cell {
	c := NewPanelCell(data, panelType, column, row)
	c.Kind = KindMetricsPanel
	return c
}

// NewDetailChartCell wraps a selected matrix or panel cell for the detail chart
func NewDetailChartCell(child *Cell) *Cell {
	return &Cell{
		ID:    core.CellID(fmt.Sprintf("detail-%s", child.ID)),
		Kind:  KindDetailChart,
		Data:  child.Data,
		Child: child,
	}
}

// SetSize sets the pixel size the cell is drawn at
func (c *Cell) SetSize(width, height float64) {
	c.Width = width
	c.Height = height
}

// IsPanel reports whether the cell is a panel or metrics panel cell
func (c *Cell) IsPanel() bool {
	return c.Kind == KindPanel || c.Kind == KindMetricsPanel
}

// HasType reports whether c is a panel of one of the given types
func (c *Cell) HasType(types ...PanelType) bool {
	return c.IsPanel() && lo.Contains(types, c.PanelType)
}

// WeightFactor returns the factor the cell scales its charts with. Metrics panels
// always use 1 so their rates are not distorted.
func (c *Cell) WeightFactor(global float64) float64 {
	switch c.Kind {
	case KindMetricsPanel:
		return 1
	case KindDetailChart:
		if c.Child != nil {
			return c.Child.WeightFactor(global)
		}
	}
	return global
}

// IsRate reports whether the cell shows a bounded rate (precision, recall, F1),
// directly or through a detail chart.
func (c *Cell) IsRate() bool {
	target := c
	if c.Kind == KindDetailChart && c.Child != nil {
		target = c.Child
	}
	return target.HasType(PanelPrecision, PanelRecall, PanelF1)
}

// Selectable reports whether clicking the cell selects it
func (c *Cell) Selectable() bool {
	return c.Kind == KindMatrix || c.IsPanel()
}

// TriggersHighlight reports whether hovering c should highlight its class pair
// while selected is the current selection. Only FP and FN panels propagate.
func (c *Cell) TriggersHighlight(selected *Cell) bool {
	if c.Kind != KindMatrix || selected == nil || !selected.IsPanel() {
		return false
	}
	first, ok := selected.firstLine()
	if !ok {
		return false
	}
	switch selected.PanelType {
	case PanelFN:
		return first.GroundTruthLabel == c.GroundTruthLabel
	case PanelFP:
		return first.PredictedLabel == c.PredictedLabel
	}
	return false
}

func (c *Cell) firstLine() (Line, bool) {
	if len(c.Data.Lines) == 0 || len(c.Data.Lines[0]) == 0 {
		return Line{}, false
	}
	return c.Data.Lines[0][0], true
}

// RowLabel recovers the ground truth class of an FN panel from its diagonal
// sentinel line.
func (c *Cell) RowLabel() (string, bool) {
	if len(c.Data.Lines) == 0 {
		return "", false
	}
	for _, l := range c.Data.Lines[0] {
		if IsDiagonalSentinel(l) {
			return l.PredictedLabel, true
		}
	}
	return "", false
}
