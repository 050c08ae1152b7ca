package cell

import (
	"github.com/samber/lo"
)

// HeatContent is the single epoch payload of a cell: one scalar per compared run.
// Counts, ClassLabels and ColorValues align positionally with the runs.
type HeatContent struct {
	MaxVal                float64   `json:"max_val"`
	Counts                []float64 `json:"counts"`
	ClassLabels           []string  `json:"class_labels"`
	IndexInMultiSelection []int     `json:"index_in_multi_selection"`
	ColorValues           []string  `json:"color_values"`
}

// EmptyHeat is the content of a suppressed diagonal position
func EmptyHeat() *HeatContent {
	return &HeatContent{
		Counts:                []float64{},
		ClassLabels:           []string{},
		IndexInMultiSelection: []int{},
		ColorValues:           []string{},
	}
}

// IsEmpty reports whether the content carries no counts
func (h *HeatContent) IsEmpty() bool {
	return h == nil || len(h.Counts) == 0
}

// SingleEpochIndex returns the position of the first run's single epoch in its
// epoch range. ok is false when no index is known.
func (h *HeatContent) SingleEpochIndex() (idx int, ok bool) {
	if h == nil || len(h.IndexInMultiSelection) == 0 {
		return 0, false
	}
	return h.IndexInMultiSelection[0], true
}

// Line is the multi epoch payload of a cell for one run
type Line struct {
	Values           []float64 `json:"values"`
	ValuesInPercent  []float64 `json:"values_in_percent"`
	Max              float64   `json:"max"`
	PredictedLabel   string    `json:"predicted_label"`
	GroundTruthLabel string    `json:"ground_truth_label"`
	Color            string    `json:"color"`
}

// IsDiagonalSentinel reports whether l is the empty line emitted for a
// suppressed diagonal position. Views rely on it to recover the ground truth
// label of a row.
func IsDiagonalSentinel(l Line) bool {
	return len(l.Values) == 0
}

// Series returns the absolute or percentage values of l
func (l Line) Series(absolute bool) []float64 {
	if absolute {
		return l.Values
	}
	return l.ValuesInPercent
}

// LargestLine returns the line with the most values. Ties keep the later line.
func LargestLine(lines []Line) (Line, bool) {
	if len(lines) == 0 {
		return Line{}, false
	}
	largest := lines[0]
	for _, l := range lines[1:] {
		if len(largest.Values) <= len(l.Values) {
			largest = l
		}
	}
	return largest, true
}

// Position is the content of one flattened matrix position: a heat payload,
// a line per run, or both.
type Position struct {
	Heat  *HeatContent
	Lines []Line
}

// Data is the payload attached to a cell. Lines is indexed by run, then series.
type Data struct {
	Heat  *HeatContent
	Lines [][]Line
}

// Flatten returns all lines of all runs
func (d Data) Flatten() []Line {
	return lo.Flatten(d.Lines)
}

// IsSingleEmptyLine reports whether the cell holds exactly one empty line.
// Line based renderers skip such cells.
func (d Data) IsSingleEmptyLine() bool {
	lines := d.Flatten()
	return len(lines) == 1 && IsDiagonalSentinel(lines[0])
}

// FromPosition wraps each run's line in its own series slot
func FromPosition(p Position) Data {
	var lines [][]Line
	if p.Lines != nil {
		lines = lo.Map(p.Lines, func(l Line, _ int) []Line { return []Line{l} })
	}
	return Data{Heat: p.Heat, Lines: lines}
}
